// Package wasmtest assembles small WebAssembly binaries for tests.
package wasmtest

import "bytes"

// Value types.
const (
	I32 byte = 0x7f
	I64 byte = 0x7e
	F32 byte = 0x7d
	F64 byte = 0x7c
)

// Limits describes a memory's page bounds. Max is ignored unless HasMax.
type Limits struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

// Global is a mutable global initialised to an i32 constant.
type Global struct {
	Init int32
}

// Func is a function definition. Body holds the instructions without the
// trailing end opcode.
type Func struct {
	Export  string
	Params  []byte
	Results []byte
	Body    []byte
}

// Module describes a module with at most one memory, either imported from
// env.memory or defined and exported as "memory".
type Module struct {
	ImportMemory *Limits
	Memory       *Limits
	Globals      []Global
	Funcs        []Func
}

// Encode returns the binary encoding of m.
func (m Module) Encode() []byte {
	var out bytes.Buffer
	out.Write([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})

	// One type per function keeps indices aligned.
	if len(m.Funcs) > 0 {
		var sec []byte
		sec = appendU32(sec, uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			sec = append(sec, 0x60)
			sec = appendU32(sec, uint32(len(f.Params)))
			sec = append(sec, f.Params...)
			sec = appendU32(sec, uint32(len(f.Results)))
			sec = append(sec, f.Results...)
		}
		writeSection(&out, 1, sec)
	}

	if m.ImportMemory != nil {
		var sec []byte
		sec = appendU32(sec, 1)
		sec = appendName(sec, "env")
		sec = appendName(sec, "memory")
		sec = append(sec, 0x02)
		sec = appendLimits(sec, *m.ImportMemory)
		writeSection(&out, 2, sec)
	}

	if len(m.Funcs) > 0 {
		var sec []byte
		sec = appendU32(sec, uint32(len(m.Funcs)))
		for i := range m.Funcs {
			sec = appendU32(sec, uint32(i))
		}
		writeSection(&out, 3, sec)
	}

	if m.Memory != nil {
		var sec []byte
		sec = appendU32(sec, 1)
		sec = appendLimits(sec, *m.Memory)
		writeSection(&out, 5, sec)
	}

	if len(m.Globals) > 0 {
		var sec []byte
		sec = appendU32(sec, uint32(len(m.Globals)))
		for _, g := range m.Globals {
			sec = append(sec, I32, 0x01)
			sec = append(sec, I32Const(g.Init)...)
			sec = append(sec, 0x0b)
		}
		writeSection(&out, 6, sec)
	}

	var exports []byte
	count := uint32(0)
	for i, f := range m.Funcs {
		if f.Export == "" {
			continue
		}
		exports = appendName(exports, f.Export)
		exports = append(exports, 0x00)
		exports = appendU32(exports, uint32(i))
		count++
	}
	if m.Memory != nil {
		exports = appendName(exports, "memory")
		exports = append(exports, 0x02, 0x00)
		count++
	}
	if count > 0 {
		writeSection(&out, 7, append(appendU32(nil, count), exports...))
	}

	if len(m.Funcs) > 0 {
		var sec []byte
		sec = appendU32(sec, uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			body := []byte{0x00} // no locals
			body = append(body, f.Body...)
			body = append(body, 0x0b)
			sec = appendU32(sec, uint32(len(body)))
			sec = append(sec, body...)
		}
		writeSection(&out, 10, sec)
	}

	return out.Bytes()
}

func writeSection(out *bytes.Buffer, id byte, payload []byte) {
	out.WriteByte(id)
	out.Write(appendU32(nil, uint32(len(payload))))
	out.Write(payload)
}

func appendName(b []byte, s string) []byte {
	b = appendU32(b, uint32(len(s)))
	return append(b, s...)
}

func appendLimits(b []byte, l Limits) []byte {
	if l.HasMax {
		b = append(b, 0x01)
		b = appendU32(b, l.Min)
		return appendU32(b, l.Max)
	}
	b = append(b, 0x00)
	return appendU32(b, l.Min)
}

func appendU32(b []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		b = append(b, c)
		if v == 0 {
			return b
		}
	}
}

func appendS64(b []byte, v int64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0)
		if !done {
			c |= 0x80
		}
		b = append(b, c)
		if done {
			return b
		}
	}
}
