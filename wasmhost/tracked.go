package wasmhost

import "github.com/tetratelabs/wazero/api"

// trackedMemory derives a generation from the base address of a wazero
// memory. It is used when the memory was not created through the host's
// allocator.
type trackedMemory struct {
	mem  api.Memory
	base *byte
	gen  uint64
}

func newTrackedMemory(mem api.Memory) *trackedMemory {
	t := &trackedMemory{mem: mem}
	t.Bytes()
	return t
}

func (t *trackedMemory) Bytes() []byte {
	b, _ := t.mem.Read(0, t.mem.Size())
	var base *byte
	if len(b) > 0 {
		base = &b[0]
	}
	if base != t.base {
		t.base = base
		t.gen++
	}
	return b
}

func (t *trackedMemory) Generation() uint64 {
	t.Bytes()
	return t.gen
}
