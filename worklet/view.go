package worklet

import (
	"encoding/binary"
	"fmt"
	"math"
)

const floatSize = 4

// View is a little-endian float32 window over a Memory. It does not own the
// bytes it refers to and is only meaningful while the memory's generation
// matches the one it was cut from.
type View struct {
	mem    Memory
	offset uint32
	length int
	gen    uint64
	buf    []byte
}

// NewView cuts a window of length float32 elements at byte offset from the
// memory's live store.
func NewView(mem Memory, offset uint32, length int) (View, error) {
	if mem == nil {
		return View{}, fmt.Errorf("%w: nil memory", ErrViewOutOfRange)
	}
	if length < 0 {
		return View{}, fmt.Errorf("%w: negative length %d", ErrViewOutOfRange, length)
	}

	store := mem.Bytes()
	end := uint64(offset) + uint64(length)*floatSize
	if end > uint64(len(store)) {
		return View{}, fmt.Errorf("%w: [%d, %d) exceeds %d bytes", ErrViewOutOfRange, offset, end, len(store))
	}

	return View{
		mem:    mem,
		offset: offset,
		length: length,
		gen:    mem.Generation(),
		buf:    store[offset:end:end],
	}, nil
}

// Len returns the number of float32 elements in the view.
func (v View) Len() int {
	return v.length
}

// Offset returns the byte offset of the view in module memory.
func (v View) Offset() uint32 {
	return v.offset
}

// Generation returns the memory generation the view was cut from.
func (v View) Generation() uint64 {
	return v.gen
}

// Stale reports whether the memory has been reallocated since the view was
// cut. The zero View is always stale.
func (v View) Stale() bool {
	return v.mem == nil || v.mem.Generation() != v.gen
}

// At returns element i.
func (v View) At(i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(v.buf[i*floatSize:]))
}

// Set stores x at element i.
func (v View) Set(i int, x float32) {
	binary.LittleEndian.PutUint32(v.buf[i*floatSize:], math.Float32bits(x))
}

// CopyFrom overwrites the leading elements of the view with src and returns
// the number of elements written. Elements beyond Len are ignored.
func (v View) CopyFrom(src []float32) int {
	n := min(len(src), v.length)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(v.buf[i*floatSize:], math.Float32bits(src[i]))
	}
	return n
}

// CopyTo copies the view into dst and returns the number of elements copied.
func (v View) CopyTo(dst []float32) int {
	n := min(len(dst), v.length)
	for i := 0; i < n; i++ {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(v.buf[i*floatSize:]))
	}
	return n
}

// Floats returns a newly allocated copy of the view's contents. The result
// does not alias module memory.
func (v View) Floats() []float32 {
	out := make([]float32, v.length)
	v.CopyTo(out)
	return out
}
