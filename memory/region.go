package memory

// PageSize is the size of one WebAssembly linear memory page in bytes.
const PageSize = 65536

// Region wraps a byte slice with grow-by-reallocation semantics.
// Use Bytes() to access the live store.
type Region struct {
	data       []byte
	max        uint64
	generation uint64
	freed      bool
}

// New returns a zero-filled Region of the given length in bytes.
// max bounds later growth; 0 means unbounded.
func New(length int, max uint64) *Region {
	if length < 0 {
		length = 0
	}
	return &Region{data: make([]byte, length), max: max}
}

// NewPages returns a zero-filled Region of pages WebAssembly pages.
func NewPages(pages uint32) *Region {
	return New(int(pages)*PageSize, 0)
}

// Bytes returns the live backing store.
func (r *Region) Bytes() []byte {
	return r.data
}

// Len returns the current size in bytes.
func (r *Region) Len() int {
	return len(r.data)
}

// Cap returns the capacity of the live backing store.
func (r *Region) Cap() int {
	return cap(r.data)
}

// Pages returns the current size in whole WebAssembly pages.
func (r *Region) Pages() uint32 {
	return uint32(len(r.data) / PageSize)
}

// Generation returns the number of times the backing store has been replaced.
func (r *Region) Generation() uint64 {
	return r.generation
}

// Grow ensures capacity is at least n bytes, preserving existing data.
// Growing past the current capacity replaces the backing store and advances
// the generation. If the capacity is already >= n this is a no-op.
func (r *Region) Grow(n int) {
	if n <= cap(r.data) {
		return
	}
	grown := make([]byte, len(r.data), n)
	copy(grown, r.data)
	r.data = grown
	r.generation++
}

// Resize sets the length to n bytes, reusing existing capacity when possible.
// New bytes beyond the previous length are zeroed. Shrinking is ignored
// because linear memory never shrinks.
func (r *Region) Resize(n int) {
	oldLen := len(r.data)
	if n <= oldLen {
		return
	}
	if n > cap(r.data) {
		r.Grow(n)
	}
	r.data = r.data[:n]
	// The reused tail may hold stale bytes from an earlier use.
	clear(r.data[oldLen:n])
}

// Reallocate resizes the region to size bytes and returns the live store.
// It returns nil when size exceeds the configured maximum or the region has
// been freed, which the WebAssembly runtime reports as a failed memory.grow.
func (r *Region) Reallocate(size uint64) []byte {
	if r.freed {
		return nil
	}
	if r.max > 0 && size > r.max {
		return nil
	}
	if size > uint64(int(^uint(0)>>1)) {
		return nil
	}
	r.Resize(int(size))
	return r.data
}

// Free releases the backing store. Every view cut from the region becomes
// stale.
func (r *Region) Free() {
	if r.freed {
		return
	}
	r.freed = true
	r.data = nil
	r.generation++
}

// Freed reports whether Free has been called.
func (r *Region) Freed() bool {
	return r.freed
}
