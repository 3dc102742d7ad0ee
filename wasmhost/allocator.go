package wasmhost

import (
	"github.com/tetratelabs/wazero/experimental"

	"github.com/cwbudde/algo-worklet/memory"
)

// allocator backs every linear memory of one instance with a memory.Region
// and remembers them so the host can find the one the guest uses.
type allocator struct {
	regions []*memory.Region
}

var _ experimental.MemoryAllocator = (*allocator)(nil)

// Allocate ignores the capacity hint: each region grows to exactly the size
// requested, so every memory.grow replaces the backing store.
func (a *allocator) Allocate(_, max uint64) experimental.LinearMemory {
	r := memory.New(0, max)
	a.regions = append(a.regions, r)
	return r
}

// owner returns the region whose live store starts at base.
func (a *allocator) owner(base []byte) *memory.Region {
	if len(base) == 0 {
		return nil
	}
	for _, r := range a.regions {
		b := r.Bytes()
		if len(b) > 0 && &b[0] == &base[0] {
			return r
		}
	}
	return nil
}
