package worklet

import "context"

// BlockSize is the number of samples delivered per render quantum.
const BlockSize = 128

// DefaultInitialPages is the size, in 64 KiB pages, of the memory the host
// allocates for a module at instantiation.
const DefaultInitialPages = 1024

// Memory is a module's linear memory as seen by the host.
type Memory interface {
	// Bytes returns the live backing store.
	Bytes() []byte
	// Generation changes every time the backing store is reallocated.
	Generation() uint64
}

// RateSetter accepts the audio sample rate.
type RateSetter interface {
	SetSampleRate(rate float64) error
}

// Module is an instantiated processing module.
//
// The pointer and length queries and ProcessSamples mirror the module's
// exported functions; errors are traps raised by the module.
type Module interface {
	RateSetter

	Memory() Memory
	SampleInPtr() (uint32, error)
	FreqOutPtr() (uint32, error)
	FreqOutLen() (uint32, error)
	ProcessSamples() error
	Close(ctx context.Context) error
}

// Descriptor is a compiled, not yet instantiated module.
type Descriptor interface {
	// Instantiate creates a module instance backed by a fresh memory of
	// initialPages pages.
	Instantiate(ctx context.Context, initialPages uint32) (Module, error)
}
