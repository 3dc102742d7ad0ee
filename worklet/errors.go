package worklet

import "errors"

var (
	// ErrInstantiate indicates the module could not be instantiated or its
	// initial views could not be acquired. It is fatal for the processor.
	ErrInstantiate = errors.New("module instantiation failed")

	// ErrModuleLoaded indicates a second module was offered to a processor
	// that already has one.
	ErrModuleLoaded = errors.New("module already loaded")

	// ErrProcess indicates the module faulted during the block cycle.
	ErrProcess = errors.New("module processing failed")

	// ErrViewOutOfRange indicates a requested window does not fit the
	// module's current memory.
	ErrViewOutOfRange = errors.New("view out of memory range")

	// ErrInvalidSampleRate indicates a non-positive or non-finite rate.
	ErrInvalidSampleRate = errors.New("invalid sample rate")

	// ErrClosed indicates the processor has been closed.
	ErrClosed = errors.New("processor closed")
)
