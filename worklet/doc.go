// Package worklet bridges a real-time audio render callback with a
// separately compiled processing module that exchanges samples with the host
// through its linear memory.
//
// A Processor receives two control messages in either order: the compiled
// module (TypeWasm) and the sample rate (TypeSampleRate). Once the module is
// instantiated, every call to Process copies one 128-sample block into the
// module's input window, runs the module, and emits the contents of its output
// window as a TypeFrequencies message.
//
// Module memory can be reallocated whenever the module grows it, so views into
// it are stamped with the generation of the store they were cut from and are
// re-derived through ValidView on every access.
//
// Process must be called from a single goroutine (the render goroutine). Post
// and Messages may be used from any goroutine.
package worklet
