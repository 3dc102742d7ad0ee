// Command worklet drives a WebAssembly processing module the way an audio
// worklet does: 128-frame blocks in, one frequency frame out per block.
//
// Usage:
//
//	worklet run [flags] module.wasm
//	worklet inspect module.wasm
//	worklet version
//
// Settings are read from .env and WORKLET_* variables; flags override them.
//
// Examples:
//
//	worklet run spectrum.wasm
//	worklet run --input take1.wav --record frames.sqlite3 spectrum.wasm
//	worklet run --tone 1000 --duration 5s --realtime spectrum.wasm
//	worklet inspect spectrum.wasm
package main

import "github.com/tebeka/atexit"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
