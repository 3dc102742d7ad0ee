// Package wasmhost runs processing modules compiled to WebAssembly with
// wazero and exposes them as worklet.Module values.
//
// Each instance gets its own runtime. When the module imports env.memory the
// host supplies it with the requested initial size, the way a browser host
// hands a WebAssembly.Memory to the instance; otherwise the module's own
// exported memory is used. Linear memories are backed by memory.Region, so
// every reallocation caused by memory.grow advances the generation that
// worklet views are checked against.
package wasmhost
