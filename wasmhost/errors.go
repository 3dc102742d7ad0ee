package wasmhost

import "errors"

var (
	// ErrMissingExport indicates a required ABI function is not exported.
	ErrMissingExport = errors.New("missing export")

	// ErrBadSignature indicates an ABI function has an unexpected signature.
	ErrBadSignature = errors.New("unexpected export signature")

	// ErrNoMemory indicates the module neither imports env.memory nor
	// exports a memory.
	ErrNoMemory = errors.New("module has no linear memory")

	// ErrMemoryLimit indicates the requested memory exceeds the host limit.
	ErrMemoryLimit = errors.New("memory exceeds host limit")
)
