package wasmhost

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero"
)

// Host compiles processing modules. Compiled code is kept in a cache shared
// by every instance the host creates.
type Host struct {
	cfg     Config
	log     *logrus.Logger
	cache   wazero.CompilationCache
	runtime wazero.RuntimeConfig
}

// NewHost creates a Host.
func NewHost(opts ...Option) *Host {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	cache := wazero.NewCompilationCache()
	rc := wazero.NewRuntimeConfig()
	if cfg.Interpreter {
		rc = wazero.NewRuntimeConfigInterpreter()
	}
	rc = rc.WithCompilationCache(cache).WithMemoryLimitPages(cfg.MaxPages)

	return &Host{cfg: cfg, log: cfg.Logger, cache: cache, runtime: rc}
}

// Inspect compiles wasm and reports its ABI without validating it.
func (h *Host) Inspect(ctx context.Context, wasm []byte) (ABI, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, h.runtime)
	defer rt.Close(ctx)

	cm, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return ABI{}, fmt.Errorf("compile: %w", err)
	}
	return inspect(cm), nil
}

// Compile validates wasm against the processing ABI and returns a
// descriptor that can be instantiated by a worklet.Processor.
func (h *Host) Compile(ctx context.Context, name string, wasm []byte) (*Compiled, error) {
	abi, err := h.Inspect(ctx, wasm)
	if err != nil {
		return nil, err
	}
	if err := abi.Validate(); err != nil {
		return nil, err
	}
	if abi.MemoryMin > h.cfg.MaxPages {
		return nil, fmt.Errorf("%w: module needs %d pages, limit %d", ErrMemoryLimit, abi.MemoryMin, h.cfg.MaxPages)
	}

	h.log.WithFields(logrus.Fields{
		"function":       "Compile",
		"module":         name,
		"bytes":          len(wasm),
		"imports_memory": abi.ImportsMemory,
		"rate_type":      abi.RateType(),
		"wasi":           abi.WASI,
	}).Info("Compiled processing module")

	return &Compiled{
		host: h,
		name: name,
		wasm: append([]byte(nil), wasm...),
		abi:  abi,
	}, nil
}

// Load reads and compiles the module at path. The module is named after the
// file.
func (h *Host) Load(ctx context.Context, path string) (*Compiled, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return h.Compile(ctx, name, wasm)
}

// Close releases the compilation cache. Instances already created keep
// working.
func (h *Host) Close(ctx context.Context) error {
	return h.cache.Close(ctx)
}
