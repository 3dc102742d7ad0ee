package wasmhost

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/cwbudde/algo-worklet/worklet"
)

// Compiled is a validated module ready to be instantiated.
type Compiled struct {
	host *Host
	name string
	wasm []byte
	abi  ABI
}

var _ worklet.Descriptor = (*Compiled)(nil)

// Name returns the module name.
func (c *Compiled) Name() string {
	return c.name
}

// ABI returns the module's ABI description.
func (c *Compiled) ABI() ABI {
	return c.abi
}

// Instantiate creates an instance in its own runtime. An imported env.memory
// is allocated with initialPages pages, or the module's declared minimum if
// that is larger.
func (c *Compiled) Instantiate(ctx context.Context, initialPages uint32) (worklet.Module, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, c.host.runtime)
	alloc := &allocator{}
	actx := experimental.WithMemoryAllocator(ctx, alloc)

	mod, err := c.instantiate(actx, rt, alloc, initialPages)
	if err != nil {
		_ = rt.Close(context.Background())
		return nil, err
	}
	return mod, nil
}

func (c *Compiled) instantiate(ctx context.Context, rt wazero.Runtime, alloc *allocator, initialPages uint32) (*Module, error) {
	if c.abi.WASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
			return nil, fmt.Errorf("instantiate wasi: %w", err)
		}
	}

	var env api.Module
	if c.abi.ImportsMemory {
		pages := max(initialPages, c.abi.MemoryMin)
		if pages > c.host.cfg.MaxPages {
			return nil, fmt.Errorf("%w: %d pages requested, limit %d", ErrMemoryLimit, pages, c.host.cfg.MaxPages)
		}
		if c.abi.HasMemoryMax && pages > c.abi.MemoryMax {
			pages = c.abi.MemoryMax
		}

		var err error
		env, err = rt.InstantiateWithConfig(ctx,
			envMemoryModule(pages, c.abi.MemoryMax, c.abi.HasMemoryMax),
			wazero.NewModuleConfig().WithName("env"))
		if err != nil {
			return nil, fmt.Errorf("instantiate env.memory: %w", err)
		}
	}

	cm, err := rt.CompileModule(ctx, c.wasm)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	guest, err := rt.InstantiateModule(ctx, cm,
		wazero.NewModuleConfig().WithName(c.name).WithStartFunctions("_initialize"))
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", c.name, err)
	}

	apiMem := guest.ExportedMemory("memory")
	if c.abi.ImportsMemory || apiMem == nil {
		if env != nil {
			apiMem = env.ExportedMemory("memory")
		} else {
			apiMem = guest.Memory()
		}
	}
	if apiMem == nil {
		return nil, ErrNoMemory
	}

	m := &Module{
		rt:       rt,
		guest:    guest,
		name:     c.name,
		callCtx:  context.Background(),
		stack:    make([]uint64, 2),
		rateType: c.abi.RateType(),

		sampleInPtr:    guest.ExportedFunction(ExportSampleInPtr),
		freqOutPtr:     guest.ExportedFunction(ExportFreqOutPtr),
		freqOutLen:     guest.ExportedFunction(ExportFreqOutLen),
		setSampleRate:  guest.ExportedFunction(ExportSetSampleRate),
		processSamples: guest.ExportedFunction(ExportProcessSamples),
	}

	base, _ := apiMem.Read(0, apiMem.Size())
	if region := alloc.owner(base); region != nil {
		m.mem = region
	} else {
		m.mem = newTrackedMemory(apiMem)
	}

	c.host.log.WithFields(logrus.Fields{
		"function":       "Instantiate",
		"module":         c.name,
		"pages":          apiMem.Size() / 65536,
		"imports_memory": c.abi.ImportsMemory,
	}).Info("Instantiated processing module")

	return m, nil
}
