package wasmhost

import (
	"context"
	"fmt"
	"math"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/cwbudde/algo-worklet/worklet"
)

// Module is an instantiated processing module. Its methods are not safe for
// concurrent use.
type Module struct {
	rt    wazero.Runtime
	guest api.Module
	name  string
	mem   worklet.Memory

	callCtx  context.Context
	stack    []uint64
	rateType api.ValueType

	sampleInPtr    api.Function
	freqOutPtr     api.Function
	freqOutLen     api.Function
	setSampleRate  api.Function
	processSamples api.Function
}

var _ worklet.Module = (*Module)(nil)

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Memory returns the module's linear memory.
func (m *Module) Memory() worklet.Memory {
	return m.mem
}

// SampleInPtr calls sample_in_ptr.
func (m *Module) SampleInPtr() (uint32, error) {
	return m.callPointer(m.sampleInPtr, ExportSampleInPtr)
}

// FreqOutPtr calls freq_out_ptr.
func (m *Module) FreqOutPtr() (uint32, error) {
	return m.callPointer(m.freqOutPtr, ExportFreqOutPtr)
}

// FreqOutLen calls freq_out_len.
func (m *Module) FreqOutLen() (uint32, error) {
	return m.callPointer(m.freqOutLen, ExportFreqOutLen)
}

// SetSampleRate calls set_sample_rate, converting rate to the parameter type
// the module declares. Integer parameters receive the rounded rate.
func (m *Module) SetSampleRate(rate float64) error {
	switch m.rateType {
	case api.ValueTypeI32:
		m.stack[0] = api.EncodeU32(uint32(math.Round(rate)))
	case api.ValueTypeI64:
		m.stack[0] = api.EncodeI64(int64(math.Round(rate)))
	case api.ValueTypeF32:
		m.stack[0] = api.EncodeF32(float32(rate))
	case api.ValueTypeF64:
		m.stack[0] = api.EncodeF64(rate)
	default:
		return fmt.Errorf("%w: %s parameter %s", ErrBadSignature, ExportSetSampleRate, api.ValueTypeName(m.rateType))
	}
	return m.setSampleRate.CallWithStack(m.callCtx, m.stack)
}

// ProcessSamples calls process_samples.
func (m *Module) ProcessSamples() error {
	return m.processSamples.CallWithStack(m.callCtx, m.stack)
}

// Close releases the instance and its runtime. Views into its memory become
// stale.
func (m *Module) Close(ctx context.Context) error {
	return m.rt.Close(ctx)
}

func (m *Module) callPointer(fn api.Function, name string) (uint32, error) {
	m.stack[0] = 0
	if err := fn.CallWithStack(m.callCtx, m.stack); err != nil {
		return 0, err
	}
	v := m.stack[0]
	if fn.Definition().ResultTypes()[0] == api.ValueTypeI64 && v > math.MaxUint32 {
		return 0, fmt.Errorf("%s returned %d, beyond 32-bit memory", name, v)
	}
	return uint32(v), nil
}
