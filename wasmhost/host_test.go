package wasmhost

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/cwbudde/algo-worklet/internal/wasmtest"
	"github.com/cwbudde/algo-worklet/memory"
	"github.com/cwbudde/algo-worklet/worklet"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestHost(t *testing.T, opts ...Option) *Host {
	t.Helper()
	h := NewHost(append([]Option{WithLogger(quietLogger())}, opts...)...)
	t.Cleanup(func() { _ = h.Close(context.Background()) })
	return h
}

func compile(t *testing.T, h *Host, opts wasmtest.ABIOptions) *Compiled {
	t.Helper()
	c, err := h.Compile(context.Background(), "spectrum", wasmtest.ABIModule(opts))
	require.NoError(t, err)
	return c
}

func instantiate(t *testing.T, c *Compiled, pages uint32) *Module {
	t.Helper()
	mod, err := c.Instantiate(context.Background(), pages)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mod.Close(context.Background()) })
	return mod.(*Module)
}

func callI32(t *testing.T, m *Module, name string) uint32 {
	t.Helper()
	res, err := m.guest.ExportedFunction(name).Call(context.Background())
	require.NoError(t, err)
	return api.DecodeU32(res[0])
}

func TestCompileReportsABI(t *testing.T) {
	h := newTestHost(t)
	c := compile(t, h, wasmtest.ABIOptions{OutLen: 70})

	abi := c.ABI()
	assert.Equal(t, "spectrum", c.Name())
	assert.True(t, abi.ImportsMemory)
	assert.False(t, abi.WASI)
	assert.Equal(t, uint32(1), abi.MemoryMin)
	assert.Equal(t, api.ValueTypeI32, abi.RateType())
	assert.Contains(t, abi.Names(), ExportProcessSamples)
	assert.Equal(t, "() -> (i32)", abi.Functions[ExportFreqOutLen].String())
	require.NoError(t, abi.Validate())
}

func TestCompileRejectsMissingExports(t *testing.T) {
	h := newTestHost(t)
	for _, name := range []string{
		ExportSampleInPtr, ExportFreqOutPtr, ExportFreqOutLen, ExportSetSampleRate, ExportProcessSamples,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := h.Compile(context.Background(), "m", wasmtest.ABIModule(wasmtest.ABIOptions{OutLen: 4, Omit: name}))
			assert.ErrorIs(t, err, ErrMissingExport)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestCompileRejectsBadSignature(t *testing.T) {
	bin := wasmtest.Module{
		Memory: &wasmtest.Limits{Min: 1},
		Funcs: []wasmtest.Func{
			{Export: ExportSampleInPtr, Results: []byte{wasmtest.I32}, Body: wasmtest.I32Const(0)},
			{Export: ExportFreqOutPtr, Results: []byte{wasmtest.I32}, Body: wasmtest.I32Const(0)},
			{Export: ExportFreqOutLen, Params: []byte{wasmtest.I32}, Results: []byte{wasmtest.I32}, Body: wasmtest.LocalGet(0)},
			{Export: ExportSetSampleRate, Params: []byte{wasmtest.I32}, Body: wasmtest.Seq(wasmtest.LocalGet(0), wasmtest.Drop())},
			{Export: ExportProcessSamples},
		},
	}.Encode()

	h := newTestHost(t)
	_, err := h.Compile(context.Background(), "m", bin)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestCompileRejectsModuleWithoutMemory(t *testing.T) {
	bin := wasmtest.Module{
		Funcs: []wasmtest.Func{
			{Export: ExportSampleInPtr, Results: []byte{wasmtest.I32}, Body: wasmtest.I32Const(0)},
			{Export: ExportFreqOutPtr, Results: []byte{wasmtest.I32}, Body: wasmtest.I32Const(0)},
			{Export: ExportFreqOutLen, Results: []byte{wasmtest.I32}, Body: wasmtest.I32Const(0)},
			{Export: ExportSetSampleRate, Params: []byte{wasmtest.I32}, Body: wasmtest.Seq(wasmtest.LocalGet(0), wasmtest.Drop())},
			{Export: ExportProcessSamples},
		},
	}.Encode()

	h := newTestHost(t)
	_, err := h.Compile(context.Background(), "m", bin)
	assert.ErrorIs(t, err, ErrNoMemory)
}

func TestCompileRejectsGarbage(t *testing.T) {
	h := newTestHost(t)
	_, err := h.Compile(context.Background(), "m", []byte("not wasm"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile")
}

func TestLoadNamesModuleAfterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ffaa.wasm")
	require.NoError(t, os.WriteFile(path, wasmtest.ABIModule(wasmtest.ABIOptions{OutLen: 4}), 0o644))

	h := newTestHost(t)
	c, err := h.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "ffaa", c.Name())

	_, err = h.Load(context.Background(), filepath.Join(t.TempDir(), "missing.wasm"))
	assert.Error(t, err)
}

func TestInstantiateSuppliesEnvMemory(t *testing.T) {
	h := newTestHost(t)
	c := compile(t, h, wasmtest.ABIOptions{OutLen: 70})
	m := instantiate(t, c, 4)

	region, ok := m.Memory().(*memory.Region)
	require.True(t, ok, "memory should be backed by the host allocator")
	assert.Equal(t, uint32(4), region.Pages())
	assert.Equal(t, uint32(4), callI32(t, m, "memory_pages"))

	ptr, err := m.SampleInPtr()
	require.NoError(t, err)
	assert.Equal(t, uint32(wasmtest.InPtr), ptr)

	ptr, err = m.FreqOutPtr()
	require.NoError(t, err)
	assert.Equal(t, uint32(wasmtest.OutPtr), ptr)

	n, err := m.FreqOutLen()
	require.NoError(t, err)
	assert.Equal(t, uint32(70), n)
}

func TestInstantiateUsesExportedMemory(t *testing.T) {
	h := newTestHost(t)
	c := compile(t, h, wasmtest.ABIOptions{OutLen: 4, ExportMemory: true})
	assert.False(t, c.ABI().ImportsMemory)
	assert.True(t, c.ABI().ExportsMemory)

	m := instantiate(t, c, 16)
	assert.Len(t, m.Memory().Bytes(), memory.PageSize)
}

func TestInstantiateMemoryLimit(t *testing.T) {
	h := newTestHost(t, WithMaxPages(2))
	c := compile(t, h, wasmtest.ABIOptions{OutLen: 4})

	_, err := c.Instantiate(context.Background(), 8)
	assert.ErrorIs(t, err, ErrMemoryLimit)
}

func TestCompileRejectsMinimumAboveLimit(t *testing.T) {
	h := newTestHost(t, WithMaxPages(4))

	_, err := h.Compile(context.Background(), "spectrum", wasmtest.ABIModule(wasmtest.ABIOptions{OutLen: 4, MinPages: 8}))
	assert.ErrorIs(t, err, ErrMemoryLimit)

	c := compile(t, h, wasmtest.ABIOptions{OutLen: 4, MinPages: 4})
	assert.Equal(t, uint32(4), c.ABI().MemoryMin)
}

func TestSetSampleRateConvertsToDeclaredType(t *testing.T) {
	tests := []struct {
		name     string
		rateType byte
		rate     float64
		want     uint32
	}{
		{name: "i32", rateType: wasmtest.I32, rate: 44100, want: 44100},
		{name: "i32 rounds", rateType: wasmtest.I32, rate: 47999.6, want: 48000},
		{name: "f64", rateType: wasmtest.F64, rate: 96000, want: 96000},
		{name: "f32 accepted", rateType: wasmtest.F32, rate: 22050, want: 0},
		{name: "i64 accepted", rateType: wasmtest.I64, rate: 22050, want: 0},
	}

	h := newTestHost(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := compile(t, h, wasmtest.ABIOptions{OutLen: 4, RateType: tt.rateType})
			m := instantiate(t, c, 1)

			require.NoError(t, m.SetSampleRate(tt.rate))
			assert.Equal(t, tt.want, callI32(t, m, "sample_rate"))
		})
	}
}

func TestProcessSamplesGrowsMemory(t *testing.T) {
	h := newTestHost(t)
	c := compile(t, h, wasmtest.ABIOptions{OutLen: 4, GrowPages: 1})
	m := instantiate(t, c, 2)

	mem := m.Memory()
	gen := mem.Generation()
	old := mem.Bytes()

	require.NoError(t, m.ProcessSamples())
	assert.Greater(t, mem.Generation(), gen)
	assert.Len(t, mem.Bytes(), 3*memory.PageSize)
	assert.Len(t, old, 2*memory.PageSize)
}

func TestEnvMemoryModule(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	cm, err := rt.CompileModule(ctx, envMemoryModule(300, 0, false))
	require.NoError(t, err)
	def, ok := cm.ExportedMemories()["memory"]
	require.True(t, ok)
	assert.Equal(t, uint32(300), def.Min())
	_, hasMax := def.Max()
	assert.False(t, hasMax)

	cm, err = rt.CompileModule(ctx, envMemoryModule(2, 300, true))
	require.NoError(t, err)
	maxPages, hasMax := cm.ExportedMemories()["memory"].Max()
	assert.True(t, hasMax)
	assert.Equal(t, uint32(300), maxPages)
}

// captureDescriptor records the module a processor instantiates.
type captureDescriptor struct {
	*Compiled
	mod worklet.Module
}

func (d *captureDescriptor) Instantiate(ctx context.Context, pages uint32) (worklet.Module, error) {
	mod, err := d.Compiled.Instantiate(ctx, pages)
	d.mod = mod
	return mod, err
}

func newProcessor(t *testing.T, desc worklet.Descriptor, rate float64) *worklet.Processor {
	t.Helper()
	p := worklet.NewProcessor(worklet.WithLogger(quietLogger()), worklet.WithInitialPages(2))
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	require.NoError(t, p.Post(context.Background(), worklet.SampleRateMessage(rate)))
	require.NoError(t, p.Post(context.Background(), worklet.WasmMessage(desc)))

	deadline := time.Now().Add(5 * time.Second)
	for !p.Ready() {
		require.NoError(t, p.Err())
		require.True(t, time.Now().Before(deadline), "processor never became ready")
		require.True(t, p.Process(nil))
		time.Sleep(time.Millisecond)
	}
	return p
}

func receive(t *testing.T, p *worklet.Processor) []float32 {
	t.Helper()
	select {
	case msg := <-p.Messages():
		require.Equal(t, worklet.TypeFrequencies, msg.Type)
		return msg.Freqs
	case <-time.After(time.Second):
		t.Fatal("no frequencies emitted")
		return nil
	}
}

func TestProcessorDrivesWasmModule(t *testing.T) {
	h := newTestHost(t)
	desc := &captureDescriptor{Compiled: compile(t, h, wasmtest.ABIOptions{OutLen: worklet.BlockSize})}
	p := newProcessor(t, desc, 48000)

	m := desc.mod.(*Module)
	assert.Equal(t, uint32(48000), callI32(t, m, "sample_rate"))

	impulse := make([]float32, worklet.BlockSize)
	impulse[0] = 1
	require.True(t, p.Process([][][]float32{{impulse}}))
	assert.Equal(t, impulse, receive(t, p))
}

func TestProcessorSurvivesMemoryGrowth(t *testing.T) {
	h := newTestHost(t)
	desc := &captureDescriptor{Compiled: compile(t, h, wasmtest.ABIOptions{OutLen: 16, GrowPages: 1})}
	p := newProcessor(t, desc, 44100)
	mem := desc.mod.Memory()
	gen := mem.Generation()

	for b := 0; b < 3; b++ {
		block := make([]float32, worklet.BlockSize)
		for i := range block {
			block[i] = float32(b*1000 + i)
		}
		require.True(t, p.Process([][][]float32{{block}}))
		assert.Equal(t, block[:16], receive(t, p), "block %d", b)
	}

	assert.Equal(t, gen+3, mem.Generation())
	assert.Len(t, mem.Bytes(), 5*memory.PageSize)
}

func TestProcessorStopsOnTrap(t *testing.T) {
	h := newTestHost(t)
	p := newProcessor(t, compile(t, h, wasmtest.ABIOptions{OutLen: 4, TrapOnProcess: true}), 48000)

	assert.False(t, p.Process([][][]float32{{make([]float32, worklet.BlockSize)}}))
	assert.ErrorIs(t, p.Err(), worklet.ErrProcess)
}
