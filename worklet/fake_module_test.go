package worklet

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-worklet/internal/testutil"
	"github.com/cwbudde/algo-worklet/memory"
)

const (
	fakeInPtr  = 1024
	fakeOutPtr = 4096
)

var errTrap = errors.New("unreachable executed")

// fakeModule is a module whose process step copies its input window into its
// output window, optionally growing memory first.
type fakeModule struct {
	mem    *memory.Region
	outLen uint32

	growPages  int
	processErr error
	ptrErr     error

	mu        sync.Mutex
	rates     []float64
	processed int
	closed    bool
}

func newFakeModule(outLen uint32) *fakeModule {
	return &fakeModule{mem: memory.NewPages(1), outLen: outLen}
}

func (m *fakeModule) Memory() Memory { return m.mem }

func (m *fakeModule) SampleInPtr() (uint32, error) { return fakeInPtr, m.ptrErr }

func (m *fakeModule) FreqOutPtr() (uint32, error) { return fakeOutPtr, m.ptrErr }

func (m *fakeModule) FreqOutLen() (uint32, error) { return m.outLen, nil }

func (m *fakeModule) SetSampleRate(rate float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates = append(m.rates, rate)
	return nil
}

func (m *fakeModule) ProcessSamples() error {
	if m.processErr != nil {
		return m.processErr
	}
	if m.growPages > 0 {
		m.mem.Resize(m.mem.Len() + m.growPages*memory.PageSize)
	}

	store := m.mem.Bytes()
	for i := 0; i < int(m.outLen); i++ {
		var v uint32
		if i < BlockSize {
			v = binary.LittleEndian.Uint32(store[fakeInPtr+4*i:])
		}
		binary.LittleEndian.PutUint32(store[fakeOutPtr+4*i:], v)
	}

	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
	return nil
}

func (m *fakeModule) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *fakeModule) appliedRates() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.rates...)
}

func (m *fakeModule) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// outputAt reads element i of the module's output window from the live store.
func (m *fakeModule) outputAt(i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(m.mem.Bytes()[fakeOutPtr+4*i:]))
}

type fakeDescriptor struct {
	mod   Module
	err   error
	pages chan uint32
}

func (d *fakeDescriptor) Instantiate(_ context.Context, initialPages uint32) (Module, error) {
	if d.pages != nil {
		d.pages <- initialPages
	}
	return d.mod, d.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestProcessor(opts ...ProcessorOption) *Processor {
	return NewProcessor(append([]ProcessorOption{WithLogger(quietLogger())}, opts...)...)
}

func mono(samples []float32) [][][]float32 {
	return [][][]float32{{samples}}
}

func ramp(start float32) []float32 {
	return testutil.Ramp(start, BlockSize)
}

func post(t *testing.T, p *Processor, msgs ...Message) {
	t.Helper()
	for _, msg := range msgs {
		require.NoError(t, p.Post(context.Background(), msg))
	}
}

// waitReady drives empty quanta until the processor has attached its module.
func waitReady(t *testing.T, p *Processor) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !p.Ready() {
		require.NoError(t, p.Err())
		require.True(t, time.Now().Before(deadline), "processor never became ready")
		require.True(t, p.Process(nil))
		time.Sleep(time.Millisecond)
	}
	// Drain anything posted before readiness was observed.
	require.True(t, p.Process(nil))
}

// waitErr drives empty quanta until the processor records a fatal error.
func waitErr(t *testing.T, p *Processor) error {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for p.Err() == nil {
		require.True(t, time.Now().Before(deadline), "processor never failed")
		p.Process(nil)
		time.Sleep(time.Millisecond)
	}
	return p.Err()
}

func receive(t *testing.T, p *Processor) Message {
	t.Helper()
	select {
	case msg := <-p.Messages():
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message emitted")
		return Message{}
	}
}

func requireNoMessage(t *testing.T, p *Processor) {
	t.Helper()
	select {
	case msg := <-p.Messages():
		t.Fatalf("unexpected message %q", msg.Type)
	default:
	}
}
