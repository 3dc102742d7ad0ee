package worklet

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// maxDispatch bounds how many control events one Process call handles so a
// flood of messages cannot stretch a render quantum.
const maxDispatch = 32

type instantiation struct {
	module Module
	err    error
}

// Processor drives a processing module from a render callback.
type Processor struct {
	cfg ProcessorConfig
	log *logrus.Logger

	inbox   chan Message
	results chan instantiation
	outbox  chan Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Owned by the render goroutine.
	module        Module
	loading       bool
	faulted       bool
	input         View
	output        View
	rate          RateSync
	acquireInput  func() (View, error)
	acquireOutput func() (View, error)

	ready   atomic.Bool
	closed  atomic.Bool
	dropped atomic.Uint64
	blocks  atomic.Uint64

	mu  sync.Mutex
	err error
}

// NewProcessor creates a Processor waiting for its module and sample rate.
func NewProcessor(opts ...ProcessorOption) *Processor {
	cfg := ApplyProcessorOptions(opts...)
	ctx, cancel := context.WithCancel(context.Background())

	p := &Processor{
		cfg:     cfg,
		log:     cfg.Logger,
		inbox:   make(chan Message, cfg.InboxSize),
		results: make(chan instantiation, 1),
		outbox:  make(chan Message, cfg.OutboxSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	p.acquireInput = p.newInputView
	p.acquireOutput = p.newOutputView

	p.log.WithFields(logrus.Fields{
		"function":      "NewProcessor",
		"initial_pages": cfg.InitialPages,
		"inbox_size":    cfg.InboxSize,
		"outbox_size":   cfg.OutboxSize,
	}).Debug("Processor created")

	return p
}

// Post delivers a control message to the processor. Messages are handled in
// the order posted, at the start of the next Process call. Post blocks only
// while the inbox is full.
func (p *Processor) Post(ctx context.Context, msg Message) error {
	if p.closed.Load() {
		return ErrClosed
	}
	select {
	case p.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrClosed
	}
}

// Messages returns the channel of TypeFrequencies messages. It is closed by
// Close.
func (p *Processor) Messages() <-chan Message {
	return p.outbox
}

// Process runs one render quantum. inputs is indexed by connection, then
// channel; only the first channel of the first connection is used.
//
// It returns false after the module has faulted or the processor has been
// closed; pending control messages are then dropped. Before the module is
// ready, and for quanta without input, it does nothing and returns true.
func (p *Processor) Process(inputs [][][]float32) bool {
	if p.closed.Load() {
		return false
	}
	p.dispatch()

	if p.faulted {
		return false
	}
	if p.module == nil {
		return true
	}

	samples := firstChannel(inputs)
	if len(samples) == 0 {
		return true
	}

	if err := p.processBlock(samples); err != nil {
		p.faulted = true
		p.fail(fmt.Errorf("%w: %w", ErrProcess, err))
		return false
	}
	return true
}

func (p *Processor) processBlock(samples []float32) error {
	in, err := ValidView(p.input, p.acquireInput)
	if err != nil {
		return err
	}
	p.input = in
	in.CopyFrom(samples)

	if err := p.module.ProcessSamples(); err != nil {
		return fmt.Errorf("process_samples: %w", err)
	}

	out, err := ValidView(p.output, p.acquireOutput)
	if err != nil {
		return err
	}
	p.output = out

	p.blocks.Add(1)
	p.emit(Message{Type: TypeFrequencies, Freqs: out.Floats()})
	return nil
}

func (p *Processor) emit(msg Message) {
	select {
	case p.outbox <- msg:
	default:
		p.dropped.Add(1)
	}
}

func (p *Processor) newInputView() (View, error) {
	return AcquireInputView(p.module)
}

func (p *Processor) newOutputView() (View, error) {
	return AcquireOutputView(p.module)
}

func firstChannel(inputs [][][]float32) []float32 {
	if len(inputs) == 0 || len(inputs[0]) == 0 {
		return nil
	}
	return inputs[0][0]
}

// Ready reports whether the module has been instantiated and attached.
func (p *Processor) Ready() bool {
	return p.ready.Load()
}

// RateState returns the sample-rate synchronizer state. Render goroutine only.
func (p *Processor) RateState() SyncState {
	return p.rate.State()
}

// Err returns the first fatal error recorded, or nil.
func (p *Processor) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Dropped returns how many frames were discarded because the outbox was full.
func (p *Processor) Dropped() uint64 {
	return p.dropped.Load()
}

// Blocks returns how many blocks have been processed.
func (p *Processor) Blocks() uint64 {
	return p.blocks.Load()
}

// Close abandons a pending instantiation, releases the module and closes the
// Messages channel. It must not run concurrently with Process.
func (p *Processor) Close(ctx context.Context) error {
	if p.closed.Swap(true) {
		return nil
	}
	p.cancel()
	p.wg.Wait()

	var err error
	select {
	case res := <-p.results:
		if res.module != nil {
			err = res.module.Close(ctx)
		}
	default:
	}

	if p.module != nil {
		if cerr := p.module.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
		p.module = nil
	}
	p.ready.Store(false)
	close(p.outbox)

	p.log.WithFields(logrus.Fields{
		"function": "Close",
		"blocks":   p.blocks.Load(),
		"dropped":  p.dropped.Load(),
	}).Info("Processor closed")

	return err
}

// fail records err as fatal if it is the first one and reports it.
func (p *Processor) fail(err error) {
	p.mu.Lock()
	if p.err == nil {
		p.err = err
	}
	p.mu.Unlock()

	p.log.WithFields(logrus.Fields{
		"function": "fail",
		"error":    err.Error(),
	}).Error("Processor failed")
	p.report(err)
}

func (p *Processor) report(err error) {
	if p.cfg.OnError != nil {
		p.cfg.OnError(err)
	}
}
