package worklet

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// dispatch handles pending control messages and finished instantiations
// without blocking.
func (p *Processor) dispatch() {
	for i := 0; i < maxDispatch; i++ {
		select {
		case res := <-p.results:
			p.attach(res)
		case msg := <-p.inbox:
			p.handle(msg)
		default:
			return
		}
	}
}

func (p *Processor) handle(msg Message) {
	switch msg.Type {
	case TypeWasm:
		p.onModule(msg.Module)
	case TypeSampleRate:
		p.onSampleRate(msg.Rate)
	default:
		p.log.WithFields(logrus.Fields{
			"function": "handle",
			"type":     string(msg.Type),
		}).Debug("Ignoring unrecognized message")
	}
}

func (p *Processor) onModule(desc Descriptor) {
	if p.module != nil || p.loading {
		p.log.WithFields(logrus.Fields{
			"function": "onModule",
			"error":    ErrModuleLoaded.Error(),
		}).Warn("Rejecting duplicate module")
		p.report(ErrModuleLoaded)
		return
	}
	if p.faulted || p.Err() != nil {
		return
	}
	if desc == nil {
		p.fail(fmt.Errorf("%w: message carries no module", ErrInstantiate))
		return
	}

	p.log.WithFields(logrus.Fields{
		"function":      "onModule",
		"initial_pages": p.cfg.InitialPages,
	}).Info("Instantiating module")

	p.loading = true
	p.wg.Add(1)
	go p.instantiate(desc)
}

// instantiate runs off the render goroutine; the module is handed back
// through p.results and only touched by the render goroutine afterwards.
func (p *Processor) instantiate(desc Descriptor) {
	defer p.wg.Done()

	mod, err := desc.Instantiate(p.ctx, p.cfg.InitialPages)
	if err == nil && mod != nil && p.ctx.Err() != nil {
		_ = mod.Close(context.Background())
		return
	}
	p.results <- instantiation{module: mod, err: err}
}

func (p *Processor) attach(res instantiation) {
	p.loading = false
	if res.err != nil {
		p.fail(fmt.Errorf("%w: %w", ErrInstantiate, res.err))
		return
	}
	if res.module == nil {
		p.fail(fmt.Errorf("%w: descriptor returned no module", ErrInstantiate))
		return
	}

	mod := res.module
	p.module = mod

	in, err := AcquireInputView(mod)
	if err == nil {
		p.input = in
		p.output, err = AcquireOutputView(mod)
	}
	if err != nil {
		p.module = nil
		_ = mod.Close(context.Background())
		p.fail(fmt.Errorf("%w: %w", ErrInstantiate, err))
		return
	}
	p.ready.Store(true)

	p.log.WithFields(logrus.Fields{
		"function":   "attach",
		"input_ptr":  p.input.Offset(),
		"output_ptr": p.output.Offset(),
		"output_len": p.output.Len(),
	}).Info("Module ready")

	if err := p.rate.OnModuleReady(mod); err != nil {
		p.rateFailed(err)
		return
	}
	p.logRate("attach")
}

func (p *Processor) onSampleRate(rate float64) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		err := fmt.Errorf("%w: %v", ErrInvalidSampleRate, rate)
		p.log.WithFields(logrus.Fields{
			"function": "onSampleRate",
			"error":    err.Error(),
		}).Warn("Ignoring sample rate")
		p.report(err)
		return
	}

	if err := p.rate.SetPendingRate(rate); err != nil {
		p.rateFailed(err)
		return
	}
	p.logRate("onSampleRate")
}

func (p *Processor) rateFailed(err error) {
	p.log.WithFields(logrus.Fields{
		"function": "rateFailed",
		"error":    err.Error(),
	}).Error("Applying sample rate failed")
	p.report(err)
}

func (p *Processor) logRate(fn string) {
	rate, _ := p.rate.Rate()
	p.log.WithFields(logrus.Fields{
		"function": fn,
		"rate":     rate,
		"state":    p.rate.State().String(),
	}).Debug("Sample rate updated")
}
