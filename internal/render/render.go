// Package render plays the part of the audio thread: it feeds fixed-size
// blocks from a source to a block processor, optionally at real-time pace.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-worklet/internal/source"
	"github.com/cwbudde/algo-worklet/worklet"
)

// ErrNotReady is returned by AwaitReady when the processor fails or the
// context ends before its module is attached.
var ErrNotReady = errors.New("processor not ready")

// BlockProcessor consumes one render quantum per call. Inputs are indexed
// by connection, then channel. Returning false ends rendering.
type BlockProcessor interface {
	Process(inputs [][][]float32) bool
}

// StopReason tells why Run returned.
type StopReason int

const (
	// StopEOF means the source was exhausted.
	StopEOF StopReason = iota
	// StopCanceled means the context ended.
	StopCanceled
	// StopProcessor means Process returned false.
	StopProcessor
	// StopLimit means MaxBlocks blocks were rendered.
	StopLimit
)

func (r StopReason) String() string {
	switch r {
	case StopEOF:
		return "eof"
	case StopCanceled:
		return "canceled"
	case StopProcessor:
		return "processor"
	case StopLimit:
		return "limit"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Stats summarizes a Run.
type Stats struct {
	Blocks  int
	Frames  int
	Reason  StopReason
	Elapsed time.Duration
}

// Renderer drives a BlockProcessor from a Source.
type Renderer struct {
	cfg  Config
	log  *logrus.Logger
	proc BlockProcessor
	src  source.Source
}

// New returns a Renderer.
func New(proc BlockProcessor, src source.Source, opts ...Option) *Renderer {
	cfg := ApplyOptions(opts...)
	return &Renderer{cfg: cfg, log: cfg.Logger, proc: proc, src: src}
}

// Period returns the duration of one block at the source's sample rate.
func (r *Renderer) Period() time.Duration {
	rate := r.src.SampleRate()
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(r.cfg.BlockSize) / float64(rate) * float64(time.Second))
}

// Run renders until the source is exhausted, ctx is canceled, the block
// limit is reached or the processor returns false. Only source errors are
// returned; the other stop conditions are reported in Stats.Reason.
func (r *Renderer) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	blocks := source.NewBlocks(r.src, r.cfg.BlockSize)
	inputs := make([][][]float32, 1)

	var tick <-chan time.Time
	if r.cfg.Realtime {
		if period := r.Period(); period > 0 {
			ticker := time.NewTicker(period)
			defer ticker.Stop()
			tick = ticker.C
		}
	}

	r.log.WithFields(logrus.Fields{
		"function":    "Run",
		"sample_rate": r.src.SampleRate(),
		"channels":    r.src.Channels(),
		"block_size":  r.cfg.BlockSize,
		"realtime":    r.cfg.Realtime,
	}).Info("Rendering started")

	var stats Stats
	finish := func(reason StopReason, err error) (Stats, error) {
		stats.Reason = reason
		stats.Elapsed = time.Since(start)
		r.log.WithFields(logrus.Fields{
			"function": "Run",
			"blocks":   stats.Blocks,
			"frames":   stats.Frames,
			"reason":   reason.String(),
			"elapsed":  stats.Elapsed,
		}).Info("Rendering stopped")
		return stats, err
	}

	for {
		if r.cfg.MaxBlocks > 0 && stats.Blocks >= r.cfg.MaxBlocks {
			return finish(StopLimit, nil)
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return finish(StopCanceled, nil)
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return finish(StopCanceled, nil)
		}

		chans, n, err := blocks.Next()
		if errors.Is(err, io.EOF) {
			return finish(StopEOF, nil)
		}
		if err != nil {
			return finish(StopEOF, err)
		}

		inputs[0] = chans
		ok := r.proc.Process(inputs)
		stats.Blocks++
		stats.Frames += n
		if !ok {
			return finish(StopProcessor, nil)
		}
	}
}

// Readiness is a processor whose module is attached asynchronously.
type Readiness interface {
	BlockProcessor
	Ready() bool
	Err() error
}

// AwaitReady runs empty quanta until p reports ready, so no source audio is
// spent on a processor that would ignore it. It fails if p records an error
// or ctx ends first.
func AwaitReady(ctx context.Context, p Readiness, poll time.Duration) error {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		p.Process(nil)
		if p.Ready() {
			return nil
		}
		if err := p.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrNotReady, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrNotReady, ctx.Err())
		case <-ticker.C:
		}
	}
}

var _ Readiness = (*worklet.Processor)(nil)
