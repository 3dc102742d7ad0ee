// Package monitor consumes frequency frames on the control side: it keeps
// smoothed per-band levels for display and forwards every frame to sinks.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cwbudde/algo-vecmath"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-worklet/worklet"
)

// Frame is one emitted frequency frame.
type Frame struct {
	Seq uint64
	// Time is the stream position at the start of the block.
	Time  time.Duration
	Freqs []float32
}

// Sink receives every observed frame.
type Sink interface {
	WriteFrame(Frame) error
}

// Monitor tracks smoothed band levels. It is safe for concurrent use.
type Monitor struct {
	cfg Config
	log *logrus.Logger

	mu     sync.Mutex
	sinks  []Sink
	frames uint64
	levels []float64
	decay  []float64
	gain   []float64
	in     []float64
	scaled []float64
}

// New creates a Monitor.
func New(opts ...Option) *Monitor {
	cfg := ApplyOptions(opts...)
	return &Monitor{cfg: cfg, log: cfg.Logger}
}

// AddSink registers s to receive frames.
func (m *Monitor) AddSink(s Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, s)
}

// Observe folds one frame into the levels and forwards it to the sinks.
// Sink errors are joined and returned after every sink has run.
func (m *Monitor) Observe(freqs []float32) (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frame := Frame{Seq: m.frames, Time: m.streamTime(m.frames), Freqs: freqs}
	m.frames++
	m.smooth(freqs)

	var errs []error
	for _, s := range m.sinks {
		if err := s.WriteFrame(frame); err != nil {
			errs = append(errs, err)
		}
	}

	if n := m.cfg.SummaryEvery; n > 0 && m.frames%uint64(n) == 0 {
		band, level := m.peak()
		m.log.WithFields(logrus.Fields{
			"function":   "Observe",
			"frames":     m.frames,
			"stream":     frame.Time,
			"peak_band":  band,
			"peak_level": level,
		}).Info("Monitor summary")
	}

	if len(errs) > 0 {
		return frame, fmt.Errorf("sink: %w", errors.Join(errs...))
	}
	return frame, nil
}

// smooth computes levels = decay*levels + gain*freqs.
func (m *Monitor) smooth(freqs []float32) {
	if len(freqs) != len(m.levels) {
		m.resize(len(freqs))
	}
	for i, v := range freqs {
		m.in[i] = float64(v)
	}
	vecmath.MulBlockInPlace(m.levels, m.decay)
	vecmath.MulBlock(m.scaled, m.in, m.gain)
	for i, v := range m.scaled {
		m.levels[i] += v
	}
}

func (m *Monitor) resize(bands int) {
	if len(m.levels) != 0 {
		m.log.WithFields(logrus.Fields{
			"function": "resize",
			"from":     len(m.levels),
			"to":       bands,
		}).Warn("Band count changed, resetting levels")
	}

	m.levels = make([]float64, bands)
	m.in = make([]float64, bands)
	m.scaled = make([]float64, bands)
	m.decay = make([]float64, bands)
	m.gain = make([]float64, bands)
	for i := range m.gain {
		w := 1.0
		if i < len(m.cfg.Weights) {
			w = m.cfg.Weights[i]
		}
		m.decay[i] = m.cfg.Smoothing
		m.gain[i] = (1 - m.cfg.Smoothing) * w
	}
}

func (m *Monitor) streamTime(seq uint64) time.Duration {
	frames := float64(seq) * float64(m.cfg.BlockSize)
	return time.Duration(math.Round(frames / m.cfg.SampleRate * float64(time.Second)))
}

func (m *Monitor) peak() (int, float64) {
	band, level := -1, 0.0
	for i, v := range m.levels {
		if band < 0 || v > level {
			band, level = i, v
		}
	}
	return band, level
}

// Run observes every TypeFrequencies message until msgs is closed or ctx
// ends. Sink errors are logged and do not stop the monitor.
func (m *Monitor) Run(ctx context.Context, msgs <-chan worklet.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if msg.Type != worklet.TypeFrequencies {
				continue
			}
			if _, err := m.Observe(msg.Freqs); err != nil {
				m.log.WithFields(logrus.Fields{
					"function": "Run",
					"error":    err.Error(),
				}).Warn("Frame not recorded")
			}
		}
	}
}

// Levels returns a copy of the smoothed band levels.
func (m *Monitor) Levels() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.levels...)
}

// Peak returns the band with the highest smoothed level, or -1 before the
// first frame.
func (m *Monitor) Peak() (int, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak()
}

// Frames returns how many frames have been observed.
func (m *Monitor) Frames() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}
