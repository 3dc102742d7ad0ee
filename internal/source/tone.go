package source

import (
	"fmt"
	"io"
	"math"
)

// ToneConfig defines a generated sine tone.
type ToneConfig struct {
	SampleRate int
	Channels   int
	FreqHz     float64
	Amplitude  float64
	// Frames is the stream length per channel; 0 means endless.
	Frames int
}

// ToneOption mutates a ToneConfig.
type ToneOption func(*ToneConfig)

// DefaultToneConfig returns a one second 440 Hz mono tone at 48 kHz.
func DefaultToneConfig() ToneConfig {
	return ToneConfig{
		SampleRate: 48000,
		Channels:   1,
		FreqHz:     440,
		Amplitude:  0.5,
		Frames:     48000,
	}
}

// WithSampleRate sets the tone sample rate.
func WithSampleRate(rate int) ToneOption {
	return func(cfg *ToneConfig) {
		if rate > 0 {
			cfg.SampleRate = rate
		}
	}
}

// WithChannels sets how many identical channels the tone has.
func WithChannels(n int) ToneOption {
	return func(cfg *ToneConfig) {
		if n > 0 {
			cfg.Channels = n
		}
	}
}

// WithFrequency sets the tone frequency in Hz.
func WithFrequency(hz float64) ToneOption {
	return func(cfg *ToneConfig) {
		cfg.FreqHz = hz
	}
}

// WithAmplitude sets the peak amplitude.
func WithAmplitude(a float64) ToneOption {
	return func(cfg *ToneConfig) {
		cfg.Amplitude = a
	}
}

// WithFrames sets the stream length in frames; 0 means endless.
func WithFrames(n int) ToneOption {
	return func(cfg *ToneConfig) {
		if n >= 0 {
			cfg.Frames = n
		}
	}
}

type tone struct {
	cfg   ToneConfig
	step  float64
	frame int
}

// NewTone returns a Source producing a phase-continuous sine tone.
func NewTone(opts ...ToneOption) (Source, error) {
	cfg := DefaultToneConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.FreqHz < 0 || cfg.FreqHz > float64(cfg.SampleRate)/2 {
		return nil, fmt.Errorf("%w: frequency %g Hz outside [0, %d]", ErrInvalidTone, cfg.FreqHz, cfg.SampleRate/2)
	}
	if cfg.Amplitude < 0 || cfg.Amplitude > 1 {
		return nil, fmt.Errorf("%w: amplitude %g outside [0, 1]", ErrInvalidTone, cfg.Amplitude)
	}

	return &tone{
		cfg:  cfg,
		step: 2 * math.Pi * cfg.FreqHz / float64(cfg.SampleRate),
	}, nil
}

func (t *tone) SampleRate() int { return t.cfg.SampleRate }
func (t *tone) Channels() int   { return t.cfg.Channels }
func (t *tone) Close() error    { return nil }

func (t *tone) ReadSamples(dst []float32) (int, error) {
	ch := t.cfg.Channels
	frames := len(dst) / ch
	if t.cfg.Frames > 0 {
		frames = min(frames, t.cfg.Frames-t.frame)
	}
	if frames <= 0 {
		if len(dst) < ch {
			return 0, nil
		}
		return 0, io.EOF
	}

	for i := 0; i < frames; i++ {
		v := float32(t.cfg.Amplitude * math.Sin(t.step*float64(t.frame+i)))
		for c := 0; c < ch; c++ {
			dst[i*ch+c] = v
		}
	}
	t.frame += frames
	return frames * ch, nil
}
