package monitor

import "github.com/sirupsen/logrus"

// Config defines monitor settings.
type Config struct {
	// Smoothing is the per-frame decay of displayed levels, in [0, 0.99].
	// 0 shows every frame as is.
	Smoothing float64
	// Weights scales each band before smoothing. Missing bands use 1.
	Weights []float64
	// SampleRate and BlockSize give frames their stream time.
	SampleRate float64
	BlockSize  int
	// SummaryEvery logs a summary after that many frames; 0 disables it.
	SummaryEvery int
	Logger       *logrus.Logger
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns light smoothing at 48 kHz.
func DefaultConfig() Config {
	return Config{
		Smoothing:    0.5,
		SampleRate:   48000,
		BlockSize:    128,
		SummaryEvery: 375,
		Logger:       logrus.StandardLogger(),
	}
}

// WithSmoothing sets the level decay, clamped to [0, 0.99].
func WithSmoothing(s float64) Option {
	return func(cfg *Config) {
		cfg.Smoothing = min(max(s, 0), 0.99)
	}
}

// WithWeights sets per-band weights.
func WithWeights(w []float64) Option {
	return func(cfg *Config) {
		cfg.Weights = append([]float64(nil), w...)
	}
}

// WithSampleRate sets the stream sample rate.
func WithSampleRate(rate float64) Option {
	return func(cfg *Config) {
		if rate > 0 {
			cfg.SampleRate = rate
		}
	}
}

// WithSummaryEvery sets the summary log interval in frames.
func WithSummaryEvery(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.SummaryEvery = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Logger) Option {
	return func(cfg *Config) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
