package render

import (
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-worklet/worklet"
)

// Config defines renderer settings.
type Config struct {
	BlockSize int
	// Realtime paces blocks to the source sample rate.
	Realtime bool
	// MaxBlocks stops rendering after that many blocks; 0 means no limit.
	MaxBlocks int
	Logger    *logrus.Logger
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns offline rendering in worklet-sized blocks.
func DefaultConfig() Config {
	return Config{
		BlockSize: worklet.BlockSize,
		Logger:    logrus.StandardLogger(),
	}
}

// WithRealtime enables or disables real-time pacing.
func WithRealtime(on bool) Option {
	return func(cfg *Config) {
		cfg.Realtime = on
	}
}

// WithBlockSize sets the frames per block.
func WithBlockSize(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.BlockSize = n
		}
	}
}

// WithMaxBlocks limits how many blocks are rendered.
func WithMaxBlocks(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.MaxBlocks = n
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
