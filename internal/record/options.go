package record

import "github.com/sirupsen/logrus"

// Config defines recorder settings.
type Config struct {
	// BatchSize is how many frames are buffered before a flush.
	BatchSize int
	Logger    *logrus.Logger
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the settings used by Open.
func DefaultConfig() Config {
	return Config{
		BatchSize: 1000,
		Logger:    logrus.StandardLogger(),
	}
}

// WithBatchSize sets the flush threshold.
func WithBatchSize(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.BatchSize = n
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
