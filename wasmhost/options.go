package wasmhost

import "github.com/sirupsen/logrus"

// Config defines Host settings.
type Config struct {
	// MaxPages bounds every linear memory, in 64 KiB pages.
	MaxPages uint32
	// Interpreter forces the interpreter engine instead of the compiler.
	Interpreter bool
	Logger      *logrus.Logger
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the settings used by NewHost.
func DefaultConfig() Config {
	return Config{
		MaxPages: 65536,
		Logger:   logrus.StandardLogger(),
	}
}

// WithMaxPages bounds linear memories to pages.
func WithMaxPages(pages uint32) Option {
	return func(cfg *Config) {
		if pages > 0 {
			cfg.MaxPages = pages
		}
	}
}

// WithInterpreter selects the interpreter engine.
func WithInterpreter() Option {
	return func(cfg *Config) {
		cfg.Interpreter = true
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
