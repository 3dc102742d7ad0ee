package worklet

import "github.com/sirupsen/logrus"

// ProcessorConfig defines Processor settings.
type ProcessorConfig struct {
	// InitialPages is the memory size handed to Descriptor.Instantiate.
	InitialPages uint32
	// InboxSize buffers control messages posted to the processor.
	InboxSize int
	// OutboxSize buffers frequency messages awaiting the control side.
	// Frames that do not fit are dropped.
	OutboxSize int
	// Logger receives lifecycle logs. Nothing is logged per block.
	Logger *logrus.Logger
	// OnError is called on the render goroutine with initialization,
	// rate and processing failures.
	OnError func(error)
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns the settings used by NewProcessor.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		InitialPages: DefaultInitialPages,
		InboxSize:    16,
		OutboxSize:   64,
		Logger:       logrus.StandardLogger(),
	}
}

// WithInitialPages sets the initial module memory size in pages.
func WithInitialPages(pages uint32) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if pages > 0 {
			cfg.InitialPages = pages
		}
	}
}

// WithInboxSize sets the control message buffer size.
func WithInboxSize(n int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if n > 0 {
			cfg.InboxSize = n
		}
	}
}

// WithOutboxSize sets the frequency message buffer size.
func WithOutboxSize(n int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if n > 0 {
			cfg.OutboxSize = n
		}
	}
}

// WithLogger sets the lifecycle logger.
func WithLogger(l *logrus.Logger) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// WithErrorHandler sets the OnError hook.
func WithErrorHandler(fn func(error)) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		cfg.OnError = fn
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
