// Package config loads command settings from .env files and WORKLET_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// ErrInvalid wraps every malformed or out-of-range setting.
var ErrInvalid = errors.New("invalid config")

// Environment keys.
const (
	KeyWasm         = "WORKLET_WASM"
	KeyInput        = "WORKLET_INPUT"
	KeyToneHz       = "WORKLET_TONE_HZ"
	KeyDuration     = "WORKLET_DURATION"
	KeySampleRate   = "WORKLET_SAMPLE_RATE"
	KeyInitialPages = "WORKLET_INITIAL_PAGES"
	KeyMaxPages     = "WORKLET_MAX_PAGES"
	KeyOutboxSize   = "WORKLET_OUTBOX_SIZE"
	KeyRealtime     = "WORKLET_REALTIME"
	KeyRecord       = "WORKLET_RECORD"
	KeySmoothing    = "WORKLET_SMOOTHING"
	KeyLogLevel     = "WORKLET_LOG_LEVEL"
)

// Config holds the settings of the worklet command.
type Config struct {
	// WasmPath is the processing module to load.
	WasmPath string
	// InputPath is a WAV file; empty selects a generated tone.
	InputPath string
	ToneHz    float64
	// Duration bounds rendering; 0 renders the whole input.
	Duration time.Duration
	// SampleRate is used for generated tones; WAV input uses its own rate.
	SampleRate   int
	InitialPages uint32
	MaxPages     uint32
	OutboxSize   int
	Realtime     bool
	// RecordPath is a SQLite database receiving frames; empty disables it.
	RecordPath string
	Smoothing  float64
	LogLevel   string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ToneHz:       440,
		Duration:     time.Second,
		SampleRate:   48000,
		InitialPages: 1024,
		MaxPages:     65536,
		OutboxSize:   64,
		Smoothing:    0.5,
		LogLevel:     "info",
	}
}

// Load starts from Default, applies the given .env files in order and then
// the process environment, which wins. Missing files are skipped.
func Load(files ...string) (Config, error) {
	cfg := Default()

	vars := make(map[string]string)
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		fileVars, err := godotenv.Read(f)
		if err != nil {
			return cfg, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			vars[k] = v
		}
	}

	if err := cfg.apply(vars); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var keys = []string{
	KeyWasm, KeyInput, KeyToneHz, KeyDuration, KeySampleRate, KeyInitialPages,
	KeyMaxPages, KeyOutboxSize, KeyRealtime, KeyRecord, KeySmoothing, KeyLogLevel,
}

func (c *Config) apply(vars map[string]string) error {
	var errs []error
	parse := func(key string, set func(string) error) {
		v, ok := vars[key]
		if !ok || v == "" {
			return
		}
		if err := set(v); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q: %w", ErrInvalid, key, v, err))
		}
	}

	parse(KeyWasm, func(v string) error { c.WasmPath = v; return nil })
	parse(KeyInput, func(v string) error { c.InputPath = v; return nil })
	parse(KeyRecord, func(v string) error { c.RecordPath = v; return nil })
	parse(KeyLogLevel, func(v string) error { c.LogLevel = v; return nil })
	parse(KeyToneHz, func(v string) (err error) {
		c.ToneHz, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse(KeySmoothing, func(v string) (err error) {
		c.Smoothing, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse(KeyDuration, func(v string) (err error) {
		c.Duration, err = time.ParseDuration(v)
		return err
	})
	parse(KeySampleRate, func(v string) (err error) {
		c.SampleRate, err = strconv.Atoi(v)
		return err
	})
	parse(KeyOutboxSize, func(v string) (err error) {
		c.OutboxSize, err = strconv.Atoi(v)
		return err
	})
	parse(KeyRealtime, func(v string) (err error) {
		c.Realtime, err = strconv.ParseBool(v)
		return err
	})
	parse(KeyInitialPages, func(v string) error {
		n, err := strconv.ParseUint(v, 10, 32)
		c.InitialPages = uint32(n)
		return err
	})
	parse(KeyMaxPages, func(v string) error {
		n, err := strconv.ParseUint(v, 10, 32)
		c.MaxPages = uint32(n)
		return err
	})

	return errors.Join(errs...)
}

// Validate checks the settings needed to run a module.
func (c Config) Validate() error {
	var errs []error
	if c.WasmPath == "" {
		errs = append(errs, fmt.Errorf("%w: no wasm module given", ErrInvalid))
	}
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: sample rate %d", ErrInvalid, c.SampleRate))
	}
	if c.InputPath == "" && (c.ToneHz < 0 || c.ToneHz > float64(c.SampleRate)/2) {
		errs = append(errs, fmt.Errorf("%w: tone %g Hz outside [0, %d]", ErrInvalid, c.ToneHz, c.SampleRate/2))
	}
	if c.Duration < 0 {
		errs = append(errs, fmt.Errorf("%w: negative duration %s", ErrInvalid, c.Duration))
	}
	if c.InitialPages == 0 || c.InitialPages > c.MaxPages {
		errs = append(errs, fmt.Errorf("%w: initial pages %d outside [1, %d]", ErrInvalid, c.InitialPages, c.MaxPages))
	}
	if c.OutboxSize < 0 {
		errs = append(errs, fmt.Errorf("%w: outbox size %d", ErrInvalid, c.OutboxSize))
	}
	if c.Smoothing < 0 || c.Smoothing >= 1 {
		errs = append(errs, fmt.Errorf("%w: smoothing %g outside [0, 1)", ErrInvalid, c.Smoothing))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level, defaulting to info.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
