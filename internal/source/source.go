// Package source supplies interleaved float32 audio to the renderer: decoded
// WAV files and generated test tones.
package source

import "errors"

var (
	// ErrNotWAV indicates the input is not a RIFF/WAVE file.
	ErrNotWAV = errors.New("not a WAV file")

	// ErrUnsupportedFormat indicates a WAV that is not 16, 24 or 32-bit PCM.
	ErrUnsupportedFormat = errors.New("unsupported WAV format")

	// ErrInvalidTone indicates tone options out of range.
	ErrInvalidTone = errors.New("invalid tone parameters")
)

// Source is a stream of interleaved float32 samples in [-1, 1].
type Source interface {
	// SampleRate of the stream in Hz.
	SampleRate() int
	// Channels count (1 = mono, 2 = stereo).
	Channels() int
	// ReadSamples fills dst with interleaved samples and returns how many
	// values were written. It returns 0, io.EOF once the stream is finished.
	ReadSamples(dst []float32) (int, error)
	// Close releases any resources.
	Close() error
}
