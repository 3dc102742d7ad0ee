package source

import (
	"errors"
	"fmt"
	"io"
)

// Blocks cuts a Source into fixed-size blocks of per-channel samples.
type Blocks struct {
	src         Source
	size        int
	interleaved []float32
	channels    [][]float32
	done        bool
}

// NewBlocks returns a Blocks reader yielding size frames per block.
func NewBlocks(src Source, size int) *Blocks {
	ch := max(src.Channels(), 1)
	channels := make([][]float32, ch)
	for c := range channels {
		channels[c] = make([]float32, size)
	}
	return &Blocks{
		src:         src,
		size:        size,
		interleaved: make([]float32, size*ch),
		channels:    channels,
	}
}

// Next returns the next block as one slice per channel, each exactly the
// block size long, and the number of frames read from the source. The last
// block is zero-padded. Next returns io.EOF once the source is exhausted.
// The returned slices are reused by the following call.
func (b *Blocks) Next() ([][]float32, int, error) {
	if b.done {
		return nil, 0, io.EOF
	}

	filled := 0
	for filled < len(b.interleaved) {
		n, err := b.src.ReadSamples(b.interleaved[filled:])
		filled += n
		if errors.Is(err, io.EOF) {
			b.done = true
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read block: %w", err)
		}
		if n == 0 {
			b.done = true
			break
		}
	}

	ch := len(b.channels)
	frames := filled / ch
	if frames == 0 {
		b.done = true
		return nil, 0, io.EOF
	}

	for c, out := range b.channels {
		for i := 0; i < frames; i++ {
			out[i] = b.interleaved[i*ch+c]
		}
		clear(out[frames:])
	}
	return b.channels, frames, nil
}
