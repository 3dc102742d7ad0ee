package render

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-worklet/internal/source"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type recorder struct {
	blocks  [][][]float32
	stopAt  int
	ready   atomic.Bool
	readyAt int
	calls   int
	err     error
}

func (r *recorder) Process(inputs [][][]float32) bool {
	r.calls++
	if r.readyAt > 0 && r.calls >= r.readyAt {
		r.ready.Store(true)
	}
	if inputs == nil {
		return true
	}
	block := make([][]float32, len(inputs[0]))
	for c, ch := range inputs[0] {
		block[c] = append([]float32(nil), ch...)
	}
	r.blocks = append(r.blocks, block)
	return r.stopAt == 0 || len(r.blocks) < r.stopAt
}

func (r *recorder) Ready() bool { return r.ready.Load() }
func (r *recorder) Err() error  { return r.err }

func tone(t *testing.T, opts ...source.ToneOption) source.Source {
	t.Helper()
	src, err := source.NewTone(opts...)
	require.NoError(t, err)
	return src
}

func TestRunStopsAtEOF(t *testing.T) {
	rec := &recorder{}
	r := New(rec, tone(t, source.WithFrames(300), source.WithChannels(2)), WithLogger(quietLogger()))

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopEOF, stats.Reason)
	assert.Equal(t, 3, stats.Blocks)
	assert.Equal(t, 300, stats.Frames)

	require.Len(t, rec.blocks, 3)
	for _, b := range rec.blocks {
		require.Len(t, b, 2)
		assert.Len(t, b[0], 128)
		assert.Equal(t, b[0], b[1])
	}
	assert.Zero(t, rec.blocks[2][0][127])
}

func TestRunStopsWhenProcessorDeclines(t *testing.T) {
	rec := &recorder{stopAt: 2}
	r := New(rec, tone(t, source.WithFrames(0)), WithLogger(quietLogger()))

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopProcessor, stats.Reason)
	assert.Equal(t, 2, stats.Blocks)
}

func TestRunHonorsBlockLimit(t *testing.T) {
	rec := &recorder{}
	r := New(rec, tone(t, source.WithFrames(0)), WithLogger(quietLogger()), WithMaxBlocks(5), WithBlockSize(64))

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopLimit, stats.Reason)
	assert.Equal(t, 5, stats.Blocks)
	assert.Equal(t, 320, stats.Frames)
	assert.Len(t, rec.blocks[0][0], 64)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(&recorder{}, tone(t, source.WithFrames(0)), WithLogger(quietLogger()), WithRealtime(true))
	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StopCanceled, stats.Reason)
	assert.Zero(t, stats.Blocks)
}

func TestRunRealtimePacing(t *testing.T) {
	// 128 frames at 12800 Hz is a 10 ms block.
	src := tone(t, source.WithSampleRate(12800), source.WithFrequency(100), source.WithFrames(5*128))
	r := New(&recorder{}, src, WithLogger(quietLogger()), WithRealtime(true))
	assert.Equal(t, 10*time.Millisecond, r.Period())

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Blocks)
	assert.GreaterOrEqual(t, stats.Elapsed, 40*time.Millisecond)
}

type failingSource struct{}

func (failingSource) SampleRate() int { return 48000 }
func (failingSource) Channels() int   { return 1 }
func (failingSource) Close() error    { return nil }

func (failingSource) ReadSamples([]float32) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestRunReturnsSourceErrors(t *testing.T) {
	r := New(&recorder{}, failingSource{}, WithLogger(quietLogger()))
	_, err := r.Run(context.Background())
	assert.ErrorContains(t, err, "disk on fire")
}

func TestAwaitReady(t *testing.T) {
	rec := &recorder{readyAt: 3}
	require.NoError(t, AwaitReady(context.Background(), rec, time.Millisecond))
	assert.Equal(t, 3, rec.calls)
	assert.Empty(t, rec.blocks)
}

func TestAwaitReadyFails(t *testing.T) {
	boom := errors.New("instantiate failed")
	err := AwaitReady(context.Background(), &recorder{err: boom}, time.Millisecond)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	err = AwaitReady(ctx, &recorder{}, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
