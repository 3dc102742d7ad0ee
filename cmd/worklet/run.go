package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/cwbudde/algo-worklet/internal/config"
	"github.com/cwbudde/algo-worklet/internal/monitor"
	"github.com/cwbudde/algo-worklet/internal/record"
	"github.com/cwbudde/algo-worklet/internal/render"
	"github.com/cwbudde/algo-worklet/internal/source"
	"github.com/cwbudde/algo-worklet/wasmhost"
	"github.com/cwbudde/algo-worklet/worklet"
)

const readyTimeout = 30 * time.Second

func newRunCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] module.wasm",
		Short: "Feed audio through a processing module and collect its frames.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.WasmPath = args[0]
			}
			if err := applyRunFlags(cmd, &cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.String("input", "", "WAV file to process (default: generated tone)")
	f.Float64("tone", 0, "tone frequency in Hz when no input is given")
	f.Duration("duration", 0, "render at most this much audio (0: whole input)")
	f.Int("sample-rate", 0, "sample rate of the generated tone")
	f.Uint32("initial-pages", 0, "initial linear memory pages")
	f.Uint32("max-pages", 0, "linear memory limit in pages")
	f.Int("outbox", 0, "frames buffered before dropping")
	f.Bool("realtime", false, "pace blocks to the sample rate")
	f.String("record", "", "SQLite database to record frames into")
	f.Float64("smoothing", 0, "display level smoothing in [0, 1)")
	return cmd
}

// applyRunFlags overrides cfg with the flags given on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error
	if f.Changed("input") {
		cfg.InputPath, err = f.GetString("input")
	}
	if err == nil && f.Changed("tone") {
		cfg.ToneHz, err = f.GetFloat64("tone")
	}
	if err == nil && f.Changed("duration") {
		cfg.Duration, err = f.GetDuration("duration")
	}
	if err == nil && f.Changed("sample-rate") {
		cfg.SampleRate, err = f.GetInt("sample-rate")
	}
	if err == nil && f.Changed("initial-pages") {
		cfg.InitialPages, err = f.GetUint32("initial-pages")
	}
	if err == nil && f.Changed("max-pages") {
		cfg.MaxPages, err = f.GetUint32("max-pages")
	}
	if err == nil && f.Changed("outbox") {
		cfg.OutboxSize, err = f.GetInt("outbox")
	}
	if err == nil && f.Changed("realtime") {
		cfg.Realtime, err = f.GetBool("realtime")
	}
	if err == nil && f.Changed("record") {
		cfg.RecordPath, err = f.GetString("record")
	}
	if err == nil && f.Changed("smoothing") {
		cfg.Smoothing, err = f.GetFloat64("smoothing")
	}
	return err
}

func openSource(cfg config.Config) (source.Source, error) {
	if cfg.InputPath != "" {
		return source.OpenWAV(cfg.InputPath)
	}
	frames := int(cfg.Duration.Seconds() * float64(cfg.SampleRate))
	return source.NewTone(
		source.WithSampleRate(cfg.SampleRate),
		source.WithFrequency(cfg.ToneHz),
		source.WithFrames(frames),
	)
}

func run(ctx context.Context, cmd *cobra.Command, cfg config.Config) error {
	log := newLogger(cmd, cfg)

	host := wasmhost.NewHost(wasmhost.WithMaxPages(cfg.MaxPages), wasmhost.WithLogger(log))
	defer host.Close(context.Background())

	mod, err := host.Load(ctx, cfg.WasmPath)
	if err != nil {
		return err
	}

	src, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()
	rate := src.SampleRate()

	proc := worklet.NewProcessor(
		worklet.WithInitialPages(cfg.InitialPages),
		worklet.WithOutboxSize(cfg.OutboxSize),
		worklet.WithLogger(log),
	)
	defer proc.Close(context.Background())

	if err := proc.Post(ctx, worklet.SampleRateMessage(float64(rate))); err != nil {
		return err
	}
	if err := proc.Post(ctx, worklet.WasmMessage(mod)); err != nil {
		return err
	}

	readyCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	err = render.AwaitReady(readyCtx, proc, time.Millisecond)
	cancel()
	if err != nil {
		return err
	}

	mon := monitor.New(
		monitor.WithSmoothing(cfg.Smoothing),
		monitor.WithSampleRate(float64(rate)),
		monitor.WithLogger(log),
	)

	var rec *record.Recorder
	if cfg.RecordPath != "" {
		rec, err = record.Open(cfg.RecordPath, mod.Name(), float64(rate), record.WithLogger(log))
		if err != nil {
			return err
		}
		atexit.Register(func() { _ = rec.Close() })
		defer rec.Close()
		mon.AddSink(rec)
	}

	done := make(chan error, 1)
	go func() { done <- mon.Run(context.Background(), proc.Messages()) }()

	opts := []render.Option{render.WithRealtime(cfg.Realtime), render.WithLogger(log)}
	if cfg.InputPath != "" && cfg.Duration > 0 {
		frames := cfg.Duration.Seconds() * float64(rate)
		opts = append(opts, render.WithMaxBlocks(int(math.Ceil(frames/worklet.BlockSize))))
	}
	stats, runErr := render.New(proc, src, opts...).Run(ctx)

	// Closing the processor closes Messages, which ends the monitor.
	closeErr := proc.Close(context.Background())
	<-done

	if rec != nil {
		if err := rec.Close(); err != nil {
			return err
		}
	}

	band, level := mon.Peak()
	log.WithFields(logrus.Fields{
		"function": "run",
		"blocks":   stats.Blocks,
		"frames":   mon.Frames(),
		"dropped":  proc.Dropped(),
		"reason":   stats.Reason.String(),
	}).Debug("Run finished")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "module:  %s\n", mod.Name())
	fmt.Fprintf(out, "blocks:  %d (%s)\n", stats.Blocks, stats.Reason)
	fmt.Fprintf(out, "frames:  %d emitted, %d dropped\n", mon.Frames(), proc.Dropped())
	fmt.Fprintf(out, "peak:    band %d level %.6g\n", band, level)
	if rec != nil {
		fmt.Fprintf(out, "session: %s (%d frames in %s)\n", rec.Session().ID, rec.Written(), cfg.RecordPath)
	}

	if runErr != nil {
		return runErr
	}
	if err := proc.Err(); err != nil {
		return err
	}
	return closeErr
}
