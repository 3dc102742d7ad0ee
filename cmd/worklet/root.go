package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-worklet/internal/config"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	envFile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "worklet",
		Short: "Drive WebAssembly audio processing modules.",
		Long: `worklet loads a WebAssembly module exporting the processing ABI ` +
			`(sample_in_ptr, freq_out_ptr, freq_out_len, set_sample_rate, ` +
			`process_samples), feeds it 128-frame blocks and collects the ` +
			`frequency frames it produces.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "dotenv file with WORKLET_* settings")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides WORKLET_LOG_LEVEL)")

	root.AddCommand(newRunCmd(opts), newInspectCmd(opts), newVersionCmd())
	return root
}

// load reads the config file and environment and applies the persistent
// flags.
func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return cfg, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg config.Config) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(cmd.ErrOrStderr())
	l.SetLevel(cfg.Level())
	return l
}
