package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-worklet/wasmhost"
)

func newInspectCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect module.wasm",
		Short: "List a module's exports and check them against the processing ABI.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			wasm, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			host := wasmhost.NewHost(wasmhost.WithMaxPages(cfg.MaxPages), wasmhost.WithLogger(newLogger(cmd, cfg)))
			defer host.Close(cmd.Context())

			abi, err := host.Inspect(cmd.Context(), wasm)
			if err != nil {
				return err
			}
			if err := printABI(cmd.OutOrStdout(), abi); err != nil {
				return err
			}

			if err := abi.Validate(); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\nABI: not usable: %v\n", err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\nABI: ok")
			return nil
		},
	}
}

func printABI(w io.Writer, abi wasmhost.ABI) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Export\tSignature\n")
	fmt.Fprintf(tw, "------\t---------\n")
	for _, name := range abi.Names() {
		fmt.Fprintf(tw, "%s\t%s\n", name, abi.Functions[name])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	memory := "none"
	switch {
	case abi.ImportsMemory:
		memory = "imports env.memory"
	case abi.ExportsMemory:
		memory = "exports memory"
	}
	limit := "unbounded"
	if abi.HasMemoryMax {
		limit = fmt.Sprintf("max %d", abi.MemoryMax)
	}
	_, err := fmt.Fprintf(w, "\nMemory: %s, min %d pages, %s\nWASI: %t\n", memory, abi.MemoryMin, limit, abi.WASI)
	return err
}
