// Package main is the entry point for the rpncalc command.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errFailed signals a failure that has already been reported to the user.
var errFailed = errors.New("failed")

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rpncalc",
		Short:         "Infix calculator with postfix evaluation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if v, _ := cmd.Flags().GetBool("no-color"); v {
				color.NoColor = true
			}
		},
	}
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("rpncalc version {{.Version}}\n")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		newEvalCmd(),
		newConvertCmd(),
		newRunCmd(),
		newServeCmd(),
		newTUICmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
