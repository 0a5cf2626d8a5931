package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/rpncalc/pkg/suite"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run FILE|DIR...",
		Short: "Run calculation suite files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSuites,
	}
}

func runSuites(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var suites []*suite.Suite
	failed := false
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			s, err := suite.Load(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", color.RedString("error:"), err)
				failed = true
				continue
			}
			suites = append(suites, s)
			continue
		}

		loaded, failures, err := suite.LoadDir(path)
		if err != nil {
			return err
		}
		for name, ferr := range failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", color.RedString("error:"), name, ferr)
			failed = true
		}
		suites = append(suites, loaded...)
	}

	var passed, total int
	for _, s := range suites {
		rep := suite.Run(s)
		fmt.Fprintf(out, "%s\n", color.CyanString("=== %s ===", rep.Suite))
		for _, r := range rep.Results {
			if r.Passed {
				fmt.Fprintf(out, "%s %s\n", color.GreenString("PASS"), r.Name)
			} else {
				fmt.Fprintf(out, "%s %s: %s\n", color.RedString("FAIL"), r.Name, r.Message)
			}
		}
		passed += rep.Passed
		total += rep.Passed + rep.Failed
		if !rep.OK() {
			failed = true
		}
	}

	fmt.Fprintf(out, "%d/%d cases passed in %d suite(s)\n", passed, total, len(suites))
	if failed {
		return errFailed
	}
	return nil
}
