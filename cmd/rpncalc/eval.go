package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	grpcapi "github.com/lemonberrylabs/rpncalc/pkg/api/grpc"
	"github.com/lemonberrylabs/rpncalc/pkg/expr"
)

// remoteTimeout bounds each remote call.
const remoteTimeout = 10 * time.Second

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval [EXPR...]",
		Short: "Evaluate infix expressions (reads lines from stdin when none are given)",
		RunE:  runEval,
	}
	cmd.Flags().Bool("postfix", false, "Also print the postfix form of each expression")
	cmd.Flags().String("remote", "", "Evaluate on a running server's gRPC endpoint (host:port, env RPNCALC_REMOTE)")
	return cmd
}

// evaluator evaluates one expression and reports it; false means failure.
type evaluator func(cmd *cobra.Command, input string, showPostfix bool) bool

func runEval(cmd *cobra.Command, args []string) error {
	showPostfix, _ := cmd.Flags().GetBool("postfix")

	inputs := args
	if len(inputs) == 0 {
		lines, err := readLines(cmd.InOrStdin())
		if err != nil {
			return err
		}
		inputs = lines
	}

	eval := evaluator(evalOne)
	remote := envOrDefault("RPNCALC_REMOTE", "")
	if v, _ := cmd.Flags().GetString("remote"); v != "" {
		remote = v
	}
	if remote != "" {
		conn, err := grpc.NewClient(remote, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("connecting to %s: %w", remote, err)
		}
		defer conn.Close()
		eval = remoteEvaluator(grpcapi.NewClient(conn))
	}

	failed := false
	for _, input := range inputs {
		if !eval(cmd, input, showPostfix) {
			failed = true
		}
	}
	if failed {
		return errFailed
	}
	return nil
}

func evalOne(cmd *cobra.Command, input string, showPostfix bool) bool {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	res, err := expr.Calculate(input)
	if showPostfix && res != nil {
		fmt.Fprintf(out, "postfix: %s\n", expr.Join(res.Postfix))
	}
	if err != nil {
		fmt.Fprintf(errOut, "%s %s: %v\n", color.RedString("error:"), input, err)
		return false
	}
	fmt.Fprintln(out, expr.FormatResult(res.Value))
	return true
}

func remoteEvaluator(client *grpcapi.Client) evaluator {
	return func(cmd *cobra.Command, input string, showPostfix bool) bool {
		out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
		ctx, cancel := context.WithTimeout(cmd.Context(), remoteTimeout)
		defer cancel()

		if showPostfix {
			if tokens, err := client.Convert(ctx, input); err == nil {
				fmt.Fprintf(out, "postfix: %s\n", strings.Join(tokens, " "))
			}
		}
		v, err := client.Evaluate(ctx, input)
		if err != nil {
			if kind, ok := grpcapi.KindFromError(err); ok {
				fmt.Fprintf(errOut, "%s %s: %s\n", color.RedString("error:"), input, kind)
			} else {
				fmt.Fprintf(errOut, "%s %s: %v\n", color.RedString("error:"), input, err)
			}
			return false
		}
		fmt.Fprintln(out, expr.FormatResult(v))
		return true
	}
}

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert EXPR...",
		Short: "Print the postfix form of infix expressions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := false
			for _, input := range args {
				postfix, err := expr.ToPostfix(input)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", color.RedString("error:"), input, err)
					failed = true
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), expr.Join(postfix))
			}
			if failed {
				return errFailed
			}
			return nil
		},
	}
}

// readLines returns the non-blank lines of r with surrounding whitespace
// removed.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
