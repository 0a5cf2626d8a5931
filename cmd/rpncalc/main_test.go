package main

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	grpcapi "github.com/lemonberrylabs/rpncalc/pkg/api/grpc"
	"github.com/lemonberrylabs/rpncalc/pkg/store"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	color.NoColor = true

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestEval(t *testing.T) {
	out, _, err := execute(t, "", "eval", "2+3*4", "(2+3)*4", "1/4")
	require.NoError(t, err)
	assert.Equal(t, "14\n20\n0.25\n", out)
}

func TestEvalPostfix(t *testing.T) {
	out, _, err := execute(t, "", "eval", "--postfix", "8-3-2")
	require.NoError(t, err)
	assert.Equal(t, "postfix: 8 3 - 2 -\n3\n", out)
}

func TestEvalFailure(t *testing.T) {
	out, errOut, err := execute(t, "", "eval", "1+1", "5/0")
	assert.ErrorIs(t, err, errFailed)
	assert.Equal(t, "2\n", out)
	assert.Contains(t, errOut, "error: 5/0: DivisionByZero")
}

func TestEvalStdin(t *testing.T) {
	out, _, err := execute(t, "6*7\n\n  10/4  \n", "eval")
	require.NoError(t, err)
	assert.Equal(t, "42\n2.5\n", out)
}

func TestEvalRemote(t *testing.T) {
	s := store.New()
	srv := grpcapi.New(s)
	lis, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	go srv.ServeListener(lis)
	t.Cleanup(srv.GracefulStop)

	out, errOut, err := execute(t, "", "eval", "--remote", lis.Addr().String(), "--postfix", "7*6", "1/0")
	assert.ErrorIs(t, err, errFailed)
	assert.Equal(t, "postfix: 7 6 *\n42\npostfix: 1 0 /\n", out)
	assert.Contains(t, errOut, "error: 1/0: DivisionByZero")

	succeeded, failed := s.Stats()
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
}

func TestConvert(t *testing.T) {
	out, _, err := execute(t, "", "convert", "3+4*2/(1-5)")
	require.NoError(t, err)
	assert.Equal(t, "3 4 2 * 1 5 - / +\n", out)

	_, errOut, err := execute(t, "", "convert", "(1")
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, errOut, "UnmatchedParenthesis")

	_, _, err = execute(t, "", "convert")
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("name: good\ncases:\n  - {name: add, expression: '1+2', want: 3}\n  - {name: zero, expression: '1/0', error: DivisionByZero}\n"), 0o644))

	out, _, err := execute(t, "", "run", good)
	require.NoError(t, err)
	assert.Contains(t, out, "=== good ===")
	assert.Contains(t, out, "PASS add")
	assert.Contains(t, out, "PASS zero")
	assert.Contains(t, out, "2/2 cases passed in 1 suite(s)")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("cases: [{name: wrong, expression: '2*2', want: 5}]"), 0o644))

	out, _, err = execute(t, "", "run", dir)
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "FAIL wrong")
	assert.Contains(t, out, "2/3 cases passed in 2 suite(s)")

	_, _, err = execute(t, "", "run", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "rpncalc version dev"))
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("RPNCALC_TEST_VALUE", "")
	assert.Equal(t, "fallback", envOrDefault("RPNCALC_TEST_VALUE", "fallback"))
	t.Setenv("RPNCALC_TEST_VALUE", "set")
	assert.Equal(t, "set", envOrDefault("RPNCALC_TEST_VALUE", "fallback"))
}
