package subprocess

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihtest-go/nihtest/internal/osfacade"
)

func lookPath(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return path
}

func TestRunCapturesStdoutAndExitCode(t *testing.T) {
	echo := lookPath(t, "echo")
	res, err := Run(context.Background(), osfacade.Default, Spec{Program: echo, Argv: []string{"hello", "world"}})
	require.NoError(t, err)
	assert.Equal(t, "0", res.Status)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, []string{"hello world"}, res.Stdout)
}

func TestRunFeedsStdinConcurrently(t *testing.T) {
	cat := lookPath(t, "cat")
	res, err := Run(context.Background(), osfacade.Default, Spec{
		Program:    cat,
		InputLines: []string{"one", "two", "three"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, res.Stdout)
}

func TestRunNonZeroExit(t *testing.T) {
	sh := lookPath(t, "sh")
	res, err := Run(context.Background(), osfacade.Default, Spec{
		Program: sh,
		Argv:    []string{"-c", "exit 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "3", res.Status)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRunClassifiesSignalTermination(t *testing.T) {
	sh := lookPath(t, "sh")
	res, err := Run(context.Background(), osfacade.Default, Spec{
		Program: sh,
		Argv:    []string{"-c", "kill -TERM $$"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SIGTERM", res.Status)
	assert.Equal(t, "SIGTERM", res.Signal)
	assert.Equal(t, -1, res.ExitCode)
}

func TestRunCapturesStderrSeparately(t *testing.T) {
	sh := lookPath(t, "sh")
	res, err := Run(context.Background(), osfacade.Default, Spec{
		Program: sh,
		Argv:    []string{"-c", "echo out; echo err 1>&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"out"}, res.Stdout)
	assert.Equal(t, []string{"err"}, res.Stderr)
}

func TestRunOverflowReportsSystemError(t *testing.T) {
	sh := lookPath(t, "sh")
	_, err := Run(context.Background(), osfacade.Default, Spec{
		Program:        sh,
		Argv:           []string{"-c", "echo this line is longer than ten bytes"},
		MaxOutputBytes: 10,
	})
	require.Error(t, err)
}

func TestRunMissingProgramIsSetupError(t *testing.T) {
	_, err := Run(context.Background(), osfacade.Default, Spec{
		Program:    "/nonexistent/nowhere",
		SearchPath: nil,
	})
	require.Error(t, err)
}
