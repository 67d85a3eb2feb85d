//go:build windows

package subprocess

import (
	"os/exec"
	"strconv"
)

// classify has no signal concept on Windows; every termination is reported
// as a decimal exit code.
func classify(cmd *exec.Cmd, waitErr error) (status string, exitCode int, signal string, err error) {
	state := cmd.ProcessState
	if state == nil {
		return "", 0, "", waitErr
	}
	code := state.ExitCode()
	return strconv.Itoa(code), code, "", nil
}
