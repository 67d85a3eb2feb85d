//go:build windows

package subprocess

import (
	"os/exec"
	"time"
)

func configureProcessGroup(cmd *exec.Cmd) {
	// No Unix-style process groups; rely on the single process handle.
}

func terminateProcessGroup(cmd *exec.Cmd, grace time.Duration) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
