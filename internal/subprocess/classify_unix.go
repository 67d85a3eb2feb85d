//go:build !windows

package subprocess

import (
	"os/exec"
	"strconv"
	"syscall"
)

// signalNames lists the POSIX signal names spec.md §4.5 requires the
// classifier to recognize; anything else becomes "unknown signal <n>".
var signalNames = map[syscall.Signal]string{
	syscall.SIGABRT: "SIGABRT",
	syscall.SIGALRM: "SIGALRM",
	syscall.SIGBUS:  "SIGBUS",
	syscall.SIGFPE:  "SIGFPE",
	syscall.SIGHUP:  "SIGHUP",
	syscall.SIGILL:  "SIGILL",
	syscall.SIGINT:  "SIGINT",
	syscall.SIGKILL: "SIGKILL",
	syscall.SIGPIPE: "SIGPIPE",
	syscall.SIGQUIT: "SIGQUIT",
	syscall.SIGSEGV: "SIGSEGV",
	syscall.SIGSYS:  "SIGSYS",
	syscall.SIGTERM: "SIGTERM",
	syscall.SIGTRAP: "SIGTRAP",
}

// classify converts the wait result into spec.md §4.5's status string:
// a decimal exit code, or the POSIX signal name (or "unknown signal <n>").
func classify(cmd *exec.Cmd, waitErr error) (status string, exitCode int, signal string, err error) {
	state := cmd.ProcessState
	if state == nil {
		return "", 0, "", waitErr
	}

	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok {
		if exitErr, isExit := waitErr.(*exec.ExitError); isExit {
			code := exitErr.ExitCode()
			return strconv.Itoa(code), code, "", nil
		}
		return strconv.Itoa(state.ExitCode()), state.ExitCode(), "", nil
	}

	if ws.Signaled() {
		sig := ws.Signal()
		name, known := signalNames[sig]
		if !known {
			name = "unknown signal " + strconv.Itoa(int(sig))
		}
		return name, -1, name, nil
	}

	code := ws.ExitStatus()
	return strconv.Itoa(code), code, "", nil
}
