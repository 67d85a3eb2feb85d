// Package report implements the PASS/FAIL/SKIP/ERROR result type and its
// print/exit-code mapping (spec.md §4.4 "Results" and §6 "Exit codes").
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/nihtest-go/nihtest/internal/nihconfig"
)

// Outcome is one of the four result states a test case produces.
type Outcome int

const (
	Passed Outcome = iota
	Failed
	Skipped
	Errored
)

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "PASS"
	case Failed:
		return "FAIL"
	case Skipped:
		return "SKIP"
	case Errored:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ExitCode implements spec.md §6's "Exit codes: 0 PASS, 1 FAIL, 2 SKIP, 3 ERROR".
func (o Outcome) ExitCode() int {
	return int(o)
}

// Result is the outcome of running one test case, plus the failed facets
// or skip/error reason that explain it.
type Result struct {
	Name    string
	Outcome Outcome
	Reasons []string
}

// ExitCode returns the process exit status for this result.
func (r Result) ExitCode() int {
	return r.Outcome.ExitCode()
}

// Print writes the one-line result per spec.md §4.4's printing rule:
// PASSED/SKIPPED print only when policy is ALWAYS; FAILED/ERROR suppress
// only when policy is NEVER. Color is applied when forceColor is set;
// otherwise it follows isatty auto-detection and is skipped when w is not a
// terminal.
func Print(w io.Writer, r Result, policy nihconfig.Policy, forceColor bool) {
	if !shouldPrint(r.Outcome, policy) {
		return
	}

	line := fmt.Sprintf("%s -- %s", r.Name, r.Outcome)
	if len(r.Reasons) > 0 {
		line += ": " + strings.Join(r.Reasons, ",")
	}

	if forceColor || isTerminal(w) {
		line = colorize(r.Outcome, line)
	}
	fmt.Fprintln(w, line)
}

func shouldPrint(o Outcome, policy nihconfig.Policy) bool {
	switch o {
	case Passed, Skipped:
		return policy == nihconfig.PolicyAlways
	default: // Failed, Errored
		return policy != nihconfig.PolicyNever
	}
}

func colorize(o Outcome, line string) string {
	const reset = "\033[0m"
	var color string
	switch o {
	case Passed:
		color = "\033[32m" // green
	case Skipped:
		color = "\033[33m" // yellow
	default:
		color = "\033[31m" // red
	}
	return color + line + reset
}

type fileDescriptor interface {
	Fd() uintptr
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(fileDescriptor)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
