// Package nihtesterr defines the tagged error variants used across the
// driver: ParseError, SetupError, SystemError, and Mismatch. The shape
// (Op/Err plus a format-specific extra field, with Unwrap for errors.Is/As)
// keeps error chains inspectable with errors.Is/As.
package nihtesterr

import (
	"fmt"
	"strings"
)

// ParseError reports a directive-language syntax or validation failure at a
// specific line of a test case or configuration file (SPEC_FULL.md §3.4,
// spec.md §7 "Parse error").
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SetupError reports a failure preparing to run a test: a missing program,
// missing preload library, unresolvable input file, or sandbox creation
// failure (spec.md §7 "Setup error").
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// SystemError reports a runtime system failure — pipe, fork/exec, or I/O
// failure from the subprocess engine (spec.md §7 "Runtime system error").
// Tail carries a bounded snippet of recently observed diagnostic output
// (the circbuf-backed tail described in SPEC_FULL.md §2/§9), present only
// when the failure happened while a child process was running.
type SystemError struct {
	Op   string
	Err  error
	Tail string
}

func (e *SystemError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("unknown system error")
	}
	if tail := strings.TrimSpace(e.Tail); tail != "" {
		b.WriteString("; output (tail): ")
		b.WriteString(tail)
	}
	return b.String()
}

func (e *SystemError) Unwrap() error { return e.Err }

// Mismatch records one facet ("exit status", "output", "error output",
// "files", ...) that differed from expectations. Mismatch is never fatal —
// it is accumulated into a Test's failed-facets list and never wraps
// another error (spec.md §7 "Comparison mismatch. Never fatal.").
type Mismatch struct {
	Facet string
}

func (e *Mismatch) Error() string {
	return "mismatch: " + e.Facet
}

// CLIError wraps any of the above for presentation by the CLI front-end.
// PrintMessage governs whether the message is printed before the process
// exits (spec.md §9 "a print_message attribute governs whether the CLI
// surface prints the message before exiting").
type CLIError struct {
	Err          error
	PrintMessage bool
}

func (e *CLIError) Error() string { return e.Err.Error() }

func (e *CLIError) Unwrap() error { return e.Err }
