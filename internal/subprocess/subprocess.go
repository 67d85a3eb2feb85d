// Package subprocess implements the subprocess engine (spec.md §4.5): it
// resolves a program and optional preload library, feeds stdin, captures
// stdout/stderr, and classifies the exit status. The concurrent-I/O
// requirement of §5 ("the parent always reads stdout and stderr
// concurrently with writing stdin") is met the idiomatic Go way: os/exec
// already spawns copier goroutines for any io.Writer assigned to
// cmd.Stdout/cmd.Stderr, so only the stdin feed needs its own goroutine.
// This replaces the original poll(2) loop entirely rather than
// reimplementing it; the process-group termination helpers solve the
// same fork/exec/signal problem any subprocess supervisor needs.
package subprocess

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/armon/circbuf"

	"github.com/nihtest-go/nihtest/internal/nihtesterr"
	"github.com/nihtest-go/nihtest/internal/osfacade"
)

const (
	// defaultMaxOutputBytes mirrors the original's BUFFER_SIZE.
	defaultMaxOutputBytes = 1024 * 1024
	defaultDiagnosticTail = 32 * 1024
	defaultTerminateGrace = 250 * time.Millisecond
)

// Spec aggregates everything run_command needs (spec.md §4.5 "Contract").
// The caller is expected to have already chdir'd into the sandbox; the
// child inherits the driver's current working directory.
type Spec struct {
	Program        string
	Argv           []string
	Env            []string
	InputLines     []string
	InputFile      string
	SearchPath     []string
	PreloadLibrary string
	MaxOutputBytes int

	// TerminateGrace sets how long Run waits after a context
	// cancellation before escalating from SIGTERM to SIGKILL. Present
	// for completeness; no caller sets a deadline today (spec.md §5
	// "reserves a timeout parameter... current behavior: wait
	// indefinitely").
	TerminateGrace time.Duration
}

// Result is the engine's output: the classified exit status plus captured
// output lines (spec.md §4.5 "Line splitting").
type Result struct {
	Status   string
	ExitCode int
	Signal   string
	Stdout   []string
	Stderr   []string
}

// Run resolves the program and any preload library, spawns it, feeds
// stdin, and waits for completion. A context that is never canceled
// behaves exactly like the original's unconditional wait; cancellation
// triggers graceful-then-forced process-group termination.
func Run(ctx context.Context, osi osfacade.OS, spec Spec) (Result, error) {
	program, err := ResolveProgram(osi, spec.Program, spec.SearchPath)
	if err != nil {
		return Result{}, &nihtesterr.SetupError{Op: "resolve program", Err: err}
	}

	env := append([]string(nil), spec.Env...)
	if spec.PreloadLibrary != "" {
		preload, err := ResolvePreload(osi, spec.PreloadLibrary)
		if err != nil {
			return Result{}, &nihtesterr.SetupError{Op: "resolve preload", Err: err}
		}
		env = append(env, "LD_PRELOAD="+preload)
	}

	limit := spec.MaxOutputBytes
	if limit <= 0 {
		limit = defaultMaxOutputBytes
	}
	stdout := newCapturedStream(limit)
	stderr := newCapturedStream(limit)

	cmd := exec.Command(program)
	cmd.Args = append([]string{spec.Program}, spec.Argv...)
	cmd.Env = env
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	configureProcessGroup(cmd)

	var inputFile *os.File
	var stdinPipe io.WriteCloser
	switch {
	case spec.InputLines != nil:
		pipe, err := cmd.StdinPipe()
		if err != nil {
			return Result{}, &nihtesterr.SystemError{Op: "stdin pipe", Err: err}
		}
		stdinPipe = pipe
	case spec.InputFile != "":
		f, err := os.Open(spec.InputFile)
		if err != nil {
			return Result{}, &nihtesterr.SetupError{Op: "open input file", Err: err}
		}
		inputFile = f
		cmd.Stdin = f
	}

	if err := cmd.Start(); err != nil {
		if inputFile != nil {
			_ = inputFile.Close()
		}
		return Result{}, &nihtesterr.SystemError{Op: "start program", Err: err}
	}
	if inputFile != nil {
		defer inputFile.Close()
	}

	var wg sync.WaitGroup
	if stdinPipe != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer stdinPipe.Close()
			payload := strings.Join(spec.InputLines, "\n")
			if len(spec.InputLines) > 0 {
				payload += "\n"
			}
			_, _ = stdinPipe.Write([]byte(payload))
		}()
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	grace := spec.TerminateGrace
	if grace <= 0 {
		grace = defaultTerminateGrace
	}

	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-ctx.Done():
		_ = terminateProcessGroup(cmd, grace)
		waitErr = <-waitCh
	}
	wg.Wait()

	if stdout.overflowed || stderr.overflowed {
		return Result{}, &nihtesterr.SystemError{
			Op:   "capture output",
			Err:  fmt.Errorf("output exceeded %d bytes", limit),
			Tail: stderr.TailString(),
		}
	}

	status, exitCode, signal, classifyErr := classify(cmd, waitErr)
	if classifyErr != nil {
		return Result{}, &nihtesterr.SystemError{Op: "wait", Err: classifyErr, Tail: stderr.TailString()}
	}

	return Result{
		Status:   status,
		ExitCode: exitCode,
		Signal:   signal,
		Stdout:   stdout.Lines(),
		Stderr:   stderr.Lines(),
	}, nil
}

// capturedStream is a growable, size-bounded io.Writer for primary
// stdout/stderr capture (SPEC_FULL.md §9: growable with an explicit size
// check, not armon/circbuf, because primary capture must be complete or
// loudly fail — never silently drop). A circbuf-backed tail runs alongside
// purely for diagnostics.
type capturedStream struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	limit      int
	tail       *circbuf.Buffer
	overflowed bool
}

func newCapturedStream(limit int) *capturedStream {
	tail, _ := circbuf.NewBuffer(defaultDiagnosticTail)
	return &capturedStream{limit: limit, tail: tail}
}

func (c *capturedStream) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tail != nil {
		_, _ = c.tail.Write(p)
	}
	if c.overflowed {
		return len(p), nil
	}
	if c.buf.Len()+len(p) > c.limit {
		c.overflowed = true
		return len(p), nil
	}
	return c.buf.Write(p)
}

func (c *capturedStream) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return splitLines(c.buf.String())
}

func (c *capturedStream) TailString() string {
	if c.tail == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tail.String()
}

// splitLines implements spec.md §4.5 "Line splitting": split on '\n', drop
// a final fragment that wasn't newline-terminated (matches getline-style
// semantics exactly, since strings.Split always produces one more element
// than there are separators).
func splitLines(s string) []string {
	parts := strings.Split(s, "\n")
	return parts[:len(parts)-1]
}
