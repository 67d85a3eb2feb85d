// Package parser implements the line-oriented directive language described
// in SPEC_FULL.md §3.4 / spec.md §4.1: it tokenizes a file against a
// schema.Table and feeds each valid line to a Consumer, accumulating parse
// errors and enforcing required/only_once directive rules at end-of-file.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nihtest-go/nihtest/internal/nihtesterr"
	"github.com/nihtest-go/nihtest/internal/schema"
)

// Consumer receives one callback per valid directive line. It is the
// "polymorphic over a single method" capability spec.md §9 calls for; both
// the test-case builder and the configuration loader implement it.
type Consumer interface {
	Accept(d *schema.Directive, args []string) error
}

// Parse reads file, tokenizes each non-comment line against table, and
// calls consumer.Accept for every valid directive. Errors are collected (not
// returned early) so that a file with several mistakes reports all of them
// in one pass; errOut receives one "file:line: message" line per erroneous
// line (spec.md §4.1 "line number + message printed to stderr") and one
// "file: message" line per missing required directive. After the full
// pass, a non-nil error is returned iff at least one line errored or a
// required directive was never seen.
func Parse(path string, table schema.Table, consumer Consumer, errOut io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return &nihtesterr.SetupError{Op: "open test file", Err: err}
	}
	defer f.Close()

	return ParseReader(path, f, table, consumer, errOut)
}

// splitDirectiveName splits a line into its directive name (the first
// whitespace-separated token) and the remainder of the line after the first
// whitespace character (any further whitespace stays in rest). hasRest is false when the line contains no whitespace
// at all (a bare directive name with no arguments).
func splitDirectiveName(line string) (name, rest string, hasRest bool) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, "", false
	}
	return line[:i], line[i+1:], true
}

// ParseReader is the core of Parse, taking an io.Reader directly so tests
// can feed it something other than a file on disk (path is used only for
// error messages).
func ParseReader(path string, r io.Reader, table schema.Table, consumer Consumer, errOut io.Writer) error {
	seenOnce := make(map[string]bool)
	seenRequired := make(map[string]bool)

	var errs []error
	report := func(line int, err error) {
		pe := &nihtesterr.ParseError{File: path, Line: line, Err: err}
		errs = append(errs, pe)
		if errOut != nil {
			fmt.Fprintln(errOut, pe.Error())
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}

		name, rest, hasRest := splitDirectiveName(line)

		d := table.ByName(name)
		if d == nil {
			report(lineNo, fmt.Errorf("unknown directive %q", name))
			continue
		}

		var args []string
		if d.RawRestOfLine() {
			raw := rest
			if !hasRest {
				raw = ""
			}
			args = []string{raw}
		} else {
			toks, err := tokenize(rest)
			if err != nil {
				report(lineNo, fmt.Errorf("directive '%s': %w", d.Name, err))
				continue
			}
			args = toks
		}

		if !d.Accepts(len(args)) {
			report(lineNo, fmt.Errorf("directive '%s' takes %s", d.Name, d.Usage))
			continue
		}

		if d.OnlyOnce {
			if seenOnce[d.Name] {
				report(lineNo, fmt.Errorf("directive '%s' may only appear once", d.Name))
				continue
			}
			seenOnce[d.Name] = true
		}
		if d.Required {
			seenRequired[d.Name] = true
		}

		if err := consumer.Accept(d, args); err != nil {
			report(lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return &nihtesterr.SetupError{Op: "read test file", Err: err}
	}

	for _, d := range table {
		if d.Required && !seenRequired[d.Name] {
			errs = append(errs, &nihtesterr.ParseError{
				File: path,
				Line: lineNo,
				Err:  fmt.Errorf("missing required directive '%s'", d.Name),
			})
			if errOut != nil {
				fmt.Fprintf(errOut, "%s: missing required directive '%s'\n", path, d.Name)
			}
		}
	}

	if len(errs) > 0 {
		return &nihtesterr.SetupError{
			Op:  "parse " + path,
			Err: fmt.Errorf("%d error(s)", len(errs)),
		}
	}
	return nil
}
