// Package testcase implements the Test case data model (SPEC_FULL.md §3.5)
// and a Builder that consumes parser.Parse callbacks to construct one.
package testcase

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nihtest-go/nihtest/internal/nihtesterr"
	"github.com/nihtest-go/nihtest/internal/schema"
	"github.com/nihtest-go/nihtest/internal/variables"
)

// Rewrite is one (pattern, replacement) pair applied line-wise to observed
// error output before comparison (spec.md §3 "error_output_rewrites").
type Rewrite struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Apply rewrites line if Pattern matches, following regexp.ReplaceAllString
// semantics.
func (r Rewrite) Apply(line string) string {
	return r.Pattern.ReplaceAllString(line, r.Replacement)
}

// FileSpec describes one declared file interaction (spec.md §3 "files").
type FileSpec struct {
	Name   string
	Input  string
	Output string
}

// Kind classifies a FileSpec per spec.md §3:
//
//	Input empty & Output non-empty  -> file created fresh by the program
//	Input non-empty & Output empty  -> file must be absent after the run
//	both non-empty                  -> staged before, compared after
type Kind int

const (
	// KindNew: file is created fresh by the program under test.
	KindNew Kind = iota
	// KindDeleted: file is staged but must be absent after the run.
	KindDeleted
	// KindCompared: file is staged and compared against Output afterward.
	KindCompared
)

// Kind classifies this FileSpec.
func (f FileSpec) Kind() Kind {
	switch {
	case f.Input == "" && f.Output != "":
		return KindNew
	case f.Input != "" && f.Output == "":
		return KindDeleted
	default:
		return KindCompared
	}
}

// Test is the fully-parsed, in-memory representation of one test case
// (spec.md §3 "Test case").
type Test struct {
	Name                string
	Program             string
	Arguments           []string
	Environment         variables.Variables
	StandardEnvironment variables.Variables
	Input               []string
	InputFile           string
	PreloadLibrary      string
	Limits              map[byte]int64
	RequiredFeatures    []string
	PrecheckCommand     []string
	ExpectedExit        string
	ExpectedOutput      []string
	ExpectedErrorOutput []string
	ErrorOutputRewrites []Rewrite
	Files               []FileSpec
	Directories         []string
	TouchFiles          []string
}

// HasUnimplementedDirectives reports whether this test declared any of the
// directives the original driver accepts syntactically but never
// implements (mkdir, touch, ulimit, directories) — spec.md §9 Open
// Questions: "the source throws 'not implemented'". Preserved here as a
// setup-time check rather than a parse-time rejection, matching the
// original's behavior of accepting the directive and failing at run time.
func (t *Test) HasUnimplementedDirectives() bool {
	return len(t.Directories) > 0 || len(t.TouchFiles) > 0 || len(t.Limits) > 0
}

// Options carries values the builder needs from configuration but that do
// not come from the test file itself: the default program, and the
// VAR=VALUE overlay used to expand $VAR/${VAR} references in directive
// arguments (SPEC_FULL.md §5 "Variable substitution in directive arguments").
type Options struct {
	DefaultProgram string
	Variables      variables.Variables
}

// expand resolves $VAR/${VAR} references in s against the builder's
// variable overlay, exactly at the call sites the original does: args,
// setenv, program, and precheck.
func (b *Builder) expand(s string) string {
	return variables.Expand(s, b.opts.Variables)
}

// Builder implements parser.Consumer, accumulating directive callbacks into
// a Test. Call Build after a successful parser.Parse to obtain the result.
type Builder struct {
	name string
	opts Options
	t    Test

	haveProgram   bool
	haveInput     bool
	haveInputFile bool
}

// NewBuilder creates a Builder for a test named name (the test file's base
// name without extension, per spec.md §3 "name: short identifier derived
// from the test file's base name").
func NewBuilder(name string, opts Options) *Builder {
	return &Builder{
		name: name,
		opts: opts,
		t: Test{
			Name:                name,
			Environment:         variables.New(),
			StandardEnvironment: variables.New(),
			Limits:              map[byte]int64{},
		},
	}
}

// Accept implements parser.Consumer.
func (b *Builder) Accept(d *schema.Directive, args []string) error {
	switch d.Name {
	case "args":
		expanded := make([]string, len(args))
		for i, a := range args {
			expanded[i] = b.expand(a)
		}
		b.t.Arguments = expanded
	case "description":
		// Free text, informational only; nothing to record structurally.
	case "features":
		b.t.RequiredFeatures = append(b.t.RequiredFeatures, args...)
	case "file":
		name, in, out := args[0], args[1], ""
		if len(args) == 3 {
			out = args[2]
		}
		b.t.Files = append(b.t.Files, FileSpec{Name: name, Input: in, Output: out})
	case "file-del":
		b.t.Files = append(b.t.Files, FileSpec{Name: args[0], Input: args[1]})
	case "file-new":
		b.t.Files = append(b.t.Files, FileSpec{Name: args[0], Output: args[1]})
	case "mkdir":
		b.t.Directories = append(b.t.Directories, args[1])
	case "precheck":
		expanded := make([]string, len(args))
		for i, a := range args {
			expanded[i] = b.expand(a)
		}
		b.t.PrecheckCommand = expanded
	case "preload":
		b.t.PreloadLibrary = args[0]
	case "program":
		b.t.Program = b.expand(args[0])
		b.haveProgram = true
	case "return":
		b.t.ExpectedExit = args[0]
	case "setenv":
		b.t.Environment.Set(args[0], b.expand(args[1]))
	case "stderr":
		b.t.ExpectedErrorOutput = append(b.t.ExpectedErrorOutput, args[0])
	case "stderr-replace":
		re, err := regexp.Compile(args[0])
		if err != nil {
			return fmt.Errorf("invalid stderr-replace pattern %q: %w", args[0], err)
		}
		b.t.ErrorOutputRewrites = append(b.t.ErrorOutputRewrites, Rewrite{Pattern: re, Replacement: args[1]})
	case "stdin":
		if b.haveInputFile {
			return fmt.Errorf("'stdin' conflicts with previously declared 'stdin-file'")
		}
		b.haveInput = true
		b.t.Input = append(b.t.Input, args[0])
	case "stdin-file":
		if b.haveInput {
			return fmt.Errorf("'stdin-file' conflicts with previously declared 'stdin'")
		}
		b.haveInputFile = true
		b.t.InputFile = args[0]
	case "stdout":
		b.t.ExpectedOutput = append(b.t.ExpectedOutput, args[0])
	case "touch":
		b.t.TouchFiles = append(b.t.TouchFiles, args[1])
	case "ulimit":
		code := args[0]
		if len(code) != 1 {
			return fmt.Errorf("ulimit code must be a single letter, got %q", code)
		}
		n, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ulimit value %q: %w", args[1], err)
		}
		b.t.Limits[code[0]] = n
	default:
		return fmt.Errorf("builder has no handler for directive '%s'", d.Name)
	}
	return nil
}

// Build finalizes the Test: applies the default program, sorts Files by
// Name for deterministic comparison (spec.md §3 invariant), pre-applies
// the declared error_output_rewrites to the expected error output (spec.md
// §4.4 "Construction": "so literal expectations and observed rewrites are
// compared after the same transformations"), and only then prepends the
// automatic stderr rewrite — which the runner applies to *observed* stderr
// at comparison time (§4.4 step 6), not to the expectations built here.
func (b *Builder) Build() (*Test, error) {
	if !b.haveProgram {
		if b.opts.DefaultProgram == "" {
			return nil, &nihtesterr.SetupError{Op: "build test " + b.name, Err: fmt.Errorf("no program declared and no default-program configured")}
		}
		b.t.Program = b.opts.DefaultProgram
	}

	sort.Slice(b.t.Files, func(i, j int) bool { return b.t.Files[i].Name < b.t.Files[j].Name })

	b.t.ExpectedErrorOutput = RewriteErrorLines(b.t.ExpectedErrorOutput, b.t.ErrorOutputRewrites)

	base := filepath.Base(b.t.Program)
	autoRewrite := Rewrite{
		Pattern:     regexp.MustCompile(`^[^: ]*` + regexp.QuoteMeta(base) + `: `),
		Replacement: "",
	}
	b.t.ErrorOutputRewrites = append([]Rewrite{autoRewrite}, b.t.ErrorOutputRewrites...)

	return &b.t, nil
}

// RewriteErrorLines applies every rewrite in order to each line, returning
// a new slice (spec.md §4.4 "rewrite observed stderr lines"; §8 idempotence
// property assumes non-self-matching patterns).
func RewriteErrorLines(lines []string, rewrites []Rewrite) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		for _, rw := range rewrites {
			line = rw.Apply(line)
		}
		out[i] = line
	}
	return out
}

// NameFromPath derives a test's Name from its file path: the base name with
// its extension stripped (spec.md §3 "name: short identifier derived from
// the test file's base name").
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
