// Package runner implements the test runner of spec.md §4.4: construction
// from a parsed testcase.Test, the seven-step execution sequence (skip
// checks, sandbox enter/stage/spawn/capture/compare/leave), and the
// PASSED/FAILED/SKIPPED/ERROR classification reported through
// internal/report.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nihtest-go/nihtest/internal/compare"
	"github.com/nihtest-go/nihtest/internal/features"
	"github.com/nihtest-go/nihtest/internal/nihconfig"
	"github.com/nihtest-go/nihtest/internal/nihtesterr"
	"github.com/nihtest-go/nihtest/internal/osfacade"
	"github.com/nihtest-go/nihtest/internal/report"
	"github.com/nihtest-go/nihtest/internal/sandbox"
	"github.com/nihtest-go/nihtest/internal/subprocess"
	"github.com/nihtest-go/nihtest/internal/testcase"
	"github.com/nihtest-go/nihtest/internal/variables"
)

// Options carries everything Run needs beyond the Test itself: the
// resolved configuration, the feature table it should consult, and the
// output sink used for verbose diffs.
type Options struct {
	Config   *nihconfig.Config
	Features *features.Table
	OS       osfacade.OS
	Diff     io.Writer
	Verbose  bool

	// SetupOnly implements the supplemented "--setup-only" CLI flag
	// (SPEC_FULL.md §5): short-circuit right after staging input files
	// and force sandbox retention, without ever spawning the program.
	SetupOnly bool
}

// commandRunner adapts subprocess.Run to compare.CommandRunner for the
// external file-comparator commands invoked during file comparison.
type commandRunner struct {
	osi osfacade.OS
}

func (r commandRunner) Run(argv []string) (int, error) {
	res, err := subprocess.Run(context.Background(), r.osi, subprocess.Spec{
		Program: argv[0],
		Argv:    argv[1:],
		Env:     os.Environ(),
	})
	if err != nil {
		return -1, err
	}
	if res.Signal != "" {
		return -1, fmt.Errorf("comparator %s: killed by %s", argv[0], res.Signal)
	}
	return res.ExitCode, nil
}

// Run executes one test case end to end and returns its classified result
// (spec.md §4.4 "Results").
func Run(ctx context.Context, tc *testcase.Test, opts Options) report.Result {
	osi := opts.OS
	if osi == nil {
		osi = osfacade.Default
	}

	if tc.HasUnimplementedDirectives() {
		return errored(tc.Name, "mkdir/touch/ulimit are declared but not implemented")
	}

	// Step 1: skip checks.
	if tc.PreloadLibrary != "" && !osi.PreloadSupported() {
		return skip(tc.Name, fmt.Sprintf("preload not supported on %s", osi.Name()))
	}
	for _, feat := range tc.RequiredFeatures {
		if opts.Features != nil && !opts.Features.Has(feat) {
			return skip(tc.Name, fmt.Sprintf("missing feature %s", feat))
		}
	}
	if len(tc.PrecheckCommand) > 0 {
		res, err := subprocess.Run(ctx, osi, subprocess.Spec{
			Program:    tc.PrecheckCommand[0],
			Argv:       tc.PrecheckCommand[1:],
			Env:        composeEnvironment(tc),
			SearchPath: searchPath(osi, opts.Config),
		})
		if err != nil {
			return skip(tc.Name, "precheck could not run: "+err.Error())
		}
		if res.ExitCode != 0 {
			return skip(tc.Name, "precheck failed")
		}
	}

	// Step 2: enter sandbox.
	sb, err := sandbox.Enter(osi, opts.Config.SandboxDirectory, tc.Name, opts.Config.SourceDirectory)
	if err != nil {
		return errored(tc.Name, err.Error())
	}

	failed, err := execute(ctx, osi, sb, tc, opts)

	// Step 7: leave sandbox. keep_sandbox governs retention; an error
	// while running always forces retention when any retention at all
	// is configured, matching spec.md §4.4 step 7's "or any thrown error
	// with retention requested".
	retain := toRetention(opts.Config.KeepSandbox)
	if err != nil && retain != sandbox.RetentionNever {
		retain = sandbox.RetentionAlways
	}
	if opts.SetupOnly {
		retain = sandbox.RetentionAlways
	}
	if leaveErr := sb.Leave(retain, err != nil || len(failed) > 0); leaveErr != nil && err == nil {
		err = leaveErr
	}

	if err != nil {
		return errored(tc.Name, err.Error())
	}
	if len(failed) > 0 {
		return report.Result{Name: tc.Name, Outcome: report.Failed, Reasons: failed}
	}
	return report.Result{Name: tc.Name, Outcome: report.Passed}
}

// execute runs steps 3-6 inside the entered sandbox, returning the list of
// failed facets (empty on full success).
func execute(ctx context.Context, osi osfacade.OS, sb *sandbox.Sandbox, tc *testcase.Test, opts Options) ([]string, error) {
	// Step 3: stage input files.
	for _, f := range tc.Files {
		if f.Input == "" {
			continue
		}
		if err := sb.Stage(f.Name, f.Input); err != nil {
			return nil, err
		}
	}

	if opts.SetupOnly {
		return nil, nil
	}

	// Step 4: spawn program.
	spec := subprocess.Spec{
		Program:        tc.Program,
		Argv:           tc.Arguments,
		Env:            composeEnvironment(tc),
		PreloadLibrary: tc.PreloadLibrary,
		SearchPath:     searchPath(osi, opts.Config),
	}
	if tc.InputFile != "" {
		resolved, err := sb.Find(tc.InputFile)
		if err != nil {
			return nil, err
		}
		spec.InputFile = resolved
	} else {
		spec.InputLines = tc.Input
	}
	// Step 5: capture.
	res, err := subprocess.Run(ctx, osi, spec)
	if err != nil {
		return nil, err
	}

	// Step 6: compare.
	var failed []string

	if tc.ExpectedExit != "" && tc.ExpectedExit != res.Status {
		failed = append(failed, "exit status")
	}

	rewrittenStderr := testcase.RewriteErrorLines(res.Stderr, tc.ErrorOutputRewrites)

	if !compare.CompareArrays(opts.Diff, "output", tc.ExpectedOutput, res.Stdout, opts.Verbose) {
		failed = append(failed, "output")
	}
	if !compare.CompareArrays(opts.Diff, "error output", tc.ExpectedErrorOutput, rewrittenStderr, opts.Verbose) {
		failed = append(failed, "error output")
	}

	entries, err := osi.ListDir(".")
	if err != nil {
		return nil, &nihtesterr.SystemError{Op: "list sandbox", Err: err}
	}

	// Files declared input-only (file-del) carry their own presence check
	// (spec.md line 232: "the file must be absent in the sandbox after the
	// run") rather than participating in the CompareFiles merge walk,
	// which only ever considers entries with a non-empty output.
	deleted := map[string]bool{}
	expectedFiles := make([]compare.ExpectedFile, 0, len(tc.Files))
	for _, f := range tc.Files {
		if f.Kind() == testcase.KindDeleted {
			deleted[f.Name] = true
			continue
		}
		output := f.Output
		if output != "" {
			if resolved, err := sb.Find(output); err == nil {
				output = resolved
			}
		}
		expectedFiles = append(expectedFiles, compare.ExpectedFile{Name: f.Name, Output: output})
	}

	observed := make([]string, 0, len(entries))
	filesMismatch := false
	for _, name := range entries {
		if deleted[name] {
			filesMismatch = true
			continue
		}
		observed = append(observed, name)
	}

	if !compare.CompareFiles(opts.Diff, expectedFiles, observed, opts.Config.FileComparators.Lookup, commandRunner{osi: osi}, opts.Verbose) {
		filesMismatch = true
	}
	if filesMismatch {
		failed = append(failed, "files")
	}

	return failed, nil
}

// composeEnvironment layers the per-test environment over
// standard_environment (spec.md §4.4 step 4), then overlays the result on
// top of the driver's own inherited environment: the child process must
// still see PATH/HOME/locale/dynamic-linker variables, with the composed
// test variables taking precedence over any same-named inherited one.
func composeEnvironment(tc *testcase.Test) []string {
	composed := variables.Merge(tc.StandardEnvironment, tc.Environment)
	return append(os.Environ(), composed.ToEnviron()...)
}

// searchPath implements spec.md §4.4 step 4's program search path: the
// build tree (".."), followed by "<source_directory>/..".
func searchPath(osi osfacade.OS, cfg *nihconfig.Config) []string {
	path := []string{".."}
	if cfg.SourceDirectory != "" {
		path = append(path, osi.Join(cfg.SourceDirectory, ".."))
	}
	return path
}

func toRetention(p nihconfig.Policy) sandbox.RetentionPolicy {
	switch p {
	case nihconfig.PolicyAlways:
		return sandbox.RetentionAlways
	case nihconfig.PolicyOnFailure:
		return sandbox.RetentionOnFailure
	default:
		return sandbox.RetentionNever
	}
}

func skip(name, reason string) report.Result {
	return report.Result{Name: name, Outcome: report.Skipped, Reasons: []string{reason}}
}

func errored(name, reason string) report.Result {
	return report.Result{Name: name, Outcome: report.Errored, Reasons: []string{reason}}
}
