// Package cmd wires the nihtest-go driver into a urfave/cli/v3 command:
// a single top-level *cli.Command plus a version subcommand.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/nihtest-go/nihtest/internal/features"
	"github.com/nihtest-go/nihtest/internal/nihconfig"
	"github.com/nihtest-go/nihtest/internal/parser"
	"github.com/nihtest-go/nihtest/internal/report"
	"github.com/nihtest-go/nihtest/internal/runner"
	"github.com/nihtest-go/nihtest/internal/schema"
	"github.com/nihtest-go/nihtest/internal/testcase"
	"github.com/nihtest-go/nihtest/internal/variables"
	"github.com/nihtest-go/nihtest/internal/version"
)

// defaultConfigFile is the conventional configuration file name consulted
// when -C/--config is not given. A missing file is not an error (spec.md
// §6 "Configuration file ... missing file is not an error").
const defaultConfigFile = "nihtest.conf"

// NewApp creates the CLI application (spec.md §6 "CLI surface": one test
// case per invocation, no subcommand fan-out except version).
func NewApp() *cli.Command {
	return &cli.Command{
		Name:      "nihtest",
		Usage:     "Run a single regression test case against a program under test",
		Version:   version.Version(),
		ArgsUsage: "[-hqVv] [-C config] [--keep-broken] [--no-cleanup] [--setup-only] [VAR=VALUE ...] testcase",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "don't print test results"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print detailed test results"},
			&cli.StringFlag{Name: "config", Aliases: []string{"C"}, Usage: "path to the driver configuration file"},
			&cli.BoolFlag{Name: "keep-broken", Usage: "keep sandbox if the test fails"},
			&cli.BoolFlag{Name: "no-cleanup", Usage: "always keep the sandbox"},
			&cli.BoolFlag{Name: "setup-only", Usage: "set up the sandbox, but don't run the test"},
		},
		Commands: []*cli.Command{
			versionCommand(),
		},
		Action: runAction,
	}
}

// Execute runs the CLI application.
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()

	var pairs []string
	for len(args) > 0 && strings.Contains(args[0], "=") {
		pairs = append(pairs, args[0])
		args = args[1:]
	}
	if len(args) != 1 {
		return cli.Exit(fmt.Sprintf("Usage: nihtest %s", cmd.ArgsUsage), report.Errored.ExitCode())
	}
	testPath := args[0]

	vars := variables.FromPairs(pairs)

	configPath := cmd.String("config")
	if configPath == "" {
		configPath = defaultConfigFile
	}
	cfg, err := nihconfig.Load(configPath)
	if err != nil {
		return cli.Exit(err.Error(), report.Errored.ExitCode())
	}
	if cmd.Bool("quiet") {
		cfg.PrintResults = nihconfig.PolicyNever
	}
	if cmd.Bool("verbose") {
		cfg.PrintResults = nihconfig.PolicyAlways
	}
	if cmd.Bool("keep-broken") && cfg.KeepSandbox != nihconfig.PolicyAlways {
		cfg.KeepSandbox = nihconfig.PolicyOnFailure
	}
	if cmd.Bool("no-cleanup") {
		cfg.KeepSandbox = nihconfig.PolicyAlways
	}
	cfg.ApplyEnv(nil)

	name := testcase.NameFromPath(testPath)
	builder := testcase.NewBuilder(name, testcase.Options{
		DefaultProgram: cfg.DefaultProgram,
		Variables:      vars,
	})

	var parseErrs strings.Builder
	if err := parser.Parse(testPath, schema.TestCaseSchema, builder, &parseErrs); err != nil {
		msg := err.Error()
		if parseErrs.Len() > 0 {
			msg = parseErrs.String()
		}
		return cli.Exit(msg, report.Errored.ExitCode())
	}
	tc, err := builder.Build()
	if err != nil {
		return cli.Exit(err.Error(), report.Errored.ExitCode())
	}

	var featureTable *features.Table
	if cfg.TopBuildDirectory != "" {
		featureTable = features.New(filepath.Join(cfg.TopBuildDirectory, "config.h"))
	}

	result := runner.Run(ctx, tc, runner.Options{
		Config:    cfg,
		Features:  featureTable,
		Diff:      cmd.Writer,
		Verbose:   cmd.Bool("verbose"),
		SetupOnly: cmd.Bool("setup-only"),
	})

	report.Print(cmd.Writer, result, cfg.PrintResults, false)

	return cli.Exit("", result.ExitCode())
}
