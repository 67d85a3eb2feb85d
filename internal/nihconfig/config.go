// Package nihconfig implements the driver Configuration (SPEC_FULL.md §3.6):
// the immutable settings that govern where sandboxes live, which program
// runs by default, how files are compared, and the retention/printing
// policies. A Config is itself loaded through internal/parser against the
// same directive-language grammar as test case files, just a different
// schema.Table.
package nihconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nihtest-go/nihtest/internal/parser"
	"github.com/nihtest-go/nihtest/internal/schema"
)

// Policy is the three-state retention/printing policy shared by
// KeepSandbox and PrintResults (spec.md §3 "each ∈ {NEVER, ON_FAILURE, ALWAYS}").
type Policy int

const (
	PolicyNever Policy = iota
	PolicyOnFailure
	PolicyAlways
)

// ParsePolicy parses the "never|failed|always" vocabulary used by the
// keep-sandbox and print-results directives.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "never":
		return PolicyNever, nil
	case "failed", "on-failure", "on_failure":
		return PolicyOnFailure, nil
	case "always":
		return PolicyAlways, nil
	default:
		return 0, fmt.Errorf("invalid policy %q (want never|failed|always)", s)
	}
}

func (p Policy) String() string {
	switch p {
	case PolicyNever:
		return "never"
	case PolicyOnFailure:
		return "failed"
	case PolicyAlways:
		return "always"
	default:
		return "unknown"
	}
}

// FileComparators maps "<test-ext>.<src-ext>" keys to the comparator argv
// registered for that extension pair (spec.md §4.3). Lookup additionally
// tries doublestar glob matching so a single entry can cover a wildcard
// extension (SPEC_FULL.md §2).
type FileComparators map[string][]string

// Lookup finds the comparator argv for testExt/srcExt, trying an exact key
// match first and falling back to glob-pattern keys (e.g. "*.txt").
func (fc FileComparators) Lookup(testExt, srcExt string) ([]string, bool) {
	key := testExt + "." + srcExt
	if argv, ok := fc[key]; ok {
		return argv, true
	}
	for pattern, argv := range fc {
		if ok, _ := doublestar.Match(pattern, key); ok {
			return argv, true
		}
	}
	return nil, false
}

// Config is the complete driver configuration (spec.md §3 "Configuration").
type Config struct {
	SandboxDirectory  string
	SourceDirectory   string
	TopBuildDirectory string
	DefaultProgram    string
	FileComparators   FileComparators
	KeepSandbox       Policy
	PrintResults      Policy
}

// Default returns the configuration used when no config file is present
// (spec.md §6 "missing file is not an error"): no comparators, sandboxes
// never kept, results printed on failure.
func Default() *Config {
	return &Config{
		FileComparators: FileComparators{},
		KeepSandbox:     PolicyNever,
		PrintResults:    PolicyOnFailure,
	}
}

// Load reads the configuration file at path. A missing file is not an
// error: Default() is returned instead.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	loader := &loader{cfg: cfg}
	var errBuf strings.Builder
	if err := parser.Parse(path, schema.ConfigSchema, loader, &errBuf); err != nil {
		return nil, fmt.Errorf("%w: %s", err, errBuf.String())
	}
	return cfg, nil
}

// ApplyEnv promotes policies per the recognized environment variables
// (spec.md §6 "Environment variables recognized"): VERBOSE promotes
// PrintResults to ALWAYS unless it is NEVER (quiet), and KEEP_BROKEN
// promotes KeepSandbox from NEVER to ON_FAILURE.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if _, ok := lookup("VERBOSE"); ok && c.PrintResults != PolicyNever {
		c.PrintResults = PolicyAlways
	}
	if _, ok := lookup("KEEP_BROKEN"); ok {
		if c.KeepSandbox == PolicyNever {
			c.KeepSandbox = PolicyOnFailure
		}
	}
}

// loader implements parser.Consumer for the configuration schema.
type loader struct {
	cfg *Config
}

func (l *loader) Accept(d *schema.Directive, args []string) error {
	switch d.Name {
	case "default-program":
		l.cfg.DefaultProgram = args[0]
	case "file-compare":
		testExt, srcExt, cmd := args[0], args[1], args[2:]
		key := testExt + "." + srcExt
		l.cfg.FileComparators[key] = cmd
	case "keep-sandbox":
		p, err := ParsePolicy(args[0])
		if err != nil {
			return err
		}
		l.cfg.KeepSandbox = p
	case "print-results":
		p, err := ParsePolicy(args[0])
		if err != nil {
			return err
		}
		l.cfg.PrintResults = p
	case "sandbox-directory":
		l.cfg.SandboxDirectory = args[0]
	case "source-directory":
		l.cfg.SourceDirectory = args[0]
	case "top-build-directory":
		l.cfg.TopBuildDirectory = args[0]
	default:
		return fmt.Errorf("config loader has no handler for directive '%s'", d.Name)
	}
	return nil
}
