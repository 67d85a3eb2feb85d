// Package schema declares the directive-language grammar for both test case
// files and the optional driver configuration file. It is consumed by
// internal/parser, which tokenizes a file against one of the tables defined
// here.
package schema

// Directive describes one recognized line directive: its name, its
// human-readable usage string, how many arguments it takes, and whether the
// parser must see it at most once / at least once before end-of-file.
//
// The constructor takes Required and OnlyOnce as named fields rather than
// positional bools specifically because the historical C++ variants this
// project is grounded on disagree about which positional slot is which —
// see SPEC_FULL.md §3.3 and §8.
type Directive struct {
	Name     string
	Usage    string
	MinArgs  int
	MaxArgs  int
	Required bool
	OnlyOnce bool
}

// RawRestOfLine reports whether this directive takes the remainder of the
// line verbatim as a single argument instead of tokenized, quoted
// arguments (MinArgs == -1).
func (d Directive) RawRestOfLine() bool {
	return d.MinArgs == -1
}

// Accepts reports whether n arguments satisfy this directive's arity rule.
func (d Directive) Accepts(n int) bool {
	if d.RawRestOfLine() {
		return true
	}
	if n < d.MinArgs {
		return false
	}
	max := d.MaxArgs
	if max == 0 {
		max = d.MinArgs
	}
	if max == -1 {
		return true
	}
	return n <= max
}

// New builds a Directive, resolving MaxArgs == 0 to MinArgs per the schema
// entry rule in SPEC_FULL.md §3.3.
func New(name, usage string, minArgs int, opts ...Option) Directive {
	d := Directive{Name: name, Usage: usage, MinArgs: minArgs}
	for _, opt := range opts {
		opt(&d)
	}
	if d.MaxArgs == 0 {
		d.MaxArgs = minArgs
	}
	return d
}

// Option configures optional Directive fields.
type Option func(*Directive)

// Required marks a directive that must appear before end-of-file.
func Required() Option { return func(d *Directive) { d.Required = true } }

// OnlyOnce marks a directive that may appear at most once.
func OnlyOnce() Option { return func(d *Directive) { d.OnlyOnce = true } }

// MaxArgs overrides the default (MinArgs) upper bound; -1 means unbounded.
func MaxArgs(n int) Option { return func(d *Directive) { d.MaxArgs = n } }

// Table is an ordered list of directives recognized by one file format
// (test case or configuration). Lookup is by name.
type Table []Directive

// ByName returns the directive with the given name, or nil.
func (t Table) ByName(name string) *Directive {
	for i := range t {
		if t[i].Name == name {
			return &t[i]
		}
	}
	return nil
}

// TestCaseSchema is the directive table for test case files (SPEC_FULL.md §3.3).
var TestCaseSchema = Table{
	New("args", "arg ...", 0, MaxArgs(-1), OnlyOnce()),
	New("description", "text", -1, OnlyOnce()),
	New("features", "feature ...", 1, MaxArgs(-1), OnlyOnce()),
	New("file", "name in [out]", 2, MaxArgs(3)),
	New("file-del", "name in", 2),
	New("file-new", "name out", 2),
	New("mkdir", "mode name", 2),
	New("precheck", "cmd [args ...]", 1, MaxArgs(-1), OnlyOnce()),
	New("preload", "library", 1, OnlyOnce()),
	New("program", "name", 1, OnlyOnce()),
	New("return", "exit-code", 1, Required(), OnlyOnce()),
	New("setenv", "var value", 2),
	New("stderr", "text", -1),
	New("stderr-replace", "pattern replacement", 2),
	New("stdin", "text", -1),
	New("stdin-file", "file", 1, OnlyOnce()),
	New("stdout", "text", -1),
	New("touch", "mtime file", 2),
	New("ulimit", "limit value", 2),
}

// ConfigSchema is the directive table for the optional driver configuration
// file (SPEC_FULL.md §3.3).
var ConfigSchema = Table{
	New("default-program", "name", 1, OnlyOnce()),
	New("file-compare", "test-ext src-ext cmd [args ...]", 3, MaxArgs(-1)),
	New("keep-sandbox", "never|failed|always", 1, OnlyOnce()),
	New("print-results", "never|failed|always", 1, OnlyOnce()),
	New("sandbox-directory", "dir", 1, OnlyOnce()),
	New("source-directory", "dir", 1, OnlyOnce()),
	New("top-build-directory", "dir", 1, OnlyOnce()),
}
