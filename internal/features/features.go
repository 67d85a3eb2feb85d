// Package features implements spec.md §4.7: lazily harvesting the set of
// supported build-time capabilities from a generated config.h.
package features

import (
	"bufio"
	"os"
	"regexp"
	"sync"
)

var definePattern = regexp.MustCompile(`^#define HAVE_([_A-Za-z0-9]+)$`)

// Table reports which named features a build declares support for, via
// lines matching "#define HAVE_<NAME>" in <top_build_directory>/config.h.
// The table is read once, on first query.
type Table struct {
	path string

	once sync.Once
	set  map[string]bool
	err  error
}

// New returns a Table that will scan configHPath on first use.
func New(configHPath string) *Table {
	return &Table{path: configHPath}
}

// Has reports whether name was declared supported. A missing or unreadable
// config.h is treated as "no features declared" rather than an error,
// since most test cases never query features.
func (t *Table) Has(name string) bool {
	t.once.Do(t.load)
	return t.set[name]
}

func (t *Table) load() {
	t.set = map[string]bool{}
	f, err := os.Open(t.path)
	if err != nil {
		t.err = err
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := definePattern.FindStringSubmatch(scanner.Text())
		if m != nil {
			t.set[m[1]] = true
		}
	}
	t.err = scanner.Err()
}
