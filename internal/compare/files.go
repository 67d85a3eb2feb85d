package compare

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// ExpectedFile is one entry of the test case's declared file set that
// participates in file comparison: spec.md §4.3 "only entries with
// non-empty output participate". Name is the file as produced in the
// sandbox; Output is the name of the reference file shipped alongside the
// test case.
type ExpectedFile struct {
	Name   string
	Output string
}

// ComparatorLookup resolves the argv registered for a (name-extension,
// output-extension) pair; it is satisfied by nihconfig.FileComparators.Lookup.
type ComparatorLookup func(nameExt, outputExt string) ([]string, bool)

// CommandRunner invokes an external comparator command and reports its
// exit code. internal/runner provides the production implementation on top
// of internal/subprocess; tests supply a fake.
type CommandRunner interface {
	Run(argv []string) (exitCode int, err error)
}

// CompareFiles implements spec.md §4.3: a merge walk over the sorted
// expected and observed file names, invoking the comparator registered for
// each matched pair's extensions, and reporting missing/extra files.
// Returns true iff no discrepancies were recorded.
func CompareFiles(w io.Writer, expected []ExpectedFile, observed []string, lookup ComparatorLookup, runner CommandRunner, verbose bool) bool {
	participants := make([]ExpectedFile, 0, len(expected))
	for _, f := range expected {
		if f.Output != "" {
			participants = append(participants, f)
		}
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i].Name < participants[j].Name })

	observedSorted := append([]string(nil), observed...)
	sort.Strings(observedSorted)

	ok := true
	printedHeader := false
	header := func() {
		if !verbose || printedHeader {
			return
		}
		fmt.Fprintln(w, "Unexpected files:")
		printedHeader = true
	}

	i, j := 0, 0
	for i < len(participants) && j < len(observedSorted) {
		exp := participants[i]
		obs := observedSorted[j]
		switch {
		case exp.Name == obs:
			if !compareOne(exp, lookup, runner) {
				ok = false
				header()
				fmt.Fprintf(w, "!%s\n", exp.Name)
			}
			i++
			j++
		case exp.Name < obs:
			ok = false
			header()
			fmt.Fprintf(w, "-%s\n", exp.Name)
			i++
		default:
			ok = false
			header()
			fmt.Fprintf(w, "+%s\n", obs)
			j++
		}
	}
	for ; i < len(participants); i++ {
		ok = false
		header()
		fmt.Fprintf(w, "-%s\n", participants[i].Name)
	}
	for ; j < len(observedSorted); j++ {
		ok = false
		header()
		fmt.Fprintf(w, "+%s\n", observedSorted[j])
	}
	return ok
}

// compareOne invokes the registered comparator for exp's extension pair.
// An unregistered pair is skipped (reported as equal) per spec.md §4.3.
func compareOne(exp ExpectedFile, lookup ComparatorLookup, runner CommandRunner) bool {
	argv, ok := lookup(ext(exp.Name), ext(exp.Output))
	if !ok {
		return true
	}
	full := append(append([]string(nil), argv...), exp.Name, exp.Output)
	code, err := runner.Run(full)
	if err != nil {
		return false
	}
	return code == 0
}

func ext(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}
