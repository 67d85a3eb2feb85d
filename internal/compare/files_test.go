package compare

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	results map[string]int
	calls   [][]string
}

func (f *fakeRunner) Run(argv []string) (int, error) {
	f.calls = append(f.calls, argv)
	key := strings.Join(argv, " ")
	if code, ok := f.results[key]; ok {
		return code, nil
	}
	return 0, nil
}

func alwaysRegistered(cmd []string) ComparatorLookup {
	return func(string, string) ([]string, bool) { return cmd, true }
}

func noneRegistered(string, string) ([]string, bool) { return nil, false }

func TestCompareFilesAllMatchAndEqual(t *testing.T) {
	var buf strings.Builder
	runner := &fakeRunner{}
	expected := []ExpectedFile{{Name: "out.txt", Output: "out.txt.expected"}}
	ok := CompareFiles(&buf, expected, []string{"out.txt"}, alwaysRegistered([]string{"cmp"}), runner, true)
	assert.True(t, ok)
	assert.Empty(t, buf.String())
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"cmp", "out.txt", "out.txt.expected"}, runner.calls[0])
}

func TestCompareFilesSkipsEntriesWithoutOutput(t *testing.T) {
	var buf strings.Builder
	runner := &fakeRunner{}
	expected := []ExpectedFile{{Name: "scratch.txt"}}
	ok := CompareFiles(&buf, expected, nil, alwaysRegistered([]string{"cmp"}), runner, true)
	assert.True(t, ok)
	assert.Empty(t, runner.calls)
}

func TestCompareFilesMissingAndExtra(t *testing.T) {
	var buf strings.Builder
	runner := &fakeRunner{}
	expected := []ExpectedFile{{Name: "a.txt", Output: "a.txt.expected"}}
	ok := CompareFiles(&buf, expected, []string{"b.txt"}, alwaysRegistered([]string{"cmp"}), runner, true)
	assert.False(t, ok)
	assert.Equal(t, "Unexpected files:\n-a.txt\n+b.txt\n", buf.String())
}

func TestCompareFilesContentDiffers(t *testing.T) {
	var buf strings.Builder
	runner := &fakeRunner{results: map[string]int{"cmp a.txt a.txt.expected": 1}}
	expected := []ExpectedFile{{Name: "a.txt", Output: "a.txt.expected"}}
	ok := CompareFiles(&buf, expected, []string{"a.txt"}, alwaysRegistered([]string{"cmp"}), runner, true)
	assert.False(t, ok)
	assert.Equal(t, "Unexpected files:\n!a.txt\n", buf.String())
}

func TestCompareFilesUnregisteredExtensionIsSkipped(t *testing.T) {
	var buf strings.Builder
	runner := &fakeRunner{}
	expected := []ExpectedFile{{Name: "a.bin", Output: "a.bin.expected"}}
	ok := CompareFiles(&buf, expected, []string{"a.bin"}, noneRegistered, runner, true)
	assert.True(t, ok)
	assert.Empty(t, runner.calls)
}

func TestCompareFilesQuietSuppressesOutput(t *testing.T) {
	var buf strings.Builder
	runner := &fakeRunner{}
	expected := []ExpectedFile{{Name: "a.txt", Output: "a.txt.expected"}}
	ok := CompareFiles(&buf, expected, nil, alwaysRegistered([]string{"cmp"}), runner, false)
	assert.False(t, ok)
	assert.Empty(t, buf.String())
}
