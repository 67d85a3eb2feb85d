package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccepts(t *testing.T) {
	d := New("setenv", "var value", 2)
	assert.True(t, d.Accepts(2))
	assert.False(t, d.Accepts(1))
	assert.False(t, d.Accepts(3))
}

func TestAcceptsUnbounded(t *testing.T) {
	d := New("args", "arg ...", 0, MaxArgs(-1))
	assert.True(t, d.Accepts(0))
	assert.True(t, d.Accepts(50))
}

func TestAcceptsRawRestOfLine(t *testing.T) {
	d := New("stdout", "text", -1)
	assert.True(t, d.RawRestOfLine())
	assert.True(t, d.Accepts(0))
	assert.True(t, d.Accepts(1))
}

func TestMaxArgsDefaultsToMinArgs(t *testing.T) {
	d := New("file-new", "name out", 2)
	assert.Equal(t, 2, d.MaxArgs)
}

func TestReturnDirectiveIsRequiredAndOnlyOnce(t *testing.T) {
	d := TestCaseSchema.ByName("return")
	require.NotNil(t, d)
	assert.True(t, d.Required)
	assert.True(t, d.OnlyOnce)
}

func TestFileDirectiveArity(t *testing.T) {
	d := TestCaseSchema.ByName("file")
	require.NotNil(t, d)
	assert.False(t, d.Accepts(1))
	assert.True(t, d.Accepts(2))
	assert.True(t, d.Accepts(3))
	assert.False(t, d.Accepts(4))
}

func TestByNameUnknown(t *testing.T) {
	assert.Nil(t, TestCaseSchema.ByName("no-such-directive"))
}

func TestFileCompareIsNotOnlyOnce(t *testing.T) {
	d := ConfigSchema.ByName("file-compare")
	require.NotNil(t, d)
	assert.False(t, d.OnlyOnce)
	assert.True(t, d.Accepts(3))
	assert.True(t, d.Accepts(5))
}
