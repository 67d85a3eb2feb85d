package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihtest-go/nihtest/internal/schema"
)

type recordingConsumer struct {
	calls [][]string
	names []string
}

func (r *recordingConsumer) Accept(d *schema.Directive, args []string) error {
	r.names = append(r.names, d.Name)
	r.calls = append(r.calls, append([]string(nil), args...))
	return nil
}

func TestTokenizeBasic(t *testing.T) {
	toks, err := tokenize(`hello world`)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, toks)
}

func TestTokenizeQuotedWithEscapes(t *testing.T) {
	toks, err := tokenize(`"hello\nworld" plain "a\"b"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello\nworld", "plain", `a"b`}, toks)
}

func TestTokenizeUnterminatedQuote(t *testing.T) {
	_, err := tokenize(`"unterminated`)
	assert.Error(t, err)
}

func TestTokenizeDanglingBackslash(t *testing.T) {
	_, err := tokenize(`"bad\`)
	assert.Error(t, err)
}

func TestParseReaderAcceptsValidDirectives(t *testing.T) {
	var c recordingConsumer
	var errBuf strings.Builder
	input := "# a comment\nprogram ./echo\nargs hello world\nreturn 0\n"
	err := ParseReader("t.test", strings.NewReader(input), schema.TestCaseSchema, &c, &errBuf)
	require.NoError(t, err)
	assert.Equal(t, []string{"program", "args", "return"}, c.names)
	assert.Equal(t, []string{"hello", "world"}, c.calls[1])
}

func TestParseReaderMissingRequiredDirective(t *testing.T) {
	var c recordingConsumer
	var errBuf strings.Builder
	err := ParseReader("t.test", strings.NewReader("program ./echo\n"), schema.TestCaseSchema, &c, &errBuf)
	require.Error(t, err)
	assert.Contains(t, errBuf.String(), "missing required directive 'return'")
}

func TestParseReaderArityErrorMentionsDirectiveName(t *testing.T) {
	var c recordingConsumer
	var errBuf strings.Builder
	err := ParseReader("t.test", strings.NewReader("return\n"), schema.TestCaseSchema, &c, &errBuf)
	require.Error(t, err)
	assert.Contains(t, errBuf.String(), "1:")
	assert.Contains(t, errBuf.String(), "directive 'return'")
}

func TestParseReaderUnknownDirective(t *testing.T) {
	var c recordingConsumer
	var errBuf strings.Builder
	err := ParseReader("t.test", strings.NewReader("frobnicate 1 2\nreturn 0\n"), schema.TestCaseSchema, &c, &errBuf)
	require.Error(t, err)
	assert.Contains(t, errBuf.String(), `unknown directive "frobnicate"`)
}

func TestParseReaderOnlyOnceViolation(t *testing.T) {
	var c recordingConsumer
	var errBuf strings.Builder
	input := "program ./echo\nprogram ./other\nreturn 0\n"
	err := ParseReader("t.test", strings.NewReader(input), schema.TestCaseSchema, &c, &errBuf)
	require.Error(t, err)
	assert.Contains(t, errBuf.String(), "may only appear once")
}

func TestParseReaderRawRestOfLine(t *testing.T) {
	var c recordingConsumer
	var errBuf strings.Builder
	input := "stderr some raw \"text\" with $vars\nreturn 0\n"
	err := ParseReader("t.test", strings.NewReader(input), schema.TestCaseSchema, &c, &errBuf)
	require.NoError(t, err)
	assert.Equal(t, []string{`some raw "text" with $vars`}, c.calls[0])
}

func TestParseReaderAllowsFileCompareMultipleTimes(t *testing.T) {
	var c recordingConsumer
	var errBuf strings.Builder
	input := "file-compare txt txt diff -u\nfile-compare bin bin cmp\n"
	err := ParseReader("nihtest.conf", strings.NewReader(input), schema.ConfigSchema, &c, &errBuf)
	require.NoError(t, err)
	assert.Len(t, c.calls, 2)
}
