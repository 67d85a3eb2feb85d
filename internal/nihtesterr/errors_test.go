package nihtesterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseErrorFormatting(t *testing.T) {
	err := &ParseError{File: "t.test", Line: 4, Err: errors.New("unknown directive 'frob'")}
	assert.Equal(t, "t.test:4: unknown directive 'frob'", err.Error())
	assert.ErrorIs(t, err, err.Err)
}

func TestSystemErrorIncludesTail(t *testing.T) {
	err := &SystemError{Op: "acp run", Err: errors.New("boom"), Tail: "last lines of output\n"}
	assert.Contains(t, err.Error(), "acp run: boom")
	assert.Contains(t, err.Error(), "output (tail): last lines of output")
}

func TestSystemErrorWithoutTail(t *testing.T) {
	err := &SystemError{Op: "poll", Err: errors.New("epipe")}
	assert.Equal(t, "poll: epipe", err.Error())
}

func TestMismatchErrorNeverWraps(t *testing.T) {
	err := &Mismatch{Facet: "exit status"}
	assert.Equal(t, "mismatch: exit status", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestSetupErrorUnwrap(t *testing.T) {
	cause := errors.New("no such file")
	err := &SetupError{Op: "stage file", Err: cause}
	assert.Same(t, cause, errors.Unwrap(err))
}
