package parser

import (
	"fmt"
	"strings"
)

// tokenize splits s into whitespace-separated arguments, honoring quoted
// tokens and backslash escapes inside them, per spec.md §4.1:
//
//	A token beginning with '"' starts a quoted argument terminated by the
//	next unescaped '"'. Inside a quoted argument the escape sequences
//	\\, \", \b, \f, \n, \r, \t are recognized. An unterminated quote or a
//	dangling backslash is a parse error.
func tokenize(s string) ([]string, error) {
	var args []string
	i := 0
	n := len(s)

	for i < n {
		for i < n && isSpace(s[i]) {
			i++
		}
		if i >= n {
			break
		}

		if s[i] == '"' {
			tok, next, err := tokenizeQuoted(s, i)
			if err != nil {
				return nil, err
			}
			args = append(args, tok)
			i = next
			continue
		}

		start := i
		for i < n && !isSpace(s[i]) {
			i++
		}
		args = append(args, s[start:i])
	}

	return args, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func tokenizeQuoted(s string, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1 // skip opening quote
	n := len(s)

	for i < n {
		c := s[i]
		switch {
		case c == '"':
			return b.String(), i + 1, nil
		case c == '\\':
			if i+1 >= n {
				return "", 0, fmt.Errorf("dangling backslash in quoted argument")
			}
			esc, ok := unescape(s[i+1])
			if !ok {
				return "", 0, fmt.Errorf("unknown escape sequence '\\%c'", s[i+1])
			}
			b.WriteByte(esc)
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}

	return "", 0, fmt.Errorf("unterminated quoted argument")
}

func unescape(c byte) (byte, bool) {
	switch c {
	case '\\':
		return '\\', true
	case '"':
		return '"', true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	default:
		return 0, false
	}
}
