package jinjac

import "fmt"

// SyntaxError is returned by the Lexer and Parser for any malformed input.
// Its message format, "(<line>:<column>) <msg>", prefixes every parse
// error with its source position.
type SyntaxError struct {
	Start Position
	End   Position
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("(%d:%d) %s", e.Start.Line, e.Start.Column, e.Msg)
}

// newSyntaxError builds a SyntaxError from a token's span, mirroring
// juju/errors' Errorf pattern used elsewhere in this package for
// non-syntax failures (I/O, internal invariants).
func newSyntaxError(span Span, format string, args ...any) *SyntaxError {
	return &SyntaxError{Start: span.Start, End: span.End, Msg: fmt.Sprintf(format, args...)}
}
