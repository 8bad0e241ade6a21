// Package diag implements tremor's hygienic error model: a typed [Error]
// carrying a source [types.Span], and a [Reporter] that renders it as a
// multi-line, caret-underlined diagnostic block (spec §4.H, §7).
package diag

import (
	"fmt"

	"github.com/tremor-rs/tremor/pkg/types"
)

// Kind is the closed set of error kinds from spec §7. Every runtime kind is
// recoverable at the pipeline boundary (routed to the operator's err port);
// Parse and Compile reject the pipeline at creation time.
type Kind string

const (
	Parse     Kind = "Parse"
	Compile   Kind = "Compile"
	Type      Kind = "Type"
	BadAccess Kind = "BadAccess"
	Arith     Kind = "Arith"
	Recursion Kind = "Recursion"
	Window    Kind = "Window"
	Resource  Kind = "Resource"
	Internal  Kind = "Internal"
)

// Error is the structured diagnostic every fallible operation in this
// module returns. Modeled on the teacher's types.Error (error code +
// message + position), generalized to carry a full [types.Span] so the
// reporter can quote the offending source line (spec §4.B node spans).
type Error struct {
	Kind    Kind
	Span    types.Span
	Message string
	Cause   error
}

func New(kind Kind, span types.Span, message string) *Error {
	return &Error{Kind: kind, Span: span, Message: message}
}

func Newf(kind Kind, span types.Span, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Span: span, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Span.File != "" || e.Span.Line != 0 {
		return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, e.Span)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithCause wraps another error as the diagnostic's cause.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// BadAccessKey builds the specific diagnostic the parser/evaluator raises
// for a missing path segment, matching the exact phrasing spec §8 scenario 4
// requires: "Trying to access a non existing event key `foo`".
func BadAccessKey(span types.Span, root, key string) *Error {
	return Newf(BadAccess, span, "Trying to access a non existing %s key `%s`", root, key)
}
