// Package types defines the runtime value model shared by every other
// package: the script evaluator, the query compiler, the pipeline runtime
// and the error reporter all exchange [Value]s and [Span]s.
package types

import "fmt"

// Span locates a range of source text for hygienic diagnostics.
// Every AST node and every runtime error carries one.
type Span struct {
	File   string
	Offset int // byte offset of the first rune
	Line   int // 1-based
	Column int // 1-based, counted in runes
	Length int // byte length of the span
}

// String renders the span the way diagnostics quote it: "file:line:col".
func (s Span) String() string {
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.Line, s.Column)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}
