package diag

import (
	"fmt"
	"strings"
)

// Reporter formats [Error]s into the hygienic, multi-line diagnostic block
// described by spec §4.H and exercised bit-exactly by §8 scenario 4:
//
//	Error in <file>:<line>:<col>
//	<source line>
//	<caret underline>
//	<one-line explanation>
//
// Colour is optional and driven by a terminal-capability probe supplied by
// the caller (the CLI), never detected inside this package — Reporter has
// no TTY dependency so it stays trivially testable.
type Reporter struct {
	// Sources maps a file name (as it appears in a Span) to its full text,
	// used to quote the offending line. A Span whose File is absent from
	// Sources is reported without a source excerpt.
	Sources map[string]string
	// Color enables ANSI highlighting of the "Error in ..." header and the
	// caret underline. Left false unless the caller has probed isatty.
	Color bool
}

func NewReporter() *Reporter {
	return &Reporter{Sources: map[string]string{}}
}

func (r *Reporter) AddSource(file, content string) {
	r.Sources[file] = content
}

const (
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// Format renders err as the multi-line diagnostic block. It never panics on
// an incomplete Span (no file, zero line): it degrades to a header-only
// report with no excerpt.
func (r *Reporter) Format(err *Error) string {
	var b strings.Builder

	header := fmt.Sprintf("Error in %s:%d:%d", err.Span.File, err.Span.Line, err.Span.Column)
	if r.Color {
		b.WriteString(ansiRed)
		b.WriteString(header)
		b.WriteString(ansiReset)
	} else {
		b.WriteString(header)
	}
	b.WriteByte('\n')

	if line := r.sourceLine(err.Span.File, err.Span.Line); line != "" {
		b.WriteString(line)
		b.WriteByte('\n')
		b.WriteString(caretLine(err.Span.Column, err.Span.Length, r.Color))
		b.WriteByte('\n')
	}

	b.WriteString(err.Message)
	return b.String()
}

func (r *Reporter) sourceLine(file string, line int) string {
	src, ok := r.Sources[file]
	if !ok || line <= 0 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func caretLine(column, length int, color bool) string {
	if column < 1 {
		column = 1
	}
	if length < 1 {
		length = 1
	}
	carets := strings.Repeat("^", length)
	line := strings.Repeat(" ", column-1) + carets
	if color {
		return strings.Repeat(" ", column-1) + ansiRed + carets + ansiReset
	}
	return line
}
