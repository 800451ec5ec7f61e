// Package errors defines the shared diagnostic types used across the
// lexer, parser, compiler, VM and IO backend: a source Span and a single
// Error type carrying one of a small closed set of Kinds.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Span locates a range of source text. Line/Col are 1-based.
type Span struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

func (s Span) String() string {
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.StartLine, s.StartCol)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.StartLine, s.StartCol)
}

// Join returns the smallest span covering both a and b. A zero Span on
// either side is treated as absent and the other is returned untouched.
func Join(a, b Span) Span {
	if a == (Span{}) {
		return b
	}
	if b == (Span{}) {
		return a
	}
	j := a
	j.EndLine, j.EndCol = b.EndLine, b.EndCol
	return j
}

// Kind is the closed set of diagnostic categories named in the spec.
type Kind string

const (
	Parse   Kind = "Parse"
	Format  Kind = "Format"
	Compile Kind = "Compile"
	Runtime Kind = "Runtime"
	IO      Kind = "IO"
	Import  Kind = "Import"
	Load    Kind = "Load"
)

// Error is the single error type surfaced to hosts. It optionally carries
// a Span (unavailable for e.g. Load errors, which only have a path) and
// an optional cause for wrapping kinds (Import wraps the child error, IO
// wraps the host's error message).
type Error struct {
	Kind    Kind
	Message string
	Span    Span
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// Cause exposes the innermost wrapped error, mirroring pkg/errors' Causer
// so Import errors can be unwrapped down to the original Load/Runtime
// error that broke inside the imported file.
func (e *Error) Cause() error {
	var err error = e
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func New(kind Kind, span Span, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
}

func Wrap(kind Kind, span Span, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
		cause:   errors.WithStack(cause),
	}
}

// NewImportError wraps a sub-run's error and prepends the import path, as
// required by the Import propagation rule.
func NewImportError(path string, cause error) *Error {
	return Wrap(Import, Span{}, cause, "while importing %q", path)
}

// NewIOError wraps the host's error message for a file/env/image op.
func NewIOError(span Span, cause error, context string) *Error {
	return Wrap(IO, span, cause, "%s", context)
}

// Report renders a deterministic, human-readable block: kind, message,
// location, and (when source is available) a caret under the offending
// column.
func Report(err error, source string) string {
	e, ok := err.(*Error)
	if !ok {
		return err.Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", e.Kind, e.Message)
	if e.Span.File != "" || e.Span.StartLine != 0 {
		fmt.Fprintf(&b, "  at %s\n", e.Span)
		if source != "" {
			lines := strings.Split(source, "\n")
			idx := e.Span.StartLine - 1
			if idx >= 0 && idx < len(lines) {
				line := lines[idx]
				prefix := fmt.Sprintf("  %d | ", e.Span.StartLine)
				fmt.Fprintf(&b, "%s%s\n", prefix, line)
				col := e.Span.StartCol
				if col < 1 {
					col = 1
				}
				b.WriteString(strings.Repeat(" ", len(prefix)+col-1))
				b.WriteString("^\n")
			}
		}
	}
	if e.cause != nil {
		fmt.Fprintf(&b, "caused by: %v\n", e.cause)
	}
	return b.String()
}
