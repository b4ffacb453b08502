package asm

import (
	"fmt"

	"kone/internal/diag"
	"kone/internal/source"
)

// Suggestion is a contextual hint attached to a parse failure.
type Suggestion struct {
	Span source.Span
	Msg  string
}

// ParseError is one parse or assembly failure. Span is nil when the failure
// has no location; Suggestions keep their attachment order. Notes are
// secondary spans that ride on the failure itself instead of becoming
// diagnostics of their own.
type ParseError struct {
	Code        diag.Code
	Msg         string
	Span        *source.Span
	Suggestions []Suggestion
	Notes       []Suggestion
}

func (e *ParseError) Error() string {
	if e.Span != nil {
		return fmt.Sprintf("%s at %s", e.Msg, e.Span)
	}
	return e.Msg
}

// Suggest appends a hint and returns the error for chaining.
func (e *ParseError) Suggest(span source.Span, msg string) *ParseError {
	e.Suggestions = append(e.Suggestions, Suggestion{Span: span, Msg: msg})
	return e
}

// Note attaches a secondary span to the error, such as the site of an
// earlier conflicting definition.
func (e *ParseError) Note(span source.Span, msg string) *ParseError {
	e.Notes = append(e.Notes, Suggestion{Span: span, Msg: msg})
	return e
}

func errAt(code diag.Code, span source.Span, format string, args ...any) *ParseError {
	return &ParseError{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
		Span: &span,
	}
}
