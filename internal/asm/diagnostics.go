package asm

import (
	"kone/internal/diag"
	"kone/internal/source"
)

// Diagnostics converts parse failures into leveled diagnostics. Every
// failure yields exactly one SevError diagnostic followed by one
// SevSuggestion diagnostic per attached hint, in attachment order; notes
// ride on the error diagnostic itself. A failure without a span gets the
// empty span at the end of the file. Conversion itself never fails.
func Diagnostics(fs *source.FileSet, file source.FileID, errs []*ParseError) *diag.Bag {
	total := len(errs)
	for _, e := range errs {
		total += len(e.Suggestions)
	}
	bag := diag.NewBag(total)
	for _, e := range errs {
		primary := fs.EOF(file)
		if e.Span != nil {
			primary = *e.Span
		}
		code := e.Code
		if code == 0 {
			code = diag.UnknownCode
		}
		var notes []diag.Note
		for _, n := range e.Notes {
			notes = append(notes, diag.Note{Span: n.Span, Msg: n.Msg})
		}
		bag.Add(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     code,
			Message:  e.Msg,
			Primary:  primary,
			Notes:    notes,
		})
		for _, s := range e.Suggestions {
			bag.Add(diag.Diagnostic{
				Severity: diag.SevSuggestion,
				Code:     diag.HintSuggestion,
				Message:  s.Msg,
				Primary:  s.Span,
			})
		}
	}
	return bag
}
