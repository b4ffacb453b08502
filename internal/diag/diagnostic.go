package diag

import (
	"kone/internal/source"
)

// Note is a secondary span attached to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one leveled message with a primary span.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}
