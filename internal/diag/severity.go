package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevSuggestion is for contextual hints attached to an error.
	SevSuggestion Severity = iota
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevSuggestion:
		return "SUGGESTION"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
