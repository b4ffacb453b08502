// Package diagfmt renders diagnostic bags for humans and machines: a
// colored terminal format with caret underlines, and a stable JSON shape
// for editor and CI integration.
package diagfmt

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Max       int // truncate output, not the bag; 0 means everything
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // add line/col next to byte offsets
	Max              int
	IncludeNotes     bool
}
