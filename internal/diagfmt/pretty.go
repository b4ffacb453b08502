package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"kone/internal/diag"
	"kone/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	suggestColor = color.New(color.FgCyan)
	pathColor    = color.New(color.Bold)
	caretColor   = color.New(color.FgGreen, color.Bold)
)

// Pretty formats diagnostics for a terminal. Call bag.Sort() first for a
// deterministic order. Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a ^~~~ underline covering the span, then
// its notes in the same shape, indented.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}

	for i := 0; i < maxItems; i++ {
		d := items[i]
		printHeader(w, fs, d.Primary, d.Severity, d.Code.String(), d.Message, opts.Color, "")
		printContext(w, fs, d.Primary, opts.Color, "")

		if opts.ShowNotes {
			for _, note := range d.Notes {
				printHeader(w, fs, note.Span, diag.SevSuggestion, "", note.Msg, opts.Color, "  ")
				printContext(w, fs, note.Span, opts.Color, "  ")
			}
		}
	}

	if dropped := len(items) - maxItems; dropped > 0 {
		fmt.Fprintf(w, "... and %d more\n", dropped)
	}
}

func printHeader(w io.Writer, fs *source.FileSet, span source.Span, sev diag.Severity, code, msg string, colored bool, indent string) {
	f := fs.Get(span.File)
	start, _ := fs.Resolve(span)

	loc := fmt.Sprintf("%s:%d:%d", f.Path, start.Line, start.Col)
	head := sev.String()
	if code != "" {
		head += " " + code
	}

	if colored {
		sc := suggestColor
		if sev == diag.SevError {
			sc = errorColor
		}
		fmt.Fprintf(w, "%s%s: %s: %s\n", indent, pathColor.Sprint(loc), sc.Sprint(head), msg)
		return
	}
	fmt.Fprintf(w, "%s%s: %s: %s\n", indent, loc, head, msg)
}

// printContext prints the first source line of the span with a caret
// underline. Spans past the last line (EOF spans) print no context.
func printContext(w io.Writer, fs *source.FileSet, span source.Span, colored bool, indent string) {
	f := fs.Get(span.File)
	start, end := fs.Resolve(span)

	text := f.GetLine(start.Line)
	if text == "" && span.Empty() {
		return
	}
	fmt.Fprintf(w, "%s  %s\n", indent, text)

	// The underline covers the span within its first line only.
	caretLen := uint32(1)
	if end.Line == start.Line && end.Col > start.Col {
		caretLen = end.Col - start.Col
	}
	underline := "^" + strings.Repeat("~", int(caretLen-1))
	if colored {
		underline = caretColor.Sprint(underline)
	}
	fmt.Fprintf(w, "%s  %s%s\n", indent, strings.Repeat(" ", int(start.Col-1)), underline)
}
