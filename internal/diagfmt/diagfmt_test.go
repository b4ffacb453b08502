package diagfmt_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"kone/internal/debug"
	"kone/internal/diag"
	"kone/internal/diagfmt"
	"kone/internal/source"
)

func loadBag(t *testing.T, text string) (*diag.Bag, *source.FileSet) {
	t.Helper()
	_, fs, lerr := debug.Parse("test.k91", []byte(text))
	if lerr == nil {
		t.Fatalf("program %q parsed cleanly", text)
	}
	lerr.Bag.Sort()
	return lerr.Bag, fs
}

func assembleBag(t *testing.T, text string) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.k91", []byte(text))
	_, lerr := debug.Assemble(fs, id)
	if lerr == nil {
		t.Fatalf("program %q assembled cleanly", text)
	}
	lerr.Bag.Sort()
	return lerr.Bag, fs
}

func TestPrettyHeaderAndCaret(t *testing.T) {
	bag, fs := loadBag(t, "LAOD R1, =42\n")

	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{})
	out := buf.String()

	if !strings.Contains(out, "test.k91:1:1: ERROR "+diag.SynUnknownMnemonic.String()) {
		t.Errorf("missing header in:\n%s", out)
	}
	if !strings.Contains(out, "LAOD R1, =42") {
		t.Errorf("missing context line in:\n%s", out)
	}
	if !strings.Contains(out, "^~~~") {
		t.Errorf("missing caret underline in:\n%s", out)
	}
	// The misspelling suggestion rides along as its own entry.
	if !strings.Contains(out, `did you mean "LOAD"?`) {
		t.Errorf("missing suggestion in:\n%s", out)
	}
}

func TestPrettyTruncation(t *testing.T) {
	bag, fs := loadBag(t, "FOO\nBAR\nBAZ\n")

	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{Max: 1})
	out := buf.String()

	if strings.Count(out, "ERROR") != 1 {
		t.Errorf("expected one error in:\n%s", out)
	}
	if !strings.Contains(out, "more") {
		t.Errorf("missing truncation marker in:\n%s", out)
	}
}

func TestPrettyNotes(t *testing.T) {
	// A duplicate symbol carries the first definition as a note, so it
	// renders with its error even though its span comes earlier in the file.
	bag, fs := assembleBag(t, "x DC 1\nx DC 2\n")

	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{ShowNotes: true})
	out := buf.String()

	errIdx := strings.Index(out, "duplicate symbol")
	noteIdx := strings.Index(out, "first defined here")
	if errIdx < 0 || noteIdx < 0 {
		t.Fatalf("missing error or note in:\n%s", out)
	}
	if noteIdx < errIdx {
		t.Errorf("note printed before its error:\n%s", out)
	}

	buf.Reset()
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{})
	if strings.Contains(buf.String(), "first defined here") {
		t.Errorf("note printed without ShowNotes:\n%s", buf.String())
	}
}

func TestJSONIncludesNotes(t *testing.T) {
	bag, fs := assembleBag(t, "x DC 1\nx DC 2\n")

	out := diagfmt.BuildDiagnosticsOutput(bag, fs, diagfmt.JSONOpts{IncludeNotes: true})
	if len(out.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %+v", out.Diagnostics)
	}
	notes := out.Diagnostics[0].Notes
	if len(notes) != 1 || !strings.Contains(notes[0].Message, "first defined here") {
		t.Fatalf("notes = %+v", notes)
	}

	out = diagfmt.BuildDiagnosticsOutput(bag, fs, diagfmt.JSONOpts{})
	if out.Diagnostics[0].Notes != nil {
		t.Errorf("notes included by default: %+v", out.Diagnostics[0].Notes)
	}
}

func TestJSONShape(t *testing.T) {
	bag, fs := loadBag(t, "OUT =1\nLAOD R1, =2\n")

	var buf bytes.Buffer
	err := diagfmt.JSON(&buf, bag, fs, diagfmt.JSONOpts{IncludePositions: true})
	if err != nil {
		t.Fatal(err)
	}

	var out diagfmt.DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != len(out.Diagnostics) || out.Count == 0 {
		t.Fatalf("count = %d, diagnostics = %d", out.Count, len(out.Diagnostics))
	}

	d := out.Diagnostics[0]
	if d.Severity != "ERROR" || d.Code != diag.SynUnknownMnemonic.String() {
		t.Errorf("first diagnostic = %+v", d)
	}
	if d.Location.File != "test.k91" || d.Location.StartLine != 2 || d.Location.StartCol != 1 {
		t.Errorf("location = %+v", d.Location)
	}
}

func TestJSONOmitsPositionsByDefault(t *testing.T) {
	bag, fs := loadBag(t, "LAOD R1, =2\n")

	out := diagfmt.BuildDiagnosticsOutput(bag, fs, diagfmt.JSONOpts{})
	if out.Diagnostics[0].Location.StartLine != 0 {
		t.Errorf("positions included without IncludePositions: %+v", out.Diagnostics[0].Location)
	}
}

func TestEOFSpanPrintsNoContext(t *testing.T) {
	// A compile failure with no span anchors at end of file.
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.k91", []byte("OUT =1\n"))
	bag := diag.NewBag(1)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SymUndefined,
		Message:  "undefined symbol",
		Primary:  fs.EOF(id),
	})

	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{})
	if strings.Contains(buf.String(), "^") {
		t.Errorf("EOF span should not underline:\n%s", buf.String())
	}
}
