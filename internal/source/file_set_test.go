package source

import (
	"testing"
)

func TestAddVirtualLineIdx(t *testing.T) {
	fs := NewFileSet()

	id := fs.AddVirtual("a.k91", []byte("a\nb\n"))
	file := fs.Get(id)

	expected := []uint32{1, 3}
	if len(file.LineIdx) != len(expected) {
		t.Fatalf("expected LineIdx length %d, got %d", len(expected), len(file.LineIdx))
	}
	for i, val := range expected {
		if file.LineIdx[i] != val {
			t.Errorf("expected LineIdx[%d] = %d, got %d", i, val, file.LineIdx[i])
		}
	}

	if file.Flags&FileVirtual == 0 {
		t.Error("expected FileVirtual flag to be set")
	}
}

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("test.k91", []byte("OUT =1"), 0)
	if id1 != 0 {
		t.Errorf("expected first FileID to be 0, got %d", id1)
	}

	id2 := fs.Add("test.k91", []byte("OUT =2"), 0)
	if id2 != 1 {
		t.Errorf("expected second FileID to be 1, got %d", id2)
	}

	latestID, exists := fs.GetLatest("test.k91")
	if !exists {
		t.Fatal("expected file to exist after Add")
	}
	if latestID != id2 {
		t.Errorf("expected latest ID to be %d, got %d", id2, latestID)
	}

	if got := string(fs.Get(id1).Content); got != "OUT =1" {
		t.Errorf("expected first file content to survive, got %q", got)
	}
}

func TestResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.k91", []byte("alpha\nbeta\ngamma"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{4, LineCol{Line: 1, Col: 5}},
		{5, LineCol{Line: 1, Col: 6}},  // the newline itself
		{6, LineCol{Line: 2, Col: 1}},  // 'b'
		{9, LineCol{Line: 2, Col: 4}},  // 'a' of beta
		{11, LineCol{Line: 3, Col: 1}}, // 'g'
		{16, LineCol{Line: 3, Col: 6}}, // one past end
	}
	for _, tc := range tests {
		got, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if got != tc.want {
			t.Errorf("Resolve(%d) = %+v, want %+v", tc.off, got, tc.want)
		}
	}
}

func TestResolveNoNewlines(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("one.k91", []byte("OUT =42"))

	start, end := fs.Resolve(Span{File: id, Start: 4, End: 7})
	if start != (LineCol{Line: 1, Col: 5}) {
		t.Errorf("start = %+v", start)
	}
	if end != (LineCol{Line: 1, Col: 8}) {
		t.Errorf("end = %+v", end)
	}
}

func TestEOFSpan(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.k91", []byte("NOP\n"))

	span := fs.EOF(id)
	if !span.Empty() {
		t.Error("EOF span should be empty")
	}
	if span.Start != 4 {
		t.Errorf("EOF span at %d, want 4", span.Start)
	}
}

func TestNormalizeCRLF(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("crlf.k91", []byte("NOP\r\nNOP\r\n"))
	file := fs.Get(id)

	if string(file.Content) != "NOP\nNOP\n" {
		t.Errorf("content = %q", file.Content)
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.k91", []byte("one\ntwo\nthree"))
	file := fs.Get(id)

	tests := []struct {
		line uint32
		want string
	}{
		{0, ""},
		{1, "one"},
		{2, "two"},
		{3, "three"},
		{4, ""},
	}
	for _, tc := range tests {
		if got := file.GetLine(tc.line); got != tc.want {
			t.Errorf("GetLine(%d) = %q, want %q", tc.line, got, tc.want)
		}
	}
}
