package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"kone/internal/project"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, project.ManifestName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[program]
name = "echo"
main = "src/echo.k91"

[run]
input = [7, 9]
trace = true
`)

	m, ok, err := project.Load(dir)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if m.Root != dir {
		t.Errorf("root = %q", m.Root)
	}
	if m.Config.Program.Name != "echo" {
		t.Errorf("name = %q", m.Config.Program.Name)
	}
	if want := filepath.Join(dir, "src", "echo.k91"); m.MainPath() != want {
		t.Errorf("main = %q, want %q", m.MainPath(), want)
	}
	if len(m.Config.Run.Input) != 2 || m.Config.Run.Input[0] != 7 || m.Config.Run.Input[1] != 9 {
		t.Errorf("input = %v", m.Config.Run.Input)
	}
	if !m.Config.Run.Trace {
		t.Error("trace should be set")
	}
}

func TestFindWalksUp(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[program]\nmain = \"a.k91\"\n")
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, ok, err := project.Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find: ok=%v err=%v", ok, err)
	}
	if path != filepath.Join(dir, project.ManifestName) {
		t.Errorf("path = %q", path)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "[program]\nmain = \"prog.k91\"\n")

	m, err := project.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "prog.k91"); m.MainPath() != want {
		t.Errorf("main = %q, want %q", m.MainPath(), want)
	}

	if _, err := project.LoadFile(filepath.Join(dir, "nope.toml")); err == nil {
		t.Error("missing file should be an error")
	}
}

func TestLoadMissingIsNotAnError(t *testing.T) {
	_, ok, err := project.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("manifest should not be found in an empty directory")
	}
}

func TestLoadRejectsIncompleteManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[program]\nname = \"x\"\n")

	_, ok, err := project.Load(dir)
	if !ok || err == nil {
		t.Fatalf("ok=%v err=%v, want validation error", ok, err)
	}
}
