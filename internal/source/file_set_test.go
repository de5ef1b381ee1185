package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	// Добавляем файл первый раз
	id1 := fs.Add("net.f90", []byte("subroutine a\n"), 0)
	if id1 != 0 {
		t.Errorf("Expected first FileID to be 0, got %d", id1)
	}

	// тот же путь с новым содержимым
	id2 := fs.Add("net.f90", []byte("subroutine b\n"), 0)
	if id2 != 1 {
		t.Errorf("Expected second FileID to be 1, got %d", id2)
	}

	latest, ok := fs.GetByPath("net.f90")
	if !ok {
		t.Fatal("Expected file to exist after Add")
	}
	if latest.ID != id2 {
		t.Errorf("Expected latest ID to be %d, got %d", id2, latest.ID)
	}
	if string(fs.Get(id1).Content) != "subroutine a\n" {
		t.Errorf("first version was overwritten: %q", fs.Get(id1).Content)
	}
	if fs.Len() != 2 {
		t.Errorf("Len() = %d, want 2", fs.Len())
	}
}

func TestFileSetGetOutOfRange(t *testing.T) {
	fs := NewFileSet()
	if f := fs.Get(3); f != nil {
		t.Fatalf("expected nil for unknown id, got %+v", f)
	}
}

func TestAddVirtualFlags(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("crlf.f", []byte("a\r\nb"))
	f := fs.Get(id)
	if f.Flags&FileVirtual == 0 {
		t.Error("expected FileVirtual flag")
	}
	if f.Flags&FileHasCRLF == 0 {
		t.Error("expected FileHasCRLF flag")
	}
	if f.Flags&FileNoFinalNewline == 0 {
		t.Error("expected FileNoFinalNewline flag")
	}
	if len(f.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(f.Lines))
	}
}

func TestLoadPreservesBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evolve.f90")
	content := "module evolve\r\n  contains\n\nend module evolve"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(JoinLines(f.Lines)) != content {
		t.Fatalf("content changed on load: %q", JoinLines(f.Lines))
	}
	if f.Name() != "evolve.f90" {
		t.Fatalf("Name() = %q", f.Name())
	}
	if got := f.GetLine(2); got != "  contains" {
		t.Fatalf("GetLine(2) = %q", got)
	}
	if got := f.GetLine(9); got != "" {
		t.Fatalf("GetLine(9) = %q, want empty", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	fs := NewFileSet()
	missing := filepath.Join(t.TempDir(), "nope.f90")
	_, err := fs.Load(missing)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestFormatPathModes(t *testing.T) {
	fs := NewFileSetWithBase("/opt/mesa")
	id := fs.AddVirtual("/opt/mesa/star/private/a_fairly_long_directory/evolve.f90", nil)
	f := fs.Get(id)

	if got := f.FormatPath("basename", ""); got != "evolve.f90" {
		t.Errorf("basename = %q", got)
	}
	if got := f.FormatPath("relative", fs.BaseDir()); got != "star/private/a_fairly_long_directory/evolve.f90" {
		t.Errorf("relative = %q", got)
	}
	if got := f.FormatPath("auto", ""); got != "evolve.f90" {
		t.Errorf("auto = %q", got)
	}
}
