package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/jstrack/internal/apperr"
)

func tempDataDir(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempDataDir(t)
	content := []byte(`{"closures":{}}`)
	if err := s.Write("knowledge-base.json", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("knowledge-base.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempDataDir(t)
	if err := s.Write("backup/old.json", []byte("{}")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	ok, err := s.Exists("backup/old.json")
	if err != nil || !ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
}

func TestExists(t *testing.T) {
	s := tempDataDir(t)
	if ok, err := s.Exists("missing.json"); ok || err != nil {
		t.Errorf("missing: Exists = %v, %v", ok, err)
	}
	_ = os.Mkdir(filepath.Join(s.Root(), "dir.json"), 0o755)
	if ok, _ := s.Exists("dir.json"); ok {
		t.Error("directory should not count as a file")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempDataDir(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.json",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("Read(%q) err = %v, want invalid", p, err)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
		if _, err := s.Exists(p); err == nil {
			t.Errorf("expected error for exists %q", p)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	s := tempDataDir(t)
	_ = s.Write("kb.json", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("kb.json", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("kb.json")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".jstrack-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", ".js-knowledge-data")
	if _, err := NewFS(dir); err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("data dir not created: %v", err)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp(t.TempDir(), "jstrack-test-*")
	_ = f.Close()
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestChecksum(t *testing.T) {
	a, b := Checksum([]byte("x")), Checksum([]byte("y"))
	if a == b || len(a) != 64 {
		t.Errorf("Checksum = %q / %q", a, b)
	}
}

func TestWriteKeepsPermissions(t *testing.T) {
	s := tempDataDir(t)
	path := filepath.Join(s.Root(), "kb.json")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("kb.json", []byte(`{"a":{}}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}
