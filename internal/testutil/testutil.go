// Package testutil provides shared test helpers for setting up data
// directories, stores and journals.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/jstrack/internal/journal"
	"github.com/starford/jstrack/internal/storage"
)

// KnowledgeBase is a small flat document used across package tests.
const KnowledgeBase = `{
  "closures": {
    "id": "closures",
    "title": "Closures",
    "url": "https://learn.test/closure",
    "level": "concept",
    "progress": 0,
    "sections": [
      {"id": "basic", "title": "Basic closures", "url": "https://learn.test/closure#basic", "applications": []},
      {"id": "counter", "title": "Counter factory", "url": "https://learn.test/closure#counter", "applications": []}
    ],
    "applications": []
  },
  "keyboard-events": {
    "id": "keyboard-events",
    "title": "Keyboard: keydown and keyup",
    "url": "https://learn.test/keyboard-events",
    "level": "concept",
    "progress": 100,
    "sections": [
      {"id": "keydown", "title": "Keydown and keyup", "url": "https://learn.test/keyboard-events#keydown",
       "applications": [{"project": "site", "commit": "fff000", "date": "2024-03-01T10:00:00Z"}]}
    ]
  },
  "let-const": {
    "id": "let-const",
    "title": "Variables: let and const",
    "url": "https://learn.test/variables",
    "level": "syntax",
    "progress": 100
  }
}`

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// DataDir creates a temporary data directory with a storage.FS and, when
// content is not empty, a primary document file holding it.
func DataDir(t *testing.T, content string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	if content != "" {
		if err := fs.Write(storage.DefaultFile, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	return dir, fs
}

// Store creates a Store over a temporary data directory seeded with
// content. It never talks to git.
func Store(t *testing.T, content string) *storage.Store {
	t.Helper()
	_, fs := DataDir(t, content)
	return storage.NewStore(fs, nil, nil, Logger())
}

// Journal creates a temporary SQLite journal that is automatically closed.
func Journal(t *testing.T) *journal.DB {
	t.Helper()
	db, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
