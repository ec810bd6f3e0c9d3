package gitsync

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_AUTHOR_NAME", "jstrack")
	t.Setenv("GIT_AUTHOR_EMAIL", "jstrack@example.test")
	t.Setenv("GIT_COMMITTER_NAME", "jstrack")
	t.Setenv("GIT_COMMITTER_EMAIL", "jstrack@example.test")
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v: %s", args, err, out)
	}
	return strings.TrimSpace(string(out))
}

func TestCommit_InitialisesAndCommits(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "kb.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := New(dir, "", quiet())
	ctx := context.Background()

	if err := r.Commit(ctx, "kb.json", "chore: update knowledge base"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !r.IsRepo() {
		t.Fatal("repository not initialised")
	}
	if got := git(t, dir, "log", "-1", "--format=%s"); got != initialMessage {
		t.Errorf("last message = %q, want %q", got, initialMessage)
	}

	_ = os.WriteFile(filepath.Join(dir, "kb.json"), []byte(`{"a":{}}`), 0o644)
	if err := r.Commit(ctx, "kb.json", "feat: basic → demo"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := git(t, dir, "log", "-1", "--format=%s"); got != "feat: basic → demo" {
		t.Errorf("last message = %q", got)
	}

	head, _ := r.Head(ctx)
	if err := r.Commit(ctx, "kb.json", "nothing"); err != nil {
		t.Fatalf("Commit without changes: %v", err)
	}
	if again, _ := r.Head(ctx); again != head {
		t.Error("commit created without changes")
	}
}

func TestSync_ClonesThenPulls(t *testing.T) {
	requireGit(t)
	ctx := context.Background()

	origin := t.TempDir()
	git(t, origin, "init", "--bare", "-b", "main")

	seed := t.TempDir()
	git(t, seed, "clone", origin, ".")
	_ = os.WriteFile(filepath.Join(seed, "kb.json"), []byte("{}"), 0o644)
	git(t, seed, "add", ".")
	git(t, seed, "commit", "-m", "seed")
	git(t, seed, "push", "origin", "HEAD:main")

	data := filepath.Join(t.TempDir(), ".js-knowledge-data")
	r := New(data, origin, quiet())
	if err := r.Sync(ctx); err != nil {
		t.Fatalf("Sync (clone): %v", err)
	}
	if _, err := os.Stat(filepath.Join(data, "kb.json")); err != nil {
		t.Fatalf("clone missing file: %v", err)
	}

	_ = os.WriteFile(filepath.Join(seed, "kb.json"), []byte(`{"x":{}}`), 0o644)
	git(t, seed, "commit", "-am", "update")
	git(t, seed, "push", "origin", "HEAD:main")

	if err := r.Sync(ctx); err != nil {
		t.Fatalf("Sync (pull): %v", err)
	}
	got, _ := os.ReadFile(filepath.Join(data, "kb.json"))
	if string(got) != `{"x":{}}` {
		t.Errorf("after pull = %q", got)
	}

	// Local commit is pushed back to origin.
	_ = os.WriteFile(filepath.Join(data, "kb.json"), []byte(`{"y":{}}`), 0o644)
	if err := r.Commit(ctx, "kb.json", "fix: remove basic"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := git(t, origin, "log", "-1", "--format=%s", "main"); got != "fix: remove basic" {
		t.Errorf("origin head = %q", got)
	}
}

func TestSync_NoRemoteIsNoop(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "data"), "", quiet())
	if err := r.Sync(context.Background()); err != nil {
		t.Errorf("Sync: %v", err)
	}
}

func TestSync_NonRepoDirIsLeftAlone(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "kb.json"), []byte("{}"), 0o644)
	r := New(dir, "https://example.invalid/repo.git", quiet())
	if err := r.Sync(context.Background()); err != nil {
		t.Errorf("Sync: %v", err)
	}
}
