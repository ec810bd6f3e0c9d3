// Package gitsync keeps the data directory in step with its git remote.
package gitsync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const initialMessage = "feat: initial knowledge base"

// Repo runs git inside the data directory.
type Repo struct {
	dir    string
	remote string
	logger *slog.Logger
}

// New creates a Repo for dir. remote may be empty, in which case Sync never
// clones.
func New(dir, remote string, logger *slog.Logger) *Repo {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repo{dir: dir, remote: remote, logger: logger}
}

// IsRepo reports whether the data directory holds a git repository.
func (r *Repo) IsRepo() bool {
	info, err := os.Stat(filepath.Join(r.dir, ".git"))
	return err == nil && info.IsDir()
}

// Sync clones the remote when the data directory is absent or empty and
// pulls when it is already a repository.
func (r *Repo) Sync(ctx context.Context) error {
	if r.IsRepo() {
		r.logger.Debug("pulling knowledge base", slog.String("dir", r.dir))
		if _, err := r.run(ctx, "pull", "--ff-only"); err != nil {
			return fmt.Errorf("gitsync: pull: %w", err)
		}
		return nil
	}
	if r.remote == "" {
		return nil
	}
	empty, err := isEmptyDir(r.dir)
	if err != nil {
		return fmt.Errorf("gitsync: %w", err)
	}
	if !empty {
		r.logger.Debug("data dir is not a repository, skipping clone", slog.String("dir", r.dir))
		return nil
	}

	r.logger.Info("cloning knowledge base", slog.String("remote", r.remote), slog.String("dir", r.dir))
	cmd := exec.CommandContext(ctx, "git", "clone", r.remote, r.dir)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("gitsync: clone: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Commit stages file, commits it with message when it changed and pushes.
// The repository is initialised first when needed. Push failures are
// logged, not returned.
func (r *Repo) Commit(ctx context.Context, file, message string) error {
	if !r.IsRepo() {
		if err := r.initRepo(ctx); err != nil {
			return err
		}
	}
	if _, err := r.run(ctx, "add", "--", file); err != nil {
		return fmt.Errorf("gitsync: add: %w", err)
	}
	status, err := r.run(ctx, "status", "--porcelain", "--", file)
	if err != nil {
		return fmt.Errorf("gitsync: status: %w", err)
	}
	if strings.TrimSpace(status) == "" {
		r.logger.Debug("nothing to commit", slog.String("file", file))
		return nil
	}
	if _, err := r.run(ctx, "commit", "-m", message, "--", file); err != nil {
		return fmt.Errorf("gitsync: commit: %w", err)
	}
	r.logger.Info("knowledge base committed", slog.String("message", message))

	if _, err := r.run(ctx, "push"); err != nil {
		r.logger.Warn("push failed, configure a remote for the data repository",
			slog.String("error", err.Error()))
		return nil
	}
	r.logger.Info("knowledge base pushed")
	return nil
}

// Head returns the current commit hash of the data repository.
func (r *Repo) Head(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("gitsync: rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) initRepo(ctx context.Context) error {
	r.logger.Info("initialising data repository", slog.String("dir", r.dir))
	if _, err := r.run(ctx, "init"); err != nil {
		return fmt.Errorf("gitsync: init: %w", err)
	}
	if _, err := r.run(ctx, "add", "."); err != nil {
		return fmt.Errorf("gitsync: add: %w", err)
	}
	if _, err := r.run(ctx, "commit", "-m", initialMessage); err != nil {
		return fmt.Errorf("gitsync: initial commit: %w", err)
	}
	return nil
}

// run executes a git command in the data directory.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

func isEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
