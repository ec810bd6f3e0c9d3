package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/starford/jstrack/internal/apperr"
)

const (
	dirPerm     = 0o755
	filePerm    = 0o644
	tempPattern = ".jstrack-tmp-*"
)

// FS is the Provider for a data directory on local disk.
type FS struct {
	root string
}

// NewFS opens the data directory at root, creating it when missing.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: data dir %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf("storage: data dir %q: %w", abs, err)
	}
	// MkdirAll succeeds on an existing directory only.
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("storage: data dir %q is not a directory: %w", abs, apperr.ErrInvalid)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute data directory.
func (f *FS) Root() string { return f.root }

// abs maps a data-relative path onto disk. Absolute paths and paths that
// climb out of the root are rejected.
func (f *FS) abs(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("storage: %q is outside the data dir: %w", rel, apperr.ErrInvalid)
	}
	return filepath.Join(f.root, rel), nil
}

// Read returns the content of a data file.
func (f *FS) Read(rel string) ([]byte, error) {
	p, err := f.abs(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", rel, err)
	}
	return data, nil
}

// Exists reports whether rel is a regular file.
func (f *FS) Exists(rel string) (bool, error) {
	p, err := f.abs(rel)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("storage: stat %s: %w", rel, err)
	}
	return info.Mode().IsRegular(), nil
}

// Write replaces rel with content through a synced temp file in the same
// directory, so readers see either the old or the new document. An
// existing file keeps its permissions.
func (f *FS) Write(rel string, content []byte) (err error) {
	p, err := f.abs(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("storage: write %s: %w", rel, err)
	}

	perm := fs.FileMode(filePerm)
	if info, err := os.Stat(p); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", rel, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	steps := []func() error{
		func() error { _, err := tmp.Write(content); return err },
		func() error { return tmp.Chmod(perm) },
		tmp.Sync,
		tmp.Close,
		func() error { return os.Rename(tmp.Name(), p) },
	}
	for _, step := range steps {
		if err = step(); err != nil {
			return fmt.Errorf("storage: write %s: %w", rel, err)
		}
	}
	return nil
}

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
