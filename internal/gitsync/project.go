package gitsync

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// CurrentProject guesses the name of the project in dir: the origin remote's
// repository name, else the package.json name, else the last element of the
// go.mod module path, else the directory name.
func CurrentProject(ctx context.Context, dir string) string {
	cmd := exec.CommandContext(ctx, "git", "remote", "get-url", "origin")
	cmd.Dir = dir
	if out, err := cmd.Output(); err == nil {
		if name := RepoName(strings.TrimSpace(string(out))); name != "" {
			return name
		}
	}

	if data, err := os.ReadFile(filepath.Join(dir, "package.json")); err == nil {
		var pkg struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(data, &pkg) == nil && pkg.Name != "" {
			return pkg.Name
		}
	}

	if data, err := os.ReadFile(filepath.Join(dir, "go.mod")); err == nil {
		if mod := modfile.ModulePath(data); mod != "" {
			return path.Base(mod)
		}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(dir)
	}
	return filepath.Base(abs)
}

// RepoName extracts the repository name from a remote URL, e.g.
// "git@github.com:me/app.git" → "app".
func RepoName(remote string) string {
	remote = strings.TrimSuffix(strings.TrimRight(remote, "/"), ".git")
	if i := strings.LastIndexAny(remote, "/:"); i >= 0 {
		remote = remote[i+1:]
	}
	return remote
}
