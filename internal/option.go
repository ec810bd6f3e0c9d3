package internal

import (
	"log/slog"

	"github.com/starford/jstrack/internal/storage"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	logger   *slog.Logger
	version  string
	syncOnce bool
	syncer   storage.Syncer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithSyncOnce pulls the data repository once at startup instead of before
// every load. Long-running read-only surfaces use it.
func WithSyncOnce() Option {
	return func(a *application) {
		a.syncOnce = true
	}
}

// WithSyncer replaces the git-backed syncer of the data directory. It takes
// effect whether or not data.sync is set.
func WithSyncer(s storage.Syncer) Option {
	return func(a *application) {
		a.syncer = s
	}
}
