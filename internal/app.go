package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/jstrack/internal/github"
	"github.com/starford/jstrack/internal/gitsync"
	"github.com/starford/jstrack/internal/journal"
	"github.com/starford/jstrack/internal/storage"
	"github.com/starford/jstrack/internal/tracker"
)

// App holds the wired components shared by every command.
type App struct {
	Config  *Config
	Logger  *slog.Logger
	Version string
	FS      *storage.FS
	Store   *storage.Store
	Repo    *gitsync.Repo
	GitHub  *github.Client
	Journal *journal.DB
	Tracker *tracker.Service
}

// New wires storage, git sync, GitHub validation, the journal and the
// tracker from the configuration. The journal is optional: when it cannot
// be opened the app runs without history.
func New(ctx context.Context, opts ...Option) (*App, error) {
	a := &application{}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.config
	logger := a.logger
	if logger == nil {
		logger = slog.Default()
	}

	fs, err := storage.NewFS(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	app := &App{Config: cfg, Logger: logger, Version: a.version, FS: fs}

	syncer := a.syncer
	if syncer == nil && cfg.Data.Sync {
		app.Repo = gitsync.New(fs.Root(), cfg.Data.Remote, logger)
		if a.syncOnce {
			if err := app.Repo.Sync(ctx); err != nil {
				logger.Warn("data sync failed", slog.String("error", err.Error()))
			}
		} else {
			syncer = app.Repo
		}
	}
	app.Store = storage.NewStore(fs, cfg.Data.Files(), syncer, logger)

	topts := []tracker.Option{tracker.WithLogger(logger)}

	gh := github.New(cfg.GitHub.Client(), logger)
	app.GitHub = gh
	if cfg.GitHub.Check {
		topts = append(topts, tracker.WithValidator(gh))
	} else {
		topts = append(topts, tracker.WithCommitURL(gh.CommitURL))
	}

	if cfg.Journal.Enabled {
		db, err := openJournal(cfg.Journal.Path)
		if err != nil {
			logger.Warn("journal unavailable", slog.String("path", cfg.Journal.Path), slog.String("error", err.Error()))
		} else {
			app.Journal = db
			topts = append(topts, tracker.WithJournal(db))
		}
	}

	app.Tracker = tracker.New(app.Store, topts...)

	logger.Debug("application wired",
		slog.String("data_dir", fs.Root()),
		slog.String("file", app.Store.Primary()),
		slog.Bool("sync", cfg.Data.Sync),
		slog.Bool("validate", cfg.GitHub.Check),
		slog.Bool("journal", app.Journal != nil))
	return app, nil
}

func openJournal(path string) (*journal.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	return journal.Open(path)
}

// Close releases the journal.
func (a *App) Close() error {
	var errs []error
	if a.Journal != nil {
		errs = append(errs, a.Journal.Close())
	}
	return errors.Join(errs...)
}
