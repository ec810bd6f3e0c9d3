package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/starford/jstrack/internal/apperr"
	"github.com/starford/jstrack/internal/models"
	"github.com/starford/jstrack/internal/normalize"
)

// DefaultFile is the document file name inside the data directory.
const DefaultFile = "knowledge-base.json"

// ChangeKind classifies a saved change for the data repository history.
type ChangeKind int

const (
	ChangeNone ChangeKind = iota
	ChangeUpdate
	ChangeApply
	ChangeUnapply
)

// Change describes what a save carries.
type Change struct {
	Kind    ChangeKind
	Section string
	Project string
}

// Message returns the commit message recorded in the data repository.
func (c Change) Message() string {
	switch c.Kind {
	case ChangeApply:
		return fmt.Sprintf("feat: %s → %s", c.Section, c.Project)
	case ChangeUnapply:
		return fmt.Sprintf("fix: remove %s", c.Section)
	default:
		return "chore: update knowledge base"
	}
}

// Syncer keeps the data directory in step with its remote.
type Syncer interface {
	// Sync clones or pulls the data directory.
	Sync(ctx context.Context) error
	// Commit records file with message and pushes it.
	Commit(ctx context.Context, file, message string) error
}

// Store loads and saves the knowledge document.
type Store struct {
	fs     Provider
	files  []string
	syncer Syncer
	logger *slog.Logger
}

// NewStore creates a store over p. files lists the candidate document
// files, primary first; the primary is the only one ever written. syncer
// may be nil.
func NewStore(p Provider, files []string, syncer Syncer, logger *slog.Logger) *Store {
	if len(files) == 0 {
		files = []string{DefaultFile}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{fs: p, files: files, syncer: syncer, logger: logger}
}

// Primary returns the name of the file Save writes.
func (s *Store) Primary() string { return s.files[0] }

// resolve returns the first existing candidate, creating an empty primary
// document when none exists.
func (s *Store) resolve() (string, error) {
	for _, name := range s.files {
		ok, err := s.fs.Exists(name)
		if err != nil {
			return "", err
		}
		if ok {
			return name, nil
		}
	}
	if err := s.fs.Write(s.Primary(), []byte("{}")); err != nil {
		return "", err
	}
	s.logger.Info("created empty knowledge base", slog.String("file", s.Primary()))
	return s.Primary(), nil
}

// Load pulls the data directory, reads the document file and normalizes it.
func (s *Store) Load(ctx context.Context) (*models.Document, error) {
	if s.syncer != nil {
		if err := s.syncer.Sync(ctx); err != nil {
			s.logger.Warn("data sync failed", slog.String("error", err.Error()))
		}
	}

	name, err := s.resolve()
	if err != nil {
		return nil, fmt.Errorf("storage: load: %w: %w", apperr.ErrUnreadable, err)
	}
	raw, err := s.fs.Read(name)
	if err != nil {
		return nil, fmt.Errorf("storage: load: %w: %w", apperr.ErrUnreadable, err)
	}
	doc, report, err := normalize.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("storage: load %s: %w: %w", name, apperr.ErrUnreadable, err)
	}
	if report.Skipped > 0 {
		s.logger.Warn("articles without id skipped",
			slog.String("file", name),
			slog.Int("skipped", report.Skipped))
	}
	s.logger.Debug("knowledge base loaded",
		slog.String("file", name),
		slog.String("shape", string(report.Shape)),
		slog.Int("articles", doc.Len()))
	return doc, nil
}

// LoadOrEmpty is Load that never fails: any error is logged and an empty
// document returned.
func (s *Store) LoadOrEmpty(ctx context.Context) *models.Document {
	doc, err := s.Load(ctx)
	if err != nil {
		s.logger.Error("load knowledge base", slog.String("error", err.Error()))
		return models.NewDocument()
	}
	return doc
}

// Save overwrites the primary file with doc, verifies the write and
// commits it. Git failures are logged only. On error the previous file is
// left intact.
func (s *Store) Save(ctx context.Context, doc *models.Document, change Change) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode: %w: %w", apperr.ErrStorage, err)
	}
	name := s.Primary()
	if err := s.fs.Write(name, data); err != nil {
		return fmt.Errorf("storage: save: %w: %w", apperr.ErrStorage, err)
	}
	if err := s.verify(name, doc.Len()); err != nil {
		return err
	}
	s.logger.Debug("knowledge base saved",
		slog.String("file", name),
		slog.Int("bytes", len(data)),
		slog.Int("articles", doc.Len()))

	if s.syncer != nil {
		if err := s.syncer.Commit(ctx, name, change.Message()); err != nil {
			s.logger.Warn("data commit failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *Store) verify(name string, want int) error {
	raw, err := s.fs.Read(name)
	if err != nil {
		return fmt.Errorf("storage: verify: %w: %w", apperr.ErrStorage, err)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return fmt.Errorf("storage: verify: %w: %w", apperr.ErrStorage, err)
	}
	if len(keys) != want {
		return fmt.Errorf("storage: verify: %d keys written, want %d: %w", len(keys), want, apperr.ErrStorage)
	}
	return nil
}

// Mutate applies fn to a document the caller loaded and saves it once.
// Nothing is written when fn fails or returns a change of kind ChangeNone.
func (s *Store) Mutate(ctx context.Context, doc *models.Document, fn func(doc *models.Document) (Change, error)) error {
	change, err := fn(doc)
	if err != nil {
		return err
	}
	if change.Kind == ChangeNone {
		return nil
	}
	return s.Save(ctx, doc, change)
}
