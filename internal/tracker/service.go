// Package tracker orchestrates the knowledge base: it loads the document,
// runs queries and mutations through the domain packages, validates against
// GitHub, persists once per operation and journals the result.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/jstrack/internal/apperr"
	"github.com/starford/jstrack/internal/github"
	"github.com/starford/jstrack/internal/journal"
	"github.com/starford/jstrack/internal/models"
	"github.com/starford/jstrack/internal/progress"
	"github.com/starford/jstrack/internal/registry"
	"github.com/starford/jstrack/internal/search"
	"github.com/starford/jstrack/internal/storage"
	"github.com/starford/jstrack/internal/suggest"
)

var (
	ErrProjectNotFound = fmt.Errorf("project %w", apperr.ErrNotFound)
	ErrCommitNotFound  = fmt.Errorf("commit %w", apperr.ErrNotFound)
	ErrJournalDisabled = errors.New("journal disabled")
)

const multipleSections = "multiple sections"

// Validator checks projects and commits on the source forge.
type Validator interface {
	ProjectExists(ctx context.Context, project string) github.Validation
	CommitExists(ctx context.Context, project, commit string) github.Validation
	CommitURL(project, commit string) string
}

// Journal records apply and unapply operations.
type Journal interface {
	Record(ctx context.Context, e journal.Event) (journal.Event, error)
	Recent(ctx context.Context, project string, limit int) ([]journal.Event, error)
	Search(ctx context.Context, query string, limit int) ([]journal.Event, error)
}

// Option configures a Service.
type Option func(*Service)

// WithValidator enables GitHub validation before apply.
func WithValidator(v Validator) Option {
	return func(s *Service) { s.validator = v }
}

// WithJournal records every successful mutation.
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithPlanner replaces the default suggestion planner.
func WithPlanner(p *suggest.Planner) Option {
	return func(s *Service) { s.planner = p }
}

// WithCommitURL sets how commit links are built when no validator does it.
func WithCommitURL(f registry.CommitURLFunc) Option {
	return func(s *Service) { s.commitURL = f }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service is the single entry point used by the CLI, API and MCP surfaces.
type Service struct {
	store     *storage.Store
	validator Validator
	journal   Journal
	planner   *suggest.Planner
	registry  *registry.Registry
	commitURL registry.CommitURLFunc
	logger    *slog.Logger
}

// New creates a Service over store.
func New(store *storage.Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.planner == nil {
		s.planner = suggest.NewPlanner(nil, nil)
	}
	if s.commitURL == nil && s.validator != nil {
		s.commitURL = s.validator.CommitURL
	}
	s.registry = registry.New(s.commitURL)
	return s
}

// Document returns the current document, empty when it cannot be loaded.
func (s *Service) Document(ctx context.Context) *models.Document {
	return s.store.LoadOrEmpty(ctx)
}

// Article returns one article by id.
func (s *Service) Article(ctx context.Context, id string) (*models.Article, error) {
	a, ok := s.Document(ctx).Get(id)
	if !ok {
		return nil, fmt.Errorf("tracker: %q: %w", id, registry.ErrArticleNotFound)
	}
	return a, nil
}

// ListFilter narrows List.
type ListFilter struct {
	Unused bool
	Level  string
	Limit  int
}

// ListResult is a page of articles and the number that matched.
type ListResult struct {
	Articles []*models.Article `json:"articles"`
	Total    int               `json:"total"`
}

// List returns articles in document order. Syntax-level articles are hidden
// unless Level asks for them.
func (s *Service) List(ctx context.Context, f ListFilter) ListResult {
	var matched []*models.Article
	for _, a := range s.Document(ctx).Articles() {
		switch {
		case f.Level != "" && a.Level != f.Level:
			continue
		case f.Level == "" && a.Level == models.LevelSyntax:
			continue
		case f.Unused && a.Progress >= 100:
			continue
		}
		matched = append(matched, a)
	}
	res := ListResult{Articles: matched, Total: len(matched)}
	if f.Limit > 0 && len(matched) > f.Limit {
		res.Articles = matched[:f.Limit]
	}
	if res.Articles == nil {
		res.Articles = []*models.Article{}
	}
	return res
}

// Search ranks articles against query.
func (s *Service) Search(ctx context.Context, query string, limit int) []search.Hit {
	return search.Search(s.Document(ctx).Articles(), query, limit)
}

// SearchSections ranks subtopics for interactive apply.
func (s *Service) SearchSections(ctx context.Context, query string, limit int) []search.SectionHit {
	return search.Sections(s.Document(ctx).Articles(), query, limit)
}

// Suggest plans a feature against the articles not yet completed.
func (s *Service) Suggest(ctx context.Context, feature string) suggest.Plan {
	return s.planner.PlanFor(feature, suggest.Unused(s.Document(ctx)))
}

// Stats summarizes the catalogue.
func (s *Service) Stats(ctx context.Context) progress.Summary {
	return progress.Summarize(s.Document(ctx))
}

// ProjectArticles lists articles applied in project.
func (s *Service) ProjectArticles(ctx context.Context, project string) []registry.ProjectArticle {
	return registry.ArticlesByProject(s.Document(ctx), project)
}

// Applications lists every subtopic application, most recent first.
func (s *Service) Applications(ctx context.Context) []registry.Usage {
	return registry.ListAll(s.Document(ctx))
}

// FindApplications lists subtopic applications matching c.
func (s *Service) FindApplications(ctx context.Context, c registry.Criteria) []registry.Usage {
	return registry.FindByCriteria(s.Document(ctx), c)
}

// CommitUsages lists every place commit is linked. An empty project
// matches all projects.
func (s *Service) CommitUsages(ctx context.Context, commit, project string) []registry.Usage {
	return registry.FindUsagesOfCommit(s.Document(ctx), commit, project)
}

// History returns recent journal events.
func (s *Service) History(ctx context.Context, project string, limit int) ([]journal.Event, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.Recent(ctx, project, limit)
}

// SearchHistory finds journal events mentioning query.
func (s *Service) SearchHistory(ctx context.Context, query string, limit int) ([]journal.Event, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.Search(ctx, query, limit)
}

func (s *Service) record(ctx context.Context, e journal.Event) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Record(ctx, e); err != nil {
		s.logger.Warn("journal record failed", slog.String("error", err.Error()))
	}
}
