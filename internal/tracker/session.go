package tracker

import (
	"context"
	"fmt"

	"github.com/starford/jstrack/internal/github"
	"github.com/starford/jstrack/internal/models"
	"github.com/starford/jstrack/internal/registry"
	"github.com/starford/jstrack/internal/search"
)

// Session is one command's view of the knowledge base. The document is
// loaded once by Open; queries read that copy and a mutation saves it back.
// A Session is not safe for concurrent use.
type Session struct {
	svc *Service
	doc *models.Document
}

// Open loads the document for a session. Unlike the query methods of
// Service, a document that cannot be read is an error.
func (s *Service) Open(ctx context.Context) (*Session, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{svc: s, doc: doc}, nil
}

// Document returns the session's document.
func (x *Session) Document() *models.Document { return x.doc }

// Article returns one article by id.
func (x *Session) Article(id string) (*models.Article, error) {
	a, ok := x.doc.Get(id)
	if !ok {
		return nil, fmt.Errorf("tracker: %q: %w", id, registry.ErrArticleNotFound)
	}
	return a, nil
}

// SearchSections ranks subtopics for interactive apply.
func (x *Session) SearchSections(query string, limit int) []search.SectionHit {
	return search.Sections(x.doc.Articles(), query, limit)
}

// Applications lists every subtopic application, most recent first.
func (x *Session) Applications() []registry.Usage {
	return registry.ListAll(x.doc)
}

// FindApplications lists subtopic applications matching c.
func (x *Session) FindApplications(c registry.Criteria) []registry.Usage {
	return registry.FindByCriteria(x.doc, c)
}

// CommitUsages lists every place commit is linked. An empty project
// matches all projects.
func (x *Session) CommitUsages(commit, project string) []registry.Usage {
	return registry.FindUsagesOfCommit(x.doc, commit, project)
}

// Linked reports whether (project, commit) is already on the subtopic.
func (x *Session) Linked(req ApplyRequest) bool {
	return registry.IsAlreadyLinked(x.doc, req.ArticleID, req.Project, req.Commit, req.SectionID)
}

// Validate runs the GitHub checks; see Service.Validate.
func (x *Session) Validate(ctx context.Context, project, commit string) (pv, cv *github.Validation, err error) {
	return x.svc.Validate(ctx, project, commit)
}

// Apply records req on the session's document and saves it.
func (x *Session) Apply(ctx context.Context, req ApplyRequest) (*ApplyOutcome, error) {
	return x.svc.apply(ctx, x.doc, req)
}

// Unapply removes targets from the session's document and saves it once.
func (x *Session) Unapply(ctx context.Context, targets []registry.Usage, label string) (*UnapplyOutcome, error) {
	return x.svc.unapply(ctx, x.doc, targets, label)
}
