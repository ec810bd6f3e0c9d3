// Package registry manages application records on subtopics: linking a
// commit to a subtopic, duplicate detection, lookups and bulk removal.
//
// All functions mutate or read the in-memory document only; persisting the
// result is up to the caller.
package registry

import (
	"fmt"
	"sort"
	"time"

	"github.com/starford/jstrack/internal/apperr"
	"github.com/starford/jstrack/internal/models"
	"github.com/starford/jstrack/internal/progress"
)

var (
	ErrArticleNotFound      = fmt.Errorf("article %w", apperr.ErrNotFound)
	ErrSectionNotFound      = fmt.Errorf("subtopic %w", apperr.ErrNotFound)
	ErrDuplicateApplication = fmt.Errorf("application %w", apperr.ErrAlreadyExists)
)

// Usage locates one application record in the document.
type Usage struct {
	ArticleID    string    `json:"article_id"`
	ArticleTitle string    `json:"article_title"`
	SectionID    string    `json:"section_id,omitempty"`
	SectionTitle string    `json:"section_title,omitempty"`
	SectionURL   string    `json:"section_url,omitempty"`
	Project      string    `json:"project"`
	Commit       string    `json:"commit"`
	Date         time.Time `json:"date,omitzero"`
}

// CommitURLFunc derives the browsable URL of a commit.
type CommitURLFunc func(project, commit string) string

// Registry applies subtopics. The zero value is usable.
type Registry struct {
	commitURL CommitURLFunc
	now       func() time.Time
}

// New creates a registry. commitURL may be nil.
func New(commitURL CommitURLFunc) *Registry {
	return &Registry{commitURL: commitURL, now: time.Now}
}

// ApplyParams identifies the subtopic and the commit to link.
type ApplyParams struct {
	ArticleID string
	SectionID string
	Project   string
	Commit    string
}

// ApplyResult is returned by a successful Apply.
type ApplyResult struct {
	Article     *models.Article
	Section     *models.Section
	Application models.Application
	Progress    progress.Change
}

// Apply links p.Commit in p.Project to the subtopic, then recomputes the
// article progress. The document is left untouched on any error.
func (r *Registry) Apply(doc *models.Document, p ApplyParams) (*ApplyResult, error) {
	a, ok := doc.Get(p.ArticleID)
	if !ok {
		return nil, fmt.Errorf("registry: %q: %w", p.ArticleID, ErrArticleNotFound)
	}
	s, ok := a.Section(p.SectionID)
	if !ok {
		return nil, fmt.Errorf("registry: %q in %q: %w", p.SectionID, p.ArticleID, ErrSectionNotFound)
	}
	if models.HasApplication(s.Applications, p.Project, p.Commit) {
		return nil, fmt.Errorf("registry: %s@%s on %s/%s: %w", p.Project, p.Commit, p.ArticleID, p.SectionID, ErrDuplicateApplication)
	}

	now := time.Now
	if r.now != nil {
		now = r.now
	}
	app := models.Application{
		Project: p.Project,
		Commit:  p.Commit,
		Date:    now().UTC(),
	}
	if r.commitURL != nil {
		app.CommitURL = r.commitURL(p.Project, p.Commit)
	}
	s.Applications = append(s.Applications, app)

	return &ApplyResult{
		Article:     a,
		Section:     s,
		Application: app,
		Progress:    progress.Apply(a),
	}, nil
}

// Unapply removes every application with the given commit from one
// subtopic, whatever its project, and returns the removed records in their
// original order. Progress is left to the caller.
func Unapply(doc *models.Document, articleID, sectionID, commit string) []Usage {
	a, ok := doc.Get(articleID)
	if !ok {
		return nil
	}
	s, ok := a.Section(sectionID)
	if !ok {
		return nil
	}
	var removed []Usage
	kept := make([]models.Application, 0, len(s.Applications))
	for _, app := range s.Applications {
		if app.Commit == commit {
			removed = append(removed, usage(a, s, app))
			continue
		}
		kept = append(kept, app)
	}
	s.Applications = kept
	return removed
}

// IsAlreadyLinked reports whether (project, commit) is linked to the
// subtopic, or, when sectionID is empty, anywhere in the article including
// its legacy article-level list.
func IsAlreadyLinked(doc *models.Document, articleID, project, commit, sectionID string) bool {
	a, ok := doc.Get(articleID)
	if !ok {
		return false
	}
	if sectionID != "" {
		s, ok := a.Section(sectionID)
		return ok && models.HasApplication(s.Applications, project, commit)
	}
	if models.HasApplication(a.Applications, project, commit) {
		return true
	}
	for _, s := range a.Sections {
		if models.HasApplication(s.Applications, project, commit) {
			return true
		}
	}
	return false
}

// FindUsagesOfCommit lists every place commit is linked, in document order.
// An empty project matches all projects.
func FindUsagesOfCommit(doc *models.Document, commit, project string) []Usage {
	var out []Usage
	visit(doc, func(a *models.Article, s *models.Section, app models.Application) {
		if app.Commit != commit || (project != "" && app.Project != project) {
			return
		}
		out = append(out, usage(a, s, app))
	})
	return out
}

// ListAll flattens every subtopic application, most recent first.
func ListAll(doc *models.Document) []Usage {
	var out []Usage
	for _, a := range doc.Articles() {
		for _, s := range a.Sections {
			for _, app := range s.Applications {
				out = append(out, usage(a, s, app))
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Criteria narrows FindByCriteria. Commit is required.
type Criteria struct {
	Article string
	Section string
	Commit  string
}

// FindByCriteria returns subtopic applications whose commit matches,
// optionally limited to one article and one subtopic.
func FindByCriteria(doc *models.Document, c Criteria) []Usage {
	if c.Commit == "" {
		return nil
	}
	var out []Usage
	for _, a := range doc.Articles() {
		if c.Article != "" && a.ID != c.Article {
			continue
		}
		for _, s := range a.Sections {
			if c.Section != "" && s.ID != c.Section {
				continue
			}
			for _, app := range s.Applications {
				if app.Commit == c.Commit {
					out = append(out, usage(a, s, app))
				}
			}
		}
	}
	return out
}

// ProjectArticle is an article together with its applications in one project.
type ProjectArticle struct {
	Article *models.Article `json:"article"`
	Usages  []Usage         `json:"usages"`
}

// ArticlesByProject groups the applications recorded for project by article.
func ArticlesByProject(doc *models.Document, project string) []ProjectArticle {
	var out []ProjectArticle
	for _, a := range doc.Articles() {
		var usages []Usage
		for _, app := range a.Applications {
			if app.Project == project {
				usages = append(usages, usage(a, nil, app))
			}
		}
		for _, s := range a.Sections {
			for _, app := range s.Applications {
				if app.Project == project {
					usages = append(usages, usage(a, s, app))
				}
			}
		}
		if len(usages) > 0 {
			out = append(out, ProjectArticle{Article: a, Usages: usages})
		}
	}
	return out
}

// visit walks legacy article-level records and subtopic records in document order.
func visit(doc *models.Document, fn func(a *models.Article, s *models.Section, app models.Application)) {
	for _, a := range doc.Articles() {
		for _, app := range a.Applications {
			fn(a, nil, app)
		}
		for _, s := range a.Sections {
			for _, app := range s.Applications {
				fn(a, s, app)
			}
		}
	}
}

func usage(a *models.Article, s *models.Section, app models.Application) Usage {
	u := Usage{
		ArticleID:    a.ID,
		ArticleTitle: a.Title,
		Project:      app.Project,
		Commit:       app.Commit,
		Date:         app.Date,
	}
	if s != nil {
		u.SectionID = s.ID
		u.SectionTitle = s.Title
		u.SectionURL = s.URL
	}
	return u
}
