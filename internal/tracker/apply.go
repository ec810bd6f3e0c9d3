package tracker

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/jstrack/internal/apperr"
	"github.com/starford/jstrack/internal/github"
	"github.com/starford/jstrack/internal/journal"
	"github.com/starford/jstrack/internal/models"
	"github.com/starford/jstrack/internal/progress"
	"github.com/starford/jstrack/internal/registry"
	"github.com/starford/jstrack/internal/storage"
)

// ApplyRequest links Commit in Project to a subtopic.
type ApplyRequest struct {
	ArticleID string `json:"article_id"`
	SectionID string `json:"section_id"`
	Project   string `json:"project"`
	Commit    string `json:"commit"`
	// Validated skips the GitHub checks; the caller already ran Validate.
	Validated bool `json:"-"`
}

// Validate validates the request.
func (r *ApplyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ArticleID, validation.Required),
		validation.Field(&r.SectionID, validation.Required),
		validation.Field(&r.Project, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Commit, validation.Required, validation.Length(1, 100)),
	)
}

// ApplyOutcome reports a successful apply together with the validation
// results that preceded it.
type ApplyOutcome struct {
	Article           *models.Article
	Section           *models.Section
	Application       models.Application
	Progress          progress.Change
	ProjectValidation *github.Validation
	CommitValidation  *github.Validation
}

// Validate runs the GitHub checks for req without touching the document.
// The commit is only checked when the project was found and not skipped.
func (s *Service) Validate(ctx context.Context, project, commit string) (pv, cv *github.Validation, err error) {
	if s.validator == nil {
		return nil, nil, nil
	}
	p := s.validator.ProjectExists(ctx, project)
	pv = &p
	if !p.Exists {
		return pv, nil, fmt.Errorf("tracker: %q: %w", project, ErrProjectNotFound)
	}
	if p.Skipped {
		return pv, nil, nil
	}
	c := s.validator.CommitExists(ctx, project, commit)
	cv = &c
	if !c.Exists {
		return pv, cv, fmt.Errorf("tracker: %q in %q: %w", commit, project, ErrCommitNotFound)
	}
	return pv, cv, nil
}

// Apply validates req, records the application and saves the document once.
func (s *Service) Apply(ctx context.Context, req ApplyRequest) (*ApplyOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("tracker: apply: %w: %w", apperr.ErrInvalid, err)
	}
	sess, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	return sess.Apply(ctx, req)
}

func (s *Service) apply(ctx context.Context, doc *models.Document, req ApplyRequest) (*ApplyOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("tracker: apply: %w: %w", apperr.ErrInvalid, err)
	}

	var pv, cv *github.Validation
	if !req.Validated {
		var err error
		if pv, cv, err = s.Validate(ctx, req.Project, req.Commit); err != nil {
			return nil, err
		}
	}

	var res *registry.ApplyResult
	err := s.store.Mutate(ctx, doc, func(doc *models.Document) (storage.Change, error) {
		r, err := s.registry.Apply(doc, registry.ApplyParams{
			ArticleID: req.ArticleID,
			SectionID: req.SectionID,
			Project:   req.Project,
			Commit:    req.Commit,
		})
		if err != nil {
			return storage.Change{}, err
		}
		res = r
		return storage.Change{Kind: storage.ChangeApply, Section: r.Section.Title, Project: req.Project}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("application recorded",
		slog.String("article", req.ArticleID),
		slog.String("section", req.SectionID),
		slog.String("project", req.Project),
		slog.String("commit", req.Commit),
		slog.Int("progress", res.Progress.After))
	s.record(ctx, journal.Event{
		Kind:      journal.KindApply,
		ArticleID: req.ArticleID,
		SectionID: req.SectionID,
		Project:   req.Project,
		Commit:    req.Commit,
		Message:   res.Section.Title,
	})

	return &ApplyOutcome{
		Article:           res.Article,
		Section:           res.Section,
		Application:       res.Application,
		Progress:          res.Progress,
		ProjectValidation: pv,
		CommitValidation:  cv,
	}, nil
}

// UnapplyOutcome reports a batch removal.
type UnapplyOutcome struct {
	Removed  int
	Progress []progress.Change
}

// Unapply removes every target in one batch, recomputes progress for the
// touched articles and saves once. Each target removes all records with its
// commit in its subtopic, whatever their project, and every removed record
// is journaled. Nothing is written when nothing was removed.
func (s *Service) Unapply(ctx context.Context, targets []registry.Usage, label string) (*UnapplyOutcome, error) {
	if len(targets) == 0 {
		return &UnapplyOutcome{}, nil
	}
	sess, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	return sess.Unapply(ctx, targets, label)
}

func (s *Service) unapply(ctx context.Context, doc *models.Document, targets []registry.Usage, label string) (*UnapplyOutcome, error) {
	out := &UnapplyOutcome{}
	if len(targets) == 0 {
		return out, nil
	}
	if label == "" {
		label = multipleSections
		if len(targets) == 1 {
			label = targets[0].SectionTitle
		}
	}

	var removed []registry.Usage
	err := s.store.Mutate(ctx, doc, func(doc *models.Document) (storage.Change, error) {
		var touched []string
		seen := make(map[string]bool)
		for _, t := range targets {
			gone := registry.Unapply(doc, t.ArticleID, t.SectionID, t.Commit)
			if len(gone) == 0 {
				continue
			}
			removed = append(removed, gone...)
			if !seen[t.ArticleID] {
				seen[t.ArticleID] = true
				touched = append(touched, t.ArticleID)
			}
		}
		if len(removed) == 0 {
			return storage.Change{}, nil
		}
		for _, id := range touched {
			c, err := progress.Update(doc, id)
			if err != nil {
				return storage.Change{}, err
			}
			out.Progress = append(out.Progress, c)
		}
		return storage.Change{Kind: storage.ChangeUnapply, Section: label}, nil
	})
	if err != nil {
		return nil, err
	}

	out.Removed = len(removed)
	for _, u := range removed {
		s.record(ctx, journal.Event{
			Kind:      journal.KindUnapply,
			ArticleID: u.ArticleID,
			SectionID: u.SectionID,
			Project:   u.Project,
			Commit:    u.Commit,
			Message:   u.SectionTitle,
		})
	}
	if out.Removed > 0 {
		s.logger.Info("applications removed", slog.Int("removed", out.Removed))
	}
	return out, nil
}

// UnapplyByCriteria removes the subtopic applications matching c.
func (s *Service) UnapplyByCriteria(ctx context.Context, c registry.Criteria) (*UnapplyOutcome, error) {
	if c.Commit == "" {
		return nil, fmt.Errorf("tracker: unapply: commit is required: %w", apperr.ErrInvalid)
	}
	sess, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	return sess.Unapply(ctx, sess.FindApplications(c), "")
}
