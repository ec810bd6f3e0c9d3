// Package progress derives article completion from subtopic applications.
package progress

import (
	"fmt"
	"math"

	"github.com/starford/jstrack/internal/apperr"
	"github.com/starford/jstrack/internal/models"
)

// Change is the before/after value of one recomputation.
type Change struct {
	ArticleID string
	Before    int
	After     int
}

// Changed reports whether the stored value moved.
func (c Change) Changed() bool {
	return c.Before != c.After
}

// Calculate returns the completion percentage of a.
//
// Articles without subtopics keep their stored progress, which is set from
// outside. Otherwise progress is the rounded share of subtopics that have
// at least one application.
func Calculate(a *models.Article) int {
	if len(a.Sections) == 0 {
		return a.Progress
	}
	applied := 0
	for _, s := range a.Sections {
		if s.Applied() {
			applied++
		}
	}
	return int(math.Round(100 * float64(applied) / float64(len(a.Sections))))
}

// Update recomputes and stores the progress of one article.
func Update(doc *models.Document, articleID string) (Change, error) {
	a, ok := doc.Get(articleID)
	if !ok {
		return Change{}, fmt.Errorf("progress: article %q: %w", articleID, apperr.ErrNotFound)
	}
	return Apply(a), nil
}

// Apply recomputes and stores the progress of a.
func Apply(a *models.Article) Change {
	c := Change{ArticleID: a.ID, Before: a.Progress}
	a.Progress = Calculate(a)
	c.After = a.Progress
	return c
}

// Summary aggregates catalogue-wide statistics.
type Summary struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	InProgress   int `json:"in_progress"`
	NotStarted   int `json:"not_started"`
	Applications int `json:"applications"`
	Overall      int `json:"overall"`
}

// Summarize counts articles by completion state using stored progress.
func Summarize(doc *models.Document) Summary {
	var s Summary
	for _, a := range doc.Articles() {
		s.Total++
		switch {
		case a.Progress >= 100:
			s.Completed++
		case a.Progress > 0:
			s.InProgress++
		default:
			s.NotStarted++
		}
		s.Applications += a.ApplicationCount()
	}
	if s.Total > 0 {
		s.Overall = int(math.Round(100 * float64(s.Completed) / float64(s.Total)))
	}
	return s
}

// Bar renders a fixed-width text progress bar.
func Bar(percent, width int) string {
	if width <= 0 {
		width = 20
	}
	percent = max(0, min(100, percent))
	filled := percent * width / 100
	bar := make([]rune, width)
	for i := range bar {
		if i < filled {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}
	return string(bar)
}
