// Package models defines the domain types for jstrack.
package models

import "time"

// DefaultLevel is assigned to articles that do not declare a level.
const DefaultLevel = "concept"

// Level values used by the catalogue.
const (
	LevelSyntax  = "syntax"
	LevelConcept = "concept"
)

// Article is one learning topic of the catalogue.
type Article struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	URL          string        `json:"url"`
	Level        string        `json:"level"`
	Description  string        `json:"description,omitempty"`
	Category     string        `json:"category,omitempty"`
	Progress     int           `json:"progress"`
	Sections     []*Section    `json:"sections"`
	Applications []Application `json:"applications"`
}

// Section is a subtopic of an article that can be applied on its own.
type Section struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	URL          string        `json:"url"`
	Applications []Application `json:"applications"`
}

// Application records that a subtopic was implemented in a project at a commit.
type Application struct {
	Project   string    `json:"project"`
	Commit    string    `json:"commit"`
	Date      time.Time `json:"date,omitzero"`
	CommitURL string    `json:"commitUrl,omitempty"`
}

// Section returns the subtopic with the given id.
func (a *Article) Section(id string) (*Section, bool) {
	for _, s := range a.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// ApplicationCount counts legacy article-level and section-level applications.
func (a *Article) ApplicationCount() int {
	n := len(a.Applications)
	for _, s := range a.Sections {
		n += len(s.Applications)
	}
	return n
}

// Applied reports whether the subtopic has at least one application.
func (s *Section) Applied() bool {
	return len(s.Applications) > 0
}

// HasApplication reports whether (project, commit) is already linked.
func HasApplication(apps []Application, project, commit string) bool {
	for _, app := range apps {
		if app.Project == project && app.Commit == commit {
			return true
		}
	}
	return false
}
