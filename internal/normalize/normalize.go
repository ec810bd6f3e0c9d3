// Package normalize turns any previously written knowledge-base JSON into
// the canonical flat document.
//
// Two on-disk shapes exist:
//
//   - grouped: {"<category>": {"title": "...", "articles": [ {...}, ... ]}, ...}
//   - flat:    {"<article-id>": {...article...}, ...}
//
// The shape is decided once by looking at the first top-level value. Every
// optional field is materialized here so downstream code never checks for
// presence again.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/starford/jstrack/internal/models"
)

// Shape identifies the on-disk layout of a document.
type Shape string

const (
	ShapeEmpty   Shape = "empty"
	ShapeFlat    Shape = "flat"
	ShapeGrouped Shape = "grouped"
)

// Report describes what Normalize found.
type Report struct {
	Shape   Shape
	Skipped int // grouped articles dropped for lacking an id
}

type rawGroup struct {
	Title    string            `json:"title"`
	Articles []json.RawMessage `json:"articles"`
}

type rawArticle struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	URL          string          `json:"url"`
	Level        string          `json:"level"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Progress     *int            `json:"progress"`
	Applied      bool            `json:"applied"`
	Sections     []rawSection    `json:"sections"`
	Applications json.RawMessage `json:"applications"`
}

type rawSection struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	URL          string          `json:"url"`
	Applications json.RawMessage `json:"applications"`
}

// Normalize parses raw and returns the canonical document.
func Normalize(raw []byte) (*models.Document, Report, error) {
	doc := models.NewDocument()
	if len(bytes.TrimSpace(raw)) == 0 {
		return doc, Report{Shape: ShapeEmpty}, nil
	}

	top := orderedmap.New[string, json.RawMessage]()
	if err := top.UnmarshalJSON(raw); err != nil {
		return nil, Report{}, fmt.Errorf("normalize: parse document: %w", err)
	}
	first := top.Oldest()
	if first == nil {
		return doc, Report{Shape: ShapeEmpty}, nil
	}

	if isGrouped(first.Value) {
		rep, err := normalizeGrouped(doc, top)
		return doc, rep, err
	}

	for pair := top.Oldest(); pair != nil; pair = pair.Next() {
		var ra rawArticle
		if err := json.Unmarshal(pair.Value, &ra); err != nil {
			return nil, Report{}, fmt.Errorf("normalize: article %q: %w", pair.Key, err)
		}
		if ra.ID == "" {
			ra.ID = pair.Key
		}
		a, err := materialize(ra, "")
		if err != nil {
			return nil, Report{}, err
		}
		doc.Put(a)
	}
	return doc, Report{Shape: ShapeFlat}, nil
}

// isGrouped reports whether v is an object carrying an "articles" array.
func isGrouped(v json.RawMessage) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(v, &probe); err != nil {
		return false
	}
	arts, ok := probe["articles"]
	if !ok {
		return false
	}
	trimmed := bytes.TrimSpace(arts)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func normalizeGrouped(doc *models.Document, top *orderedmap.OrderedMap[string, json.RawMessage]) (Report, error) {
	rep := Report{Shape: ShapeGrouped}
	for pair := top.Oldest(); pair != nil; pair = pair.Next() {
		var g rawGroup
		if err := json.Unmarshal(pair.Value, &g); err != nil {
			// Non-group values (stray metadata) are ignored in the grouped shape.
			continue
		}
		category := g.Title
		if category == "" {
			category = pair.Key
		}
		for _, rawA := range g.Articles {
			var ra rawArticle
			if err := json.Unmarshal(rawA, &ra); err != nil {
				return rep, fmt.Errorf("normalize: group %q: %w", pair.Key, err)
			}
			if ra.ID == "" {
				rep.Skipped++
				continue
			}
			a, err := materialize(ra, category)
			if err != nil {
				return rep, err
			}
			doc.Put(a)
		}
	}
	return rep, nil
}

func materialize(ra rawArticle, category string) (*models.Article, error) {
	a := &models.Article{
		ID:          ra.ID,
		Title:       ra.Title,
		URL:         ra.URL,
		Level:       ra.Level,
		Description: ra.Description,
		Category:    ra.Category,
		Sections:    make([]*models.Section, 0, len(ra.Sections)),
	}
	if a.Level == "" {
		a.Level = models.DefaultLevel
	}
	if a.Category == "" {
		a.Category = category
	}

	apps, err := decodeApplications(ra.Applications)
	if err != nil {
		return nil, fmt.Errorf("normalize: article %q applications: %w", ra.ID, err)
	}
	a.Applications = apps

	for _, rs := range ra.Sections {
		sApps, err := decodeApplications(rs.Applications)
		if err != nil {
			return nil, fmt.Errorf("normalize: article %q section %q: %w", ra.ID, rs.ID, err)
		}
		a.Sections = append(a.Sections, &models.Section{
			ID:           rs.ID,
			Title:        rs.Title,
			URL:          rs.URL,
			Applications: sApps,
		})
	}

	switch {
	case ra.Progress != nil:
		a.Progress = clamp(*ra.Progress)
	case ra.Applied && len(a.Sections) == 0:
		a.Progress = 100
	}
	return a, nil
}

// decodeApplications accepts a list of records, null, or the legacy
// {"project": ["commit", ...]} map.
func decodeApplications(raw json.RawMessage) ([]models.Application, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []models.Application{}, nil
	}

	if trimmed[0] == '{' {
		byProject := orderedmap.New[string, []string]()
		if err := byProject.UnmarshalJSON(trimmed); err != nil {
			return nil, err
		}
		out := []models.Application{}
		for pair := byProject.Oldest(); pair != nil; pair = pair.Next() {
			for _, commit := range pair.Value {
				out = append(out, models.Application{Project: pair.Key, Commit: commit})
			}
		}
		return out, nil
	}

	var list []struct {
		Project   string `json:"project"`
		Commit    string `json:"commit"`
		Date      string `json:"date"`
		CommitURL string `json:"commitUrl"`
	}
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, err
	}
	out := make([]models.Application, 0, len(list))
	for _, item := range list {
		out = append(out, models.Application{
			Project:   item.Project,
			Commit:    item.Commit,
			Date:      parseDate(item.Date),
			CommitURL: item.CommitURL,
		})
	}
	return out, nil
}

// parseDate reads the RFC 3339 timestamps the tool writes. Unreadable
// values become the zero time rather than failing the whole load.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func clamp(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
