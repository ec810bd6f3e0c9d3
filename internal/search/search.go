// Package search ranks catalogue articles and subtopics against a free-text query.
package search

import (
	"sort"
	"strings"

	"github.com/starford/jstrack/internal/models"
)

// DefaultSectionLimit caps Sections results when no limit is given.
const DefaultSectionLimit = 8

// Hit is one ranked article.
type Hit struct {
	Article      *models.Article `json:"article"`
	Score        int             `json:"score"`
	Applications int             `json:"applications"`
}

// SectionHit is one ranked subtopic.
type SectionHit struct {
	Article *models.Article `json:"article"`
	Section *models.Section `json:"section"`
	Score   int             `json:"score"`
}

func contains(field, q string) bool {
	return strings.Contains(strings.ToLower(field), q)
}

// Matches reports whether the query occurs in the article's title, id, url
// or description, or in any subtopic's title, id or url.
func Matches(a *models.Article, query string) bool {
	q := strings.ToLower(query)
	if contains(a.Title, q) || contains(a.ID, q) || contains(a.URL, q) || contains(a.Description, q) {
		return true
	}
	for _, s := range a.Sections {
		if contains(s.Title, q) || contains(s.ID, q) || contains(s.URL, q) {
			return true
		}
	}
	return false
}

// Relevance scores every matching field additively: +3 for the article
// title, +2 for its id, url, description and level; +2 for a subtopic
// title and +1 for a subtopic id or url.
func Relevance(a *models.Article, query string) int {
	q := strings.ToLower(query)
	score := 0
	if contains(a.Title, q) {
		score += 3
	}
	for _, f := range []string{a.ID, a.URL, a.Description, a.Level} {
		if contains(f, q) {
			score += 2
		}
	}
	for _, s := range a.Sections {
		if contains(s.Title, q) {
			score += 2
		}
		if contains(s.ID, q) {
			score++
		}
		if contains(s.URL, q) {
			score++
		}
	}
	return score
}

// Search returns matching articles. Articles with any recorded application
// come first, then higher relevance; ties keep document order. limit caps
// the result after ranking; limit <= 0 returns everything.
func Search(articles []*models.Article, query string, limit int) []Hit {
	var hits []Hit
	for _, a := range articles {
		if !Matches(a, query) {
			continue
		}
		hits = append(hits, Hit{
			Article:      a,
			Score:        Relevance(a, query),
			Applications: a.ApplicationCount(),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		ai, aj := hits[i].Applications > 0, hits[j].Applications > 0
		if ai != aj {
			return ai
		}
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// Sections ranks individual subtopics for picking one to apply: +3 when
// the subtopic title matches, +2 for its id, +1 for the owning article
// title. Only positive scores are returned.
func Sections(articles []*models.Article, query string, limit int) []SectionHit {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSectionLimit
	}
	var hits []SectionHit
	for _, a := range articles {
		titleMatch := contains(a.Title, q)
		for _, s := range a.Sections {
			score := 0
			if contains(s.Title, q) {
				score += 3
			}
			if contains(s.ID, q) {
				score += 2
			}
			if titleMatch {
				score++
			}
			if score > 0 {
				hits = append(hits, SectionHit{Article: a, Section: s, Score: score})
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// MatchingSections returns the subtopics of a whose title contains query.
func MatchingSections(a *models.Article, query string, limit int) []*models.Section {
	q := strings.ToLower(query)
	var out []*models.Section
	for _, s := range a.Sections {
		if contains(s.Title, q) {
			out = append(out, s)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}
