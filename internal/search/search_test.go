package search

import (
	"testing"

	"github.com/starford/jstrack/internal/models"
)

func art(id, title string, sections ...*models.Section) *models.Article {
	return &models.Article{ID: id, Title: title, URL: "https://learn.test/" + id, Level: "concept", Sections: sections}
}

func sec(id, title string, apps int) *models.Section {
	s := &models.Section{ID: id, Title: title, URL: "https://learn.test/s/" + id}
	for i := 0; i < apps; i++ {
		s.Applications = append(s.Applications, models.Application{Project: "p", Commit: "c"})
	}
	return s
}

func TestMatches(t *testing.T) {
	a := art("closures", "Closures in depth", sec("lexical-env", "Lexical Environment", 0))
	a.Description = "Functions remembering scope"

	for _, q := range []string{"CLOSURES", "depth", "learn.test", "remembering", "lexical", "Environment", "s/lexical"} {
		if !Matches(a, q) {
			t.Errorf("Matches(%q) = false", q)
		}
	}
	if Matches(a, "promise") {
		t.Error("Matches(promise) = true")
	}
}

func TestRelevance_Additive(t *testing.T) {
	a := &models.Article{ID: "events", Title: "Events", URL: "https://x/events", Level: "concept",
		Sections: []*models.Section{
			{ID: "events-keydown", Title: "Keyboard events", URL: "https://x/events#keydown"},
			{ID: "other", Title: "Other", URL: "https://x/other"},
		}}
	// title 3 + id 2 + url 2 + section title 2 + section id 1 + section url 1
	if got := Relevance(a, "events"); got != 11 {
		t.Errorf("Relevance = %d, want 11", got)
	}
	if got := Relevance(a, "concept"); got != 2 {
		t.Errorf("Relevance(level) = %d, want 2", got)
	}
}

func TestSearch_AppliedFirst(t *testing.T) {
	// A scores high with no applications; B scores low with one application.
	a := &models.Article{ID: "dom-query", Title: "DOM query", URL: "https://x/dom-query", Description: "query"}
	b := &models.Article{ID: "b", Title: "Basics", URL: "https://x/b", Sections: []*models.Section{sec("s", "Query strings", 1)}}
	if Relevance(a, "query") <= Relevance(b, "query") {
		t.Fatalf("fixture: A should outscore B")
	}

	hits := Search([]*models.Article{a, b}, "query", 0)
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].Article.ID != "b" {
		t.Errorf("first = %s, want applied article b", hits[0].Article.ID)
	}
}

func TestSearch_StableAndLimitedAfterSort(t *testing.T) {
	arts := []*models.Article{
		art("one", "Arrays one"),
		art("two", "Arrays two"),
		art("three", "Arrays three", sec("arrays-x", "Arrays extra", 0)),
	}
	hits := Search(arts, "arrays", 2)
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].Article.ID != "three" || hits[1].Article.ID != "one" {
		t.Errorf("order = %s,%s want three,one", hits[0].Article.ID, hits[1].Article.ID)
	}
	if none := Search(arts, "zzz", 5); len(none) != 0 {
		t.Errorf("no-match hits = %v", none)
	}
}

func TestSections(t *testing.T) {
	arts := []*models.Article{
		art("keyboard-events", "Keyboard", sec("keydown", "Keydown and keyup", 0), sec("input", "Input event", 0)),
		art("forms", "Forms keydown handling", sec("submit", "Submit", 0)),
	}
	hits := Sections(arts, "keydown", 0)
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].Section.ID != "keydown" || hits[0].Score != 5 {
		t.Errorf("first = %s score %d, want keydown 5", hits[0].Section.ID, hits[0].Score)
	}
	if hits[1].Section.ID != "submit" || hits[1].Score != 1 {
		t.Errorf("second = %s score %d, want submit 1", hits[1].Section.ID, hits[1].Score)
	}
	if Sections(arts, "   ", 0) != nil {
		t.Error("blank query should return nil")
	}
}

func TestMatchingSections(t *testing.T) {
	a := art("x", "X", sec("a", "Alpha event", 0), sec("b", "Beta event", 0), sec("c", "Gamma event", 0))
	if got := MatchingSections(a, "EVENT", 2); len(got) != 2 || got[0].ID != "a" {
		t.Errorf("MatchingSections = %v", got)
	}
}
