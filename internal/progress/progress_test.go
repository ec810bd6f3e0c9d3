package progress

import (
	"errors"
	"testing"

	"github.com/starford/jstrack/internal/apperr"
	"github.com/starford/jstrack/internal/models"
)

func section(id string, apps int) *models.Section {
	s := &models.Section{ID: id, Applications: []models.Application{}}
	for i := 0; i < apps; i++ {
		s.Applications = append(s.Applications, models.Application{Project: "p", Commit: string(rune('a' + i))})
	}
	return s
}

func TestCalculate(t *testing.T) {
	cases := []struct {
		name     string
		article  models.Article
		expected int
	}{
		{"no sections keeps stored", models.Article{Progress: 70}, 70},
		{"no sections default zero", models.Article{}, 0},
		{"one of one", models.Article{Sections: []*models.Section{section("a", 1)}}, 100},
		{"one of two", models.Article{Sections: []*models.Section{section("a", 1), section("b", 0)}}, 50},
		{"multiple apps count once", models.Article{Sections: []*models.Section{section("a", 3), section("b", 0), section("c", 0)}}, 33},
		{"two of three rounds up", models.Article{Sections: []*models.Section{section("a", 1), section("b", 1), section("c", 0)}}, 67},
		{"none applied", models.Article{Progress: 90, Sections: []*models.Section{section("a", 0)}}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Calculate(&tc.article)
			if got != tc.expected {
				t.Errorf("Calculate = %d, want %d", got, tc.expected)
			}
			if got < 0 || got > 100 {
				t.Errorf("Calculate = %d out of range", got)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	doc := models.NewDocument()
	doc.Put(&models.Article{ID: "closures", Progress: 0, Sections: []*models.Section{section("basic", 1), section("adv", 0)}})

	c, err := Update(doc, "closures")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if c.Before != 0 || c.After != 50 || !c.Changed() {
		t.Errorf("change = %+v, want 0 -> 50", c)
	}
	a, _ := doc.Get("closures")
	if a.Progress != 50 {
		t.Errorf("stored progress = %d, want 50", a.Progress)
	}

	if _, err := Update(doc, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSummarize(t *testing.T) {
	doc := models.NewDocument()
	doc.Put(&models.Article{ID: "a", Progress: 100, Sections: []*models.Section{section("s", 2)}})
	doc.Put(&models.Article{ID: "b", Progress: 40, Applications: []models.Application{{Project: "p", Commit: "x"}}})
	doc.Put(&models.Article{ID: "c"})
	doc.Put(&models.Article{ID: "d"})

	s := Summarize(doc)
	want := Summary{Total: 4, Completed: 1, InProgress: 1, NotStarted: 2, Applications: 3, Overall: 25}
	if s != want {
		t.Errorf("Summarize = %+v, want %+v", s, want)
	}
	if empty := Summarize(models.NewDocument()); empty.Overall != 0 {
		t.Errorf("empty overall = %d", empty.Overall)
	}
}

func TestBar(t *testing.T) {
	if got := Bar(50, 10); got != "█████░░░░░" {
		t.Errorf("Bar(50,10) = %q", got)
	}
	if got := Bar(150, 4); got != "████" {
		t.Errorf("Bar(150,4) = %q", got)
	}
	if got := []rune(Bar(0, 0)); len(got) != 20 {
		t.Errorf("default width = %d, want 20", len(got))
	}
}
