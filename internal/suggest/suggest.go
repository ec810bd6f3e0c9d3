// Package suggest maps a free-text feature idea to a learning plan made of
// not-yet-applied articles.
package suggest

import (
	"strings"

	"github.com/starford/jstrack/internal/models"
)

const (
	perStep          = 2
	fallbackArticles = 3
)

// Step is one stage of a feature plan.
type Step struct {
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Feature is a known feature phrase and its ordered steps.
type Feature struct {
	Phrase string
	Title  string
	Steps  []Step
}

// ResolvedStep is a step together with the articles selected for it.
type ResolvedStep struct {
	Step
	Articles []*models.Article `json:"articles"`
}

// Plan is the result of PlanFor. Detailed is true when a known feature
// matched and Steps is populated; otherwise Articles holds the fallback
// picks.
type Plan struct {
	Feature  string            `json:"feature"`
	Title    string            `json:"title,omitempty"`
	Detailed bool              `json:"detailed"`
	Steps    []ResolvedStep    `json:"steps,omitempty"`
	Articles []*models.Article `json:"articles,omitempty"`
}

// Empty reports whether the plan surfaced no article at all.
func (p Plan) Empty() bool {
	if !p.Detailed {
		return len(p.Articles) == 0
	}
	for _, s := range p.Steps {
		if len(s.Articles) > 0 {
			return false
		}
	}
	return true
}

// DefaultFeatures is the built-in feature table.
var DefaultFeatures = []Feature{
	{
		Phrase: "form validation",
		Title:  "Form with validation",
		Steps: []Step{
			{"Handle form events and submission", []string{"forms", "events", "submit"}},
			{"Validate input values", []string{"regexp", "validation", "string"}},
			{"Show errors in the page", []string{"dom", "modifying"}},
		},
	},
	{
		Phrase: "todo",
		Title:  "Todo list",
		Steps: []Step{
			{"Model the list state", []string{"array", "object"}},
			{"Render items into the DOM", []string{"dom", "modifying"}},
			{"React to clicks and input", []string{"events", "delegation"}},
			{"Persist between reloads", []string{"localstorage", "json"}},
		},
	},
	{
		Phrase: "modal",
		Title:  "Modal window",
		Steps: []Step{
			{"Create and insert the dialog", []string{"dom", "modifying"}},
			{"Open and close on events", []string{"events", "keyboard"}},
			{"Animate appearance", []string{"animation", "css", "transition"}},
		},
	},
	{
		Phrase: "fetch",
		Title:  "Loading data from a server",
		Steps: []Step{
			{"Send the request", []string{"fetch", "xmlhttprequest"}},
			{"Handle the asynchronous result", []string{"promise", "async"}},
			{"Parse the payload", []string{"json"}},
			{"Deal with failures", []string{"error", "try-catch"}},
		},
	},
	{
		Phrase: "timer",
		Title:  "Timer or countdown",
		Steps: []Step{
			{"Schedule work", []string{"settimeout", "setinterval", "timers"}},
			{"Work with dates", []string{"date"}},
			{"Keep state between ticks", []string{"closure"}},
		},
	},
	{
		Phrase: "drag",
		Title:  "Drag and drop",
		Steps: []Step{
			{"Track pointer movement", []string{"mouse", "pointer", "events"}},
			{"Compute element positions", []string{"coordinates", "size", "scroll"}},
			{"Move elements", []string{"dom", "styles"}},
		},
	},
}

// DefaultKeywords maps loose keywords to topic fragments for the fallback
// lookup. Russian keywords are accepted alongside English ones.
var DefaultKeywords = map[string][]string{
	"form":       {"events", "forms"},
	"validation": {"events", "forms", "regexp"},
	"animation":  {"dom", "events", "timers"},
	"state":      {"closure", "object", "variables"},
	"data":       {"object", "array", "json"},
	"event":      {"events", "dom"},
	"форма":      {"events", "forms"},
	"валидация":  {"events", "forms", "regexp"},
	"анимация":   {"dom", "events", "timers"},
	"состояние":  {"closure", "object", "variables"},
	"данные":     {"object", "array", "json"},
	"события":    {"events", "dom"},
}

// Planner resolves feature ideas against a feature table.
type Planner struct {
	features []Feature
	keywords map[string][]string
}

// NewPlanner returns a planner over the given tables. Nil tables fall back
// to the defaults.
func NewPlanner(features []Feature, keywords map[string][]string) *Planner {
	if features == nil {
		features = DefaultFeatures
	}
	if keywords == nil {
		keywords = DefaultKeywords
	}
	return &Planner{features: features, keywords: keywords}
}

// PlanFor builds a plan for feature from the unused articles. The first
// feature whose phrase occurs in the input wins; each of its steps picks at
// most two articles independently. Without a match, up to three articles
// matching the fallback keywords are returned.
func (p *Planner) PlanFor(feature string, unused []*models.Article) Plan {
	input := strings.ToLower(strings.TrimSpace(feature))
	plan := Plan{Feature: feature}
	if input == "" {
		return plan
	}

	for _, f := range p.features {
		if !strings.Contains(input, strings.ToLower(f.Phrase)) {
			continue
		}
		plan.Detailed = true
		plan.Title = f.Title
		for _, step := range f.Steps {
			plan.Steps = append(plan.Steps, ResolvedStep{
				Step:     step,
				Articles: pick(unused, step.Keywords, perStep),
			})
		}
		return plan
	}

	var topics []string
	for kw, t := range p.keywords {
		if strings.Contains(input, kw) {
			topics = append(topics, t...)
		}
	}
	plan.Articles = pick(unused, topics, fallbackArticles)
	return plan
}

// Unused returns the articles that are not fully applied, in document order.
func Unused(doc *models.Document) []*models.Article {
	var out []*models.Article
	for _, a := range doc.Articles() {
		if a.Progress < 100 {
			out = append(out, a)
		}
	}
	return out
}

func pick(articles []*models.Article, keywords []string, max int) []*models.Article {
	if len(keywords) == 0 {
		return nil
	}
	var out []*models.Article
	for _, a := range articles {
		if matchesAny(a, keywords) {
			out = append(out, a)
			if len(out) == max {
				break
			}
		}
	}
	return out
}

func matchesAny(a *models.Article, keywords []string) bool {
	fields := []string{strings.ToLower(a.ID), strings.ToLower(a.Title)}
	for _, s := range a.Sections {
		fields = append(fields, strings.ToLower(s.Title))
	}
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		for _, f := range fields {
			if strings.Contains(f, kw) {
				return true
			}
		}
	}
	return false
}
