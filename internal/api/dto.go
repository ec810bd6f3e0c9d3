package api

import (
	"github.com/starford/jstrack/internal/journal"
	"github.com/starford/jstrack/internal/models"
	"github.com/starford/jstrack/internal/registry"
	"github.com/starford/jstrack/internal/search"
)

// ArticleListResponse wraps a filtered article listing.
type ArticleListResponse struct {
	Articles []*models.Article `json:"articles" validate:"required"`
	Total    int               `json:"total" example:"42" validate:"required"`
	Shown    int               `json:"shown" example:"5" validate:"required"`
}

// SearchResponse wraps ranked article hits.
type SearchResponse struct {
	Results []search.Hit `json:"results" validate:"required"`
}

// SectionSearchResponse wraps ranked subtopic hits.
type SectionSearchResponse struct {
	Results []search.SectionHit `json:"results" validate:"required"`
}

// ApplicationsResponse wraps application records.
type ApplicationsResponse struct {
	Applications []registry.Usage `json:"applications" validate:"required"`
}

// ProjectResponse lists the articles applied in one project.
type ProjectResponse struct {
	Project  string                    `json:"project" example:"todo-app" validate:"required"`
	Articles []registry.ProjectArticle `json:"articles" validate:"required"`
}

// HistoryResponse wraps journal events.
type HistoryResponse struct {
	Events []journal.Event `json:"events" validate:"required"`
}
