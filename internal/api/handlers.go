package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/jstrack/internal/apperr"
	"github.com/starford/jstrack/internal/journal"
	"github.com/starford/jstrack/internal/models"
	"github.com/starford/jstrack/internal/registry"
	"github.com/starford/jstrack/internal/tracker"
)

// Handler holds API route handlers.
type Handler struct {
	svc *tracker.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *tracker.Service) *Handler {
	return &Handler{svc: svc}
}

// ListArticles handles GET /api/articles.
//
//	@Summary		List articles in document order
//	@Tags			articles
//	@Produce		json
//	@Param			unused	query		bool	false	"Only articles below 100%"
//	@Param			level	query		string	false	"Filter by level"
//	@Param			limit	query		int		false	"Max articles"
//	@Success		200		{object}	ArticleListResponse
//	@Security		BearerAuth
//	@Router			/articles [get]
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	res := h.svc.List(r.Context(), tracker.ListFilter{
		Unused: boolParam(r, "unused"),
		Level:  r.URL.Query().Get("level"),
		Limit:  intParam(r, "limit"),
	})
	writeJSON(w, http.StatusOK, ArticleListResponse{
		Articles: res.Articles,
		Total:    res.Total,
		Shown:    len(res.Articles),
	})
}

// GetArticle handles GET /api/articles/{id}.
//
//	@Summary		Get one article with its subtopics
//	@Tags			articles
//	@Produce		json
//	@Param			id	path		string	true	"Article id"
//	@Success		200	{object}	models.Article
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/articles/{id} [get]
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.svc.Article(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "article not found")
		} else {
			slog.Error("get article failed", slog.String("id", id), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Search handles GET /api/search.
//
//	@Summary		Rank articles against a query
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: h.svc.Search(r.Context(), q, intParam(r, "limit"))})
}

// SearchSections handles GET /api/sections.
//
//	@Summary		Rank subtopics against a query
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SectionSearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sections [get]
func (h *Handler) SearchSections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	writeJSON(w, http.StatusOK, SectionSearchResponse{Results: h.svc.SearchSections(r.Context(), q, intParam(r, "limit"))})
}

// Stats handles GET /api/stats.
//
//	@Summary		Catalogue completion statistics
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	progress.Summary
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats(r.Context()))
}

// Applications handles GET /api/applications.
//
// With a commit parameter the result is narrowed like unapply would narrow
// it; otherwise every subtopic application is listed, newest first.
//
//	@Summary		List subtopic applications
//	@Tags			applications
//	@Produce		json
//	@Param			commit	query		string	false	"Commit hash"
//	@Param			article	query		string	false	"Article id (with commit)"
//	@Param			section	query		string	false	"Subtopic id (with commit)"
//	@Success		200		{object}	ApplicationsResponse
//	@Security		BearerAuth
//	@Router			/applications [get]
func (h *Handler) Applications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var usages []registry.Usage
	if commit := q.Get("commit"); commit != "" {
		usages = h.svc.FindApplications(r.Context(), registry.Criteria{
			Article: q.Get("article"),
			Section: q.Get("section"),
			Commit:  commit,
		})
	} else {
		usages = h.svc.Applications(r.Context())
	}
	if usages == nil {
		usages = []registry.Usage{}
	}
	writeJSON(w, http.StatusOK, ApplicationsResponse{Applications: usages})
}

// Project handles GET /api/projects/{name}.
//
//	@Summary		Articles applied in a project
//	@Tags			projects
//	@Produce		json
//	@Param			name	path		string	true	"Project name"
//	@Success		200		{object}	ProjectResponse
//	@Security		BearerAuth
//	@Router			/projects/{name} [get]
func (h *Handler) Project(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	articles := h.svc.ProjectArticles(r.Context(), name)
	if articles == nil {
		articles = []registry.ProjectArticle{}
	}
	writeJSON(w, http.StatusOK, ProjectResponse{Project: name, Articles: articles})
}

// Suggest handles GET /api/suggest.
//
//	@Summary		Plan a feature against unfinished articles
//	@Tags			suggest
//	@Produce		json
//	@Param			feature	query		string	true	"Feature description"
//	@Success		200		{object}	suggest.Plan
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/suggest [get]
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	feature := r.URL.Query().Get("feature")
	if feature == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'feature' is required")
		return
	}
	plan := h.svc.Suggest(r.Context(), feature)
	if plan.Articles == nil && !plan.Detailed {
		plan.Articles = []*models.Article{}
	}
	writeJSON(w, http.StatusOK, plan)
}

// History handles GET /api/history.
//
//	@Summary		Recent apply and unapply operations
//	@Tags			history
//	@Produce		json
//	@Param			project	query		string	false	"Filter by project"
//	@Param			q		query		string	false	"Full-text query"
//	@Param			limit	query		int		false	"Max events"
//	@Success		200		{object}	HistoryResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := intParam(r, "limit")

	var (
		events []journal.Event
		err    error
	)
	if text := q.Get("q"); text != "" {
		events, err = h.svc.SearchHistory(r.Context(), text, limit)
	} else {
		events, err = h.svc.History(r.Context(), q.Get("project"), limit)
	}
	if err != nil {
		if errors.Is(err, tracker.ErrJournalDisabled) {
			writeError(w, http.StatusNotFound, "journal disabled")
		} else {
			slog.Error("history failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	if events == nil {
		events = []journal.Event{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Events: events})
}
