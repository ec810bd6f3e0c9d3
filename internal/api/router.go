package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/jstrack/internal/tracker"
)

// NewRouter returns the read-only API, mounted under /api by the server.
// When authEnabled every route, events included, requires the bearer token.
// A nil events handler leaves GET /events unrouted.
func NewRouter(svc *tracker.Service, authEnabled bool, token string, events http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/articles", func(r chi.Router) {
		r.Get("/", h.ListArticles)
		r.Get("/{id}", h.GetArticle)
	})
	r.Get("/search", h.Search)
	r.Get("/sections", h.SearchSections)
	r.Get("/suggest", h.Suggest)

	r.Get("/stats", h.Stats)
	r.Get("/applications", h.Applications)
	r.Get("/projects/{name}", h.Project)
	r.Get("/history", h.History)

	if events != nil {
		r.Method(http.MethodGet, "/events", events)
	}
	return r
}
