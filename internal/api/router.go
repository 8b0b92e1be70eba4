package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))
	r.Use(SessionMiddleware(h.stats))

	// Answering.
	r.Post("/messages", h.PostMessage)

	// Template registry admin.
	r.Get("/templates", h.ListTemplates)
	r.Post("/templates", h.AddTemplate)
	r.Post("/templates/reload", h.ReloadTemplates)
	r.Get("/templates/{id}", h.GetTemplate)

	// Usage statistics.
	r.Get("/stats", h.Stats)

	// Registry event stream.
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
