package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Diagrams CRUD + versions.
	r.Route("/diagrams", func(r chi.Router) {
		r.Get("/", h.ListDiagrams)
		r.Post("/", h.CreateDiagram)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetDiagram)
			r.Put("/", h.UpdateDiagram)
			r.Delete("/", h.DeleteDiagram)
			r.Post("/rename", h.RenameDiagram)
			r.Get("/versions", h.ListVersions)
			r.Get("/versions/{versionID}", h.GetVersion)
			r.Post("/versions/{versionID}/restore", h.RestoreVersion)
		})
	})

	// Generation.
	r.Post("/generate", h.Generate)
	r.Post("/generate/test", h.TestConnection)

	// Settings.
	r.Get("/settings", h.GetAllSettings)
	r.Get("/settings/{key}", h.GetSetting)
	r.Put("/settings/{key}", h.SetSetting)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
