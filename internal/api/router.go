package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Parameter endpoints. {name} is a full path, bare name,
			// or aliased form — dots are a single URL segment.
			r.Route("/params", func(r chi.Router) {
				r.Get("/", s.handleListParams)
				r.Get("/{name}", s.handleGetParam)
				r.Put("/{name}", s.handleSetParam)
			})

			// Parameter metadata for UI construction
			r.Get("/meta", s.handleMeta)

			// Persistence
			r.Post("/save", s.handleSave)
			r.Post("/load", s.handleLoad)

			// Presets
			r.Route("/presets", func(r chi.Router) {
				r.Get("/", s.handleListPresets)
				r.Post("/{slot}/activate", s.handleActivatePreset)
			})

			// WebSocket change feed
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"generation": s.st.Generation(),
	})
}
