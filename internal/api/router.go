package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/bindings", s.handleBindings)
		r.Get("/edges", s.handleListEdges)

		r.Route("/nodes", func(r chi.Router) {
			r.Get("/", s.handleListNodes)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetNode)
				r.Put("/properties/{name}", s.handleSetProperty)
				r.Get("/properties/{name}/stream", s.handlePropertyStream)
			})
		})
	})

	return r
}

// handleHealth returns the server health status with graph counts.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	b := s.bindings.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"version":         s.version,
		"nodes":           len(s.store.Nodes()),
		"edges":           len(s.store.Edges()),
		"devices_bound":   len(b.Devices),
		"behaviours_live": len(b.Behaviours),
		"stream_clients":  s.hub.ClientCount(),
	})
}

// handleBindings returns every live device binding and routing behaviour.
func (s *Server) handleBindings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.bindings.Snapshot())
}
