// Package bridge exposes the coordinator over HTTP so that a UI running
// outside the process can send messages and read replies.
package bridge

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter constructs the bridge API.
//
// Routes:
//
//	POST /messages → Handler.Messages
//	GET  /healthz  → Handler.Health
func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentType("application/json"))
		r.Post("/messages", h.Messages)
	})

	return r
}
