// internal/gateway/routes.go
package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the HTTP surface: the webhook ingress plus the
// read-only status endpoints.
func (g *Gateway) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", g.handleRoot)
	r.Get("/health", g.handleHealth)
	r.Get("/task/{id}", g.handleTaskStatus)
	r.Post("/webhook/job-match", g.handleWebhook)

	return r
}
