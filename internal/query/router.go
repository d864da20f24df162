package query

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trailview/internal/platform/middleware"
)

// NewRouter assembles the service routes. Health and metrics are public;
// event reads require a bearer token accepted by validator.
func NewRouter(h *Handler, validator middleware.JWTValidator, gatherer prometheus.Gatherer, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		h.Register(r)
	})
	return r
}
