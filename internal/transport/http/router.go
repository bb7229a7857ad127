// Package httptransport wires the HTTP surface of the service.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rolodex/internal/professional/handler"
	"rolodex/internal/transport/http/shared"
)

// NewRouter mounts the professional endpoints plus health and metrics.
func NewRouter(professionals *handler.Handler, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	professionals.Register(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return r
}
