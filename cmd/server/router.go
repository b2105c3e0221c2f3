package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"termo/internal/document/artifact"
	docHandler "termo/internal/document/handler"
	participantHandler "termo/internal/participant/handler"
	"termo/internal/platform/metrics"
	"termo/pkg/platform/httputil"
	"termo/pkg/platform/middleware/accesslog"
	"termo/pkg/platform/middleware/requestid"
	"termo/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

type routerDeps struct {
	log          *slog.Logger
	metrics      *metrics.Metrics
	registry     *prometheus.Registry
	participants participantHandler.Service
	documents    docHandler.Service
	paths        artifact.Paths
	location     *time.Location
	checks       map[string]func(context.Context) error
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(accesslog.Middleware(d.log, d.metrics.ObserveHTTP))
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(d.checks))
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{Registry: d.registry}))

	participantHandler.New(d.participants, d.log, d.location).Register(r)
	docHandler.New(d.documents, d.log, d.paths).Register(r)
	return r
}

// healthHandler reports each backing service; any failure is a 503.
func healthHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status, code := "ok", http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = "down"
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, code, map[string]any{"status": status, "checks": results})
	}
}
