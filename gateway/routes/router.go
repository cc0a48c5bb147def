package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stakepool/gateway/middleware"
)

const queryLimitKey = "query"

type Config struct {
	Ledger        Ledger
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	// MetricsHandler defaults to the process-wide Prometheus registry.
	MetricsHandler http.Handler
}

// New builds the read-only query surface.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)

	q := &queryRoutes{ledger: cfg.Ledger}
	r.Route("/v1", func(sr chi.Router) {
		if cfg.RateLimiter != nil {
			sr.Use(cfg.RateLimiter.Middleware(queryLimitKey))
		}
		q.mount(sr, cfg.Observability)
	})
	return r
}

// QueryLimits maps a per-client rate onto the query route group.
func QueryLimits(perSecond float64, burst int) map[string]middleware.RateLimit {
	return map[string]middleware.RateLimit{
		queryLimitKey: {RatePerSecond: perSecond, Burst: burst},
	}
}
