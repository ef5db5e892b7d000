// Package gateway serves a read-only REST surface over the settlement node.
// Mutating operations go through the JSON-RPC endpoint; the gateway exists so
// dashboards and indexers can poll state without holding the RPC token.
package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"watchvault/core"
	"watchvault/gateway/middleware"
)

type Config struct {
	Node        *core.Node
	RateLimiter *middleware.RateLimiter
}

// New builds the gateway router. Every module group carries its own rate
// limit key so one noisy consumer cannot starve the rest.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	handlers := &restHandlers{node: cfg.Node}

	mount := func(prefix, limitKey string, register func(chi.Router)) {
		r.Route(prefix, func(sr chi.Router) {
			if cfg.RateLimiter != nil {
				sr.Use(cfg.RateLimiter.Middleware(limitKey))
			}
			register(sr)
		})
	}

	mount("/v1/assets", "registry", handlers.assetRoutes)
	mount("/v1/prices", "oracle", handlers.priceRoutes)
	mount("/v1/lending", "lending", handlers.lendingRoutes)
	mount("/v1/fractions", "fractional", handlers.fractionRoutes)
	mount("/v1/amm", "amm", handlers.ammRoutes)
	mount("/v1/bank", "bank", handlers.bankRoutes)

	r.Get("/v1/info", handlers.info)
	r.Get("/v1/events", handlers.events)

	return r
}

type restHandlers struct {
	node *core.Node
}
