package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the HTTP-layer settings
type RouterConfig struct {
	AllowedOrigins []string
	RatePerSecond  float64
	RateBurst      int
}

// NewRouter mounts every route under its middleware stack
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Token", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RatePerSecond > 0 {
			r.Use(h.RateLimitMiddleware(NewRateLimiter(cfg.RatePerSecond, cfg.RateBurst)))
		}

		r.Route("/creatures", func(r chi.Router) {
			r.Get("/compare", h.CompareCreatures)
			r.Get("/{name}", h.GetCreature)
		})

		r.Get("/battles/predict", h.PredictBattle)
		r.Post("/battles/predict", h.PredictBattle)
		r.Get("/model", h.GetModel)

		r.Group(func(r chi.Router) {
			r.Use(h.AdminAuthMiddleware)
			r.Post("/admin/retrain", h.Retrain)
			r.Post("/ingest/combats", h.IngestCombats)
		})
	})

	return r
}
