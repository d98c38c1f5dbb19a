package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-booking-gateway/internal/booking"
)

type RouterConfig struct {
	Service  *booking.Service
	PgPool   *pgxpool.Pool // nil when the journal is disabled
	Redis    *redis.Client // nil when running with the in-process locker
	Gatherer prometheus.Gatherer
	APIKey   string
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Booking endpoints, behind the shared-key check
	r.Group(func(r chi.Router) {
		r.Use(APIKeyMiddleware(cfg.APIKey))
		r.Get("/free-slots", freeSlotsHandler(cfg.Service))
		r.Post("/create-booking", createBookingHandler(cfg.Service))
	})

	return r
}
