package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clinicore/clinic-scheduling/internal/schedule"
	"github.com/clinicore/clinic-scheduling/pkg/logging"
)

type RouterConfig struct {
	Service  *schedule.Service
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Logger   *logging.Logger
	Registry *prometheus.Registry
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	// Calendar queries
	r.Get("/appointments", listAppointmentsHandler(cfg.Service))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
	r.Get("/appointments/{id}/events", listEventsHandler(cfg.Service))

	// Calendar mutations
	r.Post("/appointments", createAppointmentHandler(cfg.Service))
	r.Post("/appointments/{id}/move", moveAppointmentHandler(cfg.Service))
	r.Post("/appointments/{id}/status", changeStatusHandler(cfg.Service))
	r.Delete("/appointments/{id}", deleteAppointmentHandler(cfg.Service))

	// No-show substitution workflow
	r.Post("/appointments/{id}/substitution", createSubstitutionHandler(cfg.Service))
	r.Put("/appointments/{id}/substitution", editSubstitutionHandler(cfg.Service))
	r.Delete("/appointments/{id}/substitution", cancelSubstitutionHandler(cfg.Service))

	// Derived billing records
	r.Post("/appointments/{id}/payment", ensurePaymentHandler(cfg.Service))
	r.Post("/appointments/{id}/invoice", ensureInvoiceHandler(cfg.Service))

	return r
}
