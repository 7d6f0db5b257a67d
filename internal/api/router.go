package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/civisched/appointment-scheduling/internal/auth"
)

type RouterConfig struct {
	Handlers *Handlers
	Verifier *auth.Verifier
	Metrics  *Metrics
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Logger   zerolog.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RecoverMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(cfg.Metrics.Middleware)

	// Health + metrics
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	h := cfg.Handlers
	authn := AuthMiddleware(cfg.Verifier)

	// Public read path
	r.Get("/availability/available", h.listBookableSlots)

	// Officer routes
	r.Group(func(r chi.Router) {
		r.Use(authn, RequireRole(auth.RoleOfficer))

		r.Post("/availability", h.createAvailability)
		r.Get("/availability/mine", h.listMyAvailability)
		r.Put("/availability/{id}", h.updateSlot)
		r.Delete("/availability/{id}", h.deleteSlot)
		r.Delete("/availability/date/{date}", h.deleteSlotsForDate)
		r.Patch("/availability/status", h.bulkUpdateSlotStatus)

		r.Get("/appointments", h.listOfficerAppointments)
		r.Post("/appointments/{id}/complete", h.completeAppointment)

		r.Post("/admin/directory/reload", h.reloadDirectory)
	})

	// Citizen routes
	r.Group(func(r chi.Router) {
		r.Use(authn, RequireRole(auth.RoleCitizen))

		r.Post("/appointments", h.createAppointment)
		r.Get("/appointments/mine", h.listMyAppointments)
	})

	// Cancellation is shared: citizens cancel their own appointments,
	// officers cancel within their caseload.
	r.Group(func(r chi.Router) {
		r.Use(authn)

		r.Post("/appointments/{id}/cancel", h.cancelAppointment)
	})

	return r
}
