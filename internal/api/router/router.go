package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Waleed-coder079/clinic-receptionist/internal/appointments"
	httpmiddleware "github.com/Waleed-coder079/clinic-receptionist/internal/http/middleware"
	"github.com/Waleed-coder079/clinic-receptionist/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *appointments.Handler
	MetricsHandler      http.Handler
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	h := cfg.AppointmentsHandler
	r.Get("/health", h.HealthCheck)
	r.Get("/clinic/now", h.ClinicNow)
	r.Get("/availability", h.Availability)

	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Book)
		r.Delete("/", h.Cancel)
		r.Delete("/{appointmentID}", h.CancelByID)
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
