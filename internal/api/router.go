package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/askrelay/askrelay/internal/api/middleware"
	"github.com/askrelay/askrelay/internal/broker"
	"github.com/askrelay/askrelay/internal/config"
	"github.com/askrelay/askrelay/internal/handlers"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, cfg *config.Config, b *broker.Broker) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - allow all origins (producers call from anywhere)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(b, logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", h.Health)

	r.Route("/v1", func(r chi.Router) {
		jsonBody := middleware.MaxBodySize(cfg.MaxBodyBytes)

		r.With(jsonBody).Post("/questions", h.SubmitQuestion)
		r.Get("/questions/long-poll", h.LongPollQuestions)

		r.With(jsonBody).Post("/attachments", h.SubmitAttachment)
		r.With(middleware.MaxBodySize(cfg.MaxUploadBytes)).Post("/attachments/upload", h.UploadAttachment)
		r.Get("/attachments/{id}", h.GetAttachment)

		r.With(jsonBody).Post("/answers", h.SubmitAnswer)
	})

	// Read-only introspection for operators
	r.Route("/admin", func(r chi.Router) {
		r.Get("/questions", h.ListQuestions)
		r.Get("/answers", h.ListAnswers)
		r.Get("/attachments", h.ListAttachments)
	})

	return r
}
