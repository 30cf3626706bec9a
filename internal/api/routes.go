package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/pool", func(r chi.Router) {
			r.Post("/", h.UpsertPoolEntry)
			r.Get("/{id}", h.GetPoolEntry)
			r.Post("/{id}/bounce", h.MarkPoolEntryBounced)
			r.Post("/{id}/unsubscribe", h.MarkPoolEntryUnsubscribed)
		})

		r.Route("/allocations", func(r chi.Router) {
			r.Post("/", h.Allocate)
			r.Post("/{id}/release", h.ReleaseAssignment)
			r.Post("/{id}/convert", h.ConvertAssignment)
			r.Post("/{id}/touch", h.RecordTouch)
			r.Post("/{id}/reply", h.RecordReply)
		})

		r.Post("/admission/validate", h.Validate)

		r.Route("/resources", func(r chi.Router) {
			r.Get("/buffer-shortfall", h.BufferShortfall)
			r.Get("/{id}/capacity", h.GetCapacity)
			r.Post("/{id}/health", h.UpdateHealth)
			r.Post("/{id}/outcome", h.RecordSendOutcome)
		})

		r.Route("/tenants/{tenantID}", func(r chi.Router) {
			r.Post("/release-all", h.ReleaseAllAssignments)
			r.Get("/resources/best", h.SelectBestResource)
			r.Route("/suppressions", func(r chi.Router) {
				r.Get("/", h.ListSuppressions)
				r.Post("/", h.Suppress)
				r.Delete("/{email}", h.Unsuppress)
			})
		})
	})

	return r
}
