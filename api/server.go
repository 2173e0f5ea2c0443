/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the back office frontend

ROUTE GROUPS:
  /api/*                       Back office API (see handlers.go)
  /api/admin/schema.sql        Migration script for the hosted database
  /api/scenarios/*             Demo data loaders
  /functions/create-checkout   Checkout function, when a provider is configured
  /metrics                     Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware. All endpoints are public.
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions carries the optional mounts of NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
	Checkout       http.Handler // nil disables /functions/create-checkout
	Metrics        http.Handler // nil disables /metrics
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// The checkout function sets its own permissive CORS.
	if opts.Checkout != nil {
		r.Mount("/functions/create-checkout", opts.Checkout)
	}
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}))

		r.Get("/status", h.GetStatus)
		r.Post("/status/probe", h.Probe)
		r.Get("/overview", h.GetOverview)

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", h.ListReservations)
			r.Post("/", h.CreateReservation)
			r.Patch("/{id}/status", h.UpdateReservationStatus)
			r.Get("/{id}/preorder", h.GetPreorder)
		})

		r.Route("/announcements", func(r chi.Router) {
			r.Get("/", h.ListAnnouncements)
			r.Post("/", h.CreateAnnouncement)
			r.Post("/{id}/toggle", h.ToggleAnnouncement)
		})

		r.Route("/menu", func(r chi.Router) {
			r.Get("/", h.ListMenu)
			r.Post("/", h.CreateMenuItem)
			r.Post("/reset", h.ResetMenu)
			r.Patch("/{id}/price", h.UpdateMenuItemPrice)
			r.Delete("/{id}", h.DeleteMenuItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.CreateOrder)
			r.Patch("/{id}/status", h.UpdateOrderStatus)
			r.Get("/board", h.GetBoard)
			r.Post("/board/activate", h.ActivateBoard)
			r.Post("/board/deactivate", h.DeactivateBoard)
		})

		r.Route("/finance", func(r chi.Router) {
			r.Get("/", h.GetFinance)
			r.Get("/report.xlsx", h.GetFinanceReport)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/schema.sql", h.GetSchemaSQL)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
