/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard frontends

ROUTE GROUPS:
  /api/students/*     Student records, ledger, scholarship, audit
  /api/leaves/*       Applications and decisions
  /api/onboarding/*   Registration decisions
  /api/attendance/*   Absence CSV reconciliation
  /api/drafts/*       In-progress form cache

SECURITY NOTE:
  No authentication middleware. Actor identity arrives in X-Actor-*
  headers and is trusted; an upstream gateway must verify it.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Actor-ID", "X-Actor-Role"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Student routes
		r.Route("/students", func(r chi.Router) {
			r.Get("/", h.ListStudents)
			r.Post("/", h.RegisterStudent)
			r.Get("/{id}", h.GetStudent)
			r.Get("/{id}/ledger", h.GetLedger)
			r.Get("/{id}/scholarship", h.GetScholarship)
			r.Get("/{id}/audit", h.GetAudit)
		})

		// Leave routes
		r.Route("/leaves", func(r chi.Router) {
			r.Get("/", h.ListLeaves)
			r.Post("/", h.SubmitLeave)
			r.Get("/{id}", h.GetLeave)
			r.Post("/{id}/decision", h.DecideLeave)
		})

		// Onboarding routes
		r.Route("/onboarding", func(r chi.Router) {
			r.Post("/{id}/decision", h.DecideOnboarding)
		})

		// Attendance routes
		r.Route("/attendance", func(r chi.Router) {
			r.Post("/reconcile", h.ReconcileAttendance)
		})

		// Draft routes
		r.Route("/drafts", func(r chi.Router) {
			r.Put("/{owner}/{kind}", h.SaveDraft)
			r.Get("/{owner}/{kind}", h.GetDraft)
			r.Delete("/{owner}/{kind}", h.DeleteDraft)
		})

		// Scenario routes (dev/demo only)
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
