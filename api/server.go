/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client IP from proxy headers
  3. Logger:     Structured request logging (zap)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. RateLimit:  Per-IP token bucket on /api
  6. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /healthz              Liveness
  /api/employees/*      Employees, leave, deduction ledger, breakdowns
  /api/payroll/*        Generate, save, pay, export
  /api/cap/*            Deduction cap check
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware. Deploy behind an authenticating proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Request logger and rate limiter
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	AllowedOrigins     []string
	RateLimitPerMinute int // 0 disables rate limiting
}

func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		AllowedOrigins:     []string{"http://localhost:5173", "http://localhost:8080"},
		RateLimitPerMinute: 120,
	}
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitPerMinute > 0 {
			perSecond := rate.Limit(float64(opts.RateLimitPerMinute) / 60)
			r.Use(RateLimit(perSecond, opts.RateLimitPerMinute))
		}

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/leaves", h.ListLeaves)
			r.Post("/{id}/leaves", h.CreateLeave)
			r.Get("/{id}/deductions", h.ListDeductions)
			r.Post("/{id}/deductions", h.CreateDeduction)
			r.Get("/{id}/breakdown", h.GetBreakdown)
		})

		// Payroll routes
		r.Route("/payroll", func(r chi.Router) {
			r.Get("/runs", h.ListRuns)
			r.Route("/{month}", func(r chi.Router) {
				r.Get("/", h.ListRecords)
				r.Post("/generate", h.Generate)
				r.Post("/save", h.Save)
				r.Post("/paid", h.MarkPaid)
				r.Get("/export", h.Export)
				r.Get("/employees/{id}/payslip", h.Payslip)
			})
		})

		r.Post("/cap/validate", h.ValidateCap)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

// Logger exposes the handler's logger to the server binary.
func (h *Handler) Logger() *zap.Logger { return h.logger }
