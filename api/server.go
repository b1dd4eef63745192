/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging through the process logger
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the payroll frontend
  5. RateLimit:  Per-IP request limit (httprate), 0 disables

ROUTE GROUPS:
  /api/health, /api/rules, /api/metrics   Rule evaluation
  /api/imports/*                          Punch-log import
  /api/records/*, /api/summary            Stored results
  /api/employees/*                        HR roster
  /api/reports/*                          Workbook and CSV downloads

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/attendance/main.go: Server startup
*/
package api

import (
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RouterConfig holds router settings.
type RouterConfig struct {
	AllowedOrigins    []string
	RequestsPerMinute int
}

// DefaultRouterConfig allows the local frontend and 300 requests per minute
// per client IP.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		AllowedOrigins:    []string{"http://localhost:5173", "http://localhost:8080"},
		RequestsPerMinute: 300,
	}
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  h.Logger.StandardLog(charmlog.StandardLogOptions{ForceLevel: charmlog.InfoLevel}),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))
	if cfg.RequestsPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RequestsPerMinute, time.Minute))
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/rules", h.GetRules)
		r.Post("/metrics", h.ComputeMetrics)

		// Import routes
		r.Route("/imports", func(r chi.Router) {
			r.Get("/", h.ListImports)
			r.Post("/", h.CreateImport)
			r.Post("/scan", h.ScanInbox)
		})

		// Record routes
		r.Route("/records", func(r chi.Router) {
			r.Get("/", h.ListRecords)
			r.Get("/{card}/{date}", h.GetRecord)
		})
		r.Get("/summary", h.GetSummary)

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.UploadRoster)
			r.Get("/{card}", h.GetEmployee)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/monthly.xlsx", h.MonthlyReport)
			r.Get("/daily.xlsx", h.DailyReport)
			r.Get("/daily.csv", h.DailyCSV)
		})
	})

	return r
}
