// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"log/slog"
	"net/http"

	"carbon/internal/app"

	"github.com/go-chi/chi/v5"
)

// StatusRecorder counts response status codes.
type StatusRecorder interface {
	RecordHTTPStatus(statusCode int)
}

// Options carries the optional collaborators of a Server.
type Options struct {
	Logger         *slog.Logger
	Metrics        StatusRecorder
	MetricsHandler http.Handler
	AuthRatePerMin int
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	accounts       *app.AccountService
	tracker        *app.Tracker
	logger         *slog.Logger
	metrics        StatusRecorder
	metricsHandler http.Handler
	authLimiter    *ipLimiter
}

// New creates a Server wired to the given application services.
func New(accounts *app.AccountService, tracker *app.Tracker, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	perMin := opts.AuthRatePerMin
	if perMin <= 0 {
		perMin = 30
	}
	return &Server{
		accounts:       accounts,
		tracker:        tracker,
		logger:         logger,
		metrics:        opts.Metrics,
		metricsHandler: opts.MetricsHandler,
		authLimiter:    newIPLimiter(perMin),
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Get("/api/categories", s.handleCategories)

	r.Route("/api/auth", func(r chi.Router) {
		r.With(s.rateLimitMiddleware).Post("/register", s.handleRegister)
		r.With(s.rateLimitMiddleware).Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/session", s.handleSession)
	})

	r.Route("/api/footprint", func(r chi.Router) {
		r.Get("/", s.handleFootprint)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/activities/{category}", s.handleAddActivity)
			r.Delete("/activities/{category}", s.handleRemoveActivity)
			r.Post("/reset", s.handleReset)
		})
	})

	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}

	return withNoCache(r)
}
