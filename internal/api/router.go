// Package api exposes the signup wizard, the payment intent endpoint and the
// admin dashboard over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"membership-signup/internal/admin/listing"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/common/observability"
	"membership-signup/internal/models"
	"membership-signup/internal/signup/wizard"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AdminAuth is satisfied by auth.Service.
type AdminAuth interface {
	SignIn(ctx context.Context, email, password string) (string, *models.AdminSession, error)
	Session(ctx context.Context, token string) (*models.AdminSession, error)
	SignOut(ctx context.Context, token string) error
}

// Submissions is satisfied by listing.Service.
type Submissions interface {
	List(ctx context.Context, query string) (*listing.Result, error)
	All(ctx context.Context) ([]*models.Membership, error)
}

// Check is one readiness probe, e.g. a database ping.
type Check func(ctx context.Context) error

type Dependencies struct {
	Runs        *wizard.Registry
	Intents     wizard.IntentCreator
	Auth        AdminAuth
	Submissions Submissions
	Checks      map[string]Check
	Metrics     *observability.Observability
	// Location is used for CSV timestamps and the export filename.
	Location *time.Location
	Logger   logger.Logger
	Now      func() time.Time
}

type Server struct {
	deps     Dependencies
	logger   logger.Logger
	location *time.Location
	now      func() time.Time
}

func NewServer(deps Dependencies) *Server {
	s := &Server{deps: deps, logger: deps.Logger, location: deps.Location, now: deps.Now}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Routes builds the HTTP handler.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.deps.Metrics.Middleware(routePattern))
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/payment-intents", s.createPaymentIntent)

		r.Route("/signup/runs", func(r chi.Router) {
			r.Post("/", s.startRun)
			r.Route("/{runID}", func(r chi.Router) {
				r.Get("/", s.getRun)
				r.Patch("/fields", s.setFields)
				r.Post("/birth-date", s.birthDate)
				r.Post("/next", s.next)
				r.Post("/back", s.back)
				r.Post("/reset", s.reset)
				r.Post("/payment/confirm", s.confirmPayment)
				r.Get("/payment/return", s.paymentReturn)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.login)
			r.Post("/logout", s.logout)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/session", s.session)
				r.Get("/submissions", s.listSubmissions)
				r.Get("/submissions/export", s.exportSubmissions)
			})
		})
	})
	return r
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request", map[string]interface{}{
			"method":     r.Method,
			"route":      routePattern(r),
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  middleware.GetReqID(r.Context()),
			"traceId":    observability.TraceID(r.Context()),
		})
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"time":       s.now().Format(time.RFC3339),
		"activeRuns": s.deps.Runs.Len(),
	})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := make(map[string]string, len(s.deps.Checks))
	for name, check := range s.deps.Checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status, code = "not ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"time":   s.now().Format(time.RFC3339),
		"checks": checks,
	})
}
