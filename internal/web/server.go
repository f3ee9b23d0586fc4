// Package web provides the HTTP server for vehicle inspection records: the
// record endpoints the browser frontend calls, a JSON API and HTML pages.
package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/inspections/internal/config"
	"github.com/JonMunkholm/inspections/internal/core"
	"github.com/JonMunkholm/inspections/internal/snapshot"
	appmw "github.com/JonMunkholm/inspections/internal/web/middleware"
)

// Server is the HTTP server for the inspection records.
type Server struct {
	service   *core.Service
	snapshots *snapshot.Manager
	cfg       *config.Config
	jobs      *jobLimiter
	router    *chi.Mux
	server    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithSnapshots exposes the snapshot manager's status on the API and dashboard.
func WithSnapshots(m *snapshot.Manager) Option {
	return func(s *Server) { s.snapshots = m }
}

// NewServer creates a Server for service.
func NewServer(service *core.Service, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		jobs:    newJobLimiter(cfg.Server.MaxConcurrentJobs, cfg.Server.JobWait),
		router:  chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(appmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(requestMetadata)
	s.router.Use(appmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// mutations wraps routes that change records with API key auth and the
// stricter mutation rate limit.
func (s *Server) mutations(r chi.Router) chi.Router {
	r = r.With(appmw.APIKeyAuth(&s.cfg.Security))
	if s.cfg.Rate.Enabled {
		r = r.With(newRateLimiter(s.cfg.Rate.MutationLimit, time.Minute).middleware)
	}
	return r.With(maxBody(s.cfg.Server.MaxBodyBytes))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Pages
	s.router.Get("/", s.handleDashboard)
	s.router.Get("/vehicles", s.handleVehiclesPage)
	s.router.Get("/vehicles/{id}/history", s.handleHistoryPage)

	// Record endpoints used by the browser frontend
	s.router.Get("/get_vehicles", s.handleGetVehicles)
	s.router.Get("/get_inspections", s.handleGetInspections)
	s.router.Get("/get_analytics", s.handleGetAnalytics)
	s.router.Group(func(r chi.Router) {
		m := s.mutations(r)
		m.Post("/add_vehicle", s.handleAddVehicle)
		m.Delete("/delete_vehicle/{id}", s.handleDeleteVehicle)
		m.Post("/add_inspection", s.handleAddInspection)
		m.Put("/update_vehicle/{id}", s.handleUpdateVehicle)
	})

	// JSON API
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/vehicles", s.handleListVehicles)
		r.Get("/vehicles/{id}", s.handleVehicle)
		r.Get("/vehicles/{id}/history", s.handleHistory)
		r.Get("/inspections/{id}", s.handleInspection)
		r.Get("/activity", s.handleActivity)
		r.Get("/divisions", s.handleDivisions)
		r.Get("/analytics", s.handleGetAnalytics)
		r.Get("/snapshot", s.handleSnapshotStatus)

		r.Group(func(r chi.Router) {
			r.Use(s.jobs.middleware)
			r.Get("/export/workbook.xlsx", s.handleExportWorkbook)
			r.Get("/export/{dataset}.csv", s.handleExportCSV)

			// Parsing needs no record access but is bounded like a mutation.
			r.With(maxBody(s.cfg.Server.MaxBodyBytes)).Post("/parse", s.handleParse)
		})

		r.Group(func(r chi.Router) {
			m := s.mutations(r)
			m.Post("/checklist", s.handleSubmitChecklist)
			m.Post("/vehicles", s.handleCreateVehicle)
			m.Patch("/vehicles/{id}", s.handlePatchVehicle)
			m.Delete("/vehicles/{id}", s.handleRemoveVehicle)
			m.Post("/snapshot/reload", s.handleSnapshotReload)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// maxBody caps request bodies at n bytes.
func maxBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if n > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter is a fixed-window limiter per client IP. Stale entries are
// swept during allow once per window, so it needs no background goroutine.
type rateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rate      int           // requests per window
	window    time.Duration // time window
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		visitors:  make(map[string]*visitor),
		rate:      rate,
		window:    window,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > rl.window {
		for key, v := range rl.visitors {
			if now.Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, key)
			}
		}
		rl.lastSweep = now
	}

	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: now}
		return rl.rate > 0
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by client IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			respondError(w, r, errRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
