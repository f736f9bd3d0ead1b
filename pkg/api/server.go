// Package api serves the volunteer hub HTTP API. Each request is routed to
// the storage backend named by its db_type cookie.
package api

import (
	"context"
	"errors"
	"net/http"
	"net/netip"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hub/pkg/auth"
	"github.com/jakechorley/volunteer-hub/pkg/db"
)

// Options tunes the server's cross-cutting behaviour
type Options struct {
	CookieSecure    bool
	RequestTimeout  time.Duration
	LoginPerMinute  int
	LoginBurst      int
	ShutdownTimeout time.Duration
	// TrustedProxies are the peers whose X-Forwarded-For header is believed
	TrustedProxies []netip.Prefix
}

// Server holds the dependencies shared by every handler
type Server struct {
	registry *db.Registry
	signer   *auth.Signer
	logger   *zap.Logger
	opts     Options
	metrics  *Metrics
	limiter  *RateLimiter
}

// NewServer creates a server over the configured backends
func NewServer(registry *db.Registry, signer *auth.Signer, logger *zap.Logger, opts Options) *Server {
	if opts.LoginPerMinute <= 0 {
		opts.LoginPerMinute = 10
	}
	if opts.LoginBurst <= 0 {
		opts.LoginBurst = 5
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		registry: registry,
		signer:   signer,
		logger:   logger,
		opts:     opts,
		metrics:  NewMetrics(),
		limiter:  NewRateLimiter(opts.LoginPerMinute, opts.LoginBurst),
	}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.recoverer, requestID, s.observe, s.timeout, s.selectBackend, s.authenticate)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/backend", s.handleGetBackend).Methods("GET")
	api.HandleFunc("/backend", s.handleSetBackend).Methods("POST")

	// Auth routes
	api.HandleFunc("/auth/register", s.throttle(s.handleRegister)).Methods("POST")
	api.HandleFunc("/auth/login", s.throttle(s.handleLogin)).Methods("POST")
	api.HandleFunc("/auth/logout", s.handleLogout).Methods("POST")
	api.HandleFunc("/auth/me", s.requireAuth(s.handleMe)).Methods("GET")
	api.HandleFunc("/auth/password", s.requireAuth(s.handleChangePassword)).Methods("PUT")

	// Volunteer routes
	api.HandleFunc("/volunteers", s.requireAdmin(s.handleListVolunteers)).Methods("GET")
	api.HandleFunc("/volunteers/{id}", s.requireAdmin(s.handleGetVolunteer)).Methods("GET")
	api.HandleFunc("/volunteers/{id}", s.requireAuth(s.handleUpdateVolunteer)).Methods("PUT")
	api.HandleFunc("/volunteers/{id}", s.requireAdmin(s.handleDeleteVolunteer)).Methods("DELETE")

	// Organization routes
	api.HandleFunc("/organizations", s.handleListOrganizations).Methods("GET")
	api.HandleFunc("/organizations", s.requireAdmin(s.handleCreateOrganization)).Methods("POST")
	api.HandleFunc("/organizations/{id}", s.handleGetOrganization).Methods("GET")

	// Project routes
	api.HandleFunc("/projects", s.handleListProjects).Methods("GET")
	api.HandleFunc("/projects", s.requireAdmin(s.handleCreateProject)).Methods("POST")
	api.HandleFunc("/projects/{id}", s.handleGetProject).Methods("GET")
	api.HandleFunc("/projects/{id}", s.requireAdmin(s.handleUpdateProject)).Methods("PUT")
	api.HandleFunc("/projects/{id}", s.requireAdmin(s.handleDeleteProject)).Methods("DELETE")
	api.HandleFunc("/projects/{id}/stats", s.requireAdmin(s.handleProjectStats)).Methods("GET")
	api.HandleFunc("/projects/{id}/members", s.requireAdmin(s.handleProjectMembers)).Methods("GET")
	api.HandleFunc("/projects/{id}/join", s.requireAuth(s.handleJoinProject)).Methods("POST")
	api.HandleFunc("/projects/{id}/leave", s.requireAuth(s.handleLeaveProject)).Methods("POST")
	api.HandleFunc("/my/projects", s.requireAuth(s.handleMyProjects)).Methods("GET")

	// Event routes
	api.HandleFunc("/events", s.handleListEvents).Methods("GET")
	api.HandleFunc("/events", s.requireAdmin(s.handleCreateEvent)).Methods("POST")
	api.HandleFunc("/events/{id}", s.handleGetEvent).Methods("GET")
	api.HandleFunc("/events/{id}", s.requireAdmin(s.handleUpdateEvent)).Methods("PUT")
	api.HandleFunc("/events/{id}", s.requireAdmin(s.handleDeleteEvent)).Methods("DELETE")
	api.HandleFunc("/events/{id}/attendance", s.requireAuth(s.handleListAttendance)).Methods("GET")
	api.HandleFunc("/events/{id}/attendance", s.requireAuth(s.handleMarkAttendance)).Methods("POST")
	api.HandleFunc("/events/{id}/attendance/{volunteerId}", s.requireAdmin(s.handleDeleteAttendance)).Methods("DELETE")

	// Resource routes
	api.HandleFunc("/resources", s.handleListResources).Methods("GET")
	api.HandleFunc("/resources", s.requireAdmin(s.handleCreateResource)).Methods("POST")
	api.HandleFunc("/resources/{id}", s.handleGetResource).Methods("GET")
	api.HandleFunc("/resources/{id}", s.requireAdmin(s.handleUpdateResource)).Methods("PUT")
	api.HandleFunc("/resources/{id}", s.requireAdmin(s.handleDeleteResource)).Methods("DELETE")

	// Dashboard routes
	api.HandleFunc("/dashboard/admin", s.requireAdmin(s.handleAdminDashboard)).Methods("GET")
	api.HandleFunc("/dashboard/volunteer", s.requireAuth(s.handleVolunteerDashboard)).Methods("GET")
	api.HandleFunc("/activity", s.requireAdmin(s.handleRecentActivity)).Methods("GET")

	return router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr), zap.String("default_backend", string(s.registry.Default())))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// store returns the database selected for the request, writing a 503 when
// that backend is not configured
func (s *Server) store(w http.ResponseWriter, r *http.Request) (db.Database, bool) {
	database, err := s.registry.For(backendFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err, "Backend")
		return nil, false
	}
	return database, true
}

// requestLogger returns the server logger tagged with the request's id and backend
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return s.logger.With(
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.String("backend", string(backendFrom(r.Context()))))
}
