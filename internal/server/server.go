package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/kernsim/internal/config"
	"github.com/me/kernsim/internal/reaper"
	"github.com/me/kernsim/internal/store"
)

// DefaultMaxSessions bounds the number of live kernel sessions.
const DefaultMaxSessions = 64

// Server is the kernsim REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	store     store.Store // run journal; nil disables /runs persistence
	sessions  *sessionRegistry

	maxSessions int
	reaperCfg   *reaper.Config
	reaper      *reaper.Loop
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithMaxSessions overrides DefaultMaxSessions.
func WithMaxSessions(n int) Option {
	return func(s *Server) {
		s.maxSessions = n
	}
}

// WithReaper expires sessions idle for longer than cfg.IdleTTL once
// StartReaper is called.
func WithReaper(cfg reaper.Config) Option {
	return func(s *Server) {
		s.reaperCfg = &cfg
	}
}

// New creates a new Server with all routes registered.
// st may be nil, in which case runs are replayed but never journaled.
func New(cfg config.ServerConfig, st store.Store, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger.With("component", "server"),
		config:      cfg,
		startTime:   time.Now(),
		store:       st,
		maxSessions: DefaultMaxSessions,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = newSessionRegistry(s.maxSessions, logger)
	if s.reaperCfg != nil {
		s.reaper = reaper.NewLoop(s, *s.reaperCfg, logger)
	}

	s.routes()
	return s
}

// ExpireIdle drops every session whose last event is older than cutoff.
func (s *Server) ExpireIdle(cutoff time.Time) []string {
	return s.sessions.expireIdle(cutoff)
}

// StartReaper begins the idle session reaper in a background goroutine.
func (s *Server) StartReaper(ctx context.Context) {
	if s.reaper == nil {
		return
	}
	go func() {
		if err := s.reaper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("reaper stopped", "error", err)
		}
	}()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)

		// Live kernels driven one event at a time
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/events", s.handleSessionEvent)
			})
		})

		// Scenario replays and the run journal
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Post("/", s.handleCreateRun)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRun)
				r.Delete("/", s.handleDeleteRun)
			})
		})
	})
}
