// Package server exposes editing sessions over HTTP.
//
// # Routes
//
//	GET    /healthz
//	GET    /api/v1/sessions                     list sessions
//	POST   /api/v1/sessions                     create from a dataset upload
//	GET    /api/v1/sessions/{id}                snapshot and interaction mode
//	DELETE /api/v1/sessions/{id}
//	GET    /api/v1/sessions/{id}/spec           chart spec
//	GET    /api/v1/sessions/{id}/options/{slot} picker options of a slot
//	POST   /api/v1/sessions/{id}/ops            apply one op or an array of ops
//	GET    /api/v1/sessions/{id}/export         dataset as json, csv or xlsx
//
// Uploads are dataset JSON, CSV or XLSX, chosen by Content-Type or the
// format query parameter.
//
// # Concurrency
//
// A Session is not safe for concurrent use. The server keeps one live
// handle per session, each with its own mutex, so requests against the
// same session are serialized while different sessions proceed in
// parallel. Live handles carry the gesture state between requests; the
// Store receives a snapshot after every mutating request.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/chartpad/pkg/errors"
	"github.com/matzehuels/chartpad/pkg/session"
)

// Default values.
const (
	DefaultAddr         = ":8080"
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultMaxBodyBytes = 8 << 20
	DefaultIdleTimeout  = 30 * time.Minute
)

// Config configures a Server.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64

	// IdleTimeout evicts live handles that saw no request for this long.
	// Their snapshots stay in the store.
	IdleTimeout time.Duration

	// Session holds the defaults for new sessions.
	Session session.Options
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
}

// handle is the live state of one session.
type handle struct {
	mu       sync.Mutex
	sess     *session.Session
	lastUsed time.Time
	// dropped is set once the handle left the live set; waiters that
	// acquired it afterwards must look the session up again.
	dropped bool
}

// Server serves the session API.
type Server struct {
	cfg    Config
	store  session.Store
	logger *log.Logger
	router chi.Router

	mu      sync.Mutex
	handles map[string]*handle
}

// New creates a server backed by store. A nil logger discards.
func New(store session.Store, cfg Config, logger *log.Logger) *Server {
	cfg.setDefaults()
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Session.Logger == nil {
		cfg.Session.Logger = logger
	}
	s := &Server{
		cfg:     cfg,
		store:   store,
		logger:  logger,
		handles: make(map[string]*handle),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/spec", s.handleSpec)
			r.Get("/options/{slot}", s.handleOptions)
			r.Post("/ops", s.handleOps)
			r.Get("/export", s.handleExport)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	go s.janitor(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// janitor evicts idle handles and expired snapshots once a minute.
func (s *Server) janitor(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.evictIdle(time.Now()); n > 0 {
				s.logger.Debug("evicted idle sessions", "count", n)
			}
			if err := s.store.Cleanup(ctx); err != nil {
				s.logger.Warn("store cleanup failed", "err", err)
			}
		}
	}
}

// evictIdle drops handles unused since now minus the idle timeout.
func (s *Server) evictIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, h := range s.handles {
		if h.mu.TryLock() {
			if now.Sub(h.lastUsed) > s.cfg.IdleTimeout {
				s.dropLocked(id, h)
				n++
			}
			h.mu.Unlock()
		}
	}
	return n
}

// =============================================================================
// Session handles
// =============================================================================

// acquire returns the locked handle of session id, loading it from the
// store on first use. The caller must call release.
func (s *Server) acquire(ctx context.Context, id string) (*handle, error) {
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSessionNotFound, err, "session %s", id)
	}
	for {
		s.mu.Lock()
		h, ok := s.handles[id]
		if !ok {
			h = &handle{}
			s.handles[id] = h
		}
		s.mu.Unlock()

		h.mu.Lock()
		if h.dropped {
			h.mu.Unlock()
			continue
		}
		if h.sess == nil {
			snap, err := s.store.Get(ctx, id)
			if err == nil {
				h.sess, err = session.Restore(snap, s.cfg.Session)
			}
			if err != nil {
				s.mu.Lock()
				s.dropLocked(id, h)
				s.mu.Unlock()
				h.mu.Unlock()
				return nil, err
			}
		}
		h.lastUsed = time.Now()
		return h, nil
	}
}

func (s *Server) release(h *handle) { h.mu.Unlock() }

// forget removes the live handle of id, waiting for any request that
// holds it.
func (s *Server) forget(id string) {
	s.mu.Lock()
	h, ok := s.handles[id]
	s.mu.Unlock()
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(id, h)
}

// dropLocked removes h from the live set and marks it dropped. The caller
// holds both s.mu and h.mu.
func (s *Server) dropLocked(id string, h *handle) {
	h.dropped = true
	if s.handles[id] == h {
		delete(s.handles, id)
	}
}

// adopt registers a freshly created session as live.
func (s *Server) adopt(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles[sess.ID()] = &handle{sess: sess, lastUsed: time.Now()}
}

// Live returns the number of live session handles.
func (s *Server) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}
