// Package server exposes Blackjack sessions over HTTP so environments in
// other processes can have their steps rendered.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/lox/blackjackviz/internal/blackjack"
	"github.com/lox/blackjackviz/internal/randutil"
)

// DefaultSessionTTL is how long a session may sit idle before it is dropped
const DefaultSessionTTL = 30 * time.Minute

// Option configures a Server
type Option func(*Server)

// WithSeed makes every new session start from the same seed, so identical
// step sequences render identical cards.
func WithSeed(seed int64) Option {
	return func(s *Server) {
		s.seed = &seed
	}
}

// WithSessionTTL sets the idle time after which a session is dropped. Zero
// keeps sessions until they are deleted.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.ttl = ttl
	}
}

// WithClock sets the clock used for idle tracking and the sweep ticker
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// Server keeps one Blackjack session per id.
type Server struct {
	logger *log.Logger
	seed   *int64
	ttl    time.Duration
	clock  quartz.Clock
	router chi.Router
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionEntry

	httpMu     sync.Mutex
	httpServer *http.Server
	closed     bool
}

type sessionEntry struct {
	mu      sync.Mutex
	session *blackjack.Session
	created time.Time
	steps   int

	lastUsed atomic.Int64 // unix nanos on the server clock
}

func (e *sessionEntry) touch(now time.Time) {
	e.lastUsed.Store(now.UnixNano())
}

func (e *sessionEntry) idle(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, e.lastUsed.Load()))
}

// NewServer creates a server with its routes registered
func NewServer(logger *log.Logger, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		logger:   logger.WithPrefix("server"),
		ttl:      DefaultSessionTTL,
		clock:    quartz.NewReal(),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[uuid.UUID]*sessionEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/steps", s.handleStep)
		})
	})
	return r
}

// Handler returns the HTTP handler for all routes
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called. Idle sessions
// are swept while it runs.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.httpMu.Lock()
	if s.closed {
		s.httpMu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.httpServer = srv
	s.httpMu.Unlock()

	if s.ttl > 0 {
		interval := max(s.ttl/4, time.Second)
		s.clock.TickerFunc(s.ctx, interval, func() error {
			s.SweepIdle()
			return nil
		}, "server", "sweep")
	}

	s.logger.Info("Starting render server", "addr", ln.Addr().String(), "session_ttl", s.ttl)
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server. A later Serve returns at once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.httpMu.Lock()
	s.closed = true
	srv := s.httpServer
	s.httpMu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// SweepIdle drops sessions idle for longer than the TTL and returns how
// many were removed.
func (s *Server) SweepIdle() int {
	if s.ttl <= 0 {
		return 0
	}
	now := s.clock.Now()

	s.mu.Lock()
	removed := 0
	for id, e := range s.sessions {
		if e.idle(now) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	remaining := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Info("Dropped idle sessions", "removed", removed, "sessions", remaining)
	}
	return removed
}

// SessionCount returns the number of live sessions
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) createSession(seed *int64) uuid.UUID {
	if seed == nil {
		seed = s.seed
	}

	var session *blackjack.Session
	if seed != nil {
		session = blackjack.NewSession(randutil.New(*seed))
	} else {
		session = blackjack.NewSession(nil)
	}

	now := s.clock.Now()
	entry := &sessionEntry{session: session, created: now}
	entry.touch(now)

	id := uuid.New()
	s.mu.Lock()
	s.sessions[id] = entry
	s.mu.Unlock()
	return id
}

func (s *Server) lookup(id uuid.UUID) (*sessionEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if ok {
		e.touch(s.clock.Now())
	}
	return e, ok
}

func (s *Server) deleteSession(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
