// Package api exposes sessions and panel rounds over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dusk-indust/agentroom/internal/session"
	"github.com/dusk-indust/agentroom/internal/transcript"
	"go.uber.org/zap"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8000"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Sessions is the session behaviour the HTTP layer needs.
type Sessions interface {
	NewSession(ctx context.Context) (string, []transcript.Entry, error)
	History(ctx context.Context, id string) ([]transcript.Entry, error)
	RunRound(ctx context.Context, req session.RoundRequest) ([]transcript.Entry, error)
}

var _ Sessions = (*session.Service)(nil)

// Server serves the session API.
type Server struct {
	sessions    Sessions
	logger      *zap.Logger
	defaultMode string
	mounts      map[string]http.Handler

	mu     sync.Mutex
	http   *http.Server
	closed bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithDefaultMode sets the mode used when a request omits one.
func WithDefaultMode(mode string) Option {
	return func(s *Server) { s.defaultMode = mode }
}

// WithMount registers an extra handler under pattern, e.g. the MCP endpoint.
func WithMount(pattern string, h http.Handler) Option {
	return func(s *Server) { s.mounts[pattern] = h }
}

// NewServer creates a Server backed by sessions.
func NewServer(sessions Sessions, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		logger:   zap.NewNop(),
		mounts:   make(map[string]http.Handler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/new_session", s.handleNewSession)
	mux.HandleFunc("GET /api/history/{id}", s.handleHistory)
	mux.HandleFunc("POST /api/run_round", s.handleRunRound)
	mux.HandleFunc("POST /api/run_round/stream", s.handleRunRoundStream)

	for pattern, h := range s.mounts {
		mux.Handle(pattern, h)
	}
	return requestLogger(s.logger, mux)
}

// ListenAndServe serves on addr until Shutdown is called. A clean shutdown
// returns nil.
func (s *Server) ListenAndServe(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown is called. Calling Serve after
// Shutdown closes ln and returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ln.Close()
	}
	hs := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.http = hs
	s.mu.Unlock()

	s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
	if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	hs := s.http
	s.mu.Unlock()

	if hs == nil {
		return nil
	}
	return hs.Shutdown(ctx)
}
