package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Session retention defaults.
const (
	DefaultMaxSessions = 256
	DefaultSessionTTL  = 30 * time.Minute
)

// Server is the MCP server for manualqa.
type Server struct {
	ports  *Ports
	server *mcp.Server

	maxSessions int
	sessionTTL  time.Duration

	mu       sync.Mutex
	sessions *expirable.LRU[string, *domain.Session]
}

// Option configures a Server.
type Option func(*Server)

// WithMaxSessions caps the remembered conversations; the least recently
// used one is dropped first. Non-positive values are ignored.
func WithMaxSessions(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithSessionTTL forgets conversations idle for longer than ttl.
// Non-positive values are ignored.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "manualqa",
		Version: Version,
	}

	s := &Server{
		ports:       ports,
		server:      mcp.NewServer(impl, nil),
		maxSessions: DefaultMaxSessions,
		sessionTTL:  DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = expirable.NewLRU[string, *domain.Session](s.maxSessions, nil, s.sessionTTL)

	s.registerTools()

	return s, nil
}

// session returns the conversation named id, creating it on first use.
// An empty id yields a fresh session that is not remembered. Each use
// restarts the idle timer.
func (s *Server) session(id string) *domain.Session {
	if id == "" {
		return s.ports.Answer.NewSession()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions.Get(id)
	if !ok {
		sess = s.ports.Answer.NewSession()
	}
	s.sessions.Add(id, sess)
	return sess
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
