// Package api provides the HTTP surface of the support chat backend.
//
// Endpoints:
//
//	POST /chat/message              send a message, get a reply
//	GET  /chat/history/{sessionId}  replay a session's turns
//	GET  /{$}                       root liveness text
//	GET  /health                    liveness probe
//	GET  /ready                     readiness probe (database ping)
//
// File structure:
//   - server.go: server setup and lifecycle
//   - chat.go: chat endpoints
//   - health.go: health check endpoints
//   - middleware.go: recovery, logging, CORS
//   - response.go: JSON response helpers
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatdesk/chatdesk/internal/chat"
	"github.com/chatdesk/chatdesk/internal/log"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Generation can take a while, so this stays generous.
	WriteTimeout = 60 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// ChatService is the orchestration surface the HTTP handlers depend on.
// Implemented by chat.Service; tests substitute fakes.
type ChatService interface {
	HandleMessage(ctx context.Context, raw string, ref chat.SessionRef) (chat.Reply, error)
	History(ctx context.Context, conversationID uuid.UUID) ([]chat.Turn, error)
}

// ServerConfig contains the dependencies for the HTTP server.
type ServerConfig struct {
	Chat        ChatService
	Pool        *pgxpool.Pool // may be nil; /ready then reports unavailable
	CORSOrigins []string
	Logger      log.Logger
}

// Server is the HTTP server for the chat API.
type Server struct {
	mux         *http.ServeMux
	corsOrigins []string
	logger      log.Logger
}

// NewServer creates a server with all routes registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Chat == nil {
		return nil, errors.New("chat service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		mux:         mux,
		corsOrigins: cfg.CORSOrigins,
		logger:      logger,
	}

	NewChatHandler(cfg.Chat, logger).RegisterRoutes(mux)
	NewHealthHandler(cfg.Pool, logger).RegisterRoutes(mux)

	return s, nil
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → CORS → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		s.recoveryMiddleware,
		s.loggingMiddleware,
		s.corsMiddleware,
	)
}

// Run starts the HTTP server on addr and blocks until the context is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
