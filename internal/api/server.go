package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/lead-engine/internal/config"
	"github.com/ignite/lead-engine/internal/pkg/logger"
)

// Server wraps the HTTP listener.
type Server struct {
	httpServer *http.Server
}

// NewServer builds the server with all routes registered.
func NewServer(cfg config.ServerConfig, h *Handlers) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      SetupRoutes(h),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
