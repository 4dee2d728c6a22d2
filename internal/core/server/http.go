// Package server provides HTTP server lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/solatis/cpereport/internal/core/api"
	"github.com/solatis/cpereport/internal/core/config"
)

// shutdownGrace bounds how long in-flight requests may drain.
const shutdownGrace = 30 * time.Second

// HTTPServer manages the report API server lifecycle.
type HTTPServer struct {
	server *http.Server
	config *config.ReportAPIConfig
	logger log.Logger
}

// NewHTTPServer creates the server with the service's routes mounted.
func NewHTTPServer(cfg *config.ReportAPIConfig, service *api.Service, logger log.Logger) (*HTTPServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      service.Router(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
		IdleTimeout:  2 * cfg.RequestTimeout,
	}

	return &HTTPServer{
		server: srv,
		config: cfg,
		logger: logger,
	}, nil
}

// Start binds the listener and serves requests.
// Context is provided for API consistency but Serve blocks until
// Shutdown is called; a clean shutdown reports no error.
func (s *HTTPServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.server.Addr, err)
	}

	level.Info(s.logger).Log("msg", "report api listening", "addr", s.server.Addr)
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, forcing the listener closed after
// the grace period.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	drainCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	if err := s.server.Shutdown(drainCtx); err != nil {
		s.server.Close()
		return fmt.Errorf("graceful shutdown failed, forced close: %w", err)
	}
	return nil
}
