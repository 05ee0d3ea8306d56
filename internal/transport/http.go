package transport

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Harshitk-cp/opsconsole/internal/config"
)

// HTTPServer represents an HTTP server
type HTTPServer struct {
	cfg         config.HTTPConfig
	handler     http.Handler
	mu          sync.Mutex
	server      *http.Server
	logger      logrus.FieldLogger
	middlewares []func(http.Handler) http.Handler
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler, logger logrus.FieldLogger) *HTTPServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HTTPServer{
		cfg:         cfg,
		handler:     handler,
		logger:      logger.WithField("component", "http"),
		middlewares: make([]func(http.Handler) http.Handler, 0),
	}
}

// Use adds middleware to the server. The first middleware added is the outermost.
func (s *HTTPServer) Use(middleware func(http.Handler) http.Handler) {
	s.middlewares = append(s.middlewares, middleware)
}

// Handler returns the handler wrapped in every middleware
func (s *HTTPServer) Handler() http.Handler {
	handler := s.handler
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		handler = s.middlewares[i](handler)
	}
	return handler
}

// Start starts the HTTP server and blocks until it stops.
// A server closed by Shutdown returns nil.
func (s *HTTPServer) Start() error {
	server := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	s.logger.WithField("address", s.cfg.Address).Info("Starting HTTP server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
