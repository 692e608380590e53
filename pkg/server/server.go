// Package server exposes speech segmentation over HTTP.
//
// Endpoints:
//
//	POST /v1/timestamps  body: WAV, or raw audio with ?format=pcm16|f32|mulaw
//	GET  /healthz
//	GET  /metrics        Prometheus exposition
//
// Segmentation options can be overridden per request with query parameters
// named like the JSON fields of speech.Options, e.g. ?threshold=0.6.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/realtime-ai/vadseg/pkg/metrics"
	"github.com/realtime-ai/vadseg/pkg/speech"
)

// Config holds the server settings.
type Config struct {
	Addr         string
	MaxBodyBytes int64
	// Defaults are the segmentation options used when a request sets none.
	Defaults speech.Options
}

// Server serves segmentation requests from a Pool.
type Server struct {
	config   Config
	pool     *Pool
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   log.FieldLogger

	server *http.Server
	done   chan error
}

// New creates a server. The metrics registered on gatherer are served on
// /metrics; m may be nil.
func New(cfg Config, pool *Pool, m *metrics.Metrics, gatherer prometheus.Gatherer, logger log.FieldLogger) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 20
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	if gatherer == nil {
		gatherer = prometheus.NewRegistry()
	}

	return &Server{
		config:   cfg,
		pool:     pool,
		metrics:  m,
		gatherer: gatherer,
		logger:   logger.WithField("component", "server"),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /v1/timestamps", s.instrument("/v1/timestamps", http.HandlerFunc(s.handleTimestamps)))
	mux.Handle("GET /healthz", s.instrument("/healthz", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr, err)
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.done = make(chan error, 1)

	s.logger.Infof("[Server] Listening on %s with %d workers", ln.Addr(), s.pool.Size())

	go func() {
		err := s.server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			s.logger.Errorf("[Server] Server error: %v", err)
		}
		s.done <- err
	}()
	return nil
}

// Stop shuts the server down gracefully, then closes the pool.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("[Server] Stopping server...")

	var errs []error
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown: %w", err))
		}
		if err := <-s.done; err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.pool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pool: %w", err))
	}

	s.logger.Info("[Server] Server stopped")
	return errors.Join(errs...)
}
