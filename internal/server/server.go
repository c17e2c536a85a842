// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the extraction pipeline over HTTP: GET /?q=<id>
// returns the extraction result as JSON, with CORS headers on every
// response. /metrics and /healthz are served alongside.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/lexdef-engine/pkg/types"
)

// Defaults for ServerConfig fields.
const (
	DefaultAddr            = ":8787"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMetricsPath     = "/metrics"
)

// queryParam names the only recognised query parameter.
const queryParam = "q"

// Extractor runs one lookup. *pipeline.Pipeline satisfies it.
type Extractor interface {
	Run(ctx context.Context, rawQuery string) (*types.ExtractionResult, error)
}

// Recorder persists successful results. *archive.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, result *types.ExtractionResult) error
}

// Server serves lookups from an Extractor.
type Server struct {
	cfg       types.ServerConfig
	extractor Extractor
	recorder  Recorder
	metrics   *Metrics
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRecorder archives every successful result. Archive failures are
// logged and counted; they never change the response.
func WithRecorder(r Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithMetrics replaces the collectors created by New.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New returns a Server. A nil logger uses slog.Default().
func New(cfg types.ServerConfig, extractor Extractor, logger *slog.Logger, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = DefaultMetricsPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, extractor: extractor, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.MetricsPath, s.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/", s.handleLookup)
	return withCORS(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down", "timeout", s.cfg.ShutdownTimeout)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)
	log := s.logger.With("request_id", requestID)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet:
	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed", r.Method))
		s.metrics.observe(http.StatusMethodNotAllowed, "method_not_allowed", "", time.Since(start))
		return
	}

	result, err := s.extractor.Run(r.Context(), r.URL.Query().Get(queryParam))
	if err != nil {
		kind := types.KindOf(err)
		if kind == "" {
			kind = "internal"
		}
		status := kind.Status()
		log.LogAttrs(r.Context(), levelFor(status), "lookup failed",
			slog.String("kind", string(kind)),
			slog.Int("status", status),
			slog.String("error", err.Error()))
		writeError(w, status, kind.Message())
		s.metrics.observe(status, kind, "", time.Since(start))
		return
	}

	writeJSON(w, http.StatusOK, result)
	s.metrics.observe(http.StatusOK, "", result.Strategy, time.Since(start))
	log.Info("lookup",
		"identifier", result.Location.RequestedIdentifier,
		"strategy", string(result.Strategy),
		"duration", time.Since(start))

	if s.recorder != nil {
		if err := s.recorder.Record(r.Context(), result); err != nil {
			s.metrics.ArchiveErrors.Inc()
			log.Warn("archive write failed", "error", err)
		}
	}
}

func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelInfo
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
