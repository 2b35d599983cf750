// Package server exposes the analysis pipeline over HTTP.
//
// Routes:
//
//   - POST /v1/analyze — run one pronunciation analysis.
//   - GET  /healthz    — liveness probe.
//   - GET  /readyz     — readiness probe.
//   - GET  /metrics    — Prometheus scrape endpoint.
//
// All routes run behind [observe.Middleware], which handles tracing,
// correlation IDs, request logging and latency metrics.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/elocute/internal/analyzer"
	"github.com/MrWong99/elocute/internal/health"
	"github.com/MrWong99/elocute/internal/observe"
	"github.com/MrWong99/elocute/pkg/provider"
	"github.com/MrWong99/elocute/pkg/report"
)

// maxBodyBytes caps the request body. Audio arrives base64 encoded, so this
// sits above the analyzer's raw audio cap.
const maxBodyBytes = 40 << 20

// Server serves the analysis API.
type Server struct {
	analyzer *analyzer.Analyzer
	metrics  *observe.Metrics
	health   *health.Handler
	log      *slog.Logger

	httpSrv *http.Server
}

// Option is a functional option for [New].
type Option func(*Server)

// WithHealthCheckers registers readiness checkers.
func WithHealthCheckers(checkers ...health.Checker) Option {
	return func(s *Server) {
		s.health = health.New(checkers...)
	}
}

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// New constructs a Server listening on addr once [Server.Start] is called.
func New(addr string, a *analyzer.Analyzer, opts ...Option) *Server {
	s := &Server{
		analyzer: a,
		health:   health.New(),
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the full route tree wrapped in the observability
// middleware. Exposed for httptest use.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/analyze", s.handleAnalyze)
	s.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	return observe.Middleware(s.metrics)(mux)
}

// Start runs the server until ctx is cancelled, then shuts down gracefully
// within the given timeout.
func (s *Server) Start(ctx context.Context, shutdownTimeout time.Duration, certFile, keyFile string) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if certFile != "" && keyFile != "" {
			err = s.httpSrv.ListenAndServeTLS(certFile, keyFile)
		} else {
			err = s.httpSrv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("server listening", slog.String("addr", s.httpSrv.Addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// analyzeRequest is the JSON body of POST /v1/analyze.
type analyzeRequest struct {
	// ReferenceText is the practice text the learner was asked to read.
	ReferenceText string `json:"reference_text"`

	// AudioBase64 is the complete encoded recording, base64 encoded.
	AudioBase64 string `json:"audio_base64"`
}

// analyzeResponse wraps the report in a response envelope. The request ID is
// generated per response; the report itself stays deterministic.
type analyzeResponse struct {
	RequestID string                   `json:"request_id"`
	Report    report.ProficiencyReport `json:"report"`
}

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err), "")
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode audio: %w", err), "")
		return
	}

	rep, err := s.analyzer.Analyze(ctx, analyzer.Request{
		ReferenceText: req.ReferenceText,
		Audio:         audio,
	})
	if err != nil {
		status, kind := statusFor(err)
		observe.Logger(ctx).Error("analysis failed",
			slog.Int("status", status),
			slog.String("err", err.Error()),
		)
		writeError(w, status, err, kind)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		RequestID: uuid.NewString(),
		Report:    rep,
	})
}

// statusFor maps pipeline errors onto HTTP statuses. Invalid input is the
// client's fault; provider failures map by kind.
func statusFor(err error) (status int, kind string) {
	if errors.Is(err, analyzer.ErrInvalidInput) {
		return http.StatusBadRequest, ""
	}
	if !provider.IsProviderError(err) {
		return http.StatusInternalServerError, ""
	}
	k := provider.KindOf(err)
	switch k {
	case provider.KindTimeout:
		return http.StatusGatewayTimeout, k.String()
	case provider.KindUnauthorized, provider.KindMalformed:
		return http.StatusBadGateway, k.String()
	default:
		return http.StatusServiceUnavailable, k.String()
	}
}

func writeError(w http.ResponseWriter, status int, err error, kind string) {
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
	}
}
