package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"charitybot/pkg/config"
	"charitybot/pkg/logger"
	"charitybot/pkg/metrics"
	"charitybot/pkg/pipeline"
	"charitybot/pkg/verify"
)

// Dispatcher runs the lookup pipeline for one qualifying event.
type Dispatcher interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Outcome
}

// PreviewFunc runs the pipeline stages for a plain message without Slack.
type PreviewFunc func(ctx context.Context, message string) (pipeline.PreviewResult, error)

type Option func(*Server)

// WithPreview installs the development-mode handler. It has no effect unless
// the binary is built with the devmode tag and CHARITYBOT_DEV_MODE is set.
func WithPreview(fn PreviewFunc) Option {
	return func(s *Server) { s.preview = fn }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

type Server struct {
	server   *http.Server
	config   *config.Config
	verifier *verify.Verifier
	pipeline Dispatcher
	preview  PreviewFunc
	metrics  *metrics.Metrics
}

func NewServer(cfg *config.Config, verifier *verify.Verifier, dispatcher Dispatcher, opts ...Option) *Server {
	s := &Server{
		config:   cfg,
		verifier: verifier,
		pipeline: dispatcher,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.server = &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler with panic recovery applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/webhook", s.handleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/api/slack-events", s.handleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	r.Use(s.withRecovery)
	return r
}

// Start serves until Stop is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	logger.InfoCF("server", "Starting HTTP server", map[string]interface{}{
		"addr":             s.server.Addr,
		"trigger_reaction": s.config.App.TriggerEmoji,
		"dev_mode":         s.devModeActive(),
	})

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.ErrorCF("server", "HTTP server failed", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	logger.InfoC("server", "Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorCF("server", "Panic while handling request", map[string]interface{}{
					"path":            r.URL.Path,
					logger.FieldError: rec,
				})
				s.metrics.ObserveWebhook(metrics.ResultPanic)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WarnCF("server", "Failed to write response", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}
}
