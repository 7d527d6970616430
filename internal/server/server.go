// Package server implements the HTTP boundary of the catalog assistant: the
// POST /chat JSON endpoint, the web UI, health and readiness probes, and the
// Prometheus scrape endpoint.
// The server is started by the `catalogai serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/54b3r/catalogai-go/internal/chat"
	"github.com/54b3r/catalogai-go/internal/logging"
)

// Client-facing error messages. They never carry internal details.
const (
	msgEmptyQuery  = "Please provide a query"
	msgBadRequest  = "invalid request body"
	msgServerError = "An error occurred processing your request"
)

// maxRequestBytes caps the POST /chat body.
const maxRequestBytes = 64 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

// New constructs a Server from the provided chat service and config.
func New(svc chatter, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("server: chat service must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 5001
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.ChatTimeout == 0 {
		cfg.ChatTimeout = 2 * time.Minute
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = cfg.ChatTimeout + 10*time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.DefaultRegisterer
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}

	static, err := uiFS(cfg.StaticDir)
	if err != nil {
		return nil, err
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)

	s := &Server{
		chatter: svc,
		cfg:     cfg,
		log:     log,
		pingers: cfg.Pingers,
		metrics: newServerMetrics(cfg.MetricsRegistry),
		static:  static,
		stopRL:  stopRL,
	}

	if cfg.APIKey == "" {
		log.Warn("server: CATALOGAI_API_KEY not set, POST /chat is unauthenticated")
	}

	chatHandler := authMiddleware(cfg.APIKey, rl.middleware(http.HandlerFunc(s.handleChat)))

	mux := http.NewServeMux()
	mux.Handle("POST /chat", s.instrument("chat", chatHandler))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))
	mux.Handle("GET /", s.instrument("ui", http.FileServerFS(s.static)))

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(log, recoverer(corsHandler(mux))),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server: listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.log.Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleChat handles POST /chat. It answers with
// {"response": ..., "sources": [...]} or {"error": ...} and a non-2xx status.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.observeChat("bad_request", start)
		writeJSON(w, log, http.StatusBadRequest, errorResponse{Error: msgBadRequest})
		return
	}
	if err := validate.Struct(req); err != nil {
		s.observeChat("bad_request", start)
		writeJSON(w, log, http.StatusBadRequest, errorResponse{Error: msgEmptyQuery})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ChatTimeout)
	defer cancel()

	res, err := s.chatter.Chat(ctx, req.Query)
	switch {
	case errors.Is(err, chat.ErrEmptyQuery):
		s.observeChat("bad_request", start)
		writeJSON(w, log, http.StatusBadRequest, errorResponse{Error: msgEmptyQuery})
		return
	case err != nil:
		s.observeChat("error", start)
		log.Error("chat failed", slog.Any("error", err))
		writeJSON(w, log, http.StatusInternalServerError, errorResponse{Error: msgServerError})
		return
	}

	sources := res.Sources
	if sources == nil {
		sources = []chat.Source{}
	}
	s.observeChat("ok", start)
	writeJSON(w, log, http.StatusOK, chatResponse{Response: res.Response, Sources: sources})
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, logging.FromContext(r.Context()), http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes body as the JSON response with the given status.
func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("response encode error", slog.Any("error", err))
	}
}

// uiFS returns the web UI file system: dir when set, the embedded UI otherwise.
func uiFS(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(embeddedUI, "ui")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("server: static dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("server: static dir %q is not a directory", dir)
	}
	return os.DirFS(dir), nil
}
