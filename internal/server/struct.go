package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/catalogai-go/internal/chat"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 5001).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response. It must
	// cover a full retrieval plus generation round trip.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// ChatTimeout bounds a single POST /chat request. Defaults to 2 minutes.
	ChatTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on POST /chat
	// (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on POST /chat.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// StaticDir serves the web UI from disk instead of the embedded copy.
	StaticDir string
	// AllowedOrigins lists the CORS origins allowed to call POST /chat.
	// Defaults to "*".
	AllowedOrigins []string
	// MetricsRegistry receives the server metrics. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer is exposed on GET /metrics. Defaults to
	// prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// chatter is the interface handleChat calls to answer a question.
// *chat.Service satisfies it; tests inject a fake.
type chatter interface {
	Chat(ctx context.Context, query string) (*chat.Result, error)
}

// Server is the HTTP server that exposes the catalog chat service.
type Server struct {
	// chatter answers POST /chat requests.
	chatter chatter
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the HTTP and chat request metrics.
	metrics *serverMetrics
	// static is the web UI file system served on GET /.
	static fs.FS
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /chat.
type chatRequest struct {
	// Query is the user's natural language question about the catalog.
	// Whitespace-only queries pass validation and are rejected by the chat
	// service instead.
	Query string `json:"query" validate:"required"`
}

// chatResponse is the JSON body returned by a successful POST /chat.
type chatResponse struct {
	Response string        `json:"response"`
	Sources  []chat.Source `json:"sources"`
}

// errorResponse is the JSON body returned on any POST /chat failure.
type errorResponse struct {
	Error string `json:"error"`
}
