// Package tracing wires optional Langfuse tracing into the eino callback
// chain used by the chat pipeline.
package tracing

import (
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"
)

// DefaultHost is used when LANGFUSE_HOST is unset.
const DefaultHost = "http://localhost:3000"

// Config holds the Langfuse connection settings.
type Config struct {
	Host      string
	PublicKey string
	SecretKey string
}

// Enabled reports whether both keys are present.
func (c Config) Enabled() bool {
	return c.PublicKey != "" && c.SecretKey != ""
}

// FromEnv reads LANGFUSE_HOST, LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY.
func FromEnv() Config {
	cfg := Config{
		Host:      os.Getenv("LANGFUSE_HOST"),
		PublicKey: os.Getenv("LANGFUSE_PUBLIC_KEY"),
		SecretKey: os.Getenv("LANGFUSE_SECRET_KEY"),
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	return cfg
}

// Setup builds the Langfuse callback handler. The returned flush function
// must run before process exit so buffered traces are delivered. When cfg is
// not enabled it returns (nil, a no-op flush, false).
func Setup(cfg Config) (callbacks.Handler, func(), bool) {
	if !cfg.Enabled() {
		return nil, func() {}, false
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}

	handler, flush := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      cfg.Host,
		PublicKey: cfg.PublicKey,
		SecretKey: cfg.SecretKey,
	})
	return handler, flush, true
}

// Install registers the Langfuse handler globally when enabled and returns
// the flush function.
func Install(cfg Config) (func(), bool) {
	handler, flush, ok := Setup(cfg)
	if ok {
		callbacks.AppendGlobalHandlers(handler)
	}
	return flush, ok
}
