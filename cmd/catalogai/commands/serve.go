package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/54b3r/catalogai-go/internal/logging"
	"github.com/54b3r/catalogai-go/internal/server"
	"github.com/54b3r/catalogai-go/internal/tracing"
)

// NewServeCmd constructs the `catalogai serve` command, which starts the chat
// API and the web UI.
func NewServeCmd() *cobra.Command {
	var host string
	var port int
	var staticDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat API and web UI",
		Long: `Start the catalog chat server.

Routes:
  POST /chat        {"query": "..."} -> {"response": "...", "sources": [...]}
  GET  /            web UI
  GET  /api/health  liveness
  GET  /api/ready   dependency readiness (Qdrant, Gemini)
  GET  /metrics     Prometheus metrics

Set CATALOGAI_API_KEY to require a Bearer token on POST /chat.

Examples:
  catalogai serve
  catalogai serve --host 0.0.0.0 --port 8080
  catalogai serve --static-dir ./ui`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			flush, ok := tracing.Install(tracing.FromEnv())
			defer flush()
			if ok {
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY or LANGFUSE_SECRET_KEY not set"))
			}

			stack, err := buildChatStack(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = stack.index.Close() }()

			if !cmd.Flags().Changed("host") {
				host = getEnvOrDefault("CATALOGAI_HOST", host)
			}
			if !cmd.Flags().Changed("port") {
				port = getEnvInt("CATALOGAI_PORT", port)
			}
			if !cmd.Flags().Changed("static-dir") {
				staticDir = os.Getenv("CATALOGAI_STATIC_DIR")
			}

			srv, err := server.New(stack.service, &server.Config{
				Host:           host,
				Port:           port,
				Logger:         log,
				Pingers:        buildPingers(ctx, stack, log),
				APIKey:         os.Getenv("CATALOGAI_API_KEY"),
				StaticDir:      staticDir,
				AllowedOrigins: splitCSV(os.Getenv("CATALOGAI_ALLOWED_ORIGINS")),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 5001, "TCP port to listen on")
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "Serve the web UI from this directory instead of the embedded copy")

	return cmd
}
