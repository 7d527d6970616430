package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"google.golang.org/genai"

	"github.com/54b3r/catalogai-go/internal/budget"
	"github.com/54b3r/catalogai-go/internal/catalog"
	"github.com/54b3r/catalogai-go/internal/chat"
	"github.com/54b3r/catalogai-go/internal/embedder"
	"github.com/54b3r/catalogai-go/internal/provider"
	"github.com/54b3r/catalogai-go/internal/rag"
	"github.com/54b3r/catalogai-go/internal/server"
)

// defaultCollection is the Qdrant collection the catalog index lives in.
const defaultCollection = "catalog-text-embedding-004"

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// splitCSV splits a comma-separated list, dropping blank entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// openIndex connects to the Qdrant collection configured by QDRANT_*,
// creating it with the embedder's dimensionality when missing.
func openIndex(ctx context.Context, log *slog.Logger) (*rag.QdrantStore, error) {
	cfg := &rag.QdrantConfig{
		Host:       getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:       getEnvInt("QDRANT_PORT", 6334),
		Collection: getEnvOrDefault("QDRANT_COLLECTION", defaultCollection),
		VectorSize: uint64(embedder.DefaultDimensions(embedder.Backend())), //nolint:gosec // dimensions are bounded
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	}
	store, err := rag.NewQdrantStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	log.Info("qdrant store ready",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("collection", cfg.Collection),
	)
	return store, nil
}

// chatConfigFromEnv resolves the chat orchestration settings.
func chatConfigFromEnv() chat.Config {
	cfg := chat.DefaultConfig()
	cfg.TopK = getEnvInt("RAG_TOP_K", cfg.TopK)
	cfg.MaxContextSources = getEnvInt("RAG_MAX_CONTEXT_SOURCES", cfg.MaxContextSources)
	cfg.BaseURL = getEnvOrDefault("CATALOG_BASE_URL", catalog.DefaultBaseURL)
	cfg.MaxPromptTokens = getEnvInt("MODEL_MAX_PROMPT_TOKENS", budget.DefaultMaxPromptTokens)
	return cfg
}

// chatStack is everything a chat entry point needs, plus the handles the
// server's readiness probes use.
type chatStack struct {
	service     *chat.Service
	index       *rag.QdrantStore
	providerCfg *provider.Config
}

// buildChatStack wires embedder, index, retriever and language model into a
// chat.Service. The caller must close stack.index.
func buildChatStack(ctx context.Context, log *slog.Logger) (*chatStack, error) {
	if err := embedder.ValidateForRAG(log); err != nil {
		return nil, err
	}
	emb, err := embedder.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise embedder: %w", err)
	}

	index, err := openIndex(ctx, log)
	if err != nil {
		return nil, err
	}

	retriever, err := rag.NewRetriever(emb, index, rag.RetrieverConfig{
		Threshold: getEnvFloat("RAG_RELEVANCE_THRESHOLD", rag.DefaultThreshold),
	})
	if err != nil {
		_ = index.Close()
		return nil, err
	}

	providerCfg := provider.ConfigFromEnv()
	chatModel, err := provider.New(ctx, providerCfg)
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("initialise model provider: %w", err)
	}
	log.Info("provider initialised",
		slog.String("provider", string(providerCfg.Backend)),
		slog.String("model", providerCfg.ModelName()),
	)

	svc, err := chat.New(retriever, chatModel, chatConfigFromEnv(), chat.NewMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		_ = index.Close()
		return nil, err
	}

	return &chatStack{service: svc, index: index, providerCfg: providerCfg}, nil
}

// buildPingers returns the readiness probes for the configured backends. A
// Gemini probe is added for each Gemini-backed dependency; other backends are
// covered by the Qdrant probe alone.
func buildPingers(ctx context.Context, stack *chatStack, log *slog.Logger) []server.Pinger {
	pingers := []server.Pinger{server.NewQdrantPinger(stack.index.Client())}

	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		return pingers
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Warn("readiness: gemini probe disabled", slog.Any("error", err))
		return pingers
	}

	if stack.providerCfg.Backend == provider.BackendGemini {
		pingers = append(pingers, server.NewGeminiPinger(client, stack.providerCfg.ModelName(), "gemini-chat"))
	}
	if embedder.Backend() == "gemini" {
		model := getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-004")
		pingers = append(pingers, server.NewGeminiPinger(client, model, "gemini-embedding"))
	}
	return pingers
}

// newProgressBar renders progress on w, which is stderr in production.
func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}
