package embedder

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/54b3r/catalogai-go/internal/rag"
)

// OllamaEmbedder implements rag.Embedder against a local Ollama server's
// /api/embed endpoint. No API key is required.
type OllamaEmbedder struct {
	host   string
	model  string
	client *http.Client
}

// OllamaConfig holds the settings for constructing an OllamaEmbedder.
type OllamaConfig struct {
	// Host is the server base URL, e.g. "http://localhost:11434".
	Host  string
	Model string
}

// NewOllamaEmbedder constructs an OllamaEmbedder. Local models embed a
// 100-chunk batch slowly, hence the generous timeout.
func NewOllamaEmbedder(cfg *OllamaConfig) *OllamaEmbedder {
	return &OllamaEmbedder{
		host:   strings.TrimRight(cfg.Host, "/"),
		model:  cfg.Model,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// taskPrefix returns the instruction prefix nomic-embed-text expects for the
// given task. Other models get no prefix.
func (e *OllamaEmbedder) taskPrefix(task rag.TaskType) string {
	if !strings.HasPrefix(e.model, "nomic-embed-text") {
		return ""
	}
	switch task {
	case rag.TaskRetrievalQuery:
		return "search_query: "
	case rag.TaskRetrievalDocument:
		return "search_document: "
	default:
		return ""
	}
}

// Embed returns one vector per text, in input order.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string, task rag.TaskType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	input := texts
	if prefix := e.taskPrefix(task); prefix != "" {
		input = make([]string, len(texts))
		for i, t := range texts {
			input[i] = prefix + t
		}
	}

	var result ollamaEmbedResponse
	status, err := postJSON(ctx, e.client, e.host+"/api/embed", nil,
		ollamaEmbedRequest{Model: e.model, Input: input}, &result)
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: %w", err)
	}
	if !ok(status) {
		if result.Error != "" {
			return nil, fmt.Errorf("ollama embedder: %s", result.Error)
		}
		return nil, fmt.Errorf("ollama embedder: HTTP %d", status)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embedder: expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}
	return result.Embeddings, nil
}
