// Package embedder provides the rag.Embedder implementations used for catalog
// queries and catalog ingestion. Gemini is reached through the genai SDK;
// OpenAI, Azure OpenAI and Ollama are reached over their JSON HTTP APIs.
package embedder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/54b3r/catalogai-go/internal/rag"
)

// maxOpenAIInputs is the per-request input limit of the embeddings API.
// Larger batches are split.
const maxOpenAIInputs = 2048

// OpenAIEmbedder implements rag.Embedder against the OpenAI embeddings API or
// an Azure OpenAI deployment. It is safe for concurrent use.
type OpenAIEmbedder struct {
	endpoint   string
	header     http.Header
	model      string
	dimensions int
	client     *http.Client
}

// OpenAIConfig holds the settings for constructing an OpenAIEmbedder.
type OpenAIConfig struct {
	// BaseURL is "https://api.openai.com/v1" for OpenAI or
	// "https://<resource>.openai.azure.com/openai" for Azure.
	BaseURL string
	APIKey  string
	// Model is the embedding model, or the deployment name on Azure.
	Model string
	// Dimensions requests shortened vectors; 0 keeps the model default.
	Dimensions int
	// Azure switches to api-key auth and deployment-scoped URLs.
	Azure bool
	// APIVersion is the Azure api-version query parameter.
	APIVersion string
}

// NewOpenAIEmbedder constructs an OpenAIEmbedder from the given config.
func NewOpenAIEmbedder(cfg *OpenAIConfig) *OpenAIEmbedder {
	header := http.Header{}
	endpoint := cfg.BaseURL + "/embeddings"
	if cfg.Azure {
		header.Set("api-key", cfg.APIKey)
		endpoint = cfg.BaseURL + "/deployments/" + url.PathEscape(cfg.Model) +
			"/embeddings?api-version=" + url.QueryEscape(cfg.APIVersion)
	} else {
		header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	return &OpenAIEmbedder{
		endpoint:   endpoint,
		header:     header,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

type openaiEmbedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed returns one vector per text, in input order. OpenAI embedding models
// are symmetric, so the task type is ignored.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string, _ rag.TaskType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxOpenAIInputs {
		part, err := e.embedRequest(ctx, texts[start:min(start+maxOpenAIInputs, len(texts))])
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedRequest(ctx context.Context, texts []string) ([][]float32, error) {
	var result openaiEmbedResponse
	status, err := postJSON(ctx, e.client, e.endpoint, e.header, openaiEmbedRequest{
		Input:      texts,
		Model:      e.model,
		Dimensions: e.dimensions,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("openai embedder: %w", err)
	}
	if !ok(status) {
		if result.Error != nil && result.Error.Message != "" {
			return nil, fmt.Errorf("openai embedder: %s", result.Error.Message)
		}
		return nil, fmt.Errorf("openai embedder: HTTP %d", status)
	}

	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("openai embedder: expected %d embeddings, got %d", len(texts), len(result.Data))
	}

	// Data may arrive out of order; place each vector by its index.
	vecs := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("openai embedder: index %d out of range [0, %d)", d.Index, len(texts))
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}
