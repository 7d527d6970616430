package server

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/genai"
)

// QdrantPinger probes the vector index using its native HealthCheck RPC.
type QdrantPinger struct {
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	if _, err := p.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// modelGetter is the subset of *genai.Models the Gemini probe needs.
type modelGetter interface {
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// GeminiPinger probes a Gemini model by fetching its metadata. It spends no
// tokens and fails on a bad key or an unknown model name.
type GeminiPinger struct {
	models modelGetter
	model  string
	name   string
}

// NewGeminiPinger constructs a GeminiPinger. name labels the probe in
// readiness responses, e.g. "gemini-chat" or "gemini-embedding".
func NewGeminiPinger(client *genai.Client, model, name string) *GeminiPinger {
	return &GeminiPinger{models: client.Models, model: model, name: name}
}

// Name returns the dependency label used in readiness responses.
func (p *GeminiPinger) Name() string { return p.name }

// Ping fetches the model metadata.
func (p *GeminiPinger) Ping(ctx context.Context) error {
	if _, err := p.models.Get(ctx, p.model, nil); err != nil {
		return fmt.Errorf("get model %q: %w", p.model, err)
	}
	return nil
}
