package embedder

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"github.com/54b3r/catalogai-go/internal/rag"
)

type fakeModels struct {
	gotModel string
	gotCfg   *genai.EmbedContentConfig
	gotN     int
	resp     *genai.EmbedContentResponse
	err      error
}

func (f *fakeModels) EmbedContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.gotModel = model
	f.gotCfg = cfg
	f.gotN = len(contents)
	return f.resp, f.err
}

func TestGeminiEmbedder_ForwardsTaskAndDimensions(t *testing.T) {
	t.Parallel()

	fm := &fakeModels{resp: &genai.EmbedContentResponse{Embeddings: []*genai.ContentEmbedding{
		{Values: []float32{0.1, 0.2}},
		{Values: []float32{0.3, 0.4}},
	}}}
	e := newGeminiEmbedder(fm, &GeminiConfig{Dimensions: 768})

	got, err := e.Embed(context.Background(), []string{"a", "b"}, rag.TaskRetrievalDocument)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if fm.gotModel != defaultGeminiModel {
		t.Errorf("model = %q, want %q", fm.gotModel, defaultGeminiModel)
	}
	if fm.gotCfg.TaskType != "RETRIEVAL_DOCUMENT" {
		t.Errorf("TaskType = %q, want RETRIEVAL_DOCUMENT", fm.gotCfg.TaskType)
	}
	if fm.gotCfg.OutputDimensionality == nil || *fm.gotCfg.OutputDimensionality != 768 {
		t.Errorf("OutputDimensionality = %v, want 768", fm.gotCfg.OutputDimensionality)
	}
	if fm.gotN != 2 {
		t.Errorf("contents sent = %d, want 2", fm.gotN)
	}
	if len(got) != 2 || got[1][0] != 0.3 {
		t.Errorf("embeddings = %v", got)
	}
}

func TestGeminiEmbedder_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fm   *fakeModels
	}{
		{name: "api error", fm: &fakeModels{err: errors.New("429 quota")}},
		{name: "nil response", fm: &fakeModels{}},
		{name: "count mismatch", fm: &fakeModels{resp: &genai.EmbedContentResponse{}}},
		{name: "empty values", fm: &fakeModels{resp: &genai.EmbedContentResponse{
			Embeddings: []*genai.ContentEmbedding{{}},
		}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := newGeminiEmbedder(tc.fm, &GeminiConfig{Model: "text-embedding-004"})
			if _, err := e.Embed(context.Background(), []string{"q"}, rag.TaskRetrievalQuery); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestGeminiEmbedder_NoDimensionsLeavesDefault(t *testing.T) {
	t.Parallel()

	fm := &fakeModels{resp: &genai.EmbedContentResponse{Embeddings: []*genai.ContentEmbedding{{Values: []float32{1}}}}}
	e := newGeminiEmbedder(fm, &GeminiConfig{})
	if _, err := e.Embed(context.Background(), []string{"q"}, rag.TaskRetrievalQuery); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if fm.gotCfg.OutputDimensionality != nil {
		t.Errorf("OutputDimensionality = %v, want nil", *fm.gotCfg.OutputDimensionality)
	}
}

func TestNewGeminiEmbedder_RequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewGeminiEmbedder(context.Background(), &GeminiConfig{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
