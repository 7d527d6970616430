package rag

import (
	"context"
	"errors"
	"math"
	"testing"
)

// fakeEmbedder returns a fixed vector or a fixed error and records the task.
type fakeEmbedder struct {
	vec      []float32
	err      error
	lastTask TaskType
	calls    int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string, task TaskType) ([][]float32, error) {
	f.calls++
	f.lastTask = task
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

// fakeIndex returns canned matches and records the requested topK.
type fakeIndex struct {
	matches []Match
	err     error
	topK    int
	calls   int
}

func (f *fakeIndex) Query(_ context.Context, _ []float32, topK int) ([]Match, error) {
	f.calls++
	f.topK = topK
	return f.matches, f.err
}

func (f *fakeIndex) Upsert(context.Context, []Point) error { return nil }
func (f *fakeIndex) Count(context.Context) (uint64, error) { return uint64(len(f.matches)), nil }
func (f *fakeIndex) Close() error                          { return nil }

func match(score float32, page any, text string) Match {
	return Match{Score: score, Metadata: map[string]any{PayloadText: text, PayloadPage: page}}
}

func TestNewRetriever_Validation(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{vec: []float32{1}}
	idx := &fakeIndex{}

	tests := []struct {
		name     string
		embedder Embedder
		index    VectorIndex
		cfg      RetrieverConfig
		wantErr  bool
	}{
		{name: "valid", embedder: emb, index: idx, cfg: RetrieverConfig{Threshold: 0.6}},
		{name: "zero threshold", embedder: emb, index: idx, cfg: RetrieverConfig{Threshold: 0}},
		{name: "nil embedder", index: idx, cfg: RetrieverConfig{Threshold: 0.6}, wantErr: true},
		{name: "nil index", embedder: emb, cfg: RetrieverConfig{Threshold: 0.6}, wantErr: true},
		{name: "threshold above one", embedder: emb, index: idx, cfg: RetrieverConfig{Threshold: 1.5}, wantErr: true},
		{name: "threshold below minus one", embedder: emb, index: idx, cfg: RetrieverConfig{Threshold: -2}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewRetriever(tc.embedder, tc.index, tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Fatalf("NewRetriever() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSearch_FiltersStrictlyAboveThresholdInIndexOrder(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{vec: []float32{0.1, 0.2}}
	idx := &fakeIndex{matches: []Match{
		match(0.82, 12.0, "cs major requirements"),
		match(0.60, 13.0, "exactly at threshold"),
		match(0.71, int64(12), "more cs requirements"),
		match(0.55, "40", "unrelated"),
		match(0.65, "not-a-number", "page missing"),
	}}

	r, err := NewRetriever(emb, idx, RetrieverConfig{Threshold: DefaultThreshold})
	if err != nil {
		t.Fatalf("NewRetriever: %v", err)
	}

	res := r.Search(context.Background(), "What are the requirements for a computer science major?", 10)

	if res.Outcome != OutcomeFound {
		t.Fatalf("Outcome = %q, want %q", res.Outcome, OutcomeFound)
	}
	if res.Err != nil {
		t.Fatalf("Err = %v, want nil", res.Err)
	}
	if emb.lastTask != TaskRetrievalQuery {
		t.Errorf("embed task = %q, want %q", emb.lastTask, TaskRetrievalQuery)
	}
	if idx.topK != 10 {
		t.Errorf("index topK = %d, want 10", idx.topK)
	}

	want := []ContentItem{
		{Score: 0.82, Text: "cs major requirements", PageNumber: 12},
		{Score: 0.71, Text: "more cs requirements", PageNumber: 12},
		{Score: 0.65, Text: "page missing", PageNumber: 0},
	}
	if len(res.Items) != len(want) {
		t.Fatalf("got %d items, want %d: %+v", len(res.Items), len(want), res.Items)
	}
	for i := range want {
		if res.Items[i] != want[i] {
			t.Errorf("item[%d] = %+v, want %+v", i, res.Items[i], want[i])
		}
		if !(float64(res.Items[i].Score) > DefaultThreshold) {
			t.Errorf("item[%d] score %v does not exceed threshold", i, res.Items[i].Score)
		}
	}
}

func TestSearch_Outcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		embedder   *fakeEmbedder
		index      *fakeIndex
		want       Outcome
		wantErr    bool
		indexCalls int
	}{
		{
			name:       "embed failure",
			embedder:   &fakeEmbedder{err: errors.New("quota exceeded")},
			index:      &fakeIndex{matches: []Match{match(0.9, 1, "x")}},
			want:       OutcomeEmbedError,
			wantErr:    true,
			indexCalls: 0,
		},
		{
			name:       "empty vector",
			embedder:   &fakeEmbedder{vec: nil},
			index:      &fakeIndex{},
			want:       OutcomeEmbedError,
			wantErr:    true,
			indexCalls: 0,
		},
		{
			name:       "index failure",
			embedder:   &fakeEmbedder{vec: []float32{1}},
			index:      &fakeIndex{err: errors.New("connection refused")},
			want:       OutcomeIndexError,
			wantErr:    true,
			indexCalls: 1,
		},
		{
			name:       "no matches",
			embedder:   &fakeEmbedder{vec: []float32{1}},
			index:      &fakeIndex{},
			want:       OutcomeNoMatches,
			indexCalls: 1,
		},
		{
			name:     "all below threshold",
			embedder: &fakeEmbedder{vec: []float32{1}},
			index: &fakeIndex{matches: []Match{
				match(0.59, 3, "a"),
				match(0.6, 4, "b"),
			}},
			want:       OutcomeBelowThreshold,
			indexCalls: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r, err := NewRetriever(tc.embedder, tc.index, RetrieverConfig{Threshold: DefaultThreshold})
			if err != nil {
				t.Fatalf("NewRetriever: %v", err)
			}
			res := r.Search(context.Background(), "q", 10)
			if res.Outcome != tc.want {
				t.Errorf("Outcome = %q, want %q", res.Outcome, tc.want)
			}
			if len(res.Items) != 0 {
				t.Errorf("Items = %+v, want empty", res.Items)
			}
			if (res.Err != nil) != tc.wantErr {
				t.Errorf("Err = %v, wantErr %v", res.Err, tc.wantErr)
			}
			if res.Outcome.Failed() != tc.wantErr {
				t.Errorf("Failed() = %v, want %v", res.Outcome.Failed(), tc.wantErr)
			}
			if tc.index.calls != tc.indexCalls {
				t.Errorf("index calls = %d, want %d", tc.index.calls, tc.indexCalls)
			}
		})
	}
}

func TestBuildContentItems_DropsExtraMetadata(t *testing.T) {
	t.Parallel()

	m := Match{
		ID:    "abc",
		Score: 0.9,
		Metadata: map[string]any{
			PayloadText:    "text",
			PayloadPage:    "7.9",
			PayloadChunkID: "catalog_chunk_7_0",
		},
	}
	items := BuildContentItems([]Match{m}, 0.6)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].PageNumber != 7 {
		t.Errorf("PageNumber = %d, want 7 (truncated)", items[0].PageNumber)
	}
	if items[0].Text != "text" {
		t.Errorf("Text = %q, want %q", items[0].Text, "text")
	}
}

func TestBuildContentItems_MissingText(t *testing.T) {
	t.Parallel()

	items := BuildContentItems([]Match{{Score: 0.7, Metadata: map[string]any{PayloadPage: 2}}}, 0.6)
	if len(items) != 1 || items[0].Text != "" || items[0].PageNumber != 2 {
		t.Fatalf("items = %+v, want one item with empty text on page 2", items)
	}
}

func TestBuildContentItems_ThresholdBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		score     float32
		threshold float64
		kept      bool
	}{
		// float32(0.6) widens to 0.6000000238..., just above the float64 cutoff.
		{name: "float32 of threshold kept", score: float32(0.6), threshold: 0.6, kept: true},
		{name: "next float32 below dropped", score: math.Nextafter32(float32(0.6), 0), threshold: 0.6, kept: false},
		{name: "exactly representable equal dropped", score: 0.5, threshold: 0.5, kept: false},
		{name: "zero threshold keeps positive", score: 0.01, threshold: 0, kept: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			items := BuildContentItems([]Match{match(tc.score, 1, "text")}, tc.threshold)
			if got := len(items) == 1; got != tc.kept {
				t.Errorf("score %v threshold %v: kept = %v, want %v", tc.score, tc.threshold, got, tc.kept)
			}
		})
	}
}
