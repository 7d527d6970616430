package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/54b3r/catalogai-go/internal/catalog"
	"github.com/54b3r/catalogai-go/internal/logging"
)

// Outcome classifies how a catalog search ended. Every outcome other than
// OutcomeFound yields an empty item list.
type Outcome string

const (
	// OutcomeFound means at least one match cleared the relevance threshold.
	OutcomeFound Outcome = "found"
	// OutcomeNoMatches means the index returned nothing for the query vector.
	OutcomeNoMatches Outcome = "no_matches"
	// OutcomeBelowThreshold means matches came back but none scored above the threshold.
	OutcomeBelowThreshold Outcome = "below_threshold"
	// OutcomeEmbedError means the query could not be embedded.
	OutcomeEmbedError Outcome = "embed_error"
	// OutcomeIndexError means the vector index query failed.
	OutcomeIndexError Outcome = "index_error"
)

// Failed reports whether the outcome was caused by an external service error
// rather than by the content of the index.
func (o Outcome) Failed() bool {
	return o == OutcomeEmbedError || o == OutcomeIndexError
}

// ContentItem is a normalized retrieval hit carrying only what the answer
// generator and source assembly need.
type ContentItem struct {
	// Score is the similarity reported by the index.
	Score float32 `json:"score"`

	// Text is the full chunk text.
	Text string `json:"text"`

	// PageNumber is the catalog page the chunk came from; 0 when the stored
	// value could not be coerced.
	PageNumber int `json:"page_number"`
}

// SearchResult is the outcome of a single catalog search. Err is set only for
// OutcomeEmbedError and OutcomeIndexError.
type SearchResult struct {
	Items   []ContentItem
	Outcome Outcome
	Err     error
}

// RetrieverConfig controls relevance filtering.
type RetrieverConfig struct {
	// Threshold is the minimum similarity a match must strictly exceed.
	Threshold float64 `validate:"gte=-1,lte=1"`
}

// DefaultThreshold is the relevance cutoff used when none is configured.
const DefaultThreshold = 0.6

var validate = validator.New(validator.WithRequiredStructEnabled())

// CatalogRetriever embeds a question, queries the vector index once and keeps
// only matches scoring above the configured threshold.
type CatalogRetriever struct {
	embedder Embedder
	index    VectorIndex
	cfg      RetrieverConfig
}

// NewRetriever constructs a CatalogRetriever after validating cfg.
func NewRetriever(embedder Embedder, index VectorIndex, cfg RetrieverConfig) (*CatalogRetriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("rag: index must not be nil")
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("rag: invalid retriever config: %w", err)
	}
	return &CatalogRetriever{embedder: embedder, index: index, cfg: cfg}, nil
}

// Search embeds query with the retrieval_query task, asks the index for topK
// neighbours and returns those scoring above the threshold in index order.
// Service failures never escape as errors; they are reported through the
// result's Outcome so the caller can degrade gracefully.
func (r *CatalogRetriever) Search(ctx context.Context, query string, topK int) SearchResult {
	log := logging.FromContext(ctx)

	vectors, err := r.embedder.Embed(ctx, []string{query}, TaskRetrievalQuery)
	if err == nil && (len(vectors) == 0 || len(vectors[0]) == 0) {
		err = fmt.Errorf("embedder returned no vector for query")
	}
	if err != nil {
		return SearchResult{Outcome: OutcomeEmbedError, Err: fmt.Errorf("rag: embedding query failed: %w", err)}
	}

	matches, err := r.index.Query(ctx, vectors[0], topK)
	if err != nil {
		return SearchResult{Outcome: OutcomeIndexError, Err: fmt.Errorf("rag: vector search failed: %w", err)}
	}
	if len(matches) == 0 {
		return SearchResult{Outcome: OutcomeNoMatches}
	}

	items := BuildContentItems(matches, r.cfg.Threshold)
	log.Debug("catalog search complete",
		slog.Int("matches", len(matches)),
		slog.Int("kept", len(items)),
		slog.Float64("threshold", r.cfg.Threshold),
	)
	if len(items) == 0 {
		return SearchResult{Outcome: OutcomeBelowThreshold}
	}
	return SearchResult{Items: items, Outcome: OutcomeFound}
}

// BuildContentItems keeps matches whose score is strictly above threshold and
// normalizes them into ContentItems, preserving the input order. Scores are
// widened to float64 before the comparison.
func BuildContentItems(matches []Match, threshold float64) []ContentItem {
	items := make([]ContentItem, 0, len(matches))
	for _, m := range matches {
		if !(float64(m.Score) > threshold) {
			continue
		}
		text, _ := m.Metadata[PayloadText].(string)
		page, _ := catalog.ParsePageNumber(m.Metadata[PayloadPage])
		items = append(items, ContentItem{
			Score:      m.Score,
			Text:       text,
			PageNumber: page,
		})
	}
	return items
}
