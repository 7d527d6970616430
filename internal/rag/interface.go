// Package rag defines the retrieval side of the catalog assistant: the
// embedder and vector index contracts, the Qdrant-backed index, and the
// catalog retriever that turns a question into threshold-filtered passages.
// Concrete backends satisfy these interfaces so the chat layer never depends
// on a specific provider.
package rag

import (
	"context"
)

// Payload keys written by ingestion and read back at query time.
const (
	// PayloadText holds the full chunk text.
	PayloadText = "full_text"
	// PayloadPage holds the catalog page number the chunk came from.
	PayloadPage = "page_number"
	// PayloadChunkID holds the human-readable chunk name (catalog_chunk_{page}_{n}).
	PayloadChunkID = "chunk_id"
)

// TaskType tells the embedding provider which side of an asymmetric
// retrieval pair a text belongs to.
type TaskType string

const (
	// TaskRetrievalQuery marks a user question embedded at query time.
	TaskRetrievalQuery TaskType = "RETRIEVAL_QUERY"
	// TaskRetrievalDocument marks a corpus chunk embedded during ingestion.
	TaskRetrievalDocument TaskType = "RETRIEVAL_DOCUMENT"
)

// Match is a single nearest-neighbour hit returned by a VectorIndex.
type Match struct {
	// ID is the index-assigned point identifier.
	ID string

	// Score is the cosine similarity between the query and the stored vector.
	Score float32

	// Metadata is the stored payload. Values keep their dynamic type
	// (string, int64, float64, bool) so callers decide how to coerce them.
	Metadata map[string]any
}

// Point is a vector plus payload to be written to a VectorIndex.
type Point struct {
	// ID is a UUID string identifying the point.
	ID string

	// Vector is the embedding of the chunk text.
	Vector []float32

	// Metadata is stored alongside the vector and returned on query.
	Metadata map[string]any
}

// VectorIndex is the interface for the external similarity-search service.
// Implementations must be safe to call from multiple goroutines.
type VectorIndex interface {
	// Query returns up to topK nearest neighbours of vector with their
	// metadata, ordered by descending score as ranked by the index.
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)

	// Upsert stores or replaces a batch of points.
	Upsert(ctx context.Context, points []Point) error

	// Count returns the number of points currently stored.
	Count(ctx context.Context) (uint64, error)

	// Close releases any resources held by the index client.
	Close() error
}

// Embedder converts text into dense vectors.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into embeddings for the given task.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string, task TaskType) ([][]float32, error)
}
