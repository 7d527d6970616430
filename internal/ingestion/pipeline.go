// Package ingestion builds the catalog vector index offline. It splits the
// scraped catalog text into pages, cuts each page into overlapping word
// windows, embeds every window as a retrieval document, and upserts the
// vectors with their text and page number. It also contains the scraper that
// produces the catalog text file in the first place.
// The pipeline is invoked by the `catalogai ingest` and `catalogai scrape`
// CLI commands.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/54b3r/catalogai-go/internal/logging"
	"github.com/54b3r/catalogai-go/internal/rag"
)

// Pipeline defaults.
const (
	DefaultChunkSize    = 2500
	DefaultChunkOverlap = 300
	DefaultBatchSize    = 100
)

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the number of words per window. Defaults to 2500 if zero.
	ChunkSize int `validate:"gt=0"`

	// ChunkOverlap is the number of words shared by consecutive windows of
	// the same page. Defaults to 300 when ChunkSize is also zero.
	ChunkOverlap int `validate:"gte=0,ltfield=ChunkSize"`

	// BatchSize is the number of chunks embedded and upserted together.
	// Defaults to 100 if zero.
	BatchSize int `validate:"gt=0"`
}

// Stats summarizes an ingestion run.
type Stats struct {
	Pages    int
	Chunks   int
	Upserted int
	Skipped  int
	Batches  int
}

// Pipeline orchestrates the split → chunk → embed → upsert flow.
type Pipeline struct {
	// embedder converts chunk text into retrieval_document vectors.
	embedder rag.Embedder

	// index persists the embedded chunks.
	index rag.VectorIndex

	// cfg holds the resolved pipeline configuration.
	cfg Config
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewPipeline constructs a Pipeline, filling zero config fields with defaults.
func NewPipeline(embedder rag.Embedder, index rag.VectorIndex, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("ingestion: index must not be nil")
	}
	resolved := Config{}
	if cfg != nil {
		resolved = *cfg
	}
	if resolved.ChunkSize == 0 {
		resolved.ChunkSize = DefaultChunkSize
		if resolved.ChunkOverlap == 0 {
			resolved.ChunkOverlap = DefaultChunkOverlap
		}
	}
	if resolved.BatchSize == 0 {
		resolved.BatchSize = DefaultBatchSize
	}
	if err := validate.Struct(resolved); err != nil {
		return nil, fmt.Errorf("ingestion: invalid config: %w", err)
	}

	return &Pipeline{embedder: embedder, index: index, cfg: resolved}, nil
}

// PointID derives the deterministic index point ID for a chunk name, so
// re-ingesting the same catalog overwrites points instead of duplicating them.
func PointID(chunkName string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkName)).String()
}

// Ingest splits, chunks, embeds and upserts the catalog text. A chunk whose
// embedding fails is skipped and counted; an upsert failure aborts the run.
// progress, when non-nil, is called after each batch with the number of
// chunks processed so far and the total.
func (p *Pipeline) Ingest(ctx context.Context, content string, progress func(done, total int)) (Stats, error) {
	log := logging.FromContext(ctx)
	if progress == nil {
		progress = func(int, int) {}
	}

	pages := SplitPages(content)
	chunks, err := ChunkPages(pages, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Pages: len(pages), Chunks: len(chunks)}
	log.Info("ingestion: catalog chunked",
		slog.Int("pages", stats.Pages),
		slog.Int("chunks", stats.Chunks),
	)

	for start := 0; start < len(chunks); start += p.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("ingestion: cancelled: %w", err)
		}
		end := min(start+p.cfg.BatchSize, len(chunks))
		batch := chunks[start:end]

		points := p.embedBatch(ctx, batch)
		stats.Skipped += len(batch) - len(points)

		if len(points) > 0 {
			if err := p.index.Upsert(ctx, points); err != nil {
				return stats, fmt.Errorf("ingestion: upsert failed for batch starting at chunk %d: %w", start, err)
			}
			stats.Upserted += len(points)
		}
		stats.Batches++

		log.Debug("ingestion: batch stored",
			slog.Int("batch", stats.Batches),
			slog.Int("points", len(points)),
		)
		progress(end, len(chunks))
	}

	return stats, nil
}

// embedBatch embeds batch in one call. When the batch call fails each chunk
// is retried alone and chunks that still fail are left out.
func (p *Pipeline) embedBatch(ctx context.Context, batch []Chunk) []rag.Point {
	log := logging.FromContext(ctx)

	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.Embed(ctx, texts, rag.TaskRetrievalDocument)
	if err == nil && len(vectors) == len(batch) {
		points := make([]rag.Point, 0, len(batch))
		for i, c := range batch {
			if len(vectors[i]) == 0 {
				log.Warn("ingestion: empty embedding, skipping chunk", slog.String("chunk", c.Name))
				continue
			}
			points = append(points, toPoint(c, vectors[i]))
		}
		return points
	}
	if err == nil {
		err = fmt.Errorf("expected %d embeddings, got %d", len(batch), len(vectors))
	}
	log.Warn("ingestion: batch embedding failed, embedding chunks individually",
		slog.Int("size", len(batch)),
		slog.Any("error", err),
	)

	points := make([]rag.Point, 0, len(batch))
	for _, c := range batch {
		vecs, err := p.embedder.Embed(ctx, []string{c.Text}, rag.TaskRetrievalDocument)
		if err != nil || len(vecs) != 1 || len(vecs[0]) == 0 {
			log.Warn("ingestion: embedding failed, skipping chunk",
				slog.String("chunk", c.Name),
				slog.Any("error", err),
			)
			continue
		}
		points = append(points, toPoint(c, vecs[0]))
	}
	return points
}

func toPoint(c Chunk, vec []float32) rag.Point {
	return rag.Point{
		ID:     PointID(c.Name),
		Vector: vec,
		Metadata: map[string]any{
			rag.PayloadText:    c.Text,
			rag.PayloadPage:    c.Page,
			rag.PayloadChunkID: c.Name,
		},
	}
}
