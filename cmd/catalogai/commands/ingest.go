package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/54b3r/catalogai-go/internal/embedder"
	"github.com/54b3r/catalogai-go/internal/ingestion"
	"github.com/54b3r/catalogai-go/internal/logging"
)

// NewIngestCmd constructs the `catalogai ingest` command, which chunks the
// scraped catalog text and loads it into the vector index.
func NewIngestCmd() *cobra.Command {
	var file string
	var reset bool
	var cfg ingestion.Config

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the scraped catalog text into the vector index",
		Long: `Split catalog.txt on its page markers, cut every page into overlapping
word windows, embed each window and upsert it into Qdrant.

Chunk IDs are deterministic, so re-running ingest over the same file
overwrites the previous points instead of duplicating them. Use --reset to
drop the collection first when the chunking parameters change.

A page marker whose number does not fit in an integer is skipped together
with the text that follows it, up to the next marker.

--chunk-overlap 0 only takes effect together with an explicit --chunk-size;
with the default chunk size an overlap of 0 means the default of 300.

Environment:
  EMBEDDING_PROVIDER   gemini (default), openai, azure, ollama
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: catalog-text-embedding-004)

Examples:
  catalogai ingest
  catalogai ingest --file ./data/catalog.txt --reset
  catalogai ingest --chunk-size 1500 --chunk-overlap 200`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			content, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("ingest: read %s: %w", file, err)
			}

			if err := embedder.ValidateForRAG(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			emb, err := embedder.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("ingest: initialise embedder: %w", err)
			}
			log.Info("embedder initialised", slog.String("provider", embedder.Backend()))

			index, err := openIndex(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = index.Close() }()

			if reset {
				if err := index.Reset(ctx); err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				log.Info("collection reset")
			}

			pipeline, err := ingestion.NewPipeline(emb, index, &cfg)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			var bar *progressbar.ProgressBar
			stats, err := pipeline.Ingest(ctx, string(content), func(done, total int) {
				if bar == nil {
					bar = newProgressBar(cmd.ErrOrStderr(), total, "embedding chunks")
				}
				_ = bar.Set(done)
			})
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			count, err := index.Count(ctx)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			log.Info("ingestion complete",
				slog.Int("pages", stats.Pages),
				slog.Int("chunks", stats.Chunks),
				slog.Int("upserted", stats.Upserted),
				slog.Int("skipped", stats.Skipped),
				slog.Uint64("points", count),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d of %d chunks from %d pages (%d skipped). Collection now holds %d points.\n",
				stats.Upserted, stats.Chunks, stats.Pages, stats.Skipped, count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "catalog.txt", "Scraped catalog text file")
	cmd.Flags().BoolVar(&reset, "reset", false, "Drop and recreate the collection before ingesting")
	cmd.Flags().IntVar(&cfg.ChunkSize, "chunk-size", 0, "Words per chunk (default 2500)")
	cmd.Flags().IntVar(&cfg.ChunkOverlap, "chunk-overlap", 0, "Words shared by consecutive chunks (default 300; 0 needs --chunk-size)")
	cmd.Flags().IntVar(&cfg.BatchSize, "batch-size", 0, "Chunks embedded and upserted per batch (default 100)")

	return cmd
}
