package commands

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/catalogai-go/internal/catalog"
	"github.com/54b3r/catalogai-go/internal/ingestion"
	"github.com/54b3r/catalogai-go/internal/logging"
)

// NewScrapeCmd constructs the `catalogai scrape` command, which downloads
// catalog pages and writes their text to the corpus file read by ingest.
func NewScrapeCmd() *cobra.Command {
	var (
		from, to int
		urls     []string
		out      string
		baseURL  string
		appendTo bool
		delay    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Download catalog pages into a text corpus",
		Long: `Fetch catalog pages pgN.html, extract their visible text and write each one
to the output file preceded by a "--- Page N ---" marker.

Pages that fail to download are logged and skipped.

Examples:
  catalogai scrape
  catalogai scrape --from 1 --to 50 --out sample.txt
  catalogai scrape --url https://catalogs.rutgers.edu/generated/nb-ug_current/pg577.html --append`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			pages, err := scrapePages(from, to, urls)
			if err != nil {
				return fmt.Errorf("scrape: %w", err)
			}

			flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
			if appendTo {
				flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
			}
			f, err := os.OpenFile(out, flags, 0o644) //nolint:gosec // output path is operator supplied
			if err != nil {
				return fmt.Errorf("scrape: open %s: %w", out, err)
			}
			defer func() { _ = f.Close() }()
			w := bufio.NewWriter(f)

			scraper := ingestion.NewScraper(ingestion.ScraperConfig{
				BaseURL: baseURL,
				Delay:   delay,
			})

			bar := newProgressBar(cmd.ErrOrStderr(), len(pages), "scraping pages")
			stats, err := scraper.Scrape(ctx, w, pages, func(int, error) { _ = bar.Add(1) })
			_ = bar.Finish()
			if flushErr := w.Flush(); err == nil && flushErr != nil {
				err = fmt.Errorf("flush %s: %w", out, flushErr)
			}
			if err != nil {
				return fmt.Errorf("scrape: %w", err)
			}

			log.Info("scrape complete",
				slog.Int("saved", stats.Saved),
				slog.Int("failed", stats.Failed),
				slog.String("out", out),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d pages to %s (%d failed).\n", stats.Saved, out, stats.Failed)
			return nil
		},
	}

	cmd.Flags().IntVar(&from, "from", catalog.DefaultFirstPage, "First page number to fetch")
	cmd.Flags().IntVar(&to, "to", catalog.DefaultLastPage, "Last page number to fetch (inclusive)")
	cmd.Flags().StringArrayVarP(&urls, "url", "u", nil, "Catalog page URL to fetch instead of a range (repeatable)")
	cmd.Flags().StringVarP(&out, "out", "o", "catalog.txt", "Output corpus file")
	cmd.Flags().StringVar(&baseURL, "base-url", catalog.DefaultScrapeBaseURL, "Catalog edition to fetch from")
	cmd.Flags().BoolVar(&appendTo, "append", false, "Append to the output file instead of replacing it")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Pause between page fetches")

	return cmd
}

// scrapePages resolves the page list from explicit URLs or the from..to range.
func scrapePages(from, to int, urls []string) ([]int, error) {
	if len(urls) == 0 {
		pages := ingestion.PageRange(from, to)
		if len(pages) == 0 {
			return nil, fmt.Errorf("empty page range %d..%d", from, to)
		}
		return pages, nil
	}

	pages := make([]int, 0, len(urls))
	for _, u := range urls {
		n, ok := catalog.PageFromURL(u)
		if !ok {
			return nil, fmt.Errorf("%q is not a catalog page URL (expected .../pgN.html)", u)
		}
		pages = append(pages, n)
	}
	return pages, nil
}
