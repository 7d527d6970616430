package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/54b3r/catalogai-go/internal/catalog"
	"github.com/54b3r/catalogai-go/internal/logging"
)

// ScraperConfig holds the configuration for the catalog scraper.
type ScraperConfig struct {
	// BaseURL is the catalog edition to fetch pages from.
	// Defaults to catalog.DefaultScrapeBaseURL.
	BaseURL string

	// HTTPTimeout is the timeout for each page fetch. Defaults to 30s.
	HTTPTimeout time.Duration

	// UserAgent is the HTTP User-Agent header sent with fetch requests.
	UserAgent string

	// Delay is an optional pause between page fetches.
	Delay time.Duration
}

// ScrapeStats summarizes a scrape run.
type ScrapeStats struct {
	Saved  int
	Failed int
}

// Scraper fetches catalog pages and writes their visible text to a corpus
// file separated by page markers.
type Scraper struct {
	cfg        ScraperConfig
	httpClient *http.Client
}

// NewScraper constructs a Scraper, filling zero config fields with defaults.
func NewScraper(cfg ScraperConfig) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = catalog.DefaultScrapeBaseURL
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "catalogai-go/1.0 (catalog scraper)"
	}
	return &Scraper{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// Scrape fetches every page in pages and appends "\n--- Page N ---\n<text>\n"
// to w for each page that returns 200. Pages that fail to fetch or return any
// other status are logged and skipped. Only a write error or cancellation
// aborts the run. progress, when non-nil, is called after every page.
func (s *Scraper) Scrape(ctx context.Context, w io.Writer, pages []int, progress func(page int, err error)) (ScrapeStats, error) {
	log := logging.FromContext(ctx)
	if progress == nil {
		progress = func(int, error) {}
	}

	var stats ScrapeStats
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("ingestion: scrape cancelled: %w", err)
		}
		if i > 0 && s.cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return stats, fmt.Errorf("ingestion: scrape cancelled: %w", ctx.Err())
			case <-time.After(s.cfg.Delay):
			}
		}

		text, err := s.fetchPage(ctx, page)
		if err != nil {
			stats.Failed++
			log.Warn("scrape: page skipped", slog.Int("page", page), slog.Any("error", err))
			progress(page, err)
			continue
		}

		if _, err := fmt.Fprintf(w, "\n%s\n%s\n", catalog.PageMarker(page), text); err != nil {
			return stats, fmt.Errorf("ingestion: write page %d: %w", page, err)
		}
		stats.Saved++
		log.Debug("scrape: page saved", slog.Int("page", page))
		progress(page, nil)
	}
	return stats, nil
}

// PageRange returns the inclusive list of page numbers from..to.
func PageRange(from, to int) []int {
	if to < from {
		return nil
	}
	pages := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		pages = append(pages, n)
	}
	return pages
}

// fetchPage retrieves one catalog page and extracts its visible text.
func (s *Scraper) fetchPage(ctx context.Context, page int) (string, error) {
	url := catalog.PageURL(s.cfg.BaseURL, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	return ExtractText(resp.Body)
}

// skippedElements hold no visible text.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// ExtractText parses an HTML document and returns its visible text nodes,
// each trimmed, with empty nodes dropped, joined by newlines.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(parts, "\n"), nil
}
