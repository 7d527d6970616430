package ingestion

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Computer Science</title>
  <style>body { color: red; }</style>
  <script>var tracking = true;</script>
</head>
<body>
  <h1>  Computer Science  </h1>
  <p>The major requires <b>01:198:111</b>.</p>
  <noscript>enable javascript</noscript>
</body>
</html>`

func TestExtractText(t *testing.T) {
	t.Parallel()

	got, err := ExtractText(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	want := "Computer Science\nComputer Science\nThe major requires\n01:198:111\n."
	if got != want {
		t.Errorf("ExtractText() = %q, want %q", got, want)
	}
}

func TestScrape(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pg1.html":
			_, _ = w.Write([]byte("<html><body><p>first page</p></body></html>"))
		case "/pg3.html":
			_, _ = w.Write([]byte("<html><body><p>third page</p></body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	s := NewScraper(ScraperConfig{BaseURL: srv.URL + "/"})

	var out bytes.Buffer
	var seen []int
	stats, err := s.Scrape(context.Background(), &out, PageRange(1, 3), func(page int, _ error) {
		seen = append(seen, page)
	})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	if stats != (ScrapeStats{Saved: 2, Failed: 1}) {
		t.Errorf("stats = %+v, want 2 saved and 1 failed", stats)
	}
	want := "\n--- Page 1 ---\nfirst page\n\n--- Page 3 ---\nthird page\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if !reflect.DeepEqual(seen, []int{1, 2, 3}) {
		t.Errorf("progress pages = %v, want [1 2 3]", seen)
	}

	// The written corpus splits back into the scraped pages.
	pages := SplitPages(out.String())
	if len(pages) != 2 || pages[0].Number != 1 || pages[1].Number != 3 {
		t.Errorf("SplitPages(scraped) = %+v", pages)
	}
}

func TestScrape_Cancelled(t *testing.T) {
	t.Parallel()

	s := NewScraper(ScraperConfig{BaseURL: "http://127.0.0.1:0/"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	if _, err := s.Scrape(ctx, &out, []int{1}, nil); err == nil {
		t.Error("Scrape() error = nil, want cancellation error")
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want nothing written", out.String())
	}
}

func TestPageRange(t *testing.T) {
	t.Parallel()

	if got := PageRange(3, 5); !reflect.DeepEqual(got, []int{3, 4, 5}) {
		t.Errorf("PageRange(3, 5) = %v", got)
	}
	if got := PageRange(5, 3); got != nil {
		t.Errorf("PageRange(5, 3) = %v, want nil", got)
	}
}
