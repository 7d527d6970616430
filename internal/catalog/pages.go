// Package catalog holds the small amount of domain knowledge shared by the
// ingestion, retrieval, and chat layers: how catalog pages are addressed on
// the web, how page boundaries are marked in the scraped corpus, and how a
// loosely-typed page number is coerced into an integer.
package catalog

import (
	"fmt"
	"math"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the catalog edition that citation links point at.
	DefaultBaseURL = "https://catalogs.rutgers.edu/generated/nb-ug_2224/"

	// DefaultScrapeBaseURL is the rolling "current" edition fetched by the scraper.
	DefaultScrapeBaseURL = "https://catalogs.rutgers.edu/generated/nb-ug_current/"

	// DefaultFirstPage and DefaultLastPage bound the scraped page range (inclusive).
	DefaultFirstPage = 1
	DefaultLastPage  = 1539
)

// markerPattern matches a page delimiter line in the scraped corpus and
// captures the page number.
var markerPattern = regexp.MustCompile(`--- Page (\d+) ---`)

// pageFilePattern matches the final path segment of a catalog page URL.
var pageFilePattern = regexp.MustCompile(`^pg(\d+)\.html$`)

// PageMarker returns the corpus delimiter for page n.
func PageMarker(n int) string {
	return fmt.Sprintf("--- Page %d ---", n)
}

// MarkerPattern returns the compiled page delimiter pattern. The single
// capture group holds the page number.
func MarkerPattern() *regexp.Regexp {
	return markerPattern
}

// PageURL builds the public link for a catalog page. base is used verbatim
// as a prefix, so it is expected to end in "/".
func PageURL(base string, page int) string {
	return base + "pg" + strconv.Itoa(page) + ".html"
}

// PageTitle returns the human-readable citation title for a page.
func PageTitle(page int) string {
	return "Catalog Page " + strconv.Itoa(page)
}

// PageFromURL extracts the page number from a catalog page URL such as
// ".../nb-ug_2224/pg12.html". The second return value is false when the URL
// does not address a catalog page.
func PageFromURL(rawURL string) (int, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0, false
	}
	m := pageFilePattern.FindStringSubmatch(path.Base(parsed.Path))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParsePageNumber coerces a page number of unknown dynamic type into an int.
// Numeric values and numeric strings are converted through float64 and
// truncated toward zero, so 12, 12.0, "12" and "12.9" all yield 12.
// Anything else (nil, non-numeric strings, NaN, ±Inf, out-of-range values)
// yields (0, false); callers that need a value regardless use the zero.
func ParsePageNumber(raw any) (int, bool) {
	var f float64
	switch v := raw.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return truncate(float64(v))
	case float32:
		f = float64(v)
	case float64:
		f = v
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	return truncate(f)
}

// truncate drops the fractional part of f, rejecting values that have no
// integer representation.
func truncate(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	t := math.Trunc(f)
	if t >= math.MaxInt64 || t < math.MinInt64 {
		return 0, false
	}
	return int(t), true
}
