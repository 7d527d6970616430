package ingestion

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/54b3r/catalogai-go/internal/catalog"
)

// minChunkChars is the length a chunk's text must exceed to be kept.
// Shorter windows are navigation residue rather than catalog content.
const minChunkChars = 100

// Page is the raw text of one catalog page.
type Page struct {
	Number int
	Text   string
}

// Chunk is a word window of a single page, ready to embed.
type Chunk struct {
	// Name is the stable chunk identifier, catalog_chunk_{page}_{index}.
	Name string
	// Page is the catalog page the window was cut from.
	Page int
	// Index is the window's position within its page.
	Index int
	// Text is the whitespace-normalized window text.
	Text string
}

// SplitPages splits a catalog text file on "--- Page N ---" markers. Text
// before the first marker is kept as page 1 when it is not blank. Markers
// whose number does not fit in an int are skipped with their content.
func SplitPages(content string) []Page {
	re := catalog.MarkerPattern()
	locs := re.FindAllStringSubmatchIndex(content, -1)

	var pages []Page
	preface := content
	if len(locs) > 0 {
		preface = content[:locs[0][0]]
	}
	if strings.TrimSpace(preface) != "" {
		pages = append(pages, Page{Number: 1, Text: preface})
	}

	for i, loc := range locs {
		n, err := strconv.Atoi(content[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		pages = append(pages, Page{Number: n, Text: content[loc[1]:end]})
	}
	return pages
}

// ChunkPages cuts every page into windows of size words advancing by
// size-overlap words. Whitespace runs collapse to single spaces. Windows
// whose text is not longer than 100 characters are dropped, but they still
// consume an index so names stay aligned with window positions.
func ChunkPages(pages []Page, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("ingestion: chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("ingestion: chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	step := size - overlap

	var chunks []Chunk
	for _, p := range pages {
		words := strings.Fields(p.Text)
		for start := 0; start < len(words); start += step {
			end := min(start+size, len(words))
			text := strings.Join(words[start:end], " ")
			if utf8.RuneCountInString(text) <= minChunkChars {
				continue
			}
			idx := start / step
			chunks = append(chunks, Chunk{
				Name:  fmt.Sprintf("catalog_chunk_%d_%d", p.Number, idx),
				Page:  p.Number,
				Index: idx,
				Text:  text,
			})
		}
	}
	return chunks, nil
}
