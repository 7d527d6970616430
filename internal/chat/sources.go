package chat

import (
	"github.com/54b3r/catalogai-go/internal/catalog"
	"github.com/54b3r/catalogai-go/internal/rag"
)

// Source is a citation for one catalog page shown to the model.
type Source struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// BuildSources returns one citation per distinct page among items, in first
// occurrence order. Callers pass the same prefix that was used for the
// prompt so every cited page was shown to the model and vice versa.
func BuildSources(items []rag.ContentItem, baseURL string) []Source {
	seen := make(map[int]struct{}, len(items))
	sources := make([]Source, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.PageNumber]; dup {
			continue
		}
		seen[item.PageNumber] = struct{}{}
		sources = append(sources, Source{
			Title: catalog.PageTitle(item.PageNumber),
			Link:  catalog.PageURL(baseURL, item.PageNumber),
		})
	}
	return sources
}
