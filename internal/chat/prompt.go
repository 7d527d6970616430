package chat

import (
	"fmt"
	"strings"

	"github.com/54b3r/catalogai-go/internal/rag"
)

// promptTemplate wraps the catalog context and the user question. The model
// must answer only from the context and must not cite inline.
const promptTemplate = `You are a Rutgers catalog assistant. Your ONLY source of information is the CATALOG CONTEXT below. You MUST answer exclusively based on this context. Do not use any external knowledge or make up information.

IMPORTANT RULES:
1. Base your answer STRICTLY on the provided sources. If certain information isn't in the sources, say "I don't have that information in the provided sources."
2. If the query can't be fully answered from the sources, answer what you can and explain what's missing.
3. Don't include in-text citations or sources in your response. The system will attach sources separately.


CATALOG CONTEXT:
%s

USER QUESTION: %s

Now, provide your answer based ONLY on the above context:`

// contextPrefix returns the leading min(n, len(items)) items.
func contextPrefix(items []rag.ContentItem, n int) []rag.ContentItem {
	if n < 0 {
		n = 0
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}

// BuildContext renders items as numbered, page-labelled sections.
func BuildContext(items []rag.ContentItem) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "\n--- Source %d (Page %d) ---\n%s\n", i+1, item.PageNumber, item.Text)
	}
	return b.String()
}

// BuildPrompt assembles the full instruction prompt from the first
// maxSources items, in the order given.
func BuildPrompt(query string, items []rag.ContentItem, maxSources int) string {
	return fmt.Sprintf(promptTemplate, BuildContext(contextPrefix(items, maxSources)), query)
}
