// Package budget estimates prompt sizes for the catalog assistant. The
// supported backends use different tokenizers, so this package applies a
// conservative character heuristic: 1 token ≈ 4 characters of English prose.
package budget

import (
	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// perMessageOverhead approximates the framing tokens most chat APIs add
	// around each message.
	perMessageOverhead = 4

	// DefaultMaxPromptTokens is the prompt size above which a warning is
	// logged. Ten full 2500-word catalog chunks come to roughly 40k tokens,
	// well inside the default chat model's window.
	DefaultMaxPromptTokens = 128000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role and content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		if m == nil {
			continue
		}
		total += perMessageOverhead
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// Check returns the estimated size of msgs and whether it exceeds maxTokens.
// A non-positive maxTokens disables the limit.
func Check(msgs []*schema.Message, maxTokens int) (int, bool) {
	tokens := EstimateMessages(msgs)
	if maxTokens <= 0 {
		return tokens, false
	}
	return tokens, tokens > maxTokens
}
