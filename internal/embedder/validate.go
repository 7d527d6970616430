package embedder

import (
	"fmt"
	"log/slog"
	"strings"
)

// chatModelFragments identify chat/completion models that are not suitable
// for embedding.
var chatModelFragments = []string{
	"gpt-4",
	"gpt-3.5",
	"gpt-35",
	"o1",
	"o3",
	"gemini-1.5",
	"gemini-2",
	"llama3",
	"llama-3",
	"mistral",
	"mixtral",
	"gemma",
	"phi3",
	"claude",
	"deepseek",
	"qwen",
}

// looksLikeChatModel returns true when the model name resembles a known
// chat/completion model rather than a dedicated embedding model.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, frag := range chatModelFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// ValidateForRAG is a pre-flight check run before the embedder and the
// Qdrant store are constructed. It returns an error when the selected backend
// is missing required credentials and logs a warning when EMBEDDING_MODEL
// looks like a chat model or when the vector size differs from the catalog
// index default.
func ValidateForRAG(log *slog.Logger) error {
	backend := Backend()

	switch backend {
	case "gemini":
		if apiKeyFor("GOOGLE_API_KEY") == "" {
			return fmt.Errorf("embedder: gemini embedding requires GOOGLE_API_KEY or EMBEDDING_API_KEY")
		}

	case "openai":
		if apiKeyFor("OPENAI_API_KEY") == "" {
			return fmt.Errorf("embedder: no OpenAI API key found, set OPENAI_API_KEY or EMBEDDING_API_KEY")
		}

	case "azure":
		if apiKeyFor("AZURE_OPENAI_API_KEY") == "" {
			return fmt.Errorf("embedder: no Azure API key found, set AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		if getEnv("EMBEDDING_ENDPOINT") == "" && getEnv("AZURE_OPENAI_ENDPOINT") == "" {
			return fmt.Errorf("embedder: no Azure endpoint found, set AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}

	case "ollama":
		// Local server, nothing to check up front.

	default:
		return fmt.Errorf("embedder: unknown backend %q (valid values: gemini, ollama, openai, azure)", backend)
	}

	if model := getEnv("EMBEDDING_MODEL"); model != "" && looksLikeChatModel(model) {
		log.Warn("embedder: EMBEDDING_MODEL looks like a chat model, not an embedding model",
			slog.String("model", model),
			slog.String("hint", "use a dedicated embedding model e.g. text-embedding-004, nomic-embed-text"),
		)
	}

	if dims := DefaultDimensions(backend); dims != defaultGeminiDimensions {
		log.Warn("embedder: vector size differs from the catalog index default; the collection must be re-ingested with this embedder",
			slog.String("backend", backend),
			slog.Int("dimensions", dims),
		)
	}

	return nil
}
