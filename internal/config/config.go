// Package config provides layered configuration for catalogai.
// Precedence, lowest to highest: built-in defaults, .env file, YAML file,
// environment variables. Variables set before loading always win; YAML then
// fills what is unset, and .env fills the rest. Every component keeps reading
// plain env vars.
//
// YAML file search order:
//  1. --config CLI flag (explicit path)
//  2. CATALOGAI_CONFIG environment variable
//  3. ~/.catalogai/config.yaml
//  4. ./catalogai.yaml
//
// If no file is found the system runs entirely from env vars.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration structure.
// Field names mirror the env var naming (lowercase, underscored).
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	RAG       RAGConfig       `yaml:"rag"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ModelConfig holds the answer generation model settings.
type ModelConfig struct {
	// Provider selects the backend: gemini, openai, azure, ollama, ark.
	Provider string `yaml:"provider"`
	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int `yaml:"max_tokens"`
	// MaxPromptTokens is the estimated prompt size above which a warning is logged.
	MaxPromptTokens int `yaml:"max_prompt_tokens"`
	// Temperature controls response randomness (0.0 to 1.0).
	Temperature float32 `yaml:"temperature"`

	Gemini GeminiConfig `yaml:"gemini"`
	OpenAI OpenAIConfig `yaml:"openai"`
	Azure  AzureConfig  `yaml:"azure"`
	Ollama OllamaConfig `yaml:"ollama"`
	Ark    ArkConfig    `yaml:"ark"`
}

// GeminiConfig holds Google Gemini settings. The key is shared with the
// Gemini embedder.
type GeminiConfig struct {
	// APIKey is the Google API key. Prefer env var GOOGLE_API_KEY.
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Prefer env var OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// AzureConfig holds Azure OpenAI provider settings.
type AzureConfig struct {
	// APIKey is the Azure OpenAI API key. Prefer env var AZURE_OPENAI_API_KEY.
	APIKey     string `yaml:"api_key"`
	Endpoint   string `yaml:"endpoint"`
	Deployment string `yaml:"deployment"`
	APIVersion string `yaml:"api_version"`
}

// OllamaConfig holds Ollama provider settings.
type OllamaConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// ArkConfig holds Volcengine Ark provider settings.
type ArkConfig struct {
	// APIKey is the Ark API key. Prefer env var ARK_API_KEY.
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedding backend (gemini, ollama, openai, azure).
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	// Dimensions overrides the embedding vector size.
	Dimensions int `yaml:"dimensions"`
	// APIKey is the embedding API key. Prefer env var EMBEDDING_API_KEY.
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
}

// QdrantConfig holds vector index connection settings.
type QdrantConfig struct {
	Host string `yaml:"host"`
	// Port is the Qdrant gRPC port.
	Port int `yaml:"port"`
	// Collection is the catalog index name.
	Collection string `yaml:"collection"`
	// APIKey is the Qdrant API key. Prefer env var QDRANT_API_KEY.
	APIKey string `yaml:"api_key"`
	TLS    bool   `yaml:"tls"`
}

// RAGConfig holds retrieval and answer assembly settings.
type RAGConfig struct {
	// RelevanceThreshold is the strict lower bound on match scores. A zero
	// value in YAML is treated as unset; use the env var to force 0.
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
	TopK               int     `yaml:"top_k"`
	MaxContextSources  int     `yaml:"max_context_sources"`
	// CatalogBaseURL prefixes pg{N}.html in source links.
	CatalogBaseURL string `yaml:"catalog_base_url"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// APIKey is the Bearer token for POST /chat. Prefer env var CATALOGAI_API_KEY.
	APIKey string `yaml:"api_key"`
	// StaticDir replaces the embedded web UI.
	StaticDir string `yaml:"static_dir"`
	// AllowedOrigins lists CORS origins.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// TracingConfig holds Langfuse tracing settings.
type TracingConfig struct {
	// PublicKey is the Langfuse public key. Prefer env var LANGFUSE_PUBLIC_KEY.
	PublicKey string `yaml:"public_key"`
	// SecretKey is the Langfuse secret key. Prefer env var LANGFUSE_SECRET_KEY.
	SecretKey string `yaml:"secret_key"`
	Host      string `yaml:"host"`
}

// envMapping maps YAML config fields to their env var names.
// Only non-empty YAML values are applied.
var envMapping = []struct {
	envKey string
	value  func(*Config) string
}{
	{"MODEL_PROVIDER", func(c *Config) string { return c.Model.Provider }},
	{"MODEL_MAX_TOKENS", func(c *Config) string { return intStr(c.Model.MaxTokens) }},
	{"MODEL_MAX_PROMPT_TOKENS", func(c *Config) string { return intStr(c.Model.MaxPromptTokens) }},
	{"MODEL_TEMPERATURE", func(c *Config) string { return float32Str(c.Model.Temperature) }},
	{"GOOGLE_API_KEY", func(c *Config) string { return c.Model.Gemini.APIKey }},
	{"GEMINI_MODEL", func(c *Config) string { return c.Model.Gemini.Model }},
	{"OPENAI_API_KEY", func(c *Config) string { return c.Model.OpenAI.APIKey }},
	{"OPENAI_MODEL", func(c *Config) string { return c.Model.OpenAI.Model }},
	{"AZURE_OPENAI_API_KEY", func(c *Config) string { return c.Model.Azure.APIKey }},
	{"AZURE_OPENAI_ENDPOINT", func(c *Config) string { return c.Model.Azure.Endpoint }},
	{"AZURE_OPENAI_DEPLOYMENT", func(c *Config) string { return c.Model.Azure.Deployment }},
	{"AZURE_OPENAI_API_VERSION", func(c *Config) string { return c.Model.Azure.APIVersion }},
	{"OLLAMA_HOST", func(c *Config) string { return c.Model.Ollama.Host }},
	{"OLLAMA_MODEL", func(c *Config) string { return c.Model.Ollama.Model }},
	{"ARK_API_KEY", func(c *Config) string { return c.Model.Ark.APIKey }},
	{"ARK_MODEL", func(c *Config) string { return c.Model.Ark.Model }},
	{"ARK_BASE_URL", func(c *Config) string { return c.Model.Ark.BaseURL }},
	{"EMBEDDING_PROVIDER", func(c *Config) string { return c.Embedding.Provider }},
	{"EMBEDDING_MODEL", func(c *Config) string { return c.Embedding.Model }},
	{"EMBEDDING_DIMENSIONS", func(c *Config) string { return intStr(c.Embedding.Dimensions) }},
	{"EMBEDDING_API_KEY", func(c *Config) string { return c.Embedding.APIKey }},
	{"EMBEDDING_ENDPOINT", func(c *Config) string { return c.Embedding.Endpoint }},
	{"QDRANT_HOST", func(c *Config) string { return c.Qdrant.Host }},
	{"QDRANT_PORT", func(c *Config) string { return intStr(c.Qdrant.Port) }},
	{"QDRANT_COLLECTION", func(c *Config) string { return c.Qdrant.Collection }},
	{"QDRANT_API_KEY", func(c *Config) string { return c.Qdrant.APIKey }},
	{"QDRANT_TLS", func(c *Config) string { return boolStr(c.Qdrant.TLS) }},
	{"RAG_RELEVANCE_THRESHOLD", func(c *Config) string { return float64Str(c.RAG.RelevanceThreshold) }},
	{"RAG_TOP_K", func(c *Config) string { return intStr(c.RAG.TopK) }},
	{"RAG_MAX_CONTEXT_SOURCES", func(c *Config) string { return intStr(c.RAG.MaxContextSources) }},
	{"CATALOG_BASE_URL", func(c *Config) string { return c.RAG.CatalogBaseURL }},
	{"CATALOGAI_HOST", func(c *Config) string { return c.Server.Host }},
	{"CATALOGAI_PORT", func(c *Config) string { return intStr(c.Server.Port) }},
	{"CATALOGAI_API_KEY", func(c *Config) string { return c.Server.APIKey }},
	{"CATALOGAI_STATIC_DIR", func(c *Config) string { return c.Server.StaticDir }},
	{"CATALOGAI_ALLOWED_ORIGINS", func(c *Config) string { return strings.Join(c.Server.AllowedOrigins, ",") }},
	{"LOG_LEVEL", func(c *Config) string { return c.Logging.Level }},
	{"LOG_FORMAT", func(c *Config) string { return c.Logging.Format }},
	{"LANGFUSE_PUBLIC_KEY", func(c *Config) string { return c.Tracing.PublicKey }},
	{"LANGFUSE_SECRET_KEY", func(c *Config) string { return c.Tracing.SecretKey }},
	{"LANGFUSE_HOST", func(c *Config) string { return c.Tracing.Host }},
}

// LoadDotEnv applies KEY=VALUE pairs from each existing file in paths
// without overriding variables that are already set. Missing files are
// skipped. Returns the files that were loaded.
func LoadDotEnv(paths ...string) ([]string, error) {
	values, loaded, err := readDotEnv(paths...)
	if err != nil {
		return loaded, err
	}
	for k, v := range values {
		if os.Getenv(k) != "" {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return loaded, fmt.Errorf("config: set %s: %w", k, err)
		}
	}
	return loaded, nil
}

// readDotEnv parses each existing file in paths. Earlier files win on
// duplicate keys, matching godotenv.Load.
func readDotEnv(paths ...string) (map[string]string, []string, error) {
	values := make(map[string]string)
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, loaded, fmt.Errorf("config: stat %s: %w", p, err)
		}
		fileValues, err := godotenv.Read(p)
		if err != nil {
			return nil, loaded, fmt.Errorf("config: failed to parse %s: %w", p, err)
		}
		for k, v := range fileValues {
			if _, seen := values[k]; !seen {
				values[k] = v
			}
		}
		loaded = append(loaded, p)
	}
	return values, loaded, nil
}

// Load layers ./.env and the resolved YAML config file into the process
// environment. Variables set before Load runs are never overwritten, YAML
// values take precedence over .env values, and .env fills whatever is left.
// Returns the YAML path that was loaded, or an empty string if no file was
// found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	dotenv, envFiles, err := readDotEnv(".env")
	if err != nil {
		return "", err
	}

	path := resolveConfigPath(explicitPath)
	if path == "" && explicitPath != "" {
		return "", fmt.Errorf("config: %s does not exist", explicitPath)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	fromYAML := make(map[string]bool)
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" || os.Getenv(m.envKey) != "" {
			continue
		}
		if err := os.Setenv(m.envKey, yamlVal); err != nil {
			return "", fmt.Errorf("config: set %s: %w", m.envKey, err)
		}
		fromYAML[m.envKey] = true
	}

	dotenvApplied := 0
	for k, v := range dotenv {
		if fromYAML[k] || os.Getenv(k) != "" {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return "", fmt.Errorf("config: set %s: %w", k, err)
		}
		dotenvApplied++
	}
	if len(envFiles) > 0 {
		log.Debug("config: loaded .env",
			slog.Any("files", envFiles),
			slog.Int("keys_applied", dotenvApplied),
		)
	}

	if path == "" {
		log.Debug("config: no YAML config file found, using env vars only")
		return "", nil
	}
	log.Info("config: loaded YAML config",
		slog.String("path", path),
		slog.Int("keys_applied", len(fromYAML)),
	)
	return path, nil
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("CATALOGAI_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".catalogai", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("catalogai.yaml"); err == nil {
		return "catalogai.yaml"
	}

	return ""
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// float32Str converts a float32 to string, returning "" for zero values.
func float32Str(v float32) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

// float64Str converts a float64 to string, returning "" for zero values.
func float64Str(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// boolStr converts a bool to string, returning "" for false.
func boolStr(v bool) string {
	if !v {
		return ""
	}
	return "true"
}
