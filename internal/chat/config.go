package chat

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/54b3r/catalogai-go/internal/budget"
	"github.com/54b3r/catalogai-go/internal/catalog"
)

// Default orchestration constants.
const (
	// DefaultTopK is the number of neighbours requested from the index.
	DefaultTopK = 10
	// DefaultMaxContextSources caps how many passages reach the prompt and
	// therefore how many pages can be cited.
	DefaultMaxContextSources = 10
)

// Config controls the chat orchestration.
type Config struct {
	// TopK is the fan-out requested from the catalog retriever.
	TopK int `validate:"gt=0"`

	// MaxContextSources is the prefix length of retrieved passages used for
	// both the prompt and the source list.
	MaxContextSources int `validate:"gt=0"`

	// BaseURL is the catalog URL citation links are built from.
	BaseURL string `validate:"required,url"`

	// MaxPromptTokens is the estimated prompt size above which a warning is
	// logged. Zero disables the warning.
	MaxPromptTokens int `validate:"gte=0"`
}

// DefaultConfig returns the configuration the catalog assistant ships with.
func DefaultConfig() Config {
	return Config{
		TopK:              DefaultTopK,
		MaxContextSources: DefaultMaxContextSources,
		BaseURL:           catalog.DefaultBaseURL,
		MaxPromptTokens:   budget.DefaultMaxPromptTokens,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("chat: invalid config: %w", err)
	}
	return nil
}
