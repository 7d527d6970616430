// Package chat answers catalog questions. A Service retrieves relevant catalog
// passages, asks the language model to answer strictly from them, and attaches
// one citation per catalog page the model was shown.
//
// Failures of the external services never reach the caller as errors: an
// embedding or index outage yields the same no-results message as a question
// with no relevant content, and a generation failure yields a fixed apology.
// The distinction survives in logs and metrics.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/catalogai-go/internal/logging"
	"github.com/54b3r/catalogai-go/internal/rag"
)

// User-facing fixed responses.
const (
	// NoResultsMessage is returned when retrieval yields nothing usable.
	NoResultsMessage = "I couldn't find relevant information in the course catalog for your query. " +
		"Please try rephrasing your question or check the official Rutgers website for more information."

	// GenerationFailedMessage is returned when the language model call fails.
	GenerationFailedMessage = "I encountered an error while generating the response. Please try again."
)

// ErrEmptyQuery is returned when the query is empty after trimming whitespace.
var ErrEmptyQuery = errors.New("chat: query must not be empty")

// Searcher is the retrieval dependency of the Service.
// *rag.CatalogRetriever satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) rag.SearchResult
}

// Result is the answer to a single question.
type Result struct {
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
}

// Service orchestrates retrieval, generation and citation assembly. It holds
// no per-request state and is safe for concurrent use.
type Service struct {
	searcher Searcher
	model    model.BaseChatModel
	cfg      Config
	metrics  *Metrics
}

// New constructs a Service. A nil metrics registers into a private registry.
func New(searcher Searcher, chatModel model.BaseChatModel, cfg Config, metrics *Metrics) (*Service, error) {
	if searcher == nil {
		return nil, fmt.Errorf("chat: searcher must not be nil")
	}
	if chatModel == nil {
		return nil, fmt.Errorf("chat: chat model must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	return &Service{
		searcher: searcher,
		model:    chatModel,
		cfg:      cfg,
		metrics:  metrics,
	}, nil
}

// Chat answers query from the catalog. The only error it returns is
// ErrEmptyQuery; every service failure degrades to a fixed message.
func (s *Service) Chat(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	log := logging.FromContext(ctx)

	res := s.searcher.Search(ctx, query, s.cfg.TopK)
	s.metrics.retrievalOutcomes.WithLabelValues(string(res.Outcome)).Inc()

	if res.Outcome != rag.OutcomeFound || len(res.Items) == 0 {
		if res.Outcome.Failed() {
			log.Warn("chat: catalog retrieval failed",
				slog.String("failure", string(res.Outcome)),
				slog.Any("error", res.Err),
			)
		} else {
			log.Info("chat: no relevant catalog content",
				slog.String("outcome", string(res.Outcome)),
			)
		}
		return &Result{Response: NoResultsMessage, Sources: []Source{}}, nil
	}

	used := contextPrefix(res.Items, s.cfg.MaxContextSources)
	response := s.generate(ctx, query, used)
	sources := BuildSources(used, s.cfg.BaseURL)

	log.Info("chat: answered",
		slog.Int("passages", len(used)),
		slog.Int("sources", len(sources)),
	)

	return &Result{Response: response, Sources: sources}, nil
}
