package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/54b3r/catalogai-go/internal/rag"
)

// Generation outcome label values.
const (
	generationOK    = "ok"
	generationError = "error"
	generationEmpty = "empty"
)

// Metrics holds the Prometheus collectors owned by the chat service.
type Metrics struct {
	// retrievalOutcomes counts catalog searches by rag.Outcome, keeping
	// outages apart from queries that simply had no relevant content.
	retrievalOutcomes *prometheus.CounterVec

	// generationsTotal counts language model calls by outcome.
	generationsTotal *prometheus.CounterVec

	// promptTokens records the estimated size of each prompt sent.
	promptTokens prometheus.Histogram

	// contextSources records how many passages each prompt carried.
	contextSources prometheus.Histogram
}

// NewMetrics registers the chat metrics against reg. Tests pass a fresh
// prometheus.NewRegistry() to stay hermetic.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		retrievalOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogai",
			Subsystem: "retrieval",
			Name:      "outcomes_total",
			Help:      "Catalog searches partitioned by outcome.",
		}, []string{"outcome"}),

		generationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogai",
			Subsystem: "generation",
			Name:      "requests_total",
			Help:      "Language model calls partitioned by outcome.",
		}, []string{"outcome"}),

		promptTokens: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "catalogai",
			Subsystem: "generation",
			Name:      "prompt_tokens",
			Help:      "Estimated prompt size in tokens.",
			Buckets:   prometheus.ExponentialBuckets(500, 2, 10),
		}),

		contextSources: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "catalogai",
			Subsystem: "generation",
			Name:      "context_sources",
			Help:      "Number of catalog passages included in each prompt.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
	}

	// Pre-create every outcome series so dashboards see zeros.
	for _, o := range []rag.Outcome{
		rag.OutcomeFound, rag.OutcomeNoMatches, rag.OutcomeBelowThreshold,
		rag.OutcomeEmbedError, rag.OutcomeIndexError,
	} {
		m.retrievalOutcomes.WithLabelValues(string(o))
	}
	for _, o := range []string{generationOK, generationError, generationEmpty} {
		m.generationsTotal.WithLabelValues(o)
	}

	return m
}
