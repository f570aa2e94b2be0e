package lexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Label names
	LabelFacade = "facade"
	LabelResult = "result"

	// Cache lookup results
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Metrics holds the Prometheus metrics of facades. One Metrics can be shared by many facades,
// which are told apart by their name label.
type Metrics struct {
	TokenizationsTotal   *prometheus.CounterVec
	TokenizationDuration *prometheus.HistogramVec
	LexicalFailuresTotal *prometheus.CounterVec
	LabelCacheLookups    *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered on reg.
// It panics if they are already registered there.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TokenizationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexer_tokenizations_total",
				Help: "Number of tokenization calls served",
			},
			[]string{LabelFacade},
		),

		TokenizationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lexer_tokenization_duration_seconds",
				Help:    "Latency of tokenization calls, including tokenizer construction",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{LabelFacade},
		),

		LexicalFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexer_untokenized_results_total",
				Help: "Number of tokenization results with a non-empty untokenized suffix",
			},
			[]string{LabelFacade},
		),

		LabelCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexer_transition_label_cache_lookups_total",
				Help: "Transition label cache lookups, by result",
			},
			[]string{LabelFacade, LabelResult},
		),
	}
}
