package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmserver",
			Subsystem: "engine",
			Name:      "generations_total",
			Help:      "Total generation calls by result",
		},
		[]string{"result"},
	)

	tokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmserver",
			Subsystem: "engine",
			Name:      "tokens_total",
			Help:      "Tokens emitted by generation sessions",
		},
		[]string{"kind"},
	)

	generationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "llmserver",
			Subsystem: "engine",
			Name:      "generation_seconds",
			Help:      "Wall time of a generation call including model load",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	loadSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "llmserver",
			Subsystem: "engine",
			Name:      "load_seconds",
			Help:      "Time spent loading a model from disk",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	inflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "llmserver",
			Subsystem: "engine",
			Name:      "inflight",
			Help:      "Generations currently holding the admission gate",
		},
	)
)

func init() {
	prometheus.MustRegister(generationsTotal, tokensTotal, generationSeconds, loadSeconds, inflight)
}
