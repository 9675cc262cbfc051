// Package metrics defines the Prometheus collectors for evaluation runs and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smarteval"

// Metrics holds the Prometheus collectors for evaluation runs. It satisfies
// evaluation.Recorder and the result cache's hit/miss hooks.
type Metrics struct {
	EvaluationsTotal     *prometheus.CounterVec
	QueriesEvaluated     prometheus.Counter
	QueriesExcluded      *prometheus.CounterVec
	EvaluationDuration   prometheus.Histogram
	IndexPostings        prometheus.Gauge
	MeanAveragePrecision *prometheus.GaugeVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Completed evaluations by document and query weighting.",
			},
			[]string{"doc_weighting", "query_weighting"},
		),
		QueriesEvaluated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_evaluated_total",
				Help:      "Queries that contributed an average precision to MAP.",
			},
		),
		QueriesExcluded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_excluded_total",
				Help:      "Queries left out of MAP by reason (unknown_query, degenerate_relevance).",
			},
			[]string{"reason"},
		),
		EvaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Wall time spent ranking and scoring one query set.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		IndexPostings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_postings",
				Help:      "Postings in the most recently built inverted index.",
			},
		),
		MeanAveragePrecision: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "mean_average_precision",
				Help:      "Last MAP observed per weighting combination.",
			},
			[]string{"doc_weighting", "query_weighting"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Sweep combinations served from the result cache.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Sweep combinations computed because the cache had no entry.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.EvaluationsTotal,
		m.QueriesEvaluated,
		m.QueriesExcluded,
		m.EvaluationDuration,
		m.IndexPostings,
		m.MeanAveragePrecision,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CircuitBreakerState,
	)

	return m
}

func (m *Metrics) ObserveIndex(_ string, postings int) {
	m.IndexPostings.Set(float64(postings))
}

func (m *Metrics) ObserveEvaluation(docWeighting, queryWeighting string, mapScore float64, evaluated int, excluded map[string]int, elapsed time.Duration) {
	m.EvaluationsTotal.WithLabelValues(docWeighting, queryWeighting).Inc()
	m.MeanAveragePrecision.WithLabelValues(docWeighting, queryWeighting).Set(mapScore)
	m.QueriesEvaluated.Add(float64(evaluated))
	for reason, n := range excluded {
		m.QueriesExcluded.WithLabelValues(reason).Add(float64(n))
	}
	m.EvaluationDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) CacheHit()  { m.CacheHitsTotal.Inc() }
func (m *Metrics) CacheMiss() { m.CacheMissesTotal.Inc() }

// SetCircuitState records a breaker state as its numeric value.
func (m *Metrics) SetCircuitState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// Handler returns the scrape handler for g. A nil g uses the default
// gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
