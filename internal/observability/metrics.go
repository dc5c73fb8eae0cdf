package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	QueryOutcomeSignal   = "signal"
	QueryOutcomeUnparsed = "unparsed"
	QueryOutcomeError    = "error"

	RunResultRecovered = "recovered"
	RunResultFailed    = "failed"
)

var (
	registerOnce sync.Once

	// Registry holds every oraclebs collector. It is kept separate from the
	// default registry so textfile exports carry only run metrics.
	Registry = prometheus.NewRegistry()

	oracleQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oraclebs",
			Subsystem: "oracle",
			Name:      "queries_total",
			Help:      "Oracle queries by outcome.",
		},
		[]string{"outcome"},
	)
	oracleQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "oraclebs",
			Subsystem: "oracle",
			Name:      "query_duration_seconds",
			Help:      "Oracle query round-trip duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	searchSteps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "oraclebs",
			Subsystem: "search",
			Name:      "steps",
			Help:      "Steps taken by the most recent search.",
		},
	)
	searchRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oraclebs",
			Subsystem: "search",
			Name:      "runs_total",
			Help:      "Completed searches by result.",
		},
		[]string{"result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		Registry.MustRegister(oracleQueries, oracleQueryDuration, searchSteps, searchRuns)
	})
}

func RecordQuery(outcome string, duration time.Duration) {
	RegisterMetrics()
	oracleQueries.WithLabelValues(outcome).Inc()
	oracleQueryDuration.Observe(duration.Seconds())
}

func RecordSearch(result string, steps int) {
	RegisterMetrics()
	searchSteps.Set(float64(steps))
	searchRuns.WithLabelValues(result).Inc()
}

// WriteTextfile dumps the registry in Prometheus text format, suitable for
// the node_exporter textfile collector.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, Registry)
}
