// Package telemetry defines the Prometheus metrics for the crawl pipeline.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_lookups_total",
			Help: "Total file-number lookups, labeled by outcome (found, miss, skip, error).",
		},
		[]string{"outcome"},
	)

	recordsWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_records_written_total",
			Help: "Total business records durably appended to shard outputs.",
		},
	)

	retriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_fetch_retries_total",
			Help: "Total transient fetch failures that were retried.",
		},
	)

	activeShards = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crawler_active_shards",
			Help: "Number of shard coordinators currently running.",
		},
	)

	shardsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_shards_finished_total",
			Help: "Shard coordinators that reached a terminal state, labeled by state.",
		},
		[]string{"state"},
	)

	paceDelaySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_pace_delay_seconds",
			Help:    "Histogram of pre-request pacing waits.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)
)

// Handler returns the standard Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveLookup records the outcome of one processed id.
func ObserveLookup(outcome string) {
	lookupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRecordWritten counts a durably appended record.
func ObserveRecordWritten() {
	recordsWrittenTotal.Inc()
}

// ObserveRetry counts a retried transient fetch failure.
func ObserveRetry() {
	retriesTotal.Inc()
}

// IncActiveShards increments the running-coordinator gauge.
func IncActiveShards() {
	activeShards.Inc()
}

// DecActiveShards decrements the running-coordinator gauge.
func DecActiveShards() {
	activeShards.Dec()
}

// ObserveShardFinished records a coordinator reaching a terminal state.
func ObserveShardFinished(state string) {
	shardsFinishedTotal.WithLabelValues(state).Inc()
}

// ObservePaceDelay records the duration of a pacing wait.
func ObservePaceDelay(d time.Duration) {
	paceDelaySeconds.Observe(d.Seconds())
}
