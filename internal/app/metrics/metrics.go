// Package metrics exposes pipeline instrumentation via Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "voicepipe_stage_duration_seconds",
	Help:    "Wall time of one pipeline stage invocation.",
	Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
}, []string{"stage"})

var stageOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "voicepipe_stage_invocations_total",
	Help: "Pipeline stage invocations by outcome.",
}, []string{"stage", "outcome"})

var syncOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "voicepipe_sync_outcomes_total",
	Help: "CRM sync attempts by classification.",
}, []string{"status"})

// ObserveStage records one stage invocation.
func ObserveStage(stage string, start time.Time, err error) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	stageOutcomes.WithLabelValues(stage, outcome).Inc()
}

// ObserveSyncOutcome records one sync classification.
func ObserveSyncOutcome(status string) {
	syncOutcomes.WithLabelValues(status).Inc()
}
