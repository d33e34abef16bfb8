// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	InsightRowsBuilt = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "insight_rows_built_total",
			Help: "Total number of insight rows produced",
		},
	)

	InsightStatements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_statements_total",
			Help: "Insight statements emitted, by priority",
		},
		[]string{"priority"},
	)

	InsightBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insight_build_duration_seconds",
			Help:    "Time spent building and sorting one insight table",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
		},
	)

	InsightCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_cache_lookups_total",
			Help: "Insight cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	InsightSourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_source_errors_total",
			Help: "Failed dataset reads by source",
		},
		[]string{"source"},
	)

	InsightAlertsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "insight_alerts_published_total",
			Help: "Closed inventory alerts published",
		},
	)
)
