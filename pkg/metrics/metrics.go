package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	FrontierSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "frontier_entries",
			Help: "Live frontier entries (pending + visited) at the last budget snapshot.",
		},
	)

	PagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pages_processed_total",
			Help: "Total number of processed URLs.",
		},
		[]string{"status"}, // success, failure
	)

	CrawlFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_failures_total",
			Help: "Total number of failed URL visits.",
		},
		[]string{"error_type"}, // timeout, navigation, archive, frontier, unknown
	)

	LinksEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "links_enqueued_total",
			Help: "Total number of links added to the frontier as pending.",
		},
	)

	LinksSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "links_skipped_total",
			Help: "Total number of discovered links not enqueued.",
		},
		[]string{"reason"}, // other_origin, known, budget
	)

	RecoveriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_recoveries_total",
			Help: "Total number of times the scheduler fell back after a failed visit.",
		},
	)

	CrawlDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crawl_duration_seconds",
			Help:    "Duration of a full URL visit.",
			Buckets: []float64{1, 5, 10, 15, 30, 60, 120},
		},
		[]string{"domain"},
	)
)
