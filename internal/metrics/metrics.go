package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockrisk_analysis_runs_total",
		Help: "Total number of analysis runs by data source and outcome",
	}, []string{"source", "outcome"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stockrisk_analysis_duration_seconds",
		Help:    "Latency of a full fetch and analysis run",
		Buckets: prometheus.DefBuckets,
	})

	FallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockrisk_provider_fallback_total",
		Help: "Total number of runs served from the fallback data source",
	}, []string{"source"})

	ItemsAnalyzed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockrisk_items_analyzed",
		Help: "Number of items in the latest analysis run",
	})

	CriticalAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockrisk_critical_alerts",
		Help: "Number of critical alerts in the latest analysis run",
	})

	CapitalTied = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockrisk_capital_tied",
		Help: "Cost value of stock on hand in the latest analysis run",
	})

	ItemsByTier = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stockrisk_items_by_tier",
		Help: "Items per risk kind and tier in the latest analysis run",
	}, []string{"kind", "tier"})

	AlertsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockrisk_alerts_published_total",
		Help: "Total number of critical alerts published",
	})

	AlertPublishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockrisk_alert_publish_failures_total",
		Help: "Total number of failed alert publish attempts",
	})

	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockrisk_cache_requests_total",
		Help: "Latest-run cache lookups by result",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
