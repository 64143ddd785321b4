package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// plat pipeline.
type Metrics struct {
	TractsConsumed  prometheus.Counter
	TransformErrors prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Engine metrics.
	FillItemsApplied prometheus.Counter
	FillItemsSkipped prometheus.Counter
	CellsFilled      prometheus.Counter
	LotsResolved     prometheus.Counter
	LotsUnresolved   prometheus.Counter
	AliquotErrors    prometheus.Counter

	// Lot-definition import metrics.
	ImportRowsLoaded  prometheus.Counter
	ImportRowsSkipped prometheus.Counter

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
	SnapshotsPublished      prometheus.Counter

	// External parser metrics.
	ParserRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	ParserCache    *prometheus.CounterVec // labels: result={hit,miss}
	ParserEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.TractsConsumed,
		m.TransformErrors,
		m.PipelineRunning,
		m.FillItemsApplied,
		m.FillItemsSkipped,
		m.CellsFilled,
		m.LotsResolved,
		m.LotsUnresolved,
		m.AliquotErrors,
		m.ImportRowsLoaded,
		m.ImportRowsSkipped,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.SnapshotsPublished,
		m.ParserRequests,
		m.ParserCache,
		m.ParserEnabled,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TractsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plat_etl",
			Name:      "tracts_consumed_total",
			Help:      "Total tract events read from the source topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plat_etl",
			Name:      "transform_errors_total",
			Help:      "Total tract events that failed to decode.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plat_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		FillItemsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plat_etl",
			Name:      "fill_items_applied_total",
			Help:      "Fill requests applied to township grids.",
		}),
		FillItemsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plat_etl",
			Name:      "fill_items_skipped_total",
			Help:      "Fill requests skipped for invalid sections, keys, or cells.",
		}),
		CellsFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plat_etl",
			Name:      "cells_filled_total",
			Help:      "Quarter-quarter cells newly marked filled.",
		}),
		LotsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plat_etl",
			Name:      "lots_resolved_total",
			Help:      "Lot requests resolved to at least one cell.",
		}),
		LotsUnresolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plat_etl",
			Name:      "lots_unresolved_total",
			Help:      "Lot requests left unresolved after definition and default lookup.",
		}),
		AliquotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plat_etl",
			Name:      "aliquot_errors_total",
			Help:      "Aliquot strings that failed to decompose.",
		}),
		ImportRowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plat_etl",
			Name:      "import_rows_loaded_total",
			Help:      "Lot-definition rows applied during bulk import.",
		}),
		ImportRowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plat_etl",
			Name:      "import_rows_skipped_total",
			Help:      "Malformed lot-definition rows skipped during bulk import.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plat_etl",
			Name:      "batch_size",
			Help:      "Number of tract events per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plat_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-queue-execute-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plat_etl",
			Name:      "snapshots_published_total",
			Help:      "Township plat snapshots written to the sink topic.",
		}),
		ParserRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plat_etl",
			Name:      "parser_requests_total",
			Help:      "Description parser requests by outcome.",
		}, []string{"outcome"}),
		ParserCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plat_etl",
			Name:      "parser_cache_total",
			Help:      "Description parser cache lookups by result.",
		}, []string{"result"}),
		ParserEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plat_etl",
			Name:      "parser_enabled",
			Help:      "1 when the external description parser is enabled, 0 otherwise.",
		}),
	}
}
