package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/snowpit-service/internal/domain"
)

const namespace = "snowpit"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Submission ingest.
	SubmissionsConsumed  prometheus.Counter
	ResultsProduced      prometheus.Counter
	SubmissionsRejected  *prometheus.CounterVec // labels: reason={validation,rejected}
	ValidationViolations *prometheus.CounterVec // labels: code
	PipelineRunning      prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Storage.
	StoreOperations *prometheus.CounterVec // labels: op={load,upsert,delete}, outcome={ok,created,updated,not_found,error}

	// Rendering.
	Renders        *prometheus.CounterVec   // labels: format
	RenderDuration *prometheus.HistogramVec // labels: format
	DiagramCache   *prometheus.CounterVec   // labels: result={hit,miss}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SubmissionsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_consumed_total",
			Help:      "Total submissions read from the source topic.",
		}),
		ResultsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_produced_total",
			Help:      "Total results written to the sink topic.",
		}),
		SubmissionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_rejected_total",
			Help:      "Submissions that were not persisted, by reason.",
		}, []string{"reason"}),
		ValidationViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_violations_total",
			Help:      "Validation violations reported, by rule.",
		}, []string{"code"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the ingest pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of submissions per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		StoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Record store operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Diagrams rendered, by output format.",
		}, []string{"format"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time to lay out and encode a diagram.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"format"}),
		DiagramCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagram_cache_total",
			Help:      "Diagram cache lookups by result.",
		}, []string{"result"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when site geocoding is enabled, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SubmissionsConsumed,
		m.ResultsProduced,
		m.SubmissionsRejected,
		m.ValidationViolations,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.StoreOperations,
		m.Renders,
		m.RenderDuration,
		m.DiagramCache,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}

// ObserveOutcome counts a rejected submission and its violations.
// Accepted outcomes are not counted here.
func (m *Metrics) ObserveOutcome(o domain.Outcome) {
	switch {
	case o.Rejection != nil:
		m.SubmissionsRejected.WithLabelValues("rejected").Inc()
	case len(o.Violations) > 0:
		m.SubmissionsRejected.WithLabelValues("validation").Inc()
		for _, v := range o.Violations {
			m.ValidationViolations.WithLabelValues(string(v.Code)).Inc()
		}
	}
}

// GeocodeCacheHit records a geocoder cache hit.
func (m *Metrics) GeocodeCacheHit() { m.GeocodeCache.WithLabelValues("hit").Inc() }

// GeocodeCacheMiss records a geocoder cache miss.
func (m *Metrics) GeocodeCacheMiss() { m.GeocodeCache.WithLabelValues("miss").Inc() }
