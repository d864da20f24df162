package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the ingest pipeline.
type Metrics struct {
	DocumentsReceived prometheus.Counter
	DocumentsRejected prometheus.Counter
	RecordsRejected   prometheus.Counter
	EventsProcessed   prometheus.Counter
	EventsDuplicate   prometheus.Counter
	UnknownFields     *prometheus.CounterVec
	TypeMismatches    prometheus.Counter
	SinkFailures      prometheus.Counter
	ProcessDuration   prometheus.Histogram
}

// New creates and registers pipeline metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers pipeline metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not panic.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "trailview_documents_received_total",
			Help: "Total number of raw CloudTrail documents received",
		}),
		DocumentsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "trailview_documents_rejected_total",
			Help: "Total number of raw documents that failed to parse",
		}),
		RecordsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "trailview_records_rejected_total",
			Help: "Log file entries that failed to decode while the rest of the file was kept",
		}),
		EventsProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "trailview_events_processed_total",
			Help: "Total number of events delivered to the sink",
		}),
		EventsDuplicate: f.NewCounter(prometheus.CounterOpts{
			Name: "trailview_events_duplicate_total",
			Help: "Total number of events skipped as redeliveries",
		}),
		UnknownFields: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trailview_unknown_fields_total",
			Help: "Fields stored without a typed accessor, by field name",
		}, []string{"field"}),
		TypeMismatches: f.NewCounter(prometheus.CounterOpts{
			Name: "trailview_type_mismatches_total",
			Help: "Accessor reads that found a value of the wrong variant",
		}),
		SinkFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "trailview_sink_failures_total",
			Help: "Total number of events the sink failed to persist",
		}),
		ProcessDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trailview_event_process_duration_seconds",
			Help:    "Time spent deduplicating and delivering one event",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncUnknownField counts one stored-but-unknown field.
func (m *Metrics) IncUnknownField(name string) {
	m.UnknownFields.WithLabelValues(name).Inc()
}
