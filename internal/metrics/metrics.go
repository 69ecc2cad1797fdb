package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus instruments for the weather search pipeline.
// A nil *Metrics is valid and records nothing, so tests can skip registration.
type Metrics struct {
	ProviderCalls    *prometheus.CounterVec
	PipelineFailures *prometheus.CounterVec
	RecordsCreated   prometheus.Counter
	RecordsRefreshed prometheus.Counter
	PipelineDuration prometheus.Histogram
}

// New registers and returns the service metrics under the given namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		ProviderCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Upstream weather provider calls by endpoint",
		}, []string{"endpoint"}),
		PipelineFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_failures_total",
			Help:      "Aggregation pipeline failures by stage",
		}, []string{"stage"}),
		RecordsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_created_total",
			Help:      "Search records created",
		}),
		RecordsRefreshed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_refreshed_total",
			Help:      "Search records refreshed by the background job",
		}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end aggregation pipeline duration",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// IncProviderCall counts one upstream call against the named endpoint.
func (m *Metrics) IncProviderCall(endpoint string) {
	if m == nil {
		return
	}
	m.ProviderCalls.WithLabelValues(endpoint).Inc()
}

// IncPipelineFailure counts one pipeline failure at the named stage.
func (m *Metrics) IncPipelineFailure(stage string) {
	if m == nil {
		return
	}
	m.PipelineFailures.WithLabelValues(stage).Inc()
}

// IncRecordCreated counts one persisted search record.
func (m *Metrics) IncRecordCreated() {
	if m == nil {
		return
	}
	m.RecordsCreated.Inc()
}

// IncRecordRefreshed counts one record rewritten by the refresh job.
func (m *Metrics) IncRecordRefreshed() {
	if m == nil {
		return
	}
	m.RecordsRefreshed.Inc()
}

// ObservePipeline records the duration of one pipeline run.
func (m *Metrics) ObservePipeline(d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineDuration.Observe(d.Seconds())
}
