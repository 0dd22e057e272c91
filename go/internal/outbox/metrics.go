package outbox

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector defines the interface for collecting outbox metrics
type MetricsCollector interface {
	RecordEventProcessed(eventType string, success bool, duration time.Duration)
	RecordBatchProcessed(count int, duration time.Duration)
	RecordOutboxLag(lag int)
	RecordPublishAttempt(eventType string, attempt int, success bool)
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (n *NoOpMetricsCollector) RecordEventProcessed(eventType string, success bool, duration time.Duration) {}
func (n *NoOpMetricsCollector) RecordBatchProcessed(count int, duration time.Duration)                      {}
func (n *NoOpMetricsCollector) RecordOutboxLag(lag int)                                                     {}
func (n *NoOpMetricsCollector) RecordPublishAttempt(eventType string, attempt int, success bool)            {}

// MetricPublisher wraps an EventPublisher with publish latency metrics
type MetricPublisher struct {
	publisher EventPublisher
	metrics   MetricsCollector
}

func NewMetricPublisher(publisher EventPublisher, metrics MetricsCollector) *MetricPublisher {
	return &MetricPublisher{
		publisher: publisher,
		metrics:   metrics,
	}
}

func (p *MetricPublisher) Publish(ctx context.Context, event OutboxEvent) error {
	start := time.Now()

	err := p.publisher.Publish(ctx, event)

	p.metrics.RecordEventProcessed(event.EventType, err == nil, time.Since(start))
	return err
}

// PrometheusMetrics implements MetricsCollector using Prometheus
type PrometheusMetrics struct {
	eventCounter    *prometheus.CounterVec
	eventDuration   *prometheus.HistogramVec
	batchSize       prometheus.Histogram
	batchDuration   prometheus.Histogram
	outboxLag       prometheus.Gauge
	publishAttempts *prometheus.CounterVec
}

// NewPrometheusMetrics registers the outbox collectors with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		eventCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_events_total",
			Help: "Outbox events processed by type and status",
		}, []string{"event_type", "status"}),
		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "outbox_event_publish_duration_seconds",
			Help:    "Time to publish one outbox event",
			Buckets: prometheus.DefBuckets,
		}, []string{"event_type"}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "outbox_batch_size",
			Help:    "Events sent per fallback sweep",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "outbox_batch_duration_seconds",
			Help:    "Duration of fallback sweeps",
			Buckets: prometheus.DefBuckets,
		}),
		outboxLag: factory.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_pending_events",
			Help: "Outbox events not yet sent",
		}),
		publishAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_publish_attempts_total",
			Help: "Publish attempts by type, attempt number and status",
		}, []string{"event_type", "attempt", "status"}),
	}
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (m *PrometheusMetrics) RecordEventProcessed(eventType string, success bool, duration time.Duration) {
	m.eventCounter.WithLabelValues(eventType, status(success)).Inc()
	if success {
		m.eventDuration.WithLabelValues(eventType).Observe(duration.Seconds())
	}
}

func (m *PrometheusMetrics) RecordBatchProcessed(count int, duration time.Duration) {
	m.batchSize.Observe(float64(count))
	m.batchDuration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordOutboxLag(lag int) {
	m.outboxLag.Set(float64(lag))
}

func (m *PrometheusMetrics) RecordPublishAttempt(eventType string, attempt int, success bool) {
	m.publishAttempts.WithLabelValues(eventType, strconv.Itoa(attempt), status(success)).Inc()
}
