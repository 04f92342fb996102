package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// pipelineMetrics tracks publish and delivery outcomes. A nil receiver is a
// no-op so the pipeline can run with metrics disabled.
type pipelineMetrics struct {
	published *prometheus.CounterVec
	delivered *prometheus.CounterVec
	failed    *prometheus.CounterVec
	dropped   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func newPipelineMetrics(reg prometheus.Registerer) *pipelineMetrics {
	m := &pipelineMetrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logtap",
			Name:      "events_published_total",
			Help:      "Log events handed to the dispatch bus, by category.",
		}, []string{"category"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logtap",
			Name:      "deliveries_total",
			Help:      "Successful sink deliveries, by sink name.",
		}, []string{"sink"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logtap",
			Name:      "delivery_errors_total",
			Help:      "Failed sink deliveries (error, panic, or budget exceeded), by sink name.",
		}, []string{"sink"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logtap",
			Name:      "dropped_events_total",
			Help:      "Events discarded by the queue overflow policy, by sink name.",
		}, []string{"sink"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "logtap",
			Name:      "delivery_duration_seconds",
			Help:      "Sink delivery duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sink"}),
	}
	reg.MustRegister(m.published, m.delivered, m.failed, m.dropped, m.duration)
	return m
}

func (m *pipelineMetrics) observePublish(category string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(category).Inc()
}

func (m *pipelineMetrics) observeDelivery(sink string, d time.Duration) {
	if m == nil {
		return
	}
	m.delivered.WithLabelValues(sink).Inc()
	m.duration.WithLabelValues(sink).Observe(d.Seconds())
}

func (m *pipelineMetrics) observeFailure(sink string, d time.Duration) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(sink).Inc()
	m.duration.WithLabelValues(sink).Observe(d.Seconds())
}

func (m *pipelineMetrics) observeDrop(sink string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(sink).Inc()
}
