// Package middleware provides cross-cutting concerns for the arena: the
// Prometheus collector behind every MetricsCollector in the process.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-arena/infrastructure/llm"
	"github.com/ahrav/go-arena/internal/application"
	"github.com/ahrav/go-arena/internal/ports"
)

const namespace = "arena"

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It covers dispatcher waves and tasks, vendor requests, and
// circuit breaker activity.
type PrometheusMetrics struct {
	taskLatency  *prometheus.HistogramVec
	waveLatency  *prometheus.HistogramVec
	tasksTotal   *prometheus.CounterVec
	llmRequests  *prometheus.CounterVec
	llmLatency   *prometheus.HistogramVec
	llmTokens    *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
	breakerEvent *prometheus.CounterVec
	otherLatency *prometheus.HistogramVec
	otherCounter *prometheus.CounterVec
	otherGauge   *prometheus.GaugeVec
}

// NewPrometheusMetrics registers the arena's metrics with reg. A nil reg
// selects the default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &PrometheusMetrics{
		taskLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_task_duration_seconds",
				Help:      "Time taken by a single backend call.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend", "task", "status"},
		),
		waveLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_wave_duration_seconds",
				Help:      "Time taken by one prompt across every backend.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"task", "status"},
		),
		tasksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      application.MetricDispatchTasks,
				Help:      "Backend calls made by the dispatcher.",
			},
			[]string{"backend", "task", "status"},
		),

		llmRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      llm.MetricRequests,
				Help:      "Requests sent to LLM vendors.",
			},
			[]string{"provider", "model", "status"},
		),
		llmLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      llm.MetricLatency,
				Help:      "Latency of LLM vendor requests.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider", "model", "status"},
		),
		llmTokens: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      llm.MetricTokens,
				Help:      "Tokens consumed by successful LLM requests.",
			},
			[]string{"provider", "model", "token_type"},
		),

		breakerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
			},
			[]string{"provider", "model"},
		),
		breakerEvent: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_events_total",
				Help:      "Circuit breaker outcomes by event.",
			},
			[]string{"provider", "model", "event"},
		),

		otherLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Latency of operations without a dedicated metric.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
		otherCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Counters without a dedicated metric.",
			},
			[]string{"metric", "status"},
		),
		otherGauge: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "system_state",
				Help:      "Gauges without a dedicated metric.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	seconds := duration.Seconds()
	switch operation {
	case application.MetricDispatchTask:
		pm.taskLatency.WithLabelValues(labels["backend"], labels["task"], status(labels)).Observe(seconds)
	case application.MetricDispatchWave:
		pm.waveLatency.WithLabelValues(labels["task"], status(labels)).Observe(seconds)
	case llm.MetricLatency:
		pm.llmLatency.WithLabelValues(labels["provider"], labels["model"], status(labels)).Observe(seconds)
	default:
		pm.otherLatency.WithLabelValues(operation, status(labels)).Observe(seconds)
	}
}

// RecordCounter implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case application.MetricDispatchTasks:
		pm.tasksTotal.WithLabelValues(labels["backend"], labels["task"], status(labels)).Add(value)
	case llm.MetricRequests:
		pm.llmRequests.WithLabelValues(labels["provider"], labels["model"], status(labels)).Add(value)
	case llm.MetricTokens:
		pm.llmTokens.WithLabelValues(labels["provider"], labels["model"], labels["token_type"]).Add(value)
	default:
		pm.otherCounter.WithLabelValues(metric, status(labels)).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, _ map[string]string) {
	pm.otherGauge.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface. Vendor
// latency arrives here in seconds from the LLM metrics middleware.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	if metric == llm.MetricLatency {
		pm.llmLatency.WithLabelValues(labels["provider"], labels["model"], status(labels)).Observe(value)
		return
	}
	pm.otherLatency.WithLabelValues(metric, status(labels)).Observe(value)
}

// BreakerMetrics returns circuit breaker hooks for one provider and model.
func (pm *PrometheusMetrics) BreakerMetrics(provider, model string) llm.CircuitBreakerMetrics {
	return &breakerMetrics{pm: pm, provider: provider, model: model}
}

type breakerMetrics struct {
	pm       *PrometheusMetrics
	provider string
	model    string
}

func (b *breakerMetrics) RecordState(state llm.CircuitBreakerState) {
	b.pm.breakerState.WithLabelValues(b.provider, b.model).Set(float64(state))
}

func (b *breakerMetrics) RecordTrip()    { b.event("rejected") }
func (b *breakerMetrics) RecordSuccess() { b.event("success") }
func (b *breakerMetrics) RecordFailure() { b.event("failure") }

func (b *breakerMetrics) event(name string) {
	b.pm.breakerEvent.WithLabelValues(b.provider, b.model, name).Inc()
}

func status(labels map[string]string) string {
	if s, ok := labels["status"]; ok && s != "" {
		return s
	}
	return "unknown"
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
