package llm

import (
	"context"
	"errors"
	"time"

	"github.com/ahrav/go-arena/internal/ports"
)

// Metric names recorded by MetricsMiddleware.
const (
	MetricRequests = "llm_requests_total"
	MetricLatency  = "llm_request_duration_seconds"
	MetricTokens   = "llm_tokens_total"
)

type metricsLLM struct {
	next      CoreLLM
	provider  string
	collector ports.MetricsCollector
}

// MetricsMiddleware records request counts, latency and token usage
// labelled with provider, model and status.
func MetricsMiddleware(provider string, collector ports.MetricsCollector) Middleware {
	if collector == nil {
		collector = ports.NopMetrics{}
	}
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{next: next, provider: provider, collector: collector}
	}
}

func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error) {
	start := time.Now()
	resp, err := m.next.DoRequest(ctx, prompt, opts)

	labels := map[string]string{
		"provider": m.provider,
		"model":    m.next.GetModel(),
		"status":   RequestStatus(err),
	}
	m.collector.RecordHistogram(MetricLatency, time.Since(start).Seconds(), labels)
	m.collector.RecordCounter(MetricRequests, 1, labels)

	if err == nil {
		m.collector.RecordCounter(MetricTokens, float64(resp.Usage.InputTokens), withLabel(labels, "token_type", "input"))
		m.collector.RecordCounter(MetricTokens, float64(resp.Usage.OutputTokens), withLabel(labels, "token_type", "output"))
	}
	return resp, err
}

func (m *metricsLLM) GetModel() string      { return m.next.GetModel() }
func (m *metricsLLM) SetModel(model string) { m.next.SetModel(model) }

// RequestStatus is the status label for a request outcome.
func RequestStatus(err error) string {
	var pe *ProviderError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ports.ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &pe):
		return pe.Type.String()
	default:
		return "error"
	}
}

func withLabel(labels map[string]string, k, v string) map[string]string {
	out := make(map[string]string, len(labels)+1)
	for lk, lv := range labels {
		out[lk] = lv
	}
	out[k] = v
	return out
}
