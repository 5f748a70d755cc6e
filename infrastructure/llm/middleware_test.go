package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-arena/internal/ports"
)

func TestTimeoutMiddleware(t *testing.T) {
	t.Run("deadline applied", func(t *testing.T) {
		mock := NewMockCoreLLM()
		mock.ResponseDelay = time.Second

		_, err := TimeoutMiddleware(20*time.Millisecond)(mock).DoRequest(context.Background(), "p", nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, mock.SawDeadline(0))
	})

	t.Run("zero disables", func(t *testing.T) {
		mock := NewMockCoreLLM()
		wrapped := TimeoutMiddleware(0)(mock)
		assert.Same(t, mock, wrapped)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	mock := NewMockCoreLLM()
	llm := RateLimitMiddleware(rate.Limit(20), 1)(mock)

	start := time.Now()
	for range 3 {
		_, err := llm.DoRequest(context.Background(), "p", nil)
		require.NoError(t, err)
	}
	// One token up front, then two refills at 50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, 3, mock.CallCount())
}

func TestRateLimitMiddlewareHonorsContext(t *testing.T) {
	mock := NewMockCoreLLM()
	llm := RateLimitMiddleware(rate.Limit(0.1), 1)(mock)
	_, err := llm.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = llm.DoRequest(ctx, "p", nil)
	assert.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCircuitBreaker(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := NewCircuitBreaker(2, time.Minute)
	cb.now = clock.now
	boom := errors.New("boom")

	assert.ErrorIs(t, cb.Call(func() error { return boom }), boom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Call(func() error { return boom }), boom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.ErrorIs(t, err, ports.ErrServiceUnavailable)
	assert.False(t, called)

	clock.advance(time.Minute)
	assert.ErrorIs(t, cb.Call(func() error { return boom }), boom, "failed probe")
	assert.Equal(t, StateOpen, cb.State())

	clock.advance(time.Minute)
	require.NoError(t, cb.Call(func() error { return nil }), "successful probe")
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerIgnoresCancellation(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute)
	_ = cb.Call(func() error { return context.Canceled })
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerSingleProbe(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := NewCircuitBreaker(1, time.Second)
	cb.now = clock.now
	_ = cb.Call(func() error { return errors.New("boom") })
	clock.advance(time.Second)

	release := make(chan struct{})
	probing := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = cb.Call(func() error {
			close(probing)
			<-release
			return nil
		})
	}()
	<-probing
	assert.ErrorIs(t, cb.Call(func() error { return nil }), ErrCircuitOpen)
	close(release)
	wg.Wait()
	assert.Equal(t, StateClosed, cb.State())
}

type breakerEvents struct {
	success, failure, trip int
	last                   CircuitBreakerState
}

func (b *breakerEvents) RecordState(s CircuitBreakerState) { b.last = s }
func (b *breakerEvents) RecordTrip()                       { b.trip++ }
func (b *breakerEvents) RecordSuccess()                    { b.success++ }
func (b *breakerEvents) RecordFailure()                    { b.failure++ }

func TestCircuitBreakerMiddleware(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Errors = []error{nil, errors.New("down")}
	events := &breakerEvents{}
	llm := CircuitBreakerMiddlewareWithMetrics(1, time.Hour, events)(mock)

	for range 3 {
		_, _ = llm.DoRequest(context.Background(), "p", nil)
	}
	assert.Equal(t, 1, events.success)
	assert.Equal(t, 1, events.failure)
	assert.Equal(t, 1, events.trip)
	assert.Equal(t, StateOpen, events.last)
	assert.Equal(t, 2, mock.CallCount())
}

type recordedMetric struct {
	name   string
	value  float64
	labels map[string]string
}

type recordingCollector struct {
	mu      sync.Mutex
	metrics []recordedMetric
}

func (r *recordingCollector) add(name string, v float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, recordedMetric{name, v, labels})
}

func (r *recordingCollector) RecordLatency(op string, d time.Duration, l map[string]string) {
	r.add(op, d.Seconds(), l)
}
func (r *recordingCollector) RecordCounter(m string, v float64, l map[string]string)   { r.add(m, v, l) }
func (r *recordingCollector) RecordGauge(m string, v float64, l map[string]string)     { r.add(m, v, l) }
func (r *recordingCollector) RecordHistogram(m string, v float64, l map[string]string) { r.add(m, v, l) }

func (r *recordingCollector) find(name, key, value string) []recordedMetric {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedMetric
	for _, m := range r.metrics {
		if m.name == name && (key == "" || m.labels[key] == value) {
			out = append(out, m)
		}
	}
	return out
}

func TestMetricsMiddleware(t *testing.T) {
	mock := NewMockCoreLLM()
	collector := &recordingCollector{}
	llm := MetricsMiddleware("openai", collector)(mock)

	_, err := llm.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)

	reqs := collector.find(MetricRequests, "status", "ok")
	require.Len(t, reqs, 1)
	assert.Equal(t, "openai", reqs[0].labels["provider"])
	assert.Equal(t, "test-model", reqs[0].labels["model"])

	input := collector.find(MetricTokens, "token_type", "input")
	require.Len(t, input, 1)
	assert.Equal(t, 10.0, input[0].value)
	output := collector.find(MetricTokens, "token_type", "output")
	require.Len(t, output, 1)
	assert.Equal(t, 20.0, output[0].value)
	assert.Len(t, collector.find(MetricLatency, "", ""), 1)

	mock.Error = NewProviderError("openai", ErrorTypeRateLimit, 429, "", nil)
	_, err = llm.DoRequest(context.Background(), "p", nil)
	require.Error(t, err)
	assert.Len(t, collector.find(MetricRequests, "status", "rate_limit"), 1)
	assert.Len(t, collector.find(MetricTokens, "", ""), 2, "no token counts for failures")
}

func TestRequestStatus(t *testing.T) {
	assert.Equal(t, "ok", RequestStatus(nil))
	assert.Equal(t, "circuit_open", RequestStatus(ErrCircuitOpen))
	assert.Equal(t, "timeout", RequestStatus(context.DeadlineExceeded))
	assert.Equal(t, "timeout", RequestStatus(NewProviderError("x", ErrorTypeTimeout, 504, "", nil)))
	assert.Equal(t, "canceled", RequestStatus(context.Canceled))
	assert.Equal(t, "authentication", RequestStatus(NewProviderError("x", ErrorTypeAuthentication, 401, "", nil)))
	assert.Equal(t, "error", RequestStatus(errors.New("x")))
}

func TestTracingMiddleware(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	mock := NewMockCoreLLM()
	llm := TracingMiddleware("anthropic", tp.Tracer("test"))(mock)

	_, err := llm.DoRequest(context.Background(), "hello", nil)
	require.NoError(t, err)

	mock.Error = errors.New("down")
	_, err = llm.DoRequest(context.Background(), "hello", nil)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "llm.request", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("llm.provider", "anthropic"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("llm.tokens.output", 20))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
