package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-arena/infrastructure/llm"
	"github.com/ahrav/go-arena/infrastructure/middleware"
	"github.com/ahrav/go-arena/internal/application"
)

// telemetry owns the process metrics registry and, when an address is
// configured, the HTTP server exposing it.
type telemetry struct {
	registry *prometheus.Registry
	metrics  *middleware.PrometheusMetrics
	server   *http.Server
	logger   *slog.Logger
}

func startTelemetry(addr string, logger *slog.Logger) (*telemetry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	t := &telemetry{
		registry: reg,
		metrics:  middleware.NewPrometheusMetrics(reg),
		logger:   logger,
	}
	if addr == "" {
		return t, nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	t.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := t.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", "error", err)
		}
	}()
	logger.Info("Serving metrics", "addr", ln.Addr().String())
	return t, nil
}

func (t *telemetry) Close(ctx context.Context) error {
	if t.server == nil {
		return nil
	}
	return t.server.Shutdown(ctx)
}

// middlewareBuilder assembles the per-client middleware stack. The
// outermost layer comes first: tracing, metrics, circuit breaker, rate
// limit, then the per-request timeout around the vendor call.
type middlewareBuilder struct {
	cfg     application.ProvidersConfig
	metrics *middleware.PrometheusMetrics
	tracer  trace.Tracer

	mu       sync.Mutex
	limiters map[string]llm.Middleware
}

func newMiddlewareBuilder(cfg application.ProvidersConfig, metrics *middleware.PrometheusMetrics, tracer trace.Tracer) *middlewareBuilder {
	return &middlewareBuilder{
		cfg:      cfg,
		metrics:  metrics,
		tracer:   tracer,
		limiters: make(map[string]llm.Middleware),
	}
}

func (b *middlewareBuilder) build(provider, model string) []llm.Middleware {
	mws := []llm.Middleware{llm.TracingMiddleware(provider, b.tracer)}
	if b.metrics != nil {
		mws = append(mws, llm.MetricsMiddleware(provider, b.metrics))
	}
	if b.cfg.CircuitBreakerFailures > 0 {
		var hooks llm.CircuitBreakerMetrics
		if b.metrics != nil {
			hooks = b.metrics.BreakerMetrics(provider, model)
		}
		mws = append(mws, llm.CircuitBreakerMiddlewareWithMetrics(
			b.cfg.CircuitBreakerFailures, b.cfg.CircuitBreakerCooldown, hooks))
	}
	if b.cfg.RequestsPerSecond > 0 {
		mws = append(mws, b.limiter(provider))
	}
	if b.cfg.RequestTimeout > 0 {
		mws = append(mws, llm.TimeoutMiddleware(b.cfg.RequestTimeout))
	}
	return mws
}

// limiter returns the rate limiter shared by every model of provider.
func (b *middlewareBuilder) limiter(provider string) llm.Middleware {
	b.mu.Lock()
	defer b.mu.Unlock()
	mw, ok := b.limiters[provider]
	if !ok {
		mw = llm.RateLimitMiddleware(rate.Limit(b.cfg.RequestsPerSecond), b.cfg.Burst)
		b.limiters[provider] = mw
	}
	return mw
}

// requestOptions are sent with every completion.
func requestOptions(cfg application.ProvidersConfig) map[string]any {
	opts := make(map[string]any)
	if cfg.MaxTokens > 0 {
		opts[llm.OptMaxTokens] = cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		opts[llm.OptTemperature] = cfg.Temperature
	}
	return opts
}
