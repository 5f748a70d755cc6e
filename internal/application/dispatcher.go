package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// Metric names emitted by the dispatcher.
const (
	MetricDispatchTask  = "dispatch_task"
	MetricDispatchWave  = "dispatch_wave"
	MetricDispatchTasks = "dispatch_tasks_total"
)

// DispatcherConfig holds the tunables of the fan-out dispatcher.
type DispatcherConfig struct {
	// TaskTimeout bounds a single backend invocation. Zero disables the
	// per-task deadline; the caller's context still applies.
	TaskTimeout time.Duration `yaml:"task_timeout" mapstructure:"task_timeout" validate:"min=0"`
}

// Dispatcher runs every prompt against every backend. Prompts are processed
// one at a time in waves: each wave invokes all backends concurrently for a
// single prompt and must finish before the next prompt starts. The first
// failing invocation aborts the whole dispatch and no partial matrix is
// returned.
//
// A Dispatcher holds no per-run state and is safe for concurrent use.
type Dispatcher struct {
	config  DispatcherConfig
	logger  *slog.Logger
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// NewDispatcher creates a dispatcher. A nil logger falls back to
// slog.Default and a nil collector discards metrics.
func NewDispatcher(config DispatcherConfig, logger *slog.Logger, metrics ports.MetricsCollector) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Dispatcher{
		config:  config,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("arena-dispatcher"),
	}
}

// Dispatch executes kind for every (prompt, backend) pair and returns the
// outputs as a backend-major matrix: result[b][p] is backend b's output for
// prompt p.
//
// Auxiliary inputs required by kind are validated before any backend is
// invoked. With no backends the matrix is empty. Any backend failure is
// returned as a *domain.BackendError.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	prompts []string,
	backends []ports.Backend,
	kind domain.TaskKind,
	aux domain.AuxInputs,
) (domain.ResultMatrix, error) {
	if err := validateDispatch(prompts, backends, kind, aux); err != nil {
		return nil, err
	}
	if len(backends) == 0 {
		return domain.NewResultMatrix(0, len(prompts)), nil
	}

	ctx, span := d.tracer.Start(ctx, "Dispatcher.Dispatch",
		trace.WithAttributes(
			attribute.String("task.kind", string(kind)),
			attribute.Int("dispatch.prompts", len(prompts)),
			attribute.Int("dispatch.backends", len(backends)),
		))
	defer span.End()

	start := time.Now()
	matrix := domain.NewResultMatrix(len(backends), len(prompts))
	for p := range prompts {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "dispatch cancelled")
			return nil, fmt.Errorf("dispatch cancelled before prompt %d: %w", p, err)
		}

		cells, err := d.runWave(ctx, p, prompts[p], backends, kind, aux)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "wave failed")
			d.logger.Error("Dispatch aborted",
				"task", kind, "prompt", p, "error", err)
			return nil, err
		}
		domain.SortCellsByBackend(cells)
		matrix.Place(cells)
	}

	d.logger.Info("Dispatch complete",
		"task", kind,
		"prompts", len(prompts),
		"backends", len(backends),
		"duration", time.Since(start))
	span.SetStatus(codes.Ok, "")
	return matrix, nil
}

// DispatchOne runs a single prompt against every backend and returns one
// output per backend, in backend order. aux sequences, when required, must
// contain exactly one entry.
func (d *Dispatcher) DispatchOne(
	ctx context.Context,
	prompt string,
	backends []ports.Backend,
	kind domain.TaskKind,
	aux domain.AuxInputs,
) ([]string, error) {
	matrix, err := d.Dispatch(ctx, []string{prompt}, backends, kind, aux)
	if err != nil {
		return nil, err
	}
	out := make([]string, matrix.NumBackends())
	for b := range out {
		out[b] = matrix[b][0]
	}
	return out, nil
}

func validateDispatch(prompts []string, backends []ports.Backend, kind domain.TaskKind, aux domain.AuxInputs) error {
	for i, b := range backends {
		if b == nil {
			return domain.NewInvalidInputError("backends", "backend %d is nil", i)
		}
	}
	return aux.Validate(kind, len(prompts))
}

// runWave invokes every backend for prompt p concurrently. The wave's
// worker group is bounded by the number of backends and discarded when the
// wave resolves. Cells are returned in completion order.
func (d *Dispatcher) runWave(
	ctx context.Context,
	p int,
	prompt string,
	backends []ports.Backend,
	kind domain.TaskKind,
	aux domain.AuxInputs,
) ([]domain.ResultCell, error) {
	ctx, span := d.tracer.Start(ctx, "Dispatcher.wave",
		trace.WithAttributes(attribute.Int("wave.prompt", p)))
	defer span.End()

	d.logger.Debug("Starting wave", "prompt", p, "backends", len(backends))
	start := time.Now()

	results := make(chan domain.ResultCell, len(backends))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(backends))

	for b, backend := range backends {
		task := domain.Task{
			PromptIndex:  p,
			BackendIndex: b,
			Kind:         kind,
			Prompt:       prompt,
		}
		if kind == domain.TaskTranslate {
			task.Pair = aux.LanguagePairs[p]
		}
		if kind == domain.TaskCompleteMissingWord {
			task.Options = aux.Options[p]
		}

		g.Go(func() error {
			out, err := d.invoke(gctx, backend, task)
			if err != nil {
				return domain.NewBackendError(p, b, backend.Name(), kind, err)
			}
			results <- domain.ResultCell{PromptIndex: p, BackendIndex: b, Output: out}
			return nil
		})
	}

	err := g.Wait()
	close(results)
	d.metrics.RecordLatency(MetricDispatchWave, time.Since(start), map[string]string{
		"task":   string(kind),
		"status": statusLabel(err),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend failed")
		return nil, err
	}

	cells := make([]domain.ResultCell, 0, len(backends))
	for c := range results {
		cells = append(cells, c)
	}
	d.logger.Debug("Wave complete", "prompt", p, "duration", time.Since(start))
	return cells, nil
}

// invoke runs a single task against backend with the optional per-task
// deadline applied.
func (d *Dispatcher) invoke(ctx context.Context, backend ports.Backend, task domain.Task) (string, error) {
	if d.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.TaskTimeout)
		defer cancel()
	}

	start := time.Now()
	out, err := callBackend(ctx, backend, task)

	labels := map[string]string{
		"backend": backend.Name(),
		"task":    string(task.Kind),
		"status":  statusLabel(err),
	}
	d.metrics.RecordLatency(MetricDispatchTask, time.Since(start), labels)
	d.metrics.RecordCounter(MetricDispatchTasks, 1, labels)

	if err != nil {
		var llmErr *ports.LLMError
		d.logger.Debug("Backend call failed",
			"backend", backend.Name(),
			"prompt", task.PromptIndex,
			"backend_index", task.BackendIndex,
			"transient", errors.As(err, &llmErr) && llmErr.IsTransient(),
			"error", err)
	}
	return out, err
}

// callBackend maps a task kind onto the matching backend capability.
func callBackend(ctx context.Context, backend ports.Backend, task domain.Task) (string, error) {
	switch task.Kind {
	case domain.TaskCall:
		return backend.Call(ctx, task.Prompt)
	case domain.TaskTranslate:
		return backend.Translate(ctx, task.Prompt, task.Pair.Source, task.Pair.Target)
	case domain.TaskSummarize:
		return backend.Summarize(ctx, task.Prompt)
	case domain.TaskAnswerQuestion:
		return backend.AnswerQuestion(ctx, task.Prompt)
	case domain.TaskCompleteSentence:
		return backend.CompleteSentence(ctx, task.Prompt)
	case domain.TaskCompleteMissingWord:
		return backend.CompleteMissingWord(ctx, task.Prompt, task.Options)
	default:
		return "", domain.NewInvalidInputError("task", "unknown task kind %q", task.Kind)
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
