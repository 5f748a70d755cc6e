package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// Evaluation is the scored output of one task over a set of backends.
type Evaluation struct {
	Outputs     domain.ResultMatrix
	Evaluations domain.Evaluations
}

// Evaluator chains the dispatcher and the aggregator for each supported
// task, and ranks the results for complete runs.
type Evaluator struct {
	dispatcher *Dispatcher
	aggregator *Aggregator
	logger     *slog.Logger
}

// NewEvaluator creates an Evaluator. A nil logger falls back to
// slog.Default.
func NewEvaluator(dispatcher *Dispatcher, aggregator *Aggregator, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{dispatcher: dispatcher, aggregator: aggregator, logger: logger}
}

// EvaluateTranslation translates each prompt from pairs[p].Source to
// pairs[p].Target and scores the outputs against refs.
func (e *Evaluator) EvaluateTranslation(
	ctx context.Context,
	backends []ports.Backend,
	prompts []string,
	pairs []domain.LanguagePair,
	refs [][]string,
	metrics []string,
) (*Evaluation, error) {
	return e.evaluateReferences(ctx, backends, domain.TaskTranslate, prompts,
		domain.AuxInputs{LanguagePairs: pairs}, refs, metrics)
}

// EvaluateSummarization summarizes each prompt and scores the summaries
// against refs.
func (e *Evaluator) EvaluateSummarization(
	ctx context.Context,
	backends []ports.Backend,
	prompts []string,
	refs [][]string,
	metrics []string,
) (*Evaluation, error) {
	return e.evaluateReferences(ctx, backends, domain.TaskSummarize, prompts, domain.AuxInputs{}, refs, metrics)
}

// EvaluateSentenceCompletion completes each prompt and scores the
// completions against refs.
func (e *Evaluator) EvaluateSentenceCompletion(
	ctx context.Context,
	backends []ports.Backend,
	prompts []string,
	refs [][]string,
	metrics []string,
) (*Evaluation, error) {
	return e.evaluateReferences(ctx, backends, domain.TaskCompleteSentence, prompts, domain.AuxInputs{}, refs, metrics)
}

// EvaluateQuestionAnswering answers each question and reports, per metric,
// the score against trueRefs minus the score against falseRefs.
func (e *Evaluator) EvaluateQuestionAnswering(
	ctx context.Context,
	backends []ports.Backend,
	prompts []string,
	trueRefs, falseRefs [][]string,
	metrics []string,
) (*Evaluation, error) {
	if len(trueRefs) != len(prompts) || len(falseRefs) != len(prompts) {
		return nil, domain.NewInvalidInputError("references",
			"got %d true and %d false reference sets for %d prompts", len(trueRefs), len(falseRefs), len(prompts))
	}
	if _, err := e.aggregator.referenceKeys(metrics); err != nil {
		return nil, err
	}
	matrix, err := e.dispatcher.Dispatch(ctx, prompts, backends, domain.TaskAnswerQuestion, domain.AuxInputs{})
	if err != nil {
		return nil, err
	}
	evals, err := e.aggregator.AggregateContrastive(matrix, trueRefs, falseRefs, metrics)
	if err != nil {
		return nil, err
	}
	return &Evaluation{Outputs: matrix, Evaluations: evals}, nil
}

// EvaluateMissingWord asks each backend to fill the blank in every prompt
// from options[p] and scores exact-match accuracy against answers.
func (e *Evaluator) EvaluateMissingWord(
	ctx context.Context,
	backends []ports.Backend,
	prompts []string,
	options [][]string,
	answers []int,
) (*Evaluation, error) {
	if len(answers) != len(prompts) {
		return nil, domain.NewInvalidInputError("answers",
			"got %d answers for %d prompts", len(answers), len(prompts))
	}
	matrix, err := e.dispatcher.Dispatch(ctx, prompts, backends, domain.TaskCompleteMissingWord,
		domain.AuxInputs{Options: options})
	if err != nil {
		return nil, err
	}
	evals, err := e.aggregator.AggregateAccuracy(matrix, options, answers)
	if err != nil {
		return nil, err
	}
	return &Evaluation{Outputs: matrix, Evaluations: evals}, nil
}

func (e *Evaluator) evaluateReferences(
	ctx context.Context,
	backends []ports.Backend,
	kind domain.TaskKind,
	prompts []string,
	aux domain.AuxInputs,
	refs [][]string,
	metrics []string,
) (*Evaluation, error) {
	if len(refs) != len(prompts) {
		return nil, domain.NewInvalidInputError("references",
			"got %d reference sets for %d prompts", len(refs), len(prompts))
	}
	if _, err := e.aggregator.referenceKeys(metrics); err != nil {
		return nil, err
	}
	matrix, err := e.dispatcher.Dispatch(ctx, prompts, backends, kind, aux)
	if err != nil {
		return nil, err
	}
	evals, err := e.aggregator.Aggregate(matrix, refs, metrics)
	if err != nil {
		return nil, err
	}
	return &Evaluation{Outputs: matrix, Evaluations: evals}, nil
}

// Run evaluates suite against backends, picking the pipeline that matches
// the suite's task, and ranks the backends with weights. metrics overrides
// the suite's own metric list when non-empty. Metrics and weights are
// checked before any backend is called.
func (e *Evaluator) Run(
	ctx context.Context,
	suite *Suite,
	backends []ports.Backend,
	metrics []string,
	weights domain.Weights,
) (*domain.Report, error) {
	if len(metrics) == 0 {
		metrics = suite.EffectiveMetrics()
	}
	keys := []string{domain.MetricAccuracy}
	if suite.Task != domain.TaskCompleteMissingWord {
		var err error
		if keys, err = e.aggregator.referenceKeys(metrics); err != nil {
			return nil, err
		}
	}
	if err := checkWeights(keys, weights); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	start := time.Now()
	logger := e.logger.With("run_id", runID, "suite", suite.Name, "task", suite.Task)
	logger.Info("Starting benchmark run", "backends", len(backends), "prompts", len(suite.Items))

	var (
		eval *Evaluation
		err  error
	)
	switch suite.Task {
	case domain.TaskTranslate:
		eval, err = e.EvaluateTranslation(ctx, backends, suite.Prompts(), suite.LanguagePairs(), suite.References(), metrics)
	case domain.TaskSummarize:
		eval, err = e.EvaluateSummarization(ctx, backends, suite.Prompts(), suite.References(), metrics)
	case domain.TaskAnswerQuestion:
		eval, err = e.EvaluateQuestionAnswering(ctx, backends, suite.Prompts(), suite.References(), suite.FalseReferences(), metrics)
	case domain.TaskCompleteSentence:
		eval, err = e.EvaluateSentenceCompletion(ctx, backends, suite.Prompts(), suite.References(), metrics)
	case domain.TaskCompleteMissingWord:
		eval, err = e.EvaluateMissingWord(ctx, backends, suite.Prompts(), suite.Options(), suite.Answers())
	default:
		eval, err = e.evaluateReferences(ctx, backends, suite.Task, suite.Prompts(), domain.AuxInputs{}, suite.References(), metrics)
	}
	if err != nil {
		logger.Error("Benchmark run failed", "error", err)
		return nil, err
	}

	sums, err := WeightedRankSums(eval.Evaluations, weights)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name()
	}

	report := &domain.Report{
		RunID:       runID,
		Suite:       suite.Name,
		Task:        suite.Task,
		StartedAt:   start,
		Duration:    domain.Duration(time.Since(start)),
		Backends:    names,
		Outputs:     eval.Outputs,
		Evaluations: eval.Evaluations,
		Weights:     weights,
		RankSums:    sums,
		Ranks:       domain.RankTable(DenseRank(sums)),
	}
	logger.Info("Benchmark run complete", "duration", time.Since(start))
	return report, nil
}
