package application

import (
	"fmt"
	"log/slog"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// Aggregator turns a result matrix into per-backend metric scores. Each
// backend's outputs are scored as one column, so a scorer sees exactly one
// call per backend and metric family.
type Aggregator struct {
	scorers map[string]ports.Scorer
	logger  *slog.Logger
}

// NewAggregator creates an aggregator backed by the given scorers, keyed by
// their Name. Later scorers replace earlier ones with the same name.
func NewAggregator(logger *slog.Logger, scorers ...ports.Scorer) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	m := make(map[string]ports.Scorer, len(scorers))
	for _, s := range scorers {
		m[domain.NormalizeMetric(s.Name())] = s
	}
	return &Aggregator{scorers: m, logger: logger}
}

// Aggregate scores every backend column against refs, where refs[p] holds
// the acceptable references for prompt p. metrics lists metric keys or
// families; "rouge" expands to all four rouge keys. Accuracy is not a
// reference metric and must go through AggregateAccuracy.
func (a *Aggregator) Aggregate(matrix domain.ResultMatrix, refs [][]string, metrics []string) (domain.Evaluations, error) {
	keys, err := a.referenceKeys(metrics)
	if err != nil {
		return nil, err
	}
	if err := checkMatrix(matrix); err != nil {
		return nil, err
	}
	if len(refs) != matrix.NumPrompts() {
		return nil, domain.NewInvalidInputError("references",
			"got %d reference sets for %d prompts", len(refs), matrix.NumPrompts())
	}

	evals := newEvaluations(keys, matrix.NumBackends())
	for _, family := range familiesOf(keys) {
		scorer := a.scorers[family]
		for b := range matrix.NumBackends() {
			scores, err := scorer.Score(matrix.Outputs(b), refs)
			if err != nil {
				return nil, fmt.Errorf("score %s for backend %d: %w", family, b, err)
			}
			if err := fill(evals, keys, family, b, func(k string) (float64, bool) {
				v, ok := scores[k]
				return v, ok
			}); err != nil {
				return nil, err
			}
		}
	}

	a.logger.Debug("Aggregated evaluations", "metrics", keys, "backends", matrix.NumBackends())
	return evals, nil
}

// AggregateContrastive scores question answering: each metric is reported as
// the score against the true references minus the score against the false
// references, so a backend is rewarded for resembling correct answers and
// penalized for resembling incorrect ones.
func (a *Aggregator) AggregateContrastive(
	matrix domain.ResultMatrix,
	trueRefs, falseRefs [][]string,
	metrics []string,
) (domain.Evaluations, error) {
	keys, err := a.referenceKeys(metrics)
	if err != nil {
		return nil, err
	}
	if err := checkMatrix(matrix); err != nil {
		return nil, err
	}
	n := matrix.NumPrompts()
	if len(trueRefs) != n || len(falseRefs) != n {
		return nil, domain.NewInvalidInputError("references",
			"got %d true and %d false reference sets for %d prompts", len(trueRefs), len(falseRefs), n)
	}

	evals := newEvaluations(keys, matrix.NumBackends())
	for _, family := range familiesOf(keys) {
		scorer := a.scorers[family]
		for b := range matrix.NumBackends() {
			pos, err := scorer.Score(matrix.Outputs(b), trueRefs)
			if err != nil {
				return nil, fmt.Errorf("score %s against true references for backend %d: %w", family, b, err)
			}
			neg, err := scorer.Score(matrix.Outputs(b), falseRefs)
			if err != nil {
				return nil, fmt.Errorf("score %s against false references for backend %d: %w", family, b, err)
			}
			if err := fill(evals, keys, family, b, func(k string) (float64, bool) {
				t, okT := pos[k]
				f, okF := neg[k]
				return t - f, okT && okF
			}); err != nil {
				return nil, err
			}
		}
	}
	return evals, nil
}

// AggregateAccuracy computes the share of exact matches per backend, where
// options[p] lists the candidate words for prompt p and answers[p] is the
// 1-based index of the correct one. Comparison is case and whitespace
// sensitive.
func (a *Aggregator) AggregateAccuracy(matrix domain.ResultMatrix, options [][]string, answers []int) (domain.Evaluations, error) {
	if err := checkMatrix(matrix); err != nil {
		return nil, err
	}
	n := matrix.NumPrompts()
	if len(options) != n || len(answers) != n {
		return nil, domain.NewInvalidInputError("answers",
			"got %d option lists and %d answers for %d prompts", len(options), len(answers), n)
	}

	evals := newEvaluations([]string{domain.MetricAccuracy}, matrix.NumBackends())
	for b := range matrix.NumBackends() {
		acc, err := Accuracy(matrix.Outputs(b), options, answers)
		if err != nil {
			return nil, err
		}
		evals[domain.MetricAccuracy][b] = acc
	}
	return evals, nil
}

// Accuracy returns the fraction of predictions equal to the referenced
// option. answers are 1-based.
func Accuracy(predictions []string, options [][]string, answers []int) (float64, error) {
	if len(predictions) == 0 {
		return 0, domain.NewConfigurationError(domain.MetricAccuracy, "no predictions to score")
	}
	if len(options) != len(predictions) || len(answers) != len(predictions) {
		return 0, domain.NewInvalidInputError("answers",
			"got %d option lists and %d answers for %d predictions", len(options), len(answers), len(predictions))
	}
	correct := 0
	for i, pred := range predictions {
		ans := answers[i]
		if ans < 1 || ans > len(options[i]) {
			return 0, domain.NewInvalidInputError("answers",
				"answer %d for prompt %d is outside 1..%d", ans, i, len(options[i]))
		}
		if pred == options[i][ans-1] {
			correct++
		}
	}
	return float64(correct) / float64(len(predictions)), nil
}

// referenceKeys expands metrics and checks that each family has a scorer.
// It needs no outputs, so callers resolve metrics before dispatching.
func (a *Aggregator) referenceKeys(metrics []string) ([]string, error) {
	keys, err := domain.ExpandFamilies(metrics)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, domain.NewConfigurationError("metrics", "no metrics requested")
	}
	for _, k := range keys {
		if k == domain.MetricAccuracy {
			return nil, domain.NewConfigurationError(k, "accuracy requires answer indices")
		}
		if _, ok := a.scorers[domain.FamilyOf(k)]; !ok {
			return nil, domain.NewConfigurationError(k, "no scorer registered for %q", domain.FamilyOf(k))
		}
	}
	return keys, nil
}

// checkMatrix rejects a matrix with no backends or no prompts.
func checkMatrix(matrix domain.ResultMatrix) error {
	if matrix.NumBackends() == 0 {
		return domain.NewInvalidInputError("backends", "no backends to score")
	}
	if matrix.NumPrompts() == 0 {
		return domain.NewConfigurationError("prompts", "no prompts to score")
	}
	return nil
}

func newEvaluations(keys []string, numBackends int) domain.Evaluations {
	evals := make(domain.Evaluations, len(keys))
	for _, k := range keys {
		evals[k] = make([]float64, numBackends)
	}
	return evals
}

// familiesOf returns the distinct families of keys in first-seen order.
func familiesOf(keys []string) []string {
	var families []string
	seen := make(map[string]bool)
	for _, k := range keys {
		f := domain.FamilyOf(k)
		if !seen[f] {
			seen[f] = true
			families = append(families, f)
		}
	}
	return families
}

// fill copies the requested keys of family into column b of evals.
func fill(evals domain.Evaluations, keys []string, family string, b int, value func(string) (float64, bool)) error {
	for _, k := range keys {
		if domain.FamilyOf(k) != family {
			continue
		}
		v, ok := value(k)
		if !ok {
			return domain.NewConfigurationError(k, "scorer %q did not report this metric", family)
		}
		evals[k][b] = v
	}
	return nil
}
