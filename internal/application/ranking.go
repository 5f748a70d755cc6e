package application

import (
	"cmp"
	"math"
	"slices"

	"github.com/ahrav/go-arena/internal/domain"
)

// RankByMetric ranks backends on a single metric where higher scores are
// better. A backend's rank is one plus the position at which its score
// first appears in the scores sorted in descending order, so tied backends
// share the better rank and the next distinct score skips past them:
// [0.9, 0.9, 0.5] ranks as [1, 1, 3]. NaN scores rank below every number
// and share a rank.
func RankByMetric(scores []float64) []int {
	sorted := slices.Clone(scores)
	// cmp.Compare orders NaN before every number, so reversing it puts NaN last.
	slices.SortFunc(sorted, func(a, b float64) int { return cmp.Compare(b, a) })
	firstNaN := slices.IndexFunc(sorted, math.IsNaN)

	ranks := make([]int, len(scores))
	for i, s := range scores {
		if math.IsNaN(s) {
			ranks[i] = firstNaN + 1
			continue
		}
		ranks[i] = slices.Index(sorted, s) + 1
	}
	return ranks
}

// DenseRank ranks values in ascending order without gaps: equal values share
// a rank and the next distinct value gets the next integer.
// [10, 10, 20] ranks as [1, 1, 2]. NaN values share the rank after the
// largest number.
func DenseRank(values []float64) []int {
	distinct := slices.DeleteFunc(slices.Clone(values), math.IsNaN)
	slices.Sort(distinct)
	distinct = slices.Compact(distinct)

	pos := make(map[float64]int, len(distinct))
	for i, v := range distinct {
		pos[v] = i + 1
	}

	ranks := make([]int, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			ranks[i] = len(distinct) + 1
			continue
		}
		ranks[i] = pos[v]
	}
	return ranks
}

// WeightedRankSums ranks each metric with RankByMetric and returns, per
// backend, the sum of its ranks multiplied by the metric weights. Every
// metric in evals must have a finite, non-negative weight.
func WeightedRankSums(evals domain.Evaluations, weights domain.Weights) ([]float64, error) {
	if len(evals) == 0 {
		return nil, domain.NewConfigurationError("metrics", "no evaluations to rank")
	}
	if err := evals.Validate(); err != nil {
		return nil, err
	}
	if err := checkWeights(evals.Keys(), weights); err != nil {
		return nil, err
	}
	w := weights.Normalized()

	sums := make([]float64, evals.NumBackends())
	for _, metric := range evals.Keys() {
		weight := w[domain.NormalizeMetric(metric)]
		scores := evals[metric]
		for b, s := range scores {
			if math.IsNaN(s) {
				return nil, domain.NewInvalidInputError(metric, "score for backend %d is NaN", b)
			}
		}
		for b, r := range RankByMetric(scores) {
			sums[b] += weight * float64(r)
		}
	}
	return sums, nil
}

// Rank combines per-metric rankings into a single dense ranking where 1 is
// the best backend.
func Rank(evals domain.Evaluations, weights domain.Weights) (domain.RankTable, error) {
	sums, err := WeightedRankSums(evals, weights)
	if err != nil {
		return nil, err
	}
	return domain.RankTable(DenseRank(sums)), nil
}

// checkWeights requires a weight for every key. A weight must be finite and
// not negative; zero keeps a metric in the report without affecting ranks.
func checkWeights(keys []string, weights domain.Weights) error {
	w := weights.Normalized()
	for _, k := range keys {
		v, ok := w[domain.NormalizeMetric(k)]
		if !ok {
			return domain.NewConfigurationError(k, "no weight configured")
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return domain.NewConfigurationError(k, "weight %v must be a finite non-negative number", v)
		}
	}
	return nil
}
