package scoring

import (
	"math"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// DefaultBLEUMaxOrder is the highest n-gram order used when none is
// configured.
const DefaultBLEUMaxOrder = 2

var _ ports.Scorer = (*BLEUScorer)(nil)

// BLEUScorer computes corpus-level BLEU: clipped n-gram precisions are
// accumulated over every prediction, combined with a geometric mean and
// scaled by a brevity penalty against the shortest reference of each
// prediction. No smoothing is applied, so a corpus with no matching
// n-gram of some order scores zero.
type BLEUScorer struct {
	maxOrder int
}

// NewBLEUScorer creates a BLEU scorer using n-grams up to maxOrder. A
// non-positive maxOrder selects DefaultBLEUMaxOrder.
func NewBLEUScorer(maxOrder int) *BLEUScorer {
	if maxOrder <= 0 {
		maxOrder = DefaultBLEUMaxOrder
	}
	return &BLEUScorer{maxOrder: maxOrder}
}

// Name returns the metric family.
func (s *BLEUScorer) Name() string { return domain.FamilyBLEU }

// Score reports the "bleu" key.
func (s *BLEUScorer) Score(predictions []string, references [][]string) (ports.Scores, error) {
	if err := checkShape(domain.FamilyBLEU, predictions, references); err != nil {
		return nil, err
	}

	matches := make([]int, s.maxOrder)
	possible := make([]int, s.maxOrder)
	var predLen, refLen int

	for i, pred := range predictions {
		if len(references[i]) == 0 {
			return nil, noReferences(domain.FamilyBLEU, i)
		}
		predTokens := bleuTokens(pred)
		predLen += len(predTokens)

		shortest := math.MaxInt
		maxRefCounts := make(map[string]int)
		for _, ref := range references[i] {
			refTokens := bleuTokens(ref)
			shortest = min(shortest, len(refTokens))
			for n := 1; n <= s.maxOrder; n++ {
				for gram, c := range ngrams(refTokens, n) {
					maxRefCounts[gram] = max(maxRefCounts[gram], c)
				}
			}
		}
		refLen += shortest

		for n := 1; n <= s.maxOrder; n++ {
			for gram, c := range ngrams(predTokens, n) {
				matches[n-1] += min(c, maxRefCounts[gram])
			}
			if k := len(predTokens) - n + 1; k > 0 {
				possible[n-1] += k
			}
		}
	}

	logSum := 0.0
	for n := range s.maxOrder {
		if possible[n] == 0 || matches[n] == 0 {
			return ports.Scores{domain.MetricBLEU: 0}, nil
		}
		logSum += math.Log(float64(matches[n]) / float64(possible[n]))
	}
	geoMean := math.Exp(logSum / float64(s.maxOrder))

	return ports.Scores{domain.MetricBLEU: geoMean * brevityPenalty(predLen, refLen)}, nil
}

func brevityPenalty(predLen, refLen int) float64 {
	if predLen == 0 || refLen == 0 {
		return 0
	}
	ratio := float64(predLen) / float64(refLen)
	if ratio > 1 {
		return 1
	}
	return math.Exp(1 - 1/ratio)
}
