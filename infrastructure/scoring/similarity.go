package scoring

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.Scorer = (*SimilarityScorer)(nil)

// SimilarityScorer reports the mean normalized Levenshtein similarity
// between each prediction and its closest reference. Comparison is
// case-insensitive; 1.0 means identical text.
type SimilarityScorer struct{}

// NewSimilarityScorer creates a similarity scorer.
func NewSimilarityScorer() *SimilarityScorer { return &SimilarityScorer{} }

// Name returns the metric family.
func (s *SimilarityScorer) Name() string { return domain.FamilySimilarity }

// Score reports the "similarity" key.
func (s *SimilarityScorer) Score(predictions []string, references [][]string) (ports.Scores, error) {
	if err := checkShape(domain.FamilySimilarity, predictions, references); err != nil {
		return nil, err
	}
	if len(predictions) == 0 {
		return ports.Scores{domain.MetricSimilarity: 0}, nil
	}

	caser := cases.Fold()
	total := 0.0
	for i, pred := range predictions {
		if len(references[i]) == 0 {
			return nil, noReferences(domain.FamilySimilarity, i)
		}
		p := caser.String(pred)
		best := 0.0
		for _, ref := range references[i] {
			best = max(best, similarity(p, caser.String(ref)))
		}
		total += best
	}
	return ports.Scores{domain.MetricSimilarity: total / float64(len(predictions))}, nil
}

// similarity is 1 - distance/longest, measured in runes.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
