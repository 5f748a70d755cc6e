package scoring

import (
	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// Config selects scorer parameters.
type Config struct {
	// BLEUMaxOrder is the highest n-gram order for BLEU. Zero selects
	// DefaultBLEUMaxOrder.
	BLEUMaxOrder int `yaml:"bleu_max_order" mapstructure:"bleu_max_order" validate:"gte=0,lte=4"`
}

// All returns one scorer per reference-based metric family.
func All(cfg Config) []ports.Scorer {
	return []ports.Scorer{
		NewBLEUScorer(cfg.BLEUMaxOrder),
		NewROUGEScorer(),
		NewSimilarityScorer(),
	}
}

// Families lists the metric families served by All, plus accuracy, which
// is computed directly from answer indices.
func Families() []string {
	return []string{domain.FamilyBLEU, domain.FamilyRouge, domain.FamilySimilarity, domain.FamilyAccuracy}
}
