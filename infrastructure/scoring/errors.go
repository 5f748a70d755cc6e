package scoring

import (
	"fmt"

	"github.com/ahrav/go-arena/internal/domain"
)

// ShapeError reports predictions and references of different lengths.
type ShapeError struct {
	Metric      string
	Predictions int
	References  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: got %d predictions and %d reference sets", e.Metric, e.Predictions, e.References)
}

// Unwrap classifies shape mismatches as invalid input.
func (e *ShapeError) Unwrap() error { return domain.ErrInvalidInput }

func noReferences(metric string, i int) error {
	return domain.NewInvalidInputError("references", "%s: prediction %d has no references", metric, i)
}
