package ports

// Scores maps metric keys to a single aggregate value for one set of
// predictions.
type Scores map[string]float64

// Scorer computes reference-based text metrics. Implementations are pure:
// the same inputs always yield the same scores.
type Scorer interface {
	// Name returns the metric family the scorer implements, e.g. "rouge".
	Name() string

	// Score compares predictions[i] against the candidate references in
	// references[i]. Both slices have the same length.
	Score(predictions []string, references [][]string) (Scores, error)
}
