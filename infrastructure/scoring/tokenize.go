// Package scoring implements the reference-based text metrics used to
// compare backend outputs: corpus BLEU, ROUGE-1/2/L/Lsum and a Levenshtein
// similarity. Every scorer satisfies ports.Scorer and is deterministic.
package scoring

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// rougeTokens case-folds s and splits it into runs of letters and digits,
// dropping punctuation. A new caser is created per call because
// cases.Caser keeps internal state and is not safe for concurrent use.
func rougeTokens(s string) []string {
	folded := cases.Fold().String(s)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// bleuTokens splits s the way the common "13a" MT tokenizer does: case is
// preserved and punctuation becomes separate tokens, except for periods and
// commas inside numbers.
func bleuTokens(s string) []string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if isBLEUPunct(r) && !insideNumber(runes, i) {
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Fields(b.String())
}

func isBLEUPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// insideNumber reports whether the rune at i is a '.' or ',' between two
// digits, as in "3.14" or "1,000".
func insideNumber(runes []rune, i int) bool {
	if runes[i] != '.' && runes[i] != ',' {
		return false
	}
	return i > 0 && i < len(runes)-1 && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1])
}

// ngrams counts the n-grams of tokens, keyed by their space-joined form.
func ngrams(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}

// fmeasure is the harmonic mean of precision and recall, zero when both are.
func fmeasure(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

func checkShape(family string, predictions []string, references [][]string) error {
	if len(predictions) != len(references) {
		return &ShapeError{Metric: family, Predictions: len(predictions), References: len(references)}
	}
	return nil
}
