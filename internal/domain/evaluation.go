package domain

import (
	"slices"
	"strings"
)

// Metric keys as they appear in Evaluations. Keys are always lowercase.
const (
	MetricBLEU       = "bleu"
	MetricRouge1     = "rouge1"
	MetricRouge2     = "rouge2"
	MetricRougeL     = "rougel"
	MetricRougeLsum  = "rougelsum"
	MetricAccuracy   = "accuracy"
	MetricSimilarity = "similarity"
)

// Metric families that may be requested in a run configuration. A family
// expands into one or more metric keys.
const (
	FamilyBLEU       = "bleu"
	FamilyRouge      = "rouge"
	FamilyAccuracy   = "accuracy"
	FamilySimilarity = "similarity"
)

// RougeKeys lists the keys produced by the rouge family.
var RougeKeys = []string{MetricRouge1, MetricRouge2, MetricRougeL, MetricRougeLsum}

// NormalizeMetric lowercases and trims a metric key, so "rougeL" and
// "ROUGEL" address the same entry.
func NormalizeMetric(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ExpandFamilies resolves requested metric names into metric keys. Families
// expand to their member keys, individual rouge keys pass through, and
// duplicates are dropped while preserving first-seen order. An unknown name
// is an InvalidInputError.
func ExpandFamilies(requested []string) ([]string, error) {
	var keys []string
	add := func(k string) {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	for _, r := range requested {
		switch name := NormalizeMetric(r); name {
		case FamilyRouge:
			for _, k := range RougeKeys {
				add(k)
			}
		case MetricBLEU, MetricAccuracy, MetricSimilarity,
			MetricRouge1, MetricRouge2, MetricRougeL, MetricRougeLsum:
			add(name)
		default:
			return nil, NewInvalidInputError(r, "unknown metric")
		}
	}
	return keys, nil
}

// FamilyOf returns the family a metric key belongs to.
func FamilyOf(key string) string {
	if slices.Contains(RougeKeys, key) {
		return FamilyRouge
	}
	return key
}

// Evaluations maps a metric key to one score per backend, indexed by
// backend.
type Evaluations map[string][]float64

// Keys returns the metric keys in sorted order.
func (e Evaluations) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// NumBackends returns the common vector length, or zero when empty.
func (e Evaluations) NumBackends() int {
	for _, v := range e {
		return len(v)
	}
	return 0
}

// Validate checks that every score vector has the same length.
func (e Evaluations) Validate() error {
	n := -1
	for _, k := range e.Keys() {
		if n == -1 {
			n = len(e[k])
			continue
		}
		if len(e[k]) != n {
			return NewInvalidInputError(k, "has %d scores, expected %d", len(e[k]), n)
		}
	}
	return nil
}

// Weights maps metric keys to their importance in the final ranking.
type Weights map[string]float64

// Normalized returns a copy of w with lowercase keys.
func (w Weights) Normalized() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[NormalizeMetric(k)] = v
	}
	return out
}

// RankTable holds a 1-based dense rank per backend; lower is better and
// ties share a rank.
type RankTable []int
