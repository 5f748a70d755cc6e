package scoring

import (
	"slices"
	"strings"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.Scorer = (*ROUGEScorer)(nil)

// ROUGEScorer computes ROUGE-1, ROUGE-2, ROUGE-L and ROUGE-Lsum F-measures.
// Each prediction is scored against every reference and the best
// F-measure per key is kept; the reported value is the mean over
// predictions. ROUGE-Lsum treats newlines as sentence boundaries and uses
// the summary-level union LCS.
type ROUGEScorer struct{}

// NewROUGEScorer creates a ROUGE scorer.
func NewROUGEScorer() *ROUGEScorer { return &ROUGEScorer{} }

// Name returns the metric family.
func (s *ROUGEScorer) Name() string { return domain.FamilyRouge }

// Score reports rouge1, rouge2, rougel and rougelsum.
func (s *ROUGEScorer) Score(predictions []string, references [][]string) (ports.Scores, error) {
	if err := checkShape(domain.FamilyRouge, predictions, references); err != nil {
		return nil, err
	}

	totals := make(ports.Scores, len(domain.RougeKeys))
	for _, k := range domain.RougeKeys {
		totals[k] = 0
	}
	if len(predictions) == 0 {
		return totals, nil
	}

	for i, pred := range predictions {
		if len(references[i]) == 0 {
			return nil, noReferences(domain.FamilyRouge, i)
		}
		best := make(map[string]float64, len(domain.RougeKeys))
		for _, ref := range references[i] {
			for k, v := range rougePair(pred, ref) {
				best[k] = max(best[k], v)
			}
		}
		for k, v := range best {
			totals[k] += v
		}
	}

	n := float64(len(predictions))
	for k := range totals {
		totals[k] /= n
	}
	return totals, nil
}

// rougePair scores one prediction against one reference.
func rougePair(pred, ref string) map[string]float64 {
	p, r := rougeTokens(pred), rougeTokens(ref)
	return map[string]float64{
		domain.MetricRouge1:    rougeN(p, r, 1),
		domain.MetricRouge2:    rougeN(p, r, 2),
		domain.MetricRougeL:    rougeL(p, r),
		domain.MetricRougeLsum: rougeLsum(splitSentences(pred), splitSentences(ref)),
	}
}

func rougeN(pred, ref []string, n int) float64 {
	predGrams, refGrams := ngrams(pred, n), ngrams(ref, n)
	predTotal, refTotal := sumCounts(predGrams), sumCounts(refGrams)
	if predTotal == 0 || refTotal == 0 {
		return 0
	}
	overlap := 0
	for gram, c := range predGrams {
		overlap += min(c, refGrams[gram])
	}
	return fmeasure(float64(overlap)/float64(predTotal), float64(overlap)/float64(refTotal))
}

func rougeL(pred, ref []string) float64 {
	if len(pred) == 0 || len(ref) == 0 {
		return 0
	}
	lcs := lcsTable(ref, pred)[len(ref)][len(pred)]
	return fmeasure(float64(lcs)/float64(len(pred)), float64(lcs)/float64(len(ref)))
}

// rougeLsum computes the summary-level LCS F-measure between tokenized
// sentences. Hits are limited by the remaining token counts on both sides.
func rougeLsum(predSents, refSents [][]string) float64 {
	m, n := totalLen(refSents), totalLen(predSents)
	if m == 0 || n == 0 {
		return 0
	}

	refCounts, predCounts := make(map[string]int), make(map[string]int)
	for _, s := range refSents {
		for _, t := range s {
			refCounts[t]++
		}
	}
	for _, s := range predSents {
		for _, t := range s {
			predCounts[t]++
		}
	}

	hits := 0
	for _, ref := range refSents {
		for _, t := range unionLCS(ref, predSents) {
			if predCounts[t] > 0 && refCounts[t] > 0 {
				hits++
				predCounts[t]--
				refCounts[t]--
			}
		}
	}
	return fmeasure(float64(hits)/float64(n), float64(hits)/float64(m))
}

// unionLCS returns the tokens of ref covered by the LCS with any candidate
// sentence, in ref order.
func unionLCS(ref []string, candidates [][]string) []string {
	covered := make(map[int]bool)
	for _, c := range candidates {
		for _, i := range lcsIndices(ref, c) {
			covered[i] = true
		}
	}
	idx := make([]int, 0, len(covered))
	for i := range covered {
		idx = append(idx, i)
	}
	slices.Sort(idx)

	out := make([]string, len(idx))
	for j, i := range idx {
		out[j] = ref[i]
	}
	return out
}

// lcsIndices backtracks one longest common subsequence and returns the
// positions it occupies in a.
func lcsIndices(a, b []string) []int {
	t := lcsTable(a, b)
	var idx []int
	i, j := len(a), len(b)
	for i > 0 && j > 0 {
		switch {
		case a[i-1] == b[j-1]:
			idx = append(idx, i-1)
			i--
			j--
		case t[i-1][j] > t[i][j-1]:
			i--
		default:
			j--
		}
	}
	slices.Reverse(idx)
	return idx
}

func lcsTable(a, b []string) [][]int {
	t := make([][]int, len(a)+1)
	for i := range t {
		t[i] = make([]int, len(b)+1)
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				t[i][j] = t[i-1][j-1] + 1
			} else {
				t[i][j] = max(t[i-1][j], t[i][j-1])
			}
		}
	}
	return t
}

// splitSentences tokenizes each non-empty line of s.
func splitSentences(s string) [][]string {
	var out [][]string
	for _, line := range strings.Split(s, "\n") {
		if toks := rougeTokens(line); len(toks) > 0 {
			out = append(out, toks)
		}
	}
	return out
}

func totalLen(sents [][]string) int {
	n := 0
	for _, s := range sents {
		n += len(s)
	}
	return n
}

func sumCounts(m map[string]int) int {
	n := 0
	for _, c := range m {
		n += c
	}
	return n
}
