package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-arena/internal/domain"
)

const eps = 1e-6

func TestBLEUTokens(t *testing.T) {
	assert.Equal(t, []string{"Hello", ",", "world", "!"}, bleuTokens("Hello, world!"))
	assert.Equal(t, []string{"Pi", "is", "3.14", "."}, bleuTokens("Pi is 3.14."))
	assert.Equal(t, []string{"1,000", "people"}, bleuTokens("1,000 people"))
	assert.Empty(t, bleuTokens("   "))
}

func TestROUGETokens(t *testing.T) {
	assert.Equal(t, []string{"the", "cat", "s", "hat"}, rougeTokens("The CAT's hat!"))
	assert.Equal(t, []string{"ça", "va"}, rougeTokens("Ça va?"))
}

func TestBLEUScorer(t *testing.T) {
	tests := []struct {
		name        string
		predictions []string
		references  [][]string
		want        float64
	}{
		{
			name:        "identical",
			predictions: []string{"the cat sat on the mat"},
			references:  [][]string{{"the cat sat on the mat"}},
			want:        1,
		},
		{
			name:        "brevity penalty",
			predictions: []string{"the cat"},
			references:  [][]string{{"the cat sat on the mat"}},
			want:        math.Exp(-2),
		},
		{
			name:        "no bigram overlap",
			predictions: []string{"cat the"},
			references:  [][]string{{"the cat"}},
			want:        0,
		},
		{
			name:        "shortest reference sets the length",
			predictions: []string{"the cat"},
			references:  [][]string{{"the cat sat on the mat", "the cat"}},
			want:        1,
		},
		{
			name:        "clipped counts",
			predictions: []string{"the the the"},
			references:  [][]string{{"the cat the"}},
			// unigram 2/3, bigram 0/2.
			want: 0,
		},
		{
			name:        "corpus level accumulation",
			predictions: []string{"a b", "c d"},
			references:  [][]string{{"a b"}, {"c e"}},
			// unigram 3/4, bigram 1/2, no brevity penalty.
			want: math.Sqrt(0.75 * 0.5),
		},
		{
			name:        "empty prediction",
			predictions: []string{""},
			references:  [][]string{{"reference"}},
			want:        0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := NewBLEUScorer(0).Score(tt.predictions, tt.references)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, scores[domain.MetricBLEU], eps)
		})
	}
}

func TestBLEUScorerMaxOrder(t *testing.T) {
	// With unigrams only, word order does not matter.
	scores, err := NewBLEUScorer(1).Score([]string{"cat the"}, [][]string{{"the cat"}})
	require.NoError(t, err)
	assert.InDelta(t, 1, scores[domain.MetricBLEU], eps)
}

func TestROUGEScorer(t *testing.T) {
	scores, err := NewROUGEScorer().Score(
		[]string{"the cat was found under the bed"},
		[][]string{{"the cat was under the bed"}},
	)
	require.NoError(t, err)

	assert.InDelta(t, 12.0/13.0, scores[domain.MetricRouge1], eps)
	assert.InDelta(t, 16.0/22.0, scores[domain.MetricRouge2], eps)
	assert.InDelta(t, 12.0/13.0, scores[domain.MetricRougeL], eps)
	assert.InDelta(t, 12.0/13.0, scores[domain.MetricRougeLsum], eps)
}

func TestROUGEScorerLsumUsesSentences(t *testing.T) {
	scores, err := NewROUGEScorer().Score([]string{"c d a b"}, [][]string{{"a b\nc d"}})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, scores[domain.MetricRougeL], eps)
	assert.InDelta(t, 1.0, scores[domain.MetricRougeLsum], eps)
}

func TestROUGEScorerAggregation(t *testing.T) {
	t.Run("best reference wins", func(t *testing.T) {
		scores, err := NewROUGEScorer().Score([]string{"a b"}, [][]string{{"x y", "A, b."}})
		require.NoError(t, err)
		for _, k := range domain.RougeKeys {
			assert.InDelta(t, 1.0, scores[k], eps, k)
		}
	})

	t.Run("mean over predictions", func(t *testing.T) {
		scores, err := NewROUGEScorer().Score([]string{"a b", "c d"}, [][]string{{"a b"}, {"x y"}})
		require.NoError(t, err)
		assert.InDelta(t, 0.5, scores[domain.MetricRouge1], eps)
	})

	t.Run("no predictions", func(t *testing.T) {
		scores, err := NewROUGEScorer().Score(nil, nil)
		require.NoError(t, err)
		assert.Len(t, scores, 4)
	})
}

func TestSimilarityScorer(t *testing.T) {
	scores, err := NewSimilarityScorer().Score(
		[]string{"kitten", "Hello"},
		[][]string{{"sitting"}, {"hello", "goodbye"}},
	)
	require.NoError(t, err)
	assert.InDelta(t, (4.0/7.0+1.0)/2, scores[domain.MetricSimilarity], eps)
}

func TestScorerInputErrors(t *testing.T) {
	for _, s := range All(Config{}) {
		t.Run(s.Name(), func(t *testing.T) {
			_, err := s.Score([]string{"a", "b"}, [][]string{{"a"}})
			var shape *ShapeError
			assert.ErrorAs(t, err, &shape)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			_, err = s.Score([]string{"a"}, [][]string{{}})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestFamilies(t *testing.T) {
	names := make([]string, 0)
	for _, s := range All(Config{BLEUMaxOrder: 4}) {
		names = append(names, s.Name())
	}
	assert.Subset(t, Families(), names)
	assert.Contains(t, Families(), domain.FamilyAccuracy)
}
