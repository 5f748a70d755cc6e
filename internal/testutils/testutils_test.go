package testutils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

func TestFakeBackendResponses(t *testing.T) {
	boom := errors.New("boom")
	f := NewFakeBackend("fake")
	f.Outputs["scripted"] = "answer"
	f.Errors["bad"] = boom

	ctx := context.Background()
	out, err := f.Summarize(ctx, "anything")
	require.NoError(t, err)
	assert.Equal(t, "fake:anything", out)

	out, err = f.AnswerQuestion(ctx, "scripted")
	require.NoError(t, err)
	assert.Equal(t, "answer", out)

	_, err = f.Translate(ctx, "bad", "en", "de")
	assert.ErrorIs(t, err, boom)

	_, err = f.CompleteMissingWord(ctx, "a <blank>", []string{"x", "y"})
	require.NoError(t, err)

	calls := f.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, domain.TaskTranslate, calls[2].Kind)
	assert.Equal(t, "de", calls[2].Target)
	assert.ErrorIs(t, calls[2].Err, boom)
	assert.Equal(t, []string{"x", "y"}, calls[3].Options)
}

func TestFakeBackendDelayHonorsCancellation(t *testing.T) {
	f := NewFakeBackend("slow")
	f.Delay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Call(ctx, "p")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.CallCount())
}

func TestBackends(t *testing.T) {
	a, b := NewFakeBackend("a"), NewFakeBackend("b")
	bs := Backends(a, b)
	require.Len(t, bs, 2)
	assert.Equal(t, "b", bs[1].Name())
}

func TestFuncScorer(t *testing.T) {
	s := &FuncScorer{
		Family: "bleu",
		Fn: func(predictions []string, _ [][]string) (ports.Scores, error) {
			return ports.Scores{"bleu": float64(len(predictions))}, nil
		},
	}
	scores, err := s.Score([]string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, scores["bleu"])
	assert.Equal(t, 1, s.CallCount())
}

func TestMockLLMClient(t *testing.T) {
	m := NewMockLLMClient("mock-model").
		AddResponse("Translate", "Hallo").
		AddResponse("Summarize", "short")

	ctx := context.Background()
	out, err := m.Complete(ctx, "Translate this", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hallo", out)

	out, err = m.Complete(ctx, "unmatched", map[string]any{"max_tokens": 5})
	require.NoError(t, err)
	assert.Equal(t, "mock response", out)
	assert.Equal(t, "unmatched", m.LastPrompt())
	assert.Equal(t, 5, m.Calls()[1].Options["max_tokens"])

	_, err = m.Complete(ctx, "", nil)
	assert.Error(t, err)

	m.Err = errors.New("down")
	_, err = m.Complete(ctx, "Translate", nil)
	assert.EqualError(t, err, "down")

	n, err := m.EstimateTokens("12345678")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "mock-model", m.GetModel())
}
