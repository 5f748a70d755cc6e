package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-arena/internal/ports"
)

type chatRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, status int, body string, seen *chatRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

const chatOK = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "Bonjour"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
}`

func TestOpenAIProviderDoRequest(t *testing.T) {
	var seen chatRequest
	server := chatServer(t, http.StatusOK, chatOK, &seen)

	p, err := newOpenAIProvider("openai", OpenAIDefaultModel, "", ClientConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	resp, err := p.DoRequest(context.Background(), "Translate hello", map[string]any{
		"system":      "You are a translator.",
		"temperature": 0.5,
		"max_tokens":  32,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", resp.Text)
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 3}, resp.Usage)

	assert.Equal(t, OpenAIDefaultModel, seen.Model)
	assert.Equal(t, 32, seen.MaxTokens)
	assert.Equal(t, float32(0.5), seen.Temperature)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "Translate hello", seen.Messages[1].Content)
}

func TestOpenAIProviderEstimatesMissingUsage(t *testing.T) {
	server := chatServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"abcdefgh"}}]}`, nil)
	p, err := newOpenAIProvider("groq", GroqDefaultModel, GroqBaseURL, ClientConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := p.DoRequest(context.Background(), "abcd", nil)
	require.NoError(t, err)
	assert.Equal(t, Usage{InputTokens: 1, OutputTokens: 2}, resp.Usage)
}

func TestOpenAIProviderNoChoices(t *testing.T) {
	server := chatServer(t, http.StatusOK, `{"choices":[]}`, nil)
	p, err := newOpenAIProvider("openai", OpenAIDefaultModel, "", ClientConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.DoRequest(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrNoResponseChoice)
}

func TestOpenAIProviderErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, sentinel: ports.ErrAuthenticationFailed},
		{name: "rate limited", status: http.StatusTooManyRequests, sentinel: ports.ErrRateLimited},
		{name: "server error", status: http.StatusInternalServerError, sentinel: ports.ErrServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := chatServer(t, tt.status, `{"error":{"message":"nope","type":"error"}}`, nil)
			p, err := newOpenAIProvider("cohere", CohereDefaultModel, CohereBaseURL, ClientConfig{APIKey: "test-key", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = p.DoRequest(context.Background(), "hi", nil)
			assert.ErrorIs(t, err, tt.sentinel)

			var pe *ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "cohere", pe.Provider)
			assert.Equal(t, tt.status, pe.StatusCode)
		})
	}
}

func TestOpenAIProviderCancelled(t *testing.T) {
	server := chatServer(t, http.StatusOK, chatOK, nil)
	p, err := newOpenAIProvider("openai", OpenAIDefaultModel, "", ClientConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.DoRequest(ctx, "hi", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenAICompatibleConfiguration(t *testing.T) {
	_, err := newOpenAIProvider("openai", OpenAIDefaultModel, "", ClientConfig{})
	assert.ErrorIs(t, err, ErrEmptyAPIKey)

	_, err = newOpenAIProvider("openai", OpenAIDefaultModel, "", ClientConfig{APIKey: "k", BaseURL: "not a url"})
	assert.Error(t, err)

	p, err := newOpenAIProvider("groq", GroqDefaultModel, GroqBaseURL, ClientConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, GroqDefaultModel, p.GetModel())
	p.SetModel("llama-3.1-8b-instant")
	assert.Equal(t, "llama-3.1-8b-instant", p.GetModel())
}
