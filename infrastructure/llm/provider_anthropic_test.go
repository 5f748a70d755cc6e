package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-arena/internal/ports"
)

func messagesServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
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

func TestAnthropicProviderDoRequest(t *testing.T) {
	var seen map[string]any
	server := messagesServer(t, http.StatusOK, `{
	  "id": "msg_1", "type": "message", "role": "assistant", "model": "claude-3-5-haiku-latest",
	  "content": [{"type": "text", "text": "Guten "}, {"type": "text", "text": "Morgen"}],
	  "stop_reason": "end_turn",
	  "usage": {"input_tokens": 9, "output_tokens": 4}
	}`, &seen)

	p, err := newAnthropicProvider(ClientConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := p.DoRequest(context.Background(), "Good morning", map[string]any{
		"system":      "Translate to German.",
		"temperature": 1.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Guten Morgen", resp.Text)
	assert.Equal(t, Usage{InputTokens: 9, OutputTokens: 4}, resp.Usage)

	assert.Equal(t, AnthropicDefaultModel, seen["model"])
	assert.Equal(t, float64(DefaultMaxTokens), seen["max_tokens"])
	assert.Equal(t, 1.0, seen["temperature"], "clamped to the vendor range")
	assert.NotNil(t, seen["system"])
}

func TestAnthropicProviderEmptyContent(t *testing.T) {
	server := messagesServer(t, http.StatusOK, `{"id":"m","type":"message","role":"assistant","content":[],"usage":{}}`, nil)
	p, err := newAnthropicProvider(ClientConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.DoRequest(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAnthropicProviderErrors(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
	}{
		{status: http.StatusUnauthorized, sentinel: ports.ErrAuthenticationFailed},
		{status: http.StatusTooManyRequests, sentinel: ports.ErrRateLimited},
		{status: http.StatusBadRequest, sentinel: ports.ErrInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := messagesServer(t, tt.status,
				`{"type":"error","error":{"type":"some_error","message":"nope"}}`, nil)
			p, err := newAnthropicProvider(ClientConfig{APIKey: "test-key", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = p.DoRequest(context.Background(), "hi", nil)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestAnthropicProviderConfiguration(t *testing.T) {
	_, err := newAnthropicProvider(ClientConfig{})
	assert.ErrorIs(t, err, ErrEmptyAPIKey)

	p, err := newAnthropicProvider(ClientConfig{APIKey: "k", Model: "claude-3-opus-20240229"})
	require.NoError(t, err)
	assert.Equal(t, "claude-3-opus-20240229", p.GetModel())
}
