// Package testutils provides fakes for the ports interfaces used across the
// benchmark's tests.
package testutils

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.LLMClient = (*MockLLMClient)(nil)

// MockLLMClient implements ports.LLMClient with scripted responses. A
// prompt is answered by the first registered pattern it contains; when none
// matches, DefaultResponse is returned. Every call is recorded.
type MockLLMClient struct {
	mu sync.Mutex

	model     string
	responses []MockResponse
	calls     []MockCall

	// DefaultResponse is returned when no pattern matches.
	DefaultResponse string

	// Err, when set, is returned by every Complete call.
	Err error
}

// MockResponse maps a prompt substring to a response.
type MockResponse struct {
	Pattern  string
	Response string
}

// MockCall records one Complete invocation.
type MockCall struct {
	Prompt  string
	Options map[string]any
}

// NewMockLLMClient creates a MockLLMClient reporting model.
func NewMockLLMClient(model string) *MockLLMClient {
	return &MockLLMClient{model: model, DefaultResponse: "mock response"}
}

// AddResponse registers a pattern. Patterns are matched in registration
// order.
func (m *MockLLMClient) AddResponse(pattern, response string) *MockLLMClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, MockResponse{Pattern: pattern, Response: response})
	return m
}

// Complete returns the scripted response for prompt.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if prompt == "" {
		return "", errors.New("prompt cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Prompt: prompt, Options: options})
	if m.Err != nil {
		return "", m.Err
	}
	for _, r := range m.responses {
		if strings.Contains(prompt, r.Pattern) {
			return r.Response, nil
		}
	}
	return m.DefaultResponse, nil
}

// EstimateTokens approximates one token per four characters.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return max(len(text)/4, 1), nil
}

// GetModel returns the configured model name.
func (m *MockLLMClient) GetModel() string { return m.model }

// Calls returns a copy of the recorded calls.
func (m *MockLLMClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastPrompt returns the most recent prompt, or "" when there were no calls.
func (m *MockLLMClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1].Prompt
}
