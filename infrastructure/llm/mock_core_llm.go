package llm

import (
	"context"
	"sync"
	"time"
)

// MockCoreLLM is a scriptable CoreLLM for middleware and client tests.
type MockCoreLLM struct {
	mu sync.Mutex

	Response      Response
	Error         error
	Model         string
	ResponseDelay time.Duration
	// Errors, when non-empty, is consumed one entry per call before Error
	// applies. A nil entry is a success.
	Errors []error

	calls      int
	lastPrompt string
	lastOpts   map[string]any
	deadlines  []bool
}

// NewMockCoreLLM returns a mock that succeeds with a fixed response.
func NewMockCoreLLM() *MockCoreLLM {
	return &MockCoreLLM{
		Response: Response{Text: "test response", Usage: Usage{InputTokens: 10, OutputTokens: 20}},
		Model:    "test-model",
	}
}

func (m *MockCoreLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error) {
	m.mu.Lock()
	m.calls++
	m.lastPrompt = prompt
	m.lastOpts = opts
	_, hasDeadline := ctx.Deadline()
	m.deadlines = append(m.deadlines, hasDeadline)
	delay := m.ResponseDelay
	err := m.Error
	if len(m.Errors) > 0 {
		err = m.Errors[0]
		m.Errors = m.Errors[1:]
	}
	resp := m.Response
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
	}
	if err != nil {
		return Response{}, err
	}
	return resp, nil
}

func (m *MockCoreLLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Model
}

func (m *MockCoreLLM) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Model = model
}

// CallCount returns how many requests were made.
func (m *MockCoreLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastPrompt returns the most recent prompt.
func (m *MockCoreLLM) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// LastOpts returns the most recent options.
func (m *MockCoreLLM) LastOpts() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOpts
}

// SawDeadline reports whether call i carried a context deadline.
func (m *MockCoreLLM) SawDeadline(i int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return i < len(m.deadlines) && m.deadlines[i]
}
