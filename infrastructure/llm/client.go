// Package llm puts every model vendor behind one client type so the
// benchmark backends can talk to OpenAI, Anthropic, Cohere, Groq and the
// two Gemini surfaces the same way.
//
// Each vendor implements CoreLLM. Cross-cutting concerns (timeouts, rate
// limiting, circuit breaking, metrics, tracing) are Middleware that wrap a
// CoreLLM, and NewClient stacks them into a ports.LLMClient:
//
//	client, err := llm.NewClient("openai", llm.ClientConfig{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  "gpt-4o-mini",
//	    Middleware: []llm.Middleware{
//	        llm.TimeoutMiddleware(30 * time.Second),
//	        llm.RateLimitMiddleware(5, 5),
//	        llm.CircuitBreakerMiddleware(5, 30*time.Second),
//	    },
//	})
//	text, err := client.Complete(ctx, "Say hello in French.", nil)
//
// Requests are never retried. A failed call surfaces immediately so the
// dispatcher can abort the whole run.
package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ahrav/go-arena/internal/ports"
)

// Usage is the token accounting reported by a vendor for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// Response is the text produced by one request and what it cost.
type Response struct {
	Text  string
	Usage Usage
}

// CoreLLM is the minimal contract a vendor implementation satisfies.
// Middleware wraps a CoreLLM and is itself a CoreLLM.
type CoreLLM interface {
	// DoRequest sends prompt to the vendor. opts carries per-request
	// parameters understood by ParseRequestOptions.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error)

	// GetModel returns the model requests are sent to.
	GetModel() string

	// SetModel changes the model for subsequent requests.
	SetModel(model string)
}

// Middleware decorates a CoreLLM.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig configures a client for one vendor and model.
type ClientConfig struct {
	// APIKey authenticates with the vendor. For vertexai it holds
	// "project:location" instead.
	APIKey string
	// Model overrides the vendor's default model.
	Model string
	// BaseURL overrides the vendor endpoint.
	BaseURL string
	// Timeout bounds the underlying HTTP client. Zero keeps the SDK default.
	Timeout time.Duration
	// Middleware is applied so that the first entry is the outermost layer.
	Middleware []Middleware
}

// Client adapts a middleware-wrapped CoreLLM to ports.LLMClient.
type Client struct {
	provider string
	core     CoreLLM
}

var _ ports.LLMClient = (*Client)(nil)

// NewClient builds a client for a registered provider.
func NewClient(provider string, config ClientConfig) (*Client, error) {
	factory, ok := GetProviderFactory(provider)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (registered: %v)", provider, RegisteredProviders())
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", provider, err)
	}

	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{provider: provider, core: core}, nil
}

// Complete sends prompt and returns the generated text. Failures are
// wrapped in a ports.LLMError.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	resp, err := c.CompleteWithUsage(ctx, prompt, options)
	return resp.Text, err
}

// CompleteWithUsage is Complete plus the vendor's token accounting.
func (c *Client) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (Response, error) {
	resp, err := c.core.DoRequest(ctx, prompt, options)
	if err != nil {
		return Response{}, ports.NewLLMError(c.core.GetModel(), "complete", err)
	}
	return resp, nil
}

// EstimateTokens returns an approximate token count for text.
func (c *Client) EstimateTokens(text string) (int, error) {
	return EstimateTokens(text), nil
}

// GetModel returns the model of the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }

// Provider returns the name the client was created with.
func (c *Client) Provider() string { return c.provider }

// EstimateTokens approximates a token count at four bytes per token.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ProviderFactory creates a CoreLLM from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var (
	factoriesMu       sync.RWMutex
	providerFactories = map[string]ProviderFactory{}
)

// RegisterProviderFactory makes a provider available to NewClient.
func RegisterProviderFactory(provider string, factory ProviderFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	providerFactories[provider] = factory
}

// GetProviderFactory looks up a registered provider.
func GetProviderFactory(provider string) (ProviderFactory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := providerFactories[provider]
	return f, ok
}

// RegisteredProviders lists registered provider names in sorted order.
func RegisteredProviders() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(providerFactories))
	for name := range providerFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
