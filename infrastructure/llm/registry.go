package llm

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// ProviderConfig describes how to build clients for one provider name.
type ProviderConfig struct {
	// Type is the registered factory, e.g. "google" for the genai source.
	Type string
	// EnvVars name the variables holding the credential. Multiple values
	// are joined with ":" (vertexai reads project and location).
	EnvVars []string
	// DefaultModel is used when a spec omits the model.
	DefaultModel string
	// BaseURL overrides the factory's endpoint.
	BaseURL string
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Providers maps provider names to their configuration. Nil selects
	// DefaultProviders.
	Providers map[string]ProviderConfig
	// Timeout bounds each vendor HTTP call.
	Timeout time.Duration
	// Middleware builds the middleware stack for each new client. It is
	// called once per client so stateful middleware such as circuit
	// breakers is not shared across models.
	Middleware func(provider, model string) []Middleware
}

// DefaultProviders covers every LLM source a backend can name.
var DefaultProviders = map[string]ProviderConfig{
	"openai": {
		Type:         "openai",
		EnvVars:      []string{"OPENAI_API_KEY"},
		DefaultModel: OpenAIDefaultModel,
	},
	"anthropic": {
		Type:         "anthropic",
		EnvVars:      []string{"ANTHROPIC_API_KEY"},
		DefaultModel: AnthropicDefaultModel,
	},
	"cohere": {
		Type:         "cohere",
		EnvVars:      []string{"COHERE_API_KEY"},
		DefaultModel: CohereDefaultModel,
	},
	"groq": {
		Type:         "groq",
		EnvVars:      []string{"GROQ_API_KEY"},
		DefaultModel: GroqDefaultModel,
	},
	"genai": {
		Type:         "google",
		EnvVars:      []string{"GOOGLE_API_KEY"},
		DefaultModel: GoogleDefaultModel,
	},
	"vertexai": {
		Type:         "vertexai",
		EnvVars:      []string{"GOOGLE_PROJECT_ID", "GOOGLE_LOCATION"},
		DefaultModel: GoogleDefaultModel,
	},
}

// Registry resolves "provider/model" specs into clients, creating each
// client once and reusing it afterwards.
type Registry struct {
	providers  map[string]ProviderConfig
	timeout    time.Duration
	middleware func(provider, model string) []Middleware

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates a Registry.
func NewRegistry(config RegistryConfig) *Registry {
	providers := config.Providers
	if providers == nil {
		providers = DefaultProviders
	}
	return &Registry{
		providers:  providers,
		timeout:    config.Timeout,
		middleware: config.Middleware,
		clients:    make(map[string]*Client),
	}
}

// GetClient returns the client for spec, which is "provider" (default
// model) or "provider/model".
func (r *Registry) GetClient(spec string) (*Client, error) {
	provider, model, err := r.parseSpec(spec)
	if err != nil {
		return nil, err
	}
	key := provider + "/" + model

	r.mu.RLock()
	client, ok := r.clients[key]
	r.mu.RUnlock()
	if ok {
		return client, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if client, ok := r.clients[key]; ok {
		return client, nil
	}

	client, err = r.createClient(provider, model)
	if err != nil {
		return nil, err
	}
	r.clients[key] = client
	return client, nil
}

// Providers lists configured provider names in sorted order.
func (r *Registry) Providers() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProviderConfig returns the configuration for provider.
func (r *Registry) ProviderConfig(provider string) (ProviderConfig, bool) {
	pc, ok := r.providers[provider]
	return pc, ok
}

// Credential reads provider's credential from the environment.
func (r *Registry) Credential(provider string) (string, error) {
	pc, ok := r.providers[provider]
	if !ok {
		return "", fmt.Errorf("unknown provider %q", provider)
	}
	values := make([]string, 0, len(pc.EnvVars))
	for _, name := range pc.EnvVars {
		v := os.Getenv(name)
		if v == "" {
			return "", fmt.Errorf("%s environment variable not set for provider %q", name, provider)
		}
		values = append(values, v)
	}
	return strings.Join(values, ":"), nil
}

func (r *Registry) parseSpec(spec string) (provider, model string, err error) {
	if spec == "" {
		return "", "", fmt.Errorf("provider specification cannot be empty")
	}
	provider, model, _ = strings.Cut(spec, "/")
	pc, ok := r.providers[provider]
	if !ok {
		return "", "", fmt.Errorf("unknown provider %q (known: %s)", provider, strings.Join(r.Providers(), ", "))
	}
	if model == "" {
		model = pc.DefaultModel
	}
	return provider, model, nil
}

func (r *Registry) createClient(provider, model string) (*Client, error) {
	pc := r.providers[provider]
	credential, err := r.Credential(provider)
	if err != nil {
		return nil, err
	}

	config := ClientConfig{
		APIKey:  credential,
		Model:   model,
		BaseURL: pc.BaseURL,
		Timeout: r.timeout,
	}
	if r.middleware != nil {
		config.Middleware = r.middleware(provider, model)
	}
	return NewClient(pc.Type, config)
}
