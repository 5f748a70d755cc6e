package backends

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"google.golang.org/api/option"

	"github.com/ahrav/go-arena/infrastructure/llm"
	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// TranslateAPIKeyEnv optionally holds an API key for Cloud Translation.
// Without it the client uses application default credentials.
const TranslateAPIKeyEnv = "GOOGLE_TRANSLATE_API_KEY"

// Factory builds backends from specs.
type Factory struct {
	// Registry resolves LLM sources into clients.
	Registry *llm.Registry
	// RequestOptions are sent with every LLM completion, e.g. max_tokens.
	RequestOptions map[string]any
	// TranslateOptions configure the Cloud Translation client.
	TranslateOptions []option.ClientOption
}

// New builds the backend for spec.
func (f *Factory) New(ctx context.Context, spec domain.BackendSpec) (ports.Backend, error) {
	switch spec.Source {
	case domain.SourceGoogleTranslate:
		opts := f.TranslateOptions
		if key := os.Getenv(TranslateAPIKeyEnv); key != "" && len(opts) == 0 {
			opts = []option.ClientOption{option.WithAPIKey(key)}
		}
		b, err := NewTranslateBackend(ctx, spec.String(), spec.Model, opts...)
		if err != nil {
			return nil, err
		}
		return b, nil
	case domain.SourceOpenAI, domain.SourceAnthropic, domain.SourceCohere,
		domain.SourceGroq, domain.SourceGenAI, domain.SourceVertexAI:
		if f.Registry == nil {
			return nil, fmt.Errorf("backend %s: no LLM registry configured", spec)
		}
		target := spec.Source
		if spec.Model != "" {
			target += "/" + spec.Model
		}
		client, err := f.Registry.GetClient(target)
		if err != nil {
			return nil, domain.NewConfigurationError("backends", "backend %s: %v", spec, err)
		}
		name := spec.Source + "," + client.GetModel()
		return NewLLMBackend(name, client, f.RequestOptions), nil
	default:
		return nil, domain.NewConfigurationError("backends", "unknown backend source %q", spec.Source)
	}
}

// NewAll builds a backend for every spec, in order. On failure the
// backends built so far are closed.
func (f *Factory) NewAll(ctx context.Context, specs []domain.BackendSpec) ([]ports.Backend, error) {
	out := make([]ports.Backend, 0, len(specs))
	for _, spec := range specs {
		b, err := f.New(ctx, spec)
		if err != nil {
			_ = Close(out)
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Close closes every backend that holds resources.
func Close(backends []ports.Backend) error {
	var errs []error
	for _, b := range backends {
		if c, ok := b.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
