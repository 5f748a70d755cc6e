package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockRegistry(t *testing.T, mock *MockCoreLLM, middleware func(provider, model string) []Middleware) *Registry {
	t.Helper()
	registerMock(t, "mock-registry", mock)
	t.Setenv("MOCK_API_KEY", "secret")
	return NewRegistry(RegistryConfig{
		Providers: map[string]ProviderConfig{
			"mock": {Type: "mock-registry", EnvVars: []string{"MOCK_API_KEY"}, DefaultModel: "mock-small"},
		},
		Middleware: middleware,
	})
}

func TestRegistryGetClient(t *testing.T) {
	mock := NewMockCoreLLM()
	var built []string
	r := mockRegistry(t, mock, func(provider, model string) []Middleware {
		built = append(built, provider+"/"+model)
		return nil
	})

	c1, err := r.GetClient("mock")
	require.NoError(t, err)
	c2, err := r.GetClient("mock/mock-small")
	require.NoError(t, err)
	assert.Same(t, c1, c2, "default model spec shares the cached client")

	_, err = r.GetClient("mock/mock-large")
	require.NoError(t, err)
	assert.Equal(t, []string{"mock/mock-small", "mock/mock-large"}, built)

	text, err := c1.Complete(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "test response", text)
}

func TestRegistryErrors(t *testing.T) {
	r := mockRegistry(t, NewMockCoreLLM(), nil)

	_, err := r.GetClient("")
	assert.Error(t, err)

	_, err = r.GetClient("unknown/model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mock")

	t.Setenv("MOCK_API_KEY", "")
	_, err = r.GetClient("mock/other")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MOCK_API_KEY")
}

func TestRegistryCredentialJoinsVariables(t *testing.T) {
	t.Setenv("GOOGLE_PROJECT_ID", "bench-project")
	t.Setenv("GOOGLE_LOCATION", "europe-west4")

	r := NewRegistry(RegistryConfig{})
	cred, err := r.Credential("vertexai")
	require.NoError(t, err)
	assert.Equal(t, "bench-project:europe-west4", cred)

	_, err = r.Credential("nope")
	assert.Error(t, err)
}

func TestDefaultProvidersMatchFactories(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	assert.Equal(t, []string{"anthropic", "cohere", "genai", "groq", "openai", "vertexai"}, r.Providers())
	for name, pc := range DefaultProviders {
		_, ok := GetProviderFactory(pc.Type)
		assert.True(t, ok, "provider %s uses unregistered factory %s", name, pc.Type)
		assert.NotEmpty(t, pc.DefaultModel, name)
	}
}
