package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GoogleDefaultModel is used by both Gemini surfaces when no model is
// configured.
const GoogleDefaultModel = "gemini-2.0-flash"

func init() {
	RegisterProviderFactory("google", newGoogleProvider)
	RegisterProviderFactory("vertexai", newVertexAIProvider)
}

// googleProvider implements CoreLLM for Gemini, served either by the
// Gemini API (API key) or by Vertex AI (project and location, with
// application default credentials).
type googleProvider struct {
	BaseProvider
	name            string
	client          *genai.Client
	errorClassifier *ErrorClassifier
}

func newGoogleProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	return newGenAIProvider("google", config, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// newVertexAIProvider reads "project:location" from APIKey.
func newVertexAIProvider(config ClientConfig) (CoreLLM, error) {
	project, location, err := ParseVertexTarget(config.APIKey)
	if err != nil {
		return nil, err
	}
	return newGenAIProvider("vertexai", config, &genai.ClientConfig{
		Project:  project,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
}

// ParseVertexTarget splits a "project:location" pair.
func ParseVertexTarget(target string) (project, location string, err error) {
	project, location, ok := strings.Cut(target, ":")
	if !ok || project == "" || location == "" {
		return "", "", fmt.Errorf("vertexai target must be project:location, got %q", target)
	}
	return project, location, nil
}

func newGenAIProvider(name string, config ClientConfig, cc *genai.ClientConfig) (CoreLLM, error) {
	model := config.Model
	if model == "" {
		model = GoogleDefaultModel
	}
	if config.BaseURL != "" {
		validated, err := ValidateBaseURL(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid BaseURL: %w", err)
		}
		cc.HTTPOptions.BaseURL = validated
	}
	if timeout := ValidateTimeout(config.Timeout); timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: timeout}
	}

	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", name, err)
	}

	return &googleProvider{
		BaseProvider:    BaseProvider{model: model},
		name:            name,
		client:          client,
		errorClassifier: &ErrorClassifier{Provider: name},
	}, nil
}

// DoRequest generates content for a single user turn. Gemini has no system
// role in this call shape, so a system prompt is sent as a system
// instruction.
func (p *googleProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error) {
	options := ParseRequestOptions(opts, p.GetModel())

	resp, err := p.client.Models.GenerateContent(ctx, options.Model,
		genai.Text(prompt), p.buildConfig(options))
	if err != nil {
		return Response{}, p.handleError(err)
	}

	content := resp.Text()
	if content == "" {
		return Response{}, NewProviderError(p.name, ErrorTypeContentPolicy, 0, "no text in response", ErrEmptyResponse)
	}

	usage := Usage{InputTokens: EstimateTokens(prompt), OutputTokens: EstimateTokens(content)}
	if md := resp.UsageMetadata; md != nil {
		usage.InputTokens = tokenCount(int(md.PromptTokenCount), prompt)
		usage.OutputTokens = tokenCount(int(md.CandidatesTokenCount), content)
	}
	return Response{Text: content, Usage: usage}, nil
}

func (p *googleProvider) buildConfig(options RequestOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(min(options.MaxTokens, math.MaxInt32)),
	}
	if options.System != "" {
		config.SystemInstruction = genai.NewContentFromText(options.System, genai.RoleUser)
	}
	if options.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*options.Temperature))
	}
	if options.TopP != nil {
		config.TopP = genai.Ptr(float32(*options.TopP))
	}
	if topK, ok := options.Extra["top_k"].(int); ok {
		config.TopK = genai.Ptr(float32(ClampInt(topK, 1, 40)))
	}
	return config
}

func (p *googleProvider) handleError(err error) error {
	if pe := p.errorClassifier.ClassifyContextError(err); pe != nil {
		return pe
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return p.errorClassifier.ClassifyHTTPError(apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return p.errorClassifier.ClassifyHTTPError(apiErrPtr.Code, apiErrPtr.Message, err)
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		if isSafetyBlock(gErr) {
			return NewProviderError(p.name, ErrorTypeContentPolicy, gErr.Code, "request blocked by safety filters", err)
		}
		return p.errorClassifier.ClassifyHTTPError(gErr.Code, gErr.Message, err)
	}

	return NewProviderError(p.name, ErrorTypeNetwork, 0, "request failed", err)
}

func isSafetyBlock(err *googleapi.Error) bool {
	for _, e := range err.Errors {
		if e.Reason == "SAFETY" || e.Reason == "BLOCKED" {
			return true
		}
	}
	msg := strings.ToLower(err.Message)
	return strings.Contains(msg, "safety") || strings.Contains(msg, "blocked")
}
