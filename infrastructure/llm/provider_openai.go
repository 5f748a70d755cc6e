package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Default models and endpoints for vendors that speak the OpenAI chat
// completions protocol.
const (
	OpenAIDefaultModel = "gpt-4o-mini"

	GroqDefaultModel = "llama-3.3-70b-versatile"
	GroqBaseURL      = "https://api.groq.com/openai/v1"

	CohereDefaultModel = "command-r"
	CohereBaseURL      = "https://api.cohere.ai/compatibility/v1"
)

func init() {
	RegisterProviderFactory("openai", openAICompatibleFactory("openai", OpenAIDefaultModel, ""))
	RegisterProviderFactory("groq", openAICompatibleFactory("groq", GroqDefaultModel, GroqBaseURL))
	RegisterProviderFactory("cohere", openAICompatibleFactory("cohere", CohereDefaultModel, CohereBaseURL))
}

// openAIProvider implements CoreLLM for OpenAI and for vendors that expose
// an OpenAI-compatible chat endpoint.
type openAIProvider struct {
	BaseProvider
	name            string
	client          *openai.Client
	errorClassifier *ErrorClassifier
}

func openAICompatibleFactory(name, defaultModel, defaultBaseURL string) ProviderFactory {
	return func(config ClientConfig) (CoreLLM, error) {
		return newOpenAIProvider(name, defaultModel, defaultBaseURL, config)
	}
}

func newOpenAIProvider(name, defaultModel, defaultBaseURL string, config ClientConfig) (*openAIProvider, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = defaultModel
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if baseURL != "" {
		validated, err := ValidateBaseURL(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid BaseURL: %w", err)
		}
		clientConfig.BaseURL = validated
	}
	if timeout := ValidateTimeout(config.Timeout); timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: timeout}
	}

	return &openAIProvider{
		BaseProvider:    BaseProvider{model: model},
		name:            name,
		client:          openai.NewClientWithConfig(clientConfig),
		errorClassifier: &ErrorClassifier{Provider: name},
	}, nil
}

// DoRequest sends a single-turn chat completion.
func (p *openAIProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error) {
	options := ParseRequestOptions(opts, p.GetModel())

	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(prompt, options))
	if err != nil {
		return Response{}, p.handleError(err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, NewProviderError(p.name, ErrorTypeBadRequest, 0, "", ErrNoResponseChoice)
	}

	content := resp.Choices[0].Message.Content
	return Response{
		Text: content,
		Usage: Usage{
			InputTokens:  tokenCount(resp.Usage.PromptTokens, prompt),
			OutputTokens: tokenCount(resp.Usage.CompletionTokens, content),
		},
	}, nil
}

func (p *openAIProvider) buildRequest(prompt string, options RequestOptions) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if options.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: options.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:     options.Model,
		Messages:  messages,
		MaxTokens: options.MaxTokens,
	}
	if options.Temperature != nil {
		req.Temperature = float32(*options.Temperature)
	}
	if options.TopP != nil {
		req.TopP = float32(*options.TopP)
	}
	if v, ok := options.Extra["frequency_penalty"]; ok {
		if f, ok := toFloat64(v); ok {
			req.FrequencyPenalty = float32(ClampFloat64(f, MinPenalty, MaxPenalty))
		}
	}
	if v, ok := options.Extra["presence_penalty"]; ok {
		if f, ok := toFloat64(v); ok {
			req.PresencePenalty = float32(ClampFloat64(f, MinPenalty, MaxPenalty))
		}
	}
	return req
}

func (p *openAIProvider) handleError(err error) error {
	if pe := p.errorClassifier.ClassifyContextError(err); pe != nil {
		return pe
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return p.errorClassifier.ClassifyHTTPError(apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return p.errorClassifier.ClassifyHTTPError(reqErr.HTTPStatusCode, "", err)
	}

	return NewProviderError(p.name, ErrorTypeNetwork, 0, "request failed", err)
}

// tokenCount prefers the vendor's count and estimates when it is missing.
func tokenCount(reported int, text string) int {
	if reported > 0 {
		return reported
	}
	return EstimateTokens(text)
}
