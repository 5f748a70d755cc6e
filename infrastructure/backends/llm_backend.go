// Package backends adapts model vendors to ports.Backend. LLM vendors get
// their task instructions from templates; Google Cloud Translation serves
// as a translation-only baseline.
package backends

import (
	"context"
	"fmt"
	"maps"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// LLMBackend implements every task by wrapping the input in an instruction
// prompt and completing it with an LLM client.
type LLMBackend struct {
	name    string
	client  ports.LLMClient
	options map[string]any
}

var _ ports.Backend = (*LLMBackend)(nil)

// NewLLMBackend creates a backend named name. options are passed to every
// completion request.
func NewLLMBackend(name string, client ports.LLMClient, options map[string]any) *LLMBackend {
	return &LLMBackend{name: name, client: client, options: maps.Clone(options)}
}

func (b *LLMBackend) Name() string { return b.name }

func (b *LLMBackend) Call(ctx context.Context, prompt string) (string, error) {
	return b.client.Complete(ctx, prompt, b.options)
}

func (b *LLMBackend) Translate(ctx context.Context, text, source, target string) (string, error) {
	return b.complete(ctx, domain.TaskTranslate, promptData{
		Text:   text,
		Source: languageName(source),
		Target: languageName(target),
	})
}

func (b *LLMBackend) Summarize(ctx context.Context, text string) (string, error) {
	return b.complete(ctx, domain.TaskSummarize, promptData{Text: text})
}

func (b *LLMBackend) AnswerQuestion(ctx context.Context, question string) (string, error) {
	return b.complete(ctx, domain.TaskAnswerQuestion, promptData{Text: question})
}

func (b *LLMBackend) CompleteSentence(ctx context.Context, sentence string) (string, error) {
	return b.complete(ctx, domain.TaskCompleteSentence, promptData{Text: sentence})
}

func (b *LLMBackend) CompleteMissingWord(ctx context.Context, sentence string, options []string) (string, error) {
	return b.complete(ctx, domain.TaskCompleteMissingWord, promptData{Text: sentence, Options: options})
}

func (b *LLMBackend) complete(ctx context.Context, kind domain.TaskKind, data promptData) (string, error) {
	prompt, err := renderPrompt(string(kind), data)
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", kind, err)
	}
	return b.client.Complete(ctx, prompt, b.options)
}
