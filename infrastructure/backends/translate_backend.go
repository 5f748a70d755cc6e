package backends

import (
	"context"
	"fmt"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// textTranslator is the part of *translate.Client the backend uses.
type textTranslator interface {
	Translate(ctx context.Context, inputs []string, target language.Tag, opts *translate.Options) ([]translate.Translation, error)
	Close() error
}

// TranslateBackend benchmarks Google Cloud Translation. It only supports
// translation; every other task fails with ports.ErrUnsupportedTask.
type TranslateBackend struct {
	name   string
	model  string
	client textTranslator
}

var _ ports.Backend = (*TranslateBackend)(nil)

// NewTranslateBackend connects to Cloud Translation. model selects "nmt" or
// "base"; empty lets the service choose.
func NewTranslateBackend(ctx context.Context, name, model string, opts ...option.ClientOption) (*TranslateBackend, error) {
	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create translation client: %w", err)
	}
	return &TranslateBackend{name: name, model: model, client: client}, nil
}

func (b *TranslateBackend) Name() string { return b.name }

// Close releases the underlying client.
func (b *TranslateBackend) Close() error { return b.client.Close() }

func (b *TranslateBackend) Translate(ctx context.Context, text, source, target string) (string, error) {
	targetTag, err := ParseLanguage(target)
	if err != nil {
		return "", fmt.Errorf("target language: %w", err)
	}
	opts := &translate.Options{Format: translate.Text, Model: b.model}
	if source != "" && source != "auto" {
		sourceTag, err := ParseLanguage(source)
		if err != nil {
			return "", fmt.Errorf("source language: %w", err)
		}
		opts.Source = sourceTag
	}

	translations, err := b.client.Translate(ctx, []string{text}, targetTag, opts)
	if err != nil {
		return "", fmt.Errorf("%s translate: %w", b.name, err)
	}
	if len(translations) == 0 {
		return "", fmt.Errorf("%s translate: no translation returned: %w", b.name, ports.ErrInvalidResponse)
	}
	return translations[0].Text, nil
}

func (b *TranslateBackend) Call(context.Context, string) (string, error) {
	return "", b.unsupported(domain.TaskCall)
}

func (b *TranslateBackend) Summarize(context.Context, string) (string, error) {
	return "", b.unsupported(domain.TaskSummarize)
}

func (b *TranslateBackend) AnswerQuestion(context.Context, string) (string, error) {
	return "", b.unsupported(domain.TaskAnswerQuestion)
}

func (b *TranslateBackend) CompleteSentence(context.Context, string) (string, error) {
	return "", b.unsupported(domain.TaskCompleteSentence)
}

func (b *TranslateBackend) CompleteMissingWord(context.Context, string, []string) (string, error) {
	return "", b.unsupported(domain.TaskCompleteMissingWord)
}

func (b *TranslateBackend) unsupported(kind domain.TaskKind) error {
	return fmt.Errorf("%s cannot %s: %w", b.name, kind, ports.ErrUnsupportedTask)
}
