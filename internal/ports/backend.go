// Package ports defines the interfaces that separate the benchmark core
// (dispatching, scoring, ranking) from the infrastructure that talks to
// model vendors and computes metrics.
package ports

import "context"

// Backend is a text-generation endpoint that can be benchmarked. Every
// capability takes a prompt plus any task-specific inputs and returns the
// generated text. Implementations must be safe for concurrent use because
// the dispatcher calls many backends in parallel, and the same backend may
// be shared across runs.
//
// A backend that does not support a capability returns an error wrapping
// ErrUnsupportedTask.
type Backend interface {
	// Name returns a stable display name, such as "openai,gpt-4o".
	Name() string

	// Call sends the prompt verbatim.
	Call(ctx context.Context, prompt string) (string, error)

	// Translate translates text from the source to the target language.
	Translate(ctx context.Context, text, source, target string) (string, error)

	// Summarize returns a summary of text.
	Summarize(ctx context.Context, text string) (string, error)

	// AnswerQuestion answers a free-form question.
	AnswerQuestion(ctx context.Context, question string) (string, error)

	// CompleteSentence continues an unfinished sentence.
	CompleteSentence(ctx context.Context, sentence string) (string, error)

	// CompleteMissingWord picks the option that fills the blank in sentence.
	CompleteMissingWord(ctx context.Context, sentence string, options []string) (string, error)
}
