package domain

import "fmt"

// TaskKind identifies which backend capability a dispatch exercises.
type TaskKind string

// Supported task kinds.
const (
	TaskCall                TaskKind = "call"
	TaskTranslate           TaskKind = "translate"
	TaskSummarize           TaskKind = "summarize"
	TaskAnswerQuestion      TaskKind = "answer_question"
	TaskCompleteSentence    TaskKind = "complete_sentence"
	TaskCompleteMissingWord TaskKind = "complete_missing_word"
)

// TaskKinds lists every supported task kind in a stable order.
var TaskKinds = []TaskKind{
	TaskCall,
	TaskTranslate,
	TaskSummarize,
	TaskAnswerQuestion,
	TaskCompleteSentence,
	TaskCompleteMissingWord,
}

// ParseTaskKind converts s into a TaskKind.
func ParseTaskKind(s string) (TaskKind, error) {
	for _, k := range TaskKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", NewInvalidInputError("task", "unknown task kind %q", s)
}

// LanguagePair is the source and target language of a translation prompt.
type LanguagePair struct {
	Source string `yaml:"source" json:"source" validate:"required"`
	Target string `yaml:"target" json:"target" validate:"required"`
}

// String renders the pair as "source->target".
func (p LanguagePair) String() string { return fmt.Sprintf("%s->%s", p.Source, p.Target) }

// AuxInputs carries the per-prompt auxiliary data some tasks require.
// When a sequence is required by the task kind, its length must equal the
// number of prompts.
type AuxInputs struct {
	// LanguagePairs is required for TaskTranslate.
	LanguagePairs []LanguagePair

	// Options is required for TaskCompleteMissingWord; each entry lists the
	// candidate words for the corresponding prompt.
	Options [][]string
}

// Validate checks that the auxiliary sequences required by kind are present
// and aligned with numPrompts.
func (a AuxInputs) Validate(kind TaskKind, numPrompts int) error {
	switch kind {
	case TaskTranslate:
		if len(a.LanguagePairs) != numPrompts {
			return NewInvalidInputError("language_pairs",
				"got %d language pairs for %d prompts", len(a.LanguagePairs), numPrompts)
		}
	case TaskCompleteMissingWord:
		if len(a.Options) != numPrompts {
			return NewInvalidInputError("options",
				"got %d option lists for %d prompts", len(a.Options), numPrompts)
		}
	case TaskCall, TaskSummarize, TaskAnswerQuestion, TaskCompleteSentence:
	default:
		return NewInvalidInputError("task", "unknown task kind %q", kind)
	}
	return nil
}

// Task is a single unit of dispatcher work: one prompt sent to one backend.
type Task struct {
	PromptIndex  int
	BackendIndex int
	Kind         TaskKind
	Prompt       string

	// Pair is set for translation tasks.
	Pair LanguagePair

	// Options is set for missing-word tasks.
	Options []string
}

// Backend sources understood by the backend factory. Each LLM source maps to
// a vendor SDK; SourceGoogleTranslate is a translation-only baseline.
const (
	SourceOpenAI          = "openai"
	SourceAnthropic       = "anthropic"
	SourceCohere          = "cohere"
	SourceGroq            = "groq"
	SourceGenAI           = "genai"
	SourceVertexAI        = "vertexai"
	SourceGoogleTranslate = "googletranslate"
)

// BackendSources lists every supported backend source.
var BackendSources = []string{
	SourceOpenAI,
	SourceAnthropic,
	SourceCohere,
	SourceGroq,
	SourceGenAI,
	SourceVertexAI,
	SourceGoogleTranslate,
}

// BackendSpec selects a backend by source and model.
type BackendSpec struct {
	Source string `yaml:"source" json:"source" mapstructure:"source" validate:"required,backendsource"`
	Model  string `yaml:"model" json:"model" mapstructure:"model"`
}

// String renders the spec as "source,model", the display name used for
// backends.
func (s BackendSpec) String() string {
	if s.Model == "" {
		return s.Source
	}
	return s.Source + "," + s.Model
}
