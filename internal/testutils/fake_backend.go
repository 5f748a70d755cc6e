package testutils

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.Backend = (*FakeBackend)(nil)

// FakeBackend is a scripted ports.Backend. By default every capability
// returns "<name>:<prompt>". Outputs and Errors override that per prompt,
// and Delay plus Jitter simulate latency while honoring cancellation.
type FakeBackend struct {
	BackendName string

	// Outputs maps a prompt to the output returned for it.
	Outputs map[string]string

	// Errors maps a prompt to the error returned for it.
	Errors map[string]error

	// Delay is added to every call; Jitter adds a random extra duration in
	// [0, Jitter).
	Delay  time.Duration
	Jitter time.Duration

	mu    sync.Mutex
	calls []FakeCall
}

// FakeCall records one invocation of a FakeBackend.
type FakeCall struct {
	Kind    domain.TaskKind
	Prompt  string
	Source  string
	Target  string
	Options []string
	Start   time.Time
	End     time.Time
	Err     error
}

// NewFakeBackend creates a FakeBackend named name.
func NewFakeBackend(name string) *FakeBackend {
	return &FakeBackend{
		BackendName: name,
		Outputs:     make(map[string]string),
		Errors:      make(map[string]error),
	}
}

// Name returns the backend name.
func (f *FakeBackend) Name() string { return f.BackendName }

// Call records a plain completion and returns the scripted output.
func (f *FakeBackend) Call(ctx context.Context, prompt string) (string, error) {
	return f.do(ctx, FakeCall{Kind: domain.TaskCall, Prompt: prompt})
}

// Translate records the language pair along with the text.
func (f *FakeBackend) Translate(ctx context.Context, text, source, target string) (string, error) {
	return f.do(ctx, FakeCall{Kind: domain.TaskTranslate, Prompt: text, Source: source, Target: target})
}

// Summarize records a summarization request.
func (f *FakeBackend) Summarize(ctx context.Context, text string) (string, error) {
	return f.do(ctx, FakeCall{Kind: domain.TaskSummarize, Prompt: text})
}

// AnswerQuestion records a question answering request.
func (f *FakeBackend) AnswerQuestion(ctx context.Context, question string) (string, error) {
	return f.do(ctx, FakeCall{Kind: domain.TaskAnswerQuestion, Prompt: question})
}

// CompleteSentence records a sentence completion request.
func (f *FakeBackend) CompleteSentence(ctx context.Context, sentence string) (string, error) {
	return f.do(ctx, FakeCall{Kind: domain.TaskCompleteSentence, Prompt: sentence})
}

// CompleteMissingWord records the candidate options along with the sentence.
func (f *FakeBackend) CompleteMissingWord(ctx context.Context, sentence string, options []string) (string, error) {
	return f.do(ctx, FakeCall{Kind: domain.TaskCompleteMissingWord, Prompt: sentence, Options: options})
}

func (f *FakeBackend) do(ctx context.Context, call FakeCall) (string, error) {
	call.Start = time.Now()
	out, err := f.respond(ctx, call.Prompt)
	call.End = time.Now()
	call.Err = err

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	return out, err
}

func (f *FakeBackend) respond(ctx context.Context, prompt string) (string, error) {
	wait := f.Delay
	if f.Jitter > 0 {
		wait += rand.N(f.Jitter)
	}
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	if err, ok := f.Errors[prompt]; ok {
		return "", err
	}
	if out, ok := f.Outputs[prompt]; ok {
		return out, nil
	}
	return fmt.Sprintf("%s:%s", f.BackendName, prompt), nil
}

// Calls returns a copy of the recorded calls.
func (f *FakeBackend) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns the number of recorded calls.
func (f *FakeBackend) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Backends converts fakes into a ports.Backend slice.
func Backends(fakes ...*FakeBackend) []ports.Backend {
	out := make([]ports.Backend, len(fakes))
	for i, f := range fakes {
		out[i] = f
	}
	return out
}

// FuncScorer is a ports.Scorer backed by a function, counting its calls.
type FuncScorer struct {
	Family string
	Fn     func(predictions []string, references [][]string) (ports.Scores, error)

	mu    sync.Mutex
	calls int
}

var _ ports.Scorer = (*FuncScorer)(nil)

// Name returns the scorer's family.
func (s *FuncScorer) Name() string { return s.Family }

// Score delegates to Fn.
func (s *FuncScorer) Score(predictions []string, references [][]string) (ports.Scores, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.Fn(predictions, references)
}

// CallCount returns how many times Score was called.
func (s *FuncScorer) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
