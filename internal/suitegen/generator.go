// Package suitegen builds synthetic arithmetic benchmark suites for smoke
// testing backends without a licensed dataset. The same seed always
// produces the same suite.
package suitegen

import (
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-arena/internal/application"
	"github.com/ahrav/go-arena/internal/domain"
)

// Difficulty selects operand ranges.
type Difficulty string

// Supported difficulties.
const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Operand ranges per difficulty, [min, max).
var operandRanges = map[Difficulty][2]int{
	Easy:   {1, 10},
	Medium: {10, 50},
	Hard:   {50, 100},
}

// DefaultOptionCount is the number of options in a missing-word item.
const DefaultOptionCount = 4

// Config controls generation.
type Config struct {
	Name       string
	Task       domain.TaskKind
	Size       int
	Seed       uint64
	Difficulty Difficulty
}

type operation struct {
	symbol string
	word   string
	apply  func(a, b int) int
	// mistakes are plausible wrong results.
	mistakes func(rng *rand.Rand, a, b, correct int) []int
}

var operations = []operation{
	{
		symbol: "+", word: "plus",
		apply: func(a, b int) int { return a + b },
		mistakes: func(rng *rand.Rand, a, b, c int) []int {
			return []int{c + rng.IntN(5) + 1, c - rng.IntN(5) - 1, a * b, c + 10, absInt(a - b)}
		},
	},
	{
		symbol: "-", word: "minus",
		apply: func(a, b int) int { return a - b },
		mistakes: func(rng *rand.Rand, a, b, c int) []int {
			return []int{c + rng.IntN(5) + 1, c - rng.IntN(5) - 1, a + b, b - a, c + 10}
		},
	},
	{
		symbol: "*", word: "times",
		apply: func(a, b int) int { return a * b },
		mistakes: func(rng *rand.Rand, a, b, c int) []int {
			return []int{c + rng.IntN(10) + 1, a + b, c + (rng.IntN(5)+1)*10, (a + 1) * b, a * (b + 1)}
		},
	},
}

// Generate builds a suite. Only tasks scored against known answers are
// supported: complete_missing_word, answer_question and complete_sentence.
func Generate(cfg Config) (*application.Suite, error) {
	if cfg.Size < 1 {
		return nil, domain.NewConfigurationError("size", "must be positive, got %d", cfg.Size)
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = Easy
	}
	bounds, ok := operandRanges[cfg.Difficulty]
	if !ok {
		return nil, domain.NewConfigurationError("difficulty", "unknown difficulty %q", cfg.Difficulty)
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("synthetic %s", cfg.Task)
	}

	var build func(rng *rand.Rand, a, b int, op operation) application.SuiteItem
	switch cfg.Task {
	case domain.TaskCompleteMissingWord:
		build = missingWordItem
	case domain.TaskAnswerQuestion:
		build = questionItem
	case domain.TaskCompleteSentence:
		build = sentenceItem
	default:
		return nil, domain.NewConfigurationError("task", "cannot generate %q items", cfg.Task)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	suite := &application.Suite{
		Name:  cfg.Name,
		Task:  cfg.Task,
		Items: make([]application.SuiteItem, 0, cfg.Size),
	}
	for range cfg.Size {
		a := bounds[0] + rng.IntN(bounds[1]-bounds[0])
		b := bounds[0] + rng.IntN(bounds[1]-bounds[0])
		op := operations[rng.IntN(len(operations))]
		suite.Items = append(suite.Items, build(rng, a, b, op))
	}
	return suite, nil
}

func missingWordItem(rng *rand.Rand, a, b int, op operation) application.SuiteItem {
	correct := op.apply(a, b)
	options := append([]string{strconv.Itoa(correct)}, distractors(rng, a, b, correct, op, DefaultOptionCount-1)...)
	rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	return application.SuiteItem{
		Prompt:  fmt.Sprintf("%d %s %d equals <blank>.", a, op.word, b),
		Options: options,
		Answer:  slices.Index(options, strconv.Itoa(correct)) + 1,
	}
}

func questionItem(rng *rand.Rand, a, b int, op operation) application.SuiteItem {
	correct := op.apply(a, b)
	return application.SuiteItem{
		Prompt:          fmt.Sprintf("What is %d %s %d?", a, op.symbol, b),
		References:      []string{strconv.Itoa(correct), fmt.Sprintf("%d %s %d is %d.", a, op.symbol, b, correct)},
		FalseReferences: distractors(rng, a, b, correct, op, 2),
	}
}

func sentenceItem(_ *rand.Rand, a, b int, op operation) application.SuiteItem {
	correct := op.apply(a, b)
	return application.SuiteItem{
		Prompt:     fmt.Sprintf("%d %s %d equals", a, op.word, b),
		References: []string{fmt.Sprintf("%d %s %d equals %d.", a, op.word, b, correct)},
	}
}

// distractors returns n distinct wrong answers, falling back to offsets of
// the correct answer when the operation's mistakes collide.
func distractors(rng *rand.Rand, a, b, correct int, op operation, n int) []string {
	seen := map[int]bool{correct: true}
	var out []string
	add := func(v int) {
		if len(out) < n && !seen[v] {
			seen[v] = true
			out = append(out, strconv.Itoa(v))
		}
	}
	for _, m := range op.mistakes(rng, a, b, correct) {
		add(m)
	}
	for offset := 1; len(out) < n; offset++ {
		add(correct + offset)
	}
	return out
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Write encodes suite as YAML.
func Write(suite *application.Suite, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(suite); err != nil {
		return fmt.Errorf("encode suite: %w", err)
	}
	return enc.Close()
}
