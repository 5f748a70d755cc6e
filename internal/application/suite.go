package application

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-arena/internal/domain"
)

// Suite is a benchmark dataset: one task kind and a list of items, each
// holding a prompt plus whatever the task needs to score it.
type Suite struct {
	Name    string          `yaml:"name" validate:"required,max=255"`
	Task    domain.TaskKind `yaml:"task" validate:"required,taskkind"`
	Metrics []string        `yaml:"metrics" validate:"omitempty,dive,metricname"`
	Items   []SuiteItem     `yaml:"items" validate:"required,min=1,dive"`
}

// SuiteItem is a single prompt with its scoring material.
type SuiteItem struct {
	Prompt string `yaml:"prompt" validate:"required"`

	// Source and Target are the languages of a translation item.
	Source string `yaml:"source,omitempty"`
	Target string `yaml:"target,omitempty"`

	// References are acceptable outputs. For question answering they are
	// the correct answers.
	References []string `yaml:"references,omitempty"`

	// FalseReferences are incorrect answers for question answering.
	FalseReferences []string `yaml:"false_references,omitempty"`

	// Options and Answer describe a missing-word item; Answer is the 1-based
	// index of the correct option.
	Options []string `yaml:"options,omitempty"`
	Answer  int      `yaml:"answer,omitempty"`
}

// LoadSuite reads and validates a suite file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite file: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite decodes and validates a suite from YAML.
func ParseSuite(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse suite YAML: %w", err)
	}
	if err := configValidator.Struct(&s); err != nil {
		return nil, toConfigurationError(err)
	}
	if err := s.validateItems(); err != nil {
		return nil, err
	}
	return &s, nil
}

// validateItems checks the per-item fields each task kind depends on.
func (s *Suite) validateItems() error {
	verr := domain.NewValidationError("suite " + s.Name)
	for i, it := range s.Items {
		switch s.Task {
		case domain.TaskTranslate:
			if it.Source == "" || it.Target == "" {
				verr.AddError("item %d: translation needs source and target", i)
			}
			if len(it.References) == 0 {
				verr.AddError("item %d: no references", i)
			}
		case domain.TaskAnswerQuestion:
			if len(it.References) == 0 || len(it.FalseReferences) == 0 {
				verr.AddError("item %d: question answering needs references and false_references", i)
			}
		case domain.TaskCompleteMissingWord:
			if len(it.Options) == 0 {
				verr.AddError("item %d: no options", i)
			} else if it.Answer < 1 || it.Answer > len(it.Options) {
				verr.AddError("item %d: answer %d outside 1..%d", i, it.Answer, len(it.Options))
			}
		default:
			if len(it.References) == 0 {
				verr.AddError("item %d: no references", i)
			}
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// Prompts returns the items' prompts in order.
func (s *Suite) Prompts() []string {
	out := make([]string, len(s.Items))
	for i, it := range s.Items {
		out[i] = it.Prompt
	}
	return out
}

// References returns each item's references.
func (s *Suite) References() [][]string {
	out := make([][]string, len(s.Items))
	for i, it := range s.Items {
		out[i] = it.References
	}
	return out
}

// FalseReferences returns each item's false references.
func (s *Suite) FalseReferences() [][]string {
	out := make([][]string, len(s.Items))
	for i, it := range s.Items {
		out[i] = it.FalseReferences
	}
	return out
}

// LanguagePairs returns each item's source and target language.
func (s *Suite) LanguagePairs() []domain.LanguagePair {
	out := make([]domain.LanguagePair, len(s.Items))
	for i, it := range s.Items {
		out[i] = domain.LanguagePair{Source: it.Source, Target: it.Target}
	}
	return out
}

// Options returns each item's candidate words.
func (s *Suite) Options() [][]string {
	out := make([][]string, len(s.Items))
	for i, it := range s.Items {
		out[i] = it.Options
	}
	return out
}

// Answers returns each item's 1-based correct option index.
func (s *Suite) Answers() []int {
	out := make([]int, len(s.Items))
	for i, it := range s.Items {
		out[i] = it.Answer
	}
	return out
}

// EffectiveMetrics returns the suite's metrics, or the task's defaults when
// none are listed.
func (s *Suite) EffectiveMetrics() []string {
	if len(s.Metrics) > 0 {
		return s.Metrics
	}
	return DefaultMetrics(s.Task)
}

// DefaultMetrics returns the metric families scored for kind when a suite
// does not list any.
func DefaultMetrics(kind domain.TaskKind) []string {
	switch kind {
	case domain.TaskTranslate, domain.TaskAnswerQuestion:
		return []string{domain.FamilyBLEU, domain.FamilyRouge}
	case domain.TaskCompleteMissingWord:
		return []string{domain.FamilyAccuracy}
	default:
		return []string{domain.FamilyRouge}
	}
}
