package application

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-arena/internal/domain"
)

// RegisterArenaValidators registers the custom struct tags used by the run
// and suite configuration:
//
//   - metricname: a metric key or family ("bleu", "rouge", "rougeL", ...)
//   - backendsource: one of domain.BackendSources
//   - taskkind: one of domain.TaskKinds
func RegisterArenaValidators(v *validator.Validate) error {
	validators := map[string]validator.Func{
		"metricname":    validateMetricName,
		"backendsource": validateBackendSource,
		"taskkind":      validateTaskKind,
	}
	for tag, fn := range validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

func validateMetricName(fl validator.FieldLevel) bool {
	_, err := domain.ExpandFamilies([]string{fl.Field().String()})
	return err == nil
}

func validateBackendSource(fl validator.FieldLevel) bool {
	return slices.Contains(domain.BackendSources, strings.ToLower(fl.Field().String()))
}

func validateTaskKind(fl validator.FieldLevel) bool {
	_, err := domain.ParseTaskKind(fl.Field().String())
	return err == nil
}

// ParseBackendSpec parses a "source/model" or bare "source" string into a
// BackendSpec.
func ParseBackendSpec(s string) (domain.BackendSpec, error) {
	source, model, _ := strings.Cut(strings.TrimSpace(s), "/")
	spec := domain.BackendSpec{Source: strings.ToLower(source), Model: model}
	if err := configValidator.Struct(spec); err != nil {
		return domain.BackendSpec{}, domain.NewConfigurationError("backend",
			"invalid backend %q: expected source/model with source one of %s",
			s, strings.Join(domain.BackendSources, ", "))
	}
	return spec, nil
}
