package application

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-arena/internal/domain"
)

// RunConfig is the complete configuration of a benchmark run. It is usually
// decoded from a YAML file layered with ARENA_* environment variables and
// must pass Validate before use.
type RunConfig struct {
	// Backends lists the systems under test, in the order they appear in
	// every output, evaluation vector and ranking.
	Backends []domain.BackendSpec `yaml:"backends" mapstructure:"backends" validate:"required,min=1,dive"`

	// Metrics overrides the suite's metrics. Entries are metric keys or
	// families such as "rouge".
	Metrics []string `yaml:"metrics" mapstructure:"metrics" validate:"omitempty,dive,metricname"`

	// Weights assigns an importance to every metric key produced by the run.
	// Keys are case-insensitive.
	Weights map[string]float64 `yaml:"weights" mapstructure:"weights" validate:"required,min=1,dive,keys,metricname,endkeys,gte=0"`

	// Dispatcher tunes the fan-out dispatcher.
	Dispatcher DispatcherConfig `yaml:"dispatcher" mapstructure:"dispatcher"`

	// Providers configures the LLM client layer.
	Providers ProvidersConfig `yaml:"providers" mapstructure:"providers"`

	// Output selects the report format.
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// ProvidersConfig holds client-side limits applied to every LLM backend.
type ProvidersConfig struct {
	// RequestsPerSecond caps each provider's request rate. Zero disables
	// rate limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"`

	// Burst is the rate limiter's bucket size.
	Burst int `yaml:"burst" mapstructure:"burst" validate:"gte=0"`

	// CircuitBreakerFailures opens a provider's circuit after this many
	// consecutive failures. Zero disables the breaker.
	CircuitBreakerFailures int `yaml:"circuit_breaker_failures" mapstructure:"circuit_breaker_failures" validate:"gte=0"`

	// CircuitBreakerCooldown is how long an open circuit rejects requests.
	CircuitBreakerCooldown time.Duration `yaml:"circuit_breaker_cooldown" mapstructure:"circuit_breaker_cooldown" validate:"min=0"`

	// RequestTimeout bounds each vendor request. Zero leaves requests
	// bounded only by the dispatcher's task timeout.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout" validate:"min=0"`

	// MaxTokens limits each completion.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`

	// Temperature is passed to every completion. Zero keeps the vendor's
	// default.
	Temperature float64 `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// OutputConfig controls how the report is written.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=table json"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// Default values applied by ApplyDefaults.
const (
	DefaultOutputFormat           = "table"
	DefaultBurst                  = 1
	DefaultCircuitBreakerCooldown = 30 * time.Second
)

// ApplyDefaults fills unset optional fields.
func (c *RunConfig) ApplyDefaults() {
	if c.Output.Format == "" {
		c.Output.Format = DefaultOutputFormat
	}
	if c.Providers.RequestsPerSecond > 0 && c.Providers.Burst == 0 {
		c.Providers.Burst = DefaultBurst
	}
	if c.Providers.CircuitBreakerFailures > 0 && c.Providers.CircuitBreakerCooldown == 0 {
		c.Providers.CircuitBreakerCooldown = DefaultCircuitBreakerCooldown
	}
}

// Validate checks struct constraints with the shared validator.
func (c *RunConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return toConfigurationError(err)
	}
	return nil
}

// DomainWeights returns the configured weights keyed by lowercase metric.
func (c *RunConfig) DomainWeights() domain.Weights {
	return domain.Weights(c.Weights).Normalized()
}

// configValidator is shared by every configuration type in this package.
var configValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterArenaValidators(v); err != nil {
		panic(fmt.Sprintf("register validators: %v", err))
	}
	return v
}

// toConfigurationError converts validator output into a ConfigurationError
// naming the first failing field, with all failures listed in the reason.
func toConfigurationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return domain.NewConfigurationError("config", "%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	sort.Strings(msgs)
	return domain.NewConfigurationError(verrs[0].Namespace(), "%v", msgs)
}
