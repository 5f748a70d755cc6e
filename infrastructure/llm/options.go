package llm

import (
	"fmt"
	"net/url"
	"sync"
	"time"
)

// Parameter ranges accepted across vendors.
const (
	MinTemperature = 0.0
	// MaxTemperature is the widest range any vendor accepts (OpenAI and
	// Gemini); Anthropic clamps tighter.
	MaxTemperature = 2.0
	MinTopP        = 0.0
	MaxTopP        = 1.0
	MinPenalty     = -2.0
	MaxPenalty     = 2.0
	MinTimeout     = 1 * time.Second
	MaxTimeout     = 10 * time.Minute

	// DefaultMaxTokens caps generations when the caller sets no limit.
	DefaultMaxTokens = 1024
)

// Request option keys understood by every provider.
const (
	OptMaxTokens   = "max_tokens"
	OptModel       = "model"
	OptTemperature = "temperature"
	OptTopP        = "top_p"
	OptSystem      = "system"
)

// BaseProvider holds the model name shared by every provider.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the current model.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel replaces the model for subsequent requests.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the typed view of a request's option map.
type RequestOptions struct {
	MaxTokens   int
	Model       string
	Temperature *float64
	TopP        *float64
	System      string
	// Extra holds keys that are not common options, for vendor-specific
	// parameters such as frequency_penalty or top_k.
	Extra map[string]any
}

// ParseRequestOptions extracts the common options from opts. Values that
// have the wrong type or fall outside their valid range are ignored.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: ExtractOptionalInt(opts, OptMaxTokens, DefaultMaxTokens, IsPositiveInt),
		Model:     ExtractOptionalString(opts, OptModel, defaultModel, IsNonEmptyString),
		System:    ExtractOptionalString(opts, OptSystem, "", nil),
		Extra:     map[string]any{},
	}

	if v, ok := opts[OptTemperature]; ok {
		if f, ok := toFloat64(v); ok && IsValidTemperature(f) {
			options.Temperature = &f
		}
	}
	if v, ok := opts[OptTopP]; ok {
		if f, ok := toFloat64(v); ok && IsValidTopP(f) {
			options.TopP = &f
		}
	}

	for k, v := range opts {
		switch k {
		case OptMaxTokens, OptModel, OptTemperature, OptTopP, OptSystem:
		default:
			options.Extra[k] = v
		}
	}
	return options
}

// ExtractOptionalInt returns opts[key] when it is an int accepted by
// validator, and defaultVal otherwise.
func ExtractOptionalInt(opts map[string]any, key string, defaultVal int, validator func(int) bool) int {
	v, ok := opts[key].(int)
	if !ok || (validator != nil && !validator(v)) {
		return defaultVal
	}
	return v
}

// ExtractOptionalString returns opts[key] when it is a string accepted by
// validator, and defaultVal otherwise.
func ExtractOptionalString(opts map[string]any, key, defaultVal string, validator func(string) bool) string {
	v, ok := opts[key].(string)
	if !ok || (validator != nil && !validator(v)) {
		return defaultVal
	}
	return v
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// IsPositiveInt reports whether val > 0.
func IsPositiveInt(val int) bool { return val > 0 }

// IsNonEmptyString reports whether val is non-empty.
func IsNonEmptyString(val string) bool { return val != "" }

// IsValidTemperature reports whether val is within [MinTemperature, MaxTemperature].
func IsValidTemperature(val float64) bool { return val >= MinTemperature && val <= MaxTemperature }

// IsValidTopP reports whether val is within [MinTopP, MaxTopP].
func IsValidTopP(val float64) bool { return val >= MinTopP && val <= MaxTopP }

// ValidateBaseURL checks that baseURL is an absolute http(s) URL. The empty
// string is valid and selects the vendor default.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}
	return u.String(), nil
}

// ValidateTimeout clamps timeout to [MinTimeout, MaxTimeout]. Non-positive
// values return zero, meaning the SDK default.
func ValidateTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	return min(max(timeout, MinTimeout), MaxTimeout)
}

// ClampFloat64 restricts val to [lo, hi].
func ClampFloat64(val, lo, hi float64) float64 { return min(max(val, lo), hi) }

// ClampInt restricts val to [lo, hi].
func ClampInt(val, lo, hi int) int { return min(max(val, lo), hi) }
