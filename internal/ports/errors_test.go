package ports

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLLMError covers error creation, message formatting, and the transient
// classification.
func TestLLMError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := NewLLMError("gpt-4o", "Translate", ErrInvalidResponse)

		assert.Equal(t, "LLM error: model=gpt-4o, operation=Translate, err=invalid response", err.Error())
		assert.True(t, errors.Is(err, ErrInvalidResponse))
	})

	t.Run("with tokens used", func(t *testing.T) {
		err := &LLMError{Model: "claude", Operation: "Summarize", Err: ErrTimeout, TokensUsed: 512}
		assert.Contains(t, err.Error(), "tokens_used=512")
	})

	t.Run("transient classification", func(t *testing.T) {
		for _, base := range []error{ErrRateLimited, ErrServiceUnavailable, fmt.Errorf("wrapped: %w", ErrTimeout)} {
			assert.True(t, NewLLMError("m", "Call", base).IsTransient(), "%v should be transient", base)
		}
		for _, base := range []error{ErrInvalidResponse, ErrAuthenticationFailed, ErrUnsupportedTask} {
			assert.False(t, NewLLMError("m", "Call", base).IsTransient(), "%v should not be transient", base)
		}
	})
}
