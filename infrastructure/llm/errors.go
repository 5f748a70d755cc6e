package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahrav/go-arena/internal/ports"
)

// Errors returned by providers before a request reaches the vendor or when
// the vendor's reply carries no text.
var (
	// ErrEmptyAPIKey indicates that a credential was required but not provided.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")
	// ErrEmptyResponse indicates that the vendor replied without any text.
	ErrEmptyResponse = errors.New("empty response from API")
	// ErrNoResponseChoice indicates that a chat completion carried no choices.
	ErrNoResponseChoice = errors.New("no response choices returned")
)

// ErrorType classifies a vendor failure so callers can tell transient
// conditions from bad requests without inspecting SDK errors.
type ErrorType int

const (
	// ErrorTypeUnknown indicates an error of an undetermined category.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeAuthentication indicates a rejected or missing credential.
	ErrorTypeAuthentication
	// ErrorTypeRateLimit indicates that the vendor throttled the request.
	ErrorTypeRateLimit
	// ErrorTypeBadRequest indicates malformed input or invalid parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates an unknown model or endpoint.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a failure on the vendor's side.
	ErrorTypeServerError
	// ErrorTypeContentPolicy indicates that a safety filter blocked the request.
	ErrorTypeContentPolicy
	// ErrorTypeNetwork indicates a client-side transport failure.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates that the request deadline passed.
	ErrorTypeTimeout
	// ErrorTypeCanceled indicates that the caller canceled the request.
	ErrorTypeCanceled
)

// String returns the snake_case name used in logs and metric labels.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeAuthentication:
		return "authentication"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeBadRequest:
		return "bad_request"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeServerError:
		return "server_error"
	case ErrorTypeContentPolicy:
		return "content_policy"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// sentinel maps a type onto the ports error callers match against.
func (t ErrorType) sentinel() error {
	switch t {
	case ErrorTypeAuthentication:
		return ports.ErrAuthenticationFailed
	case ErrorTypeRateLimit:
		return ports.ErrRateLimited
	case ErrorTypeServerError, ErrorTypeNetwork:
		return ports.ErrServiceUnavailable
	case ErrorTypeTimeout:
		return ports.ErrTimeout
	case ErrorTypeBadRequest, ErrorTypeNotFound, ErrorTypeContentPolicy:
		return ports.ErrInvalidResponse
	default:
		return nil
	}
}

// ProviderError is a vendor failure normalized across SDKs. It unwraps to
// both the matching ports sentinel and the SDK's original error.
type ProviderError struct {
	// Type classifies the error into a standard category.
	Type ErrorType
	// Provider names the vendor that produced the error.
	Provider string
	// StatusCode holds the HTTP status of the vendor's reply, or 0.
	StatusCode int
	// Message is a short description of the failure.
	Message string
	// WrappedError is the underlying SDK or transport error.
	WrappedError error
}

func (e *ProviderError) Error() string {
	msg := e.Provider + " error"
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Type != ErrorTypeUnknown {
		msg += " [" + e.Type.String() + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.WrappedError != nil {
		msg += ": " + e.WrappedError.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Type.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.WrappedError != nil {
		errs = append(errs, e.WrappedError)
	}
	return errs
}

// IsTransient reports whether the vendor, rather than the request, caused
// the failure.
func (e *ProviderError) IsTransient() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// NewProviderError creates a ProviderError.
func NewProviderError(provider string, errType ErrorType, statusCode int, message string, wrapped error) *ProviderError {
	return &ProviderError{
		Type:         errType,
		Provider:     provider,
		StatusCode:   statusCode,
		Message:      message,
		WrappedError: wrapped,
	}
}

// ErrorClassifier turns SDK errors for one provider into ProviderErrors.
type ErrorClassifier struct {
	Provider string
}

// ClassifyHTTPError classifies by HTTP status code.
func (ec *ErrorClassifier) ClassifyHTTPError(statusCode int, message string, err error) *ProviderError {
	var errType ErrorType
	switch {
	case statusCode == 401 || statusCode == 403:
		errType = ErrorTypeAuthentication
		message = ec.Provider + " authentication failed"
	case statusCode == 429:
		errType = ErrorTypeRateLimit
		message = ec.Provider + " rate limit exceeded"
	case statusCode == 404:
		errType = ErrorTypeNotFound
	case statusCode == 408 || statusCode == 504:
		errType = ErrorTypeTimeout
	case statusCode >= 500:
		errType = ErrorTypeServerError
	case statusCode >= 400:
		errType = ErrorTypeBadRequest
	default:
		errType = ErrorTypeUnknown
	}
	return NewProviderError(ec.Provider, errType, statusCode, message, err)
}

// ClassifyContextError classifies a context failure. It returns nil when
// err is not a context error.
func (ec *ErrorClassifier) ClassifyContextError(err error) *ProviderError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewProviderError(ec.Provider, ErrorTypeTimeout, 0, "deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return NewProviderError(ec.Provider, ErrorTypeCanceled, 0, "request canceled", err)
	default:
		return nil
	}
}

// Classify applies ClassifyContextError and falls back to an unknown
// ProviderError.
func (ec *ErrorClassifier) Classify(err error, message string) *ProviderError {
	if pe := ec.ClassifyContextError(err); pe != nil {
		return pe
	}
	return NewProviderError(ec.Provider, ErrorTypeUnknown, 0, message, err)
}
