package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingCredential = errors.New("llm credential missing")
	// ErrInvalidCredential also matches ErrMissingCredential.
	ErrInvalidCredential = fmt.Errorf("%w: rejected by provider", ErrMissingCredential)
	ErrQuotaExceeded     = errors.New("llm quota exceeded")
	ErrServiceFailure    = errors.New("llm service failure")
)

// ServiceError is any provider failure that is not a credential or quota
// problem.
type ServiceError struct {
	Provider string
	Status   int
	Detail   string
	Err      error
}

func (e *ServiceError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Detail)
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrServiceFailure
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Classify maps an arbitrary provider error to one of the package errors by
// inspecting its text. Errors that already carry a package error pass
// through unchanged.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrMissingCredential) || errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrServiceFailure) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ServiceError{Provider: provider, Detail: "request timed out", Err: err}
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "quota"),
		strings.Contains(msg, "RESOURCE_EXHAUSTED"),
		strings.Contains(lower, "status 429"):
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, msg)
	case strings.Contains(lower, "api key"),
		strings.Contains(msg, "API_KEY_INVALID"),
		strings.Contains(msg, "UNAUTHENTICATED"),
		strings.Contains(msg, "PERMISSION_DENIED"):
		return fmt.Errorf("%w: %s", ErrInvalidCredential, msg)
	default:
		return &ServiceError{Provider: provider, Detail: msg, Err: err}
	}
}

// UserMessage returns the message shown for an analysis failure.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredential):
		return "Invalid or missing API key. Please check your AI API key and try again."
	case errors.Is(err, ErrMissingCredential):
		return "AI API key not configured. Please check your environment setup."
	case errors.Is(err, ErrQuotaExceeded):
		return "API quota exceeded. Please check your AI API usage limits."
	default:
		detail := "unknown error"
		var svcErr *ServiceError
		if errors.As(err, &svcErr) && svcErr.Detail != "" {
			detail = svcErr.Detail
		} else if err != nil {
			detail = err.Error()
		}
		return fmt.Sprintf("Error analyzing CV: %s. Please try again.", detail)
	}
}
