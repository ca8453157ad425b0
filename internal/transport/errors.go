package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error codes reported by ProviderError
const (
	ErrCodeAuthentication    = "authentication_error"
	ErrCodeRateLimit         = "rate_limit_exceeded"
	ErrCodeModelNotFound     = "model_not_found"
	ErrCodeInvalidRequest    = "invalid_request"
	ErrCodeContextLength     = "context_length_exceeded"
	ErrCodeServerError       = "server_error"
	ErrCodeTimeout           = "timeout"
	ErrCodeMalformedResponse = "malformed_response"
)

// ProviderError is a classified failure from the Messages API
type ProviderError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a typed provider error
func NewProviderError(code, message string, err error) *ProviderError {
	return &ProviderError{Code: code, Message: message, Err: err}
}

// HasCode reports whether err is a ProviderError with the given code
func HasCode(err error, code string) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == code
}

// statusError is a non-2xx response from the API
type statusError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("anthropic: %d %s: %s", e.StatusCode, e.Type, e.Message)
}

// mapError translates HTTP and network failures into ProviderError values
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProviderError(ErrCodeTimeout, "request timed out or cancelled", err)
	}

	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == 401 || se.StatusCode == 403:
			return NewProviderError(ErrCodeAuthentication, se.Message, err)
		case se.StatusCode == 429:
			return NewProviderError(ErrCodeRateLimit, se.Message, err)
		case se.Type == "not_found_error" || se.StatusCode == 404:
			return NewProviderError(ErrCodeModelNotFound, se.Message, err)
		case se.Type == "invalid_request_error" &&
			(strings.Contains(strings.ToLower(se.Message), "token") ||
				strings.Contains(strings.ToLower(se.Message), "context")):
			return NewProviderError(ErrCodeContextLength, se.Message, err)
		case se.StatusCode >= 500:
			return NewProviderError(ErrCodeServerError, se.Message, err)
		case se.StatusCode >= 400:
			return NewProviderError(ErrCodeInvalidRequest, se.Message, err)
		}
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return NewProviderError(ErrCodeTimeout, "request timed out", err)
	}

	msg := err.Error()
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "dial tcp") {
		return NewProviderError(ErrCodeServerError, "anthropic server unreachable", err)
	}

	return NewProviderError(ErrCodeServerError, "anthropic error", err)
}
