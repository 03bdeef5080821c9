package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ErrorType buckets a raw external API failure into the taxonomy the retry
// loop and the action executor act on.
type ErrorType string

const (
	ErrorRateLimitExceeded ErrorType = "RATE_LIMIT_EXCEEDED"
	ErrorQuotaExceeded     ErrorType = "QUOTA_EXCEEDED"
	ErrorAuthentication    ErrorType = "AUTHENTICATION_ERROR"
	ErrorPermissionDenied  ErrorType = "PERMISSION_DENIED"
	ErrorInvalidRequest    ErrorType = "INVALID_REQUEST"
	ErrorResourceNotFound  ErrorType = "RESOURCE_NOT_FOUND"
	ErrorServer            ErrorType = "SERVER_ERROR"
	ErrorNetwork           ErrorType = "NETWORK_ERROR"
	ErrorCircuitOpen       ErrorType = "CIRCUIT_OPEN"
	ErrorUnknown           ErrorType = "UNKNOWN_ERROR"
)

// ClassifiedError is the explicit result type driving retry decisions. Retry
// logic is driven by this data, never by catching and rethrowing.
type ClassifiedError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	// RetryAfter, when non zero, takes precedence over the computed backoff
	// delay.
	RetryAfter     time.Duration
	QuotaResetTime time.Time
}

func (e *ClassifiedError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

const defaultRateLimitRetryAfter = 5 * time.Second

// ClassifyStatus maps a transport status code plus response body into a
// classified error. The body is only inspected to split 403 into quota
// versus permission.
func ClassifyStatus(statusCode int, body string, now time.Time) *ClassifiedError {
	switch {
	case statusCode == 429:
		return &ClassifiedError{
			Type:       ErrorRateLimitExceeded,
			Message:    "rate limit exceeded",
			StatusCode: statusCode,
			Retryable:  true,
			RetryAfter: defaultRateLimitRetryAfter,
		}
	case statusCode == 401:
		return &ClassifiedError{
			Type:       ErrorAuthentication,
			Message:    "authentication failed, credentials expired or revoked",
			StatusCode: statusCode,
		}
	case statusCode == 403:
		if isQuotaBody(body) {
			return &ClassifiedError{
				Type:           ErrorQuotaExceeded,
				Message:        "api quota exceeded",
				StatusCode:     statusCode,
				QuotaResetTime: now.Add(24 * time.Hour),
			}
		}
		return &ClassifiedError{
			Type:       ErrorPermissionDenied,
			Message:    "permission denied",
			StatusCode: statusCode,
		}
	case statusCode == 400:
		return &ClassifiedError{
			Type:       ErrorInvalidRequest,
			Message:    "invalid request",
			StatusCode: statusCode,
		}
	case statusCode == 404:
		return &ClassifiedError{
			Type:       ErrorResourceNotFound,
			Message:    "resource not found",
			StatusCode: statusCode,
		}
	case statusCode >= 500:
		return &ClassifiedError{
			Type:       ErrorServer,
			Message:    "server error",
			StatusCode: statusCode,
			Retryable:  true,
		}
	default:
		return &ClassifiedError{
			Type:       ErrorUnknown,
			Message:    fmt.Sprintf("unexpected status %d", statusCode),
			StatusCode: statusCode,
		}
	}
}

// Classify maps any raw error into a classified error. Errors that are
// already classified pass through unchanged.
func Classify(err error) *ClassifiedError {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{
			Type:      ErrorNetwork,
			Message:   err.Error(),
			Retryable: true,
		}
	}

	return &ClassifiedError{
		Type:    ErrorUnknown,
		Message: err.Error(),
	}
}

func isQuotaBody(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "quota") || strings.Contains(lower, "ratelimitexceeded") ||
		strings.Contains(lower, "dailylimitexceeded")
}
