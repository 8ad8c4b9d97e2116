package errors

// ErrorCategory classifies errors by their nature and retry semantics.
type ErrorCategory string

// Error categories define how errors should be handled.
const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: network timeouts, the agent endpoint briefly unreachable.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: invalid ticker, unknown action, malformed response body.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryRemote indicates errors reported by the remote agent itself.
	// These are surfaced verbatim and never retried locally.
	CategoryRemote ErrorCategory = "remote"

	// CategoryInternal indicates unexpected errors, bugs, or system failures.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	return c == CategoryTransient
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

// Error codes for failure scenarios in this module.
const (
	// Transient errors
	ErrCodeTimeout     ErrorCode = "TIMEOUT"     // Operation timed out
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE" // No endpoint produced a usable response
	ErrCodeNetworkErr  ErrorCode = "NETWORK_ERR" // Network connectivity issue

	// Permanent errors
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"     // Tool, action, or method does not exist
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT" // Malformed or missing argument
	ErrCodeMalformed    ErrorCode = "MALFORMED"     // Response body could not be decoded
	ErrCodeCanceled     ErrorCode = "CANCELED"      // Operation was canceled

	// Remote errors
	ErrCodeRemote ErrorCode = "REMOTE_ERROR" // Agent answered with its own error payload

	// Internal errors
	ErrCodeInternal        ErrorCode = "INTERNAL"         // Unexpected internal error
	ErrCodeLLMFailed       ErrorCode = "LLM_FAILED"       // Model backend call failed
	ErrCodeDataUnavailable ErrorCode = "DATA_UNAVAILABLE" // Price history could not be fetched
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeTimeout, ErrCodeUnavailable, ErrCodeNetworkErr:
		return CategoryTransient
	case ErrCodeNotFound, ErrCodeInvalidInput, ErrCodeMalformed, ErrCodeCanceled:
		return CategoryPermanent
	case ErrCodeRemote:
		return CategoryRemote
	case ErrCodeInternal, ErrCodeLLMFailed, ErrCodeDataUnavailable:
		return CategoryInternal
	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}

// codeDescriptions provides human-readable descriptions for error codes.
var codeDescriptions = map[ErrorCode]string{
	ErrCodeTimeout:         "operation timed out",
	ErrCodeUnavailable:     "no usable response",
	ErrCodeNetworkErr:      "network connectivity error",
	ErrCodeNotFound:        "not found",
	ErrCodeInvalidInput:    "invalid input provided",
	ErrCodeMalformed:       "response could not be decoded",
	ErrCodeCanceled:        "operation canceled",
	ErrCodeRemote:          "remote agent reported an error",
	ErrCodeInternal:        "internal error",
	ErrCodeLLMFailed:       "model backend call failed",
	ErrCodeDataUnavailable: "price history unavailable",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
