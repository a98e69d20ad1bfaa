package errors

// ErrorCategory classifies errors by their nature and retry semantics.
type ErrorCategory string

// Error categories define how errors should be handled.
const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: routing-service timeouts, event-channel hiccups.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: missing wrap-up fields, unresolvable consult destination.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryBackend indicates the routing service rejected the operation.
	// The backend's numeric reason code distinguishes the exact failure.
	CategoryBackend ErrorCategory = "backend"

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

// Error codes for command and dispatch failure scenarios.
const (
	// Transient errors
	ErrCodeTimeout     ErrorCode = "TIMEOUT"      // Operation timed out
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"  // Routing service unavailable
	ErrCodeNetworkErr  ErrorCode = "NETWORK_ERR"  // Network connectivity issue
	ErrCodeChannelDown ErrorCode = "CHANNEL_DOWN" // Event channel closed mid-operation

	// Permanent errors
	ErrCodeTaskNotFound  ErrorCode = "TASK_NOT_FOUND" // Task does not exist
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"  // Malformed or missing parameters
	ErrCodeMissingData   ErrorCode = "MISSING_DATA"   // Task has no interaction data
	ErrCodeNoDestination ErrorCode = "NO_DESTINATION" // Consult destination unresolvable
	ErrCodeNoLocalCall   ErrorCode = "NO_LOCAL_CALL"  // No active local call for the operation
	ErrCodeUnsupported   ErrorCode = "UNSUPPORTED"    // Operation not valid for the media type
	ErrCodeCanceled      ErrorCode = "CANCELED"       // Operation was canceled

	// Backend command rejections
	ErrCodeAcceptFailed     ErrorCode = "ACCEPT_FAILED"
	ErrCodeDeclineFailed    ErrorCode = "DECLINE_FAILED"
	ErrCodeHoldFailed       ErrorCode = "HOLD_FAILED"
	ErrCodeResumeFailed     ErrorCode = "RESUME_FAILED"
	ErrCodeConsultFailed    ErrorCode = "CONSULT_FAILED"
	ErrCodeTransferFailed   ErrorCode = "TRANSFER_FAILED"
	ErrCodeConferenceFailed ErrorCode = "CONFERENCE_FAILED"
	ErrCodeEndFailed        ErrorCode = "END_FAILED"
	ErrCodeWrapupFailed     ErrorCode = "WRAPUP_FAILED"
	ErrCodeRecordingFailed  ErrorCode = "RECORDING_FAILED"
	ErrCodeOutdialFailed    ErrorCode = "OUTDIAL_FAILED"

	// Internal errors
	ErrCodeInternal   ErrorCode = "INTERNAL"    // Unexpected internal error
	ErrCodeMediaError ErrorCode = "MEDIA_ERROR" // Local media/call-control failure
	ErrCodePanic      ErrorCode = "PANIC"       // Recovered from panic
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeTimeout, ErrCodeUnavailable, ErrCodeNetworkErr, ErrCodeChannelDown:
		return CategoryTransient

	case ErrCodeTaskNotFound, ErrCodeInvalidInput, ErrCodeMissingData,
		ErrCodeNoDestination, ErrCodeNoLocalCall, ErrCodeUnsupported,
		ErrCodeCanceled:
		return CategoryPermanent

	case ErrCodeAcceptFailed, ErrCodeDeclineFailed, ErrCodeHoldFailed,
		ErrCodeResumeFailed, ErrCodeConsultFailed, ErrCodeTransferFailed,
		ErrCodeConferenceFailed, ErrCodeEndFailed, ErrCodeWrapupFailed,
		ErrCodeRecordingFailed, ErrCodeOutdialFailed:
		return CategoryBackend

	case ErrCodeInternal, ErrCodeMediaError, ErrCodePanic:
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
	ErrCodeTimeout:          "operation timed out",
	ErrCodeUnavailable:      "routing service unavailable",
	ErrCodeNetworkErr:       "network connectivity error",
	ErrCodeChannelDown:      "event channel closed",
	ErrCodeTaskNotFound:     "task not found",
	ErrCodeInvalidInput:     "invalid input provided",
	ErrCodeMissingData:      "task has no interaction data",
	ErrCodeNoDestination:    "consult destination could not be resolved",
	ErrCodeNoLocalCall:      "no active local call",
	ErrCodeUnsupported:      "operation not supported for media type",
	ErrCodeCanceled:         "operation canceled",
	ErrCodeAcceptFailed:     "accept rejected by routing service",
	ErrCodeDeclineFailed:    "decline rejected by routing service",
	ErrCodeHoldFailed:       "hold rejected by routing service",
	ErrCodeResumeFailed:     "resume rejected by routing service",
	ErrCodeConsultFailed:    "consult rejected by routing service",
	ErrCodeTransferFailed:   "transfer rejected by routing service",
	ErrCodeConferenceFailed: "conference operation rejected by routing service",
	ErrCodeEndFailed:        "end rejected by routing service",
	ErrCodeWrapupFailed:     "wrap-up rejected by routing service",
	ErrCodeRecordingFailed:  "recording operation rejected by routing service",
	ErrCodeOutdialFailed:    "outdial rejected by routing service",
	ErrCodeInternal:         "internal error",
	ErrCodeMediaError:       "local media failure",
	ErrCodePanic:            "recovered from panic",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
