package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the error chain.
// If err is nil, Wrap returns nil.
// If err is already a DeskError, it wraps it with the new message while
// keeping the code, category, tracking id, reason code and details.
// Otherwise, it creates a new Internal error wrapping the original.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var deskErr *Error
	if errors.As(err, &deskErr) {
		wrapped := &Error{
			code:       deskErr.code,
			category:   deskErr.category,
			message:    message,
			cause:      err,
			trackingID: deskErr.trackingID,
			reasonCode: deskErr.reasonCode,
			details:    deskErr.details,
			retryable:  deskErr.retryable,
			taskID:     deskErr.taskID,
			timestamp:  deskErr.timestamp,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	// Context errors have well-known codes
	if errors.Is(err, context.DeadlineExceeded) {
		return New(ErrCodeTimeout, message, append(opts, WithCause(err))...)
	}
	if errors.Is(err, context.Canceled) {
		return New(ErrCodeCanceled, message, append(opts, WithCause(err))...)
	}

	return New(ErrCodeInternal, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// AsDeskError attempts to extract a DeskError from an error chain.
// Returns nil if no DeskError is found.
func AsDeskError(err error) DeskError {
	var deskErr *Error
	if errors.As(err, &deskErr) {
		return deskErr
	}
	return nil
}

// Is checks if any error in the chain has the given error code.
func Is(err error, code ErrorCode) bool {
	var deskErr *Error
	if errors.As(err, &deskErr) {
		return deskErr.code == code
	}
	return false
}

// IsCategory checks if any error in the chain has the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var deskErr *Error
	if errors.As(err, &deskErr) {
		return deskErr.category == category
	}
	return false
}

// IsRetryable checks if the error is retryable.
func IsRetryable(err error) bool {
	var deskErr *Error
	if errors.As(err, &deskErr) {
		return deskErr.Retryable()
	}
	// Default to not retryable for plain errors
	return false
}

// Code extracts the error code from an error, if available.
// Returns empty string if err is not a DeskError.
func Code(err error) ErrorCode {
	var deskErr *Error
	if errors.As(err, &deskErr) {
		return deskErr.code
	}
	return ""
}

// Category extracts the error category from an error, if available.
// Returns empty string if err is not a DeskError.
func Category(err error) ErrorCategory {
	var deskErr *Error
	if errors.As(err, &deskErr) {
		return deskErr.category
	}
	return ""
}

// TrackingID extracts the tracking id from an error.
// Returns empty string if err is not a DeskError.
func TrackingID(err error) string {
	var deskErr *Error
	if errors.As(err, &deskErr) {
		return deskErr.trackingID
	}
	return ""
}

// ReasonCode extracts the backend reason code from an error.
// Returns zero if err is not a DeskError.
func ReasonCode(err error) int {
	var deskErr *Error
	if errors.As(err, &deskErr) {
		return deskErr.reasonCode
	}
	return 0
}

// Cause returns the root cause of the error chain.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		inner := unwrapper.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}

// RecoverPanic converts a recovered panic value into an Error.
func RecoverPanic(recovered interface{}) *Error {
	if recovered == nil {
		return nil
	}
	var message string
	switch v := recovered.(type) {
	case error:
		message = v.Error()
	case string:
		message = v
	default:
		message = fmt.Sprintf("%v", v)
	}
	return New(ErrCodePanic, message)
}
