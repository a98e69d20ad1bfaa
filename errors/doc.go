// Package errors provides the structured error taxonomy for deskcore.
// Every task command failure is surfaced through this package so callers
// and telemetry see one uniform shape: a human message, an error code,
// a category, a tracking id, the backend's numeric reason code, and the
// raw backend payload.
//
// # Error Categories
//
// Errors are classified into four categories:
//
//   - Transient: Temporary failures where retry may succeed (timeouts, etc.)
//   - Permanent: Failures where retry will not help (invalid input, missing data)
//   - Backend: The routing service rejected the operation
//   - Internal: Unexpected errors indicating bugs or local media failures
//
// # Usage
//
// Create a new error:
//
//	err := errors.New(errors.ErrCodeHoldFailed, "hold rejected",
//	    errors.WithTrackingID(trackingID),
//	    errors.WithReasonCode(1001))
//
// Wrap an existing error with context:
//
//	wrapped := errors.Wrap(err, "holding media resource")
//
// Check a failure class:
//
//	if errors.Is(err, errors.ErrCodeNoLocalCall) {
//	    // skip, nothing to answer
//	}
//
// # JSON Serialization
//
// All errors support JSON serialization for logging and telemetry:
//
//	data, err := json.Marshal(deskErr)
package errors
