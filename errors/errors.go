package errors

import (
	"encoding/json"
	"fmt"
	"time"
)

// DeskError is the interface for all structured errors in deskcore.
// It extends the standard error interface with the context every command
// failure must expose to callers and to telemetry.
type DeskError interface {
	error

	// Code returns the specific error code identifying the failure type.
	Code() ErrorCode

	// Category returns the error category for retry/handling decisions.
	Category() ErrorCategory

	// Retryable returns true if the operation may succeed on retry.
	Retryable() bool

	// TrackingID returns the id correlating this failure with backend logs.
	TrackingID() string

	// ReasonCode returns the backend's numeric reason code, if any.
	ReasonCode() int

	// Details returns the raw backend payload that produced this error.
	Details() json.RawMessage

	// Unwrap returns the underlying error, if any.
	Unwrap() error
}

// Error is the concrete implementation of DeskError.
type Error struct {
	code       ErrorCode
	category   ErrorCategory
	message    string
	cause      error
	trackingID string
	reasonCode int
	details    json.RawMessage
	retryable  *bool // nil means use default based on category
	timestamp  time.Time
	taskID     string // related task, if applicable
}

// Ensure Error implements DeskError and json.Marshaler/Unmarshaler.
var (
	_ DeskError        = (*Error)(nil)
	_ json.Marshaler   = (*Error)(nil)
	_ json.Unmarshaler = (*Error)(nil)
)

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Category returns the error category.
func (e *Error) Category() ErrorCategory {
	return e.category
}

// Retryable returns whether this error is retryable.
func (e *Error) Retryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	return e.category.IsRetryable()
}

// TrackingID returns the tracking id for this failure.
func (e *Error) TrackingID() string {
	return e.trackingID
}

// ReasonCode returns the backend's numeric reason code, zero if unset.
func (e *Error) ReasonCode() int {
	return e.reasonCode
}

// Details returns the raw backend payload, nil if unset.
func (e *Error) Details() json.RawMessage {
	return e.details
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Timestamp returns when the error occurred.
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// TaskID returns the related task ID, if set.
func (e *Error) TaskID() string {
	return e.taskID
}

// errorJSON is the JSON representation of an Error.
type errorJSON struct {
	Code       ErrorCode       `json:"code"`
	Category   ErrorCategory   `json:"category"`
	Message    string          `json:"message"`
	Cause      string          `json:"cause,omitempty"`
	TrackingID string          `json:"tracking_id,omitempty"`
	ReasonCode int             `json:"reason_code,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	Retryable  bool            `json:"retryable"`
	Timestamp  string          `json:"timestamp,omitempty"`
	TaskID     string          `json:"task_id,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	j := errorJSON{
		Code:       e.code,
		Category:   e.category,
		Message:    e.message,
		TrackingID: e.trackingID,
		ReasonCode: e.reasonCode,
		Details:    e.details,
		Retryable:  e.Retryable(),
		TaskID:     e.taskID,
	}
	if e.cause != nil {
		j.Cause = e.cause.Error()
	}
	if !e.timestamp.IsZero() {
		j.Timestamp = e.timestamp.Format(time.RFC3339Nano)
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Error) UnmarshalJSON(data []byte) error {
	var j errorJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	e.code = j.Code
	e.category = j.Category
	e.message = j.Message
	e.trackingID = j.TrackingID
	e.reasonCode = j.ReasonCode
	e.details = j.Details
	e.taskID = j.TaskID
	r := j.Retryable
	e.retryable = &r
	if j.Cause != "" {
		e.cause = fmt.Errorf("%s", j.Cause)
	}
	if j.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, j.Timestamp); err == nil {
			e.timestamp = t
		}
	}
	return nil
}

// Option is a functional option for configuring an Error.
type Option func(*Error)

// WithCategory overrides the default category.
func WithCategory(cat ErrorCategory) Option {
	return func(e *Error) {
		e.category = cat
	}
}

// WithRetryable explicitly sets whether the error is retryable.
func WithRetryable(retryable bool) Option {
	return func(e *Error) {
		e.retryable = &retryable
	}
}

// WithTrackingID sets the tracking id.
func WithTrackingID(id string) Option {
	return func(e *Error) {
		e.trackingID = id
	}
}

// WithReasonCode sets the backend's numeric reason code.
func WithReasonCode(code int) Option {
	return func(e *Error) {
		e.reasonCode = code
	}
}

// WithDetails attaches the raw backend payload.
func WithDetails(details json.RawMessage) Option {
	return func(e *Error) {
		e.details = details
	}
}

// WithTaskID sets the related task ID.
func WithTaskID(id string) Option {
	return func(e *Error) {
		e.taskID = id
	}
}

// WithTimestamp sets a custom timestamp.
func WithTimestamp(t time.Time) Option {
	return func(e *Error) {
		e.timestamp = t
	}
}

// WithCause sets the underlying cause.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string, opts ...Option) *Error {
	e := &Error{
		code:      code,
		category:  code.DefaultCategory(),
		message:   message,
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// FromCode creates an error with the default description for the code.
func FromCode(code ErrorCode, opts ...Option) *Error {
	return New(code, code.Description(), opts...)
}

// Timeout creates a timeout error.
func Timeout(message string, opts ...Option) *Error {
	return New(ErrCodeTimeout, message, opts...)
}

// InvalidInput creates an invalid input error.
func InvalidInput(message string, opts ...Option) *Error {
	return New(ErrCodeInvalidInput, message, opts...)
}

// MissingData creates an error for a task with no interaction data.
func MissingData(taskID string, opts ...Option) *Error {
	opts = append([]Option{WithTaskID(taskID)}, opts...)
	return New(ErrCodeMissingData, fmt.Sprintf("task %s has no interaction data", taskID), opts...)
}

// NoDestination creates an error for an unresolvable consult destination.
func NoDestination(taskID string, opts ...Option) *Error {
	opts = append([]Option{WithTaskID(taskID)}, opts...)
	return New(ErrCodeNoDestination, fmt.Sprintf("task %s: consult destination could not be resolved", taskID), opts...)
}

// NoLocalCall creates an error for an operation that requires a local call.
func NoLocalCall(taskID string, opts ...Option) *Error {
	opts = append([]Option{WithTaskID(taskID)}, opts...)
	return New(ErrCodeNoLocalCall, fmt.Sprintf("task %s has no active local call", taskID), opts...)
}

// TaskNotFound creates a task not found error.
func TaskNotFound(taskID string, opts ...Option) *Error {
	opts = append([]Option{WithTaskID(taskID)}, opts...)
	return New(ErrCodeTaskNotFound, fmt.Sprintf("task %s not found", taskID), opts...)
}

// Internal creates an internal error.
func Internal(message string, opts ...Option) *Error {
	return New(ErrCodeInternal, message, opts...)
}

// Media creates a local media/call-control error.
func Media(message string, opts ...Option) *Error {
	return New(ErrCodeMediaError, message, opts...)
}
