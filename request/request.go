// Package request issues backend commands and correlates their
// asynchronous outcomes. A command is described by a Descriptor; the
// client resolves it when a matching notification arrives on the event
// feed, or rejects it on a failure notification or timeout. Correlation
// is entirely this package's concern; callers see one call, one result.
package request

import (
	"context"
	"time"

	"github.com/contactdesk/deskcore/channel"
	"github.com/contactdesk/deskcore/errors"
)

// DefaultTimeout bounds a correlated request when the descriptor does
// not set its own.
const DefaultTimeout = 20 * time.Second

// Descriptor describes one backend command and its outcome signature.
type Descriptor struct {
	// Service and Resource form the request path.
	Service  string
	Resource string

	// Method is the HTTP method. Empty means POST.
	Method string

	// Body is the request payload, marshaled as JSON when non-nil.
	Body any

	// InteractionID correlates outcome notifications to this request.
	InteractionID string

	// SuccessTypes and FailureTypes are the notification types that
	// resolve or reject this request. With no SuccessTypes the request
	// completes as soon as the backend acknowledges it.
	SuccessTypes []channel.EventType
	FailureTypes []channel.EventType

	// FailureCode is the error code applied to rejections. Empty means
	// the generic internal code.
	FailureCode errors.ErrorCode

	// Timeout bounds the wait for the outcome notification.
	Timeout time.Duration
}

// failureCode returns the code applied to rejections of this request.
func (d Descriptor) failureCode() errors.ErrorCode {
	if d.FailureCode != "" {
		return d.FailureCode
	}
	return errors.ErrCodeInternal
}

// Response is a resolved request. Event is the success notification
// when the descriptor named success types, nil otherwise.
type Response struct {
	Event      *channel.ContactEvent
	TrackingID string
}

// Client issues backend commands.
type Client interface {
	Request(ctx context.Context, d Descriptor) (*Response, error)
}
