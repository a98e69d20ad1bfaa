// Package callcontrol defines the narrow surface the task core needs
// from the local call device: answering and ending local calls,
// muting, and the call-id to task-id side table. Actual media transport
// lives behind the Device implementation and is not this module's
// concern.
package callcontrol

import "context"

// MediaStream is an opaque handle to a local media stream.
type MediaStream interface {
	// ID identifies the stream for logging.
	ID() string

	// Stop releases the stream's resources.
	Stop()
}

// IncomingCall announces a local call arriving at the device. The call
// id correlates it to a task through the mapping table; the call may
// arrive before its task exists.
type IncomingCall struct {
	CallID string
	From   string
}

// Device is the local call-control collaborator.
//
// Answer and Decline report a missing local call with the no-local-call
// error code; callers treat that as skip, not failure.
type Device interface {
	// AcquireStream opens a local media stream for answering.
	AcquireStream(ctx context.Context) (MediaStream, error)

	// Answer picks up the local call mapped to taskID using stream.
	Answer(stream MediaStream, taskID string) error

	// Decline rejects the local call mapped to taskID.
	Decline(taskID string) error

	// End hangs up the local call mapped to taskID.
	End(taskID string) error

	// Mute toggles the stream's outgoing audio.
	Mute(stream MediaStream) error

	// IsMuted reports the current mute state.
	IsMuted() bool

	// MapCallToTask records the call-id to task-id correlation.
	MapCallToTask(callID, taskID string)

	// GetTaskIDForCall looks up the task for a call id.
	GetTaskIDForCall(callID string) (string, bool)

	// UnmapCall removes the correlation for a call id.
	UnmapCall(callID string)

	// IncomingCalls is the feed of local calls arriving at the device.
	IncomingCalls() <-chan IncomingCall

	// OnDisconnect registers fn to run when the local call mapped to
	// taskID drops. At most one handler per task; registering replaces.
	OnDisconnect(taskID string, fn func())
}
