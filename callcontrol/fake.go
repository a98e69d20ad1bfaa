package callcontrol

import (
	"context"
	"fmt"
	"sync"

	"github.com/contactdesk/deskcore/errors"
)

// FakeStream is a MediaStream for tests.
type FakeStream struct {
	id string

	mu      sync.Mutex
	stopped bool
}

func (s *FakeStream) ID() string { return s.id }

func (s *FakeStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

// Stopped reports whether Stop has been called.
func (s *FakeStream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// FakeDevice is a Device for tests. It records every operation, keeps a
// real mapping table, and can script per-operation failures.
type FakeDevice struct {
	mu          sync.Mutex
	ops         []string
	callToTask  map[string]string
	ringing     map[string]bool // task ids with a local call present
	muted       bool
	failures    map[string]error // op name -> scripted error
	disconnects map[string]func()
	streamSeq   int

	incoming chan IncomingCall
}

// NewFakeDevice creates an empty fake device.
func NewFakeDevice() *FakeDevice {
	return &FakeDevice{
		callToTask:  make(map[string]string),
		ringing:     make(map[string]bool),
		failures:    make(map[string]error),
		disconnects: make(map[string]func()),
		incoming:    make(chan IncomingCall, 16),
	}
}

// Fail scripts op ("acquire", "answer", "decline", "end", "mute") to
// return err.
func (d *FakeDevice) Fail(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[op] = err
}

// Ring simulates a local call arriving and announces it on the
// incoming feed. When taskID is known it also marks the task ringing.
func (d *FakeDevice) Ring(callID, taskID string) {
	d.mu.Lock()
	if taskID != "" {
		d.callToTask[callID] = taskID
		d.ringing[taskID] = true
	}
	d.mu.Unlock()
	d.incoming <- IncomingCall{CallID: callID}
}

// RingTask marks taskID as having a local call without announcing it.
func (d *FakeDevice) RingTask(taskID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ringing[taskID] = true
}

// Ops returns a copy of the recorded operations.
func (d *FakeDevice) Ops() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.ops))
	copy(out, d.ops)
	return out
}

// TriggerDisconnect runs the disconnect handler registered for taskID.
func (d *FakeDevice) TriggerDisconnect(taskID string) {
	d.mu.Lock()
	fn := d.disconnects[taskID]
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (d *FakeDevice) record(op string) {
	d.ops = append(d.ops, op)
}

func (d *FakeDevice) AcquireStream(ctx context.Context) (MediaStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("acquire")
	if err := d.failures["acquire"]; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.streamSeq++
	return &FakeStream{id: fmt.Sprintf("stream-%d", d.streamSeq)}, nil
}

func (d *FakeDevice) Answer(stream MediaStream, taskID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("answer " + taskID)
	if err := d.failures["answer"]; err != nil {
		return err
	}
	if !d.ringing[taskID] {
		return errors.NoLocalCall(taskID)
	}
	d.ringing[taskID] = false
	return nil
}

func (d *FakeDevice) Decline(taskID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("decline " + taskID)
	if err := d.failures["decline"]; err != nil {
		return err
	}
	if !d.ringing[taskID] {
		return errors.NoLocalCall(taskID)
	}
	d.ringing[taskID] = false
	return nil
}

func (d *FakeDevice) End(taskID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("end " + taskID)
	if err := d.failures["end"]; err != nil {
		return err
	}
	d.ringing[taskID] = false
	return nil
}

func (d *FakeDevice) Mute(stream MediaStream) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("mute")
	if err := d.failures["mute"]; err != nil {
		return err
	}
	d.muted = !d.muted
	return nil
}

func (d *FakeDevice) IsMuted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.muted
}

func (d *FakeDevice) MapCallToTask(callID, taskID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callToTask[callID] = taskID
}

func (d *FakeDevice) GetTaskIDForCall(callID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	taskID, ok := d.callToTask[callID]
	return taskID, ok
}

func (d *FakeDevice) UnmapCall(callID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.callToTask, callID)
}

// Mapped returns the call ids currently mapped to taskID.
func (d *FakeDevice) Mapped(taskID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for callID, t := range d.callToTask {
		if t == taskID {
			out = append(out, callID)
		}
	}
	return out
}

func (d *FakeDevice) IncomingCalls() <-chan IncomingCall {
	return d.incoming
}

func (d *FakeDevice) OnDisconnect(taskID string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if fn == nil {
		delete(d.disconnects, taskID)
		return
	}
	d.disconnects[taskID] = fn
}

var _ Device = (*FakeDevice)(nil)
