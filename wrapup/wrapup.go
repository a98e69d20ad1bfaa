// Package wrapup provides the per-task auto-wrap-up timer. When the timer
// fires, the owning task submits the configured wrap-up reason on the
// agent's behalf.
package wrapup

import (
	"sync"
	"time"
)

// Timer is an ephemeral one-shot timer: idle until Start, back to idle on
// fire or Clear. At most one armed timer exists per instance; Start while
// running clears the previous one first.
type Timer struct {
	mu         sync.Mutex
	interval   time.Duration
	startTime  time.Time
	pending    *time.Timer
	generation uint64
	onFire     func()

	// Seams for tests.
	now       func() time.Time
	afterFunc func(d time.Duration, f func()) *time.Timer
}

// New creates a timer that invokes onFire once per arm after interval.
func New(interval time.Duration, onFire func()) *Timer {
	return &Timer{
		interval:  interval,
		onFire:    onFire,
		now:       time.Now,
		afterFunc: time.AfterFunc,
	}
}

// Interval returns the configured interval.
func (t *Timer) Interval() time.Duration {
	return t.interval
}

// Start arms the timer. A previously armed timer is cancelled first, so a
// restart never leaks a pending fire.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clearLocked()
	t.generation++
	gen := t.generation
	t.startTime = t.now()
	t.pending = t.afterFunc(t.interval, func() {
		t.fire(gen)
	})
}

// Clear cancels a pending fire. Idempotent.
func (t *Timer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLocked()
}

func (t *Timer) clearLocked() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.generation++
	t.startTime = time.Time{}
}

// Running reports whether a fire is pending.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

// TimeLeft returns the remaining time before the pending fire, never
// negative; zero when idle or expired.
func (t *Timer) TimeLeft() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending == nil {
		return 0
	}
	left := t.interval - t.now().Sub(t.startTime)
	if left < 0 {
		return 0
	}
	return left
}

// fire runs the callback unless the arm it belongs to was cancelled.
func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		return
	}
	t.pending = nil
	t.startTime = time.Time{}
	cb := t.onFire
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
}
