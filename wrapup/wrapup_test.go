package wrapup

import (
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock drives the timer's seams without waiting on real time.
type fakeClock struct {
	current time.Time
	armed   []*armedTimer
}

type armedTimer struct {
	deadline time.Time
	fn       func()
	timer    *time.Timer
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.current }

func (c *fakeClock) afterFunc(d time.Duration, f func()) *time.Timer {
	// The returned *time.Timer is created stopped; firing is driven by
	// advance to keep the test deterministic.
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	c.armed = append(c.armed, &armedTimer{deadline: c.current.Add(d), fn: f, timer: timer})
	return timer
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
	for _, a := range c.armed {
		if a.fn != nil && !c.current.Before(a.deadline) {
			fn := a.fn
			a.fn = nil
			fn()
		}
	}
}

func newTestTimer(interval time.Duration, onFire func()) (*Timer, *fakeClock) {
	clock := newFakeClock()
	t := New(interval, onFire)
	t.now = clock.now
	t.afterFunc = clock.afterFunc
	return t, clock
}

func TestStartAndFire(t *testing.T) {
	var fired atomic.Int32
	timer, clock := newTestTimer(30*time.Second, func() { fired.Add(1) })

	timer.Start()
	if !timer.Running() {
		t.Fatal("timer should be running after Start")
	}

	clock.advance(30 * time.Second)
	if fired.Load() != 1 {
		t.Fatalf("fired = %d, want 1", fired.Load())
	}
	if timer.Running() {
		t.Error("timer should be idle after firing")
	}
	if timer.TimeLeft() != 0 {
		t.Errorf("TimeLeft = %v, want 0 after fire", timer.TimeLeft())
	}
}

func TestClearPreventsFire(t *testing.T) {
	var fired atomic.Int32
	timer, clock := newTestTimer(30*time.Second, func() { fired.Add(1) })

	timer.Start()
	timer.Clear()
	clock.advance(time.Minute)

	if fired.Load() != 0 {
		t.Fatalf("fired = %d, want 0 after Clear", fired.Load())
	}
	if timer.Running() {
		t.Error("timer should be idle after Clear")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	timer, _ := newTestTimer(time.Second, func() {})
	timer.Clear()
	timer.Clear()
	timer.Start()
	timer.Clear()
	timer.Clear()
	if timer.Running() {
		t.Error("timer should be idle")
	}
}

func TestRestartFiresExactlyOnce(t *testing.T) {
	var fired atomic.Int32
	timer, clock := newTestTimer(30*time.Second, func() { fired.Add(1) })

	timer.Start()
	clock.advance(10 * time.Second)
	timer.Start() // re-arm without clearing

	// The first arm's deadline passes; only the second arm may fire.
	clock.advance(25 * time.Second)
	if fired.Load() != 0 {
		t.Fatalf("fired = %d, want 0 before second deadline", fired.Load())
	}

	clock.advance(10 * time.Second)
	if fired.Load() != 1 {
		t.Fatalf("fired = %d, want exactly 1", fired.Load())
	}
}

func TestTimeLeftMonotonic(t *testing.T) {
	timer, clock := newTestTimer(30*time.Second, func() {})
	timer.Start()

	prev := timer.TimeLeft()
	if prev != 30*time.Second {
		t.Fatalf("initial TimeLeft = %v, want 30s", prev)
	}

	for i := 0; i < 10; i++ {
		clock.advance(5 * time.Second)
		left := timer.TimeLeft()
		if left > prev {
			t.Fatalf("TimeLeft increased: %v > %v", left, prev)
		}
		if left < 0 {
			t.Fatalf("TimeLeft negative: %v", left)
		}
		prev = left
	}
	if prev != 0 {
		t.Errorf("TimeLeft = %v, want 0 at the end", prev)
	}
}

func TestTimeLeftIdle(t *testing.T) {
	timer, _ := newTestTimer(30*time.Second, func() {})
	if timer.TimeLeft() != 0 {
		t.Errorf("TimeLeft = %v, want 0 when idle", timer.TimeLeft())
	}
}
