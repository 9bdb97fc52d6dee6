package bastion

import (
	"sync"
	"time"
)

// testTimer is a timer fired by the test.
type testTimer struct {
	ch      chan time.Time
	stopped bool
	mu      sync.Mutex
}

func newTestTimer() *testTimer {
	return &testTimer{ch: make(chan time.Time, 1)}
}

func (t *testTimer) C() <-chan time.Time { return t.ch }

func (t *testTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	was := !t.stopped
	t.stopped = true

	return was
}

func (t *testTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stopped
}

func (t *testTimer) fire() { t.ch <- time.Now() }

// immediateClock records requested durations and fires every timer at once.
type immediateClock struct {
	mu        sync.Mutex
	durations []time.Duration
}

func (c *immediateClock) Now() time.Time                  { return time.Now() }
func (c *immediateClock) Since(t time.Time) time.Duration { return time.Since(t) }

func (c *immediateClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	c.durations = append(c.durations, d)
	c.mu.Unlock()

	t := newTestTimer()
	t.fire()

	return t
}

func (c *immediateClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]time.Duration, len(c.durations))
	copy(out, c.durations)

	return out
}

// manualClock hands out timers that only fire when the test says so.
type manualClock struct {
	created chan *testTimer
}

func newManualClock() *manualClock {
	return &manualClock{created: make(chan *testTimer, 16)}
}

func (c *manualClock) Now() time.Time                  { return time.Now() }
func (c *manualClock) Since(t time.Time) time.Duration { return time.Since(t) }

func (c *manualClock) NewTimer(time.Duration) Timer {
	t := newTestTimer()
	c.created <- t

	return t
}

// next waits for the next timer created by the code under test.
func (c *manualClock) next() *testTimer {
	select {
	case t := <-c.created:
		return t
	case <-time.After(time.Second):
		panic("no timer created within 1s")
	}
}

// fixedClock reports a constant time and never fires timers.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time                  { return c.now }
func (c fixedClock) Since(t time.Time) time.Duration { return c.now.Sub(t) }
func (c fixedClock) NewTimer(time.Duration) Timer    { return newTestTimer() }
