package bastion

import (
	"context"
	"time"
)

// Clock is the time source of the policies. [RealClock] is used unless a
// builder's WithClock installs another one; tests substitute fakes to control
// retry intervals and deadlines.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	NewTimer(d time.Duration) Timer
}

// Timer is the subset of [time.Timer] the policies rely on.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// RealClock is a [Clock] backed by the time package. The zero value is ready
// to use and holds no state.
type RealClock struct{}

// Now returns [time.Now].
func (RealClock) Now() time.Time { return time.Now() }

// Since returns [time.Since].
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// NewTimer starts a [time.Timer] firing after d.
func (RealClock) NewTimer(d time.Duration) Timer {
	return realTimer{inner: time.NewTimer(d)}
}

type realTimer struct {
	inner *time.Timer
}

func (t realTimer) C() <-chan time.Time { return t.inner.C }
func (t realTimer) Stop() bool          { return t.inner.Stop() }

// sleep suspends for d on clock, returning ctx.Err() if ctx is done first.
// A non-positive d returns immediately without creating a timer.
func sleep(ctx context.Context, clock Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := clock.NewTimer(d)
	select {
	case <-timer.C():
		return nil
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err() //nolint:wrapcheck // preserving context error identity
	}
}

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return RealClock{}
	}

	return c
}
