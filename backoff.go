package bastion

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy determines the pause before a retry.
//
// Pattern: Strategy; swap interval schedules without changing the retry
// loop.
type BackoffStrategy interface {
	// Delay returns the pause before a retry. n is the number of retries
	// already performed, so the pause before the first retry is Delay(0).
	Delay(n uint) time.Duration
}

// BackoffFunc adapts a plain function into a [BackoffStrategy].
type BackoffFunc func(n uint) time.Duration

// Delay calls f.
func (f BackoffFunc) Delay(n uint) time.Duration { return f(n) }

// intervals cycles through a fixed list of pauses.
type intervals []time.Duration

func (iv intervals) Delay(n uint) time.Duration {
	return iv[n%uint(len(iv))]
}

// Intervals returns a strategy cycling through ds: the pause before retry
// n+1 is ds[n mod len(ds)]. It returns nil when ds is empty, which disables
// pausing.
func Intervals(ds ...time.Duration) BackoffStrategy {
	if len(ds) == 0 {
		return nil
	}

	cp := make(intervals, len(ds))
	copy(cp, ds)

	return cp
}

type constantBackoff struct {
	d time.Duration
}

func (b constantBackoff) Delay(uint) time.Duration { return b.d }

// ConstantBackoff pauses d before every retry.
func ConstantBackoff(d time.Duration) BackoffStrategy {
	return constantBackoff{d: d}
}

type linearBackoff struct {
	step time.Duration
}

func (b linearBackoff) Delay(n uint) time.Duration {
	return b.step * time.Duration(n+1)
}

// LinearBackoff pauses step * (n + 1).
func LinearBackoff(step time.Duration) BackoffStrategy {
	return linearBackoff{step: step}
}

type exponentialBackoff struct {
	base time.Duration
}

func (b exponentialBackoff) Delay(n uint) time.Duration {
	return saturate(float64(b.base) * math.Pow(2, float64(n)))
}

// ExponentialBackoff pauses base * 2^n.
func ExponentialBackoff(base time.Duration) BackoffStrategy {
	return exponentialBackoff{base: base}
}

type exponentialJitterBackoff struct {
	base time.Duration
}

func (b exponentialJitterBackoff) Delay(n uint) time.Duration {
	upper := saturate(float64(b.base) * math.Pow(2, float64(n)))
	if upper <= 0 {
		return 0
	}

	// Int64N excludes its bound; at saturation MaxInt64 itself is dropped.
	if upper == math.MaxInt64 {
		return time.Duration(rand.Int64N(math.MaxInt64)) //nolint:gosec // jitter
	}

	return time.Duration(rand.Int64N(int64(upper) + 1)) //nolint:gosec // jitter
}

// ExponentialJitterBackoff pauses a uniformly random duration in
// [0, base * 2^n], spreading retries of concurrent callers.
func ExponentialJitterBackoff(base time.Duration) BackoffStrategy {
	return exponentialJitterBackoff{base: base}
}

type cappedBackoff struct {
	inner BackoffStrategy
	max   time.Duration
}

func (b cappedBackoff) Delay(n uint) time.Duration {
	return min(b.inner.Delay(n), b.max)
}

// CappedBackoff limits every pause of inner to maxDelay.
func CappedBackoff(inner BackoffStrategy, maxDelay time.Duration) BackoffStrategy {
	return cappedBackoff{inner: inner, max: maxDelay}
}

// saturate converts f to a Duration, clamping values that overflow int64.
func saturate(f float64) time.Duration {
	if f >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(f)
}
