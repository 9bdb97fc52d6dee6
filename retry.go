package bastion

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Retry re-invokes an operation while its outcome matches the configured
// fault kinds or result predicates, up to a bound, optionally pausing
// between attempts.
//
// Build it with [NewRetry] and the fluent methods; the configuration must not
// change once the first execution has started. A Retry with no fault kinds
// and no result predicates never retries.
//
// Pattern: Retry. Attempts are sequential: attempt N+1 never starts before
// attempt N is classified.
type Retry[T any] struct {
	classifier[*RetryContext[T]]

	clock       Clock
	backoff     BackoffStrategy
	hooks       *Hooks
	logger      *slog.Logger
	onRetry     func(*RetryContext[T])
	name        string
	maxAttempts uint
}

// NewRetry returns a retry policy allowing one retry and no pause.
func NewRetry[T any]() *Retry[T] {
	return &Retry[T]{name: "retry", maxAttempts: 1}
}

// Name returns the policy name.
func (r *Retry[T]) Name() string { return r.name }

// MaxAttempts returns the retry bound.
func (r *Retry[T]) MaxAttempts() uint { return r.maxAttempts }

// Named sets the name reported in contexts, hooks and logs.
func (r *Retry[T]) Named(name string) *Retry[T] {
	r.name = name
	return r
}

// Handle adds fault kinds that trigger a retry.
func (r *Retry[T]) Handle(kinds ...FaultKind) *Retry[T] {
	r.kinds = append(r.kinds, kinds...)
	return r
}

// Or is an alias of Handle that reads better in chains.
func (r *Retry[T]) Or(kinds ...FaultKind) *Retry[T] { return r.Handle(kinds...) }

// HandleInner adds kinds matched against the fault's wrapped cause.
func (r *Retry[T]) HandleInner(kinds ...FaultKind) *Retry[T] {
	r.innerKinds = append(r.innerKinds, kinds...)
	return r
}

// OrInner is an alias of HandleInner.
func (r *Retry[T]) OrInner(kinds ...FaultKind) *Retry[T] { return r.HandleInner(kinds...) }

// HandleResult adds a predicate evaluated against each attempt's context,
// with or without a fault. When result predicates exist, a handled fault
// kind retries only if one of them also holds.
func (r *Retry[T]) HandleResult(pred func(*RetryContext[T]) bool) *Retry[T] {
	r.results = append(r.results, pred)
	return r
}

// OrResult is an alias of HandleResult.
func (r *Retry[T]) OrResult(pred func(*RetryContext[T]) bool) *Retry[T] {
	return r.HandleResult(pred)
}

// Attempts sets the maximum number of retries. The operation runs at most
// n+1 times; 0 disables retrying.
func (r *Retry[T]) Attempts(n uint) *Retry[T] {
	r.maxAttempts = n
	return r
}

// Forever sets the bound to the largest representable value.
func (r *Retry[T]) Forever() *Retry[T] {
	r.maxAttempts = math.MaxUint
	return r
}

// WaitAndRetry pauses before each retry, cycling through ds. An empty ds
// removes any pause.
func (r *Retry[T]) WaitAndRetry(ds ...time.Duration) *Retry[T] {
	r.backoff = Intervals(ds...)
	return r
}

// WaitAndRetryBackoff pauses before each retry according to strategy.
func (r *Retry[T]) WaitAndRetryBackoff(strategy BackoffStrategy) *Retry[T] {
	r.backoff = strategy
	return r
}

// OnRetry sets a callback invoked synchronously before each retry, after
// AttemptCount has been incremented and before the pause.
func (r *Retry[T]) OnRetry(fn func(*RetryContext[T])) *Retry[T] {
	r.onRetry = fn
	return r
}

// WithClock sets the clock used for pauses and fault timestamps.
func (r *Retry[T]) WithClock(c Clock) *Retry[T] {
	r.clock = c
	return r
}

// WithHooks installs lifecycle hooks.
func (r *Retry[T]) WithHooks(h *Hooks) *Retry[T] {
	r.hooks = h
	return r
}

// WithLogger sets the logger; slog.Default is used otherwise.
func (r *Retry[T]) WithLogger(l *slog.Logger) *Retry[T] {
	r.logger = l
	return r
}

// ExecuteContext runs op and retries it while the outcome is handled and the
// bound is not exhausted. The last result is returned, or the last fault is
// re-raised unchanged. A cancellation fault ends the loop immediately, and a
// retry is never started once ctx is done: ctx.Err() is returned instead.
//
//nolint:ireturn // generic type parameter T, not an interface
func (r *Retry[T]) ExecuteContext(ctx context.Context, op Operation[T]) (T, error) {
	clock := clockOrDefault(r.clock)
	rc := &RetryContext[T]{Context: Context[T]{PolicyName: r.name}}

	for {
		result, err := op(ctx)
		rc.capture(clock, result, err)

		if IsCancellation(err) {
			return result, err
		}

		if !r.shouldRetry(rc) {
			return result, err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			var zero T
			return zero, ctxErr //nolint:wrapcheck // preserving context error identity
		}

		delay := r.delay(rc.AttemptCount)
		rc.AttemptCount++

		if r.onRetry != nil {
			r.onRetry(rc)
		}

		r.hooks.emitRetry(r.name, rc.AttemptCount, err)
		debug(ctx, r.logger, "retrying operation", r.name,
			slog.Uint64("attempt", uint64(rc.AttemptCount)),
			slog.Duration("delay", delay),
			errAttr(err),
		)

		if sleepErr := sleep(ctx, clock, delay); sleepErr != nil {
			var zero T
			return zero, sleepErr
		}
	}
}

func (r *Retry[T]) shouldRetry(rc *RetryContext[T]) bool {
	if r.maxAttempts == 0 || rc.AttemptCount >= r.maxAttempts {
		return false
	}

	return r.handles(rc.Err, rc)
}

func (r *Retry[T]) delay(performed uint) time.Duration {
	if r.backoff == nil {
		return 0
	}

	return r.backoff.Delay(performed)
}
