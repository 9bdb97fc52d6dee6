package bastion

import (
	"context"
	"log/slog"
	"time"
)

// Timeout races an operation against a deadline.
//
// The operation runs on its own goroutine with a context derived from the
// caller's. When the deadline fires first, that context is cancelled and a
// [*TimeoutError] is returned at once; an operation ignoring its context keeps
// running detached and its late outcome is discarded.
//
// Pattern: Timeout; bounds the caller's wait with a cooperative
// cancellation of the abandoned work.
type Timeout[T any] struct {
	clock     Clock
	hooks     *Hooks
	logger    *slog.Logger
	onTimeout func(*TimeoutContext)
	name      string
	deadline  time.Duration
}

// NewTimeout returns a policy failing operations that run longer than d.
// A non-positive d disables the deadline.
func NewTimeout[T any](d time.Duration) *Timeout[T] {
	return &Timeout[T]{name: "timeout", deadline: d}
}

// Name returns the policy name.
func (t *Timeout[T]) Name() string { return t.name }

// Deadline returns the configured deadline.
func (t *Timeout[T]) Deadline() time.Duration { return t.deadline }

// Named sets the name reported in contexts, hooks and logs.
func (t *Timeout[T]) Named(name string) *Timeout[T] {
	t.name = name
	return t
}

// OnTimeout sets a callback invoked synchronously when the policy fails an
// operation.
func (t *Timeout[T]) OnTimeout(fn func(*TimeoutContext)) *Timeout[T] {
	t.onTimeout = fn
	return t
}

// WithClock sets the clock driving the deadline timer.
func (t *Timeout[T]) WithClock(c Clock) *Timeout[T] {
	t.clock = c
	return t
}

// WithHooks installs lifecycle hooks.
func (t *Timeout[T]) WithHooks(h *Hooks) *Timeout[T] {
	t.hooks = h
	return t
}

// WithLogger sets the logger; slog.Default is used otherwise.
func (t *Timeout[T]) WithLogger(l *slog.Logger) *Timeout[T] {
	t.logger = l
	return t
}

// ExecuteContext runs op and waits for whichever settles first: op, the
// deadline or ctx. The outcome of op is returned unchanged when it wins.
// Otherwise the fault is a [*TimeoutError]; when ctx ended the race, the
// error also wraps ctx.Err() so that it keeps its cancellation identity.
//
//nolint:ireturn // generic type parameter T, not an interface
func (t *Timeout[T]) ExecuteContext(ctx context.Context, op Operation[T]) (T, error) {
	if t.deadline <= 0 {
		return op(ctx)
	}

	clock := clockOrDefault(t.clock)
	start := clock.Now()

	if err := ctx.Err(); err != nil {
		return t.expire(ctx, err, 0)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan Outcome[T], 1)

	go func() {
		v, err := op(runCtx)
		done <- Outcome[T]{Value: v, Err: err}
	}()

	timer := clock.NewTimer(t.deadline)

	select {
	case o := <-done:
		timer.Stop()
		return o.Value, o.Err
	case <-timer.C():
		cancel()
		return t.expire(ctx, nil, clock.Since(start))
	case <-ctx.Done():
		timer.Stop()
		cancel()

		return t.expire(ctx, ctx.Err(), clock.Since(start))
	}
}

//nolint:ireturn // generic type parameter T, not an interface
func (t *Timeout[T]) expire(ctx context.Context, cause error, elapsed time.Duration) (T, error) {
	if t.onTimeout != nil {
		t.onTimeout(&TimeoutContext{PolicyName: t.name})
	}

	t.hooks.emitTimeout(t.name)
	notice(ctx, t.logger, "operation timed out", t.name,
		slog.Duration("deadline", t.deadline),
		slog.Duration("elapsed", elapsed),
		errAttr(cause),
	)

	var zero T

	return zero, &TimeoutError{Policy: t.name, Deadline: t.deadline, Cause: cause}
}
