package bastion

import (
	"context"
	"log/slog"
)

// Fallback substitutes a computed result when an operation's outcome matches
// the configured fault kinds or result predicates. Unhandled outcomes are
// returned unchanged. A Fallback with no fault kinds and no result predicates
// never substitutes.
//
// Pattern: Fallback; substitutes a degraded result for a handled fault.
type Fallback[T any] struct {
	classifier[*FallbackContext[T]]

	clock      Clock
	hooks      *Hooks
	logger     *slog.Logger
	onFallback func(*FallbackContext[T]) (T, error)
	name       string
}

// NewFallback returns a fallback policy with no handled outcomes.
func NewFallback[T any]() *Fallback[T] {
	return &Fallback[T]{name: "fallback"}
}

// Name returns the policy name.
func (f *Fallback[T]) Name() string { return f.name }

// Named sets the name reported in contexts, hooks and logs.
func (f *Fallback[T]) Named(name string) *Fallback[T] {
	f.name = name
	return f
}

// Handle adds fault kinds that trigger the fallback.
func (f *Fallback[T]) Handle(kinds ...FaultKind) *Fallback[T] {
	f.kinds = append(f.kinds, kinds...)
	return f
}

// Or is an alias of Handle.
func (f *Fallback[T]) Or(kinds ...FaultKind) *Fallback[T] { return f.Handle(kinds...) }

// HandleInner adds kinds matched against the fault's wrapped cause.
func (f *Fallback[T]) HandleInner(kinds ...FaultKind) *Fallback[T] {
	f.innerKinds = append(f.innerKinds, kinds...)
	return f
}

// OrInner is an alias of HandleInner.
func (f *Fallback[T]) OrInner(kinds ...FaultKind) *Fallback[T] {
	return f.HandleInner(kinds...)
}

// HandleResult adds a predicate evaluated against the outcome, with or
// without a fault. When result predicates exist, a handled fault kind
// triggers the fallback only if one of them also holds.
func (f *Fallback[T]) HandleResult(pred func(*FallbackContext[T]) bool) *Fallback[T] {
	f.results = append(f.results, pred)
	return f
}

// OrResult is an alias of HandleResult.
func (f *Fallback[T]) OrResult(pred func(*FallbackContext[T]) bool) *Fallback[T] {
	return f.HandleResult(pred)
}

// OnFallback sets the function computing the substitute. Its result and
// error become the outcome of the execution. Without it the substitute is
// the zero value of T.
func (f *Fallback[T]) OnFallback(fn func(*FallbackContext[T]) (T, error)) *Fallback[T] {
	f.onFallback = fn
	return f
}

// WithClock sets the clock used for fault timestamps.
func (f *Fallback[T]) WithClock(c Clock) *Fallback[T] {
	f.clock = c
	return f
}

// WithHooks installs lifecycle hooks.
func (f *Fallback[T]) WithHooks(h *Hooks) *Fallback[T] {
	f.hooks = h
	return f
}

// WithLogger sets the logger; slog.Default is used otherwise.
func (f *Fallback[T]) WithLogger(l *slog.Logger) *Fallback[T] {
	f.logger = l
	return f
}

// ExecuteContext runs op once and substitutes its outcome when handled.
// Cancellation faults are returned unchanged without evaluation.
//
//nolint:ireturn // generic type parameter T, not an interface
func (f *Fallback[T]) ExecuteContext(ctx context.Context, op Operation[T]) (T, error) {
	result, err := op(ctx)
	if IsCancellation(err) {
		return result, err
	}

	fc := &FallbackContext[T]{Context: Context[T]{PolicyName: f.name}}
	fc.capture(clockOrDefault(f.clock), result, err)

	if !f.handles(err, fc) {
		return result, err
	}

	notice(ctx, f.logger, "falling back", f.name, errAttr(err))
	f.hooks.emitFallback(f.name, err)

	if f.onFallback == nil {
		var zero T
		return zero, nil
	}

	return f.onFallback(fc)
}
