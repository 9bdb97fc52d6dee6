package bastion

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Composite nests an ordered list of policies into one pipeline. The first
// policy is the outermost: Join(a, b, c) executes a(b(c(op))). When the
// pipeline fails, the fault is attributed to the innermost stage whose
// execution produced it, reported through OnExecutionFailure, and re-raised
// unchanged.
//
// Pattern: Composite; a pipeline of policies is itself a [Policy], so
// pipelines nest arbitrarily.
type Composite[T any] struct {
	hooks              *Hooks
	logger             *slog.Logger
	onExecutionFailure func(*CompositeContext[T])
	name               string
	children           []Policy[T]
}

// Join builds a composite from policies, first = outermost. Nil policies are
// dropped. An empty composite invokes the operation directly.
func Join[T any](policies ...Policy[T]) *Composite[T] {
	children := make([]Policy[T], 0, len(policies))

	for _, p := range policies {
		if p != nil {
			children = append(children, p)
		}
	}

	return &Composite[T]{name: "composite", children: children}
}

// Name returns the policy name.
func (c *Composite[T]) Name() string { return c.name }

// Policies returns a copy of the stages, outermost first.
func (c *Composite[T]) Policies() []Policy[T] {
	out := make([]Policy[T], len(c.children))
	copy(out, c.children)

	return out
}

// Named sets the name reported in hooks and logs.
func (c *Composite[T]) Named(name string) *Composite[T] {
	c.name = name
	return c
}

// OnExecutionFailure sets a callback invoked synchronously when the
// pipeline ends with a fault other than a cancellation.
func (c *Composite[T]) OnExecutionFailure(fn func(*CompositeContext[T])) *Composite[T] {
	c.onExecutionFailure = fn
	return c
}

// WithHooks installs lifecycle hooks.
func (c *Composite[T]) WithHooks(h *Hooks) *Composite[T] {
	c.hooks = h
	return c
}

// WithLogger sets the logger; slog.Default is used otherwise.
func (c *Composite[T]) WithLogger(l *slog.Logger) *Composite[T] {
	c.logger = l
	return c
}

// attribution tracks the innermost stage that produced the current fault.
// Stages run on a timeout's goroutine, so access is locked.
type attribution[T any] struct {
	policy Policy[T]
	err    error
	mu     sync.Mutex
}

func (a *attribution[T]) record(p Policy[T], err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err != nil && errors.Is(err, a.err) {
		return
	}

	a.policy, a.err = p, err
}

func (a *attribution[T]) get() Policy[T] {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.policy
}

// ExecuteContext runs op through every stage. The result and fault of the
// outermost stage are returned unchanged.
//
//nolint:ireturn // generic type parameter T, not an interface
func (c *Composite[T]) ExecuteContext(ctx context.Context, op Operation[T]) (T, error) {
	att := &attribution[T]{}

	next := op
	for i := len(c.children) - 1; i >= 0; i-- {
		next = stage(c.children[i], next, att)
	}

	result, err := next(ctx)
	if err == nil || IsCancellation(err) {
		return result, err
	}

	failing := att.get()
	if failing == nil {
		return result, err
	}

	if c.onExecutionFailure != nil {
		c.onExecutionFailure(&CompositeContext[T]{
			Policy:     failing,
			PolicyName: failing.Name(),
			Err:        err,
		})
	}

	c.hooks.emitExecutionFailure(c.name, failing.Name(), err)
	debug(ctx, c.logger, "pipeline failed", c.name,
		slog.String("stage", failing.Name()),
		errAttr(err),
	)

	return result, err
}

// stage wraps next with p, recording p when it returns a new fault. A stage
// whose context is already done was abandoned by an outer timeout and is not
// recorded.
func stage[T any](p Policy[T], next Operation[T], att *attribution[T]) Operation[T] {
	return func(ctx context.Context) (T, error) {
		result, err := p.ExecuteContext(ctx, next)
		if err != nil && !IsCancellation(err) && ctx.Err() == nil {
			att.record(p, err)
		}

		return result, err
	}
}
