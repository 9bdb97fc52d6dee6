package bastion

import "context"

type (
	// Operation is the deferred unit of work wrapped by a policy. It must
	// observe ctx to stop promptly when a timeout or the caller cancels.
	Operation[T any] func(ctx context.Context) (T, error)

	// Policy is the capability shared by every resilience policy.
	//
	// Pattern: Decorator; each policy wraps an operation (or another
	// policy's execution) and decides whether to return, retry, substitute
	// or re-raise its outcome.
	Policy[T any] interface {
		// Name returns the policy's name, used in contexts, hooks and logs.
		Name() string
		// ExecuteContext runs op under the policy's rule. ctx is threaded
		// down to op unchanged or as a derived child.
		ExecuteContext(ctx context.Context, op Operation[T]) (T, error)
	}

	// Outcome is the settled result of an asynchronous execution.
	Outcome[T any] struct {
		Value T
		Err   error
	}
)

// Execute runs fn through p synchronously. It is ExecuteContext driven to
// completion with a background context, so fn cannot be cancelled.
//
//nolint:ireturn // generic type parameter T, not an interface
func Execute[T any](p Policy[T], fn func() (T, error)) (T, error) {
	return p.ExecuteContext(
		context.Background(),
		func(context.Context) (T, error) { return fn() },
	)
}

// ExecuteAsync starts op through p on a new goroutine and returns a channel
// that receives exactly one [Outcome]. The channel is buffered, so the
// goroutine never leaks when the caller stops listening.
func ExecuteAsync[T any](
	ctx context.Context,
	p Policy[T],
	op Operation[T],
) <-chan Outcome[T] {
	ch := make(chan Outcome[T], 1)

	go func() {
		v, err := p.ExecuteContext(ctx, op)
		ch <- Outcome[T]{Value: v, Err: err}
	}()

	return ch
}
