package bastion

import "time"

type (
	// Context is the per-execution record passed to predicates and
	// callbacks. It is created fresh for every call and must not be retained
	// after the callback returns.
	Context[T any] struct {
		// FaultedAt is when Err was observed; zero when Err is nil.
		FaultedAt  time.Time
		Err        error
		Result     T
		PolicyName string
	}

	// RetryContext is the execution record of a [Retry] policy.
	RetryContext[T any] struct {
		Context[T]

		// AttemptCount is the number of retries performed so far. It starts
		// at 0 and is incremented just before each retry.
		AttemptCount uint
	}

	// TimeoutContext is passed to the [Timeout] callback.
	TimeoutContext struct {
		PolicyName string
	}

	// FallbackContext is the execution record of a [Fallback] policy.
	FallbackContext[T any] struct {
		Context[T]
	}

	// CompositeContext identifies the stage of a [Composite] pipeline that
	// produced the terminal fault.
	CompositeContext[T any] struct {
		// Policy is the innermost stage whose execution returned Err.
		Policy     Policy[T]
		Err        error
		PolicyName string
	}
)

// capture stores an operation outcome in c, stamping the fault time.
func (c *Context[T]) capture(clock Clock, result T, err error) {
	c.Result = result
	c.Err = err

	if err != nil {
		c.FaultedAt = clock.Now()
	} else {
		c.FaultedAt = time.Time{}
	}
}
