package bastion

import "time"

// TransientRetry retries faults marked with [Transient] three times, pausing
// 100ms, 200ms then 400ms.
func TransientRetry[T any]() *Retry[T] {
	return NewRetry[T]().
		Named("transient_retry").
		Handle(TransientFaults()).
		Attempts(3).
		WaitAndRetryBackoff(ExponentialBackoff(100 * time.Millisecond))
}

// StandardCall bounds each attempt by deadline and retries transient faults
// and timeouts with [TransientRetry]'s schedule.
func StandardCall[T any](deadline time.Duration) *Composite[T] {
	return Join[T](
		TransientRetry[T]().Or(FaultIs(ErrTimeout)),
		NewTimeout[T](deadline).Named("attempt_timeout"),
	).Named("standard_call")
}
