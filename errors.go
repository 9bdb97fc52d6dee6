package bastion

import (
	"context"
	"errors"
	"time"
)

type (
	// ResilienceError identifies errors produced by the policies themselves,
	// as opposed to faults raised by the wrapped operation.
	ResilienceError interface {
		error
		IsResilience() bool
	}

	// TimeoutError is the fault raised by a [Timeout] policy. It matches
	// [ErrTimeout] with errors.Is. When the caller's context was cancelled
	// before the deadline, Cause holds that context error and the fault also
	// matches context.Canceled (or context.DeadlineExceeded).
	TimeoutError struct {
		Cause    error
		Policy   string
		Deadline time.Duration
	}

	transientError struct {
		err error
	}

	permanentError struct {
		err error
	}

	resilienceError string
)

var (
	// ErrTimeout is matched by every fault raised by a [Timeout] policy.
	ErrTimeout error = resilienceError("timeout")
	// ErrNoCachedValue is returned by [LastKnownGood] when no value was
	// recorded for the key.
	ErrNoCachedValue error = resilienceError("no cached value")
)

func (e resilienceError) Error() string { return string(e) }

// IsResilience reports true for every error produced by the policies.
func (resilienceError) IsResilience() bool { return true }

func (e *TimeoutError) Error() string {
	msg := "timeout"
	if e.Policy != "" {
		msg = e.Policy + ": " + msg
	}

	msg += " after " + e.Deadline.String()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Is reports whether target is [ErrTimeout].
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Unwrap returns the caller's context error, if any.
func (e *TimeoutError) Unwrap() error { return e.Cause }

// IsResilience reports true.
func (*TimeoutError) IsResilience() bool { return true }

func (e *transientError) Error() string { return "transient: " + e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func (e *permanentError) Error() string { return "permanent: " + e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Transient marks err as transient so that [TransientFaults] matches it.
// Returns nil if err is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}

	return &transientError{err: err}
}

// Permanent marks err as permanent. A permanent fault is never matched by
// [TransientFaults], even when it wraps a transient one.
// Returns nil if err is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return &permanentError{err: err}
}

// IsTransient reports whether err was marked with [Transient] and not
// overridden by [Permanent] further out.
func IsTransient(err error) bool {
	if err == nil || IsPermanent(err) {
		return false
	}

	var te *transientError

	return errors.As(err, &te)
}

// IsPermanent reports whether err was marked with [Permanent].
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}

	var pe *permanentError

	return errors.As(err, &pe)
}

// IsCancellation reports whether err is, or wraps, a context cancellation.
// Cancellation faults bypass retry, fallback and composite attribution.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
