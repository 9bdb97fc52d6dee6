package bastion

import (
	"context"
	"fmt"
	"time"
)

// LastKnownGood remembers the last successful result of an operation per key
// and serves it as a [Fallback] substitute.
//
//	lkg := bastion.NewLastKnownGood[string, Quote](cache, time.Hour)
//	fb := bastion.NewFallback[Quote]().
//		Handle(bastion.FaultIs(bastion.ErrTimeout)).
//		OnFallback(lkg.Serve(symbol))
//	quote, err := fb.ExecuteContext(ctx, lkg.Record(symbol, fetchQuote))
type LastKnownGood[K comparable, T any] struct {
	cache    Cache[K, T]
	onServed func(key K)
	ttl      time.Duration
}

// NewLastKnownGood stores results in cache for ttl.
func NewLastKnownGood[K comparable, T any](cache Cache[K, T], ttl time.Duration) *LastKnownGood[K, T] {
	return &LastKnownGood[K, T]{cache: cache, ttl: ttl}
}

// OnServed sets a callback invoked when a stored value is substituted.
func (l *LastKnownGood[K, T]) OnServed(fn func(key K)) *LastKnownGood[K, T] {
	l.onServed = fn
	return l
}

// Record wraps op so that each successful result is stored under key.
func (l *LastKnownGood[K, T]) Record(key K, op Operation[T]) Operation[T] {
	return func(ctx context.Context) (T, error) {
		result, err := op(ctx)
		if err == nil {
			l.cache.Set(key, result, l.ttl)
		}

		return result, err
	}
}

// Serve returns an OnFallback function substituting the value stored under
// key. Without a stored value the fallback fails with [ErrNoCachedValue],
// wrapping the original fault when there is one.
func (l *LastKnownGood[K, T]) Serve(key K) func(*FallbackContext[T]) (T, error) {
	return func(fc *FallbackContext[T]) (T, error) {
		if v, ok := l.cache.Get(key); ok {
			if l.onServed != nil {
				l.onServed(key)
			}

			return v, nil
		}

		var zero T
		if fc.Err == nil {
			return zero, ErrNoCachedValue
		}

		return zero, fmt.Errorf("%w: %w", ErrNoCachedValue, fc.Err)
	}
}

// Forget drops the value stored under key.
func (l *LastKnownGood[K, T]) Forget(key K) {
	l.cache.Delete(key)
}
