// Package bastion provides composable resilience policies for Go applications.
//
// A [Policy] executes an [Operation] and applies one fault-tolerance rule
// around it. Four variants exist: [Retry] re-invokes the operation while its
// outcome matches configured fault kinds or result predicates, [Timeout]
// races it against a deadline, [Fallback] substitutes a computed result, and
// [Composite] nests an ordered list of policies into a single pipeline and
// attributes terminal faults to the stage that produced them.
//
// Policies are configured once through fluent builders and may then be shared
// by any number of concurrent executions; per-call state lives in a fresh
// execution context ([RetryContext], [FallbackContext], ...).
//
//	pipeline := bastion.Join[string](
//		bastion.NewFallback[string]().
//			Handle(bastion.FaultIs(bastion.ErrTimeout)).
//			OnFallback(func(*bastion.FallbackContext[string]) (string, error) {
//				return "cached", nil
//			}),
//		bastion.NewRetry[string]().
//			Handle(bastion.FaultIs(bastion.ErrTimeout)).
//			Attempts(3).
//			WaitAndRetry(50*time.Millisecond, 100*time.Millisecond),
//		bastion.NewTimeout[string](time.Second),
//	)
//
//	val, err := pipeline.ExecuteContext(ctx, fetch)
package bastion
