package bastion

import "context"

// Do runs op through an anonymous composite of policies, first = outermost.
//
//nolint:ireturn // generic type parameter T, not an interface
func Do[T any](ctx context.Context, op Operation[T], policies ...Policy[T]) (T, error) {
	return Join(policies...).ExecuteContext(ctx, op)
}
