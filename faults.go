package bastion

import (
	"errors"
	"reflect"
)

// FaultKind matches faults raised by an operation. Build one with [FaultOf],
// [FaultIs] or [TransientFaults].
type FaultKind struct {
	match func(err error) bool
	name  string
}

// String returns a readable description of the kind, e.g. "*net.OpError".
func (k FaultKind) String() string { return k.name }

// Matches reports whether err itself (not its wrapped causes) is of kind k.
func (k FaultKind) Matches(err error) bool {
	if err == nil || k.match == nil {
		return false
	}

	return k.match(err)
}

// FaultOf returns a kind matching faults whose dynamic type is E, or which
// implement E when E is an interface. Wrapped causes are not inspected; use
// HandleInner for those. Every predicate must hold for the fault to match.
func FaultOf[E error](preds ...func(E) bool) FaultKind {
	return FaultKind{
		name: reflect.TypeFor[E]().String(),
		match: func(err error) bool {
			e, ok := err.(E) //nolint:errorlint // kind match is on the fault itself
			if !ok {
				return false
			}

			for _, pred := range preds {
				if !pred(e) {
					return false
				}
			}

			return true
		},
	}
}

// FaultIs returns a kind matching faults for which errors.Is(fault, target)
// holds. Sentinel values such as [ErrTimeout] or io.ErrUnexpectedEOF are
// usually handled this way.
func FaultIs(target error) FaultKind {
	return FaultKind{
		name: "is(" + target.Error() + ")",
		match: func(err error) bool {
			return errors.Is(err, target)
		},
	}
}

// TransientFaults returns a kind matching faults marked with [Transient].
func TransientFaults() FaultKind {
	return FaultKind{name: "transient", match: IsTransient}
}

// innerCauses returns the faults directly wrapped by err.
func innerCauses(err error) []error {
	switch u := err.(type) { //nolint:errorlint // inspecting one wrapping level
	case interface{ Unwrap() error }:
		if inner := u.Unwrap(); inner != nil {
			return []error{inner}
		}
	case interface{ Unwrap() []error }:
		return u.Unwrap()
	}

	return nil
}

// classifier holds the fault-kind and result predicates shared by Retry and
// Fallback. C is the policy's execution context type.
type classifier[C any] struct {
	kinds      []FaultKind
	innerKinds []FaultKind
	results    []func(C) bool
}

func (c *classifier[C]) kindMatches(err error) bool {
	if err == nil {
		return false
	}

	for _, k := range c.kinds {
		if k.Matches(err) {
			return true
		}
	}

	for _, inner := range innerCauses(err) {
		for _, k := range c.innerKinds {
			if k.Matches(inner) {
				return true
			}
		}
	}

	return false
}

func (c *classifier[C]) resultMatches(ctx C) bool {
	for _, pred := range c.results {
		if pred(ctx) {
			return true
		}
	}

	return false
}

// handles reports whether the outcome recorded in ctx must be handled.
//
// A fault whose kind (or inner kind) is handled is caught only if, when
// result predicates exist, one of them also holds. Independently, any
// result predicate holding for ctx is enough, with or without a fault.
func (c *classifier[C]) handles(err error, ctx C) bool {
	if c.kindMatches(err) && (len(c.results) == 0 || c.resultMatches(ctx)) {
		return true
	}

	return c.resultMatches(ctx)
}
