package bastion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"testing"
)

type codeError struct {
	code int
}

func (e *codeError) Error() string { return fmt.Sprintf("code %d", e.code) }

func TestFaultOfMatchesDynamicTypeOnly(t *testing.T) {
	kind := FaultOf[*codeError]()

	if !kind.Matches(&codeError{code: 1}) {
		t.Fatal("Matches(*codeError) = false, want true")
	}

	wrapped := fmt.Errorf("call: %w", &codeError{code: 1})
	if kind.Matches(wrapped) {
		t.Fatal("Matches(wrapped *codeError) = true, want false")
	}

	if kind.Matches(nil) {
		t.Fatal("Matches(nil) = true, want false")
	}
}

func TestFaultOfPredicates(t *testing.T) {
	kind := FaultOf(func(e *codeError) bool { return e.code >= 500 })

	if !kind.Matches(&codeError{code: 503}) {
		t.Fatal("Matches(503) = false, want true")
	}

	if kind.Matches(&codeError{code: 404}) {
		t.Fatal("Matches(404) = true, want false")
	}
}

func TestFaultOfInterfaceKind(t *testing.T) {
	kind := FaultOf[interface {
		error
		Timeout() bool
	}]()

	if !kind.Matches(os.ErrDeadlineExceeded) {
		t.Fatal("Matches(os.ErrDeadlineExceeded) = false, want true")
	}

	if kind.Matches(io.EOF) {
		t.Fatal("Matches(io.EOF) = true, want false")
	}
}

func TestFaultIsFollowsChain(t *testing.T) {
	kind := FaultIs(io.ErrUnexpectedEOF)

	if !kind.Matches(fmt.Errorf("read: %w", io.ErrUnexpectedEOF)) {
		t.Fatal("Matches(wrapped sentinel) = false, want true")
	}

	if !FaultIs(ErrTimeout).Matches(&TimeoutError{}) {
		t.Fatal("FaultIs(ErrTimeout) does not match *TimeoutError")
	}
}

func TestFaultKindString(t *testing.T) {
	if got := FaultOf[*fs.PathError]().String(); got != "*fs.PathError" {
		t.Fatalf("String() = %q, want %q", got, "*fs.PathError")
	}

	if got := TransientFaults().String(); got != "transient" {
		t.Fatalf("String() = %q, want %q", got, "transient")
	}
}

func TestInnerCauses(t *testing.T) {
	cause := &codeError{code: 1}

	if got := innerCauses(fmt.Errorf("x: %w", cause)); len(got) != 1 || got[0] != cause {
		t.Fatalf("innerCauses(single) = %v, want [%v]", got, cause)
	}

	joined := errors.Join(io.EOF, cause)
	if got := innerCauses(joined); len(got) != 2 {
		t.Fatalf("innerCauses(joined) = %v, want 2 causes", got)
	}

	if got := innerCauses(io.EOF); got != nil {
		t.Fatalf("innerCauses(leaf) = %v, want nil", got)
	}
}

func TestClassifierKindsOnly(t *testing.T) {
	c := classifier[*Context[int]]{kinds: []FaultKind{FaultOf[*codeError]()}}

	if !c.handles(&codeError{}, &Context[int]{}) {
		t.Fatal("handles(handled kind) = false, want true")
	}

	if c.handles(io.EOF, &Context[int]{}) {
		t.Fatal("handles(unhandled kind) = true, want false")
	}

	if c.handles(nil, &Context[int]{}) {
		t.Fatal("handles(nil) = true, want false")
	}
}

func TestClassifierInnerKinds(t *testing.T) {
	c := classifier[*Context[int]]{innerKinds: []FaultKind{FaultOf[*codeError]()}}

	if !c.handles(fmt.Errorf("x: %w", &codeError{}), &Context[int]{}) {
		t.Fatal("handles(wrapped inner kind) = false, want true")
	}

	if c.handles(&codeError{}, &Context[int]{}) {
		t.Fatal("handles(bare inner kind) = true, want false")
	}
}

// A handled kind is only caught when one of the configured result predicates
// also holds; a holding predicate alone is enough.
func TestClassifierKindAndResultCombination(t *testing.T) {
	c := classifier[*Context[int]]{
		kinds:   []FaultKind{FaultOf[*codeError]()},
		results: []func(*Context[int]) bool{func(c *Context[int]) bool { return c.Result < 0 }},
	}

	tests := []struct {
		name   string
		err    error
		result int
		want   bool
	}{
		{"kind without predicate", &codeError{}, 1, false},
		{"kind with predicate", &codeError{}, -1, true},
		{"predicate without fault", nil, -1, true},
		{"predicate with unhandled fault", io.EOF, -1, true},
		{"neither", io.EOF, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &Context[int]{Result: tt.result, Err: tt.err}
			if got := c.handles(tt.err, ctx); got != tt.want {
				t.Fatalf("handles() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCancellationIsNotAKind(t *testing.T) {
	if !IsCancellation(fmt.Errorf("op: %w", context.Canceled)) {
		t.Fatal("IsCancellation(wrapped Canceled) = false, want true")
	}

	if !IsCancellation(context.DeadlineExceeded) {
		t.Fatal("IsCancellation(DeadlineExceeded) = false, want true")
	}

	if IsCancellation(&TimeoutError{}) {
		t.Fatal("IsCancellation(deadline timeout) = true, want false")
	}

	if !IsCancellation(&TimeoutError{Cause: context.Canceled}) {
		t.Fatal("IsCancellation(caller-cancelled timeout) = false, want true")
	}
}
