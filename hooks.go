package bastion

// Hooks observes policy lifecycle events independently of the per-policy
// callbacks (OnRetry, OnTimeout, ...). It is meant for cross-cutting
// consumers such as metrics; see the promhooks package. All fields are
// optional. A Hooks value must not be mutated once installed on a policy.
//
// Pattern: Observer.
type Hooks struct {
	// OnRetry receives the policy name, the 1-based retry number and the
	// fault (nil for result-based retries).
	OnRetry func(policy string, attempt uint, err error)
	// OnTimeout receives the policy name when a deadline fires.
	OnTimeout func(policy string)
	// OnFallback receives the policy name and the fault that triggered the
	// substitution (nil for result-based fallbacks).
	OnFallback func(policy string, err error)
	// OnExecutionFailure receives the composite name, the name of the stage
	// the fault is attributed to, and the fault.
	OnExecutionFailure func(composite, stage string, err error)
}

func (h *Hooks) emitRetry(policy string, attempt uint, err error) {
	if h != nil && h.OnRetry != nil {
		h.OnRetry(policy, attempt, err)
	}
}

func (h *Hooks) emitTimeout(policy string) {
	if h != nil && h.OnTimeout != nil {
		h.OnTimeout(policy)
	}
}

func (h *Hooks) emitFallback(policy string, err error) {
	if h != nil && h.OnFallback != nil {
		h.OnFallback(policy, err)
	}
}

func (h *Hooks) emitExecutionFailure(composite, stage string, err error) {
	if h != nil && h.OnExecutionFailure != nil {
		h.OnExecutionFailure(composite, stage, err)
	}
}

// Merge returns hooks calling every non-nil hook of hs in order.
func Merge(hs ...*Hooks) *Hooks {
	return &Hooks{
		OnRetry: func(policy string, attempt uint, err error) {
			for _, h := range hs {
				h.emitRetry(policy, attempt, err)
			}
		},
		OnTimeout: func(policy string) {
			for _, h := range hs {
				h.emitTimeout(policy)
			}
		},
		OnFallback: func(policy string, err error) {
			for _, h := range hs {
				h.emitFallback(policy, err)
			}
		},
		OnExecutionFailure: func(composite, stage string, err error) {
			for _, h := range hs {
				h.emitExecutionFailure(composite, stage, err)
			}
		},
	}
}
