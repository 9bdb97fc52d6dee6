package bastion

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const (
	stageRetry   = "retry"
	stageTimeout = "timeout"
)

var errConfig = errors.New("invalid policy config")

type (
	configFile struct {
		Policies map[string]PolicyConfig `json:"policies" yaml:"policies"`
	}

	// PolicyConfig holds the file-configurable part of a pipeline. Fault
	// kinds, result predicates, fallbacks and callbacks are code-level
	// concerns; add them to the policies returned by [BuildRetry] or pass
	// them to [GetComposite].
	PolicyConfig struct {
		// Retry configures the retry stage. Optional.
		Retry *RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
		// Timeout is the deadline of the timeout stage. Optional. Parsed via
		// time.ParseDuration. Example: "2s".
		Timeout *string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
		// Order lists the configured stages outermost first. Optional;
		// defaults to ["retry", "timeout"] restricted to the stages present.
		Order []string `json:"order,omitempty" yaml:"order,omitempty"`
	}

	// RetryConfig holds retry settings.
	RetryConfig struct {
		// MaxAttempts is the number of retries. Defaults to 1.
		MaxAttempts *uint `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
		// Backoff names a strategy: "constant", "linear", "exponential" or
		// "exponential_jitter". Requires BaseDelay. Exclusive with Intervals.
		Backoff *string `json:"backoff,omitempty" yaml:"backoff,omitempty"`
		// BaseDelay is the strategy's base duration. Example: "100ms".
		BaseDelay *string `json:"base_delay,omitempty" yaml:"base_delay,omitempty"`
		// MaxDelay caps the strategy's pauses. Optional.
		MaxDelay *string `json:"max_delay,omitempty" yaml:"max_delay,omitempty"`
		// Intervals is a cyclic pause schedule. Example: ["10ms", "50ms"].
		Intervals []string `json:"intervals,omitempty" yaml:"intervals,omitempty"`
		// Forever overrides MaxAttempts with an unbounded retry.
		Forever bool `json:"forever,omitempty" yaml:"forever,omitempty"`
		// HandleTransient retries faults marked with [Transient].
		HandleTransient bool `json:"handle_transient,omitempty" yaml:"handle_transient,omitempty"`
		// HandleTimeout retries faults matching [ErrTimeout]. When unset, it
		// is enabled by [BuildComposite] if the timeout stage is nested
		// inside the retry stage.
		HandleTimeout *bool `json:"handle_timeout,omitempty" yaml:"handle_timeout,omitempty"`
	}
)

// LoadConfig reads a JSON file of named pipeline configurations into a new
// [Registry]. Every entry is validated before the registry is returned.
func LoadConfig(path string) (*Registry, error) {
	return loadConfig(path, json.Unmarshal)
}

// LoadYAMLConfig is [LoadConfig] for YAML files.
func LoadYAMLConfig(path string) (*Registry, error) {
	return loadConfig(path, yaml.Unmarshal)
}

func loadConfig(path string, unmarshal func([]byte, any) error) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bastion: read config: %w", err)
	}

	var file configFile
	if err = unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("bastion: parse config: %w", err)
	}

	reg := NewRegistry()
	for name, pc := range file.Policies {
		if err = reg.Set(name, pc); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// Validate checks durations, strategy names and stage order.
func (pc *PolicyConfig) Validate() error {
	if pc.Retry != nil {
		if _, err := BuildRetry[struct{}](pc.Retry); err != nil {
			return err
		}
	}

	if pc.Timeout != nil {
		if _, err := BuildTimeout[struct{}](*pc.Timeout); err != nil {
			return err
		}
	}

	_, err := pc.order()

	return err
}

func (pc *PolicyConfig) order() ([]string, error) {
	if len(pc.Order) == 0 {
		var order []string
		if pc.Retry != nil {
			order = append(order, stageRetry)
		}

		if pc.Timeout != nil {
			order = append(order, stageTimeout)
		}

		return order, nil
	}

	seen := make(map[string]bool, len(pc.Order))
	for _, s := range pc.Order {
		switch {
		case seen[s]:
			return nil, fmt.Errorf("%w: order: duplicate stage %q", errConfig, s)
		case s == stageRetry && pc.Retry == nil,
			s == stageTimeout && pc.Timeout == nil:
			return nil, fmt.Errorf("%w: order: stage %q is not configured", errConfig, s)
		case s != stageRetry && s != stageTimeout:
			return nil, fmt.Errorf("%w: order: unknown stage %q", errConfig, s)
		}

		seen[s] = true
	}

	return pc.Order, nil
}

// BuildRetry converts rc into a [Retry] policy.
func BuildRetry[T any](rc *RetryConfig) (*Retry[T], error) {
	r := NewRetry[T]()

	switch {
	case rc.Forever:
		r.Forever()
	case rc.MaxAttempts != nil:
		r.Attempts(*rc.MaxAttempts)
	}

	if rc.HandleTransient {
		r.Handle(TransientFaults())
	}

	if rc.HandleTimeout != nil && *rc.HandleTimeout {
		r.Handle(FaultIs(ErrTimeout))
	}

	strategy, err := rc.strategy()
	if err != nil {
		return nil, err
	}

	return r.WaitAndRetryBackoff(strategy), nil
}

//nolint:ireturn // returns interface by design for strategy pattern
func (rc *RetryConfig) strategy() (BackoffStrategy, error) {
	if len(rc.Intervals) > 0 {
		if rc.Backoff != nil {
			return nil, fmt.Errorf("%w: retry: intervals and backoff are exclusive", errConfig)
		}

		ds := make([]time.Duration, 0, len(rc.Intervals))
		for i, s := range rc.Intervals {
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, fmt.Errorf("retry.intervals[%d]: %w", i, err)
			}

			ds = append(ds, d)
		}

		return Intervals(ds...), nil
	}

	if rc.Backoff == nil {
		return nil, nil //nolint:nilnil // no pause configured
	}

	if rc.BaseDelay == nil {
		return nil, fmt.Errorf("%w: retry: base_delay is required with backoff", errConfig)
	}

	base, err := time.ParseDuration(*rc.BaseDelay)
	if err != nil {
		return nil, fmt.Errorf("retry.base_delay: %w", err)
	}

	var strategy BackoffStrategy

	switch *rc.Backoff {
	case "constant":
		strategy = ConstantBackoff(base)
	case "linear":
		strategy = LinearBackoff(base)
	case "exponential":
		strategy = ExponentialBackoff(base)
	case "exponential_jitter":
		strategy = ExponentialJitterBackoff(base)
	default:
		return nil, fmt.Errorf("%w: retry: unknown backoff strategy %q", errConfig, *rc.Backoff)
	}

	if rc.MaxDelay != nil {
		maxDelay, err := time.ParseDuration(*rc.MaxDelay)
		if err != nil {
			return nil, fmt.Errorf("retry.max_delay: %w", err)
		}

		strategy = CappedBackoff(strategy, maxDelay)
	}

	return strategy, nil
}

// BuildTimeout parses deadline and returns a [Timeout] policy.
func BuildTimeout[T any](deadline string) (*Timeout[T], error) {
	d, err := time.ParseDuration(deadline)
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}

	return NewTimeout[T](d), nil
}

// BuildComposite converts pc into a composite called name. The extra
// policies wrap the configured stages, so a code-level fallback passed here
// is the outermost stage.
func BuildComposite[T any](name string, pc *PolicyConfig, extra ...Policy[T]) (*Composite[T], error) {
	order, err := pc.order()
	if err != nil {
		return nil, fmt.Errorf("bastion: policy %q: %w", name, err)
	}

	stages := append([]Policy[T]{}, extra...)

	for i, s := range order {
		switch s {
		case stageRetry:
			r, err := BuildRetry[T](pc.Retry)
			if err != nil {
				return nil, fmt.Errorf("bastion: policy %q: %w", name, err)
			}

			if pc.Retry.HandleTimeout == nil && slices.Contains(order[i+1:], stageTimeout) {
				r.Handle(FaultIs(ErrTimeout))
			}

			stages = append(stages, r.Named(name+"."+stageRetry))
		case stageTimeout:
			t, err := BuildTimeout[T](*pc.Timeout)
			if err != nil {
				return nil, fmt.Errorf("bastion: policy %q: %w", name, err)
			}

			stages = append(stages, t.Named(name+"."+stageTimeout))
		}
	}

	return Join(stages...).Named(name), nil
}
