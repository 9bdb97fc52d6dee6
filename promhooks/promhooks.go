// Package promhooks counts bastion policy events with Prometheus.
//
//	collector := promhooks.New(prometheus.DefaultRegisterer)
//	retry := bastion.NewRetry[string]().WithHooks(collector.Hooks())
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/byte4ever/bastion"
)

// Config describes the collected metrics.
//
// An instance is created by [New]; configuration functions passed to New may
// adjust any field before the metrics are built.
type Config struct {
	// Namespace of the metrics.
	Namespace string
	// Subsystem of the metrics.
	Subsystem string
	// Options for the retries counter, labelled by policy.
	Retries prometheus.CounterOpts
	// Options for the timeouts counter, labelled by policy.
	Timeouts prometheus.CounterOpts
	// Options for the fallbacks counter, labelled by policy.
	Fallbacks prometheus.CounterOpts
	// Options for the execution failures counter, labelled by composite and
	// the stage the fault is attributed to.
	ExecutionFailures prometheus.CounterOpts
}

// Collector holds the counters fed by its [bastion.Hooks].
type Collector struct {
	retries           *prometheus.CounterVec
	timeouts          *prometheus.CounterVec
	fallbacks         *prometheus.CounterVec
	executionFailures *prometheus.CounterVec
}

// New builds the counters and registers them with registerer. If registerer
// is nil, the metrics are not registered.
func New(registerer prometheus.Registerer, configFuncs ...func(c *Config)) *Collector {
	const namespace = "bastion"

	c := Config{
		Namespace: namespace,
		Retries: prometheus.CounterOpts{
			Name: "retries_total",
			Help: "Number of retries performed",
		},
		Timeouts: prometheus.CounterOpts{
			Name: "timeouts_total",
			Help: "Number of operations failed by a timeout policy",
		},
		Fallbacks: prometheus.CounterOpts{
			Name: "fallbacks_total",
			Help: "Number of outcomes substituted by a fallback policy",
		},
		ExecutionFailures: prometheus.CounterOpts{
			Name: "execution_failures_total",
			Help: "Number of composite pipelines ending with a fault",
		},
	}

	for _, cf := range configFuncs {
		if cf != nil {
			cf(&c)
		}
	}

	for _, opts := range []*prometheus.CounterOpts{
		&c.Retries, &c.Timeouts, &c.Fallbacks, &c.ExecutionFailures,
	} {
		if opts.Namespace == "" {
			opts.Namespace = c.Namespace
		}

		if opts.Subsystem == "" {
			opts.Subsystem = c.Subsystem
		}
	}

	col := &Collector{
		retries:           prometheus.NewCounterVec(c.Retries, []string{"policy"}),
		timeouts:          prometheus.NewCounterVec(c.Timeouts, []string{"policy"}),
		fallbacks:         prometheus.NewCounterVec(c.Fallbacks, []string{"policy"}),
		executionFailures: prometheus.NewCounterVec(c.ExecutionFailures, []string{"composite", "stage"}),
	}

	if registerer != nil {
		registerer.MustRegister(
			col.retries,
			col.timeouts,
			col.fallbacks,
			col.executionFailures,
		)
	}

	return col
}

// Hooks returns hooks feeding the collector. Combine them with other hooks
// through bastion.Merge.
func (c *Collector) Hooks() *bastion.Hooks {
	return &bastion.Hooks{
		OnRetry: func(policy string, _ uint, _ error) {
			c.retries.WithLabelValues(policy).Inc()
		},
		OnTimeout: func(policy string) {
			c.timeouts.WithLabelValues(policy).Inc()
		},
		OnFallback: func(policy string, _ error) {
			c.fallbacks.WithLabelValues(policy).Inc()
		},
		OnExecutionFailure: func(composite, stage string, _ error) {
			c.executionFailures.WithLabelValues(composite, stage).Inc()
		},
	}
}
