// Package otter backs bastion.Cache with an Otter cache, for use with
// bastion.LastKnownGood.
package otter

import (
	"time"

	"github.com/maypok86/otter"

	"github.com/byte4ever/bastion"
)

type adapter[K comparable, V any] struct {
	cache otter.CacheWithVariableTTL[K, V]
}

// MustNew builds a cache with per-entry TTL holding up to cfg.MaxSize
// entries. The "initial_capacity" option presizes it. It panics on an
// invalid option or if Otter rejects the configuration.
//
//nolint:ireturn // returns the bastion.Cache contract
func MustNew[K comparable, V any](cfg bastion.CacheConfig) bastion.Cache[K, V] {
	initial, err := cfg.IntOption("initial_capacity", 0)
	if err != nil {
		panic(err.Error())
	}

	builder := otter.MustBuilder[K, V](cfg.MaxSize)
	if initial > 0 {
		builder = builder.InitialCapacity(int(initial))
	}

	cache, err := builder.
		WithVariableTTL().
		Build()
	if err != nil {
		panic("bastion/otter: build cache: " + err.Error())
	}

	return &adapter[K, V]{cache: cache}
}

//nolint:ireturn // generic type parameter V, not an interface
func (a *adapter[K, V]) Get(key K) (V, bool) {
	return a.cache.Get(key)
}

func (a *adapter[K, V]) Set(key K, value V, ttl time.Duration) {
	a.cache.Set(key, value, ttl)
}

func (a *adapter[K, V]) Delete(key K) {
	a.cache.Delete(key)
}
