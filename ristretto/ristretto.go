// Package ristretto backs bastion.Cache with a Ristretto cache, for use with
// bastion.LastKnownGood.
package ristretto

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/byte4ever/bastion"
)

type (
	// Key is the comparable subset of Ristretto key types.
	Key interface {
		uint64 | string | byte | int | int32 | uint32 | int64
	}

	adapter[K Key, V any] struct {
		cache *ristretto.Cache[K, V]
	}
)

// MustNew builds a cache holding up to cfg.MaxSize entries. Set waits for
// Ristretto's buffered writes so that a stored value is readable at once,
// unless the admission policy rejected it. The "num_counters" and
// "buffer_items" options override Ristretto's sizing. It panics on an
// invalid option or if Ristretto rejects the configuration.
//
//nolint:ireturn // returns the bastion.Cache contract
func MustNew[K Key, V any](cfg bastion.CacheConfig) bastion.Cache[K, V] {
	//nolint:mnd // Ristretto recommends 10x counters and 64 buffer items.
	numCounters, err := cfg.IntOption("num_counters", int64(cfg.MaxSize)*10)
	if err != nil {
		panic(err.Error())
	}

	//nolint:mnd // see above
	bufferItems, err := cfg.IntOption("buffer_items", 64)
	if err != nil {
		panic(err.Error())
	}

	cache, err := ristretto.NewCache(&ristretto.Config[K, V]{
		NumCounters: numCounters,
		MaxCost:     int64(cfg.MaxSize),
		BufferItems: bufferItems,
	})
	if err != nil {
		panic("bastion/ristretto: build cache: " + err.Error())
	}

	return &adapter[K, V]{cache: cache}
}

//nolint:ireturn // generic type parameter V, not an interface
func (a *adapter[K, V]) Get(key K) (V, bool) {
	return a.cache.Get(key)
}

func (a *adapter[K, V]) Set(key K, value V, ttl time.Duration) {
	if a.cache.SetWithTTL(key, value, 1, ttl) {
		a.cache.Wait()
	}
}

func (a *adapter[K, V]) Delete(key K) {
	a.cache.Del(key)
}
