package bastion

import (
	"fmt"
	"math"
	"os"
	"time"

	json "github.com/goccy/go-json"
)

type (
	// Cache is the storage contract behind [LastKnownGood]. Adapters for
	// Ristretto and Otter live in the ristretto and otter subpackages.
	Cache[K comparable, V any] interface {
		Get(key K) (V, bool)
		// Set stores value for ttl; expiry is left to the cache library.
		Set(key K, value V, ttl time.Duration)
		Delete(key K)
	}

	// CacheConfig sizes a cache instance.
	CacheConfig struct {
		// Options holds adapter-specific settings.
		Options map[string]any
		TTL     time.Duration
		MaxSize int
	}

	cacheConfigFile struct {
		Caches map[string]cacheConfigJSON `json:"caches"`
	}

	cacheConfigJSON struct {
		Options map[string]any `json:"options,omitempty"`
		TTL     string         `json:"ttl"`
		MaxSize int            `json:"max_size"`
	}
)

// IntOption returns the integer option called key, or def when it is unset.
// JSON numbers decode as float64 and are accepted when integral.
func (c CacheConfig) IntOption(key string, def int64) (int64, error) {
	raw, ok := c.Options[key]
	if !ok {
		return def, nil
	}

	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v == math.Trunc(v) {
			return int64(v), nil
		}
	}

	return 0, fmt.Errorf("bastion: cache option %q: %v is not an integer", key, raw)
}

// LoadCacheConfig reads the "caches" section of a JSON file and returns the
// entry called name.
func LoadCacheConfig(path, name string) (CacheConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CacheConfig{}, fmt.Errorf("bastion: read cache config: %w", err)
	}

	var file cacheConfigFile
	if err = json.Unmarshal(data, &file); err != nil {
		return CacheConfig{}, fmt.Errorf("bastion: parse cache config: %w", err)
	}

	raw, ok := file.Caches[name]
	if !ok {
		return CacheConfig{}, fmt.Errorf("bastion: cache %q not found in config", name)
	}

	if raw.MaxSize <= 0 {
		return CacheConfig{}, fmt.Errorf("bastion: cache %q: max_size must be > 0", name)
	}

	cfg := CacheConfig{Options: raw.Options, MaxSize: raw.MaxSize}

	if raw.TTL != "" {
		if cfg.TTL, err = time.ParseDuration(raw.TTL); err != nil {
			return CacheConfig{}, fmt.Errorf("bastion: cache %q: ttl: %w", name, err)
		}
	}

	return cfg, nil
}
