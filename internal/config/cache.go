package config

import "time"

// CacheConfig defines settings for the catalog response cache.  When
// Enabled is false or no Redis client is configured, caching is
// disabled.  Only GET responses up to MaxBodyBytes are cached, for TTL.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads cache settings from environment variables,
// with defaults suitable for the catalog endpoints (short TTL so seat
// availability shown in listings never goes stale for long).
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return cfg
}
