package config

import "time"

// CacheConfig defines settings for the catalog response cache and the
// popular-themes result cache.  Only GET responses of the public catalog
// are cached; reservation endpoints never are.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	PopularTTL   time.Duration
	Prefix       string
	MaxBodyBytes int
}

func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      envSet("CACHE_METHODS", "GET"),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		PopularTTL:   envDur("CACHE_POPULAR_TTL", 5*time.Minute),
		Prefix:       envStr("CACHE_PREFIX", "roomescape:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
