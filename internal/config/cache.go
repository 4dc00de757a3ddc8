package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching will be disabled.
// Methods lists the HTTP methods to cache (e.g. GET, HEAD).  KeyStrategy
// determines which parts of the request contribute to the cache key.
type CacheConfig struct {
    Enabled      bool          `env:"CACHE_ENABLED" envDefault:"true"`
    MethodList   []string      `env:"CACHE_METHODS" envDefault:"GET" envSeparator:","`
    TTL          time.Duration `env:"CACHE_TTL" envDefault:"30s"`
    KeyStrategy  string        `env:"CACHE_KEY_STRATEGY" envDefault:"route_query_user"`
    Prefix       string        `env:"CACHE_PREFIX" envDefault:"cache"`
    MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`

    Methods map[string]bool `env:"-"`
}

func (c *CacheConfig) normalize() {
    c.Methods = map[string]bool{}
    for _, p := range c.MethodList {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            c.Methods[p] = true
        }
    }
    if c.TTL <= 0 {
        c.TTL = time.Second
    }
}
