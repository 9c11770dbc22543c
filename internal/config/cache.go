package config

import "time"

// CacheConfig defines settings for the notes list cache.  The cache is only
// active when Redis is enabled and reachable; TTL bounds how long a cached
// list may live and Prefix namespaces the keys.
type CacheConfig struct {
	TTL    time.Duration `env:"NOTES_CACHE_TTL" envDefault:"30s"`
	Prefix string        `env:"NOTES_CACHE_PREFIX" envDefault:"notes"`
}
