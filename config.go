package cache

import (
	"errors"
	"flag"
	"time"
)

const (
	DefaultMaxSize       = 1024
	DefaultTTL           = time.Hour
	DefaultSweepInterval = 60 * time.Second
)

// Config for a cache.
type Config struct {
	// MaxSize is the number of entries kept before the least recently used one is evicted.
	MaxSize int `yaml:"max_size"`

	// DefaultTTL applies to Put. PutWithTTL overrides it per entry.
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// SweepInterval is how often the background sweeper removes expired entries.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// RegisterFlagsAndApplyDefaults registers the flags.
func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.IntVar(&cfg.MaxSize, prefix+"cache.max-size", DefaultMaxSize, "Maximum number of entries held before LRU eviction.")
	f.DurationVar(&cfg.DefaultTTL, prefix+"cache.default-ttl", DefaultTTL, "TTL applied to entries written without an explicit one.")
	f.DurationVar(&cfg.SweepInterval, prefix+"cache.sweep-interval", DefaultSweepInterval, "How often expired entries are swept.")
}

// ApplyDefaults fills zero fields with the package defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
}

func (cfg *Config) Validate() error {
	if cfg.MaxSize <= 0 {
		return errors.New("max size must be positive")
	}
	if cfg.DefaultTTL < 0 {
		return errors.New("default ttl must not be negative")
	}
	if cfg.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	return nil
}
