package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/drone/envsubst"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	dslog "github.com/grafana/dskit/log"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v2"

	cache "github.com/krisalay/ttlcache"
	"github.com/krisalay/ttlcache/engine"
	"github.com/krisalay/ttlcache/metrics"
	"github.com/krisalay/ttlcache/util/log"
)

// Config is the demo's top level configuration.
type Config struct {
	LogLevel  dslog.Level  `yaml:"log_level"`
	LogFormat string       `yaml:"log_format"`
	Cache     cache.Config `yaml:"cache"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	_ = cfg.LogLevel.Set("info")
	f.Var(&cfg.LogLevel, prefix+"log.level", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error]")
	f.StringVar(&cfg.LogFormat, prefix+"log.format", "logfmt", "Output log messages in the given format. Valid formats: [logfmt, json]")
	cfg.Cache.RegisterFlagsAndApplyDefaults(prefix, f)
}

// ================= BACKING STORE =================

type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]any
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string]any)}
}

func (s *InMemoryStore) Load(_ context.Context, key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	level.Debug(log.Logger).Log("msg", "store load", "key", key)
	// simulate a slow backend so concurrent loads overlap
	time.Sleep(10 * time.Millisecond)
	return s.data[key], nil
}

func (s *InMemoryStore) Put(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// ================= MAIN =================

func main() {
	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed parsing config: %v\n", err)
		os.Exit(1)
	}
	logger := log.InitLogger(config.LogFormat, config.LogLevel)

	if err := run(config, logger); err != nil {
		level.Error(logger).Log("msg", "demo failed", "err", err)
		os.Exit(1)
	}
}

func run(config *Config, logger kitlog.Logger) error {
	ctx := context.Background()

	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Println("EVICTION POLICY :", "LRU")
	fmt.Println("TTL STRATEGY    :", "ExpireAfterWrite")
	fmt.Println("CAPACITY        :", config.Cache.MaxSize, "keys")
	fmt.Println("DEFAULT TTL     :", config.Cache.DefaultTTL)
	fmt.Println("SWEEP INTERVAL  :", config.Cache.SweepInterval)

	// ---------------- Backing Store ----------------
	store := NewInMemoryStore()
	store.Put("a", "alpha")
	store.Put("b", "beta")

	// ---------------- Metrics ----------------
	reg := prometheus.NewRegistry()
	m := metrics.NewPrometheus(reg, "demo", "main")

	// ---------------- Cache ----------------
	c, err := cache.New(config.Cache, engine.NewCacheEngine(nil, nil, m), logger)
	if err != nil {
		return err
	}
	defer c.Close()

	// ====================================================
	fmt.Println("\n==================== 1) CACHE MISS ====================")
	v, err := c.GetOrLoad(ctx, "a", store)
	if err != nil {
		return err
	}
	fmt.Println("CACHE  → GET a =", v)

	// ====================================================
	fmt.Println("\n==================== 2) CACHE HIT ====================")
	v, _ = c.Get("a")
	fmt.Println("CACHE  → GET a =", v)

	// ====================================================
	fmt.Println("\n==================== 3) TTL EXPIRATION ====================")
	if _, err := c.PutWithTTL("x", "temp-value", 100*time.Millisecond); err != nil {
		return err
	}
	fmt.Println("CACHE  → PUT x (TTL = 100ms)")

	time.Sleep(200 * time.Millisecond)

	v, _ = c.Get("x")
	fmt.Println("CACHE  → GET x after TTL =", v)

	// ====================================================
	fmt.Println("\n==================== 4) SINGLEFLIGHT ====================")

	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			val, _ := c.GetOrLoad(ctx, "b", store)
			fmt.Printf("GOROUTINE-%d → GET b = %v\n", id, val)
		}(i)
	}
	wg.Wait()

	// ====================================================
	fmt.Println("\n==================== 5) EVICTION ====================")

	for i := 0; i < config.Cache.MaxSize+5; i++ {
		if _, err := c.Put(fmt.Sprintf("k%d", i), i); err != nil {
			return err
		}
	}

	ok, _ := c.ContainsKey("a")
	fmt.Println("CACHE  → CONTAINS a after eviction =", ok)
	fmt.Println("CACHE  → SIZE =", c.Len())

	// ====================================================
	fmt.Println("\n==================== 6) REMOVE ====================")

	removed, _ := c.Remove("k0")
	fmt.Println("CACHE  → REMOVE k0 =", removed)

	// ====================================================
	fmt.Println("\n==================== 7) CLEAR ====================")
	c.Clear()
	fmt.Println("CACHE  → SIZE after clear =", c.Len())

	// ====================================================
	if err := printMetrics(reg); err != nil {
		return err
	}

	// ====================================================
	fmt.Println("\n==================== SHUTDOWN ====================")
	if err := c.Close(); err != nil {
		return err
	}
	fmt.Println("SYSTEM → cache closed cleanly")
	return nil
}

func loadConfig() (*Config, error) {
	const (
		configFileOption      = "config.file"
		configExpandEnvOption = "config.expand-env"
	)

	var (
		configFile      string
		configExpandEnv bool
	)

	args := os.Args[1:]
	config := &Config{}

	// first get the config file
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&configFile, configFileOption, "", "")
	fs.BoolVar(&configExpandEnv, configExpandEnvOption, false, "")

	// Parsing stops on the first unknown flag, so keep trying the remaining
	// arguments until the config flags are found or none are left.
	for len(args) > 0 {
		_ = fs.Parse(args)
		args = args[1:]
	}

	// load config defaults and register flags
	config.RegisterFlagsAndApplyDefaults("", flag.CommandLine)

	// overlay with config file if provided
	if configFile != "" {
		buff, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read configFile %s: %w", configFile, err)
		}

		if configExpandEnv {
			s, err := envsubst.EvalEnv(string(buff))
			if err != nil {
				return nil, fmt.Errorf("failed to expand env vars from configFile %s: %w", configFile, err)
			}
			buff = []byte(s)
		}

		if err := yaml.UnmarshalStrict(buff, config); err != nil {
			return nil, fmt.Errorf("failed to parse configFile %s: %w", configFile, err)
		}
	}

	// overlay with cli
	flag.String(configFileOption, "", "Configuration file to load")
	flag.Bool(configExpandEnvOption, false, "Whether to expand environment variables in config file")
	flag.Parse()

	if err := config.Cache.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}
	return config, nil
}
