package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
	dslog "github.com/grafana/dskit/log"
	"golang.org/x/sync/errgroup"

	cache "github.com/krisalay/ttlcache"
	"github.com/krisalay/ttlcache/util/log"
)

var cli struct {
	Capacity    int           `help:"Maximum number of entries in the cache." default:"200000"`
	PreloadKeys int           `help:"Keys written before the run starts." default:"100000"`
	Goroutines  int           `help:"Concurrent workers." default:"200"`
	Ops         int           `help:"Operations per worker." default:"5000"`
	WriteRatio  float64       `help:"Fraction of operations that are writes." default:"0.1"`
	TTL         time.Duration `help:"TTL for written entries." default:"60s"`
	Sweep       time.Duration `help:"Sweep interval." default:"1s"`
	LogLevel    string        `help:"Log level." default:"info" enum:"debug,info,warn,error"`
}

// ================= BENCHMARK =================

func main() {
	kong.Parse(&cli,
		kong.Name("benchmark"),
		kong.Description("Concurrent load generator for the LRU/TTL cache."),
		kong.UsageOnError(),
	)

	var lvl dslog.Level
	if err := lvl.Set(cli.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := log.InitLogger("logfmt", lvl)

	if err := run(); err != nil {
		level.Error(logger).Log("msg", "benchmark failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Capacity     :", humanize.Comma(int64(cli.Capacity)))
	fmt.Println("Preload Keys :", humanize.Comma(int64(cli.PreloadKeys)))
	fmt.Println("Goroutines   :", cli.Goroutines)
	fmt.Println("Ops/Goroutine:", humanize.Comma(int64(cli.Ops)))
	fmt.Println("Write Ratio  :", cli.WriteRatio)
	fmt.Println("---------------------------------")

	c, err := cache.New(cache.Config{
		MaxSize:       cli.Capacity,
		DefaultTTL:    cli.TTL,
		SweepInterval: cli.Sweep,
	}, nil, log.Logger)
	if err != nil {
		return err
	}
	defer c.Close()

	// ---------------- Preload Cache ----------------
	fmt.Println("Preloading cache...")
	for i := 0; i < cli.PreloadKeys; i++ {
		if _, err := c.Put(fmt.Sprintf("key-%d", i), i); err != nil {
			return err
		}
	}
	fmt.Println("Preload complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")
	keySpace := max(cli.PreloadKeys, 1)

	start := time.Now()
	g := errgroup.Group{}
	hits := make([]int, cli.Goroutines)

	for w := 0; w < cli.Goroutines; w++ {
		w := w
		g.Go(func() error {
			r := rand.New(rand.NewSource(int64(w)))
			for j := 0; j < cli.Ops; j++ {
				key := fmt.Sprintf("key-%d", r.Intn(keySpace))
				if r.Float64() < cli.WriteRatio {
					if _, err := c.Put(key, j); err != nil {
						return err
					}
					continue
				}
				v, err := c.Get(key)
				if err != nil {
					return err
				}
				if v != nil {
					hits[w]++
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	duration := time.Since(start)
	totalOps := cli.Goroutines * cli.Ops
	totalHits := 0
	for _, h := range hits {
		totalHits += h
	}

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %s\n", humanize.Comma(int64(totalOps)))
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %s ops/sec\n", humanize.CommafWithDigits(float64(totalOps)/duration.Seconds(), 2))
	fmt.Printf("Read Hits        : %s\n", humanize.Comma(int64(totalHits)))
	fmt.Printf("Final Size       : %s\n", humanize.Comma(int64(c.Len())))
	fmt.Println("=========================================")

	return c.Close()
}
