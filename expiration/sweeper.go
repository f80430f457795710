package expiration

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/services"
	"go.uber.org/atomic"

	"github.com/krisalay/ttlcache/types"
)

// Target is what the sweeper scans. The store satisfies it.
type Target interface {
	Snapshot() []types.Entry
	RemoveIf(key string, pred func(types.Entry) bool) bool
}

// Checker decides expiry against the current time. The engine satisfies it.
type Checker interface {
	Now() time.Time
	IsExpired(ent types.Entry, now time.Time) bool
	OnExpire()
}

/*
Sweeper removes expired entries on a fixed period so that keys which are
written once and never read again do not stay in memory until evicted.

It is a dskit service: Stopped -> Running on start, Running -> Stopped
when asked to stop. A sweep in progress when the stop arrives runs to
completion; no further sweep is scheduled.
*/
type Sweeper struct {
	services.Service

	target   Target
	checker  Checker
	interval time.Duration
	logger   log.Logger

	sweeps  atomic.Int64
	expired atomic.Int64
}

func NewSweeper(target Target, checker Checker, interval time.Duration, logger log.Logger) *Sweeper {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &Sweeper{
		target:   target,
		checker:  checker,
		interval: interval,
		logger:   log.With(logger, "component", "sweeper"),
	}
	s.Service = services.NewBasicService(nil, s.loop, nil)
	return s
}

func (s *Sweeper) loop(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)

		case <-ctx.Done():
			return nil
		}
	}
}

// Sweep runs one pass and returns how many entries it removed.
// It never fails: a problem with one entry is logged and skipped.
func (s *Sweeper) Sweep(ctx context.Context) int {
	start := time.Now()
	removed, skipped := 0, 0

	for _, ent := range s.target.Snapshot() {
		// entries visited after cancellation are left for the read path
		if ctx.Err() != nil {
			break
		}
		ok, err := s.sweepEntry(ent)
		if err != nil {
			skipped++
			level.Warn(s.logger).Log("msg", "skipping entry during sweep", "key", ent.Key, "err", err)
			continue
		}
		if ok {
			removed++
		}
	}

	s.sweeps.Inc()
	s.expired.Add(int64(removed))
	level.Debug(s.logger).Log("msg", "sweep complete", "removed", removed, "skipped", skipped, "duration", time.Since(start))
	return removed
}

// sweepEntry expires a single entry. Panics raised while doing so are
// turned into errors so one bad entry cannot end the sweep loop.
func (s *Sweeper) sweepEntry(ent types.Entry) (removed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while expiring entry: %v", r)
		}
	}()

	now := s.checker.Now()
	if !s.checker.IsExpired(ent, now) {
		return false, nil
	}
	// re-check under the store lock: the key may have been rewritten since the snapshot
	removed = s.target.RemoveIf(ent.Key, func(cur types.Entry) bool {
		return s.checker.IsExpired(cur, now)
	})
	if removed {
		s.checker.OnExpire()
	}
	return removed, nil
}

// Sweeps returns how many sweeps have completed.
func (s *Sweeper) Sweeps() int64 { return s.sweeps.Load() }

// Expired returns how many entries the sweeper has removed in total.
func (s *Sweeper) Expired() int64 { return s.expired.Load() }
