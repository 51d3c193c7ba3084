package logic

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pokestudy/battle-api/internal/battle"
	"github.com/pokestudy/battle-api/internal/models"
)

const bundleKeyPrefix = "battle:bundle:"

// Snapshot pairs a roster with the bundle trained on it. Both are read-only.
type Snapshot struct {
	Roster      *battle.Roster
	Bundle      *battle.Bundle
	Fingerprint string

	generation uint64
}

// BundleCacheConfig wires a BundleCache
type BundleCacheConfig struct {
	Roster    RosterLoader
	Combats   CombatLoader
	Trainer   *battle.Trainer
	Redis     RedisClient // optional
	BundleTTL time.Duration
	// BuildTimeout bounds one load-and-train run. Runs are detached from
	// the caller that started them.
	BuildTimeout time.Duration
	// RefreshDelay is how long Invalidate waits before rebuilding, so a
	// burst of invalidations costs one training run.
	RefreshDelay time.Duration
	Logger       *zap.Logger
}

// BundleCache trains at most once per dataset generation and hands the
// result to every caller. A stale snapshot keeps serving until its
// replacement is ready.
type BundleCache struct {
	cfg    BundleCacheConfig
	logger *zap.SugaredLogger

	mu         sync.RWMutex
	current    *Snapshot
	generation uint64

	group singleflight.Group

	refreshMu sync.Mutex
	refresh   *time.Timer
	closed    bool
}

func NewBundleCache(cfg BundleCacheConfig) *BundleCache {
	if cfg.BundleTTL <= 0 {
		cfg.BundleTTL = 7 * 24 * time.Hour
	}
	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = 10 * time.Minute
	}
	if cfg.RefreshDelay < 0 {
		cfg.RefreshDelay = 0
	}
	return &BundleCache{cfg: cfg, logger: cfg.Logger.Sugar()}
}

// Get returns the current snapshot, loading and training on first use.
// Concurrent callers during a cold start share one training run, and a
// caller giving up does not cancel it for the others.
func (c *BundleCache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	snap := c.current
	c.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return c.rebuild(ctx)
}

// Loaded reports whether a snapshot is ready without triggering a build
func (c *BundleCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil
}

// Invalidate marks the snapshot stale and schedules a background rebuild
// after RefreshDelay. Calls made while a rebuild is pending join it.
func (c *BundleCache) Invalidate() {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if c.closed || c.refresh != nil {
		return
	}
	c.refresh = time.AfterFunc(c.cfg.RefreshDelay, c.runRefresh)
	c.logger.Infow("Bundle cache invalidated", "generation", gen, "refresh_in", c.cfg.RefreshDelay)
}

func (c *BundleCache) runRefresh() {
	c.refreshMu.Lock()
	c.refresh = nil
	c.refreshMu.Unlock()

	if _, err := c.rebuild(context.Background()); err != nil {
		c.logger.Warnw("Background retrain failed, serving previous bundle", "error", err)
	}
}

// Retrain builds a new snapshot now and swaps it in. The previous snapshot
// serves other callers until the swap.
func (c *BundleCache) Retrain(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	c.generation++
	c.mu.Unlock()
	return c.rebuild(ctx)
}

// Close cancels a pending background rebuild
func (c *BundleCache) Close() {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	c.closed = true
	if c.refresh != nil {
		c.refresh.Stop()
		c.refresh = nil
	}
}

// rebuild trains for the current generation. The run itself uses a
// context owned by the cache; ctx only bounds how long this caller waits.
func (c *BundleCache) rebuild(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	ch := c.group.DoChan(fmt.Sprintf("gen-%d", gen), func() (interface{}, error) {
		// an earlier flight for this generation may have finished already
		c.mu.RLock()
		done := c.current
		c.mu.RUnlock()
		if done != nil && done.generation >= gen {
			return done, nil
		}

		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.BuildTimeout)
		defer cancel()

		start := time.Now()
		snap, err := c.build(buildCtx)
		trainingDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			trainingRuns.WithLabelValues("failed").Inc()
			return nil, err
		}
		snap.generation = gen

		c.mu.Lock()
		// never replace a snapshot with an older one
		if c.current == nil || c.current.generation < gen {
			c.current = snap
		}
		c.mu.Unlock()
		return snap, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *BundleCache) build(ctx context.Context) (*Snapshot, error) {
	var (
		creatures []models.Creature
		combats   []models.CombatRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if creatures, err = c.cfg.Roster.LoadRoster(gctx); err != nil {
			return fmt.Errorf("load roster: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if combats, err = c.cfg.Combats.LoadCombats(gctx); err != nil {
			return fmt.Errorf("load combats: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	roster, err := battle.NewRoster(creatures)
	if err != nil {
		return nil, fmt.Errorf("build roster: %w", err)
	}

	fingerprint, err := c.fingerprint(creatures, combats)
	if err != nil {
		return nil, err
	}

	if bundle := c.restore(ctx, fingerprint); bundle != nil {
		trainingRuns.WithLabelValues("restored").Inc()
		c.observe(bundle)
		c.logger.Infow("Restored trained bundle from Redis", "bundle", bundle.ID(), "fingerprint", fingerprint)
		return &Snapshot{Roster: roster, Bundle: bundle, Fingerprint: fingerprint}, nil
	}

	bundle, err := c.cfg.Trainer.Train(roster, combats)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	trainingRuns.WithLabelValues("trained").Inc()
	c.observe(bundle)
	c.store(ctx, fingerprint, bundle)

	c.logger.Infow("Bundle ready",
		"bundle", bundle.ID(),
		"roster", roster.Len(),
		"combats", len(combats),
		"fingerprint", fingerprint,
	)
	return &Snapshot{Roster: roster, Bundle: bundle, Fingerprint: fingerprint}, nil
}

func (c *BundleCache) observe(bundle *battle.Bundle) {
	report := bundle.Report()
	droppedCombats.Set(float64(report.Dropped))
	heldOutAccuracy.Set(report.HeldOutAccuracy)
}

// fingerprint identifies a dataset plus training options
func (c *BundleCache) fingerprint(creatures []models.Creature, combats []models.CombatRecord) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, v := range []interface{}{battle.SchemaVersion, c.cfg.Trainer.Options(), creatures, combats} {
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("fingerprint: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *BundleCache) restore(ctx context.Context, fingerprint string) *battle.Bundle {
	if c.cfg.Redis == nil {
		return nil
	}
	data, err := c.cfg.Redis.Get(ctx, bundleKeyPrefix+fingerprint).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warnw("Failed to read stored bundle", "error", err)
		}
		return nil
	}
	var bundle battle.Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		c.logger.Warnw("Discarding unreadable stored bundle", "error", err, "fingerprint", fingerprint)
		return nil
	}
	return &bundle
}

func (c *BundleCache) store(ctx context.Context, fingerprint string, bundle *battle.Bundle) {
	if c.cfg.Redis == nil {
		return
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		c.logger.Warnw("Failed to encode bundle", "error", err)
		return
	}
	if err := c.cfg.Redis.Set(ctx, bundleKeyPrefix+fingerprint, data, c.cfg.BundleTTL).Err(); err != nil {
		c.logger.Warnw("Failed to store bundle", "error", err)
	}
}
