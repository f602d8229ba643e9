package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"venuebook/internal/domain"
	"venuebook/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSnapshotCache prefers the primary (Redis) cache and drops to the
// fallback (memory) when the primary fails, probing the primary again after
// a cooldown.
type FailoverSnapshotCache struct {
	primary  domain.SnapshotCache
	fallback domain.SnapshotCache
	logger   *zerolog.Logger
	cooldown time.Duration

	isDown atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverSnapshotCache(primary, fallback domain.SnapshotCache, logger *zerolog.Logger) *FailoverSnapshotCache {
	return &FailoverSnapshotCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		cooldown: time.Minute,
	}
}

func (c *FailoverSnapshotCache) markDown(err error) {
	c.logger.Error().Err(err).Msg("primary snapshot cache failed, falling back to memory")
	c.isDown.Store(true)
	c.mu.Lock()
	c.lastCheck = time.Now()
	c.mu.Unlock()
}

func (c *FailoverSnapshotCache) shouldProbe() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Since(c.lastCheck) < c.cooldown {
		return false
	}
	c.lastCheck = time.Now()
	return true
}

func (c *FailoverSnapshotCache) GetLog(ctx context.Context) ([]*models.ConfirmationLogEntry, bool, error) {
	if !c.isDown.Load() {
		entries, ok, err := c.primary.GetLog(ctx)
		if err == nil {
			return entries, ok, nil
		}
		c.markDown(err)
	} else if c.shouldProbe() {
		entries, ok, err := c.primary.GetLog(ctx)
		if err == nil {
			c.isDown.Store(false)
			return entries, ok, nil
		}
	}

	return c.fallback.GetLog(ctx)
}

func (c *FailoverSnapshotCache) SetLog(ctx context.Context, entries []*models.ConfirmationLogEntry, ttl time.Duration) error {
	if !c.isDown.Load() {
		err := c.primary.SetLog(ctx, entries, ttl)
		if err == nil {
			return nil
		}
		c.markDown(err)
	}
	return c.fallback.SetLog(ctx, entries, ttl)
}

func (c *FailoverSnapshotCache) Invalidate(ctx context.Context) error {
	// The primary is attempted even while marked down: a copy written before
	// the outage would otherwise survive it and resurface on recovery.
	if err := c.primary.Invalidate(ctx); err != nil {
		if !c.isDown.Load() {
			c.markDown(err)
		}
	}
	return c.fallback.Invalidate(ctx)
}
