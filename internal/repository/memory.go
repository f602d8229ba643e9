package repository

import (
	"context"
	"sync"
	"time"

	"venuebook/internal/models"
)

// MemorySnapshotCache is the in-process fallback when Redis is down or not
// configured.
type MemorySnapshotCache struct {
	mu        sync.RWMutex
	entries   []*models.ConfirmationLogEntry
	populated bool
	expiresAt time.Time
}

func NewMemorySnapshotCache() *MemorySnapshotCache {
	return &MemorySnapshotCache{}
}

func (c *MemorySnapshotCache) GetLog(_ context.Context) ([]*models.ConfirmationLogEntry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.populated || time.Now().After(c.expiresAt) {
		return nil, false, nil
	}
	out := make([]*models.ConfirmationLogEntry, len(c.entries))
	copy(out, c.entries)
	return out, true, nil
}

func (c *MemorySnapshotCache) SetLog(_ context.Context, entries []*models.ConfirmationLogEntry, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make([]*models.ConfirmationLogEntry, len(entries))
	copy(c.entries, entries)
	c.populated = true
	c.expiresAt = time.Now().Add(ttl)
	return nil
}

func (c *MemorySnapshotCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.populated = false
	return nil
}
