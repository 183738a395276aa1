// Package cache holds a TTL-staleness cache of each user's plants, fed by
// scheduled warm-up rather than on-demand fetches.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"garden-alert-service/internal/models"
	"garden-alert-service/internal/plants"
)

// DefaultTTL is the age at which a cached entry is considered stale.
const DefaultTTL = 24 * time.Hour

type entry struct {
	plants    []models.Plant
	fetchedAt time.Time
}

func (e entry) fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.fetchedAt) < ttl
}

// PlantCache holds the last known plant list per user. AlertEngine reads
// only through Get, which reports a miss on anything stale; the periodic
// refresh path is the only caller that falls back to a stale entry rather
// than propagating a fetch error.
type PlantCache struct {
	mu      sync.RWMutex
	entries map[int]entry
	ttl     time.Duration

	client *plants.Client
	logger *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewPlantCache builds a cache backed by client, with the default 24h TTL.
func NewPlantCache(client *plants.Client, logger *zap.Logger) *PlantCache {
	return &PlantCache{
		entries: make(map[int]entry),
		ttl:     DefaultTTL,
		client:  client,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Get returns the cached plants for userID only if the entry exists and is
// still fresh. A stale or absent entry is reported as a miss: the caller
// must treat that as "no plants, no alerts," never fall back to stale data.
func (c *PlantCache) Get(userID int) ([]models.Plant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[userID]
	if !ok || !e.fresh(time.Now(), c.ttl) {
		return nil, false
	}
	return e.plants, true
}

func (c *PlantCache) set(userID int, p []models.Plant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = entry{plants: p, fetchedAt: time.Now()}
}

// PrimeForTest seeds a fresh cache entry directly, bypassing the backend
// fetch. Exported for use by other packages' tests that need a populated
// cache without standing up a fake backend.
func (c *PlantCache) PrimeForTest(userID int, p []models.Plant) {
	c.set(userID, p)
}

func (c *PlantCache) hasEntry(userID int) ([]models.Plant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	return e.plants, true
}

// Refresh re-fetches userID's plants from the backend. On success the
// cache entry is replaced and its timestamp reset. On failure, a prior
// entry (even a stale one) is returned as-is and the cache is left
// untouched rather than evicted; a user with no prior entry and a failed
// fetch yields an error.
func (c *PlantCache) Refresh(ctx context.Context, userID int) ([]models.Plant, error) {
	fetched, err := c.client.FetchUserPlants(ctx, userID)
	if err != nil {
		if existing, ok := c.hasEntry(userID); ok {
			if c.logger != nil {
				c.logger.Warn("plant refresh failed, serving stale entry",
					zap.Int("userId", userID), zap.Error(err))
			}
			return existing, nil
		}
		return nil, err
	}
	c.set(userID, fetched)
	return fetched, nil
}

// WarmUp refreshes every userID concurrently, tolerating individual
// failures: a user whose fetch fails simply keeps (or fails to gain) an
// entry, it never aborts the others.
func (c *PlantCache) WarmUp(ctx context.Context, userIDs []int) {
	var wg sync.WaitGroup
	for _, uid := range userIDs {
		uid := uid
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Refresh(ctx, uid); err != nil && c.logger != nil {
				c.logger.Warn("plant warm-up failed", zap.Int("userId", uid), zap.Error(err))
			}
		}()
	}
	wg.Wait()
}

// StartPeriodicRefresh runs WarmUp once immediately and then every
// interval until Stop is called.
func (c *PlantCache) StartPeriodicRefresh(ctx context.Context, userIDs []int, interval time.Duration) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.WarmUp(ctx, userIDs)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.WarmUp(ctx, userIDs)
			}
		}
	}()
}

// Stop ends the periodic refresh loop and waits for it to exit.
func (c *PlantCache) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}
