package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/logger"
)

// CacheMaintenance periodically drops content info that has not been
// re-derived for a long time, keeping the persisted map bounded.
// It runs for the lifetime of the serve command.
type CacheMaintenance struct {
	cache    *ContentInfoCache
	interval time.Duration
	maxAge   time.Duration
	getNow   func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewCacheMaintenance creates a maintenance loop from identity settings.
func NewCacheMaintenance(cache *ContentInfoCache, identity domain.IdentitySettings) *CacheMaintenance {
	interval := identity.PruneInterval
	if interval <= 0 {
		interval = domain.DefaultPruneInterval
	}
	maxAge := identity.PruneAfter
	if maxAge <= 0 {
		maxAge = domain.DefaultPruneAfter
	}
	return &CacheMaintenance{
		cache:    cache,
		interval: interval,
		maxAge:   maxAge,
		getNow:   time.Now,
	}
}

// Start runs the loop. It blocks until Stop is called or ctx is done.
func (m *CacheMaintenance) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.stopCh = make(chan struct{})
	stopCh := m.stopCh
	m.wg.Add(1)
	m.mu.Unlock()
	defer m.wg.Done()

	m.RunOnce(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}

// Stop ends the loop and waits for a pass in progress.
func (m *CacheMaintenance) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	close(m.stopCh)
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}

// RunOnce prunes the cache and returns how many keys were dropped.
// Failures are logged; the next pass retries.
func (m *CacheMaintenance) RunOnce(ctx context.Context) int {
	removed, err := m.cache.Prune(ctx, m.getNow(), m.maxAge)
	if err != nil {
		logger.Error("prune content info: %v", err)
		return 0
	}
	if removed > 0 {
		logger.Info("pruned %d content info keys", removed)
	}
	return removed
}
