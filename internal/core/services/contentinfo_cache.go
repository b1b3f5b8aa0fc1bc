package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driven"
	"github.com/custodia-labs/pagekeep/internal/logger"
)

// ContentInfoCache maps normalized URLs to the ContentInfo of the document
// they belong to. Entries live in an arena addressed by integer slot and
// every key pointing at one document shares the slot, so an update made
// through any key is visible through all of them.
//
// The whole map is persisted as one value under
// driven.SettingsKeyPageContentInfo. It is loaded lazily on first use.
type ContentInfoCache struct {
	settings driven.SettingsStore

	mu     sync.Mutex
	loaded bool
	arena  map[int]*domain.ContentInfo
	index  map[string]int
	nextID int

	loads singleflight.Group

	// persistMu orders snapshots with the writes that store them.
	persistMu sync.Mutex
}

// NewContentInfoCache creates a cache backed by settings.
func NewContentInfoCache(settings driven.SettingsStore) *ContentInfoCache {
	return &ContentInfoCache{
		settings: settings,
		arena:    make(map[int]*domain.ContentInfo),
		index:    make(map[string]int),
	}
}

// Get returns a copy of the info stored under normalizedURL.
func (c *ContentInfoCache) Get(ctx context.Context, normalizedURL string) (*domain.ContentInfo, bool, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.index[normalizedURL]
	if !ok {
		return nil, false, nil
	}
	return c.arena[id].Clone(), true, nil
}

// Put stores info under every key in keys. Keys already pointing at an entry
// for the same primary identifier are moved along with their siblings, so
// aliases registered earlier keep seeing the latest info. The change is
// in-memory until Persist.
func (c *ContentInfoCache) Put(ctx context.Context, info *domain.ContentInfo, keys ...string) error {
	if info == nil {
		return fmt.Errorf("put content info: %w", domain.ErrInvalidInput)
	}
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	slot := c.nextID
	c.nextID++
	c.arena[slot] = info.Clone()

	replaced := make(map[int]bool)
	for _, key := range keys {
		if key == "" {
			continue
		}
		if old, ok := c.index[key]; ok && old != slot {
			if c.arena[old].PrimaryIdentifier.NormalizedURL == info.PrimaryIdentifier.NormalizedURL {
				replaced[old] = true
			}
		}
		c.index[key] = slot
	}
	for key, old := range c.index {
		if replaced[old] {
			c.index[key] = slot
		}
	}
	c.collect()
	return nil
}

// LoadAll returns a snapshot of every key. Keys that share an entry share
// the returned pointer.
func (c *ContentInfoCache) LoadAll(ctx context.Context) (map[string]*domain.ContentInfo, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot(), nil
}

// Persist writes the whole map to the settings store. Concurrent callers
// write in the order their snapshots were taken; the last write wins.
func (c *ContentInfoCache) Persist(ctx context.Context) error {
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	snapshot := c.snapshot()
	c.mu.Unlock()

	if err := c.settings.Set(ctx, driven.SettingsKeyPageContentInfo, snapshot); err != nil {
		return fmt.Errorf("persist content info: %w", err)
	}
	return nil
}

// Prune drops every key whose info was derived more than maxAge before now
// and persists the result if anything was dropped. Returns the number of
// keys removed.
func (c *ContentInfoCache) Prune(ctx context.Context, now time.Time, maxAge time.Duration) (int, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	c.mu.Lock()
	removed := 0
	for key, slot := range c.index {
		if c.arena[slot].IsStale(now, maxAge) {
			delete(c.index, key)
			removed++
		}
	}
	c.collect()
	c.mu.Unlock()

	if removed == 0 {
		return 0, nil
	}
	return removed, c.Persist(ctx)
}

// Len returns the number of keys.
func (c *ContentInfoCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *ContentInfoCache) ensureLoaded(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.loaded
	c.mu.Unlock()
	if loaded {
		return nil
	}

	// The load is shared with every concurrent first caller, so it must
	// outlive the cancellation of whichever caller started it.
	loadCtx := context.WithoutCancel(ctx)
	_, err, _ := c.loads.Do("load", func() (any, error) {
		c.mu.Lock()
		done := c.loaded
		c.mu.Unlock()
		if done {
			return nil, nil
		}

		var stored map[string]*domain.ContentInfo
		found, err := c.settings.Get(loadCtx, driven.SettingsKeyPageContentInfo, &stored)
		if err != nil {
			return nil, fmt.Errorf("load content info: %w", err)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.loaded {
			return nil, nil
		}
		if found {
			c.intern(stored)
			logger.Debug("loaded %d content info keys", len(c.index))
		}
		c.loaded = true
		return nil, nil
	})
	return err
}

// intern rebuilds the arena from a decoded map. JSON flattens shared
// entries into copies, so keys are regrouped by primary identifier, keeping
// the most recently derived copy. Must be called with mu held.
func (c *ContentInfoCache) intern(stored map[string]*domain.ContentInfo) {
	byPrimary := make(map[string]int)
	for key, info := range stored {
		if info == nil {
			continue
		}
		primary := info.PrimaryIdentifier.NormalizedURL
		slot, ok := byPrimary[primary]
		if !ok {
			slot = c.nextID
			c.nextID++
			byPrimary[primary] = slot
			c.arena[slot] = info
		} else if info.AsOf.After(c.arena[slot].AsOf) {
			c.arena[slot] = info
		}
		c.index[key] = slot
	}
}

// collect drops arena entries no key points at. Must be called with mu held.
func (c *ContentInfoCache) collect() {
	live := make(map[int]bool, len(c.arena))
	for _, slot := range c.index {
		live[slot] = true
	}
	for slot := range c.arena {
		if !live[slot] {
			delete(c.arena, slot)
		}
	}
}

// snapshot must be called with mu held.
func (c *ContentInfoCache) snapshot() map[string]*domain.ContentInfo {
	copies := make(map[int]*domain.ContentInfo, len(c.arena))
	out := make(map[string]*domain.ContentInfo, len(c.index))
	for key, slot := range c.index {
		info, ok := copies[slot]
		if !ok {
			info = c.arena[slot].Clone()
			copies[slot] = info
		}
		out[key] = info
	}
	return out
}
