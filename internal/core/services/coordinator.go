package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/metrics"
)

// Resolvable is a single-assignment content identifier. The first Resolve
// wins; later calls are no-ops.
type Resolvable struct {
	mu        sync.Mutex
	done      chan struct{}
	value     domain.ContentIdentifier
	resolved  bool
	followers []*Resolvable
}

// NewResolvable creates an unresolved Resolvable.
func NewResolvable() *Resolvable {
	return &Resolvable{done: make(chan struct{})}
}

// Resolve sets the value and releases waiters.
// Returns false if the Resolvable was already resolved.
func (r *Resolvable) Resolve(id domain.ContentIdentifier) bool {
	r.mu.Lock()
	if r.resolved {
		r.mu.Unlock()
		return false
	}
	r.value = id
	r.resolved = true
	close(r.done)
	followers := r.followers
	r.followers = nil
	r.mu.Unlock()

	for _, f := range followers {
		f.Resolve(id)
	}
	return true
}

// Done is closed once the Resolvable is resolved.
func (r *Resolvable) Done() <-chan struct{} {
	return r.done
}

// Value returns the resolved identifier, if any.
func (r *Resolvable) Value() (domain.ContentIdentifier, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.resolved
}

// Wait blocks until the Resolvable is resolved or ctx is done.
func (r *Resolvable) Wait(ctx context.Context) (domain.ContentIdentifier, error) {
	select {
	case <-r.done:
		id, _ := r.Value()
		return id, nil
	case <-ctx.Done():
		return domain.ContentIdentifier{}, ctx.Err()
	}
}

// follow resolves r with whatever source resolves to.
func (r *Resolvable) follow(source *Resolvable) {
	source.mu.Lock()
	if source.resolved {
		id := source.value
		source.mu.Unlock()
		r.Resolve(id)
		return
	}
	source.followers = append(source.followers, r)
	source.mu.Unlock()
}

// TabCoordinator lets callers wait for the identifier of the page a tab
// shows while another caller computes it. Entries are kept per tab and
// per full URL until the tab closes.
type TabCoordinator struct {
	mu          sync.Mutex
	tabs        map[int]map[string]*Resolvable
	waitTimeout time.Duration
	recorder    metrics.Recorder
}

// NewTabCoordinator creates a coordinator. A non-positive waitTimeout uses
// domain.DefaultWaitTimeout.
func NewTabCoordinator(waitTimeout time.Duration, recorder metrics.Recorder) *TabCoordinator {
	if waitTimeout <= 0 {
		waitTimeout = domain.DefaultWaitTimeout
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &TabCoordinator{
		tabs:        make(map[int]map[string]*Resolvable),
		waitTimeout: waitTimeout,
		recorder:    recorder,
	}
}

// RegisterResolution installs a fresh Resolvable for the tab's URL and
// returns it. A pending predecessor follows the new Resolvable, so callers
// already waiting receive its outcome.
func (c *TabCoordinator) RegisterResolution(tabID int, fullURL string) *Resolvable {
	c.mu.Lock()
	defer c.mu.Unlock()

	fresh := NewResolvable()
	urls := c.urlsFor(tabID)
	if prev, ok := urls[fullURL]; ok {
		if _, resolved := prev.Value(); !resolved {
			prev.follow(fresh)
		}
	}
	urls[fullURL] = fresh
	return fresh
}

// AwaitIdentifier waits for the identifier of fullURL in tabID. It fails
// with *domain.IdentifierTimeoutError once timeout (or the configured
// default when non-positive) elapses.
func (c *TabCoordinator) AwaitIdentifier(
	ctx context.Context,
	tabID int,
	fullURL string,
	timeout time.Duration,
) (domain.ContentIdentifier, error) {
	if timeout <= 0 {
		timeout = c.WaitTimeout()
	}
	r := c.current(tabID, fullURL)

	start := time.Now()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-r.Done():
		c.recorder.ObserveWait(metrics.WaitResolved, time.Since(start))
		id, _ := r.Value()
		return id, nil
	case <-timer.C:
		c.recorder.ObserveWait(metrics.WaitTimeout, time.Since(start))
		return domain.ContentIdentifier{}, &domain.IdentifierTimeoutError{TabID: tabID, FullURL: fullURL}
	case <-ctx.Done():
		c.recorder.ObserveWait(metrics.WaitCancelled, time.Since(start))
		return domain.ContentIdentifier{}, ctx.Err()
	}
}

// WaitTimeout returns the default wait timeout.
func (c *TabCoordinator) WaitTimeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waitTimeout
}

// SetWaitTimeout changes the default wait timeout for later waits.
// Non-positive values are ignored.
func (c *TabCoordinator) SetWaitTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waitTimeout = d
}

// HandleTabClose discards every entry of tabID.
func (c *TabCoordinator) HandleTabClose(tabID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tabs, tabID)
}

// Tracked returns how many URLs have entries for tabID.
func (c *TabCoordinator) Tracked(tabID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tabs[tabID])
}

// current returns the Resolvable waiters attach to, creating it lazily.
func (c *TabCoordinator) current(tabID int, fullURL string) *Resolvable {
	c.mu.Lock()
	defer c.mu.Unlock()

	urls := c.urlsFor(tabID)
	r, ok := urls[fullURL]
	if !ok {
		r = NewResolvable()
		urls[fullURL] = r
	}
	return r
}

// urlsFor must be called with mu held.
func (c *TabCoordinator) urlsFor(tabID int) map[string]*Resolvable {
	urls, ok := c.tabs[tabID]
	if !ok {
		urls = make(map[string]*Resolvable)
		c.tabs[tabID] = urls
	}
	return urls
}
