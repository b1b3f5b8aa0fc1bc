// Package tabs tracks which browser tabs are open on which URLs.
//
// The registry is fed by the content-script surface (tab opened, navigated,
// closed) and answers tab lookups for page indexing and extraction.
package tabs

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/pagekeep/internal/core/ports/driven"
	"github.com/custodia-labs/pagekeep/internal/urlnorm"
)

// Ensure Registry implements the interface.
var _ driven.TabManager = (*Registry)(nil)

// Tab is an open tab.
type Tab struct {
	ID int
	// FullURL is what the tab shows, as the browser reports it.
	FullURL string
	// IndexedURL is the URL the tab's page is indexed under, when it
	// differs from FullURL (PDFs).
	IndexedURL string
}

// Registry is an in-process tab registry. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	tabs map[int]Tab
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tabs: make(map[int]Tab)}
}

// Open records that tabID shows fullURL, replacing any previous page.
func (r *Registry) Open(tabID int, fullURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tabs[tabID] = Tab{ID: tabID, FullURL: fullURL}
}

// SetIndexedURL records the identifier URL of the tab's current page.
// Returns false if the tab is unknown.
func (r *Registry) SetIndexedURL(tabID int, indexedURL string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	tab, ok := r.tabs[tabID]
	if !ok {
		return false
	}
	tab.IndexedURL = indexedURL
	r.tabs[tabID] = tab
	return true
}

// Close forgets tabID. Returns false if it was not open.
func (r *Registry) Close(tabID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tabs[tabID]
	delete(r.tabs, tabID)
	return ok
}

// URL returns the URL tabID shows.
func (r *Registry) URL(tabID int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tab, ok := r.tabs[tabID]
	return tab.FullURL, ok
}

// List returns the open tabs ordered by ID.
func (r *Registry) List() []Tab {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tab, 0, len(r.tabs))
	for _, tab := range r.tabs {
		out = append(out, tab)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindTabIDByFullURL returns the lowest tab ID showing fullURL, matching
// either the shown or the indexed URL after normalisation. Returns 0 if no
// tab matches.
func (r *Registry) FindTabIDByFullURL(_ context.Context, fullURL string) (int, error) {
	want := urlnorm.Normalize(fullURL)
	if want == "" {
		return 0, nil
	}
	for _, tab := range r.List() {
		if urlnorm.Normalize(tab.FullURL) == want {
			return tab.ID, nil
		}
		if tab.IndexedURL != "" && urlnorm.Normalize(tab.IndexedURL) == want {
			return tab.ID, nil
		}
	}
	return 0, nil
}
