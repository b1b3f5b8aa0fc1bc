package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driven"
)

// Ensure PageStore implements the interface.
var _ driven.PageStore = (*PageStore)(nil)

// PageStore is an in-memory implementation of driven.PageStore.
type PageStore struct {
	mu         sync.RWMutex
	pages      map[string]domain.Page
	visits     map[string][]domain.Visit
	locators   map[string][]domain.Locator
	identities map[string]domain.ContentIdentifier
	favIcons   map[string]domain.FavIcon
}

// NewPageStore creates a new in-memory page store.
func NewPageStore() *PageStore {
	return &PageStore{
		pages:      make(map[string]domain.Page),
		visits:     make(map[string][]domain.Visit),
		locators:   make(map[string][]domain.Locator),
		identities: make(map[string]domain.ContentIdentifier),
		favIcons:   make(map[string]domain.FavIcon),
	}
}

// ==================== Identity ====================

// GetContentIdentifier finds the stored identity owning any of fingerprints.
func (s *PageStore) GetContentIdentifier(
	_ context.Context,
	fingerprints []domain.Fingerprint,
) (*domain.StoredIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, fp := range fingerprints {
		for _, normalizedURL := range s.sortedLocatorOwners() {
			for _, loc := range s.locators[normalizedURL] {
				if !loc.MatchesFingerprint(fp) {
					continue
				}
				return &domain.StoredIdentity{
					Identifier: s.identities[normalizedURL],
					Locators:   append([]domain.Locator(nil), s.locators[normalizedURL]...),
				}, nil
			}
		}
	}
	return nil, nil
}

// StoreLocators records locators for identifier, skipping ones already stored.
func (s *PageStore) StoreLocators(
	_ context.Context,
	identifier domain.ContentIdentifier,
	locators []domain.Locator,
) error {
	if identifier.NormalizedURL == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.identities[identifier.NormalizedURL] = identifier
	stored := s.locators[identifier.NormalizedURL]
	for _, loc := range locators {
		if containsLocator(stored, loc) {
			continue
		}
		loc.NormalizedURL = identifier.NormalizedURL
		if loc.ID == "" {
			loc.ID = uuid.New().String()
		}
		stored = append(stored, loc)
	}
	s.locators[identifier.NormalizedURL] = stored
	return nil
}

// FindLocatorsByNormalizedURL returns the locators owned by normalizedURL.
func (s *PageStore) FindLocatorsByNormalizedURL(_ context.Context, normalizedURL string) ([]domain.Locator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Locator(nil), s.locators[normalizedURL]...), nil
}

// sortedLocatorOwners must be called with mu held.
func (s *PageStore) sortedLocatorOwners() []string {
	owners := make([]string, 0, len(s.locators))
	for normalizedURL := range s.locators {
		owners = append(owners, normalizedURL)
	}
	sort.Strings(owners)
	return owners
}

func containsLocator(stored []domain.Locator, loc domain.Locator) bool {
	for _, existing := range stored {
		if existing.Fingerprint == loc.Fingerprint &&
			existing.FingerprintScheme == loc.FingerprintScheme &&
			existing.OriginalLocation == loc.OriginalLocation {
			return true
		}
	}
	return false
}

// ==================== Pages ====================

// GetPage retrieves a page by normalized URL.
func (s *PageStore) GetPage(_ context.Context, normalizedURL string) (*domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page, ok := s.pages[normalizedURL]
	if !ok {
		return nil, nil
	}
	return clonePage(page), nil
}

// PageExists reports whether a page is stored under normalizedURL.
func (s *PageStore) PageExists(_ context.Context, normalizedURL string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pages[normalizedURL]
	return ok, nil
}

// CreatePage stores a new page.
func (s *PageStore) CreatePage(_ context.Context, page *domain.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[page.URL]; ok {
		return domain.ErrAlreadyExists
	}
	s.pages[page.URL] = *clonePage(*page)
	return nil
}

// UpdatePage replaces a stored page.
func (s *PageStore) UpdatePage(_ context.Context, page *domain.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[page.URL]; !ok {
		return domain.ErrNotFound
	}
	s.pages[page.URL] = *clonePage(*page)
	return nil
}

// CreatePageIfNotExists stores page unless its URL is taken.
func (s *PageStore) CreatePageIfNotExists(_ context.Context, page *domain.Page) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[page.URL]; ok {
		return false, nil
	}
	s.pages[page.URL] = *clonePage(*page)
	return true, nil
}

// DeletePages removes pages with their visits and locators.
func (s *PageStore) DeletePages(_ context.Context, normalizedURLs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, normalizedURL := range normalizedURLs {
		s.deletePage(normalizedURL)
	}
	return nil
}

// DeletePagesByDomain removes every page of domainName.
func (s *PageStore) DeletePagesByDomain(_ context.Context, domainName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for normalizedURL, page := range s.pages {
		if page.Domain == domainName {
			s.deletePage(normalizedURL)
		}
	}
	return nil
}

// deletePage must be called with mu held.
func (s *PageStore) deletePage(normalizedURL string) {
	delete(s.pages, normalizedURL)
	delete(s.visits, normalizedURL)
	delete(s.locators, normalizedURL)
	delete(s.identities, normalizedURL)
}

// ==================== Visits ====================

// AddVisit records a visit to a stored page.
func (s *PageStore) AddVisit(_ context.Context, visit domain.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[visit.URL]; !ok {
		return domain.ErrNotFound
	}
	s.visits[visit.URL] = append(s.visits[visit.URL], visit)
	return nil
}

// UpdateVisit applies interaction metadata to the visit at time at.
func (s *PageStore) UpdateVisit(
	_ context.Context,
	normalizedURL string,
	at time.Time,
	data domain.VisitInteraction,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	visits := s.visits[normalizedURL]
	for i := range visits {
		if !visits[i].Time.Equal(at) {
			continue
		}
		if data.Duration != nil {
			visits[i].Duration = *data.Duration
		}
		if data.ScrollPerc != nil {
			visits[i].ScrollPerc = *data.ScrollPerc
		}
		return nil
	}
	return domain.ErrNotFound
}

// ListVisits returns the visits of a page ordered by time.
func (s *PageStore) ListVisits(_ context.Context, normalizedURL string) ([]domain.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	visits := append([]domain.Visit(nil), s.visits[normalizedURL]...)
	sort.Slice(visits, func(i, j int) bool {
		return visits[i].Time.Before(visits[j].Time)
	})
	return visits, nil
}

// ==================== Favicons ====================

// GetFavIcon retrieves the favicon of hostname.
func (s *PageStore) GetFavIcon(_ context.Context, hostname string) (*domain.FavIcon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	icon, ok := s.favIcons[hostname]
	if !ok {
		return nil, nil
	}
	return &icon, nil
}

// SaveFavIcon stores or replaces a favicon.
func (s *PageStore) SaveFavIcon(_ context.Context, icon domain.FavIcon) error {
	if icon.Hostname == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favIcons[icon.Hostname] = icon
	return nil
}

func clonePage(p domain.Page) *domain.Page {
	out := p
	out.Terms = append([]string(nil), p.Terms...)
	out.Aliases = append([]string(nil), p.Aliases...)
	if p.Meta != nil {
		out.Meta = make(map[string]string, len(p.Meta))
		for k, v := range p.Meta {
			out.Meta[k] = v
		}
	}
	return &out
}
