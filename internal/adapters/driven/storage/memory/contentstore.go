package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driven"
)

// Ensure ContentStore implements the interface.
var _ driven.ContentStore = (*ContentStore)(nil)

// ContentStore is an in-memory implementation of driven.ContentStore.
type ContentStore struct {
	mu       sync.RWMutex
	contents map[string]domain.StoredContent
}

// NewContentStore creates a new in-memory content store.
func NewContentStore() *ContentStore {
	return &ContentStore{
		contents: make(map[string]domain.StoredContent),
	}
}

// SaveContent stores or replaces content.
func (s *ContentStore) SaveContent(_ context.Context, content domain.StoredContent) error {
	if content.NormalizedURL == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contents[content.NormalizedURL] = content
	return nil
}

// GetContent retrieves stored content.
func (s *ContentStore) GetContent(_ context.Context, normalizedURL string) (*domain.StoredContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.contents[normalizedURL]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &content, nil
}
