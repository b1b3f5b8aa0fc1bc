package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

// PageStore persists indexed pages together with their identity evidence.
// Backed by SQLite for durable storage.
type PageStore interface {
	// GetContentIdentifier finds the stored identity owning any of fingerprints.
	// Returns nil and no error if none matches.
	GetContentIdentifier(ctx context.Context, fingerprints []domain.Fingerprint) (*domain.StoredIdentity, error)

	// StoreLocators records locators for identifier. Locators already stored
	// for the same fingerprint and original location are left untouched.
	StoreLocators(ctx context.Context, identifier domain.ContentIdentifier, locators []domain.Locator) error

	// FindLocatorsByNormalizedURL returns the locators owned by normalizedURL.
	FindLocatorsByNormalizedURL(ctx context.Context, normalizedURL string) ([]domain.Locator, error)

	// GetPage retrieves a page by normalized URL.
	// Returns nil and no error if the page does not exist.
	GetPage(ctx context.Context, normalizedURL string) (*domain.Page, error)

	// PageExists reports whether a page is stored under normalizedURL.
	PageExists(ctx context.Context, normalizedURL string) (bool, error)

	// CreatePage stores a new page.
	CreatePage(ctx context.Context, page *domain.Page) error

	// UpdatePage replaces a stored page's content fields.
	UpdatePage(ctx context.Context, page *domain.Page) error

	// CreatePageIfNotExists stores page unless its URL is taken.
	// Returns true if the page was created.
	CreatePageIfNotExists(ctx context.Context, page *domain.Page) (bool, error)

	// DeletePages removes pages, their visits and their locators.
	DeletePages(ctx context.Context, normalizedURLs []string) error

	// DeletePagesByDomain removes every page of a registrable domain.
	DeletePagesByDomain(ctx context.Context, domainName string) error

	// AddVisit records a visit to a stored page.
	AddVisit(ctx context.Context, visit domain.Visit) error

	// UpdateVisit applies interaction metadata to an existing visit.
	UpdateVisit(ctx context.Context, normalizedURL string, at time.Time, data domain.VisitInteraction) error

	// ListVisits returns visits of a page ordered by time.
	ListVisits(ctx context.Context, normalizedURL string) ([]domain.Visit, error)

	// GetFavIcon retrieves the favicon of hostname.
	// Returns nil and no error if none is stored.
	GetFavIcon(ctx context.Context, hostname string) (*domain.FavIcon, error)

	// SaveFavIcon stores or replaces a favicon.
	SaveFavIcon(ctx context.Context, icon domain.FavIcon) error
}

// ContentStore persists full document content for indexed pages.
type ContentStore interface {
	// SaveContent stores or replaces content for content.NormalizedURL.
	SaveContent(ctx context.Context, content domain.StoredContent) error

	// GetContent retrieves stored content.
	// Returns domain.ErrNotFound if nothing is stored.
	GetContent(ctx context.Context, normalizedURL string) (*domain.StoredContent, error)
}
