package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

// InitContentIdentifierParams is sent by a content script when a tab shows
// a page, possibly with content fingerprints (PDFs).
type InitContentIdentifierParams struct {
	Locator      domain.LocatorParams
	Fingerprints []domain.Fingerprint

	// TabID is the tab the page is open in, zero when unknown.
	TabID int
}

// WaitForContentIdentifierParams asks for the identifier of a tab's page.
type WaitForContentIdentifierParams struct {
	TabID   int
	FullURL string

	// Timeout overrides the configured wait timeout when positive.
	Timeout time.Duration
}

// IndexPageResult reports where an indexed page ended up.
type IndexPageResult struct {
	// FullURL may differ from the requested URL for PDFs.
	FullURL string
}

// PageIndexingService resolves content identity and indexes pages.
type PageIndexingService interface {
	// InitContentIdentifier resolves the canonical identifier of a page and
	// releases anyone waiting on it for the tab.
	InitContentIdentifier(ctx context.Context, params InitContentIdentifierParams) (domain.ContentIdentifier, error)

	// WaitForContentIdentifier blocks until the tab's page identifier is
	// resolved or the timeout elapses.
	WaitForContentIdentifier(ctx context.Context, params WaitForContentIdentifierParams) (domain.ContentIdentifier, error)

	// IndexPage extracts and stores a page.
	IndexPage(ctx context.Context, props domain.PageCreationProps, opts domain.PageCreationOpts) (*IndexPageResult, error)

	// IndexTestPage stores a bare page record without extraction.
	IndexTestPage(ctx context.Context, props domain.PageCreationProps) error

	// AddPage stores pipeline output and records visits (now if none given).
	AddPage(ctx context.Context, data domain.PageData, visits []time.Time) error

	// CreateOrUpdatePage upserts a page under its canonical URL.
	CreateOrUpdatePage(ctx context.Context, data domain.PageData, opts domain.PageCreationOpts) error

	// AddVisit records a visit to an existing page.
	AddVisit(ctx context.Context, fullURL string, at time.Time) error

	// UpdateVisitMetadata applies interaction data to an existing visit.
	UpdateVisitMetadata(ctx context.Context, fullURL string, at time.Time, data domain.VisitInteraction) error

	// DeletePages removes pages by URL.
	DeletePages(ctx context.Context, urls []string) error

	// DeletePagesByDomain removes every page of a domain.
	DeletePagesByDomain(ctx context.Context, domainName string) error

	// AddFavIcon stores or replaces the favicon for a URL's host.
	AddFavIcon(ctx context.Context, fullURL, dataURI string) error

	// DomainHasFavIcon reports whether a favicon is stored for a URL's host.
	DomainHasFavIcon(ctx context.Context, fullURL string) (bool, error)

	// LookupPageTitleForURL returns the stored title of a page, empty if unknown.
	LookupPageTitleForURL(ctx context.Context, fullURL string) (string, error)

	// GetContentFingerprints returns the fingerprints known for an identifier.
	GetContentFingerprints(ctx context.Context, identifier domain.ContentIdentifier) ([]domain.Fingerprint, error)

	// FindLocatorsByNormalizedURL returns stored locators of a page.
	FindLocatorsByNormalizedURL(ctx context.Context, normalizedURL string) ([]domain.Locator, error)

	// StoreLocators writes the cached locators of identifier to durable storage.
	StoreLocators(ctx context.Context, identifier domain.ContentIdentifier) error

	// GetContentInfo returns a copy of the cached content info for a URL.
	GetContentInfo(ctx context.Context, fullURL string) (*domain.ContentInfo, error)

	// HandleTabClose forgets everything tracked for a tab.
	HandleTabClose(ctx context.Context, tabID int) error

	// MarkTabPageIndexed records that a tab's page has been indexed.
	MarkTabPageIndexed(ctx context.Context, tabID int, fullURL string) error

	// IsTabPageIndexed reports whether a tab's page has been indexed.
	IsTabPageIndexed(ctx context.Context, tabID int, fullURL string) (bool, error)
}
