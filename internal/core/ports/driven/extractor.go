package driven

import (
	"context"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

// TabManager knows which browser tabs are open on which URLs.
type TabManager interface {
	// FindTabIDByFullURL returns the tab showing fullURL, or 0 if none.
	FindTabIDByFullURL(ctx context.Context, fullURL string) (int, error)
}

// ContentExtractor analyses page content.
type ContentExtractor interface {
	// ExtractFromTab analyses the page open in tabID.
	ExtractFromTab(ctx context.Context, tabID int, fullURL string, includeFavIcon bool) (*domain.TabAnalysis, error)

	// FetchPageData fetches fullURL and extracts an HTML page.
	FetchPageData(ctx context.Context, fullURL string) (*domain.ExtractedPage, error)

	// FetchPDFData fetches fullURL and extracts a PDF.
	FetchPDFData(ctx context.Context, fullURL string) (*domain.ExtractedPDF, error)
}

// InboxService files newly indexed pages into the user's inbox.
type InboxService interface {
	CreateInboxEntry(ctx context.Context, fullURL string) error
}

// PageCounter tracks how many pages a user has indexed.
type PageCounter interface {
	Increment(ctx context.Context) error
}
