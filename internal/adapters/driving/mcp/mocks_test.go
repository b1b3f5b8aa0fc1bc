package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driving"
)

// mockPageIndexingService is a mock implementation of driving.PageIndexingService.
type mockPageIndexingService struct {
	identifier domain.ContentIdentifier
	info       *domain.ContentInfo
	locators   []domain.Locator
	title      string
	fps        []domain.Fingerprint
	indexed    bool
	err        error

	initParams  driving.InitContentIdentifierParams
	waitParams  driving.WaitForContentIdentifierParams
	indexProps  domain.PageCreationProps
	indexOpts   domain.PageCreationOpts
	visitURL    string
	visitTime   time.Time
	interaction domain.VisitInteraction
	closedTab   int
	lookupURL   string
	pageData    domain.PageData
	pageVisits  []time.Time
	pageOpts    domain.PageCreationOpts
	favIconURL  string
	favIconData string
	fpsID       domain.ContentIdentifier
	tabPageID   int
	tabPageURL  string
}

var _ driving.PageIndexingService = (*mockPageIndexingService)(nil)

func (m *mockPageIndexingService) InitContentIdentifier(
	_ context.Context,
	params driving.InitContentIdentifierParams,
) (domain.ContentIdentifier, error) {
	m.initParams = params
	return m.identifier, m.err
}

func (m *mockPageIndexingService) WaitForContentIdentifier(
	_ context.Context,
	params driving.WaitForContentIdentifierParams,
) (domain.ContentIdentifier, error) {
	m.waitParams = params
	return m.identifier, m.err
}

func (m *mockPageIndexingService) IndexPage(
	_ context.Context,
	props domain.PageCreationProps,
	opts domain.PageCreationOpts,
) (*driving.IndexPageResult, error) {
	m.indexProps = props
	m.indexOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return &driving.IndexPageResult{FullURL: m.identifier.FullURL}, nil
}

func (m *mockPageIndexingService) IndexTestPage(_ context.Context, _ domain.PageCreationProps) error {
	return m.err
}

func (m *mockPageIndexingService) AddPage(_ context.Context, data domain.PageData, visits []time.Time) error {
	m.pageData = data
	m.pageVisits = visits
	return m.err
}

func (m *mockPageIndexingService) CreateOrUpdatePage(
	_ context.Context,
	data domain.PageData,
	opts domain.PageCreationOpts,
) error {
	m.pageData = data
	m.pageOpts = opts
	return m.err
}

func (m *mockPageIndexingService) AddVisit(_ context.Context, _ string, _ time.Time) error {
	return m.err
}

func (m *mockPageIndexingService) UpdateVisitMetadata(
	_ context.Context,
	fullURL string,
	at time.Time,
	data domain.VisitInteraction,
) error {
	m.visitURL = fullURL
	m.visitTime = at
	m.interaction = data
	return m.err
}

func (m *mockPageIndexingService) DeletePages(_ context.Context, _ []string) error {
	return m.err
}

func (m *mockPageIndexingService) DeletePagesByDomain(_ context.Context, _ string) error {
	return m.err
}

func (m *mockPageIndexingService) AddFavIcon(_ context.Context, fullURL, dataURI string) error {
	m.favIconURL = fullURL
	m.favIconData = dataURI
	return m.err
}

func (m *mockPageIndexingService) DomainHasFavIcon(_ context.Context, _ string) (bool, error) {
	return false, m.err
}

func (m *mockPageIndexingService) LookupPageTitleForURL(_ context.Context, fullURL string) (string, error) {
	m.lookupURL = fullURL
	return m.title, m.err
}

func (m *mockPageIndexingService) GetContentFingerprints(
	_ context.Context,
	identifier domain.ContentIdentifier,
) ([]domain.Fingerprint, error) {
	m.fpsID = identifier
	return m.fps, m.err
}

func (m *mockPageIndexingService) FindLocatorsByNormalizedURL(_ context.Context, _ string) ([]domain.Locator, error) {
	return m.locators, m.err
}

func (m *mockPageIndexingService) StoreLocators(_ context.Context, _ domain.ContentIdentifier) error {
	return m.err
}

func (m *mockPageIndexingService) GetContentInfo(_ context.Context, _ string) (*domain.ContentInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

func (m *mockPageIndexingService) HandleTabClose(_ context.Context, tabID int) error {
	m.closedTab = tabID
	return m.err
}

func (m *mockPageIndexingService) MarkTabPageIndexed(_ context.Context, tabID int, fullURL string) error {
	m.tabPageID = tabID
	m.tabPageURL = fullURL
	return m.err
}

func (m *mockPageIndexingService) IsTabPageIndexed(_ context.Context, tabID int, fullURL string) (bool, error) {
	m.tabPageID = tabID
	m.tabPageURL = fullURL
	return m.indexed, m.err
}

// mockTabs records tab events.
type mockTabs struct {
	opened  map[int]string
	indexed map[int]string
	closed  []int
}

func newMockTabs() *mockTabs {
	return &mockTabs{opened: map[int]string{}, indexed: map[int]string{}}
}

func (m *mockTabs) Open(tabID int, fullURL string) {
	m.opened[tabID] = fullURL
}

func (m *mockTabs) SetIndexedURL(tabID int, indexedURL string) bool {
	m.indexed[tabID] = indexedURL
	return true
}

func (m *mockTabs) Close(tabID int) bool {
	m.closed = append(m.closed, tabID)
	return true
}
