package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/custodia-labs/pagekeep/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driving"
	"github.com/custodia-labs/pagekeep/internal/core/services"
)

// stubPageIndexing implements the calls the commands make. Methods not
// overridden panic through the nil embedded interface.
type stubPageIndexing struct {
	driving.PageIndexingService

	identifier domain.ContentIdentifier
	info       *domain.ContentInfo
	locators   []domain.Locator
	title      string
	err        error

	initParams     driving.InitContentIdentifierParams
	indexProps     domain.PageCreationProps
	indexOpts      domain.PageCreationOpts
	testIndexed    bool
	visitedURL     string
	visitTime      time.Time
	interaction    *domain.VisitInteraction
	deleted        []string
	deletedDomain  string
	storedLocators domain.ContentIdentifier
}

func (s *stubPageIndexing) InitContentIdentifier(
	_ context.Context,
	params driving.InitContentIdentifierParams,
) (domain.ContentIdentifier, error) {
	s.initParams = params
	return s.identifier, s.err
}

func (s *stubPageIndexing) IndexPage(
	_ context.Context,
	props domain.PageCreationProps,
	opts domain.PageCreationOpts,
) (*driving.IndexPageResult, error) {
	s.indexProps = props
	s.indexOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return &driving.IndexPageResult{FullURL: s.identifier.FullURL}, nil
}

func (s *stubPageIndexing) IndexTestPage(_ context.Context, props domain.PageCreationProps) error {
	s.indexProps = props
	s.testIndexed = true
	return s.err
}

func (s *stubPageIndexing) LookupPageTitleForURL(_ context.Context, _ string) (string, error) {
	return s.title, s.err
}

func (s *stubPageIndexing) GetContentInfo(_ context.Context, _ string) (*domain.ContentInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.info, nil
}

func (s *stubPageIndexing) FindLocatorsByNormalizedURL(_ context.Context, _ string) ([]domain.Locator, error) {
	return s.locators, s.err
}

func (s *stubPageIndexing) StoreLocators(_ context.Context, id domain.ContentIdentifier) error {
	s.storedLocators = id
	return s.err
}

func (s *stubPageIndexing) AddVisit(_ context.Context, fullURL string, at time.Time) error {
	s.visitedURL = fullURL
	s.visitTime = at
	return s.err
}

func (s *stubPageIndexing) UpdateVisitMetadata(
	_ context.Context,
	fullURL string,
	at time.Time,
	data domain.VisitInteraction,
) error {
	s.visitedURL = fullURL
	s.visitTime = at
	s.interaction = &data
	return s.err
}

func (s *stubPageIndexing) DeletePages(_ context.Context, urls []string) error {
	s.deleted = urls
	return s.err
}

func (s *stubPageIndexing) DeletePagesByDomain(_ context.Context, domainName string) error {
	s.deletedDomain = domainName
	return s.err
}

// setupTestServices installs a stub page indexing service and an in-memory
// settings service. The returned cleanup restores state and flag values.
func setupTestServices() (*stubPageIndexing, func()) {
	stub := &stubPageIndexing{}
	SetServices(Services{
		Settings:     services.NewSettingsService(memory.NewConfigStore()),
		PageIndexing: stub,
	})
	return stub, func() {
		SetServices(Services{})
		resetFlags()
	}
}

func resetFlags() {
	resolveFormat = string(domain.LocatorFormatHTML)
	resolveFingerprints = nil
	resolveTabID = 0
	resolveJSON = false
	indexTitle = ""
	indexNoVisit = false
	indexInbox = false
	indexTest = false
	pageJSON = false
	visitAt = ""
	visitDuration = 0
	visitScroll = -1
	deleteDomain = ""
	rootCmd.SetArgs(nil)
	rootCmd.SetIn(nil)
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
