package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driven"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driving"
	"github.com/custodia-labs/pagekeep/internal/logger"
	"github.com/custodia-labs/pagekeep/internal/metrics"
	"github.com/custodia-labs/pagekeep/internal/urlnorm"
)

// Ensure PageIndexingService implements the interface.
var _ driving.PageIndexingService = (*PageIndexingService)(nil)

// titleOverrideHosts are sites whose document title is unhelpful, so the
// title derived in-page wins.
var titleOverrideHosts = []string{"web.telegram.org/", "x.com/", "twitter.com/"}

// PageIndexingService resolves content identity and stores indexed pages.
type PageIndexingService struct {
	cache       *ContentInfoCache
	resolver    *IdentifierResolver
	coordinator *TabCoordinator

	settingsStore driven.SettingsStore
	pageStore     driven.PageStore
	contentStore  driven.ContentStore
	extractor     driven.ContentExtractor
	tabManager    driven.TabManager
	inbox         driven.InboxService
	pageCounter   driven.PageCounter
	postProcessor driven.PagePostProcessor

	recorder metrics.Recorder
	getNow   func() time.Time

	// tabPagesMu serialises read-modify-write of the indexed tab pages.
	tabPagesMu sync.Mutex
}

// NewPageIndexingService creates a page indexing service.
// The extractor, tabManager, inbox and pageCounter are optional; without an
// extractor IndexPage is unavailable.
func NewPageIndexingService(
	cache *ContentInfoCache,
	resolver *IdentifierResolver,
	coordinator *TabCoordinator,
	settingsStore driven.SettingsStore,
	pageStore driven.PageStore,
	contentStore driven.ContentStore,
	extractor driven.ContentExtractor,
	tabManager driven.TabManager,
	inbox driven.InboxService,
	pageCounter driven.PageCounter,
	recorder metrics.Recorder,
) *PageIndexingService {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &PageIndexingService{
		cache:         cache,
		resolver:      resolver,
		coordinator:   coordinator,
		settingsStore: settingsStore,
		pageStore:     pageStore,
		contentStore:  contentStore,
		extractor:     extractor,
		tabManager:    tabManager,
		inbox:         inbox,
		pageCounter:   pageCounter,
		recorder:      recorder,
		getNow:        time.Now,
	}
}

// SetPostProcessor installs a processor run on page data before storage.
func (s *PageIndexingService) SetPostProcessor(p driven.PagePostProcessor) {
	s.postProcessor = p
}

// InitContentIdentifier resolves the identifier of the observed page. With
// a tab, the outcome is also handed to anyone waiting on that tab's URL.
func (s *PageIndexingService) InitContentIdentifier(
	ctx context.Context,
	params driving.InitContentIdentifierParams,
) (domain.ContentIdentifier, error) {
	var pending *Resolvable
	if params.TabID != 0 {
		pending = s.coordinator.RegisterResolution(params.TabID, params.Locator.OriginalLocation)
	}

	id, err := s.resolver.Resolve(ctx, ResolveRequest{
		Locator:      params.Locator,
		Fingerprints: params.Fingerprints,
	})
	if err != nil {
		return domain.ContentIdentifier{}, err
	}

	if pending != nil {
		pending.Resolve(id)
	}
	return id, nil
}

// WaitForContentIdentifier waits for the identifier of a tab's page.
func (s *PageIndexingService) WaitForContentIdentifier(
	ctx context.Context,
	params driving.WaitForContentIdentifierParams,
) (domain.ContentIdentifier, error) {
	return s.coordinator.AwaitIdentifier(ctx, params.TabID, params.FullURL, params.Timeout)
}

// IndexPage extracts a page, from its tab when one shows it or by fetching
// it otherwise, and stores it. The returned URL differs from the requested
// one for PDFs, which are stored under their base locator URL.
func (s *PageIndexingService) IndexPage(
	ctx context.Context,
	props domain.PageCreationProps,
	opts domain.PageCreationOpts,
) (*driving.IndexPageResult, error) {
	if props.FullURL == "" {
		return nil, fmt.Errorf("index page: empty url: %w", domain.ErrInvalidInput)
	}
	if s.extractor == nil {
		return nil, fmt.Errorf("index page: content extractor not configured")
	}

	// PDFs stored under a base locator URL keep the tab they were given.
	if !urlnorm.IsBaseLocatorURL(s.resolver.BaseLocatorURL(), props.FullURL) {
		tabID, err := s.findTabID(ctx, props.FullURL)
		if err != nil {
			return nil, err
		}
		props.TabID = tabID
	}

	var (
		data     domain.PageData
		existing bool
		err      error
	)
	if props.TabID != 0 {
		data, existing, err = s.pageDataFromTab(ctx, props)
	} else {
		data, existing, err = s.pageDataFromURL(ctx, props)
	}
	if err != nil {
		return nil, err
	}
	if existing {
		logger.Debug("page already indexed: %s", data.URL)
		return &driving.IndexPageResult{FullURL: data.FullURL}, nil
	}

	if props.PageTitle != "" && overridesTitle(props.FullURL) {
		data.FullTitle = props.PageTitle
	}

	id, err := s.upsertPage(ctx, data, opts)
	if err != nil {
		return nil, err
	}

	if !props.VisitTime.IsZero() {
		if err := s.pageStore.AddVisit(ctx, domain.Visit{URL: id.NormalizedURL, Time: props.VisitTime}); err != nil {
			return nil, fmt.Errorf("add visit: %w", err)
		}
	}

	if !props.SkipUpdatePageCount && s.pageCounter != nil {
		if err := s.pageCounter.Increment(ctx); err != nil {
			logger.Warn("update page counter: %v", err)
		}
	}

	return &driving.IndexPageResult{FullURL: id.FullURL}, nil
}

// IndexTestPage stores a page record with no content.
func (s *PageIndexingService) IndexTestPage(ctx context.Context, props domain.PageCreationProps) error {
	if props.FullURL == "" {
		return fmt.Errorf("index test page: empty url: %w", domain.ErrInvalidInput)
	}
	data := buildPageData(props.FullURL, props.FullURL, "", "", nil)
	page := data.ToPage()
	now := s.getNow()
	page.CreatedAt = now
	page.UpdatedAt = now

	if _, err := s.pageStore.CreatePageIfNotExists(ctx, &page); err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	if !props.VisitTime.IsZero() {
		if err := s.pageStore.AddVisit(ctx, domain.Visit{URL: page.URL, Time: props.VisitTime}); err != nil {
			return fmt.Errorf("add visit: %w", err)
		}
	}
	return nil
}

// AddPage stores page data and records a visit at each of visits, or now
// if none are given. Visits already recorded are skipped.
func (s *PageIndexingService) AddPage(ctx context.Context, data domain.PageData, visits []time.Time) error {
	data = completePageData(data)
	if data.URL == "" {
		return fmt.Errorf("add page: empty url: %w", domain.ErrInvalidInput)
	}

	id, err := s.upsertPage(ctx, data, domain.PageCreationOpts{})
	if err != nil {
		return err
	}

	if len(visits) == 0 {
		visits = []time.Time{s.getNow()}
	}
	known, err := s.pageStore.ListVisits(ctx, id.NormalizedURL)
	if err != nil {
		return fmt.Errorf("list visits: %w", err)
	}
	for _, at := range visits {
		if hasVisitAt(known, at) {
			continue
		}
		if err := s.pageStore.AddVisit(ctx, domain.Visit{URL: id.NormalizedURL, Time: at}); err != nil {
			return fmt.Errorf("add visit: %w", err)
		}
	}
	return nil
}

// CreateOrUpdatePage stores page data under its canonical URL.
func (s *PageIndexingService) CreateOrUpdatePage(
	ctx context.Context,
	data domain.PageData,
	opts domain.PageCreationOpts,
) error {
	_, err := s.upsertPage(ctx, completePageData(data), opts)
	return err
}

// upsertPage creates or updates the page and returns the identifier it was
// stored under.
func (s *PageIndexingService) upsertPage(
	ctx context.Context,
	data domain.PageData,
	opts domain.PageCreationOpts,
) (domain.ContentIdentifier, error) {
	favIcon := data.FavIconURI
	if s.postProcessor != nil {
		if err := s.postProcessor.Process(ctx, &data); err != nil {
			return domain.ContentIdentifier{}, fmt.Errorf("post-process %s: %w", data.URL, err)
		}
	}
	data = stripUnregisteredFields(data)

	info, hasInfo, err := s.cache.Get(ctx, data.URL)
	if err != nil {
		return domain.ContentIdentifier{}, err
	}
	if hasInfo {
		data.URL = info.PrimaryIdentifier.NormalizedURL
		data.FullURL = info.PrimaryIdentifier.FullURL
	}
	id := domain.ContentIdentifier{NormalizedURL: data.URL, FullURL: data.FullURL}

	existing, err := s.pageStore.GetPage(ctx, data.URL)
	if err != nil {
		return domain.ContentIdentifier{}, fmt.Errorf("get page: %w", err)
	}

	now := s.getNow()
	if existing != nil {
		page := mergePage(existing, data)
		if hasInfo {
			page.Aliases = unionStrings(page.Aliases, aliasURLs(info))
		}
		page.UpdatedAt = now
		if err := s.pageStore.UpdatePage(ctx, &page); err != nil {
			return domain.ContentIdentifier{}, fmt.Errorf("update page: %w", err)
		}
		s.recorder.ObservePageUpsert(metrics.UpsertUpdate)
	} else {
		page := data.ToPage()
		if hasInfo {
			page.Aliases = aliasURLs(info)
		}
		page.CreatedAt = now
		page.UpdatedAt = now
		if err := s.pageStore.CreatePage(ctx, &page); err != nil {
			return domain.ContentIdentifier{}, fmt.Errorf("create page: %w", err)
		}
		s.recorder.ObservePageUpsert(metrics.UpsertCreate)
	}

	// Locators reference the page, so they are stored once it exists.
	if hasInfo {
		if err := s.StoreLocators(ctx, id); err != nil {
			return domain.ContentIdentifier{}, err
		}
	}

	if opts.AddInboxEntryOnCreate && existing == nil && s.inbox != nil {
		if err := s.inbox.CreateInboxEntry(ctx, data.FullURL); err != nil {
			return domain.ContentIdentifier{}, fmt.Errorf("create inbox entry: %w", err)
		}
	}

	if favIcon != "" {
		hostname := data.Hostname
		if hostname == "" {
			hostname = urlnorm.ExtractParts(data.FullURL).Hostname
		}
		if err := s.addFavIconIfNeeded(ctx, hostname, favIcon); err != nil {
			return domain.ContentIdentifier{}, err
		}
	}

	logger.Debug("stored page %s", data.URL)
	return id, nil
}

// StoreLocators writes the cached locators of identifier to durable storage.
func (s *PageIndexingService) StoreLocators(ctx context.Context, identifier domain.ContentIdentifier) error {
	info, ok, err := s.cache.Get(ctx, identifier.NormalizedURL)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := s.pageStore.StoreLocators(ctx, info.PrimaryIdentifier, info.Locators); err != nil {
		return fmt.Errorf("store locators: %w", err)
	}
	return nil
}

func (s *PageIndexingService) pageDataFromTab(
	ctx context.Context,
	props domain.PageCreationProps,
) (domain.PageData, bool, error) {
	existing, err := s.pageStore.GetPage(ctx, urlnorm.Normalize(props.FullURL))
	if err != nil {
		return domain.PageData{}, false, fmt.Errorf("get page: %w", err)
	}
	if existing != nil {
		return domain.PageFromRecord(existing), true, nil
	}

	// PDFs are addressed by base locator URL; host data comes from where
	// the content was last seen, unless that was a blob. File locations
	// without a host fall back to the base locator host.
	originalURL := props.FullURL
	if urlnorm.PointsToPDF(props.FullURL) {
		info, ok, err := s.cache.Get(ctx, urlnorm.Normalize(props.FullURL))
		if err != nil {
			return domain.PageData{}, false, err
		}
		if !ok || len(info.Locators) == 0 {
			return domain.PageData{}, false, fmt.Errorf("index pdf %s: %w", props.FullURL, domain.ErrMissingContentInfo)
		}
		latest, _ := info.LatestLocator()
		if !urlnorm.IsBlobURL(latest.OriginalLocation) {
			originalURL = latest.OriginalLocation
		}
	}

	hasFavIcon, err := s.DomainHasFavIcon(ctx, props.FullURL)
	if err != nil {
		return domain.PageData{}, false, err
	}
	analysis, err := s.extractor.ExtractFromTab(ctx, props.TabID, props.FullURL, !hasFavIcon)
	if err != nil {
		return domain.PageData{}, false, fmt.Errorf("extract from tab %d: %w", props.TabID, err)
	}

	title, text := analysis.Title, analysis.FullText
	if analysis.PDF != nil {
		if title == "" {
			title = analysis.PDF.Title
		}
		if text == "" {
			text = analysis.PDF.FullText
		}
	}

	data := buildPageData(props.FullURL, originalURL, title, text, analysis.Meta)
	if err := s.storeDocContent(ctx, data.URL, analysis.HTMLBody, analysis.PDF); err != nil {
		return domain.PageData{}, false, err
	}
	if analysis.FavIconURI != "" {
		if err := s.addFavIconIfNeeded(ctx, data.Hostname, analysis.FavIconURI); err != nil {
			return domain.PageData{}, false, err
		}
	}
	return data, false, nil
}

func (s *PageIndexingService) pageDataFromURL(
	ctx context.Context,
	props domain.PageCreationProps,
) (domain.PageData, bool, error) {
	if !urlnorm.PointsToPDF(props.FullURL) {
		normalized := urlnorm.Normalize(props.FullURL)
		existing, err := s.pageStore.GetPage(ctx, normalized)
		if err != nil {
			return domain.PageData{}, false, fmt.Errorf("get page: %w", err)
		}
		if existing != nil {
			return domain.PageFromRecord(existing), true, nil
		}

		page, err := s.extractor.FetchPageData(ctx, props.FullURL)
		if err != nil {
			return domain.PageData{}, false, fmt.Errorf("fetch page: %w", err)
		}
		if err := s.storeDocContent(ctx, normalized, page.HTMLBody, nil); err != nil {
			return domain.PageData{}, false, err
		}

		data := buildPageData(props.FullURL, props.FullURL, page.Title, page.FullText, page.Meta)
		data.FavIconURI = page.FavIconURI
		return data, false, nil
	}

	pdf, err := s.extractor.FetchPDFData(ctx, props.FullURL)
	if err != nil {
		return domain.PageData{}, false, fmt.Errorf("fetch pdf: %w", err)
	}
	fingerprints := make([]domain.Fingerprint, 0, len(pdf.Metadata.Fingerprints))
	for _, fp := range pdf.Metadata.Fingerprints {
		fingerprints = append(fingerprints, domain.Fingerprint{Scheme: domain.FingerprintSchemePDFv1, Value: fp})
	}

	id, err := s.InitContentIdentifier(ctx, driving.InitContentIdentifierParams{
		Locator: domain.LocatorParams{
			Format:           domain.LocatorFormatPDF,
			OriginalLocation: props.FullURL,
		},
		Fingerprints: fingerprints,
	})
	if err != nil {
		return domain.PageData{}, false, err
	}

	existing, err := s.pageStore.GetPage(ctx, id.NormalizedURL)
	if err != nil {
		return domain.PageData{}, false, fmt.Errorf("get page: %w", err)
	}
	if existing != nil {
		return domain.PageFromRecord(existing), true, nil
	}

	if err := s.storeDocContent(ctx, id.NormalizedURL, "", pdf); err != nil {
		return domain.PageData{}, false, err
	}
	return buildPageData(id.FullURL, props.FullURL, pdf.Title, pdf.FullText, nil), false, nil
}

// storeDocContent keeps the HTML body, or failing that the PDF text, of a page.
func (s *PageIndexingService) storeDocContent(
	ctx context.Context,
	normalizedURL string,
	htmlBody string,
	pdf *domain.ExtractedPDF,
) error {
	if s.contentStore == nil {
		return nil
	}

	var content domain.StoredContent
	switch {
	case htmlBody != "":
		content = domain.StoredContent{
			NormalizedURL: normalizedURL,
			Type:          domain.StoredContentHTMLBody,
			HTMLBody:      htmlBody,
		}
	case pdf != nil && len(pdf.PageTexts) > 0:
		metadata := make(map[string]string, len(pdf.Metadata.Fields)+2)
		for k, v := range pdf.Metadata.Fields {
			if v != "" {
				metadata[k] = v
			}
		}
		if pdf.Metadata.Title != "" {
			metadata["title"] = pdf.Metadata.Title
		}
		if pdf.Metadata.Author != "" {
			metadata["author"] = pdf.Metadata.Author
		}
		content = domain.StoredContent{
			NormalizedURL: normalizedURL,
			Type:          domain.StoredContentPDFContent,
			PDF:           &domain.PDFContent{Metadata: metadata, PageTexts: pdf.PageTexts},
		}
	default:
		return nil
	}

	if err := s.contentStore.SaveContent(ctx, content); err != nil {
		return fmt.Errorf("store content: %w", err)
	}
	return nil
}

// findTabID looks for a tab showing fullURL or any location its content
// was seen at.
func (s *PageIndexingService) findTabID(ctx context.Context, fullURL string) (int, error) {
	if s.tabManager == nil {
		return 0, nil
	}

	tabID, err := s.tabManager.FindTabIDByFullURL(ctx, fullURL)
	if err != nil {
		return 0, fmt.Errorf("find tab: %w", err)
	}
	if tabID != 0 {
		return tabID, nil
	}

	info, ok, err := s.cache.Get(ctx, urlnorm.Normalize(fullURL))
	if err != nil || !ok {
		return 0, err
	}
	for _, loc := range info.Locators {
		tabID, err := s.tabManager.FindTabIDByFullURL(ctx, loc.OriginalLocation)
		if err != nil {
			return 0, fmt.Errorf("find tab: %w", err)
		}
		if tabID != 0 {
			return tabID, nil
		}
	}
	return 0, nil
}

// AddVisit records a visit to a stored page. Visiting a page that was never
// stored is an error.
func (s *PageIndexingService) AddVisit(ctx context.Context, fullURL string, at time.Time) error {
	normalized := urlnorm.Normalize(fullURL)
	exists, err := s.pageStore.PageExists(ctx, normalized)
	if err != nil {
		return fmt.Errorf("check page: %w", err)
	}
	if !exists {
		return fmt.Errorf("add visit for %s: %w", fullURL, domain.ErrNotFound)
	}
	if at.IsZero() {
		at = s.getNow()
	}
	if err := s.pageStore.AddVisit(ctx, domain.Visit{URL: normalized, Time: at}); err != nil {
		return fmt.Errorf("add visit: %w", err)
	}
	return nil
}

// UpdateVisitMetadata applies interaction data to an existing visit.
func (s *PageIndexingService) UpdateVisitMetadata(
	ctx context.Context,
	fullURL string,
	at time.Time,
	data domain.VisitInteraction,
) error {
	if err := s.pageStore.UpdateVisit(ctx, urlnorm.Normalize(fullURL), at, data); err != nil {
		return fmt.Errorf("update visit: %w", err)
	}
	return nil
}

// DeletePages removes pages by URL.
func (s *PageIndexingService) DeletePages(ctx context.Context, urls []string) error {
	normalized := make([]string, 0, len(urls))
	for _, u := range urls {
		normalized = append(normalized, urlnorm.Normalize(u))
	}
	if err := s.pageStore.DeletePages(ctx, normalized); err != nil {
		return fmt.Errorf("delete pages: %w", err)
	}
	return nil
}

// DeletePagesByDomain removes every page of domainName.
func (s *PageIndexingService) DeletePagesByDomain(ctx context.Context, domainName string) error {
	if err := s.pageStore.DeletePagesByDomain(ctx, domainName); err != nil {
		return fmt.Errorf("delete pages by domain: %w", err)
	}
	return nil
}

// AddFavIcon stores or replaces the favicon of fullURL's host.
func (s *PageIndexingService) AddFavIcon(ctx context.Context, fullURL, dataURI string) error {
	hostname := urlnorm.ExtractParts(fullURL).Hostname
	if hostname == "" || dataURI == "" {
		return fmt.Errorf("add favicon: %w", domain.ErrInvalidInput)
	}
	if err := s.pageStore.SaveFavIcon(ctx, domain.FavIcon{Hostname: hostname, DataURI: dataURI}); err != nil {
		return fmt.Errorf("save favicon: %w", err)
	}
	return nil
}

// DomainHasFavIcon reports whether a favicon is stored for fullURL's host.
func (s *PageIndexingService) DomainHasFavIcon(ctx context.Context, fullURL string) (bool, error) {
	icon, err := s.pageStore.GetFavIcon(ctx, urlnorm.ExtractParts(fullURL).Hostname)
	if err != nil {
		return false, fmt.Errorf("get favicon: %w", err)
	}
	return icon != nil, nil
}

func (s *PageIndexingService) addFavIconIfNeeded(ctx context.Context, hostname, dataURI string) error {
	if hostname == "" {
		return nil
	}
	icon, err := s.pageStore.GetFavIcon(ctx, hostname)
	if err != nil {
		return fmt.Errorf("get favicon: %w", err)
	}
	if icon != nil {
		return nil
	}
	if err := s.pageStore.SaveFavIcon(ctx, domain.FavIcon{Hostname: hostname, DataURI: dataURI}); err != nil {
		return fmt.Errorf("save favicon: %w", err)
	}
	return nil
}

// LookupPageTitleForURL returns the stored title of a page, or "" if the
// page is unknown.
func (s *PageIndexingService) LookupPageTitleForURL(ctx context.Context, fullURL string) (string, error) {
	page, err := s.pageStore.GetPage(ctx, urlnorm.Normalize(fullURL))
	if err != nil {
		return "", fmt.Errorf("get page: %w", err)
	}
	if page == nil {
		return "", nil
	}
	return page.FullTitle, nil
}

// GetContentFingerprints returns the fingerprints cached for identifier.
func (s *PageIndexingService) GetContentFingerprints(
	ctx context.Context,
	identifier domain.ContentIdentifier,
) ([]domain.Fingerprint, error) {
	info, ok, err := s.cache.Get(ctx, identifier.NormalizedURL)
	if err != nil || !ok {
		return nil, err
	}
	return info.Fingerprints(), nil
}

// FindLocatorsByNormalizedURL returns the stored locators of a page.
func (s *PageIndexingService) FindLocatorsByNormalizedURL(
	ctx context.Context,
	normalizedURL string,
) ([]domain.Locator, error) {
	locators, err := s.pageStore.FindLocatorsByNormalizedURL(ctx, normalizedURL)
	if err != nil {
		return nil, fmt.Errorf("find locators: %w", err)
	}
	return locators, nil
}

// GetContentInfo returns the cached content info for fullURL.
func (s *PageIndexingService) GetContentInfo(ctx context.Context, fullURL string) (*domain.ContentInfo, error) {
	info, ok, err := s.cache.Get(ctx, urlnorm.Normalize(fullURL))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("content info for %s: %w", fullURL, domain.ErrNotFound)
	}
	return info, nil
}

// HandleTabClose forgets the tab's indexed pages and pending identifiers.
func (s *PageIndexingService) HandleTabClose(ctx context.Context, tabID int) error {
	s.coordinator.HandleTabClose(tabID)

	s.tabPagesMu.Lock()
	defer s.tabPagesMu.Unlock()

	indexed, err := s.indexedTabPages(ctx)
	if err != nil {
		return err
	}
	key := strconv.Itoa(tabID)
	if _, ok := indexed[key]; !ok {
		return nil
	}
	delete(indexed, key)
	if err := s.settingsStore.Set(ctx, driven.SettingsKeyIndexedTabPages, indexed); err != nil {
		return fmt.Errorf("save indexed tab pages: %w", err)
	}
	return nil
}

// MarkTabPageIndexed records that the tab's page at fullURL was indexed.
// Without a tab it does nothing.
func (s *PageIndexingService) MarkTabPageIndexed(ctx context.Context, tabID int, fullURL string) error {
	if tabID == 0 {
		return nil
	}

	s.tabPagesMu.Lock()
	defer s.tabPagesMu.Unlock()

	indexed, err := s.indexedTabPages(ctx)
	if err != nil {
		return err
	}
	key := strconv.Itoa(tabID)
	if indexed[key] == nil {
		indexed[key] = make(map[string]bool)
	}
	indexed[key][fullURL] = true
	if err := s.settingsStore.Set(ctx, driven.SettingsKeyIndexedTabPages, indexed); err != nil {
		return fmt.Errorf("save indexed tab pages: %w", err)
	}
	return nil
}

// IsTabPageIndexed reports whether the tab's page at fullURL was indexed.
func (s *PageIndexingService) IsTabPageIndexed(ctx context.Context, tabID int, fullURL string) (bool, error) {
	s.tabPagesMu.Lock()
	defer s.tabPagesMu.Unlock()

	indexed, err := s.indexedTabPages(ctx)
	if err != nil {
		return false, err
	}
	return indexed[strconv.Itoa(tabID)][fullURL], nil
}

func (s *PageIndexingService) indexedTabPages(ctx context.Context) (map[string]map[string]bool, error) {
	var indexed map[string]map[string]bool
	if _, err := s.settingsStore.Get(ctx, driven.SettingsKeyIndexedTabPages, &indexed); err != nil {
		return nil, fmt.Errorf("load indexed tab pages: %w", err)
	}
	if indexed == nil {
		indexed = make(map[string]map[string]bool)
	}
	return indexed, nil
}

func overridesTitle(fullURL string) bool {
	for _, host := range titleOverrideHosts {
		if strings.Contains(fullURL, host) {
			return true
		}
	}
	return false
}

func hasVisitAt(visits []domain.Visit, at time.Time) bool {
	for _, v := range visits {
		if v.Time.Equal(at) {
			return true
		}
	}
	return false
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string(nil), a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
