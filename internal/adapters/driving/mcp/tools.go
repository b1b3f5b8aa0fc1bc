package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driving"
	"github.com/custodia-labs/pagekeep/internal/urlnorm"
)

// FingerprintInput is one content fingerprint.
type FingerprintInput struct {
	Scheme string `json:"scheme" jsonschema:"fingerprint scheme: pdf-v1 or sha256"`
	Value  string `json:"value" jsonschema:"the fingerprint value"`
}

// InitContentIdentifierInput is the input schema for init_content_identifier.
type InitContentIdentifierInput struct {
	TabID            int                `json:"tab_id,omitempty" jsonschema:"tab showing the page, 0 when unknown"`
	OriginalLocation string             `json:"original_location" jsonschema:"the URL the content was observed at"`
	Format           string             `json:"format,omitempty" jsonschema:"html or pdf (default html)"`
	Fingerprints     []FingerprintInput `json:"fingerprints,omitempty" jsonschema:"content fingerprints, empty for regular pages"`
}

// IdentifierOutput is a content identifier.
type IdentifierOutput struct {
	NormalizedURL string `json:"normalized_url"`
	FullURL       string `json:"full_url"`
}

// WaitForContentIdentifierInput is the input schema for wait_for_content_identifier.
type WaitForContentIdentifierInput struct {
	TabID     int    `json:"tab_id" jsonschema:"tab showing the page"`
	FullURL   string `json:"full_url" jsonschema:"the URL the tab shows"`
	TimeoutMS int    `json:"timeout_ms,omitempty" jsonschema:"wait timeout in milliseconds (default from settings)"`
}

// IndexPageInput is the input schema for index_page.
type IndexPageInput struct {
	FullURL             string `json:"full_url" jsonschema:"URL of the page to index"`
	TabID               int    `json:"tab_id,omitempty" jsonschema:"tab showing the page, 0 to fetch the URL"`
	PageTitle           string `json:"page_title,omitempty" jsonschema:"title derived in-page"`
	VisitTime           string `json:"visit_time,omitempty" jsonschema:"RFC 3339 time of a visit to record"`
	SkipUpdatePageCount bool   `json:"skip_update_page_count,omitempty" jsonschema:"do not count this page"`
	AddInboxEntry       bool   `json:"add_inbox_entry,omitempty" jsonschema:"file newly created pages into the inbox"`
}

// IndexPageOutput is the output schema for index_page.
type IndexPageOutput struct {
	FullURL string `json:"full_url"`
}

// URLInput is the input schema for tools taking a single URL.
type URLInput struct {
	FullURL string `json:"full_url" jsonschema:"URL of the page"`
}

// LookupPageTitleOutput is the output schema for lookup_page_title.
type LookupPageTitleOutput struct {
	Title string `json:"title"`
	Found bool   `json:"found"`
}

// LocatorOutput describes where content was observed.
type LocatorOutput struct {
	Format            string `json:"format"`
	OriginalLocation  string `json:"original_location"`
	LocationType      string `json:"location_type"`
	Fingerprint       string `json:"fingerprint"`
	FingerprintScheme string `json:"fingerprint_scheme"`
	LastVisited       string `json:"last_visited,omitempty"`
}

// ContentInfoOutput is the output schema for get_content_info.
type ContentInfoOutput struct {
	Found    bool               `json:"found"`
	AsOf     string             `json:"as_of,omitempty"`
	Primary  IdentifierOutput   `json:"primary"`
	Aliases  []IdentifierOutput `json:"aliases,omitempty"`
	Locators []LocatorOutput    `json:"locators,omitempty"`
}

// UpdateVisitInput is the input schema for update_visit.
type UpdateVisitInput struct {
	FullURL    string   `json:"full_url" jsonschema:"URL of the visited page"`
	Time       string   `json:"time" jsonschema:"RFC 3339 time of the visit"`
	DurationMS *int64   `json:"duration_ms,omitempty" jsonschema:"time spent on the page in milliseconds"`
	ScrollPerc *float64 `json:"scroll_perc,omitempty" jsonschema:"furthest scroll position, 0 to 1"`
}

// TabInput is the input schema for tab events.
type TabInput struct {
	TabID   int    `json:"tab_id" jsonschema:"the tab"`
	FullURL string `json:"full_url,omitempty" jsonschema:"URL the tab shows (tab_opened only)"`
}

// PageInput is the input schema for add_page and upsert_page.
type PageInput struct {
	FullURL       string            `json:"full_url" jsonschema:"URL of the page"`
	Title         string            `json:"title,omitempty" jsonschema:"page title"`
	Text          string            `json:"text,omitempty" jsonschema:"readable page text"`
	Meta          map[string]string `json:"meta,omitempty" jsonschema:"optional fields such as lang, description, author"`
	VisitTimes    []string          `json:"visit_times,omitempty" jsonschema:"RFC 3339 visit times (add_page only, default now)"`
	AddInboxEntry bool              `json:"add_inbox_entry,omitempty" jsonschema:"file newly created pages into the inbox (upsert_page only)"`
}

// FavIconInput is the input schema for add_fav_icon.
type FavIconInput struct {
	FullURL string `json:"full_url" jsonschema:"any URL of the host the icon belongs to"`
	DataURI string `json:"data_uri" jsonschema:"the icon as a data: URI"`
}

// FingerprintsOutput is the output schema for get_content_fingerprints.
type FingerprintsOutput struct {
	Fingerprints []FingerprintInput `json:"fingerprints"`
}

// TabPageInput is the input schema for the indexed-tab-page tools.
type TabPageInput struct {
	TabID   int    `json:"tab_id" jsonschema:"the tab"`
	FullURL string `json:"full_url" jsonschema:"URL of the page the tab shows"`
}

// TabPageIndexedOutput is the output schema for is_tab_page_indexed.
type TabPageIndexedOutput struct {
	Indexed bool `json:"indexed"`
}

// AckOutput acknowledges a command.
type AckOutput struct {
	OK bool `json:"ok"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "init_content_identifier",
		Description: "Resolve the canonical identifier of content observed at a location and release waiters on the tab",
	}, s.handleInitContentIdentifier)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wait_for_content_identifier",
		Description: "Wait until the identifier of the page a tab shows is resolved",
	}, s.handleWaitForContentIdentifier)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_page",
		Description: "Extract and store a page, optionally recording a visit",
	}, s.handleIndexPage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "lookup_page_title",
		Description: "Return the stored title of a page",
	}, s.handleLookupPageTitle)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_content_info",
		Description: "Return the cached content info (primary identifier, aliases, locators) for a URL",
	}, s.handleGetContentInfo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_visit",
		Description: "Record time spent and scroll position for an existing visit",
	}, s.handleUpdateVisit)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "tab_opened",
		Description: "Report that a tab navigated to a URL",
	}, s.handleTabOpened)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "tab_closed",
		Description: "Report that a tab closed; forgets everything tracked for it",
	}, s.handleTabClosed)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_page",
		Description: "Store already extracted page data and record its visits",
	}, s.handleAddPage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "upsert_page",
		Description: "Create or update a page under its canonical URL without recording a visit",
	}, s.handleUpsertPage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_fav_icon",
		Description: "Store or replace the favicon of a URL's host",
	}, s.handleAddFavIcon)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_content_fingerprints",
		Description: "Return the fingerprints known for the content at a URL",
	}, s.handleGetContentFingerprints)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mark_tab_page_indexed",
		Description: "Record that the page a tab shows has been indexed",
	}, s.handleMarkTabPageIndexed)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "is_tab_page_indexed",
		Description: "Report whether the page a tab shows has been indexed",
	}, s.handleIsTabPageIndexed)
}

// handleInitContentIdentifier handles the init_content_identifier tool invocation.
func (s *Server) handleInitContentIdentifier(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input InitContentIdentifierInput,
) (*mcp.CallToolResult, IdentifierOutput, error) {
	format := domain.LocatorFormat(input.Format)
	if format == "" {
		format = domain.LocatorFormatHTML
	}

	fingerprints := make([]domain.Fingerprint, 0, len(input.Fingerprints))
	for _, fp := range input.Fingerprints {
		fingerprints = append(fingerprints, domain.Fingerprint{
			Scheme: domain.FingerprintScheme(fp.Scheme),
			Value:  fp.Value,
		})
	}

	id, err := s.ports.PageIndexing.InitContentIdentifier(ctx, driving.InitContentIdentifierParams{
		Locator: domain.LocatorParams{
			Format:           format,
			OriginalLocation: input.OriginalLocation,
		},
		Fingerprints: fingerprints,
		TabID:        input.TabID,
	})
	if err != nil {
		return nil, IdentifierOutput{}, err
	}

	if s.ports.Tabs != nil && input.TabID != 0 && id.FullURL != input.OriginalLocation {
		s.ports.Tabs.SetIndexedURL(input.TabID, id.FullURL)
	}
	return nil, identifierOutput(id), nil
}

// handleWaitForContentIdentifier handles the wait_for_content_identifier tool invocation.
func (s *Server) handleWaitForContentIdentifier(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input WaitForContentIdentifierInput,
) (*mcp.CallToolResult, IdentifierOutput, error) {
	id, err := s.ports.PageIndexing.WaitForContentIdentifier(ctx, driving.WaitForContentIdentifierParams{
		TabID:   input.TabID,
		FullURL: input.FullURL,
		Timeout: time.Duration(input.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return nil, IdentifierOutput{}, err
	}
	return nil, identifierOutput(id), nil
}

// handleIndexPage handles the index_page tool invocation.
func (s *Server) handleIndexPage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexPageInput,
) (*mcp.CallToolResult, IndexPageOutput, error) {
	visitTime, err := parseOptionalTime(input.VisitTime)
	if err != nil {
		return nil, IndexPageOutput{}, err
	}

	result, err := s.ports.PageIndexing.IndexPage(ctx, domain.PageCreationProps{
		FullURL:             input.FullURL,
		TabID:               input.TabID,
		VisitTime:           visitTime,
		PageTitle:           input.PageTitle,
		SkipUpdatePageCount: input.SkipUpdatePageCount,
	}, domain.PageCreationOpts{AddInboxEntryOnCreate: input.AddInboxEntry})
	if err != nil {
		return nil, IndexPageOutput{}, err
	}
	return nil, IndexPageOutput{FullURL: result.FullURL}, nil
}

// handleLookupPageTitle handles the lookup_page_title tool invocation.
func (s *Server) handleLookupPageTitle(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input URLInput,
) (*mcp.CallToolResult, LookupPageTitleOutput, error) {
	title, err := s.ports.PageIndexing.LookupPageTitleForURL(ctx, input.FullURL)
	if err != nil {
		return nil, LookupPageTitleOutput{}, err
	}
	return nil, LookupPageTitleOutput{Title: title, Found: title != ""}, nil
}

// handleGetContentInfo handles the get_content_info tool invocation.
func (s *Server) handleGetContentInfo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input URLInput,
) (*mcp.CallToolResult, ContentInfoOutput, error) {
	info, err := s.ports.PageIndexing.GetContentInfo(ctx, input.FullURL)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ContentInfoOutput{}, nil
	}
	if err != nil {
		return nil, ContentInfoOutput{}, err
	}

	output := ContentInfoOutput{
		Found:   true,
		AsOf:    info.AsOf.UTC().Format(time.RFC3339),
		Primary: identifierOutput(info.PrimaryIdentifier),
	}
	for _, alias := range info.AliasIdentifiers {
		output.Aliases = append(output.Aliases, identifierOutput(alias))
	}
	for i := range info.Locators {
		output.Locators = append(output.Locators, locatorOutput(&info.Locators[i]))
	}
	return nil, output, nil
}

// handleUpdateVisit handles the update_visit tool invocation.
func (s *Server) handleUpdateVisit(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateVisitInput,
) (*mcp.CallToolResult, AckOutput, error) {
	at, err := parseOptionalTime(input.Time)
	if err != nil {
		return nil, AckOutput{}, err
	}
	if at.IsZero() {
		return nil, AckOutput{}, fmt.Errorf("update visit: time is required: %w", domain.ErrInvalidInput)
	}

	var data domain.VisitInteraction
	if input.DurationMS != nil {
		d := time.Duration(*input.DurationMS) * time.Millisecond
		data.Duration = &d
	}
	data.ScrollPerc = input.ScrollPerc

	if err := s.ports.PageIndexing.UpdateVisitMetadata(ctx, input.FullURL, at, data); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

// handleTabOpened handles the tab_opened tool invocation.
func (s *Server) handleTabOpened(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input TabInput,
) (*mcp.CallToolResult, AckOutput, error) {
	if input.TabID == 0 {
		return nil, AckOutput{}, fmt.Errorf("tab opened: tab_id is required: %w", domain.ErrInvalidInput)
	}
	if s.ports.Tabs != nil {
		s.ports.Tabs.Open(input.TabID, input.FullURL)
	}
	return nil, AckOutput{OK: true}, nil
}

// handleTabClosed handles the tab_closed tool invocation.
func (s *Server) handleTabClosed(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TabInput,
) (*mcp.CallToolResult, AckOutput, error) {
	if err := s.ports.PageIndexing.HandleTabClose(ctx, input.TabID); err != nil {
		return nil, AckOutput{}, err
	}
	if s.ports.Tabs != nil {
		s.ports.Tabs.Close(input.TabID)
	}
	return nil, AckOutput{OK: true}, nil
}

// handleAddPage handles the add_page tool invocation.
func (s *Server) handleAddPage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PageInput,
) (*mcp.CallToolResult, AckOutput, error) {
	visits := make([]time.Time, 0, len(input.VisitTimes))
	for _, v := range input.VisitTimes {
		at, err := parseOptionalTime(v)
		if err != nil {
			return nil, AckOutput{}, err
		}
		if !at.IsZero() {
			visits = append(visits, at)
		}
	}

	if err := s.ports.PageIndexing.AddPage(ctx, pageData(input), visits); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

// handleUpsertPage handles the upsert_page tool invocation.
func (s *Server) handleUpsertPage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PageInput,
) (*mcp.CallToolResult, AckOutput, error) {
	if input.FullURL == "" {
		return nil, AckOutput{}, fmt.Errorf("upsert page: full_url is required: %w", domain.ErrInvalidInput)
	}
	opts := domain.PageCreationOpts{AddInboxEntryOnCreate: input.AddInboxEntry}
	if err := s.ports.PageIndexing.CreateOrUpdatePage(ctx, pageData(input), opts); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

// handleAddFavIcon handles the add_fav_icon tool invocation.
func (s *Server) handleAddFavIcon(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FavIconInput,
) (*mcp.CallToolResult, AckOutput, error) {
	if err := s.ports.PageIndexing.AddFavIcon(ctx, input.FullURL, input.DataURI); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

// handleGetContentFingerprints handles the get_content_fingerprints tool invocation.
func (s *Server) handleGetContentFingerprints(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input URLInput,
) (*mcp.CallToolResult, FingerprintsOutput, error) {
	fingerprints, err := s.ports.PageIndexing.GetContentFingerprints(ctx, domain.ContentIdentifier{
		NormalizedURL: urlnorm.Normalize(input.FullURL),
		FullURL:       input.FullURL,
	})
	if err != nil {
		return nil, FingerprintsOutput{}, err
	}

	output := FingerprintsOutput{Fingerprints: make([]FingerprintInput, 0, len(fingerprints))}
	for _, fp := range fingerprints {
		output.Fingerprints = append(output.Fingerprints, FingerprintInput{
			Scheme: string(fp.Scheme),
			Value:  fp.Value,
		})
	}
	return nil, output, nil
}

// handleMarkTabPageIndexed handles the mark_tab_page_indexed tool invocation.
func (s *Server) handleMarkTabPageIndexed(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TabPageInput,
) (*mcp.CallToolResult, AckOutput, error) {
	if err := s.ports.PageIndexing.MarkTabPageIndexed(ctx, input.TabID, input.FullURL); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

// handleIsTabPageIndexed handles the is_tab_page_indexed tool invocation.
func (s *Server) handleIsTabPageIndexed(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TabPageInput,
) (*mcp.CallToolResult, TabPageIndexedOutput, error) {
	indexed, err := s.ports.PageIndexing.IsTabPageIndexed(ctx, input.TabID, input.FullURL)
	if err != nil {
		return nil, TabPageIndexedOutput{}, err
	}
	return nil, TabPageIndexedOutput{Indexed: indexed}, nil
}

func pageData(input PageInput) domain.PageData {
	data := domain.PageData{
		FullURL:   input.FullURL,
		FullTitle: input.Title,
		Text:      input.Text,
	}
	if len(input.Meta) > 0 {
		data.Extra = make(map[string]string, len(input.Meta))
		for k, v := range input.Meta {
			data.Extra[k] = v
		}
	}
	return data
}

func identifierOutput(id domain.ContentIdentifier) IdentifierOutput {
	return IdentifierOutput{NormalizedURL: id.NormalizedURL, FullURL: id.FullURL}
}

func locatorOutput(loc *domain.Locator) LocatorOutput {
	out := LocatorOutput{
		Format:            string(loc.Format),
		OriginalLocation:  loc.OriginalLocation,
		LocationType:      string(loc.LocationType),
		Fingerprint:       loc.Fingerprint,
		FingerprintScheme: string(loc.FingerprintScheme),
	}
	if !loc.LastVisited.IsZero() {
		out.LastVisited = loc.LastVisited.UTC().Format(time.RFC3339)
	}
	return out
}

func parseOptionalTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", errInvalidTime, value)
	}
	return t, nil
}
