package domain

import (
	"strings"
	"time"
)

// Page is an indexed page record, keyed by its canonical normalized URL.
type Page struct {
	// URL is the normalized URL and primary key.
	URL string

	// FullURL is the URL as first seen (or the base locator URL for PDFs).
	FullURL string

	Domain    string
	Hostname  string
	FullTitle string
	Text      string

	// Terms are the search terms derived from Text and FullTitle.
	Terms []string

	// Aliases are other normalized URLs known to refer to this page.
	Aliases []string

	// Meta holds optional schema fields (see PageMetaFields).
	Meta map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PageMetaFields are optional fields the pages schema accepts besides the
// struct fields of Page.
var PageMetaFields = map[string]bool{
	"lang":         true,
	"description":  true,
	"canonicalUrl": true,
	"keywords":     true,
	"author":       true,
}

// IsRegisteredPageField reports whether the pages schema stores name.
// Term index fields (suffix "Terms") are always accepted.
func IsRegisteredPageField(name string) bool {
	return PageMetaFields[name] || strings.HasSuffix(name, "Terms")
}

// PageData is the output of the extraction pipeline for one page.
type PageData struct {
	URL        string
	FullURL    string
	Domain     string
	Hostname   string
	FullTitle  string
	Text       string
	Terms      []string
	FavIconURI string

	// Extra carries fields produced upstream; unregistered ones are dropped
	// before storage.
	Extra map[string]string
}

// ToPage converts pipeline output into a page record.
func (d PageData) ToPage() Page {
	p := Page{
		URL:       d.URL,
		FullURL:   d.FullURL,
		Domain:    d.Domain,
		Hostname:  d.Hostname,
		FullTitle: d.FullTitle,
		Text:      d.Text,
		Terms:     d.Terms,
	}
	if len(d.Extra) > 0 {
		p.Meta = make(map[string]string, len(d.Extra))
		for k, v := range d.Extra {
			p.Meta[k] = v
		}
	}
	return p
}

// PageFromRecord turns a stored page back into pipeline data.
func PageFromRecord(p *Page) PageData {
	return PageData{
		URL:       p.URL,
		FullURL:   p.FullURL,
		Domain:    p.Domain,
		Hostname:  p.Hostname,
		FullTitle: p.FullTitle,
		Text:      p.Text,
		Terms:     p.Terms,
		Extra:     p.Meta,
	}
}

// Visit records a page being viewed at a point in time.
type Visit struct {
	URL        string
	Time       time.Time
	Duration   time.Duration
	ScrollPerc float64
}

// VisitInteraction carries metadata updates for an existing visit.
type VisitInteraction struct {
	Duration   *time.Duration
	ScrollPerc *float64
}

// FavIcon is the favicon stored per hostname.
type FavIcon struct {
	Hostname string
	DataURI  string
}

// StoredContentType describes the shape of persisted document content.
type StoredContentType string

// Stored content types.
const (
	StoredContentHTMLBody   StoredContentType = "html-body"
	StoredContentPDFContent StoredContentType = "pdf-content"
)

// PDFContent is the persisted extraction of a PDF.
type PDFContent struct {
	Metadata  map[string]string `json:"metadata"`
	PageTexts []string          `json:"pageTexts"`
}

// StoredContent is full document content kept for later re-processing.
type StoredContent struct {
	NormalizedURL string
	Type          StoredContentType
	HTMLBody      string
	PDF           *PDFContent
}

// PDFMetadata describes a PDF as produced by extraction.
type PDFMetadata struct {
	Fingerprints []string
	Title        string
	Author       string
	Fields       map[string]string
}

// ExtractedPDF is the result of fetching and analysing a PDF.
type ExtractedPDF struct {
	Title     string
	FullText  string
	Metadata  PDFMetadata
	PageTexts []string
}

// ExtractedPage is the result of analysing an HTML page.
type ExtractedPage struct {
	Title      string
	FullText   string
	HTMLBody   string
	FavIconURI string
	Meta       map[string]string
}

// TabAnalysis is what content extraction returns for a page open in a tab.
type TabAnalysis struct {
	ExtractedPage
	PDF *ExtractedPDF
}

// PageCreationProps describes a request to index a page.
type PageCreationProps struct {
	FullURL string

	// TabID is the tab showing the page, zero when unknown.
	TabID int

	// VisitTime records a visit when non-zero.
	VisitTime time.Time

	// PageTitle is a title derived in-page by the content script.
	PageTitle string

	SkipUpdatePageCount bool
}

// PageCreationOpts modifies create-or-update behaviour.
type PageCreationOpts struct {
	AddInboxEntryOnCreate bool
}
