// Package web extracts page content by fetching URLs over HTTP, or by
// reading file: URLs from disk.
//
// HTML is parsed with golang.org/x/net/html for title, readable text,
// metadata and favicon. PDFs are fingerprinted from their trailer ID, or
// from a SHA-256 digest of their bytes when they carry none. PDF text comes
// from pdftotext when it is installed.
package web

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driven"
	"github.com/custodia-labs/pagekeep/internal/logger"
	"github.com/custodia-labs/pagekeep/internal/urlnorm"
)

// Ensure Extractor implements the interface.
var _ driven.ContentExtractor = (*Extractor)(nil)

// maxFavIconBytes caps favicon downloads.
const maxFavIconBytes = 256 * 1024

// TabURLs reports which URL a browser tab actually shows.
type TabURLs interface {
	URL(tabID int) (string, bool)
}

// Extractor fetches and analyses pages.
type Extractor struct {
	client    *http.Client
	limiter   *rate.Limiter
	maxBytes  int64
	userAgent string
	tabs      TabURLs
	runner    CommandRunner
}

// NewExtractor creates an extractor. tabs may be nil, in which case tab
// extraction fetches the URL it is given.
func NewExtractor(settings domain.FetchSettings, tabs TabURLs) *Extractor {
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultFetchTimeout
	}
	maxBytes := settings.MaxBytes
	if maxBytes <= 0 {
		maxBytes = domain.DefaultFetchMaxBytes
	}
	ratePerSecond := settings.RatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = domain.DefaultFetchRate
	}
	userAgent := settings.UserAgent
	if userAgent == "" {
		userAgent = domain.DefaultFetchUserAgent
	}

	return &Extractor{
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		maxBytes:  int64(maxBytes),
		userAgent: userAgent,
		tabs:      tabs,
		runner:    execRunner{},
	}
}

// ExtractFromTab analyses the page open in tabID. The tab's own URL is
// fetched when known, since a PDF tab is indexed under a synthesized URL.
func (e *Extractor) ExtractFromTab(
	ctx context.Context,
	tabID int,
	fullURL string,
	includeFavIcon bool,
) (*domain.TabAnalysis, error) {
	if tabID == 0 {
		return nil, domain.ErrNoTab
	}

	target := fullURL
	if e.tabs != nil {
		tabURL, ok := e.tabs.URL(tabID)
		if !ok {
			return nil, fmt.Errorf("tab %d: %w", tabID, domain.ErrNoTab)
		}
		target = tabURL
	}

	body, contentType, err := e.fetch(ctx, target, e.maxBytes)
	if err != nil {
		return nil, err
	}

	if isPDF(target, contentType, body) {
		pdf := e.analysePDF(ctx, target, body)
		return &domain.TabAnalysis{
			ExtractedPage: domain.ExtractedPage{Title: pdf.Title, FullText: pdf.FullText},
			PDF:           pdf,
		}, nil
	}

	page, err := analyseHTML(body)
	if err != nil {
		return nil, err
	}
	if includeFavIcon {
		page.FavIconURI = e.favIcon(ctx, target, page.FavIconURI)
	} else {
		page.FavIconURI = ""
	}
	return &domain.TabAnalysis{ExtractedPage: *page}, nil
}

// FetchPageData fetches fullURL and extracts an HTML page.
func (e *Extractor) FetchPageData(ctx context.Context, fullURL string) (*domain.ExtractedPage, error) {
	body, _, err := e.fetch(ctx, fullURL, e.maxBytes)
	if err != nil {
		return nil, err
	}

	page, err := analyseHTML(body)
	if err != nil {
		return nil, err
	}
	page.FavIconURI = e.favIcon(ctx, fullURL, page.FavIconURI)
	return page, nil
}

// FetchPDFData fetches fullURL and extracts a PDF.
func (e *Extractor) FetchPDFData(ctx context.Context, fullURL string) (*domain.ExtractedPDF, error) {
	body, contentType, err := e.fetch(ctx, fullURL, e.maxBytes)
	if err != nil {
		return nil, err
	}
	if !isPDF(fullURL, contentType, body) {
		return nil, fmt.Errorf("fetch pdf %s: not a pdf: %w", fullURL, domain.ErrInvalidInput)
	}
	return e.analysePDF(ctx, fullURL, body), nil
}

// fetch GETs rawURL, honouring the rate limit and the size cap. file: URLs
// are read from disk under the same cap.
func (e *Extractor) fetch(ctx context.Context, rawURL string, maxBytes int64) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	case "file":
		return readFile(u, maxBytes)
	case "blob":
		return nil, "", fmt.Errorf("read %s: %w", rawURL, domain.ErrUnreadableLocation)
	default:
		return nil, "", fmt.Errorf("unsupported scheme %q: %w", u.Scheme, domain.ErrInvalidInput)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	logger.Debug("fetching %s", u.String())
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, "", fmt.Errorf("body of %s exceeds %d bytes", u.String(), maxBytes)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// readFile reads a file: URL. Files on other hosts are left to the browser.
func readFile(u *url.URL, maxBytes int64) ([]byte, string, error) {
	if u.Host != "" && u.Host != "localhost" {
		return nil, "", fmt.Errorf("read %s: %w", u.String(), domain.ErrUnreadableLocation)
	}
	path := filepath.FromSlash(u.Path)

	logger.Debug("reading %s", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, "", fmt.Errorf("file %s exceeds %d bytes", path, maxBytes)
	}
	return body, mime.TypeByExtension(filepath.Ext(path)), nil
}

// favIcon returns a data URI for the page's icon, or empty if none could be
// fetched. href is the icon link found in the page, possibly relative.
func (e *Extractor) favIcon(ctx context.Context, pageURL, href string) string {
	if strings.HasPrefix(href, "data:") {
		return href
	}
	base, err := url.Parse(pageURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
		return ""
	}
	if href == "" {
		href = "/favicon.ico"
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	iconURL := base.ResolveReference(ref).String()

	body, contentType, err := e.fetch(ctx, iconURL, maxFavIconBytes)
	if err != nil {
		logger.Debug("no favicon for %s: %v", pageURL, err)
		return ""
	}
	if len(body) == 0 {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		mediaType = http.DetectContentType(body)
		if !strings.HasPrefix(mediaType, "image/") {
			mediaType = "image/x-icon"
		}
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(body)
}

func isPDF(rawURL, contentType string, body []byte) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "application/pdf" {
		return true
	}
	return bytes.HasPrefix(body, []byte("%PDF-")) || (len(body) == 0 && urlnorm.PointsToPDF(rawURL))
}

// sha256Hex fingerprints raw bytes.
func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
