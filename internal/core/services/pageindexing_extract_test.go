package services

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagekeep/internal/adapters/driven/extract/web"
	"github.com/custodia-labs/pagekeep/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pagekeep/internal/adapters/driven/tabs"
	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driving"
)

const localPDF = "%PDF-1.4\n" +
	"1 0 obj << /Title (Field Notes) >> endobj\n" +
	"trailer << /ID [<0A1B2C3D> <0A1B2C3D>] /Info 1 0 R >>\n%%EOF"

// newWebIndexingService wires the service to the real extractor and tab
// registry.
func newWebIndexingService(t *testing.T) (*PageIndexingService, *tabs.Registry, *memory.PageStore) {
	t.Helper()
	settings := memory.NewSettingsStore()
	pages := memory.NewPageStore()
	registry := tabs.NewRegistry()
	cache := NewContentInfoCache(settings)
	service := NewPageIndexingService(
		cache,
		NewIdentifierResolver(cache, pages, domain.IdentitySettings{}, nil),
		NewTabCoordinator(time.Second, nil),
		settings,
		pages,
		memory.NewContentStore(),
		web.NewExtractor(domain.FetchSettings{}, registry),
		registry,
		nil,
		nil,
		nil,
	)
	return service, registry, pages
}

func TestPageIndexing_IndexPage_LocalPDFFromDisk(t *testing.T) {
	ctx := context.Background()
	service, registry, pages := newWebIndexingService(t)

	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte(localPDF), 0o600))
	fileURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
	registry.Open(7, fileURL)

	id, err := service.InitContentIdentifier(ctx, driving.InitContentIdentifierParams{
		Locator:      pdfAt(fileURL),
		Fingerprints: []domain.Fingerprint{{Scheme: domain.FingerprintSchemePDFv1, Value: "0a1b2c3d"}},
		TabID:        7,
	})
	require.NoError(t, err)

	res, err := service.IndexPage(ctx, domain.PageCreationProps{FullURL: id.FullURL, TabID: 7}, domain.PageCreationOpts{})
	require.NoError(t, err)
	assert.Equal(t, id.FullURL, res.FullURL)

	page, err := pages.GetPage(ctx, id.NormalizedURL)
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, "Field Notes", page.FullTitle)
}

func TestPageIndexing_IndexPage_BlobTabIsUnreadable(t *testing.T) {
	ctx := context.Background()
	service, registry, pages := newWebIndexingService(t)
	registry.Open(8, "blob:https://a.example/5f0c")

	id, err := service.InitContentIdentifier(ctx, driving.InitContentIdentifierParams{
		Locator:      pdfAt("blob:https://a.example/5f0c"),
		Fingerprints: sha("feed"),
		TabID:        8,
	})
	require.NoError(t, err)

	_, err = service.IndexPage(ctx, domain.PageCreationProps{FullURL: id.FullURL, TabID: 8}, domain.PageCreationOpts{})
	assert.ErrorIs(t, err, domain.ErrUnreadableLocation)

	page, err := pages.GetPage(ctx, id.NormalizedURL)
	require.NoError(t, err)
	assert.Nil(t, page)
}
