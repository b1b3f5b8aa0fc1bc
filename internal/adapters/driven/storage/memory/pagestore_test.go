package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

func pdfLocator(fp, location string) domain.Locator {
	return domain.Locator{
		Format:            domain.LocatorFormatPDF,
		OriginalLocation:  location,
		Fingerprint:       fp,
		FingerprintScheme: domain.FingerprintSchemeSHA256,
	}
}

func TestPageStore_StoreLocatorsAndLookup(t *testing.T) {
	ctx := context.Background()
	store := NewPageStore()
	id := domain.ContentIdentifier{NormalizedURL: "memex.cloud/ct/abc.pdf", FullURL: "https://memex.cloud/ct/abc.pdf"}

	err := store.StoreLocators(ctx, id, []domain.Locator{
		pdfLocator("abc", "blob:local1"),
		pdfLocator("abc", "https://cdn.example/doc.pdf"),
	})
	require.NoError(t, err)

	stored, err := store.GetContentIdentifier(ctx, []domain.Fingerprint{{Scheme: domain.FingerprintSchemeSHA256, Value: "abc"}})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, id, stored.Identifier)
	require.Len(t, stored.Locators, 2)
	for _, loc := range stored.Locators {
		assert.NotEmpty(t, loc.ID)
		assert.Equal(t, id.NormalizedURL, loc.NormalizedURL)
	}
}

func TestPageStore_StoreLocatorsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewPageStore()
	id := domain.ContentIdentifier{NormalizedURL: "memex.cloud/ct/abc.pdf", FullURL: "https://memex.cloud/ct/abc.pdf"}
	locators := []domain.Locator{pdfLocator("abc", "blob:local1")}

	require.NoError(t, store.StoreLocators(ctx, id, locators))
	require.NoError(t, store.StoreLocators(ctx, id, locators))

	got, err := store.FindLocatorsByNormalizedURL(ctx, id.NormalizedURL)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPageStore_GetContentIdentifierNoMatch(t *testing.T) {
	stored, err := NewPageStore().GetContentIdentifier(context.Background(), []domain.Fingerprint{{Value: "zzz"}})
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestPageStore_PageLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewPageStore()
	page := &domain.Page{URL: "a.example/x", FullURL: "https://a.example/x", Domain: "a.example", FullTitle: "X"}

	got, err := store.GetPage(ctx, page.URL)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.CreatePage(ctx, page))
	assert.ErrorIs(t, store.CreatePage(ctx, page), domain.ErrAlreadyExists)

	created, err := store.CreatePageIfNotExists(ctx, page)
	require.NoError(t, err)
	assert.False(t, created)

	page.FullTitle = "Y"
	require.NoError(t, store.UpdatePage(ctx, page))
	got, err = store.GetPage(ctx, page.URL)
	require.NoError(t, err)
	assert.Equal(t, "Y", got.FullTitle)

	exists, err := store.PageExists(ctx, page.URL)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.DeletePagesByDomain(ctx, "a.example"))
	exists, err = store.PageExists(ctx, page.URL)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPageStore_UpdateMissingPage(t *testing.T) {
	err := NewPageStore().UpdatePage(context.Background(), &domain.Page{URL: "a.example/x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPageStore_Visits(t *testing.T) {
	ctx := context.Background()
	store := NewPageStore()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.ErrorIs(t, store.AddVisit(ctx, domain.Visit{URL: "a.example/x", Time: at}), domain.ErrNotFound)

	require.NoError(t, store.CreatePage(ctx, &domain.Page{URL: "a.example/x"}))
	require.NoError(t, store.AddVisit(ctx, domain.Visit{URL: "a.example/x", Time: at.Add(time.Hour)}))
	require.NoError(t, store.AddVisit(ctx, domain.Visit{URL: "a.example/x", Time: at}))

	duration := 30 * time.Second
	require.NoError(t, store.UpdateVisit(ctx, "a.example/x", at, domain.VisitInteraction{Duration: &duration}))
	assert.ErrorIs(t, store.UpdateVisit(ctx, "a.example/x", at.Add(time.Minute), domain.VisitInteraction{}), domain.ErrNotFound)

	visits, err := store.ListVisits(ctx, "a.example/x")
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.True(t, visits[0].Time.Equal(at))
	assert.Equal(t, duration, visits[0].Duration)

	require.NoError(t, store.DeletePages(ctx, []string{"a.example/x"}))
	visits, err = store.ListVisits(ctx, "a.example/x")
	require.NoError(t, err)
	assert.Empty(t, visits)
}

func TestPageStore_FavIcons(t *testing.T) {
	ctx := context.Background()
	store := NewPageStore()

	icon, err := store.GetFavIcon(ctx, "a.example")
	require.NoError(t, err)
	assert.Nil(t, icon)

	require.NoError(t, store.SaveFavIcon(ctx, domain.FavIcon{Hostname: "a.example", DataURI: "data:image/png;base64,AA"}))
	icon, err = store.GetFavIcon(ctx, "a.example")
	require.NoError(t, err)
	require.NotNil(t, icon)
	assert.Equal(t, "data:image/png;base64,AA", icon.DataURI)

	assert.ErrorIs(t, store.SaveFavIcon(ctx, domain.FavIcon{}), domain.ErrInvalidInput)
}
