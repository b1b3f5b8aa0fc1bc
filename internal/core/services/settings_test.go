package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagekeep/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("identity.wait_timeout", "5s")
	_ = store.Set("identity.stale_after", "24h")
	_ = store.Set("identity.base_locator_url", "https://ct.example/")
	_ = store.Set("fetch.max_bytes", int64(1024))
	_ = store.Set("fetch.rate_per_second", 0.5)
	_ = store.Set("storage.data_dir", "/tmp/pagekeep")
	_ = store.Set("metrics.addr", ":9090")
	_ = store.Set("pipeline.max_text_chars", int64(2048))

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, settings.Identity.WaitTimeout)
	assert.Equal(t, 24*time.Hour, settings.Identity.StaleAfter)
	assert.Equal(t, "https://ct.example/", settings.Identity.BaseLocatorURL)
	assert.Equal(t, 1024, settings.Fetch.MaxBytes)
	assert.InDelta(t, 0.5, settings.Fetch.RatePerSecond, 1e-9)
	assert.Equal(t, "/tmp/pagekeep", settings.Storage.DataDir)
	assert.Equal(t, ":9090", settings.Metrics.Addr)
	assert.Equal(t, 2048, settings.Pipeline.MaxTextChars)
	assert.Equal(t, domain.DefaultMaxTerms, settings.Pipeline.MaxTerms)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("identity.wait_timeout", "soon")
	_ = store.Set("identity.stale_after", "-1h")
	_ = store.Set("fetch.rate_per_second", "fast")

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Identity.WaitTimeout, settings.Identity.WaitTimeout)
	assert.Equal(t, defaults.Identity.StaleAfter, settings.Identity.StaleAfter)
	assert.InDelta(t, defaults.Fetch.RatePerSecond, settings.Fetch.RatePerSecond, 1e-9)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	want := domain.DefaultAppSettings()
	want.Identity.WaitTimeout = 750 * time.Millisecond
	want.Fetch.UserAgent = "test-agent"
	want.Storage.DataDir = "/data"
	want.Pipeline.MaxTerms = 100

	require.NoError(t, service.Save(&want))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestSettingsService_SetWaitTimeout(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NoError(t, service.SetWaitTimeout(100*time.Millisecond))
	assert.Equal(t, "100ms", store.GetString("identity.wait_timeout"))

	assert.ErrorIs(t, service.SetWaitTimeout(0), domain.ErrInvalidInput)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}
