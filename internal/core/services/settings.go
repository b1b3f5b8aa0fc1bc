package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driven"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyWaitTimeout    = "identity.wait_timeout"
	keyStaleAfter     = "identity.stale_after"
	keyBaseLocatorURL = "identity.base_locator_url"
	keyPruneAfter     = "identity.prune_after"
	keyPruneInterval  = "identity.prune_interval"
	keyFetchTimeout   = "fetch.timeout"
	keyFetchMaxBytes  = "fetch.max_bytes"
	keyFetchRate      = "fetch.rate_per_second"
	keyFetchUserAgent = "fetch.user_agent"
	keyMaxTextChars   = "pipeline.max_text_chars"
	keyMaxTerms       = "pipeline.max_terms"
	keyDataDir        = "storage.data_dir"
	keyMetricsAddr    = "metrics.addr"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Identity: domain.IdentitySettings{
			WaitTimeout:    s.getDuration(keyWaitTimeout, defaults.Identity.WaitTimeout),
			StaleAfter:     s.getDuration(keyStaleAfter, defaults.Identity.StaleAfter),
			BaseLocatorURL: s.getString(keyBaseLocatorURL, defaults.Identity.BaseLocatorURL),
			PruneAfter:     s.getDuration(keyPruneAfter, defaults.Identity.PruneAfter),
			PruneInterval:  s.getDuration(keyPruneInterval, defaults.Identity.PruneInterval),
		},
		Fetch: domain.FetchSettings{
			Timeout:       s.getDuration(keyFetchTimeout, defaults.Fetch.Timeout),
			MaxBytes:      s.getInt(keyFetchMaxBytes, defaults.Fetch.MaxBytes),
			RatePerSecond: s.getFloat(keyFetchRate, defaults.Fetch.RatePerSecond),
			UserAgent:     s.getString(keyFetchUserAgent, defaults.Fetch.UserAgent),
		},
		Pipeline: domain.PipelineSettings{
			MaxTextChars: s.getInt(keyMaxTextChars, defaults.Pipeline.MaxTextChars),
			MaxTerms:     s.getInt(keyMaxTerms, defaults.Pipeline.MaxTerms),
		},
		Storage: domain.StorageSettings{
			DataDir: s.configStore.GetString(keyDataDir),
		},
		Metrics: domain.MetricsSettings{
			Addr: s.configStore.GetString(keyMetricsAddr),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyWaitTimeout, settings.Identity.WaitTimeout.String()},
		{keyStaleAfter, settings.Identity.StaleAfter.String()},
		{keyBaseLocatorURL, settings.Identity.BaseLocatorURL},
		{keyPruneAfter, settings.Identity.PruneAfter.String()},
		{keyPruneInterval, settings.Identity.PruneInterval.String()},
		{keyFetchTimeout, settings.Fetch.Timeout.String()},
		{keyFetchMaxBytes, settings.Fetch.MaxBytes},
		{keyFetchRate, settings.Fetch.RatePerSecond},
		{keyFetchUserAgent, settings.Fetch.UserAgent},
		{keyMaxTextChars, settings.Pipeline.MaxTextChars},
		{keyMaxTerms, settings.Pipeline.MaxTerms},
		{keyDataDir, settings.Storage.DataDir},
		{keyMetricsAddr, settings.Metrics.Addr},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetWaitTimeout changes how long callers wait for a tab's identifier.
func (s *SettingsService) SetWaitTimeout(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: wait timeout must be positive", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(keyWaitTimeout, d.String()); err != nil {
		return fmt.Errorf("save %s: %w", keyWaitTimeout, err)
	}
	return nil
}

// GetDefaults returns the default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	raw, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	switch v := raw.(type) {
	case float64:
		if v > 0 {
			return v
		}
	case int64:
		if v > 0 {
			return float64(v)
		}
	case int:
		if v > 0 {
			return float64(v)
		}
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultVal
}

// getDuration reads a duration string like "2500ms" or "168h".
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	str := s.configStore.GetString(key)
	if str == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(str)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
