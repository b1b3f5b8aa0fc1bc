package driving

import (
	"time"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetWaitTimeout changes how long callers wait for a tab's identifier.
	SetWaitTimeout(d time.Duration) error

	// GetDefaults returns the default settings.
	GetDefaults() domain.AppSettings
}
