package domain

import "time"

// Default settings values.
const (
	DefaultWaitTimeout    = 2500 * time.Millisecond
	DefaultFetchTimeout   = 30 * time.Second
	DefaultFetchMaxBytes  = 20 * 1024 * 1024
	DefaultFetchRate      = 2.0
	DefaultFetchUserAgent = "pagekeep/1.0 (page indexer)"
	DefaultBaseLocatorURL = "https://memex.cloud/ct/"
	DefaultPruneAfter     = 30 * 24 * time.Hour
	DefaultPruneInterval  = time.Hour
	DefaultMaxTextChars   = 500_000
	DefaultMaxTerms       = 5_000
)

// IdentitySettings tune content identifier resolution.
type IdentitySettings struct {
	// WaitTimeout bounds how long callers wait for a tab's identifier.
	WaitTimeout time.Duration

	// StaleAfter is how long cached content info is trusted.
	StaleAfter time.Duration

	// BaseLocatorURL prefixes identifiers synthesized from fingerprints.
	BaseLocatorURL string

	// PruneAfter is the age past which cached content info is dropped.
	PruneAfter time.Duration

	// PruneInterval is how often the serve loop prunes the cache.
	PruneInterval time.Duration
}

// FetchSettings tune URL-based content extraction.
type FetchSettings struct {
	Timeout       time.Duration
	MaxBytes      int
	RatePerSecond float64
	UserAgent     string
}

// PipelineSettings bound what is stored per page.
type PipelineSettings struct {
	MaxTextChars int
	MaxTerms     int
}

// StorageSettings locate durable data.
type StorageSettings struct {
	// DataDir holds the SQLite database. Empty means ~/.pagekeep/data.
	DataDir string
}

// MetricsSettings configure metrics exposure.
type MetricsSettings struct {
	// Addr is the listen address for /metrics. Empty disables it.
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Identity IdentitySettings
	Fetch    FetchSettings
	Pipeline PipelineSettings
	Storage  StorageSettings
	Metrics  MetricsSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Identity: IdentitySettings{
			WaitTimeout:    DefaultWaitTimeout,
			StaleAfter:     DefaultStaleAfter,
			BaseLocatorURL: DefaultBaseLocatorURL,
			PruneAfter:     DefaultPruneAfter,
			PruneInterval:  DefaultPruneInterval,
		},
		Fetch: FetchSettings{
			Timeout:       DefaultFetchTimeout,
			MaxBytes:      DefaultFetchMaxBytes,
			RatePerSecond: DefaultFetchRate,
			UserAgent:     DefaultFetchUserAgent,
		},
		Pipeline: PipelineSettings{
			MaxTextChars: DefaultMaxTextChars,
			MaxTerms:     DefaultMaxTerms,
		},
	}
}
