// Package cli provides the pagekeep command line interface.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagekeep/internal/adapters/driving/mcp"
	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driving"
	"github.com/custodia-labs/pagekeep/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "pagekeep",
	Short: "Resolve content identity and index browsed pages",
	Long: `pagekeep gives every document a stable identity no matter where it was
opened from, and indexes pages for later recall.

PDFs opened from different URLs resolve to one content identifier via their
fingerprints. Pages are stored under that identifier with their visits.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

// BackgroundTask runs for the lifetime of the serve command.
type BackgroundTask interface {
	Start(ctx context.Context) error
	Stop() error
}

// ConfigWatcher reports configuration file changes.
type ConfigWatcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Services holds everything the commands drive.
type Services struct {
	Settings     driving.SettingsService
	PageIndexing driving.PageIndexingService

	// Tabs receives tab events in serve mode. Optional.
	Tabs mcp.TabEvents

	// Maintenance runs while serving. Optional.
	Maintenance BackgroundTask

	// ConfigWatcher triggers OnSettingsChange while serving. Optional.
	ConfigWatcher    ConfigWatcher
	OnSettingsChange func(*domain.AppSettings)

	// Metrics is served on the configured metrics address. Optional.
	Metrics http.Handler
}

var (
	settingsService     driving.SettingsService
	pageIndexingService driving.PageIndexingService
	serveDeps           Services
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetServices injects the services used by commands.
func SetServices(s Services) {
	settingsService = s.Settings
	pageIndexingService = s.PageIndexing
	serveDeps = s
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}
