// Command pagekeep resolves content identity and indexes browsed pages.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/pagekeep/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pagekeep/internal/adapters/driven/extract/web"
	"github.com/custodia-labs/pagekeep/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/pagekeep/internal/adapters/driven/tabs"
	"github.com/custodia-labs/pagekeep/internal/adapters/driving/cli"
	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/services"
	"github.com/custodia-labs/pagekeep/internal/logger"
	"github.com/custodia-labs/pagekeep/internal/metrics"
	"github.com/custodia-labs/pagekeep/internal/postprocessors"
)

// version is set at build time.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore(os.Getenv("PAGEKEEP_CONFIG_DIR"))
	if err != nil {
		logger.Error("loading config: %v", err)
		return 1
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		logger.Error("reading settings: %v", err)
		return 1
	}

	store, err := sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		logger.Error("opening storage: %v", err)
		return 1
	}
	defer store.Close()

	recorder := metrics.NewPrometheusRecorder(nil)
	registry := tabs.NewRegistry()

	cache := services.NewContentInfoCache(store.SettingsStore())
	resolver := services.NewIdentifierResolver(cache, store.PageStore(), settings.Identity, recorder)
	coordinator := services.NewTabCoordinator(settings.Identity.WaitTimeout, recorder)
	extractor := web.NewExtractor(settings.Fetch, registry)

	pageIndexing := services.NewPageIndexingService(
		cache,
		resolver,
		coordinator,
		store.SettingsStore(),
		store.PageStore(),
		store.ContentStore(),
		extractor,
		registry,
		nil,
		nil,
		recorder,
	)

	processors := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(processors)
	pipeline, err := processors.BuildPipeline([]string{"textlimit"}, map[string]map[string]any{
		"textlimit": {
			"max_chars": settings.Pipeline.MaxTextChars,
			"max_terms": settings.Pipeline.MaxTerms,
		},
	})
	if err != nil {
		logger.Error("building page pipeline: %v", err)
		return 1
	}
	pageIndexing.SetPostProcessor(pipeline)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Settings:      settingsService,
		PageIndexing:  pageIndexing,
		Tabs:          registry,
		Maintenance:   services.NewCacheMaintenance(cache, settings.Identity),
		ConfigWatcher: configStore,
		OnSettingsChange: func(s *domain.AppSettings) {
			coordinator.SetWaitTimeout(s.Identity.WaitTimeout)
		},
		Metrics: recorder.Handler(),
	})

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
