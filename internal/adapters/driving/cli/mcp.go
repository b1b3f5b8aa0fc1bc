package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/pagekeep/internal/adapters/driving/mcp"
	"github.com/custodia-labs/pagekeep/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server that content scripts and
assistants use to resolve identifiers, wait on them per tab, and index pages.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

While serving, the content info cache is pruned periodically, the config
file is watched for changes, and metrics are exposed on metrics.addr when set.

Examples:
  # Stdio mode (default)
  pagekeep serve

  # HTTP mode
  pagekeep serve --port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		PageIndexing: pageIndexingService,
		Tabs:         serveDeps.Tabs,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	startBackground(ctx, g)

	g.Go(func() error {
		// The background tasks end with the server.
		defer cancel()
		if port > 0 {
			addr := fmt.Sprintf(":%d", port)
			fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(ctx, addr)
		}
		return server.Run(ctx)
	})

	return g.Wait()
}

// startBackground launches cache maintenance, config watching and the
// metrics endpoint, whichever are configured.
func startBackground(ctx context.Context, g *errgroup.Group) {
	if m := serveDeps.Maintenance; m != nil {
		g.Go(func() error {
			defer m.Stop() //nolint:errcheck
			return ignoreCancel(m.Start(ctx))
		})
	}

	if w := serveDeps.ConfigWatcher; w != nil && settingsService != nil {
		g.Go(func() error {
			return w.Watch(ctx, reloadSettings)
		})
	}

	if serveDeps.Metrics != nil && settingsService != nil {
		settings, err := settingsService.Get()
		if err == nil && settings.Metrics.Addr != "" {
			addr := settings.Metrics.Addr
			g.Go(func() error {
				return serveMetrics(ctx, addr, serveDeps.Metrics)
			})
		}
	}
}

// reloadSettings applies changed settings to the running services.
func reloadSettings() {
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("reading settings after config change: %v", err)
		return
	}
	logger.Info("settings reloaded")
	if serveDeps.OnSettingsChange != nil {
		serveDeps.OnSettingsChange(settings)
	}
}

func serveMetrics(ctx context.Context, addr string, handler http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	logger.Info("metrics listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
