package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure identifier resolution, fetching and storage settings.

Use subcommands to change specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the main settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsWaitTimeoutCmd = &cobra.Command{
	Use:   "wait-timeout [duration]",
	Short: "Set how long callers wait for a tab's identifier",
	Long: `Set how long wait_for_content_identifier blocks before failing,
for example 2500ms or 5s. A running server picks up the change.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsWaitTimeout,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore default settings",
	RunE:  runSettingsReset,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsWaitTimeoutCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Identity]")
	cmd.Printf("  Wait timeout: %s\n", settings.Identity.WaitTimeout)
	cmd.Printf("  Stale after: %s\n", settings.Identity.StaleAfter)
	cmd.Printf("  Base locator URL: %s\n", settings.Identity.BaseLocatorURL)
	cmd.Printf("  Prune after: %s\n", settings.Identity.PruneAfter)
	cmd.Printf("  Prune interval: %s\n", settings.Identity.PruneInterval)
	cmd.Println()

	cmd.Println("[Fetch]")
	cmd.Printf("  Timeout: %s\n", settings.Fetch.Timeout)
	cmd.Printf("  Max bytes: %d\n", settings.Fetch.MaxBytes)
	cmd.Printf("  Rate: %g/s\n", settings.Fetch.RatePerSecond)
	cmd.Printf("  User agent: %s\n", settings.Fetch.UserAgent)
	cmd.Println()

	cmd.Println("[Pipeline]")
	cmd.Printf("  Max text chars: %d\n", settings.Pipeline.MaxTextChars)
	cmd.Printf("  Max terms: %d\n", settings.Pipeline.MaxTerms)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Data dir: %s\n", valueOr(settings.Storage.DataDir, "(default ~/.pagekeep/data)"))
	cmd.Println()

	cmd.Println("[Metrics]")
	cmd.Printf("  Address: %s\n", valueOr(settings.Metrics.Addr, "(disabled)"))

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("pagekeep Settings Wizard")
	cmd.Println("========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Identity
	cmd.Println("Step 1: Identifier Resolution")
	cmd.Println("-----------------------------")
	cmd.Printf("Wait timeout [%s]: ", settings.Identity.WaitTimeout)
	settings.Identity.WaitTimeout = parseDurationChoice(readLine(reader), settings.Identity.WaitTimeout)
	cmd.Printf("Stale after [%s]: ", settings.Identity.StaleAfter)
	settings.Identity.StaleAfter = parseDurationChoice(readLine(reader), settings.Identity.StaleAfter)
	cmd.Printf("Base locator URL [%s]: ", settings.Identity.BaseLocatorURL)
	settings.Identity.BaseLocatorURL = valueOr(readLine(reader), settings.Identity.BaseLocatorURL)
	cmd.Println()

	// Step 2: Fetching
	cmd.Println("Step 2: Fetching")
	cmd.Println("----------------")
	cmd.Printf("Fetch timeout [%s]: ", settings.Fetch.Timeout)
	settings.Fetch.Timeout = parseDurationChoice(readLine(reader), settings.Fetch.Timeout)
	cmd.Printf("User agent [%s]: ", settings.Fetch.UserAgent)
	settings.Fetch.UserAgent = valueOr(readLine(reader), settings.Fetch.UserAgent)
	cmd.Println()

	// Step 3: Metrics
	cmd.Println("Step 3: Metrics")
	cmd.Println("---------------")
	cmd.Printf("Metrics address, empty to disable [%s]: ", settings.Metrics.Addr)
	settings.Metrics.Addr = valueOr(readLine(reader), settings.Metrics.Addr)
	cmd.Println()

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	cmd.Println("All settings are saved.")
	return nil
}

func runSettingsWaitTimeout(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	d, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", args[0], err)
	}
	if err := settingsService.SetWaitTimeout(d); err != nil {
		return fmt.Errorf("failed to set wait timeout: %w", err)
	}

	cmd.Printf("Wait timeout set to: %s\n", d)
	return nil
}

func runSettingsReset(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	defaults := settingsService.GetDefaults()
	if err := settingsService.Save(&defaults); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Settings restored to defaults.")
	return nil
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n') //nolint:errcheck // EOF yields what was read
	return strings.TrimSpace(line)
}

// parseDurationChoice returns the parsed input, or defaultVal when the input
// is empty, malformed or not positive.
func parseDurationChoice(input string, defaultVal time.Duration) time.Duration {
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(input)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
