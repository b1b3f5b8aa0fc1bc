package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Inspect and manage indexed pages",
}

var pageTitleCmd = &cobra.Command{
	Use:   "title [url]",
	Short: "Show the stored title of a page",
	Args:  cobra.ExactArgs(1),
	RunE:  runPageTitle,
}

var pageInfoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Show cached content info for a URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runPageInfo,
}

var pageLocatorsCmd = &cobra.Command{
	Use:   "locators [normalized-url]",
	Short: "List stored locators of a page",
	Args:  cobra.ExactArgs(1),
	RunE:  runPageLocators,
}

var pageStoreLocatorsCmd = &cobra.Command{
	Use:   "store-locators [url]",
	Short: "Write cached locators of a page to the database",
	Args:  cobra.ExactArgs(1),
	RunE:  runPageStoreLocators,
}

var pageVisitCmd = &cobra.Command{
	Use:   "visit [url]",
	Short: "Record a visit, or update one with --duration/--scroll",
	Args:  cobra.ExactArgs(1),
	RunE:  runPageVisit,
}

var pageDeleteCmd = &cobra.Command{
	Use:   "delete [url...]",
	Short: "Delete pages by URL, or every page of --domain",
	RunE:  runPageDelete,
}

var (
	pageJSON      bool
	visitAt       string
	visitDuration time.Duration
	visitScroll   float64
	deleteDomain  string
)

func init() {
	pageInfoCmd.Flags().BoolVar(&pageJSON, "json", false, "output as JSON")
	pageVisitCmd.Flags().StringVar(&visitAt, "at", "", "RFC 3339 visit time (default now)")
	pageVisitCmd.Flags().DurationVar(&visitDuration, "duration", 0, "time spent on the page")
	pageVisitCmd.Flags().Float64Var(&visitScroll, "scroll", -1, "furthest scroll position, 0 to 1")
	pageDeleteCmd.Flags().StringVar(&deleteDomain, "domain", "", "delete every page of this domain")

	pageCmd.AddCommand(pageTitleCmd)
	pageCmd.AddCommand(pageInfoCmd)
	pageCmd.AddCommand(pageLocatorsCmd)
	pageCmd.AddCommand(pageStoreLocatorsCmd)
	pageCmd.AddCommand(pageVisitCmd)
	pageCmd.AddCommand(pageDeleteCmd)
	rootCmd.AddCommand(pageCmd)
}

func runPageTitle(cmd *cobra.Command, args []string) error {
	if pageIndexingService == nil {
		return errors.New("page indexing service not configured")
	}

	title, err := pageIndexingService.LookupPageTitleForURL(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}
	if title == "" {
		cmd.Println("No page found.")
		return nil
	}
	cmd.Println(title)
	return nil
}

func runPageInfo(cmd *cobra.Command, args []string) error {
	if pageIndexingService == nil {
		return errors.New("page indexing service not configured")
	}

	info, err := pageIndexingService.GetContentInfo(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Println("No content info found.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("content info failed: %w", err)
	}

	if pageJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal content info: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Primary: %s\n", info.PrimaryIdentifier.FullURL)
	cmd.Printf("As of:   %s\n", info.AsOf.Format(time.RFC3339))
	for _, alias := range info.AliasIdentifiers {
		cmd.Printf("Alias:   %s\n", alias.FullURL)
	}
	if len(info.Locators) > 0 {
		cmd.Println()
		printLocators(cmd, info.Locators)
	}
	return nil
}

func runPageLocators(cmd *cobra.Command, args []string) error {
	if pageIndexingService == nil {
		return errors.New("page indexing service not configured")
	}

	locators, err := pageIndexingService.FindLocatorsByNormalizedURL(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("finding locators failed: %w", err)
	}
	if len(locators) == 0 {
		cmd.Println("No locators found.")
		return nil
	}
	printLocators(cmd, locators)
	return nil
}

func runPageStoreLocators(cmd *cobra.Command, args []string) error {
	if pageIndexingService == nil {
		return errors.New("page indexing service not configured")
	}

	info, err := pageIndexingService.GetContentInfo(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("content info failed: %w", err)
	}
	if err := pageIndexingService.StoreLocators(cmd.Context(), info.PrimaryIdentifier); err != nil {
		return fmt.Errorf("storing locators failed: %w", err)
	}
	cmd.Printf("Stored %d locators for %s\n", len(info.Locators), info.PrimaryIdentifier.NormalizedURL)
	return nil
}

func runPageVisit(cmd *cobra.Command, args []string) error {
	if pageIndexingService == nil {
		return errors.New("page indexing service not configured")
	}

	at := time.Now()
	if visitAt != "" {
		parsed, err := time.Parse(time.RFC3339, visitAt)
		if err != nil {
			return fmt.Errorf("%w: --at must be RFC 3339", domain.ErrInvalidInput)
		}
		at = parsed
	}

	var data domain.VisitInteraction
	if visitDuration > 0 {
		d := visitDuration
		data.Duration = &d
	}
	if visitScroll >= 0 {
		s := visitScroll
		data.ScrollPerc = &s
	}

	if data.Duration == nil && data.ScrollPerc == nil {
		if err := pageIndexingService.AddVisit(cmd.Context(), args[0], at); err != nil {
			return fmt.Errorf("recording visit failed: %w", err)
		}
		cmd.Printf("Recorded visit to %s\n", args[0])
		return nil
	}

	if err := pageIndexingService.UpdateVisitMetadata(cmd.Context(), args[0], at, data); err != nil {
		return fmt.Errorf("updating visit failed: %w", err)
	}
	cmd.Printf("Updated visit to %s\n", args[0])
	return nil
}

func runPageDelete(cmd *cobra.Command, args []string) error {
	if pageIndexingService == nil {
		return errors.New("page indexing service not configured")
	}

	if deleteDomain != "" {
		if err := pageIndexingService.DeletePagesByDomain(cmd.Context(), deleteDomain); err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
		cmd.Printf("Deleted pages of %s\n", deleteDomain)
		return nil
	}

	if len(args) == 0 {
		return errors.New("give at least one URL or --domain")
	}
	if err := pageIndexingService.DeletePages(cmd.Context(), args); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	cmd.Printf("Deleted %d pages\n", len(args))
	return nil
}

func printLocators(cmd *cobra.Command, locators []domain.Locator) {
	cmd.Println("Locators:")
	for i := range locators {
		loc := &locators[i]
		cmd.Printf("  [%d] %s (%s, %s)\n", i+1, loc.OriginalLocation, loc.Format, loc.LocationType)
		if loc.Fingerprint != "" {
			cmd.Printf("      %s:%s\n", loc.FingerprintScheme, loc.Fingerprint)
		}
	}
}
