package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

var (
	indexTitle   string
	indexNoVisit bool
	indexInbox   bool
	indexTest    bool
)

var indexCmd = &cobra.Command{
	Use:   "index [url]",
	Short: "Fetch and index a page",
	Long: `Fetches a page, extracts its title, text and metadata, and stores it
under its canonical URL. A visit is recorded at the current time unless
--no-visit is given. PDFs are stored under their content identifier.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexTitle, "title", "", "title to prefer for sites with unhelpful titles")
	indexCmd.Flags().BoolVar(&indexNoVisit, "no-visit", false, "do not record a visit")
	indexCmd.Flags().BoolVar(&indexInbox, "inbox", false, "file newly created pages into the inbox")
	indexCmd.Flags().BoolVar(&indexTest, "test", false, "store a bare page record without fetching")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if pageIndexingService == nil {
		return errors.New("page indexing service not configured")
	}

	props := domain.PageCreationProps{
		FullURL:   args[0],
		PageTitle: indexTitle,
	}
	if !indexNoVisit {
		props.VisitTime = time.Now()
	}

	if indexTest {
		if err := pageIndexingService.IndexTestPage(cmd.Context(), props); err != nil {
			return fmt.Errorf("index failed: %w", err)
		}
		cmd.Printf("Indexed %s\n", props.FullURL)
		return nil
	}

	result, err := pageIndexingService.IndexPage(cmd.Context(), props, domain.PageCreationOpts{
		AddInboxEntryOnCreate: indexInbox,
	})
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	cmd.Printf("Indexed %s\n", result.FullURL)
	return nil
}
