package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driving"
)

var (
	resolveFormat       string
	resolveFingerprints []string
	resolveTabID        int
	resolveJSON         bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [url]",
	Short: "Resolve the content identifier of a URL",
	Long: `Resolves the canonical content identifier of a document seen at a URL.

Documents with fingerprints (PDFs) resolve to the same identifier wherever
they were opened from. Fingerprints are given as scheme:value, for example
--fingerprint pdf-v1:4b1d9c.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveFormat, "format", "f", string(domain.LocatorFormatHTML), "document format (html or pdf)")
	resolveCmd.Flags().StringArrayVar(&resolveFingerprints, "fingerprint", nil, "content fingerprint as scheme:value (repeatable)")
	resolveCmd.Flags().IntVar(&resolveTabID, "tab", 0, "tab showing the document")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	if pageIndexingService == nil {
		return errors.New("page indexing service not configured")
	}

	fingerprints, err := parseFingerprints(resolveFingerprints)
	if err != nil {
		return err
	}

	id, err := pageIndexingService.InitContentIdentifier(cmd.Context(), driving.InitContentIdentifierParams{
		Locator: domain.LocatorParams{
			Format:           domain.LocatorFormat(resolveFormat),
			OriginalLocation: args[0],
		},
		Fingerprints: fingerprints,
		TabID:        resolveTabID,
	})
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	if resolveJSON {
		data, err := json.MarshalIndent(id, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal identifier: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Normalized URL: %s\n", id.NormalizedURL)
	cmd.Printf("Full URL:       %s\n", id.FullURL)
	return nil
}

// parseFingerprints parses scheme:value pairs.
func parseFingerprints(raw []string) ([]domain.Fingerprint, error) {
	fingerprints := make([]domain.Fingerprint, 0, len(raw))
	for _, r := range raw {
		scheme, value, ok := strings.Cut(r, ":")
		if !ok || scheme == "" || value == "" {
			return nil, fmt.Errorf("%w: fingerprint %q must be scheme:value", domain.ErrInvalidInput, r)
		}
		fingerprints = append(fingerprints, domain.Fingerprint{
			Scheme: domain.FingerprintScheme(scheme),
			Value:  value,
		})
	}
	return fingerprints, nil
}
