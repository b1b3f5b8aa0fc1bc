package web

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/logger"
)

// pdftotextCmd is the poppler tool used to extract PDF text.
const pdftotextCmd = "pdftotext"

// CommandRunner runs an external command and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// InstallInstructions returns how to install pdftotext.
func InstallInstructions() string {
	return `PDF text extraction uses pdftotext from poppler:
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils
Without it only uncompressed PDF text is indexed.`
}

// analysePDF extracts metadata and fingerprints from body, preferring
// pdftotext output for the text.
func (e *Extractor) analysePDF(ctx context.Context, rawURL string, body []byte) *domain.ExtractedPDF {
	pdf := analysePDF(rawURL, body)

	pages, err := e.pdfPages(ctx, body)
	if err != nil {
		logger.Debug("pdftotext on %s: %v", rawURL, err)
		return pdf
	}
	var parts []string
	for _, p := range pages {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return pdf
	}
	pdf.PageTexts = pages
	pdf.FullText = strings.Join(parts, " ")
	return pdf
}

// pdfPages runs pdftotext over body and splits its output into pages.
func (e *Extractor) pdfPages(ctx context.Context, body []byte) ([]string, error) {
	if e.runner == nil {
		return nil, nil
	}

	tmp, err := os.CreateTemp("", "pagekeep-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	out, err := e.runner.Run(ctx, pdftotextCmd, "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, err
	}
	return splitPages(string(out)), nil
}

// splitPages splits pdftotext output on form feeds, collapsing whitespace
// and dropping the empty tail after the last page break.
func splitPages(out string) []string {
	raw := strings.Split(out, "\f")
	pages := make([]string, 0, len(raw))
	for _, p := range raw {
		pages = append(pages, strings.Join(strings.Fields(p), " "))
	}
	for len(pages) > 0 && pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
