package web

import (
	"path"
	"regexp"
	"strings"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

var (
	pdfTrailerID = regexp.MustCompile(`/ID\s*\[\s*<([0-9A-Fa-f]+)>`)
	pdfShowText  = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)\s*Tj`)
	pdfInfoField = map[string]*regexp.Regexp{
		"title":    infoFieldPattern("Title"),
		"author":   infoFieldPattern("Author"),
		"subject":  infoFieldPattern("Subject"),
		"keywords": infoFieldPattern("Keywords"),
		"creator":  infoFieldPattern("Creator"),
		"producer": infoFieldPattern("Producer"),
	}
)

func infoFieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`/` + name + `\s*\(((?:\\.|[^\\)])*)\)`)
}

// analysePDF reads the info dictionary, trailer ID and any uncompressed
// text of a PDF. Compressed content streams yield no text.
func analysePDF(rawURL string, body []byte) *domain.ExtractedPDF {
	fields := make(map[string]string)
	for name, re := range pdfInfoField {
		if m := re.FindSubmatch(body); m != nil {
			if v := strings.TrimSpace(unescapePDFString(string(m[1]))); v != "" {
				fields[name] = v
			}
		}
	}

	fingerprint := sha256Hex(body)
	if m := pdfTrailerID.FindSubmatch(body); m != nil {
		fingerprint = strings.ToLower(string(m[1]))
	}

	var parts []string
	for _, m := range pdfShowText.FindAllSubmatch(body, -1) {
		if t := strings.TrimSpace(unescapePDFString(string(m[1]))); t != "" {
			parts = append(parts, t)
		}
	}
	fullText := strings.Join(parts, " ")

	var pageTexts []string
	if fullText != "" {
		pageTexts = []string{fullText}
	}

	title := fields["title"]
	if title == "" {
		title = path.Base(strings.SplitN(rawURL, "?", 2)[0])
	}

	return &domain.ExtractedPDF{
		Title:    title,
		FullText: fullText,
		Metadata: domain.PDFMetadata{
			Fingerprints: []string{fingerprint},
			Title:        fields["title"],
			Author:       fields["author"],
			Fields:       fields,
		},
		PageTexts: pageTexts,
	}
}

// unescapePDFString decodes the backslash escapes of a PDF literal string.
func unescapePDFString(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
