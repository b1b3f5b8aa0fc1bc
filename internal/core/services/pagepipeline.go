package services

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/urlnorm"
)

// minTermLength drops terms too short to be useful for search.
const minTermLength = 3

// stopWords are common English words never indexed as terms.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "any": true, "can": true,
	"had": true, "her": true, "was": true, "one": true, "our": true,
	"out": true, "has": true, "have": true, "his": true, "how": true,
	"its": true, "may": true, "new": true, "now": true, "old": true,
	"see": true, "two": true, "who": true, "did": true, "get": true,
	"him": true, "let": true, "say": true, "she": true, "too": true,
	"use": true, "that": true, "this": true, "with": true, "from": true,
	"they": true, "will": true, "would": true, "there": true, "their": true,
	"what": true, "about": true, "which": true, "when": true, "were": true,
	"been": true, "into": true, "than": true, "then": true, "them": true,
	"these": true, "those": true, "your": true, "also": true, "only": true,
}

// buildPageData turns extracted content into page data. fullURL is the URL
// the page is stored under; originalURL is where the content was found and
// supplies the host parts (they differ for PDFs stored under a base locator
// URL).
func buildPageData(fullURL, originalURL, title, text string, meta map[string]string) domain.PageData {
	parts := urlnorm.ExtractParts(originalURL)
	if parts.Hostname == "" {
		parts = urlnorm.ExtractParts(fullURL)
	}

	title = strings.TrimSpace(title)
	text = strings.Join(strings.Fields(text), " ")

	data := domain.PageData{
		URL:       urlnorm.Normalize(fullURL),
		FullURL:   fullURL,
		Domain:    parts.Domain,
		Hostname:  parts.Hostname,
		FullTitle: title,
		Text:      text,
		Terms:     extractTerms(title + " " + text),
	}
	if len(meta) > 0 {
		data.Extra = make(map[string]string, len(meta))
		for k, v := range meta {
			data.Extra[k] = v
		}
	}
	return data
}

// completePageData fills the derived fields of caller-supplied page data.
func completePageData(data domain.PageData) domain.PageData {
	if data.FullURL == "" {
		data.FullURL = data.URL
	}
	if data.URL == "" || data.URL == data.FullURL {
		data.URL = urlnorm.Normalize(data.FullURL)
	}
	if data.Hostname == "" {
		parts := urlnorm.ExtractParts(data.FullURL)
		data.Hostname = parts.Hostname
		if data.Domain == "" {
			data.Domain = parts.Domain
		}
	}
	if len(data.Terms) == 0 {
		data.Terms = extractTerms(data.FullTitle + " " + data.Text)
	}
	return data
}

// stripUnregisteredFields drops extra fields the pages schema does not store.
func stripUnregisteredFields(data domain.PageData) domain.PageData {
	if len(data.Extra) == 0 {
		return data
	}
	kept := make(map[string]string, len(data.Extra))
	for k, v := range data.Extra {
		if domain.IsRegisteredPageField(k) {
			kept[k] = v
		}
	}
	data.Extra = kept
	return data
}

// extractTerms returns the distinct search terms of text in first-seen order.
func extractTerms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(words))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) < minTermLength || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

// mergePage applies freshly extracted data to a stored page.
func mergePage(existing *domain.Page, data domain.PageData) domain.Page {
	page := *existing
	if data.FullTitle != "" {
		page.FullTitle = data.FullTitle
	}
	if data.Text != "" {
		page.Text = data.Text
	}
	if len(data.Terms) > 0 {
		page.Terms = data.Terms
	}
	if data.Domain != "" {
		page.Domain = data.Domain
	}
	if data.Hostname != "" {
		page.Hostname = data.Hostname
	}
	if page.FullURL == "" {
		page.FullURL = data.FullURL
	}
	if len(data.Extra) > 0 {
		meta := make(map[string]string, len(page.Meta)+len(data.Extra))
		for k, v := range page.Meta {
			meta[k] = v
		}
		for k, v := range data.Extra {
			meta[k] = v
		}
		page.Meta = meta
	}
	return page
}

// aliasURLs returns the normalized alias URLs of info other than its primary.
func aliasURLs(info *domain.ContentInfo) []string {
	var out []string
	for _, alias := range info.AliasIdentifiers {
		if alias.NormalizedURL == info.PrimaryIdentifier.NormalizedURL {
			continue
		}
		out = append(out, alias.NormalizedURL)
	}
	return out
}
