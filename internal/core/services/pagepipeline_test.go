package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

func TestExtractTerms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases and dedupes", "Gopher gopher GOPHER", []string{"gopher"}},
		{"drops stop words and short words", "the cat and a dog with fur", []string{"cat", "dog", "fur"}},
		{"splits on punctuation", "content-addressed, dedup!", []string{"content", "addressed", "dedup"}},
		{"keeps unicode letters", "Über größe", []string{"über", "größe"}},
		{"empty", "   ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTerms(tt.text))
		})
	}
}

func TestBuildPageData(t *testing.T) {
	data := buildPageData(
		"https://memex.cloud/ct/abc.pdf",
		"https://www.cdn.example/doc.pdf",
		"  Paper title ",
		"line one\n\n line two",
		map[string]string{"lang": "en"},
	)

	assert.Equal(t, "memex.cloud/ct/abc.pdf", data.URL)
	assert.Equal(t, "https://memex.cloud/ct/abc.pdf", data.FullURL)
	assert.Equal(t, "cdn.example", data.Hostname)
	assert.Equal(t, "Paper title", data.FullTitle)
	assert.Equal(t, "line one line two", data.Text)
	assert.Equal(t, map[string]string{"lang": "en"}, data.Extra)
	assert.Contains(t, data.Terms, "paper")
}

func TestBuildPageData_FallsBackToFullURLHost(t *testing.T) {
	data := buildPageData("https://memex.cloud/ct/abc.pdf", "blob:local1", "", "", nil)
	assert.Equal(t, "memex.cloud", data.Hostname)
	assert.Nil(t, data.Extra)
}

func TestStripUnregisteredFields(t *testing.T) {
	data := stripUnregisteredFields(domain.PageData{Extra: map[string]string{
		"description": "kept",
		"titleTerms":  "kept too",
		"ogImage":     "dropped",
	}})

	assert.Equal(t, map[string]string{"description": "kept", "titleTerms": "kept too"}, data.Extra)
}

func TestMergePage(t *testing.T) {
	existing := &domain.Page{
		URL:       "a.example/x",
		FullURL:   "https://a.example/x",
		FullTitle: "Old",
		Text:      "old text",
		Meta:      map[string]string{"lang": "en"},
	}

	page := mergePage(existing, domain.PageData{FullTitle: "New", Extra: map[string]string{"author": "me"}})

	assert.Equal(t, "New", page.FullTitle)
	assert.Equal(t, "old text", page.Text)
	assert.Equal(t, "https://a.example/x", page.FullURL)
	assert.Equal(t, map[string]string{"lang": "en", "author": "me"}, page.Meta)
	assert.Equal(t, map[string]string{"lang": "en"}, existing.Meta)
}

func TestAliasURLs(t *testing.T) {
	info := testInfo("p.example/doc", "a.example/x", "p.example/doc")
	assert.Equal(t, []string{"a.example/x"}, aliasURLs(info))
}
