// Package textlimit provides a processor that bounds stored page text.
package textlimit

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

// DefaultMaxChars is the default number of characters of text kept.
const DefaultMaxChars = domain.DefaultMaxTextChars

// DefaultMaxTerms is the default number of search terms kept.
const DefaultMaxTerms = domain.DefaultMaxTerms

// Processor truncates page text and terms.
// It implements the PagePostProcessor interface.
type Processor struct {
	maxChars int
	maxTerms int
}

// Option configures the text limit processor.
type Option func(*Processor)

// WithMaxChars sets the maximum text length in characters.
func WithMaxChars(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxChars = n
		}
	}
}

// WithMaxTerms sets the maximum number of terms.
func WithMaxTerms(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxTerms = n
		}
	}
}

// New creates a new text limit processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxChars: DefaultMaxChars,
		maxTerms: DefaultMaxTerms,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "textlimit"
}

// Process cuts Text at the last word boundary within the limit and keeps
// the first terms. Terms are in first-seen order, so the earliest ones stay.
func (p *Processor) Process(_ context.Context, data *domain.PageData) error {
	data.Text = truncateWords(data.Text, p.maxChars)
	if len(data.Terms) > p.maxTerms {
		data.Terms = data.Terms[:p.maxTerms]
	}
	return nil
}

// truncateWords returns at most maxChars runes of s, cut at a space when
// one exists in the kept part.
func truncateWords(s string, maxChars int) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}

	// Byte offset of the rune at index maxChars.
	cut := len(s)
	count := 0
	for i := range s {
		if count == maxChars {
			cut = i
			break
		}
		count++
	}

	kept := s[:cut]
	if idx := strings.LastIndexByte(kept, ' '); idx > 0 {
		kept = kept[:idx]
	}
	return strings.TrimSpace(kept)
}
