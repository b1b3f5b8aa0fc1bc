package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driven"
)

// contentStore implements driven.ContentStore.
type contentStore struct {
	store *Store
}

var _ driven.ContentStore = (*contentStore)(nil)

// SaveContent stores or replaces content for content.NormalizedURL.
func (s *contentStore) SaveContent(ctx context.Context, content domain.StoredContent) error {
	if content.NormalizedURL == "" {
		return domain.ErrInvalidInput
	}

	var pdfJSON sql.NullString
	if content.PDF != nil {
		raw, err := json.Marshal(content.PDF)
		if err != nil {
			return fmt.Errorf("marshalling pdf content: %w", err)
		}
		pdfJSON = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO contents (normalized_url, type, html_body, pdf)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(normalized_url) DO UPDATE SET
			type = excluded.type,
			html_body = excluded.html_body,
			pdf = excluded.pdf
	`, content.NormalizedURL, string(content.Type), content.HTMLBody, pdfJSON)
	if err != nil {
		return fmt.Errorf("saving content: %w", err)
	}
	return nil
}

// GetContent retrieves stored content.
func (s *contentStore) GetContent(ctx context.Context, normalizedURL string) (*domain.StoredContent, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT normalized_url, type, html_body, pdf FROM contents WHERE normalized_url = ?
	`, normalizedURL)

	var content domain.StoredContent
	var contentType string
	var pdfJSON sql.NullString
	if err := row.Scan(&content.NormalizedURL, &contentType, &content.HTMLBody, &pdfJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning content: %w", err)
	}
	content.Type = domain.StoredContentType(contentType)

	if pdfJSON.Valid && pdfJSON.String != jsonNull {
		var pdf domain.PDFContent
		if err := json.Unmarshal([]byte(pdfJSON.String), &pdf); err != nil {
			return nil, fmt.Errorf("unmarshalling pdf content: %w", err)
		}
		content.PDF = &pdf
	}

	return &content, nil
}
