package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driven"
)

const pageColumns = `url, full_url, domain, hostname, full_title, text, terms, aliases, meta, created_at, updated_at`

const locatorColumns = `id, normalized_url, format, original_location, location, location_type, location_scheme,
	fingerprint, fingerprint_scheme, is_primary, valid, version, last_visited_ns`

// pageStore implements driven.PageStore.
type pageStore struct {
	store *Store
}

var _ driven.PageStore = (*pageStore)(nil)

// ==================== Identity ====================

// GetContentIdentifier finds the stored identity owning any of fingerprints.
// Fingerprints are tried in order; the first match wins.
func (s *pageStore) GetContentIdentifier(
	ctx context.Context,
	fingerprints []domain.Fingerprint,
) (*domain.StoredIdentity, error) {
	for _, fp := range fingerprints {
		var normalizedURL string
		err := s.store.db.QueryRowContext(ctx, `
			SELECT normalized_url FROM locators
			WHERE fingerprint_scheme = ? AND fingerprint = ?
			ORDER BY normalized_url LIMIT 1
		`, string(fp.Scheme), fp.Value).Scan(&normalizedURL)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("querying locator fingerprint: %w", err)
		}

		identity := domain.StoredIdentity{}
		err = s.store.db.QueryRowContext(ctx, `
			SELECT normalized_url, full_url FROM content_identities WHERE normalized_url = ?
		`, normalizedURL).Scan(&identity.Identifier.NormalizedURL, &identity.Identifier.FullURL)
		if err != nil {
			return nil, fmt.Errorf("scanning content identity: %w", err)
		}

		identity.Locators, err = s.FindLocatorsByNormalizedURL(ctx, normalizedURL)
		if err != nil {
			return nil, err
		}
		return &identity, nil
	}
	return nil, nil
}

// StoreLocators records locators for identifier. Locators already stored for
// the same fingerprint and original location are left untouched.
func (s *pageStore) StoreLocators(
	ctx context.Context,
	identifier domain.ContentIdentifier,
	locators []domain.Locator,
) error {
	if identifier.NormalizedURL == "" {
		return domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO content_identities (normalized_url, full_url)
		VALUES (?, ?)
		ON CONFLICT(normalized_url) DO UPDATE SET full_url = excluded.full_url
	`, identifier.NormalizedURL, identifier.FullURL)
	if err != nil {
		return fmt.Errorf("saving content identity: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO locators (`+locatorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(normalized_url, fingerprint_scheme, fingerprint, original_location) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("preparing locator insert: %w", err)
	}
	defer stmt.Close()

	for _, loc := range locators {
		if loc.ID == "" {
			loc.ID = uuid.New().String()
		}
		_, err := stmt.ExecContext(ctx,
			loc.ID, identifier.NormalizedURL, string(loc.Format), loc.OriginalLocation, loc.Location,
			string(loc.LocationType), string(loc.LocationScheme), loc.Fingerprint, string(loc.FingerprintScheme),
			loc.Primary, loc.Valid, loc.Version, toNanos(loc.LastVisited))
		if err != nil {
			return fmt.Errorf("saving locator: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing locators: %w", err)
	}
	return nil
}

// FindLocatorsByNormalizedURL returns the locators owned by normalizedURL in
// the order they were stored.
func (s *pageStore) FindLocatorsByNormalizedURL(ctx context.Context, normalizedURL string) ([]domain.Locator, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+locatorColumns+`
		FROM locators WHERE normalized_url = ? ORDER BY rowid
	`, normalizedURL)
	if err != nil {
		return nil, fmt.Errorf("querying locators: %w", err)
	}
	defer rows.Close()

	var locators []domain.Locator //nolint:prealloc // size unknown from query
	for rows.Next() {
		loc, err := scanLocator(rows)
		if err != nil {
			return nil, err
		}
		locators = append(locators, *loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating locators: %w", err)
	}
	return locators, nil
}

// scanLocator scans a single locator row.
func scanLocator(rows *sql.Rows) (*domain.Locator, error) {
	var loc domain.Locator
	var format, locationType, locationScheme, fingerprintScheme string
	var lastVisited int64
	if err := rows.Scan(&loc.ID, &loc.NormalizedURL, &format, &loc.OriginalLocation, &loc.Location,
		&locationType, &locationScheme, &loc.Fingerprint, &fingerprintScheme,
		&loc.Primary, &loc.Valid, &loc.Version, &lastVisited); err != nil {
		return nil, fmt.Errorf("scanning locator: %w", err)
	}
	loc.Format = domain.LocatorFormat(format)
	loc.LocationType = domain.LocationType(locationType)
	loc.LocationScheme = domain.LocationScheme(locationScheme)
	loc.FingerprintScheme = domain.FingerprintScheme(fingerprintScheme)
	loc.LastVisited = fromNanos(lastVisited)
	return &loc, nil
}

// ==================== Pages ====================

// GetPage retrieves a page by normalized URL.
// Returns nil and no error if the page does not exist.
func (s *pageStore) GetPage(ctx context.Context, normalizedURL string) (*domain.Page, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+pageColumns+` FROM pages WHERE url = ?
	`, normalizedURL)

	page, err := scanPage(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil // Per interface: return nil and no error if not found
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

// PageExists reports whether a page is stored under normalizedURL.
func (s *pageStore) PageExists(ctx context.Context, normalizedURL string) (bool, error) {
	var exists bool
	err := s.store.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM pages WHERE url = ?)", normalizedURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking page: %w", err)
	}
	return exists, nil
}

// CreatePage stores a new page.
func (s *pageStore) CreatePage(ctx context.Context, page *domain.Page) error {
	created, err := s.CreatePageIfNotExists(ctx, page)
	if err != nil {
		return err
	}
	if !created {
		return domain.ErrAlreadyExists
	}
	return nil
}

// CreatePageIfNotExists stores page unless its URL is taken.
func (s *pageStore) CreatePageIfNotExists(ctx context.Context, page *domain.Page) (bool, error) {
	if page == nil || page.URL == "" {
		return false, domain.ErrInvalidInput
	}

	terms, aliases, meta, err := marshalPageFields(page)
	if err != nil {
		return false, err
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO pages (`+pageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING
	`, page.URL, page.FullURL, page.Domain, page.Hostname, page.FullTitle, page.Text,
		terms, aliases, meta, toNanos(page.CreatedAt), toNanos(page.UpdatedAt))
	if err != nil {
		return false, fmt.Errorf("creating page: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("creating page: %w", err)
	}
	return n == 1, nil
}

// UpdatePage replaces a stored page's content fields.
func (s *pageStore) UpdatePage(ctx context.Context, page *domain.Page) error {
	if page == nil || page.URL == "" {
		return domain.ErrInvalidInput
	}

	terms, aliases, meta, err := marshalPageFields(page)
	if err != nil {
		return err
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE pages SET
			full_url = ?, domain = ?, hostname = ?, full_title = ?, text = ?,
			terms = ?, aliases = ?, meta = ?, updated_at = ?
		WHERE url = ?
	`, page.FullURL, page.Domain, page.Hostname, page.FullTitle, page.Text,
		terms, aliases, meta, toNanos(page.UpdatedAt), page.URL)
	if err != nil {
		return fmt.Errorf("updating page: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating page: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeletePages removes pages, their visits and their locators.
func (s *pageStore) DeletePages(ctx context.Context, normalizedURLs []string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, normalizedURL := range normalizedURLs {
		if err := deletePage(ctx, tx, normalizedURL); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing page deletion: %w", err)
	}
	return nil
}

// DeletePagesByDomain removes every page of a registrable domain.
func (s *pageStore) DeletePagesByDomain(ctx context.Context, domainName string) error {
	rows, err := s.store.db.QueryContext(ctx, "SELECT url FROM pages WHERE domain = ?", domainName)
	if err != nil {
		return fmt.Errorf("querying pages by domain: %w", err)
	}

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			rows.Close()
			return fmt.Errorf("scanning page url: %w", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterating pages: %w", err)
	}
	rows.Close()

	return s.DeletePages(ctx, urls)
}

// deletePage removes one page. Visits and locators cascade.
func deletePage(ctx context.Context, tx *sql.Tx, normalizedURL string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM pages WHERE url = ?", normalizedURL); err != nil {
		return fmt.Errorf("deleting page: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM content_identities WHERE normalized_url = ?", normalizedURL); err != nil {
		return fmt.Errorf("deleting content identity: %w", err)
	}
	return nil
}

func marshalPageFields(page *domain.Page) (terms, aliases, meta string, err error) {
	termsJSON, err := json.Marshal(nonNilStrings(page.Terms))
	if err != nil {
		return "", "", "", fmt.Errorf("marshalling terms: %w", err)
	}
	aliasesJSON, err := json.Marshal(nonNilStrings(page.Aliases))
	if err != nil {
		return "", "", "", fmt.Errorf("marshalling aliases: %w", err)
	}
	metaJSON, err := json.Marshal(page.Meta)
	if err != nil {
		return "", "", "", fmt.Errorf("marshalling meta: %w", err)
	}
	return string(termsJSON), string(aliasesJSON), string(metaJSON), nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// scanPage scans a single page row.
func scanPage(row *sql.Row) (*domain.Page, error) {
	var page domain.Page
	var termsJSON, aliasesJSON, metaJSON string
	var createdAt, updatedAt int64

	if err := row.Scan(&page.URL, &page.FullURL, &page.Domain, &page.Hostname, &page.FullTitle, &page.Text,
		&termsJSON, &aliasesJSON, &metaJSON, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning page: %w", err)
	}

	if err := json.Unmarshal([]byte(termsJSON), &page.Terms); err != nil {
		return nil, fmt.Errorf("unmarshalling terms: %w", err)
	}
	if err := json.Unmarshal([]byte(aliasesJSON), &page.Aliases); err != nil {
		return nil, fmt.Errorf("unmarshalling aliases: %w", err)
	}
	if metaJSON != jsonNull {
		if err := json.Unmarshal([]byte(metaJSON), &page.Meta); err != nil {
			return nil, fmt.Errorf("unmarshalling meta: %w", err)
		}
	}
	page.CreatedAt = fromNanos(createdAt)
	page.UpdatedAt = fromNanos(updatedAt)

	return &page, nil
}

// ==================== Visits ====================

// AddVisit records a visit to a stored page.
func (s *pageStore) AddVisit(ctx context.Context, visit domain.Visit) error {
	exists, err := s.PageExists(ctx, visit.URL)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO visits (url, time_ns, duration_ms, scroll_perc)
		VALUES (?, ?, ?, ?)
	`, visit.URL, toNanos(visit.Time), visit.Duration.Milliseconds(), visit.ScrollPerc)
	if err != nil {
		return fmt.Errorf("saving visit: %w", err)
	}
	return nil
}

// UpdateVisit applies interaction metadata to the visit at time at.
func (s *pageStore) UpdateVisit(
	ctx context.Context,
	normalizedURL string,
	at time.Time,
	data domain.VisitInteraction,
) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE visits SET
			duration_ms = COALESCE(?, duration_ms),
			scroll_perc = COALESCE(?, scroll_perc)
		WHERE url = ? AND time_ns = ?
	`, nullDurationMillis(data.Duration), nullFloat(data.ScrollPerc), normalizedURL, toNanos(at))
	if err != nil {
		return fmt.Errorf("updating visit: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating visit: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListVisits returns visits of a page ordered by time.
func (s *pageStore) ListVisits(ctx context.Context, normalizedURL string) ([]domain.Visit, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT url, time_ns, duration_ms, scroll_perc
		FROM visits WHERE url = ? ORDER BY time_ns, id
	`, normalizedURL)
	if err != nil {
		return nil, fmt.Errorf("querying visits: %w", err)
	}
	defer rows.Close()

	var visits []domain.Visit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var visit domain.Visit
		var at, durationMillis int64
		if err := rows.Scan(&visit.URL, &at, &durationMillis, &visit.ScrollPerc); err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		visit.Time = fromNanos(at)
		visit.Duration = time.Duration(durationMillis) * time.Millisecond
		visits = append(visits, visit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating visits: %w", err)
	}
	return visits, nil
}

func nullDurationMillis(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: d.Milliseconds(), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// ==================== Favicons ====================

// GetFavIcon retrieves the favicon of hostname.
// Returns nil and no error if none is stored.
func (s *pageStore) GetFavIcon(ctx context.Context, hostname string) (*domain.FavIcon, error) {
	icon := domain.FavIcon{Hostname: hostname}
	err := s.store.db.QueryRowContext(ctx,
		"SELECT data_uri FROM fav_icons WHERE hostname = ?", hostname).Scan(&icon.DataURI)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying favicon: %w", err)
	}
	return &icon, nil
}

// SaveFavIcon stores or replaces a favicon.
func (s *pageStore) SaveFavIcon(ctx context.Context, icon domain.FavIcon) error {
	if icon.Hostname == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO fav_icons (hostname, data_uri)
		VALUES (?, ?)
		ON CONFLICT(hostname) DO UPDATE SET data_uri = excluded.data_uri
	`, icon.Hostname, icon.DataURI)
	if err != nil {
		return fmt.Errorf("saving favicon: %w", err)
	}
	return nil
}
