package driven

import "context"

// Settings keys used by the page indexing core.
const (
	// SettingsKeyPageContentInfo holds the whole normalizedUrl -> ContentInfo map.
	SettingsKeyPageContentInfo = "pageContentInfo"

	// SettingsKeyIndexedTabPages holds tabId -> fullUrl -> true.
	SettingsKeyIndexedTabPages = "indexedTabPages"
)

// SettingsStore persists JSON-serialisable values under string keys.
// Values are read and written whole; there is no partial update.
type SettingsStore interface {
	// Get decodes the value stored under key into dest.
	// Returns false and no error if the key has never been set.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value any) error
}
