package domain

import "time"

// DefaultStaleAfter is how long cached content info is trusted before it is
// re-derived from durable storage.
const DefaultStaleAfter = 7 * 24 * time.Hour

// FingerprintScheme names the algorithm that produced a fingerprint.
type FingerprintScheme string

// Known fingerprint schemes.
const (
	// FingerprintSchemePDFv1 is the fingerprint embedded in a PDF's trailer ID.
	FingerprintSchemePDFv1 FingerprintScheme = "pdf-v1"

	// FingerprintSchemeSHA256 is a hex SHA-256 digest of the raw bytes.
	FingerprintSchemeSHA256 FingerprintScheme = "sha256"
)

// Fingerprint identifies content independent of where it was found.
type Fingerprint struct {
	Scheme FingerprintScheme `json:"fingerprintScheme"`
	Value  string            `json:"fingerprint"`
}

// LocatorFormat is the document format a locator points at.
type LocatorFormat string

// Known locator formats.
const (
	LocatorFormatHTML LocatorFormat = "html"
	LocatorFormatPDF  LocatorFormat = "pdf"
)

// LocationType distinguishes on-device from networked locations.
type LocationType string

// Location types.
const (
	LocationTypeLocal  LocationType = "local"
	LocationTypeRemote LocationType = "remote"
)

// LocationScheme describes how Locator.Location was derived.
type LocationScheme string

// Location schemes.
const (
	LocationSchemeNormalizedURL  LocationScheme = "normalized-url-v1"
	LocationSchemeFilesystemPath LocationScheme = "filesystem-path-v1"
)

// LocatorParams is what a caller knows about the location it observed.
type LocatorParams struct {
	Format           LocatorFormat `json:"format"`
	OriginalLocation string        `json:"originalLocation"`
}

// Locator binds a fingerprint to one observed location.
type Locator struct {
	// ID is assigned by durable storage; empty until stored.
	ID string `json:"id,omitempty"`

	Format           LocatorFormat  `json:"format"`
	OriginalLocation string         `json:"originalLocation"`
	Location         string         `json:"location"`
	LocationType     LocationType   `json:"locationType"`
	LocationScheme   LocationScheme `json:"locationScheme"`

	Fingerprint       string            `json:"fingerprint"`
	FingerprintScheme FingerprintScheme `json:"fingerprintScheme"`

	// NormalizedURL is the primary identifier of the owning content info.
	NormalizedURL string `json:"normalizedUrl"`

	Primary     bool      `json:"primary"`
	Valid       bool      `json:"valid"`
	Version     int       `json:"version"`
	LastVisited time.Time `json:"lastVisited"`
}

// MatchesFingerprint reports whether the locator carries fp.
func (l Locator) MatchesFingerprint(fp Fingerprint) bool {
	return l.Fingerprint == fp.Value && l.FingerprintScheme == fp.Scheme
}

// ContentIdentifier is the externally visible canonical name of a page.
type ContentIdentifier struct {
	NormalizedURL string `json:"normalizedUrl"`
	FullURL       string `json:"fullUrl"`
}

// IsZero reports whether the identifier is unset.
func (c ContentIdentifier) IsZero() bool {
	return c.NormalizedURL == "" && c.FullURL == ""
}

// StoredIdentity is a content identifier as persisted together with its locators.
type StoredIdentity struct {
	Identifier ContentIdentifier
	Locators   []Locator
}

// ContentInfo aggregates everything known about one logical document.
// One ContentInfo is reachable under its primary and every alias URL.
type ContentInfo struct {
	// AsOf is when this info was derived.
	AsOf time.Time `json:"asOf"`

	Locators []Locator `json:"locators"`

	// PrimaryIdentifier is the identifier stored in the pages table.
	PrimaryIdentifier ContentIdentifier `json:"primaryIdentifier"`

	// AliasIdentifiers are the other URLs that point at the primary one.
	AliasIdentifiers []ContentIdentifier `json:"aliasIdentifiers"`
}

// IsStale reports whether the info is older than maxAge at now.
func (c *ContentInfo) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(c.AsOf) > maxAge
}

// HasAlias reports whether normalizedURL is already a known alias.
func (c *ContentInfo) HasAlias(normalizedURL string) bool {
	for _, alias := range c.AliasIdentifiers {
		if alias.NormalizedURL == normalizedURL {
			return true
		}
	}
	return false
}

// AddAlias appends id unless an alias with the same normalized URL exists.
// Returns true if the alias was added.
func (c *ContentInfo) AddAlias(id ContentIdentifier) bool {
	if c.HasAlias(id.NormalizedURL) {
		return false
	}
	c.AliasIdentifiers = append(c.AliasIdentifiers, id)
	return true
}

// HasLocator reports whether a locator for fp is already recorded at
// originalLocation. With anyLocation set, any locator carrying fp counts.
func (c *ContentInfo) HasLocator(fp Fingerprint, originalLocation string, anyLocation bool) bool {
	for i := range c.Locators {
		if !c.Locators[i].MatchesFingerprint(fp) {
			continue
		}
		if anyLocation || c.Locators[i].OriginalLocation == originalLocation {
			return true
		}
	}
	return false
}

// Fingerprints returns the fingerprint of every locator, in locator order.
func (c *ContentInfo) Fingerprints() []Fingerprint {
	fps := make([]Fingerprint, 0, len(c.Locators))
	for i := range c.Locators {
		fps = append(fps, Fingerprint{
			Scheme: c.Locators[i].FingerprintScheme,
			Value:  c.Locators[i].Fingerprint,
		})
	}
	return fps
}

// LatestLocator returns the most recently visited locator.
func (c *ContentInfo) LatestLocator() (Locator, bool) {
	if len(c.Locators) == 0 {
		return Locator{}, false
	}
	latest := c.Locators[0]
	for _, l := range c.Locators[1:] {
		if l.LastVisited.After(latest.LastVisited) {
			latest = l
		}
	}
	return latest, true
}

// Clone returns a deep copy.
func (c *ContentInfo) Clone() *ContentInfo {
	out := *c
	out.Locators = append([]Locator(nil), c.Locators...)
	out.AliasIdentifiers = append([]ContentIdentifier(nil), c.AliasIdentifiers...)
	return &out
}
