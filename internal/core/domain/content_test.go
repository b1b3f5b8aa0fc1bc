package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fpABC = Fingerprint{Scheme: FingerprintSchemeSHA256, Value: "abc"}
	asOf  = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
)

func locatorAt(location string, fp Fingerprint, visited time.Time) Locator {
	return Locator{
		OriginalLocation:  location,
		Fingerprint:       fp.Value,
		FingerprintScheme: fp.Scheme,
		LastVisited:       visited,
	}
}

func TestContentInfo_IsStale(t *testing.T) {
	info := &ContentInfo{AsOf: asOf}

	assert.False(t, info.IsStale(asOf.Add(DefaultStaleAfter), DefaultStaleAfter))
	assert.True(t, info.IsStale(asOf.Add(DefaultStaleAfter+time.Second), DefaultStaleAfter))
}

func TestContentInfo_AddAlias(t *testing.T) {
	info := &ContentInfo{}

	assert.True(t, info.AddAlias(ContentIdentifier{NormalizedURL: "a.example/x", FullURL: "https://a.example/x"}))
	assert.False(t, info.AddAlias(ContentIdentifier{NormalizedURL: "a.example/x", FullURL: "http://www.a.example/x/"}))
	assert.True(t, info.HasAlias("a.example/x"))
	assert.False(t, info.HasAlias("b.example"))
	assert.Len(t, info.AliasIdentifiers, 1)
}

func TestContentInfo_HasLocator(t *testing.T) {
	info := &ContentInfo{Locators: []Locator{locatorAt("https://cdn.example/doc.pdf", fpABC, asOf)}}
	other := Fingerprint{Scheme: FingerprintSchemePDFv1, Value: "abc"}

	assert.True(t, info.HasLocator(fpABC, "https://cdn.example/doc.pdf", false))
	assert.False(t, info.HasLocator(fpABC, "blob:local1", false))
	assert.True(t, info.HasLocator(fpABC, "blob:local1", true))
	assert.False(t, info.HasLocator(other, "https://cdn.example/doc.pdf", true))
}

func TestContentInfo_FingerprintsAndLatest(t *testing.T) {
	info := &ContentInfo{Locators: []Locator{
		locatorAt("blob:local1", fpABC, asOf),
		locatorAt("https://cdn.example/doc.pdf", fpABC, asOf.Add(time.Hour)),
	}}

	assert.Equal(t, []Fingerprint{fpABC, fpABC}, info.Fingerprints())

	latest, ok := info.LatestLocator()
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example/doc.pdf", latest.OriginalLocation)

	_, ok = (&ContentInfo{}).LatestLocator()
	assert.False(t, ok)
}

func TestContentInfo_Clone(t *testing.T) {
	info := &ContentInfo{
		Locators:         []Locator{locatorAt("blob:local1", fpABC, asOf)},
		AliasIdentifiers: []ContentIdentifier{{NormalizedURL: "blob:local1"}},
	}

	clone := info.Clone()
	clone.Locators[0].OriginalLocation = "changed"
	clone.AddAlias(ContentIdentifier{NormalizedURL: "b.example"})

	assert.Equal(t, "blob:local1", info.Locators[0].OriginalLocation)
	assert.Len(t, info.AliasIdentifiers, 1)
}

func TestContentInfo_JSONFieldNames(t *testing.T) {
	info := ContentInfo{
		AsOf:              asOf,
		PrimaryIdentifier: ContentIdentifier{NormalizedURL: "memex.cloud/ct/abc.pdf", FullURL: "https://memex.cloud/ct/abc.pdf"},
	}

	raw, err := json.Marshal(info)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Contains(t, fields, "asOf")
	assert.Contains(t, fields, "primaryIdentifier")
	assert.Contains(t, fields, "aliasIdentifiers")
	assert.Contains(t, fields, "locators")
}

func TestContentIdentifier_IsZero(t *testing.T) {
	assert.True(t, ContentIdentifier{}.IsZero())
	assert.False(t, ContentIdentifier{NormalizedURL: "a.example"}.IsZero())
}
