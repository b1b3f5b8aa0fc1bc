package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
	"github.com/custodia-labs/pagekeep/internal/core/ports/driven"
	"github.com/custodia-labs/pagekeep/internal/logger"
	"github.com/custodia-labs/pagekeep/internal/metrics"
	"github.com/custodia-labs/pagekeep/internal/urlnorm"
)

// ResolveRequest describes one observation of content at a location.
type ResolveRequest struct {
	Locator      domain.LocatorParams
	Fingerprints []domain.Fingerprint
}

// IdentifierResolver maps observations to canonical content identifiers.
// Content carrying a fingerprint is resolved to one primary identifier no
// matter where it was observed; the observed location is recorded as an
// alias and as a locator of the content.
type IdentifierResolver struct {
	cache          *ContentInfoCache
	pageStore      driven.PageStore
	staleAfter     time.Duration
	baseLocatorURL string
	recorder       metrics.Recorder
	getNow         func() time.Time
}

// NewIdentifierResolver creates a resolver.
// A nil recorder disables metrics.
func NewIdentifierResolver(
	cache *ContentInfoCache,
	pageStore driven.PageStore,
	identity domain.IdentitySettings,
	recorder metrics.Recorder,
) *IdentifierResolver {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	staleAfter := identity.StaleAfter
	if staleAfter <= 0 {
		staleAfter = domain.DefaultStaleAfter
	}
	return &IdentifierResolver{
		cache:          cache,
		pageStore:      pageStore,
		staleAfter:     staleAfter,
		baseLocatorURL: identity.BaseLocatorURL,
		recorder:       recorder,
		getNow:         time.Now,
	}
}

// BaseLocatorURL returns the prefix of synthesized primary identifiers.
func (r *IdentifierResolver) BaseLocatorURL() string {
	if r.baseLocatorURL == "" {
		return urlnorm.DefaultBaseLocatorURL
	}
	return r.baseLocatorURL
}

// Resolve returns the canonical identifier for an observation.
//
// Without fingerprints the observed location is its own identifier and
// nothing is recorded. Otherwise the content info for the location is
// looked up (cache, then durable storage, then synthesized), the location
// is added as an alias and, unless redundant, as a locator. Locators are
// written to durable storage only for identities already stored there.
func (r *IdentifierResolver) Resolve(ctx context.Context, req ResolveRequest) (domain.ContentIdentifier, error) {
	original := req.Locator.OriginalLocation
	if original == "" {
		return domain.ContentIdentifier{}, fmt.Errorf("resolve identifier: empty location: %w", domain.ErrInvalidInput)
	}

	regular := domain.ContentIdentifier{
		NormalizedURL: urlnorm.Normalize(original),
		FullURL:       original,
	}
	if len(req.Fingerprints) == 0 {
		r.recorder.ObserveResolution(metrics.ResolutionRegular)
		return regular, nil
	}

	now := r.getNow()
	info, ok, err := r.cache.Get(ctx, regular.NormalizedURL)
	if err != nil {
		return domain.ContentIdentifier{}, err
	}

	path := metrics.ResolutionCached
	var stored *domain.StoredIdentity
	if !ok || info.IsStale(now, r.staleAfter) {
		stored, err = r.pageStore.GetContentIdentifier(ctx, req.Fingerprints)
		if err != nil {
			return domain.ContentIdentifier{}, fmt.Errorf("lookup stored identifier: %w", err)
		}

		if stored != nil {
			path = metrics.ResolutionStored
			info, err = r.infoFromStored(ctx, stored, now)
		} else {
			info, path, err = r.infoFromFingerprint(ctx, req, regular, now)
		}
		if err != nil {
			return domain.ContentIdentifier{}, err
		}
	}

	info.AddAlias(regular)

	added := 0
	unsupportedWithAliases := !urlnorm.IsSupported(original) && len(info.AliasIdentifiers) > 0
	for _, fp := range req.Fingerprints {
		if info.HasLocator(fp, original, unsupportedWithAliases) {
			continue
		}
		info.Locators = append(info.Locators, newLocator(req.Locator, fp, info.PrimaryIdentifier, now))
		added++
	}

	primary := info.PrimaryIdentifier
	if err := r.cache.Put(ctx, info, regular.NormalizedURL, primary.NormalizedURL); err != nil {
		return domain.ContentIdentifier{}, err
	}
	if err := r.cache.Persist(ctx); err != nil {
		return domain.ContentIdentifier{}, err
	}

	if stored != nil && added > 0 {
		if err := r.pageStore.StoreLocators(ctx, primary, info.Locators); err != nil {
			return domain.ContentIdentifier{}, fmt.Errorf("store locators: %w", err)
		}
	}

	r.recorder.ObserveResolution(path)
	r.recorder.ObserveLocatorsMerged(added)
	logger.Debug("resolved %s to %s via %s (%d new locators)", original, primary.NormalizedURL, path, added)
	return primary, nil
}

// infoFromStored seeds content info from a durably stored identity,
// reusing the cached entry of its primary identifier if there is one.
func (r *IdentifierResolver) infoFromStored(
	ctx context.Context,
	stored *domain.StoredIdentity,
	now time.Time,
) (*domain.ContentInfo, error) {
	cached, ok, err := r.cache.Get(ctx, stored.Identifier.NormalizedURL)
	if err != nil {
		return nil, err
	}
	if ok {
		return cached, nil
	}

	info := &domain.ContentInfo{
		AsOf:              now,
		Locators:          append([]domain.Locator(nil), stored.Locators...),
		PrimaryIdentifier: stored.Identifier,
	}
	for _, loc := range stored.Locators {
		info.AddAlias(domain.ContentIdentifier{
			NormalizedURL: urlnorm.Normalize(loc.OriginalLocation),
			FullURL:       loc.OriginalLocation,
		})
	}
	return info, nil
}

// infoFromFingerprint synthesizes a primary identifier from the first
// fingerprint. A fresh cache entry for it is reused so that content seen at
// several locations before it is stored keeps one info.
func (r *IdentifierResolver) infoFromFingerprint(
	ctx context.Context,
	req ResolveRequest,
	regular domain.ContentIdentifier,
	now time.Time,
) (*domain.ContentInfo, string, error) {
	base := urlnorm.BaseLocatorURL(r.baseLocatorURL, req.Fingerprints[0].Value, string(req.Locator.Format))
	primary := domain.ContentIdentifier{
		NormalizedURL: urlnorm.Normalize(base),
		FullURL:       base,
	}

	cached, ok, err := r.cache.Get(ctx, primary.NormalizedURL)
	if err != nil {
		return nil, "", err
	}
	if ok && !cached.IsStale(now, r.staleAfter) {
		return cached, metrics.ResolutionCached, nil
	}

	return &domain.ContentInfo{
		AsOf:              now,
		Locators:          []domain.Locator{},
		PrimaryIdentifier: primary,
		AliasIdentifiers:  []domain.ContentIdentifier{regular},
	}, metrics.ResolutionNew, nil
}

func newLocator(
	params domain.LocatorParams,
	fp domain.Fingerprint,
	primary domain.ContentIdentifier,
	now time.Time,
) domain.Locator {
	locationType := domain.LocationTypeRemote
	locationScheme := domain.LocationSchemeNormalizedURL
	if urlnorm.IsLocal(params.OriginalLocation) {
		locationType = domain.LocationTypeLocal
		locationScheme = domain.LocationSchemeFilesystemPath
	}
	return domain.Locator{
		Format:            params.Format,
		OriginalLocation:  params.OriginalLocation,
		Location:          urlnorm.Normalize(params.OriginalLocation),
		LocationType:      locationType,
		LocationScheme:    locationScheme,
		Fingerprint:       fp.Value,
		FingerprintScheme: fp.Scheme,
		NormalizedURL:     primary.NormalizedURL,
		Primary:           true,
		Valid:             true,
		Version:           0,
		LastVisited:       now,
	}
}
