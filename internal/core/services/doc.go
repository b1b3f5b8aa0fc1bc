// Package services implements the driving port interfaces.
//
// The page indexing core lives here: ContentInfoCache holds what is known
// about each logical document, IdentifierResolver maps observed locations
// to canonical identifiers, TabCoordinator lets callers wait for the
// identifier of a tab's page, and PageIndexingService stores pages under
// their canonical URL.
package services
