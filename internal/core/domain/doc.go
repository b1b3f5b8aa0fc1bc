// Package domain defines the core business entities for pagekeep.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Fingerprint: Location-independent evidence of a document's content
//   - Locator: A fingerprint observed at one concrete location
//   - ContentIdentifier: The canonical name of an indexed page
//   - ContentInfo: Locators plus primary and alias identifiers of one document
//   - Page: An indexed page record
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
