// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SettingsStore: Whole-value JSON settings (content info cache, indexed tab pages)
//   - PageStore: Pages, visits, locators and favicons
//   - ContentStore: Persistent document content (HTML bodies, PDF texts)
//   - ContentExtractor: Title/text/favicon/PDF extraction for tabs and URLs
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - TabManager: Without it, pages are always extracted by fetching their URL.
//   - InboxService: Without it, no inbox entries are created on first index.
//   - PageCounter: Without it, indexed pages are not counted.
//   - PagePostProcessor: Without it, page data is stored as extracted.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
