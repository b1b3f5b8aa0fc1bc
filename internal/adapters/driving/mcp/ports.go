package mcp

import (
	"github.com/custodia-labs/pagekeep/internal/core/ports/driving"
)

// TabEvents receives tab lifecycle events reported by the browser side.
type TabEvents interface {
	Open(tabID int, fullURL string)
	SetIndexedURL(tabID int, indexedURL string) bool
	Close(tabID int) bool
}

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// PageIndexing resolves identifiers and indexes pages.
	PageIndexing driving.PageIndexingService

	// Tabs tracks open tabs. Optional; without it tab events only reset
	// identifier coordination.
	Tabs TabEvents
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.PageIndexing == nil {
		return ErrMissingPageIndexingService
	}
	return nil
}
