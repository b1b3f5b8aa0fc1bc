// Package mcp provides an MCP (Model Context Protocol) server adapter for
// pagekeep. Content scripts and assistants use its tools to resolve content
// identifiers, wait on them per tab, and index pages.
package mcp

import "errors"

// ErrMissingPageIndexingService is returned when the page indexing service is not provided.
var ErrMissingPageIndexingService = errors.New("mcp: page indexing service is required")

// errInvalidTime is returned for timestamps that are not RFC 3339.
var errInvalidTime = errors.New("mcp: time must be RFC 3339")
