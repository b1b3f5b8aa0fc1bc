package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// Identity Errors.

	// ErrIdentifierTimeout indicates a content identifier was not resolved
	// before the caller's deadline.
	ErrIdentifierTimeout = errors.New("content identifier resolution timed out")

	// ErrMissingContentInfo indicates cached content info expected to hold
	// locators for a page does not. The identity cache is inconsistent.
	ErrMissingContentInfo = errors.New("content info missing for page")

	// ErrNoTab indicates page extraction from a tab was requested without a tab.
	ErrNoTab = errors.New("no tab to extract content from")

	// ErrUnreadableLocation indicates content lives where only the browser
	// can read it, such as a blob: URL or a file on another host.
	ErrUnreadableLocation = errors.New("content location is not readable here")
)

// IdentifierTimeoutError is returned when waiting on a tab's content
// identifier exceeds the allotted time.
type IdentifierTimeoutError struct {
	TabID   int
	FullURL string
}

// Error implements error.
func (e *IdentifierTimeoutError) Error() string {
	return fmt.Sprintf("could not resolve identifier in time for tab: %d, page: %s", e.TabID, e.FullURL)
}

// Unwrap allows errors.Is(err, ErrIdentifierTimeout).
func (e *IdentifierTimeoutError) Unwrap() error {
	return ErrIdentifierTimeout
}
