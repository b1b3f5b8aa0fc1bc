// Package metrics records identity resolution and indexing activity.
//
// Components receive a Recorder through their constructors. NoopRecorder is
// the default; PrometheusRecorder is wired in by the serve command when a
// metrics address is configured.
package metrics

import "time"

// Resolution paths reported by IdentifierResolver.
const (
	ResolutionRegular = "regular"
	ResolutionCached  = "cached"
	ResolutionStored  = "stored"
	ResolutionNew     = "new"
)

// Wait outcomes reported by TabCoordinator.
const (
	WaitResolved  = "resolved"
	WaitTimeout   = "timeout"
	WaitCancelled = "cancelled"
)

// Upsert operations reported by the page pipeline.
const (
	UpsertCreate = "create"
	UpsertUpdate = "update"
)

// Recorder receives identity and indexing events.
type Recorder interface {
	// ObserveResolution counts a Resolve call by the path it took.
	ObserveResolution(path string)

	// ObserveLocatorsMerged counts locators appended to content info.
	ObserveLocatorsMerged(n int)

	// ObserveWait records how a wait for an identifier ended and how long it took.
	ObserveWait(outcome string, d time.Duration)

	// ObservePageUpsert counts page creates and updates.
	ObservePageUpsert(op string)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

// ObserveResolution implements Recorder.
func (NoopRecorder) ObserveResolution(string) {}

// ObserveLocatorsMerged implements Recorder.
func (NoopRecorder) ObserveLocatorsMerged(int) {}

// ObserveWait implements Recorder.
func (NoopRecorder) ObserveWait(string, time.Duration) {}

// ObservePageUpsert implements Recorder.
func (NoopRecorder) ObservePageUpsert(string) {}
