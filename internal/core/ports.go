package core

import (
	"context"
	"time"
)

// =============================================================================
// Last-run marker
// =============================================================================

// LastRunStore persists the end of the last committed run.
type LastRunStore interface {
	// Read returns the marker, or Epoch when none has been written yet.
	Read(ctx context.Context) (time.Time, error)

	// Write durably replaces the marker.
	Write(ctx context.Context, t time.Time) error
}

// Epoch is the marker used before the first committed run.
var Epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// =============================================================================
// Process lock
// =============================================================================

// Locker provides system-wide mutual exclusion keyed by name.
type Locker interface {
	// TryLock acquires the named lock without waiting. A held lock yields
	// an error for which IsLockUnavailable is true.
	TryLock(ctx context.Context, name string) (Unlocker, error)
}

// Unlocker releases an acquired lock. Calling Unlock twice is a no-op.
type Unlocker interface {
	Unlock() error
}

// =============================================================================
// Extraction
// =============================================================================

// Extractor produces accounting records from a single source.
type Extractor interface {
	Name() string

	// Extract returns records produced since lastrun.
	Extract(ctx context.Context, lastrun time.Time) ([]Record, error)
}

// RecordSource is the extraction gateway consumed by the run orchestrator.
type RecordSource interface {
	GetRecords(ctx context.Context, lastrun time.Time) ([]Record, error)
}

// =============================================================================
// Dispatch
// =============================================================================

// Messenger delivers records to one sink.
type Messenger interface {
	Name() string
	Push(ctx context.Context, records []Record) error
}

// Dispatcher is the dispatch gateway consumed by the run orchestrator.
// PushToAll fails if any configured messenger fails.
type Dispatcher interface {
	PushToAll(ctx context.Context, records []Record) error
}
