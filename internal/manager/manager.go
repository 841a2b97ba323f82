// Package manager runs one accounting extraction: it takes the run lock,
// reads the last-run marker, extracts records since then, hands them to the
// messengers and, once every messenger accepted them, advances the marker.
package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/caso/internal/config"
	"github.com/hugo-lorenzo-mato/caso/internal/core"
	"github.com/hugo-lorenzo-mato/caso/internal/lock"
	"github.com/hugo-lorenzo-mato/caso/internal/logging"
)

// State is a step of a run.
type State string

const (
	StateIdle          State = "idle"
	StateLockAcquired  State = "lock_acquired"
	StateMarkerRead    State = "marker_read"
	StateExtracted     State = "extracted"
	StateDispatched    State = "dispatched"
	StateMarkerUpdated State = "marker_updated"
	StateSkipped       State = "skipped"
)

// Deps are the collaborators of a run.
type Deps struct {
	Store      core.LastRunStore
	Locker     core.Locker
	Extractor  core.RecordSource
	Dispatcher core.Dispatcher
	Logger     *logging.Logger
}

// RunResult summarizes a run.
type RunResult struct {
	RunID      string
	LastRun    time.Time
	NewLastRun time.Time
	Records    int
	DryRun     bool
	Dispatched bool
	Committed  bool
	Duration   time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock used for the new marker.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLockName overrides the run lock name.
func WithLockName(name string) Option {
	return func(m *Manager) {
		m.lockName = name
	}
}

// Manager orchestrates runs. A Manager may run many times; concurrent runs,
// in this process or any other, are excluded by the lock.
type Manager struct {
	rc       config.RunConfiguration
	deps     Deps
	lockName string
	now      func() time.Time
}

// New creates a Manager.
func New(rc config.RunConfiguration, deps Deps, opts ...Option) *Manager {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	m := &Manager{
		rc:       rc,
		deps:     deps,
		lockName: lock.RunLockName,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes one run. When another run holds the lock it returns an error
// for which core.IsLockUnavailable is true and touches nothing.
func (m *Manager) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	res := &RunResult{RunID: uuid.NewString(), DryRun: m.rc.DryRun}
	log := m.deps.Logger.WithRun(res.RunID)

	unlocker, err := m.deps.Locker.TryLock(ctx, m.lockName)
	if err != nil {
		if core.IsLockUnavailable(err) {
			return nil, err
		}
		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}
	defer func() {
		if uerr := unlocker.Unlock(); uerr != nil {
			log.Warn("releasing run lock", "lock", m.lockName, "error", uerr)
		}
		log.Debug("state", "state", StateIdle)
	}()
	log.Debug("state", "state", StateLockAcquired, "lock", m.lockName)

	runCtx := ctx
	if m.rc.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.rc.Timeout)
		defer cancel()
	}

	err = m.run(runCtx, log, res)
	res.Duration = time.Since(start)
	if err != nil {
		return res, m.timeoutError(ctx, runCtx, err)
	}

	log.Info("run finished",
		"records", res.Records,
		"lastrun", res.LastRun,
		"new_lastrun", res.NewLastRun,
		"dry_run", res.DryRun,
		"committed", res.Committed,
		"took", res.Duration)
	return res, nil
}

func (m *Manager) run(ctx context.Context, log *logging.Logger, res *RunResult) error {
	lastrun, err := m.deps.Store.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading last run marker: %w", err)
	}
	res.LastRun = lastrun
	log.Debug("state", "state", StateMarkerRead, "lastrun", lastrun)

	records, err := m.deps.Extractor.GetRecords(ctx, lastrun)
	if err != nil {
		return err
	}
	res.Records = len(records)
	log.Debug("state", "state", StateExtracted, "records", len(records))

	if m.rc.DryRun {
		log.Info("dry run, not pushing records nor updating the marker", "records", len(records))
		log.Debug("state", "state", StateSkipped)
		return nil
	}

	if err := m.deps.Dispatcher.PushToAll(ctx, records); err != nil {
		return err
	}
	res.Dispatched = true
	log.Debug("state", "state", StateDispatched)

	// Taken after dispatch: records produced while pushing fall at or after
	// the new marker and are picked up by the next run.
	next := m.now().UTC()
	if next.Before(lastrun) {
		log.Warn("clock is behind the last run marker, keeping it", "now", next, "lastrun", lastrun)
		next = lastrun
	}
	if err := m.deps.Store.Write(ctx, next); err != nil {
		return fmt.Errorf("writing last run marker: %w", err)
	}
	res.NewLastRun = next
	res.Committed = true
	log.Debug("state", "state", StateMarkerUpdated, "lastrun", next)
	return nil
}

// timeoutError reports errors caused by the run timeout as timeouts.
func (m *Manager) timeoutError(parent, runCtx context.Context, err error) error {
	if parent.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return core.ErrTimeout(fmt.Sprintf("run exceeded %s", m.rc.Timeout)).WithCause(err)
	}
	return err
}
