// Package lock provides the cross-process run lock.
//
// The lock is an OS advisory lock on <dir>/<name>.lock. Acquisition never
// waits: a held lock is reported as core.ErrLockUnavailable so overlapping
// scheduled invocations exit instead of piling up. The kernel drops the lock
// when the holder exits, so a crashed run never leaves a stale lock behind.
package lock

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
	"github.com/hugo-lorenzo-mato/caso/internal/fsutil"
)

// RunLockName is the lock every run of caso-extract takes.
const RunLockName = "caso_should_not_run_in_parallel"

// HolderInfo is written into the lock file by the process holding it.
// It is informational only; the OS lock is authoritative.
type HolderInfo struct {
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// FileLocker hands out named locks backed by files in one directory.
type FileLocker struct {
	dir string
}

// NewFileLocker creates a locker keeping its lock files in dir.
func NewFileLocker(dir string) *FileLocker {
	return &FileLocker{dir: dir}
}

// Dir returns the lock directory.
func (l *FileLocker) Dir() string {
	return l.dir
}

// Path returns the lock file path for name.
func (l *FileLocker) Path(name string) string {
	return filepath.Join(l.dir, name+".lock")
}

// TryLock acquires the named lock or fails immediately.
func (l *FileLocker) TryLock(ctx context.Context, name string) (core.Unlocker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("lock name is required")
	}
	if err := fsutil.EnsureDir(l.dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	path := l.Path(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	acquired, err := tryLockFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !acquired {
		f.Close()
		return nil, core.ErrLockUnavailable(name).WithDetail("path", path)
	}

	h := &Handle{name: name, path: path, f: f}
	if err := h.writeHolder(); err != nil {
		_ = h.Unlock()
		return nil, fmt.Errorf("writing lock holder: %w", err)
	}
	return h, nil
}

// Handle is an acquired lock.
type Handle struct {
	mu   sync.Mutex
	name string
	path string
	f    *os.File
}

// Name returns the lock name.
func (h *Handle) Name() string {
	return h.name
}

// Unlock releases the lock. The lock file stays in place: removing it would
// let a waiting process lock an unlinked inode while a third creates a new one.
func (h *Handle) Unlock() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.f == nil {
		return nil
	}
	f := h.f
	h.f = nil

	unlockErr := unlockFile(f)
	closeErr := f.Close()
	if unlockErr != nil {
		return fmt.Errorf("unlocking %s: %w", h.path, unlockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing %s: %w", h.path, closeErr)
	}
	return nil
}

func (h *Handle) writeHolder() error {
	hostname, _ := os.Hostname()
	data, err := json.Marshal(HolderInfo{
		PID:        os.Getpid(),
		Hostname:   hostname,
		AcquiredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := h.f.Truncate(0); err != nil {
		return err
	}
	if _, err := h.f.WriteAt(data, 0); err != nil {
		return err
	}
	return h.f.Sync()
}

var _ core.Locker = (*FileLocker)(nil)
