package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// Status describes a named lock as seen from outside.
type Status struct {
	Path string
	Held bool
	// Holder is the last recorded holder, which may be from a finished run
	// when Held is false.
	Holder      *HolderInfo
	HolderAlive bool
}

// Inspect reports whether name is currently held and by whom. It tests the
// lock with a non-blocking acquire that is released straight away. The lock
// file is opened read-only so monitoring users need no write access.
func (l *FileLocker) Inspect(ctx context.Context, name string) (*Status, error) {
	st := &Status{Path: l.Path(name)}

	f, err := os.Open(st.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return st, nil
		}
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	defer f.Close()

	acquired, err := tryLockFile(f)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", st.Path, err)
	}
	if acquired {
		_ = unlockFile(f)
	}
	st.Held = !acquired

	data, err := os.ReadFile(st.Path)
	if err != nil || len(data) == 0 {
		return st, nil
	}
	var info HolderInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return st, nil
	}
	st.Holder = &info
	st.HolderAlive = processExists(ctx, info.PID)
	return st, nil
}

// processExists checks if a process is running.
func processExists(ctx context.Context, pid int) bool {
	if pid <= 0 {
		return false
	}
	if pid == os.Getpid() {
		return true
	}
	ok, err := process.PidExistsWithContext(ctx, int32(pid))
	return err == nil && ok
}
