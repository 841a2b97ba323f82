// Package lastrun persists the high-water mark of the last committed run.
package lastrun

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
	"github.com/hugo-lorenzo-mato/caso/internal/fsutil"
)

// FileName is the marker file name inside the spool directory.
const FileName = "lastrun"

// layouts are tried in order. Layouts without a zone are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// FileStore keeps the marker as a single human-readable timestamp file.
type FileStore struct {
	path string
}

// NewFileStore creates a store for <spoolDir>/lastrun.
func NewFileStore(spoolDir string) *FileStore {
	return &FileStore{path: filepath.Join(spoolDir, FileName)}
}

// Path returns the marker file path.
func (s *FileStore) Path() string {
	return s.path
}

// Exists checks if the marker file exists.
func (s *FileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Read returns the stored marker in UTC, or core.Epoch if none was written.
// An unparseable marker is a core.ErrCorruptState.
func (s *FileStore) Read(_ context.Context) (time.Time, error) {
	data, err := fsutil.ReadFileScoped(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Epoch, nil
		}
		return time.Time{}, fmt.Errorf("reading last run marker: %w", err)
	}

	raw := string(data)
	t, err := Parse(raw)
	if err != nil {
		return time.Time{}, core.ErrCorruptState(s.path, strings.TrimSpace(raw), err)
	}
	return t, nil
}

// Write replaces the marker. It returns only once the new value is on disk.
func (s *FileStore) Write(_ context.Context, t time.Time) error {
	if err := fsutil.EnsureDir(filepath.Dir(s.path), 0o750); err != nil {
		return err
	}
	if err := fsutil.AtomicWriteFile(s.path, []byte(Format(t)+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing last run marker: %w", err)
	}
	return nil
}

// Format renders t the way it is stored.
func Format(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Parse reads a stored marker. Besides RFC 3339 it accepts the space
// separated form written by older releases and a bare date.
func Parse(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errors.New("empty marker")
	}

	var firstErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

var _ core.LastRunStore = (*FileStore)(nil)
