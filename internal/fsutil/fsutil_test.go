package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFileScoped_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(p, []byte("hello"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	b, err := ReadFileScoped(p)
	if err != nil {
		t.Fatalf("ReadFileScoped error: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("unexpected content: %q", string(b))
	}
}

func TestReadFileScoped_RejectsInvalidPath(t *testing.T) {
	for _, p := range []string{"", ".", string(filepath.Separator)} {
		if _, err := ReadFileScoped(p); err == nil {
			t.Fatalf("expected error for %q", p)
		}
	}
}

func TestReadFileScoped_MissingFileIsNotExist(t *testing.T) {
	_, err := ReadFileScoped(filepath.Join(t.TempDir(), "lastrun"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
}

func TestReadFileScoped_NonexistentDirectory(t *testing.T) {
	_, err := ReadFileScoped(filepath.Join(t.TempDir(), "nodir", "file.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spool", "caso")
	require.NoError(t, EnsureDir(dir, 0o750))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent.
	require.NoError(t, EnsureDir(dir, 0o750))
	assert.Error(t, EnsureDir("", 0o750))
}

func TestAtomicWriteFile_CreatesAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "lastrun")

	require.NoError(t, AtomicWriteFile(p, []byte("first\n"), 0o644))
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))

	require.NoError(t, AtomicWriteFile(p, []byte("second\n"), 0o644))
	data, err = os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestAtomicWriteFile_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows - Unix permissions not supported")
	}
	p := filepath.Join(t.TempDir(), "msg.json")
	require.NoError(t, AtomicWriteFile(p, []byte("{}"), 0o600))

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAtomicWriteFile_ConcurrentWritersLeaveOneValue(t *testing.T) {
	p := filepath.Join(t.TempDir(), "lastrun")
	values := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup
	for _, v := range values {
		wg.Add(1)
		go func(v string) {
			defer wg.Done()
			_ = AtomicWriteFile(p, []byte(v), 0o644)
		}(v)
	}
	wg.Wait()

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, values, string(data))
}
