package lastrun

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
)

func TestFileStore_ReadMissingReturnsEpoch(t *testing.T) {
	store := NewFileStore(t.TempDir())

	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Equal(core.Epoch), "got %s", got)
	assert.Equal(t, time.UTC, got.Location())
	assert.False(t, store.Exists(), "read must not create the marker")
}

func TestFileStore_ReadMissingSpoolDirReturnsEpoch(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "not-created-yet"))

	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Equal(core.Epoch))
}

func TestFileStore_WriteThenRead(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	want := time.Date(2024, 3, 15, 12, 30, 45, 123456789, time.UTC)
	require.NoError(t, store.Write(ctx, want))

	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(want), "got %s want %s", got, want)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15T12:30:45.123456789Z\n", string(data))
}

func TestFileStore_WriteNormalizesToUTC(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	madrid := time.FixedZone("CET", 3600)
	require.NoError(t, store.Write(ctx, time.Date(2024, 1, 1, 1, 0, 0, 0, madrid)))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00Z\n", string(data))
}

func TestFileStore_WriteCreatesSpoolDir(t *testing.T) {
	spool := filepath.Join(t.TempDir(), "var", "spool", "caso")
	store := NewFileStore(spool)

	require.NoError(t, store.Write(context.Background(), time.Now()))
	assert.True(t, store.Exists())
	assert.Equal(t, filepath.Join(spool, FileName), store.Path())
}

func TestFileStore_WriteOverwrites(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	require.NoError(t, store.Write(ctx, first))
	require.NoError(t, store.Write(ctx, second))

	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(second))
}

func TestFileStore_ReadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"garbage", "not-a-date"},
		{"empty", ""},
		{"whitespace", "  \n"},
		{"partial", "2024-13-45"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(tt.content), 0o644))

			_, err := NewFileStore(dir).Read(context.Background())
			require.Error(t, err)
			assert.True(t, core.IsCorruptState(err), "got %v", err)
		})
	}
}

func TestFileStore_ReadUnreadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory markers behave differently on Windows")
	}
	dir := t.TempDir()
	// A directory where the marker should be is an I/O failure, not corruption.
	require.NoError(t, os.Mkdir(filepath.Join(dir, FileName), 0o755))

	_, err := NewFileStore(dir).Read(context.Background())
	require.Error(t, err)
	assert.False(t, core.IsCorruptState(err))
}

func TestParse_AcceptedLayouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-01T00:00:00Z", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01T00:00:00.5Z\n", time.Date(2024, 1, 1, 0, 0, 0, 500000000, time.UTC)},
		{"2024-01-01T02:00:00+02:00", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2014-11-20 10:11:12.123456+00:00", time.Date(2014, 11, 20, 10, 11, 12, 123456000, time.UTC)},
		{"2014-11-20 10:11:12+00:00", time.Date(2014, 11, 20, 10, 11, 12, 0, time.UTC)},
		{"2024-01-01T00:00:00+0000", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01 01:30:00.25+0130", time.Date(2024, 1, 1, 0, 0, 0, 250000000, time.UTC)},
		{"2014-11-20T10:11:12", time.Date(2014, 11, 20, 10, 11, 12, 0, time.UTC)},
		{"2014-11-20 10:11:12", time.Date(2014, 11, 20, 10, 11, 12, 0, time.UTC)},
		{"1970-01-01", core.Epoch},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	now := time.Now()
	got, err := Parse(Format(now))
	require.NoError(t, err)
	assert.True(t, got.Equal(now))
}
