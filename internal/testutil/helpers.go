// Package testutil holds fakes and helpers shared by package tests.
package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
)

// ErrTest is a generic test error.
var ErrTest = errors.New("test error")

// TempFile creates a file with content inside dir.
func TempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("creating dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

// Records returns n distinct records for site.
func Records(site string, n int) []core.Record {
	out := make([]core.Record, n)
	for i := range out {
		out[i] = core.Record{
			UUID:     fmt.Sprintf("%s-vm-%03d", site, i),
			SiteName: site,
			CPUCount: i + 1,
		}
	}
	return out
}
