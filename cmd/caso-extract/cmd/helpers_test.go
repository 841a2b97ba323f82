package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/caso/internal/testutil"
)

// env describes a throwaway installation: spool, accounting db and ssm queue.
type env struct {
	dir    string
	spool  string
	db     string
	outbox string
	config string
}

func newEnv(t *testing.T, updated ...time.Time) *env {
	t.Helper()
	for _, key := range []string{"CASO_LOCK_PATH", "CASO_SPOOL_DIRECTORY", "CASO_MESSENGERS", "CASO_DRY_RUN"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	e := &env{
		dir:    dir,
		spool:  filepath.Join(dir, "spool"),
		db:     filepath.Join(dir, "accounting.db"),
		outbox: filepath.Join(dir, "outgoing"),
		config: filepath.Join(dir, "caso.yaml"),
	}

	db, err := sql.Open("sqlite", e.db)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(testutil.AccountingSchema)
	require.NoError(t, err)
	for i, ts := range updated {
		_, err := db.Exec(`INSERT INTO usage_records (uuid, group_id, updated_at) VALUES (?, 'p1', ?)`,
			fmt.Sprintf("vm-%d", i), ts.Unix())
		require.NoError(t, err)
	}

	cfg := fmt.Sprintf(`messengers: [ssm]
spool_directory: %s
site_name: TEST-SITE
extractor:
  sqlite:
    path: %s
messenger:
  ssm:
    output_path: %s
log:
  level: error
  format: json
`, e.spool, e.db, e.outbox)
	require.NoError(t, os.WriteFile(e.config, []byte(cfg), 0o600))
	return e
}

// run executes the command line against e's config file.
func (e *env) run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (e *env) outboxFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.outbox)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}
