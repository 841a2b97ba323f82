package extract

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
)

const selectRecords = `
	SELECT uuid, site_name, name, user_id, group_id, fqan, status, cloud_type,
	       image_id, start_time, end_time, wall_duration, cpu_duration,
	       cpu_count, memory, disk, benchmark_type, benchmark_value
	FROM usage_records
	WHERE updated_at >= ?`

// SQLiteExtractor reads usage records from a SQLite accounting database.
// The usage_records table keeps one row per record with times as unix
// seconds; updated_at moves whenever a record changes.
type SQLiteExtractor struct {
	path     string
	projects []string
}

// SQLiteOption configures the extractor.
type SQLiteOption func(*SQLiteExtractor)

// WithProjects restricts extraction to records of these groups.
func WithProjects(projects ...string) SQLiteOption {
	return func(e *SQLiteExtractor) {
		e.projects = projects
	}
}

// NewSQLiteExtractor creates an extractor for the database at path.
func NewSQLiteExtractor(path string, opts ...SQLiteOption) *SQLiteExtractor {
	e := &SQLiteExtractor{path: path}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements core.Extractor.
func (e *SQLiteExtractor) Name() string {
	return "sqlite"
}

// uriEscaper escapes the characters that end or alter the path part of an
// SQLite URI filename.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// readOnlyDSN builds a read-only SQLite URI for path.
func readOnlyDSN(path string) string {
	u := url.URL{
		Scheme:   "file",
		Opaque:   uriEscaper.Replace(filepath.ToSlash(path)),
		RawQuery: "mode=ro&_pragma=busy_timeout(5000)",
	}
	return u.String()
}

// Extract returns records updated at or after lastrun. The bound is
// truncated to whole seconds, so a record may be returned twice across runs
// but never skipped.
func (e *SQLiteExtractor) Extract(ctx context.Context, lastrun time.Time) ([]core.Record, error) {
	// Read-only: the extractor must never create or migrate the source.
	db, err := sql.Open("sqlite", readOnlyDSN(e.path))
	if err != nil {
		return nil, fmt.Errorf("opening accounting database: %w", err)
	}
	defer db.Close()

	query := selectRecords
	args := []any{lastrun.Unix()}
	if len(e.projects) > 0 {
		query += " AND group_id IN (" + strings.TrimSuffix(strings.Repeat("?,", len(e.projects)), ",") + ")"
		for _, p := range e.projects {
			args = append(args, p)
		}
	}
	query += " ORDER BY updated_at, uuid"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying usage records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var (
			r          core.Record
			start, end sql.NullInt64
		)
		if err := rows.Scan(
			&r.UUID, &r.SiteName, &r.Name, &r.UserID, &r.GroupID, &r.FQAN,
			&r.Status, &r.CloudType, &r.ImageID, &start, &end,
			&r.WallDuration, &r.CPUDuration, &r.CPUCount, &r.Memory, &r.Disk,
			&r.BenchmarkType, &r.BenchmarkValue,
		); err != nil {
			return nil, fmt.Errorf("scanning usage record: %w", err)
		}
		r.StartTime = unixPtr(start)
		r.EndTime = unixPtr(end)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating usage records: %w", err)
	}
	return records, nil
}

func unixPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

var _ core.Extractor = (*SQLiteExtractor)(nil)
