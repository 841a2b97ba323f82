// Package extract implements the extraction gateway: it fans a run's lower
// bound out to every configured extractor and merges what they return.
package extract

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
	"github.com/hugo-lorenzo-mato/caso/internal/logging"
)

// Manager runs all extractors concurrently.
type Manager struct {
	extractors []core.Extractor
	siteName   string
	logger     *logging.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithSiteName stamps name on records that carry no site.
func WithSiteName(name string) Option {
	return func(m *Manager) {
		m.siteName = name
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a manager over extractors.
func NewManager(extractors []core.Extractor, opts ...Option) *Manager {
	m := &Manager{
		extractors: extractors,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetRecords returns the records of every extractor, in extractor order.
// Any failure fails the whole extraction.
func (m *Manager) GetRecords(ctx context.Context, lastrun time.Time) ([]core.Record, error) {
	results := make([][]core.Record, len(m.extractors))

	g, gctx := errgroup.WithContext(ctx)
	for i, ex := range m.extractors {
		i, ex := i, ex
		g.Go(func() error {
			log := m.logger.WithExtractor(ex.Name())
			start := time.Now()

			records, err := ex.Extract(gctx, lastrun)
			if err != nil {
				log.Error("extraction failed", "error", err)
				return fmt.Errorf("extractor %s: %w", ex.Name(), err)
			}
			log.Debug("extracted records",
				"count", len(records),
				"since", lastrun.Format(time.RFC3339),
				"took", time.Since(start))
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, core.ErrExtraction(err)
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	records := make([]core.Record, 0, total)
	for _, r := range results {
		for _, rec := range r {
			if rec.SiteName == "" {
				rec.SiteName = m.siteName
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

var _ core.RecordSource = (*Manager)(nil)
