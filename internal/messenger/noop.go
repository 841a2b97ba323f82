package messenger

import (
	"context"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
	"github.com/hugo-lorenzo-mato/caso/internal/logging"
)

// Noop discards records.
type Noop struct {
	logger *logging.Logger
}

// NewNoop creates a Noop messenger.
func NewNoop(logger *logging.Logger) *Noop {
	return &Noop{logger: logger}
}

// Name implements core.Messenger.
func (n *Noop) Name() string { return "noop" }

// Push implements core.Messenger.
func (n *Noop) Push(_ context.Context, records []core.Record) error {
	n.logger.Debug("discarding records", "records", len(records))
	return nil
}
