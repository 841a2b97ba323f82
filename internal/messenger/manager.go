// Package messenger implements the dispatch gateway: it delivers a run's
// records to every configured sink.
package messenger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
	"github.com/hugo-lorenzo-mato/caso/internal/logging"
)

// Manager pushes records to a set of messengers.
type Manager struct {
	messengers []core.Messenger
	logger     *logging.Logger
}

// NewManager creates a manager over messengers.
func NewManager(messengers []core.Messenger, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{messengers: messengers, logger: logger}
}

// Messengers returns the configured messengers.
func (m *Manager) Messengers() []core.Messenger {
	return m.messengers
}

// PushToAll pushes records to every messenger. All messengers are attempted
// even when one fails; the result fails if any of them did.
func (m *Manager) PushToAll(ctx context.Context, records []core.Record) error {
	errs := make([]error, len(m.messengers))

	// A plain group: one sink failing must not cancel the others.
	var g errgroup.Group
	for i, msg := range m.messengers {
		i, msg := i, msg
		g.Go(func() error {
			log := m.logger.WithMessenger(msg.Name())
			start := time.Now()
			if err := msg.Push(ctx, records); err != nil {
				log.Error("push failed", "records", len(records), "error", err)
				errs[i] = fmt.Errorf("messenger %s: %w", msg.Name(), err)
				return nil
			}
			log.Info("pushed records", "records", len(records), "took", time.Since(start))
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for i, err := range errs {
		if err != nil {
			failed = append(failed, m.messengers[i].Name())
		}
	}
	if len(failed) > 0 {
		return core.ErrDispatch(errors.Join(errs...), failed)
	}
	return nil
}

var _ core.Dispatcher = (*Manager)(nil)
