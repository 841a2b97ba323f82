package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
	"github.com/hugo-lorenzo-mato/caso/internal/extract"
	"github.com/hugo-lorenzo-mato/caso/internal/lastrun"
	"github.com/hugo-lorenzo-mato/caso/internal/lock"
	"github.com/hugo-lorenzo-mato/caso/internal/manager"
	"github.com/hugo-lorenzo-mato/caso/internal/messenger"
)

// runExtract performs one run. Finding another run in progress is not an
// error: scheduled invocations overlap routinely.
func (a *app) runExtract(cmd *cobra.Command, _ []string) error {
	if f := cmd.Flags().Lookup("dry_run"); f != nil && f.Changed {
		a.v.Set("dry_run", f.Value.String() == "true")
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger := a.newLogger(cmd, cfg)

	rc, err := cfg.RunConfiguration()
	if err != nil {
		return err
	}

	extractors, err := extract.FromConfig(cfg)
	if err != nil {
		return err
	}
	messengers, err := messenger.FromConfig(cfg, logger)
	if err != nil {
		return err
	}

	m := manager.New(rc, manager.Deps{
		Store:  lastrun.NewFileStore(rc.SpoolDir),
		Locker: lock.NewFileLocker(rc.LockPath),
		Extractor: extract.NewManager(extractors,
			extract.WithSiteName(cfg.SiteName),
			extract.WithLogger(logger)),
		Dispatcher: messenger.NewManager(messengers, logger),
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := m.Run(ctx); err != nil {
		if core.IsLockUnavailable(err) {
			logger.Info("another run is in progress, skipping", "lock_path", rc.LockPath)
			return nil
		}
		logger.Error("run failed", "error", err)
		return err
	}
	return nil
}
