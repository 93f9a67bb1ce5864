package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flysightviewer/flysightviewer/pkg/engine"
	"github.com/flysightviewer/flysightviewer/pkg/fsimport"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch a directory and import new log files",
		Long: `Watch a directory for new log files and import each one as it
appears, recording it in the session catalog with its standard
attributes resolved. Runs until interrupted.

The directory defaults to watch.dir from the config file.`,
		Example: `  # Watch a mounted FlySight
  fsv watch /mnt/flysight

  # Watch the configured directory with metrics exposed
  fsv watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close(ctx)

			dir := a.cfg.Watch.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("no directory given and watch.dir is not configured")
			}

			store, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if a.cfg.Telemetry.Metrics.Enabled {
				go func() {
					if err := a.metrics.Serve(); err != nil {
						a.logger.WithError(err).Error("Metrics server stopped")
					}
				}()
			}

			watcher := fsimport.NewWatcher(dir, a.importer, a.logger, func(session *engine.Session, path string) {
				a.evaluator.Adopt(session)
				defer session.Close()

				if err := a.recordSession(ctx, store, session, path); err != nil {
					a.logger.WithError(err).WithField("path", path).Warn("Failed to catalog session")
					return
				}
				if err := saveAttrs(ctx, store, session.ID(), resolveAttrs(session)); err != nil {
					a.logger.WithError(err).WithSessionID(session.ID()).Warn("Failed to save attributes")
				}
			})

			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	return cmd
}
