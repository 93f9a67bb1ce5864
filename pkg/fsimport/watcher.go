package fsimport

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/flysightviewer/flysightviewer/pkg/engine"
	"github.com/flysightviewer/flysightviewer/pkg/telemetry"
)

// SessionHandler receives each session imported by the watcher.
type SessionHandler func(session *engine.Session, path string)

// Watcher imports new log files dropped into a directory. A mounted
// FlySight shows up as a directory of CSV logs, so watching the mount
// point picks up each flight as it is copied off the device.
type Watcher struct {
	dir      string
	importer *Importer
	logger   *telemetry.Logger
	handler  SessionHandler
}

// NewWatcher creates a watcher for dir. handler must not be nil.
func NewWatcher(dir string, importer *Importer, logger *telemetry.Logger, handler SessionHandler) *Watcher {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	return &Watcher{
		dir:      dir,
		importer: importer,
		logger:   logger.NewComponentLogger("watcher"),
		handler:  handler,
	}
}

// Run watches until ctx is cancelled. Each created log file is imported
// once its create event arrives; import failures are logged and skipped
// so one bad file never stops the loop.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.WithField("dir", w.dir).Info("Watching for log files")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) || !isLogFile(event.Name) {
				continue
			}
			session, err := w.importer.ImportFile(ctx, event.Name)
			if err != nil {
				w.logger.WithError(err).WithField("path", event.Name).Warn("Skipping unimportable file")
				continue
			}
			w.handler(session, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Watcher error")
		}
	}
}

func isLogFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}
