package index

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arnstad/sigil/internal/apperr"
	"github.com/arnstad/sigil/internal/checksum"
	"github.com/arnstad/sigil/internal/diagramstore"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "updated", "deleted".
type EventCallback func(kind, id string)

// Watch starts an fsnotify watcher on the diagrams directory and folds
// externally edited content files back into the index until ctx is
// cancelled. It calls cb (if non-nil) after each successful index
// mutation.
//
// Only top-level .mmd files are watched; version snapshots live under
// versions/ and are immutable, so that directory is not added. Writes
// to the metadata index (renames, deletes done by another process)
// trigger a debounced reconciliation pass.
func Watch(ctx context.Context, db *DB, diagrams *diagramstore.Store, diagramsDir string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(diagramsDir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", diagramsDir))

	// reconcileTimer debounces full reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if err := Sync(db, diagrams, logger); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name := filepath.Base(ev.Name)

			// The metadata index changes on every store mutation;
			// a cheap debounced sync catches renames and deletes.
			if name == "metadata.json" && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				scheduleReconcile()
				continue
			}

			if !strings.HasSuffix(name, ".mmd") {
				continue
			}
			id := strings.TrimSuffix(name, ".mmd")

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				d, getErr := diagrams.GetByID(id)
				if getErr != nil {
					if !errors.Is(getErr, apperr.ErrNotFound) {
						logger.Warn("watcher: read failed", slog.String("id", id), slog.String("error", getErr.Error()))
					}
					continue
				}
				// Store-driven writes were already indexed and announced
				// by the service; skip the echo when nothing changed.
				if prev, csErr := db.GetChecksum(id); csErr == nil && checksum.Match([]byte(d.Content), prev) {
					continue
				}
				row := DiagramRow{
					ID:        d.ID,
					Name:      d.Name,
					Checksum:  checksum.Sum([]byte(d.Content)),
					UpdatedAt: d.UpdatedAt,
				}
				if idxErr := db.Upsert(row, d.Content); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("id", id), slog.String("error", idxErr.Error()))
					continue
				}
				logger.Debug("watcher: indexed", slog.String("id", id))
				if cb != nil {
					cb("updated", id)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if delErr := db.Delete(id); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("id", id), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("id", id))
				if cb != nil {
					cb("deleted", id)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
