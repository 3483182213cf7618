package index

import (
	"log/slog"

	"github.com/arnstad/sigil/internal/checksum"
	"github.com/arnstad/sigil/internal/diagramstore"
)

// Sync brings the index in line with the diagram store:
//   - new/changed diagrams are upserted
//   - diagrams gone from the store are deleted from the index
func Sync(db *DB, diagrams *diagramstore.Store, logger *slog.Logger) error {
	list, err := diagrams.List()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(list))
	for _, d := range list {
		seen[d.ID] = struct{}{}

		cs := checksum.Sum([]byte(d.Content))
		if checksums[d.ID] == cs {
			continue
		}
		row := DiagramRow{ID: d.ID, Name: d.Name, Checksum: cs, UpdatedAt: d.UpdatedAt}
		if err := db.Upsert(row, d.Content); err != nil {
			logger.Warn("sync: index failed", slog.String("id", d.ID), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("id", d.ID))
		}
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := seen[id]; !ok {
			if err := db.Delete(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("id", id))
			}
		}
	}

	return nil
}
