package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dawei41468/CardGameApp/pkg/log"
	"github.com/dawei41468/CardGameApp/pkg/rooms"
)

const (
	// StaleActiveThreshold is the inactivity window for the lastActive
	// sweep triggered after room creation.
	StaleActiveThreshold = 5 * time.Minute
	// StaleUpdatedThreshold is the inactivity window for the lastUpdated
	// sweep run by the create flow and the standalone sweeper.
	StaleUpdatedThreshold = 15 * time.Minute
)

// Archiver receives a room's raw document before the sweeper deletes it.
type Archiver interface {
	ArchiveRoom(ctx context.Context, code string, document json.RawMessage, archivedAt time.Time) error
}

type CleanupOptions struct {
	// Threshold is the inactivity window; rooms whose Field timestamp
	// predates now-Threshold are deleted.
	Threshold time.Duration
	// Field is the timestamp field to compare: lastActive or lastUpdated.
	Field string
	// Exclude is a room code the sweep must leave alone, typically the
	// room that triggered it.
	Exclude string
	// Archiver, when set, receives each room before deletion. Archive
	// failures are logged and do not block the delete.
	Archiver Archiver
}

// CleanupStaleRooms scans all rooms and deletes any whose activity
// timestamp predates the threshold. The sweep is best effort: individual
// failures are logged and skipped. It returns the number of rooms deleted.
func (e *Engine) CleanupStaleRooms(ctx context.Context, opts CleanupOptions) (int, error) {
	field := opts.Field
	if field == "" {
		field = rooms.PathLastActive
	}

	snap, err := e.store.Get(ctx, "")
	if err != nil {
		return 0, &StoreError{Op: "cleanup stale rooms", Err: err}
	}

	cutoff := e.nowMillis() - opts.Threshold.Milliseconds()
	deleted := 0
	for _, code := range snap.Keys() {
		if code == opts.Exclude {
			continue
		}
		stamp, _ := snap.Child(code).Child(field).Int64()
		if stamp >= cutoff {
			continue
		}

		if opts.Archiver != nil {
			if err := e.archiveRoom(ctx, opts.Archiver, code, snap.Child(code).Value()); err != nil {
				log.Warn("Failed to archive stale room %s: %v", code, err)
			}
		}
		if err := e.store.Delete(ctx, code); err != nil {
			log.Warn("Failed to delete stale room %s: %v", code, err)
			continue
		}
		log.Info("Deleted stale room %s (%s: %d)", code, field, stamp)
		deleted++
	}
	return deleted, nil
}

func (e *Engine) archiveRoom(ctx context.Context, archiver Archiver, code string, value interface{}) error {
	document, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return archiver.ArchiveRoom(ctx, code, document, e.now())
}
