package repositories

import (
	"encoding/json"
	"time"
)

// RoomArchive is a room's final state as captured when the room was
// garbage-collected. Snapshot is the raw room subtree.
type RoomArchive struct {
	Code       string          `json:"code"`
	Snapshot   json.RawMessage `json:"snapshot"`
	ArchivedAt time.Time       `json:"archivedAt"`
}

type ErrNotFound struct {
}

func (e *ErrNotFound) Error() string {
	return "not found"
}

func IsNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}
