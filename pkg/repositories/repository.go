package repositories

import (
	"context"
	"encoding/json"
	"time"
)

type Repository interface {
	Close(ctx context.Context) error
	ArchiveRoom(ctx context.Context, code string, snapshot json.RawMessage, archivedAt time.Time) error
	LoadRoomArchive(ctx context.Context, code string) (*RoomArchive, error)
	ListRoomArchives(ctx context.Context, limit int) ([]RoomArchive, error)
}
