package repositories

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// InMemoryRepository keeps room archives in memory. It is intended for
// tests and for running the gateway without a database.
type InMemoryRepository struct {
	mu       sync.RWMutex
	archives []RoomArchive
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) Close(ctx context.Context) error {
	return nil
}

func (r *InMemoryRepository) ArchiveRoom(ctx context.Context, code string, snapshot json.RawMessage, archivedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archives = append(r.archives, RoomArchive{
		Code:       code,
		Snapshot:   snapshot,
		ArchivedAt: archivedAt,
	})
	return nil
}

func (r *InMemoryRepository) LoadRoomArchive(ctx context.Context, code string) (*RoomArchive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.archives) - 1; i >= 0; i-- {
		if r.archives[i].Code == code {
			archive := r.archives[i]
			return &archive, nil
		}
	}
	return nil, &ErrNotFound{}
}

func (r *InMemoryRepository) ListRoomArchives(ctx context.Context, limit int) ([]RoomArchive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	archives := make([]RoomArchive, 0, len(r.archives))
	for i := len(r.archives) - 1; i >= 0 && len(archives) < limit; i-- {
		archives = append(archives, r.archives[i])
	}
	return archives, nil
}
