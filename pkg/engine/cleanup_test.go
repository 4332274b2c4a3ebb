package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dawei41468/CardGameApp/pkg/rooms"
	"github.com/dawei41468/CardGameApp/pkg/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingArchiver struct {
	codes     []string
	documents []json.RawMessage
}

func (a *recordingArchiver) ArchiveRoom(ctx context.Context, code string, document json.RawMessage, archivedAt time.Time) error {
	a.codes = append(a.codes, code)
	a.documents = append(a.documents, document)
	return nil
}

func TestCleanupStaleRooms(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend()
	client := backend.NewClient()

	now := time.UnixMilli(1_700_000_000_000)
	e := NewEngine(NewEngineOptions{
		Store: client,
		Now:   func() time.Time { return now },
	})

	stale := now.Add(-10 * time.Minute).UnixMilli()
	fresh := now.Add(-1 * time.Minute).UnixMilli()

	require.NoError(t, client.Set(ctx, "1111", map[string]interface{}{
		rooms.PathHost:       "alice",
		rooms.PathLastActive: stale,
	}))
	require.NoError(t, client.Set(ctx, "2222", map[string]interface{}{
		rooms.PathHost:       "bob",
		rooms.PathLastActive: fresh,
	}))
	require.NoError(t, client.Set(ctx, "3333", map[string]interface{}{
		rooms.PathHost:       "carol",
		rooms.PathLastActive: stale,
	}))

	archiver := &recordingArchiver{}
	deleted, err := e.CleanupStaleRooms(ctx, CleanupOptions{
		Threshold: StaleActiveThreshold,
		Field:     rooms.PathLastActive,
		Archiver:  archiver,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	// Archived before deletion, in key order.
	require.Equal(t, []string{"1111", "3333"}, archiver.codes)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(archiver.documents[0], &doc))
	assert.Equal(t, "alice", doc[rooms.PathHost])

	snap, err := client.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"2222"}, snap.Keys())
}

func TestCleanupStaleRoomsExcludes(t *testing.T) {
	ctx := context.Background()
	client := memory.NewBackend().NewClient()

	now := time.UnixMilli(1_700_000_000_000)
	e := NewEngine(NewEngineOptions{
		Store: client,
		Now:   func() time.Time { return now },
	})

	stale := now.Add(-time.Hour).UnixMilli()
	require.NoError(t, client.Set(ctx, "1111", map[string]interface{}{rooms.PathLastActive: stale}))
	require.NoError(t, client.Set(ctx, "2222", map[string]interface{}{rooms.PathLastActive: stale}))

	deleted, err := e.CleanupStaleRooms(ctx, CleanupOptions{
		Threshold: StaleActiveThreshold,
		Exclude:   "2222",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	snap, err := client.Get(ctx, "2222")
	require.NoError(t, err)
	assert.True(t, snap.Exists())
}

func TestCleanupMissingTimestampCountsAsStale(t *testing.T) {
	ctx := context.Background()
	client := memory.NewBackend().NewClient()

	e := NewEngine(NewEngineOptions{
		Store: client,
		Now:   func() time.Time { return time.UnixMilli(1_700_000_000_000) },
	})

	require.NoError(t, client.Set(ctx, "1111", map[string]interface{}{rooms.PathHost: "alice"}))

	deleted, err := e.CleanupStaleRooms(ctx, CleanupOptions{Threshold: StaleActiveThreshold})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}
