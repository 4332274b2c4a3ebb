package repositories

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	_, err := repo.LoadRoomArchive(ctx, "1234")
	assert.True(t, IsNotFound(err))

	first := json.RawMessage(`{"host":"alice"}`)
	second := json.RawMessage(`{"host":"bob"}`)
	require.NoError(t, repo.ArchiveRoom(ctx, "1234", first, time.UnixMilli(1000)))
	require.NoError(t, repo.ArchiveRoom(ctx, "5678", second, time.UnixMilli(2000)))

	archive, err := repo.LoadRoomArchive(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, "1234", archive.Code)
	assert.JSONEq(t, string(first), string(archive.Snapshot))
	assert.Equal(t, time.UnixMilli(1000), archive.ArchivedAt)
}

func TestInMemoryRepositoryLoadsLatest(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	require.NoError(t, repo.ArchiveRoom(ctx, "1234", json.RawMessage(`{"n":1}`), time.UnixMilli(1000)))
	require.NoError(t, repo.ArchiveRoom(ctx, "1234", json.RawMessage(`{"n":2}`), time.UnixMilli(2000)))

	archive, err := repo.LoadRoomArchive(ctx, "1234")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":2}`, string(archive.Snapshot))
}

func TestInMemoryRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	for i, code := range []string{"1111", "2222", "3333"} {
		require.NoError(t, repo.ArchiveRoom(ctx, code, json.RawMessage(`{}`), time.UnixMilli(int64(i+1)*1000)))
	}

	archives, err := repo.ListRoomArchives(ctx, 2)
	require.NoError(t, err)
	require.Len(t, archives, 2)
	assert.Equal(t, "3333", archives[0].Code)
	assert.Equal(t, "2222", archives[1].Code)

	archives, err = repo.ListRoomArchives(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, archives, 3)
}
