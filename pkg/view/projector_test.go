package view

import (
	"context"
	"testing"
	"time"

	"github.com/dawei41468/CardGameApp/pkg/engine"
	"github.com/dawei41468/CardGameApp/pkg/rooms"
	"github.com/dawei41468/CardGameApp/pkg/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainUpdates(p *Projector) {
	for {
		select {
		case <-p.Updates():
		default:
			return
		}
	}
}

func expectUpdate(t *testing.T, p *Projector) State {
	t.Helper()
	select {
	case state := <-p.Updates():
		return state
	case <-time.After(time.Second):
		t.Fatal("no update")
		return State{}
	}
}

func expectNoUpdate(t *testing.T, p *Projector, within time.Duration) {
	t.Helper()
	select {
	case state := <-p.Updates():
		t.Fatalf("unexpected update: %+v", state)
	case <-time.After(within):
	}
}

func TestProjectorCoalescesBursts(t *testing.T) {
	ctx := context.Background()
	client := memory.NewBackend().NewClient()
	e := engine.NewEngine(engine.NewEngineOptions{Store: client})

	require.NoError(t, client.Set(ctx, "1234", map[string]interface{}{
		rooms.PathHost: "alice",
		rooms.PathPlayers: map[string]interface{}{
			"alice": rooms.EncodePlayerEntry(false),
		},
	}))

	p := NewProjector(NewProjectorOptions{
		Store:      client,
		Engine:     e,
		RoomCode:   "1234",
		PlayerName: "alice",
		Debounce:   150 * time.Millisecond,
	})
	require.NoError(t, p.Start(ctx))
	defer p.Stop()

	// Initial snapshot plus an immediate burst of writes: the debounce
	// collapses everything into one pass over the latest snapshot.
	require.NoError(t, client.Set(ctx, "1234/state", rooms.StateWaiting))
	require.NoError(t, client.Set(ctx, "1234/host", "bob"))
	require.NoError(t, client.Set(ctx, "1234/host", "alice"))

	state := expectUpdate(t, p)
	assert.Equal(t, "alice", state.Host)
	assert.True(t, state.IsHost)

	expectNoUpdate(t, p, 300*time.Millisecond)
}

func TestProjectorProcessesLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	client := memory.NewBackend().NewClient()
	e := engine.NewEngine(engine.NewEngineOptions{Store: client})

	require.NoError(t, client.Set(ctx, "1234", map[string]interface{}{
		rooms.PathHost: "alice",
		rooms.PathPlayers: map[string]interface{}{
			"alice": rooms.EncodePlayerEntry(false),
		},
	}))

	p := NewProjector(NewProjectorOptions{
		Store:      client,
		Engine:     e,
		RoomCode:   "1234",
		PlayerName: "alice",
		Debounce:   10 * time.Millisecond,
	})
	require.NoError(t, p.Start(ctx))
	defer p.Stop()

	require.Eventually(t, func() bool {
		return p.State().RoomExists
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, client.Set(ctx, "1234/players/bob", rooms.EncodePlayerEntry(false)))

	require.Eventually(t, func() bool {
		return len(p.State().Players) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestProjectorHealsMissingHost(t *testing.T) {
	ctx := context.Background()
	client := memory.NewBackend().NewClient()
	e := engine.NewEngine(engine.NewEngineOptions{Store: client})

	// The recorded host has already left the room.
	require.NoError(t, client.Set(ctx, "1234", map[string]interface{}{
		rooms.PathHost: "zed",
		rooms.PathPlayers: map[string]interface{}{
			"alice": rooms.EncodePlayerEntry(false),
			"bob":   rooms.EncodePlayerEntry(false),
		},
	}))

	p := NewProjector(NewProjectorOptions{
		Store:      client,
		Engine:     e,
		RoomCode:   "1234",
		PlayerName: "alice",
		Debounce:   10 * time.Millisecond,
	})
	require.NoError(t, p.Start(ctx))
	defer p.Stop()

	// The heal write elects the first remaining player and re-triggers
	// the subscription; this client then observes itself as host.
	require.Eventually(t, func() bool {
		return p.State().Host == "alice" && p.State().IsHost
	}, time.Second, 10*time.Millisecond)
}

func TestProjectorBecameHostReachesUpdates(t *testing.T) {
	ctx := context.Background()
	client := memory.NewBackend().NewClient()
	e := engine.NewEngine(engine.NewEngineOptions{Store: client})

	require.NoError(t, client.Set(ctx, "1234", map[string]interface{}{
		rooms.PathHost: "zed",
		rooms.PathPlayers: map[string]interface{}{
			"alice": rooms.EncodePlayerEntry(false),
		},
	}))

	p := NewProjector(NewProjectorOptions{
		Store:      client,
		Engine:     e,
		RoomCode:   "1234",
		PlayerName: "alice",
		Debounce:   10 * time.Millisecond,
	})
	require.NoError(t, p.Start(ctx))
	defer p.Stop()

	// Exactly one update carries the one-shot promotion flag.
	promoted := 0
	deadline := time.After(time.Second)
	for promoted == 0 {
		select {
		case state := <-p.Updates():
			if state.BecameHost {
				promoted++
			}
		case <-deadline:
			t.Fatal("never promoted to host")
		}
	}
	assert.Equal(t, 1, promoted)
	assert.True(t, p.State().IsHost)
}

func TestProjectorStateAfterRoomDeleted(t *testing.T) {
	ctx := context.Background()
	client := memory.NewBackend().NewClient()
	e := engine.NewEngine(engine.NewEngineOptions{Store: client})

	require.NoError(t, client.Set(ctx, "1234", map[string]interface{}{
		rooms.PathHost: "alice",
		rooms.PathPlayers: map[string]interface{}{
			"alice": rooms.EncodePlayerEntry(false),
		},
	}))

	p := NewProjector(NewProjectorOptions{
		Store:      client,
		Engine:     e,
		RoomCode:   "1234",
		PlayerName: "alice",
		Debounce:   10 * time.Millisecond,
	})
	require.NoError(t, p.Start(ctx))
	defer p.Stop()

	require.Eventually(t, func() bool {
		return p.State().RoomExists
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, client.Delete(ctx, "1234"))

	require.Eventually(t, func() bool {
		return !p.State().RoomExists
	}, time.Second, 10*time.Millisecond)
}

func TestProjectorRestartResubscribes(t *testing.T) {
	ctx := context.Background()
	client := memory.NewBackend().NewClient()
	e := engine.NewEngine(engine.NewEngineOptions{Store: client})

	require.NoError(t, client.Set(ctx, "1234/host", "alice"))

	p := NewProjector(NewProjectorOptions{
		Store:      client,
		Engine:     e,
		RoomCode:   "1234",
		PlayerName: "alice",
		Debounce:   10 * time.Millisecond,
	})
	require.NoError(t, p.Start(ctx))

	require.Eventually(t, func() bool {
		return p.State().RoomExists
	}, time.Second, 10*time.Millisecond)

	p.Stop()
	drainUpdates(p)

	// Writes while stopped are not observed.
	require.NoError(t, client.Set(ctx, "1234/host", "bob"))
	expectNoUpdate(t, p, 100*time.Millisecond)
	assert.Equal(t, "alice", p.State().Host)

	// Restarting delivers a fresh snapshot of the current tree.
	require.NoError(t, p.Start(ctx))
	defer p.Stop()

	require.Eventually(t, func() bool {
		return p.State().Host == "bob"
	}, time.Second, 10*time.Millisecond)
}
