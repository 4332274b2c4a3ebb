// Package presence manages the lifetime of "being in a room": creating or
// joining, registering store-enforced disconnect cleanup, re-attaching
// after transport reconnects, and tearing the room down on exit.
package presence

import (
	"context"
	"fmt"
	"sync"

	"github.com/dawei41468/CardGameApp/pkg/cards"
	"github.com/dawei41468/CardGameApp/pkg/engine"
	"github.com/dawei41468/CardGameApp/pkg/log"
	"github.com/dawei41468/CardGameApp/pkg/rooms"
	"github.com/dawei41468/CardGameApp/pkg/store"
	"github.com/dawei41468/CardGameApp/pkg/view"
)

// EventType classifies session lifecycle events surfaced to the UI layer.
type EventType int

const (
	// EventReconnected fires when transport connectivity returns and the
	// player is still in the room.
	EventReconnected EventType = iota
	// EventRejoined fires when the player had to be re-inserted into the
	// room after a reconnect.
	EventRejoined
	// EventRoomGone fires when the room vanished while disconnected; the
	// client must navigate back to the lobby.
	EventRoomGone
)

type Event struct {
	Type    EventType
	Message string
}

// Session is one player's membership in one room.
type Session struct {
	store     store.Store
	engine    *engine.Engine
	projector *view.Projector

	code       string
	playerName string

	mu         sync.Mutex
	connCancel func()
	closed     bool

	events chan Event
}

// SessionManager creates and tracks room sessions over one store client.
type SessionManager struct {
	store  store.Store
	engine *engine.Engine
}

type NewSessionManagerOptions struct {
	Store  store.Store
	Engine *engine.Engine
}

func NewSessionManager(opts NewSessionManagerOptions) *SessionManager {
	return &SessionManager{
		store:  opts.Store,
		engine: opts.Engine,
	}
}

// Create allocates a new room, registers the creating player, and returns
// an attached session. It also runs the long-horizon stale sweep the
// create flow owns.
func (m *SessionManager) Create(ctx context.Context, settings cards.RoomSettings, hostName string) (*Session, error) {
	if _, err := m.engine.CleanupStaleRooms(ctx, engine.CleanupOptions{
		Threshold: engine.StaleUpdatedThreshold,
		Field:     rooms.PathLastUpdated,
	}); err != nil {
		log.Warn("Stale room sweep before create failed: %v", err)
	}

	code, err := m.engine.CreateRoom(ctx, settings, hostName)
	if err != nil {
		return nil, err
	}
	name := engine.TrimName(hostName)
	if err := m.engine.RegisterPlayer(ctx, code, name); err != nil {
		return nil, err
	}
	return m.attach(ctx, code, name)
}

// Join admits the player into an existing room and returns an attached
// session. A false joined result means the room was full or the name was
// taken; no session is created.
func (m *SessionManager) Join(ctx context.Context, code, playerName string) (*Session, bool, error) {
	joined, err := m.engine.JoinRoom(ctx, code, playerName)
	if err != nil {
		return nil, false, err
	}
	if !joined {
		return nil, false, nil
	}
	session, err := m.attach(ctx, code, engine.TrimName(playerName))
	if err != nil {
		return nil, false, err
	}
	return session, true, nil
}

func (m *SessionManager) attach(ctx context.Context, code, playerName string) (*Session, error) {
	s := &Session{
		store:      m.store,
		engine:     m.engine,
		code:       code,
		playerName: playerName,
		events:     make(chan Event, 16),
	}

	hookPath := code + "/" + rooms.PlayerPath(playerName)
	if err := m.store.RegisterOnDisconnect(ctx, hookPath); err != nil {
		return nil, fmt.Errorf("failed to register disconnect cleanup: %w", err)
	}

	s.projector = view.NewProjector(view.NewProjectorOptions{
		Store:      m.store,
		Engine:     m.engine,
		RoomCode:   code,
		PlayerName: playerName,
	})
	if err := s.projector.Start(ctx); err != nil {
		m.dropHook(ctx, hookPath)
		return nil, fmt.Errorf("failed to subscribe to room %s: %w", code, err)
	}

	connCh, connCancel, err := m.store.Connectivity(ctx)
	if err != nil {
		s.projector.Stop()
		m.dropHook(ctx, hookPath)
		return nil, fmt.Errorf("failed to watch connectivity: %w", err)
	}
	s.connCancel = connCancel
	go s.watchConnectivity(ctx, connCh)

	log.Info("Session attached: %s in room %s", playerName, code)
	return s, nil
}

// dropHook withdraws the disconnect hook of an attach that failed partway.
func (m *SessionManager) dropHook(ctx context.Context, path string) {
	if err := m.store.UnregisterOnDisconnect(ctx, path); err != nil {
		log.Warn("Failed to withdraw disconnect cleanup for %s: %v", path, err)
	}
}

// Code returns the session's room code.
func (s *Session) Code() string {
	return s.code
}

// PlayerName returns the session's player identity.
func (s *Session) PlayerName() string {
	return s.playerName
}

// Projector returns the session's view projector.
func (s *Session) Projector() *view.Projector {
	return s.projector
}

// Events surfaces lifecycle events for the UI layer.
func (s *Session) Events() <-chan Event {
	return s.events
}

// watchConnectivity reacts to transport transitions: on every
// disconnected-to-connected edge it re-checks the room and re-attaches.
func (s *Session) watchConnectivity(ctx context.Context, ch <-chan bool) {
	connected := true
	for {
		select {
		case <-ctx.Done():
			return
		case now, ok := <-ch:
			if !ok {
				return
			}
			if now == connected {
				continue
			}
			connected = now
			log.Info("Network status changed to %s for %s", statusString(now), s.playerName)
			if now {
				s.rejoin(ctx)
			}
		}
	}
}

func (s *Session) rejoin(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	snap, err := s.store.Get(ctx, s.code)
	if err != nil {
		log.Error("Failed to re-check room %s after reconnect: %v", s.code, err)
		return
	}
	if !snap.Exists() {
		log.Info("Room %s no longer exists on reconnect", s.code)
		s.emit(Event{Type: EventRoomGone, Message: fmt.Sprintf("Room %s no longer exists", s.code)})
		return
	}

	rejoined := false
	if !snap.Child(rooms.PlayerPath(s.playerName)).Exists() {
		if err := s.engine.RegisterPlayer(ctx, s.code, s.playerName); err != nil {
			log.Error("Failed to rejoin room %s as %s: %v", s.code, s.playerName, err)
			return
		}
		if err := s.store.RegisterOnDisconnect(ctx, s.code+"/"+rooms.PlayerPath(s.playerName)); err != nil {
			log.Warn("Failed to re-register disconnect cleanup: %v", err)
		}
		rejoined = true
		log.Info("Rejoined room %s as %s", s.code, s.playerName)
	}

	if err := s.projector.Start(ctx); err != nil {
		log.Error("Failed to re-subscribe to room %s: %v", s.code, err)
		return
	}

	if rejoined {
		s.emit(Event{Type: EventRejoined, Message: fmt.Sprintf("Rejoined room %s", s.code)})
	} else {
		s.emit(Event{Type: EventReconnected, Message: "Reconnected"})
	}
}

// Leave removes this player's presence entry and tears the session down.
func (s *Session) Leave(ctx context.Context) error {
	defer s.teardown()
	if err := s.engine.RemovePlayer(ctx, s.code, s.playerName); err != nil {
		return err
	}
	log.Info("%s left room %s", s.playerName, s.code)
	return nil
}

// Exit tears the session down; a host exit deletes the whole room, any
// other exit just removes the player's presence entry.
func (s *Session) Exit(ctx context.Context) error {
	defer s.teardown()
	if s.projector.State().IsHost {
		return s.engine.DeleteRoom(ctx, s.code)
	}
	return s.engine.RemovePlayer(ctx, s.code, s.playerName)
}

func (s *Session) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.projector.Stop()
	if s.connCancel != nil {
		s.connCancel()
	}
}

func (s *Session) emit(event Event) {
	select {
	case s.events <- event:
	default:
	}
}

func statusString(connected bool) string {
	if connected {
		return "connected"
	}
	return "disconnected"
}
