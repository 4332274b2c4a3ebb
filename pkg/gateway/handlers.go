package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dawei41468/CardGameApp/pkg/cards"
	"github.com/dawei41468/CardGameApp/pkg/engine"
	"github.com/dawei41468/CardGameApp/pkg/log"
	"github.com/dawei41468/CardGameApp/pkg/repositories"
	"github.com/gorilla/mux"
)

const defaultOpTimeout = 10 * time.Second

type createRoomRequest struct {
	HostName string              `json:"hostName"`
	Settings *cards.RoomSettings `json:"settings,omitempty"`
}

type joinRoomRequest struct {
	PlayerName string `json:"playerName"`
}

type sessionResponse struct {
	SessionID  string `json:"sessionId"`
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type actionRequest struct {
	Action    string       `json:"action"`
	Cards     []cards.Card `json:"cards,omitempty"`
	DealCount int          `json:"dealCount,omitempty"`
	NumDecks  int          `json:"numDecks,omitempty"`
	ToPlayer  string       `json:"toPlayer,omitempty"`
	Host      string       `json:"host,omitempty"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Failed to decode request body", http.StatusBadRequest)
		return
	}

	settings := cards.DefaultRoomSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	// Session subscriptions outlive this request, so they are scoped to
	// the server's base context rather than the request's.
	session, err := s.sessions.Create(s.baseCtx, settings, req.HostName)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	cs := s.registry.add(session)
	go s.forwardEvents(cs)

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID:  cs.id,
		RoomCode:   session.Code(),
		PlayerName: session.PlayerName(),
	})
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Failed to decode request body", http.StatusBadRequest)
		return
	}

	session, joined, err := s.sessions.Join(s.baseCtx, code, req.PlayerName)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !joined {
		http.Error(w, "Room is full or the name is already taken", http.StatusConflict)
		return
	}

	cs := s.registry.add(session)
	go s.forwardEvents(cs)

	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:  cs.id,
		RoomCode:   session.Code(),
		PlayerName: session.PlayerName(),
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	ctx, cancel := context.WithTimeout(r.Context(), defaultOpTimeout)
	defer cancel()

	room, err := s.engine.GetRoom(ctx, code)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	cs, err := s.registry.get(mux.Vars(r)["sessionID"])
	if err != nil {
		http.Error(w, "Unknown session", http.StatusNotFound)
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Failed to decode request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultOpTimeout)
	defer cancel()

	if err := s.dispatchAction(ctx, cs, req); err != nil {
		writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) dispatchAction(ctx context.Context, cs *clientSession, req actionRequest) error {
	code := cs.session.Code()
	player := cs.session.PlayerName()
	state := cs.session.Projector().State()

	switch req.Action {
	case "start":
		dealCount := req.DealCount
		if dealCount <= 0 {
			dealCount = cards.DefaultRoomSettings().DealCount
		}
		if err := s.engine.StartGame(ctx, code, state.Players, dealCount, req.NumDecks); err != nil {
			return err
		}
		cs.notify("Game started")
	case "play":
		if err := s.engine.PlayCards(ctx, code, player, req.Cards); err != nil {
			return err
		}
		cs.notify(fmt.Sprintf("Played %d cards", len(req.Cards)))
	case "discard":
		if err := s.engine.DiscardCards(ctx, code, player, req.Cards); err != nil {
			return err
		}
		cs.notify(fmt.Sprintf("Discarded %d cards", len(req.Cards)))
	case "recall":
		if err := s.engine.RecallLastPile(ctx, code, player); err != nil {
			return err
		}
		cs.notify("Recalled last played pile")
	case "draw":
		card, err := s.engine.DrawCard(ctx, code, player)
		if err != nil {
			return err
		}
		cs.notify(fmt.Sprintf("Drew the %s of %s", card.Rank, card.Suit))
	case "drawDiscard":
		card, err := s.engine.DrawFromDiscard(ctx, code, player)
		if err != nil {
			return err
		}
		cs.notify(fmt.Sprintf("Took the %s of %s from the discard pile", card.Rank, card.Suit))
	case "shuffle":
		if err := s.engine.ShuffleDeck(ctx, code); err != nil {
			return err
		}
		cs.notify("Shuffled the table back into the deck")
	case "deal":
		count := req.DealCount
		if count <= 0 {
			return &engine.InvalidArgumentError{Reason: "deal count must be positive"}
		}
		if err := s.engine.DealDeck(ctx, code, state.Players, count); err != nil {
			return err
		}
		cs.notify(fmt.Sprintf("Dealt %d cards to each player", count))
	case "move":
		if err := s.engine.MoveCards(ctx, code, player, req.ToPlayer, req.Cards); err != nil {
			return err
		}
		cs.notify(fmt.Sprintf("Moved %d cards to %s", len(req.Cards), req.ToPlayer))
	case "syncHand":
		if err := s.engine.SyncHand(ctx, code, player, req.Cards); err != nil {
			return err
		}
	case "setHost":
		if err := s.engine.SetHost(ctx, code, req.Host); err != nil {
			return err
		}
		cs.notify(fmt.Sprintf("%s is now the host", req.Host))
	default:
		return &engine.InvalidArgumentError{Reason: fmt.Sprintf("unknown action %q", req.Action)}
	}

	return nil
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	s.endSession(w, r, func(ctx context.Context, cs *clientSession) error {
		return cs.session.Leave(ctx)
	})
}

func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	s.endSession(w, r, func(ctx context.Context, cs *clientSession) error {
		return cs.session.Exit(ctx)
	})
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request, end func(context.Context, *clientSession) error) {
	id := mux.Vars(r)["sessionID"]
	cs, err := s.registry.get(id)
	if err != nil {
		http.Error(w, "Unknown session", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultOpTimeout)
	defer cancel()

	if err := end(ctx, cs); err != nil {
		writeEngineError(w, err)
		return
	}

	s.registry.remove(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListArchives(w http.ResponseWriter, r *http.Request) {
	if s.repository == nil {
		http.Error(w, "Archives are not configured", http.StatusNotFound)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultOpTimeout)
	defer cancel()

	archives, err := s.repository.ListRoomArchives(ctx, limit)
	if err != nil {
		log.Error("failed to list room archives: %v", err)
		http.Error(w, "Failed to list room archives", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, archives)
}

func (s *Server) handleGetArchive(w http.ResponseWriter, r *http.Request) {
	if s.repository == nil {
		http.Error(w, "Archives are not configured", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultOpTimeout)
	defer cancel()

	archive, err := s.repository.LoadRoomArchive(ctx, mux.Vars(r)["code"])
	if err != nil {
		if repositories.IsNotFound(err) {
			http.Error(w, "Archive not found", http.StatusNotFound)
			return
		}
		log.Error("failed to load room archive: %v", err)
		http.Error(w, "Failed to load room archive", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, archive)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsInvalidArgument(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case engine.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case engine.IsInvalidState(err), engine.IsInsufficientCards(err), engine.IsEmptyResource(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case engine.IsStoreError(err):
		log.Error("store error: %v", err)
		http.Error(w, "Upstream store error", http.StatusBadGateway)
	default:
		log.Error("unexpected error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
