package view

import (
	"github.com/dawei41468/CardGameApp/pkg/cards"
	"github.com/dawei41468/CardGameApp/pkg/rooms"
	"github.com/dawei41468/CardGameApp/pkg/store"
)

// State is the client-visible projection of one room snapshot for one
// player. It is recomputed wholesale from every processed snapshot, never
// updated incrementally, so re-running the projection after a reconnect
// converges on the same result.
type State struct {
	RoomCode   string   `json:"roomCode"`
	PlayerName string   `json:"playerName"`
	RoomExists bool     `json:"roomExists"`
	Players    []string `json:"players"`
	Host       string   `json:"host"`
	IsHost     bool     `json:"isHost"`
	// BecameHost is a one-shot flag raised on the snapshot where this
	// player first observes itself as host.
	BecameHost     bool           `json:"becameHost"`
	GameStarted    bool           `json:"gameStarted"`
	MyHand         []cards.Card   `json:"myHand"`
	Table          [][]cards.Card `json:"table"`
	DiscardPile    []cards.Card   `json:"discardPile"`
	DeckSize       int            `json:"deckSize"`
	DeckEmpty      bool           `json:"deckEmpty"`
	OtherHandSizes map[string]int `json:"otherPlayersHandSizes"`
	CanRecall      bool           `json:"canRecall"`
}

// ElectHost picks the replacement host from the remaining players: the
// first player in the store's key order.
func ElectHost(players []string) string {
	if len(players) == 0 {
		return ""
	}
	return players[0]
}

// NeedsHostHeal reports whether the room's host entry points at a player
// who is no longer present.
func NeedsHostHeal(host string, players []string) bool {
	if len(players) == 0 {
		return false
	}
	for _, p := range players {
		if p == host {
			return false
		}
	}
	return true
}

// Reduce derives the next view state from a raw room snapshot. It is a
// pure function of (previous state, snapshot): correctness depends only on
// the snapshot content, never on client caches.
func Reduce(prev State, snap store.Snapshot, resolver cards.ResourceResolver) State {
	next := State{
		RoomCode:   prev.RoomCode,
		PlayerName: prev.PlayerName,
		RoomExists: snap.Exists(),
	}
	if !next.RoomExists {
		return next
	}

	next.Players = snap.Child(rooms.PathPlayers).Keys()
	next.Host, _ = snap.Child(rooms.PathHost).String()
	next.IsHost = next.PlayerName == next.Host
	next.BecameHost = next.IsHost && !prev.IsHost

	state, _ := snap.Child(rooms.PathState).String()
	next.GameStarted = state == rooms.StateStarted
	next.DeckSize = snap.Child(rooms.PathDeck).ChildCount()
	next.DeckEmpty = next.DeckSize == 0

	next.OtherHandSizes = make(map[string]int, len(next.Players))
	for _, player := range next.Players {
		if player == next.PlayerName {
			continue
		}
		next.OtherHandSizes[player] = snap.Child(rooms.HandPath(player)).ChildCount()
	}

	if next.GameStarted {
		next.MyHand = rooms.DecodeCards(snap.Child(rooms.HandPath(next.PlayerName)), resolver)
		next.Table = rooms.DecodePiles(snap.Child(rooms.PathTablePiles), resolver)
		next.DiscardPile = rooms.DecodeCards(snap.Child(rooms.PathDiscardPile), resolver)

		lastPlayed := rooms.DecodeLastPlayed(snap.Child(rooms.PathLastPlayed), resolver)
		next.CanRecall = lastPlayed.Player == next.PlayerName &&
			len(lastPlayed.Hand) > 0 &&
			len(next.Table) > 0 &&
			sameIDSequence(next.Table[len(next.Table)-1], lastPlayed.Hand)
	}

	return next
}

func sameIDSequence(a, b []cards.Card) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
