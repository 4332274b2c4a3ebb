package rooms

import (
	"github.com/dawei41468/CardGameApp/pkg/cards"
)

const (
	// StateWaiting is the room state before the host starts the game.
	StateWaiting = "waiting"
	// StateStarted is the room state once gameData is populated.
	StateStarted = "started"

	// MaxPlayers is the admission limit enforced at join time.
	MaxPlayers = 4
)

// Tree paths relative to a room document.
const (
	PathSettings    = "settings"
	PathState       = "state"
	PathHost        = "host"
	PathPlayers     = "players"
	PathLastActive  = "lastActive"
	PathLastUpdated = "lastUpdated"
	PathGameData    = "gameData"
	PathDeck        = "gameData/deck"
	PathPlayerHands = "gameData/playerHands"
	PathTablePiles  = "gameData/table/piles"
	PathDiscardPile = "gameData/discardPile"
	PathLastPlayed  = "gameData/lastPlayed"
)

// HandPath returns the path of a player's hand relative to the room.
func HandPath(player string) string {
	return PathPlayerHands + "/" + player
}

// PlayerPath returns the path of a player's presence entry relative to the room.
func PlayerPath(player string) string {
	return PathPlayers + "/" + player
}

// LastPlayed records the most recent play, used for recall eligibility.
type LastPlayed struct {
	Player string       `json:"player"`
	Hand   []cards.Card `json:"hand"`
}

// GameData is the in-memory form of the room's gameData subtree.
type GameData struct {
	Deck       []cards.Card            `json:"deck"`
	Hands      map[string][]cards.Card `json:"playerHands"`
	Piles      [][]cards.Card          `json:"piles"`
	Discard    []cards.Card            `json:"discardPile"`
	LastPlayed LastPlayed              `json:"lastPlayed"`
}

// Room is the in-memory form of a room document. Players preserves the
// store's key ordering.
type Room struct {
	Settings    cards.RoomSettings `json:"settings"`
	State       string             `json:"state"`
	Host        string             `json:"host"`
	Players     []string           `json:"players"`
	LastActive  int64              `json:"lastActive"`
	LastUpdated int64              `json:"lastUpdated"`
	Game        *GameData          `json:"gameData,omitempty"`
}

// Started reports whether the room's game is running.
func (r Room) Started() bool {
	return r.State == StateStarted
}

// HasPlayer reports whether the named player is present in the room.
func (r Room) HasPlayer(name string) bool {
	for _, p := range r.Players {
		if p == name {
			return true
		}
	}
	return false
}
