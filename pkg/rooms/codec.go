package rooms

import (
	"github.com/dawei41468/CardGameApp/pkg/cards"
	"github.com/dawei41468/CardGameApp/pkg/store"
)

// Wire field names for a card record. The resource reference is never
// persisted; it is re-derived locally from suit and rank on every read.
const (
	fieldSuit  = "suit"
	fieldRank  = "rank"
	fieldID    = "id"
	fieldReady = "ready"

	fieldNumDecks      = "numDecks"
	fieldIncludeJokers = "includeJokers"
	fieldDealCount     = "dealCount"

	fieldPlayer = "player"
	fieldHand   = "hand"
)

// EncodeCard maps a card to its wire record.
func EncodeCard(c cards.Card) map[string]interface{} {
	return map[string]interface{}{
		fieldSuit: string(c.Suit),
		fieldRank: string(c.Rank),
		fieldID:   c.ID,
	}
}

// EncodeCards maps an ordered card sequence to its wire form.
func EncodeCards(in []cards.Card) []interface{} {
	out := make([]interface{}, len(in))
	for i, c := range in {
		out[i] = EncodeCard(c)
	}
	return out
}

// EncodePiles maps table piles to their wire form.
func EncodePiles(piles [][]cards.Card) []interface{} {
	out := make([]interface{}, len(piles))
	for i, pile := range piles {
		out[i] = EncodeCards(pile)
	}
	return out
}

// EncodeSettings maps room settings to their wire record.
func EncodeSettings(s cards.RoomSettings) map[string]interface{} {
	return map[string]interface{}{
		fieldNumDecks:      s.NumDecks,
		fieldIncludeJokers: s.IncludeJokers,
		fieldDealCount:     s.DealCount,
	}
}

// EncodeLastPlayed maps a last-played record to its wire form.
func EncodeLastPlayed(lp LastPlayed) map[string]interface{} {
	return map[string]interface{}{
		fieldPlayer: lp.Player,
		fieldHand:   EncodeCards(lp.Hand),
	}
}

// EncodePlayerEntry maps a presence entry to its wire form.
func EncodePlayerEntry(ready bool) map[string]interface{} {
	return map[string]interface{}{fieldReady: ready}
}

// NewRoomValues builds the multi-path update that initializes a fresh room.
func NewRoomValues(settings cards.RoomSettings, host string, now int64) map[string]interface{} {
	return map[string]interface{}{
		PathSettings:   EncodeSettings(settings),
		PathState:      StateWaiting,
		PathPlayers:    map[string]interface{}{},
		PathHost:       host,
		PathLastActive: now,
	}
}

// DecodeCard reconstructs a card from a raw tree node. It returns false for
// malformed nodes and for suit/rank pairs the resolver cannot map to a
// valid asset; such nodes are quarantined rather than silently defaulted.
func DecodeCard(snap store.Snapshot, resolver cards.ResourceResolver) (cards.Card, bool) {
	suit, _ := snap.Child(fieldSuit).String()
	rank, _ := snap.Child(fieldRank).String()
	id, _ := snap.Child(fieldID).String()

	resource, ok := resolver.Resolve(cards.Suit(suit), cards.Rank(rank))
	if !ok {
		return cards.Card{}, false
	}
	return cards.Card{
		Suit:     cards.Suit(suit),
		Rank:     cards.Rank(rank),
		Resource: resource,
		ID:       id,
	}, true
}

// DecodeCards reconstructs an ordered card sequence, dropping nodes that
// fail to decode.
func DecodeCards(snap store.Snapshot, resolver cards.ResourceResolver) []cards.Card {
	children := snap.Children()
	out := make([]cards.Card, 0, len(children))
	for _, child := range children {
		if c, ok := DecodeCard(child, resolver); ok {
			out = append(out, c)
		}
	}
	return out
}

// DecodePiles reconstructs the table piles in play order.
func DecodePiles(snap store.Snapshot, resolver cards.ResourceResolver) [][]cards.Card {
	children := snap.Children()
	out := make([][]cards.Card, 0, len(children))
	for _, child := range children {
		out = append(out, DecodeCards(child, resolver))
	}
	return out
}

// DecodeSettings reconstructs room settings from their wire record.
func DecodeSettings(snap store.Snapshot) (cards.RoomSettings, bool) {
	if !snap.Exists() {
		return cards.RoomSettings{}, false
	}
	numDecks, _ := snap.Child(fieldNumDecks).Int64()
	includeJokers, _ := snap.Child(fieldIncludeJokers).Bool()
	dealCount, _ := snap.Child(fieldDealCount).Int64()
	return cards.RoomSettings{
		NumDecks:      int(numDecks),
		IncludeJokers: includeJokers,
		DealCount:     int(dealCount),
	}, true
}

// DecodeLastPlayed reconstructs the last-played record.
func DecodeLastPlayed(snap store.Snapshot, resolver cards.ResourceResolver) LastPlayed {
	player, _ := snap.Child(fieldPlayer).String()
	return LastPlayed{
		Player: player,
		Hand:   DecodeCards(snap.Child(fieldHand), resolver),
	}
}

// DecodeRoom reconstructs a full room document. It returns false when the
// snapshot does not exist.
func DecodeRoom(snap store.Snapshot, resolver cards.ResourceResolver) (Room, bool) {
	if !snap.Exists() {
		return Room{}, false
	}

	settings, _ := DecodeSettings(snap.Child(PathSettings))
	state, _ := snap.Child(PathState).String()
	host, _ := snap.Child(PathHost).String()
	lastActive, _ := snap.Child(PathLastActive).Int64()
	lastUpdated, _ := snap.Child(PathLastUpdated).Int64()

	room := Room{
		Settings:    settings,
		State:       state,
		Host:        host,
		Players:     snap.Child(PathPlayers).Keys(),
		LastActive:  lastActive,
		LastUpdated: lastUpdated,
	}

	if room.Started() {
		handsSnap := snap.Child(PathPlayerHands)
		hands := make(map[string][]cards.Card, len(handsSnap.Keys()))
		for _, player := range handsSnap.Keys() {
			hands[player] = DecodeCards(handsSnap.Child(player), resolver)
		}
		room.Game = &GameData{
			Deck:       DecodeCards(snap.Child(PathDeck), resolver),
			Hands:      hands,
			Piles:      DecodePiles(snap.Child(PathTablePiles), resolver),
			Discard:    DecodeCards(snap.Child(PathDiscardPile), resolver),
			LastPlayed: DecodeLastPlayed(snap.Child(PathLastPlayed), resolver),
		}
	}

	return room, true
}
