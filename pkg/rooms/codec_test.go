package rooms

import (
	"testing"

	"github.com/dawei41468/CardGameApp/pkg/cards"
	"github.com/dawei41468/CardGameApp/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardRoundTrip(t *testing.T) {
	resolver := cards.StandardResolver()
	in := cards.Card{
		Suit:     cards.SuitHearts,
		Rank:     cards.RankQueen,
		Resource: cards.ResourceKey(cards.SuitHearts, cards.RankQueen),
		ID:       "card-1",
	}

	encoded := EncodeCard(in)
	// The resource reference never goes over the wire.
	assert.NotContains(t, encoded, "resource")

	out, ok := DecodeCard(store.NewSnapshot(encoded), resolver)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestDecodeCardUnresolvable(t *testing.T) {
	encoded := EncodeCard(cards.Card{Suit: "Swords", Rank: "15", ID: "bogus"})
	_, ok := DecodeCard(store.NewSnapshot(encoded), cards.StandardResolver())
	assert.False(t, ok)
}

func TestDecodeCardsDropsMalformed(t *testing.T) {
	resolver := cards.StandardResolver()
	good := cards.Card{Suit: cards.SuitSpades, Rank: cards.RankAce, ID: "good"}
	bad := cards.Card{Suit: "Swords", Rank: "15", ID: "bad"}

	snap := store.NewSnapshot(EncodeCards([]cards.Card{good, bad}))
	out := DecodeCards(snap, resolver)
	require.Len(t, out, 1)
	assert.Equal(t, "good", out[0].ID)
}

func TestPilesRoundTrip(t *testing.T) {
	resolver := cards.StandardResolver()
	piles := [][]cards.Card{
		{
			{Suit: cards.SuitSpades, Rank: cards.RankAce, Resource: "Spades_Ace", ID: "a"},
			{Suit: cards.SuitHearts, Rank: cards.RankTwo, Resource: "Hearts_2", ID: "b"},
		},
		{
			{Suit: cards.SuitClubs, Rank: cards.RankKing, Resource: "Clubs_King", ID: "c"},
		},
	}

	out := DecodePiles(store.NewSnapshot(EncodePiles(piles)), resolver)
	assert.Equal(t, piles, out)
}

func TestSettingsRoundTrip(t *testing.T) {
	in := cards.RoomSettings{NumDecks: 2, IncludeJokers: true, DealCount: 7}
	out, ok := DecodeSettings(store.NewSnapshot(EncodeSettings(in)))
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestDecodeSettingsMissing(t *testing.T) {
	_, ok := DecodeSettings(store.NewSnapshot(nil))
	assert.False(t, ok)
}

func TestLastPlayedRoundTrip(t *testing.T) {
	resolver := cards.StandardResolver()
	in := LastPlayed{
		Player: "alice",
		Hand: []cards.Card{
			{Suit: cards.SuitDiamonds, Rank: cards.RankTen, Resource: "Diamonds_10", ID: "x"},
		},
	}
	out := DecodeLastPlayed(store.NewSnapshot(EncodeLastPlayed(in)), resolver)
	assert.Equal(t, in, out)
}

func TestDecodeRoom(t *testing.T) {
	resolver := cards.StandardResolver()
	values := NewRoomValues(cards.RoomSettings{NumDecks: 1, DealCount: 5}, "alice", 1234)
	values[PathPlayers] = map[string]interface{}{
		"alice": EncodePlayerEntry(false),
		"bob":   EncodePlayerEntry(true),
	}

	room, ok := DecodeRoom(store.NewSnapshot(values), resolver)
	require.True(t, ok)
	assert.Equal(t, StateWaiting, room.State)
	assert.Equal(t, "alice", room.Host)
	assert.Equal(t, []string{"alice", "bob"}, room.Players)
	assert.Equal(t, int64(1234), room.LastActive)
	assert.False(t, room.Started())
	assert.Nil(t, room.Game)

	assert.True(t, room.HasPlayer("bob"))
	assert.False(t, room.HasPlayer("carol"))
}

func TestDecodeRoomStarted(t *testing.T) {
	resolver := cards.StandardResolver()
	deckCard := cards.Card{Suit: cards.SuitSpades, Rank: cards.RankTwo, Resource: "Spades_2", ID: "d1"}
	handCard := cards.Card{Suit: cards.SuitHearts, Rank: cards.RankAce, Resource: "Hearts_Ace", ID: "h1"}

	values := map[string]interface{}{
		PathSettings: EncodeSettings(cards.RoomSettings{NumDecks: 1, DealCount: 1}),
		PathState:    StateStarted,
		PathHost:     "alice",
		PathPlayers: map[string]interface{}{
			"alice": EncodePlayerEntry(false),
		},
		PathGameData: map[string]interface{}{
			"deck": EncodeCards([]cards.Card{deckCard}),
			"playerHands": map[string]interface{}{
				"alice": EncodeCards([]cards.Card{handCard}),
			},
			"table":       map[string]interface{}{"piles": []interface{}{}},
			"discardPile": []interface{}{},
			"lastPlayed":  map[string]interface{}{},
		},
	}

	room, ok := DecodeRoom(store.NewSnapshot(values), resolver)
	require.True(t, ok)
	require.True(t, room.Started())
	require.NotNil(t, room.Game)
	assert.Equal(t, []cards.Card{deckCard}, room.Game.Deck)
	assert.Equal(t, []cards.Card{handCard}, room.Game.Hands["alice"])
	assert.Empty(t, room.Game.Piles)
	assert.Empty(t, room.Game.Discard)
}

func TestDecodeRoomMissing(t *testing.T) {
	_, ok := DecodeRoom(store.NewSnapshot(nil), cards.StandardResolver())
	assert.False(t, ok)
}
