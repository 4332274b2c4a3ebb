package cards

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeck(t *testing.T) {
	tests := []struct {
		name     string
		settings RoomSettings
		want     int
	}{
		{
			name:     "single deck",
			settings: RoomSettings{NumDecks: 1},
			want:     52,
		},
		{
			name:     "single deck with jokers",
			settings: RoomSettings{NumDecks: 1, IncludeJokers: true},
			want:     54,
		},
		{
			name:     "two decks",
			settings: RoomSettings{NumDecks: 2},
			want:     104,
		},
		{
			name:     "two decks with jokers",
			settings: RoomSettings{NumDecks: 2, IncludeJokers: true},
			want:     108,
		},
		{
			name:     "zero decks falls back to one",
			settings: RoomSettings{NumDecks: 0},
			want:     52,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rand.New(rand.NewSource(1))
			deck := GenerateDeck(tt.settings, StandardResolver(), r)
			assert.Len(t, deck, tt.want)

			seen := make(map[string]struct{}, len(deck))
			for _, c := range deck {
				require.NotEmpty(t, c.ID)
				_, dup := seen[c.ID]
				require.False(t, dup, "duplicate card ID %s", c.ID)
				seen[c.ID] = struct{}{}
				assert.NotEmpty(t, c.Resource)
			}
		})
	}
}

func TestGenerateDeckResourceFallback(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	deck := GenerateDeck(RoomSettings{NumDecks: 1, IncludeJokers: true}, MapResolver{}, r)
	require.Len(t, deck, 54)
	backs := 0
	jokers := 0
	for _, c := range deck {
		switch c.Resource {
		case ResourceCardBack:
			backs++
		case ResourceRedJoker, ResourceBlackJoker:
			jokers++
		}
	}
	assert.Equal(t, 52, backs)
	assert.Equal(t, 2, jokers)
}

func TestShuffleIsPermutation(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	deck := GenerateDeck(RoomSettings{NumDecks: 1}, StandardResolver(), r)

	shuffled := Shuffle(deck, r)
	require.Len(t, shuffled, len(deck))

	ids := make(map[string]int, len(deck))
	for _, c := range deck {
		ids[c.ID]++
	}
	for _, c := range shuffled {
		ids[c.ID]--
	}
	for id, n := range ids {
		assert.Zero(t, n, "card %s count changed", id)
	}
}

func TestSortByRank(t *testing.T) {
	in := []Card{
		{Suit: SuitDiamonds, Rank: RankKing, ID: "a"},
		{Suit: SuitSpades, Rank: RankTwo, ID: "b"},
		{Suit: SuitJoker, Rank: RankRed, ID: "c"},
		{Suit: SuitHearts, Rank: RankTwo, ID: "d"},
		{Suit: SuitClubs, Rank: RankAce, ID: "e"},
	}
	out := SortByRank(in)

	gotIDs := make([]string, len(out))
	for i, c := range out {
		gotIDs[i] = c.ID
	}
	// Jokers first, then Aces, then by rank with suit breaking ties.
	assert.Equal(t, []string{"c", "e", "b", "d", "a"}, gotIDs)
	// Input order untouched.
	assert.Equal(t, "a", in[0].ID)
}

func TestSortBySuit(t *testing.T) {
	in := []Card{
		{Suit: SuitDiamonds, Rank: RankAce, ID: "a"},
		{Suit: SuitSpades, Rank: RankKing, ID: "b"},
		{Suit: SuitSpades, Rank: RankThree, ID: "c"},
		{Suit: SuitJoker, Rank: RankBlack, ID: "d"},
	}
	out := SortBySuit(in)

	gotIDs := make([]string, len(out))
	for i, c := range out {
		gotIDs[i] = c.ID
	}
	assert.Equal(t, []string{"d", "c", "b", "a"}, gotIDs)
}

func TestSortStability(t *testing.T) {
	// Two cards from duplicate decks compare equal; their relative order
	// must survive the sort.
	in := []Card{
		{Suit: SuitHearts, Rank: RankFive, ID: "first"},
		{Suit: SuitSpades, Rank: RankFive, ID: "mid"},
		{Suit: SuitHearts, Rank: RankFive, ID: "second"},
	}
	out := SortByRank(in)
	assert.Equal(t, "mid", out[0].ID)
	assert.Equal(t, "first", out[1].ID)
	assert.Equal(t, "second", out[2].ID)
}

func TestRankValue(t *testing.T) {
	assert.Equal(t, 1, RankValue(RankAce))
	assert.Equal(t, 13, RankValue(RankKing))
	assert.Equal(t, 0, RankValue(RankRed))
	assert.Equal(t, 0, RankValue(RankBlack))
}

func TestSuitOrder(t *testing.T) {
	assert.Equal(t, 1, SuitOrder(SuitSpades))
	assert.Equal(t, 4, SuitOrder(SuitDiamonds))
	assert.Equal(t, 0, SuitOrder(SuitJoker))
}
