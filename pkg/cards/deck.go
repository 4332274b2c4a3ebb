package cards

import (
	"math/rand"

	"github.com/google/uuid"
)

// GenerateDeck builds settings.NumDecks copies of the standard 52-card deck,
// appending a red and black joker per copy when IncludeJokers is set, and
// returns the combined deck uniformly shuffled. Every card instance gets a
// fresh unique ID so duplicate decks never collide. Unresolved resource
// lookups fall back to the default card back rather than failing.
func GenerateDeck(settings RoomSettings, resolver ResourceResolver, r *rand.Rand) []Card {
	numDecks := settings.NumDecks
	if numDecks < 1 {
		numDecks = 1
	}

	size := numDecks * len(Suits) * len(Ranks)
	if settings.IncludeJokers {
		size += numDecks * 2
	}
	deck := make([]Card, 0, size)

	for i := 0; i < numDecks; i++ {
		for _, suit := range Suits {
			for _, rank := range Ranks {
				deck = append(deck, newCard(suit, rank, resolver, ResourceCardBack))
			}
		}
		if settings.IncludeJokers {
			deck = append(deck, newCard(SuitJoker, RankRed, resolver, ResourceRedJoker))
			deck = append(deck, newCard(SuitJoker, RankBlack, resolver, ResourceBlackJoker))
		}
	}

	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	return deck
}

// Shuffle returns a uniformly shuffled copy of the given cards.
func Shuffle(in []Card, r *rand.Rand) []Card {
	out := make([]Card, len(in))
	copy(out, in)
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func newCard(suit Suit, rank Rank, resolver ResourceResolver, fallback string) Card {
	resource, ok := resolver.Resolve(suit, rank)
	if !ok {
		resource = fallback
	}
	return Card{
		Suit:     suit,
		Rank:     rank,
		Resource: resource,
		ID:       uuid.NewString(),
	}
}
