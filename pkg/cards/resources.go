package cards

import "fmt"

const (
	// ResourceCardBack is the fallback asset for unresolved suit/rank pairs.
	ResourceCardBack = "card_back_red"
	// ResourceRedJoker is the fallback asset for the red joker.
	ResourceRedJoker = "red_joker"
	// ResourceBlackJoker is the fallback asset for the black joker.
	ResourceBlackJoker = "black_joker"
)

// ResourceResolver maps a suit/rank pair to an opaque asset handle.
// Resolvers return false when no asset exists for the pair.
type ResourceResolver interface {
	Resolve(suit Suit, rank Rank) (string, bool)
}

// MapResolver resolves resources from a map keyed by "Suit_Rank".
type MapResolver map[string]string

func (m MapResolver) Resolve(suit Suit, rank Rank) (string, bool) {
	resource, ok := m[ResourceKey(suit, rank)]
	return resource, ok
}

// ResourceKey returns the lookup key for a suit/rank pair.
func ResourceKey(suit Suit, rank Rank) string {
	return fmt.Sprintf("%s_%s", suit, rank)
}

// StandardResolver returns a resolver covering the 52 standard cards and
// both jokers, with asset handles derived from the resource key.
func StandardResolver() MapResolver {
	m := make(MapResolver, len(Suits)*len(Ranks)+2)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			m[ResourceKey(suit, rank)] = ResourceKey(suit, rank)
		}
	}
	m[ResourceKey(SuitJoker, RankRed)] = ResourceRedJoker
	m[ResourceKey(SuitJoker, RankBlack)] = ResourceBlackJoker
	return m
}
