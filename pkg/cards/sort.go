package cards

import "sort"

// SortByRank returns the cards stably sorted by rank value, then suit order.
// Jokers sort before Aces in both comparators.
func SortByRank(in []Card) []Card {
	out := make([]Card, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := RankValue(out[i].Rank), RankValue(out[j].Rank)
		if ri != rj {
			return ri < rj
		}
		return SuitOrder(out[i].Suit) < SuitOrder(out[j].Suit)
	})
	return out
}

// SortBySuit returns the cards stably sorted by suit order, then rank value.
func SortBySuit(in []Card) []Card {
	out := make([]Card, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := SuitOrder(out[i].Suit), SuitOrder(out[j].Suit)
		if si != sj {
			return si < sj
		}
		return RankValue(out[i].Rank) < RankValue(out[j].Rank)
	})
	return out
}
