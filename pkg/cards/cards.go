package cards

// Suit is the suit of a playing card. Jokers carry the Joker pseudo-suit.
type Suit string

const (
	SuitSpades   Suit = "Spades"
	SuitHearts   Suit = "Hearts"
	SuitClubs    Suit = "Clubs"
	SuitDiamonds Suit = "Diamonds"
	SuitJoker    Suit = "Joker"
)

// Rank is the rank of a playing card. Jokers use Red and Black.
type Rank string

const (
	RankAce   Rank = "Ace"
	RankTwo   Rank = "2"
	RankThree Rank = "3"
	RankFour  Rank = "4"
	RankFive  Rank = "5"
	RankSix   Rank = "6"
	RankSeven Rank = "7"
	RankEight Rank = "8"
	RankNine  Rank = "9"
	RankTen   Rank = "10"
	RankJack  Rank = "Jack"
	RankQueen Rank = "Queen"
	RankKing  Rank = "King"
	RankRed   Rank = "Red"
	RankBlack Rank = "Black"
)

// Suits lists the four standard suits in their canonical order.
var Suits = []Suit{SuitSpades, SuitHearts, SuitClubs, SuitDiamonds}

// Ranks lists the thirteen standard ranks in ascending order.
var Ranks = []Rank{
	RankAce, RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven,
	RankEight, RankNine, RankTen, RankJack, RankQueen, RankKing,
}

// Card is an immutable playing card. ID is assigned once at creation and
// identifies the card instance across duplicate decks; two cards are the
// same logical card iff their IDs are equal.
type Card struct {
	Suit     Suit   `json:"suit"`
	Rank     Rank   `json:"rank"`
	Resource string `json:"resource"`
	ID       string `json:"id"`
}

// RoomSettings are supplied at room creation and fixed for the room's lifetime.
type RoomSettings struct {
	NumDecks      int  `json:"numDecks"`
	IncludeJokers bool `json:"includeJokers"`
	DealCount     int  `json:"dealCount"`
}

// DefaultRoomSettings returns the settings a room gets when none are supplied.
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		NumDecks:      1,
		IncludeJokers: false,
		DealCount:     5,
	}
}

// RankValue returns the sort value of a rank, 1 (Ace) through 13 (King).
// Joker ranks sort as 0.
func RankValue(rank Rank) int {
	switch rank {
	case RankAce:
		return 1
	case RankTwo:
		return 2
	case RankThree:
		return 3
	case RankFour:
		return 4
	case RankFive:
		return 5
	case RankSix:
		return 6
	case RankSeven:
		return 7
	case RankEight:
		return 8
	case RankNine:
		return 9
	case RankTen:
		return 10
	case RankJack:
		return 11
	case RankQueen:
		return 12
	case RankKing:
		return 13
	default:
		return 0
	}
}

// SuitOrder returns the sort order of a suit, Spades first. Jokers sort as 0.
func SuitOrder(suit Suit) int {
	switch suit {
	case SuitSpades:
		return 1
	case SuitHearts:
		return 2
	case SuitClubs:
		return 3
	case SuitDiamonds:
		return 4
	default:
		return 0
	}
}
