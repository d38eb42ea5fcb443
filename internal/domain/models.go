package domain

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// Suit identifies the arcana a card belongs to.
type Suit string

const (
	SuitMajor     Suit = "major"
	SuitWands     Suit = "wands"
	SuitCups      Suit = "cups"
	SuitSwords    Suit = "swords"
	SuitPentacles Suit = "pentacles"
)

// Valid reports whether s is one of the five known suits.
func (s Suit) Valid() bool {
	switch s {
	case SuitMajor, SuitWands, SuitCups, SuitSwords, SuitPentacles:
		return true
	}
	return false
}

// Card is a single catalog entry. Cards are read-only once the catalog is loaded.
type Card struct {
	ID            string   `json:"id"`
	NameLocal     string   `json:"name_local"`
	NameCanonical string   `json:"name_canonical"`
	Suit          Suit     `json:"suit"`
	Image         string   `json:"image"`
	Keywords      []string `json:"keywords"`
}

// DrawnCard is a card that has been drawn, with its orientation.
type DrawnCard struct {
	Card
	Reversed bool `json:"reversed"`
}

// Orientation returns the lower-case orientation label.
func (c DrawnCard) Orientation() string {
	if c.Reversed {
		return "reversed"
	}
	return "upright"
}

// Deck is an ordered, duplicate-free collection of cards.
type Deck struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// Position is the meaning bound to a hand index.
type Position int

const (
	Past Position = iota
	Present
	Future
)

// SpreadSize is the number of cards in the past/present/future spread.
const SpreadSize = 3

func (p Position) String() string {
	switch p {
	case Past:
		return "Past"
	case Present:
		return "Present"
	case Future:
		return "Future"
	}
	return "Unknown"
}

// Hand is a drawn three-card spread; index 0 is the past, 1 the present, 2 the future.
type Hand [SpreadSize]DrawnCard

// Positions lists spread positions in prompt order.
func Positions() [SpreadSize]Position {
	return [SpreadSize]Position{Past, Present, Future}
}
