package domain

import (
	"fmt"
	"slices"
)

// DrawCards draws count unique cards from deck using the provided RNG.
// Each card is reversed with probability 1/2, independently of the others.
// The deck is never modified.
func DrawCards(deck []Card, count int, rng RNG) ([]DrawnCard, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}
	if count > len(deck) {
		return nil, fmt.Errorf("%w: want %d, deck has %d", ErrInsufficientDeck, count, len(deck))
	}

	// Fisher-Yates over indices so the caller's slice stays untouched.
	indices := make([]int, len(deck))
	for i := range indices {
		indices[i] = i
	}
	for i := len(indices) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}

	cards := make([]DrawnCard, count)
	for i := range count {
		card := deck[indices[i]]
		card.Keywords = slices.Clone(card.Keywords)
		cards[i] = DrawnCard{
			Card:     card,
			Reversed: rng.Intn(2) == 1,
		}
	}
	return cards, nil
}

// NewHand binds three drawn cards to the past, present and future positions by index.
func NewHand(cards []DrawnCard) (Hand, error) {
	var h Hand
	if len(cards) != SpreadSize {
		return h, fmt.Errorf("%w: got %d cards", ErrInvalidHand, len(cards))
	}
	seen := make(map[string]struct{}, SpreadSize)
	for i, c := range cards {
		if _, dup := seen[c.ID]; dup {
			return h, fmt.Errorf("%w: duplicate card %s", ErrInvalidHand, c.ID)
		}
		seen[c.ID] = struct{}{}
		h[i] = c
	}
	return h, nil
}

// DrawHand draws a full spread from deck.
func DrawHand(deck []Card, rng RNG) (Hand, error) {
	cards, err := DrawCards(deck, SpreadSize, rng)
	if err != nil {
		return Hand{}, err
	}
	return NewHand(cards)
}
