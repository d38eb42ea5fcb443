package domain

import "errors"

var (
	ErrBadRequest          = errors.New("invalid question")
	ErrInvalidCount        = errors.New("draw count must be positive")
	ErrInsufficientDeck    = errors.New("draw count exceeds number of cards in deck")
	ErrInvalidHand         = errors.New("hand must hold three distinct cards")
	ErrUpstreamUnavailable = errors.New("upstream LLM unavailable")
	ErrStreamInterrupted   = errors.New("upstream stream interrupted")
)
