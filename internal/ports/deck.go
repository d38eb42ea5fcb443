package ports

import "github.com/randomtoy/arcana/internal/domain"

// DeckStore provides the loaded, read-only card catalog.
type DeckStore interface {
	Deck() domain.Deck
	Card(id string) (domain.Card, bool)
}
