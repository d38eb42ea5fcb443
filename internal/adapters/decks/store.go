package decks

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/randomtoy/arcana/internal/domain"
)

//go:embed data/catalog.toml
var embeddedCatalog []byte

// Catalog file structures.
type catalogFile struct {
	Deck   deckSection    `toml:"deck"`
	Major  []majorSection `toml:"major"`
	Suits  []suitSection  `toml:"suits"`
	Ranks  []rankSection  `toml:"ranks"`
	Extras []cardSection  `toml:"cards"`
}

type deckSection struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

type majorSection struct {
	Number   string   `toml:"number"`
	Name     string   `toml:"name"`
	Local    string   `toml:"local"`
	Keywords []string `toml:"keywords"`
}

type suitSection struct {
	ID     string `toml:"id"`
	Prefix string `toml:"prefix"`
	Name   string `toml:"name"`
	Local  string `toml:"local"`
}

type rankSection struct {
	Value int    `toml:"value"`
	Name  string `toml:"name"`
	Local string `toml:"local"`
}

// cardSection lists a card verbatim, for catalogs that do not follow the
// suit x rank layout.
type cardSection struct {
	ID       string   `toml:"id"`
	Name     string   `toml:"name"`
	Local    string   `toml:"local"`
	Suit     string   `toml:"suit"`
	Image    string   `toml:"image"`
	Keywords []string `toml:"keywords"`
}

// Store holds a validated card catalog. It is immutable after loading.
type Store struct {
	deck  domain.Deck
	index map[string]int
}

// LoadEmbedded loads the built-in 78-card catalog.
func LoadEmbedded() (*Store, error) {
	return Parse(embeddedCatalog)
}

// EmbeddedCatalog returns a copy of the built-in catalog source.
func EmbeddedCatalog() []byte {
	return slices.Clone(embeddedCatalog)
}

// LoadFile loads a catalog from a TOML file on disk.
func LoadFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	s, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return s, nil
}

// Parse builds and validates a catalog from TOML.
func Parse(raw []byte) (*Store, error) {
	deck, err := Build(raw)
	if err != nil {
		return nil, err
	}
	if errs := Validate(deck); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	index := make(map[string]int, len(deck.Cards))
	for i, c := range deck.Cards {
		index[c.ID] = i
	}
	return &Store{deck: deck, index: index}, nil
}

// Build decodes a catalog without validating it.
func Build(raw []byte) (domain.Deck, error) {
	var f catalogFile
	if _, err := toml.Decode(string(raw), &f); err != nil {
		return domain.Deck{}, fmt.Errorf("parse catalog: %w", err)
	}

	deck := domain.Deck{ID: f.Deck.ID, Name: f.Deck.Name}
	if deck.Name == "" {
		deck.Name = deck.ID
	}

	for _, m := range f.Major {
		id := "m" + m.Number
		deck.Cards = append(deck.Cards, domain.Card{
			ID:            id,
			NameLocal:     m.Local,
			NameCanonical: m.Name,
			Suit:          domain.SuitMajor,
			Image:         imagePath(id),
			Keywords:      m.Keywords,
		})
	}

	for _, suit := range f.Suits {
		for _, rank := range f.Ranks {
			id := fmt.Sprintf("%s%02d", suit.Prefix, rank.Value)
			deck.Cards = append(deck.Cards, domain.Card{
				ID:            id,
				NameLocal:     suit.Local + rank.Local,
				NameCanonical: fmt.Sprintf("%s of %s", rank.Name, suit.Name),
				Suit:          domain.Suit(suit.ID),
				Image:         imagePath(id),
				Keywords:      []string{suit.Local, rank.Local},
			})
		}
	}

	for _, c := range f.Extras {
		image := c.Image
		if image == "" {
			image = imagePath(c.ID)
		}
		deck.Cards = append(deck.Cards, domain.Card{
			ID:            c.ID,
			NameLocal:     c.Local,
			NameCanonical: c.Name,
			Suit:          domain.Suit(c.Suit),
			Image:         image,
			Keywords:      c.Keywords,
		})
	}

	return deck, nil
}

// Validate reports every problem with deck: duplicate or empty ids, unknown
// suits, missing names, and decks too small to fill a spread.
func Validate(deck domain.Deck) []error {
	var errs []error
	seen := make(map[string]bool, len(deck.Cards))

	for i, c := range deck.Cards {
		switch {
		case c.ID == "":
			errs = append(errs, fmt.Errorf("card %d: empty id", i))
		case seen[c.ID]:
			errs = append(errs, fmt.Errorf("card %s: duplicate id", c.ID))
		}
		seen[c.ID] = true

		if !c.Suit.Valid() {
			errs = append(errs, fmt.Errorf("card %s: unknown suit %q", c.ID, c.Suit))
		}
		if c.NameCanonical == "" || c.NameLocal == "" {
			errs = append(errs, fmt.Errorf("card %s: missing name", c.ID))
		}
	}

	if len(deck.Cards) < domain.SpreadSize {
		errs = append(errs, fmt.Errorf("%w: catalog has %d cards, spread needs %d",
			domain.ErrInsufficientDeck, len(deck.Cards), domain.SpreadSize))
	}
	return errs
}

// Deck returns the catalog. The card slice is a copy; cards themselves are shared
// and must not be modified.
func (s *Store) Deck() domain.Deck {
	d := s.deck
	d.Cards = slices.Clone(s.deck.Cards)
	return d
}

// Card looks a card up by id.
func (s *Store) Card(id string) (domain.Card, bool) {
	i, ok := s.index[id]
	if !ok {
		return domain.Card{}, false
	}
	return s.deck.Cards[i], true
}

func imagePath(id string) string {
	return "/cards/" + id + ".jpg"
}
