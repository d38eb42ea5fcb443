package http

import "github.com/randomtoy/arcana/internal/domain"

// ReadingRequest is the JSON body of POST /reading.
type ReadingRequest struct {
	Question string `json:"question"`
}

// CardResponse is a drawn card as returned by GET /v1/draw.
type CardResponse struct {
	ID            string   `json:"id"`
	Position      string   `json:"position"`
	NameLocal     string   `json:"name_local"`
	NameCanonical string   `json:"name_canonical"`
	Suit          string   `json:"suit"`
	Image         string   `json:"image"`
	Keywords      []string `json:"keywords"`
	Reversed      bool     `json:"reversed"`
	Display       string   `json:"display"`
}

type HandResponse struct {
	Cards []CardResponse `json:"cards"`
}

// HandHeaderCard is the compact form carried in the X-Tarot-Hand header.
type HandHeaderCard struct {
	ID       string `json:"id"`
	Position string `json:"position"`
	Reversed bool   `json:"reversed"`
}

type DeckResponse struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Cards []domain.Card `json:"cards"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toHandResponse(h domain.Hand) HandResponse {
	cards := make([]CardResponse, len(h))
	for i, pos := range domain.Positions() {
		dc := h[i]
		cards[i] = CardResponse{
			ID:            dc.ID,
			Position:      pos.String(),
			NameLocal:     dc.NameLocal,
			NameCanonical: dc.NameCanonical,
			Suit:          string(dc.Suit),
			Image:         dc.Image,
			Keywords:      dc.Keywords,
			Reversed:      dc.Reversed,
			Display:       domain.FormatCardForDisplay(dc),
		}
	}
	return HandResponse{Cards: cards}
}

func toHandHeader(h domain.Hand) []HandHeaderCard {
	out := make([]HandHeaderCard, len(h))
	for i, pos := range domain.Positions() {
		out[i] = HandHeaderCard{ID: h[i].ID, Position: pos.String(), Reversed: h[i].Reversed}
	}
	return out
}
