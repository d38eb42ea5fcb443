package domain

import (
	"fmt"
	"strings"
)

const keywordSeparator = ", "

// FormatCardForDisplay renders the local card name with its orientation,
// e.g. "愚者 (reversed)".
func FormatCardForDisplay(card DrawnCard) string {
	return fmt.Sprintf("%s (%s)", card.NameLocal, card.Orientation())
}

// BuildPromptFragment renders the question and the hand for the model.
// Lines always follow past, present, future order; output is deterministic.
func BuildPromptFragment(question string, hand Hand) string {
	var b strings.Builder
	b.WriteString("Question: \"")
	b.WriteString(question)
	b.WriteString("\"\n\nCards drawn:\n")

	for i, pos := range Positions() {
		card := hand[i]
		label := "Upright"
		if card.Reversed {
			label = "Reversed"
		}
		fmt.Fprintf(&b, "%s: %s (%s) - %s. Keywords: %s\n",
			pos, card.NameCanonical, card.NameLocal, label,
			strings.Join(card.Keywords, keywordSeparator))
	}

	b.WriteString("\nInterpret the reading based on the cards above.")
	return b.String()
}
