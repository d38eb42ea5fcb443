package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomtoy/arcana/internal/domain"
)

func testHand() domain.Hand {
	return domain.Hand{
		{Card: domain.Card{ID: "m00", NameLocal: "愚者", NameCanonical: "The Fool", Suit: domain.SuitMajor, Keywords: []string{"新的开始", "冒险"}}},
		{Card: domain.Card{ID: "w01", NameLocal: "权杖王牌", NameCanonical: "Ace of Wands", Suit: domain.SuitWands, Keywords: []string{"权杖", "王牌"}}, Reversed: true},
		{Card: domain.Card{ID: "m17", NameLocal: "星星", NameCanonical: "The Star", Suit: domain.SuitMajor, Keywords: []string{"希望"}}},
	}
}

func TestBuildPromptFragment(t *testing.T) {
	got := domain.BuildPromptFragment("我的事业会怎样？", testHand())

	want := "Question: \"我的事业会怎样？\"\n\n" +
		"Cards drawn:\n" +
		"Past: The Fool (愚者) - Upright. Keywords: 新的开始, 冒险\n" +
		"Present: Ace of Wands (权杖王牌) - Reversed. Keywords: 权杖, 王牌\n" +
		"Future: The Star (星星) - Upright. Keywords: 希望\n" +
		"\nInterpret the reading based on the cards above."
	assert.Equal(t, want, got)
}

func TestBuildPromptFragment_Deterministic(t *testing.T) {
	hand := testHand()
	assert.Equal(t,
		domain.BuildPromptFragment("q", hand),
		domain.BuildPromptFragment("q", hand))
}

func TestBuildPromptFragment_PositionOrder(t *testing.T) {
	hand := testHand()
	hand[0], hand[2] = hand[2], hand[0]

	out := domain.BuildPromptFragment("q", hand)
	past := strings.Index(out, "Past: The Star")
	present := strings.Index(out, "Present: Ace of Wands")
	future := strings.Index(out, "Future: The Fool")

	assert.NotEqual(t, -1, past)
	assert.Less(t, past, present)
	assert.Less(t, present, future)
}

func TestBuildPromptFragment_QuestionVerbatim(t *testing.T) {
	questions := []string{
		"Line one\nline two",
		`He said "yes"`,
		"family \U0001F468\u200d\U0001F469\u200d\U0001F467",
		`C:\path`,
		"Will he \"call\" me?\n\t\u4f60\u597d \U0001F468\u200d\U0001F4BB",
	}
	for _, q := range questions {
		out := domain.BuildPromptFragment(q, testHand())
		assert.True(t, strings.HasPrefix(out, "Question: \""+q+"\"\n\nCards drawn:\n"), q)
		assert.Contains(t, out, q)
	}
}

func TestPositions(t *testing.T) {
	p := domain.Positions()
	p[0] = domain.Future
	require.Equal(t, domain.Future, p[0])

	assert.Equal(t, [domain.SpreadSize]domain.Position{domain.Past, domain.Present, domain.Future}, domain.Positions())
}

func TestFormatCardForDisplay(t *testing.T) {
	hand := testHand()
	assert.Equal(t, "愚者 (upright)", domain.FormatCardForDisplay(hand[0]))
	assert.Equal(t, "权杖王牌 (reversed)", domain.FormatCardForDisplay(hand[1]))
}

func TestSuitValid(t *testing.T) {
	assert.True(t, domain.SuitCups.Valid())
	assert.False(t, domain.Suit("coins").Valid())
}
