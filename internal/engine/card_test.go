package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCardRoundTrip(t *testing.T) {
	for _, s := range []string{"2S", "TD", "AH", "KC", "9S"} {
		c, ok := ParseCard(s)
		require.True(t, ok, "expected %q to parse", s)
		assert.Equal(t, s, c.String())
	}
}

func TestParseCardRejectsInvalid(t *testing.T) {
	for _, s := range []string{"", "1S", "AX", "A", "ASX"} {
		_, ok := ParseCard(s)
		assert.False(t, ok, "expected %q to be rejected", s)
	}
}

func TestStandardDeckCanonicalOrder(t *testing.T) {
	d := StandardDeck()
	require.Len(t, d, DeckSize)
	assert.Equal(t, "2S", d[0].String())
	assert.Equal(t, "AC", d[DeckSize-1].String())

	seen := map[Card]bool{}
	for _, c := range d {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
}

func TestCardSortKeyOrdersByRankThenSuit(t *testing.T) {
	twoSpades := MustParseCard("2S")
	twoHearts := MustParseCard("2H")
	threeSpades := MustParseCard("3S")

	r1, s1 := CardSortKey(twoSpades)
	r2, s2 := CardSortKey(twoHearts)
	r3, _ := CardSortKey(threeSpades)

	assert.Equal(t, r1, r2)
	assert.Less(t, s1, s2)
	assert.Less(t, r1, r3)
}

func TestDeckCloneIsIndependent(t *testing.T) {
	d := StandardDeck()
	clone := d.Clone()
	clone[0] = MustParseCard("AC")
	assert.NotEqual(t, d[0], clone[0])
}
