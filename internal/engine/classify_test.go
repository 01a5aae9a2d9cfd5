package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func five(cards ...string) [5]Card {
	var out [5]Card
	for i, s := range cards {
		out[i] = MustParseCard(s)
	}
	return out
}

func TestClassifyWitnessHands(t *testing.T) {
	cases := []struct {
		name string
		hand [5]Card
		want HandCategory
	}{
		{"straight flush", five("AS", "2S", "3S", "4S", "5S"), StraightFlush},
		{"straight non-flush wheel", five("AS", "2C", "3D", "4H", "5S"), Straight},
		{"four of a kind", five("7H", "7C", "7S", "7D", "2C"), FourOfAKind},
		{"full house", five("7H", "7C", "7S", "2D", "2C"), FullHouse},
		{"flush", five("2S", "5S", "9S", "JS", "KS"), Flush},
		{"straight", five("4H", "5C", "6D", "7S", "8H"), Straight},
		{"three of a kind", five("7H", "7C", "7S", "2D", "3C"), ThreeOfAKind},
		{"two pair", five("7H", "7C", "2S", "2D", "3C"), TwoPair},
		{"one pair", five("7H", "7C", "2S", "3D", "4C"), OnePair},
		{"high card", five("2S", "5C", "9D", "JH", "KC"), HighCard},
		{"broadway straight", five("TS", "JC", "QD", "KH", "AC"), Straight},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.hand))
		})
	}
}

func TestClassifyIsPermutationInvariant(t *testing.T) {
	base := []string{"7H", "7C", "2S", "3D", "4C"}
	want := Classify(five(base...))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]string{}, base...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Classify(five(shuffled...)))
	}
}

func TestIsJackpotCategory(t *testing.T) {
	assert.True(t, IsJackpotCategory(StraightFlush))
	assert.False(t, IsJackpotCategory(Flush))
	assert.False(t, IsJackpotCategory(FourOfAKind))
}

func TestNormalizeModelCategoryCollapsesJackpot(t *testing.T) {
	assert.Equal(t, Flush, NormalizeModelCategory(StraightFlush))
	assert.Equal(t, FourOfAKind, NormalizeModelCategory(FourOfAKind))
}
