package engine

import "fmt"

// Card is the compact internal encoding: index = rank_index*4 + suit_index,
// with rank_index over 2..A and suit_index over S,H,D,C. The packed form
// never leaves the engine; the boundary encoding is the two-character RS
// string produced by String() and consumed by ParseCard().
type Card uint8

const (
	numRanks = 13
	numSuits = 4
	DeckSize = numRanks * numSuits
)

// ranks and suits are listed in the canonical orders spec.md fixes as part
// of the external contract: rank ascending 2->A, suit S->H->D->C.
var ranks = [numRanks]byte{'2', '3', '4', '5', '6', '7', '8', '9', 'T', 'J', 'Q', 'K', 'A'}
var suits = [numSuits]byte{'S', 'H', 'D', 'C'}

// NewCard packs a rank index (0..12, 2=0..A=12) and suit index (0..3) into
// the compact encoding.
func NewCard(rankIdx, suitIdx int) Card {
	return Card(rankIdx*numSuits + suitIdx)
}

// RankIndex returns the card's rank position in 2..A (0..12).
func (c Card) RankIndex() int { return int(c) / numSuits }

// SuitIndex returns the card's suit position in S,H,D,C (0..3).
func (c Card) SuitIndex() int { return int(c) % numSuits }

// RankValue returns the numeric rank used by the classifier, 2..14 with
// Ace high (14). The wheel straight is handled separately by the classifier.
func (c Card) RankValue() int { return c.RankIndex() + 2 }

// String renders the card in boundary "RS" format, e.g. "AS", "TD".
func (c Card) String() string {
	return string([]byte{ranks[c.RankIndex()], suits[c.SuitIndex()]})
}

// ParseCard parses a two-character RS string into a Card. Reports false
// for anything that is not exactly rank+suit from the canonical alphabets.
func ParseCard(s string) (Card, bool) {
	if len(s) != 2 {
		return 0, false
	}
	rankIdx := -1
	for i, r := range ranks {
		if s[0] == r {
			rankIdx = i
			break
		}
	}
	if rankIdx < 0 {
		return 0, false
	}
	suitIdx := -1
	for i, su := range suits {
		if s[1] == su {
			suitIdx = i
			break
		}
	}
	if suitIdx < 0 {
		return 0, false
	}
	return NewCard(rankIdx, suitIdx), true
}

// MustParseCard is ParseCard for callers that already know the string is a
// valid RS card (tests, literal witness hands).
func MustParseCard(s string) Card {
	c, ok := ParseCard(s)
	if !ok {
		panic(fmt.Sprintf("engine: invalid card string %q", s))
	}
	return c
}

// Deck is an ordered sequence of distinct cards. Only the engine ever holds
// one; every public projection drops the order.
type Deck []Card

// StandardDeck returns the 52 distinct cards in canonical order: rank-major
// 2..A, suit-minor S,H,D,C. This is the pre-shuffle ordering C2 permutes.
func StandardDeck() Deck {
	d := make(Deck, 0, DeckSize)
	for r := 0; r < numRanks; r++ {
		for s := 0; s < numSuits; s++ {
			d = append(d, NewCard(r, s))
		}
	}
	return d
}

// CardSortKey returns a stable sort key (rank_index, suit_index) for display
// ordering, restored from original_source/engine/cards.py card_sort_key.
// Determinism of deck_remaining_counts does not depend on this; it exists
// purely so adapters can present a hand in a consistent visual order.
func CardSortKey(c Card) (rankIdx, suitIdx int) {
	return c.RankIndex(), c.SuitIndex()
}

// Clone returns an independent copy of the deck.
func (d Deck) Clone() Deck {
	out := make(Deck, len(d))
	copy(out, d)
	return out
}
