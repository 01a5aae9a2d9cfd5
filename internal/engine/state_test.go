package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartDealsSevenAndSetsBudgets(t *testing.T) {
	gs, events := Start(123456, ModePractice, nil)
	require.Len(t, gs.Hand, InitialHandSize)
	assert.Equal(t, InitialPlays, gs.PRemaining)
	assert.Equal(t, InitialDiscards, gs.DRemaining)
	assert.Equal(t, 0, gs.ScoreTotal)
	assert.Len(t, events, 1)
	assert.Equal(t, MsgGameStarted, events[0].MessageKey)
}

func TestDeckRemainingCountsCoversAllFiftyTwoKeys(t *testing.T) {
	gs, _ := Start(1, ModePractice, nil)
	counts := gs.DeckRemainingCounts()
	assert.Len(t, counts, DeckSize)

	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, DeckSize-InitialHandSize, total)
}

func TestMassConservation(t *testing.T) {
	gs, _ := Start(42, ModePractice, nil)
	assert.Equal(t, DeckSize, len(gs.Hand)+gs.DeckRemainingCount())
}

func TestPublicViewNeverExposesOrder(t *testing.T) {
	gs, _ := Start(7, ModePractice, nil)
	pub := gs.Public()
	assert.Equal(t, gs.DeckRemainingCount(), pub.DeckRemainingCount)
	total := 0
	for _, n := range pub.DeckCounts {
		total += n
	}
	assert.Equal(t, pub.DeckRemainingCount, total)
}

func TestCloneIsIndependent(t *testing.T) {
	gs, _ := Start(7, ModePractice, nil)
	original := gs.Hand[0]
	clone := gs.Clone()
	clone.Hand[0] = original + 1
	clone.ScoreTotal = 9999
	assert.Equal(t, original, gs.Hand[0])
	assert.NotEqual(t, gs.ScoreTotal, clone.ScoreTotal)
}
