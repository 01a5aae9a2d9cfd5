package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokercore/internal/engine"
	"pokercore/internal/sessionstore"
)

func TestCanonicalCardOrderMatchesStandardDeck(t *testing.T) {
	order := canonicalCardOrder()
	deck := engine.StandardDeck()
	require.Len(t, order, len(deck))
	for i, c := range deck {
		assert.Equal(t, c.String(), order[i])
	}
}

func TestPolicyLabelReflectsBudgetState(t *testing.T) {
	assert.Equal(t, "unlimited", policyLabel(nil))
	assert.Equal(t, "off", policyLabel(&sessionstore.Budget{Total: 0, Remaining: 0}))
	assert.Equal(t, "limited", policyLabel(&sessionstore.Budget{Total: 3, Remaining: 1}))
}

func TestToStateDTOProjectsHandAndDeckCounts(t *testing.T) {
	gs, events := engine.Start(11, engine.ModePractice, nil)
	sess := sessionstore.Session{
		HintBudget: &sessionstore.Budget{Total: 5, Remaining: 4},
	}

	dto := toStateDTO("game-1", gs, 0, events, sess)

	assert.Equal(t, "game-1", dto.GameID)
	require.Len(t, dto.Hand, len(gs.Hand))
	for i, c := range gs.Hand {
		assert.Equal(t, c.String(), dto.Hand[i])
	}
	assert.Equal(t, gs.DeckRemainingCount(), dto.DeckRemainingCount)
	assert.Equal(t, "limited", dto.HintPolicy)
	require.NotNil(t, dto.HintBudgetRemaining)
	assert.Equal(t, 4, *dto.HintBudgetRemaining)
	assert.Equal(t, "unlimited", dto.JumpPolicy)
	assert.Nil(t, dto.JumpBudgetTotal)

	total := 0
	for _, n := range dto.DeckRemainingCounts {
		total += n
	}
	assert.Equal(t, gs.DeckRemainingCount(), total)
}
