package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayCandidatesHasTwentyOneSubsets(t *testing.T) {
	candidates := PlayCandidates(7)
	assert.Len(t, candidates, 21)

	seen := map[string]bool{}
	for _, c := range candidates {
		assert.Len(t, c, 5)
		key := ""
		for _, i := range c {
			key += string(rune('0' + i))
		}
		assert.False(t, seen[key], "duplicate candidate %v", c)
		seen[key] = true
	}
}

func TestPlayCandidatesPanicsOnWrongHandSize(t *testing.T) {
	assert.Panics(t, func() { PlayCandidates(5) })
}

func TestDiscardTemplatesIncludesEmptyAndWorstFirst(t *testing.T) {
	gs, _ := Start(1, ModePractice, nil)
	rank := func(c Card) float64 { return float64(c.RankValue()) }
	templates := DiscardTemplates(gs.Hand, gs.DRemaining, rank)

	require.NotEmpty(t, templates)
	assert.Empty(t, templates[0])

	for _, tpl := range templates {
		seen := map[int]bool{}
		for _, idx := range tpl {
			assert.False(t, seen[idx])
			seen[idx] = true
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, len(gs.Hand))
		}
	}
}

func TestDiscardTemplatesRespectsBudget(t *testing.T) {
	gs, _ := Start(1, ModePractice, nil)
	rank := func(c Card) float64 { return float64(c.RankValue()) }
	templates := DiscardTemplates(gs.Hand, 2, rank)
	for _, tpl := range templates {
		assert.LessOrEqual(t, len(tpl), 2)
	}
}

func TestFullDiscardEnumerationCoversEveryLegalSize(t *testing.T) {
	all := FullDiscardEnumeration(7, 3)
	sizes := map[int]bool{}
	for _, c := range all {
		sizes[len(c)] = true
	}
	assert.True(t, sizes[1])
	assert.True(t, sizes[2])
	assert.True(t, sizes[3])
	assert.False(t, sizes[4])
}
