package calibration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokercore/internal/engine"
	"pokercore/internal/guard"
)

func TestQuantileCutoffsEqualFrequency(t *testing.T) {
	scores := []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	cutoffs := quantileCutoffs(scores, 3)
	require.Len(t, cutoffs, 2)
	assert.Less(t, cutoffs[0], cutoffs[1])
}

func TestQuantileCutoffsSingleTierIsEmpty(t *testing.T) {
	assert.Empty(t, quantileCutoffs([]int{1, 2, 3}, 1))
	assert.Empty(t, quantileCutoffs(nil, 3))
}

func TestTierNamesThreeTiersAreEasyMediumHard(t *testing.T) {
	assert.Equal(t, []string{"easy", "medium", "hard"}, tierNames(3))
}

func TestTierNamesFallBackToNumberedForMoreThanThree(t *testing.T) {
	names := tierNames(4)
	assert.Equal(t, []string{"tier_0", "tier_1", "tier_2", "tier_3"}, names)
}

func TestAssignTiersUsesCutoffsInOrder(t *testing.T) {
	results := []SeedResult{
		{StageAScore: 5},
		{StageAScore: 50},
		{StageAScore: 95},
	}
	assignTiers(results, []int{10, 90})
	assert.Equal(t, "easy", results[0].Tier)
	assert.Equal(t, "medium", results[1].Tier)
	assert.Equal(t, "hard", results[2].Tier)
}

func TestBoundarySeedIndicesSelectsNearCutoffOnly(t *testing.T) {
	results := []SeedResult{
		{StageAScore: 0},
		{StageAScore: 50},
		{StageAScore: 100},
	}
	// spread 100, band 0.5: half-width 25, so only the score of 50 is near.
	idx := boundarySeedIndices(results, []int{50}, 0.5)
	assert.Contains(t, idx, 1)
	assert.NotContains(t, idx, 0)
	assert.NotContains(t, idx, 2)
}

func TestBoundarySeedIndicesEmptyWithoutCutoffs(t *testing.T) {
	results := []SeedResult{{StageAScore: 10}}
	assert.Empty(t, boundarySeedIndices(results, nil, 0.5))
	assert.Empty(t, boundarySeedIndices(results, []int{5}, 0))
}

func TestStageOneIsDeterministicAndTerminates(t *testing.T) {
	a := stageOne(101, engine.ModePractice)
	b := stageOne(101, engine.ModePractice)
	assert.Equal(t, a.StageAScore, b.StageAScore)
	assert.Equal(t, uint64(101), a.Seed)
}

func TestStageThreeProducesOrderUnknownTraceOnSuccess(t *testing.T) {
	r := stageOne(202, engine.ModePractice)
	stageThree(&r)
	assert.True(t, r.TracePassed)
	assert.NotEmpty(t, r.Trace)
	assert.Equal(t, guard.OrderUnknown, r.InfoSet)
}

func TestStageThreeFlagsUnmetFeasibilityFloor(t *testing.T) {
	r := stageOne(303, engine.ModeChallenge)
	impossible := r.StageAScore + 1_000_000
	r.TargetScore = &impossible
	stageThree(&r)
	assert.False(t, r.TracePassed)
	assert.Equal(t, "feasibility_floor_not_met", r.TraceFailedWhy)
}

func TestTargetScoresByTierUsesMedian(t *testing.T) {
	results := []SeedResult{
		{Tier: "easy", StageAScore: 10},
		{Tier: "easy", StageAScore: 20},
		{Tier: "easy", StageAScore: 30},
	}
	targets := targetScoresByTier(results)
	assert.Equal(t, 20, targets["easy"])
}

func TestTargetScoresByTierPrefersStageBWhenPresent(t *testing.T) {
	mean := 77.0
	results := []SeedResult{
		{Tier: "hard", StageAScore: 10, StageBEVMean: &mean},
	}
	targets := targetScoresByTier(results)
	assert.Equal(t, 77, targets["hard"])
}

func TestRunEndToEndProducesTiersAndTraces(t *testing.T) {
	guard.SetMode(guard.Runtime)
	defer guard.SetMode(guard.Runtime)

	seeds := make([]uint64, 0, 20)
	for i := uint64(1); i <= 20; i++ {
		seeds = append(seeds, i)
	}
	cfg := Config{
		TopK:         4,
		Rollouts:     3,
		Tiers:        3,
		BoundaryBand: 0.3,
		Mode:         engine.ModePractice,
		Concurrency:  4,
	}

	results, cutoffs, err := Run(context.Background(), cfg, seeds)
	require.NoError(t, err)
	require.Len(t, results, len(seeds))
	assert.Len(t, cutoffs, cfg.Tiers-1)

	for _, r := range results {
		assert.NotEmpty(t, r.Tier)
	}
}

func TestWriteRunCreatesAllArtifactFiles(t *testing.T) {
	guard.SetMode(guard.Runtime)
	defer guard.SetMode(guard.Runtime)

	seeds := []uint64{1, 2, 3, 4, 5, 6}
	cfg := Config{TopK: 2, Rollouts: 2, Tiers: 2, BoundaryBand: 0.5, Mode: engine.ModePractice, Concurrency: 2}
	results, cutoffs, err := Run(context.Background(), cfg, seeds)
	require.NoError(t, err)

	dir := t.TempDir()
	runID, err := WriteRun(dir, cfg, results, cutoffs)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	runDir := filepath.Join(dir, "artifacts", "pipeline", runID)
	for _, name := range []string{"calibration_results.jsonl", "trace_pass.jsonl", "trace_fail.jsonl", "seed_manifest.json", "summary.json"} {
		_, err := os.Stat(filepath.Join(runDir, name))
		assert.NoError(t, err, "expected %s to exist", name)
	}

	raw, err := os.ReadFile(filepath.Join(runDir, "summary.json"))
	require.NoError(t, err)
	var summary Summary
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, len(seeds), summary.SeedCount)
	assert.Equal(t, "equal_frequency", summary.Bucketing)
}

func TestNewTraceArtifactTagsOrderUnknown(t *testing.T) {
	r := stageOne(404, engine.ModePractice)
	stageThree(&r)
	artifact, err := NewTraceArtifact(r)
	require.NoError(t, err)
	assert.Equal(t, guard.OrderUnknown, artifact.InfoSet)
}

func TestNewTraceArtifactRejectsResultThatSkippedStageThree(t *testing.T) {
	r := stageOne(405, engine.ModePractice)
	_, err := NewTraceArtifact(r)
	assert.Error(t, err, "a SeedResult with no stage-3 provenance tag must be rejected, not silently written")
}
