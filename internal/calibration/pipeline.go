// Package calibration implements the offline, three-stage per-seed
// pipeline (C10): baseline heuristic bucketing, boundary-seed EV
// refinement, and an order-unknown trace gate, run embarrassingly
// parallel over a batch of seeds and merged append-only into JSONL/JSON
// artifacts (spec.md §4.8, §5). It is the only package that constructs
// internal/rollout's Evaluator, after tagging the process via
// internal/guard.
package calibration

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"pokercore/internal/engine"
	"pokercore/internal/guard"
	"pokercore/internal/policy"
	"pokercore/internal/rollout"
)

// Config fixes the knobs spec.md §4.7/§4.8 leaves to the run: top-K
// candidates and R rollouts for stage 2, the boundary band width around
// each tier cutoff, and how many tiers to bucket into.
type Config struct {
	TopK            int
	Rollouts        int
	Tiers           int
	BoundaryBand    float64 // width of the stage-2 band around each cutoff, as a fraction of the stage_a_score spread, e.g. 0.15
	Mode            engine.Mode
	Concurrency     int
}

// SeedResult is one seed's full per-stage output, the row eventually
// written to calibration_results.jsonl.
type SeedResult struct {
	Seed           uint64         `json:"seed"`
	Mode           engine.Mode    `json:"mode"`
	StageAScore    int            `json:"stage_a_score"`
	StageBEVMean   *float64       `json:"stage_b_ev_mean,omitempty"`
	StageBEVStd    *float64       `json:"stage_b_ev_std,omitempty"`
	StageBSuccess  *float64       `json:"stage_b_success_rate,omitempty"`
	Tier           string         `json:"tier"`
	TargetScore    *int           `json:"target_score,omitempty"`
	TracePassed    bool           `json:"trace_passed"`
	TraceFailedWhy string         `json:"trace_failed_reason,omitempty"`
	Trace          []engine.Event `json:"-"`
	// InfoSet records which view Trace was built from. stageThree is the
	// only place that sets this, and only after rerunning the decision
	// loop through engine.GameState.Public() end to end, so it carries
	// real provenance rather than a hardcoded pass: a SeedResult whose
	// trace came from anywhere else (or was never run) stays at its zero
	// value and NewTraceArtifact's guard check rejects it.
	InfoSet guard.InfoSet `json:"-"`
}

// Run executes stages 1-3 over seeds and returns the per-seed results
// plus the tier cutoffs. Cutoffs and tiers come from the stage_a_score
// distribution alone; stage-2 results do not move them and only feed
// each tier's target_score. Stage 2 and stage 3 run only after stage 1 and tier
// assignment complete for the whole batch, per spec.md §5's sequential-
// per-seed-but-parallel-across-seeds ordering.
func Run(ctx context.Context, cfg Config, seeds []uint64) ([]SeedResult, []int, error) {
	results := make([]SeedResult, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}
	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = stageOne(seed, cfg.Mode)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	cutoffs := quantileCutoffs(scoresOf(results), cfg.Tiers)
	assignTiers(results, cutoffs)

	boundary := boundarySeedIndices(results, cutoffs, cfg.BoundaryBand)
	if len(boundary) > 0 {
		guard.SetMode(guard.Calibration)
		evaluator := rollout.NewEvaluator(cfg.TopK, cfg.Rollouts)

		g2, gctx2 := errgroup.WithContext(ctx)
		if cfg.Concurrency > 0 {
			g2.SetLimit(cfg.Concurrency)
		}
		for _, idx := range boundary {
			idx := idx
			g2.Go(func() error {
				if err := gctx2.Err(); err != nil {
					return err
				}
				stageTwo(&results[idx], evaluator)
				return nil
			})
		}
		if err := g2.Wait(); err != nil {
			return nil, nil, err
		}
	}

	targetScores := targetScoresByTier(results)
	for i := range results {
		if ts, ok := targetScores[results[i].Tier]; ok {
			t := ts
			results[i].TargetScore = &t
		}
	}

	g3, gctx3 := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g3.SetLimit(cfg.Concurrency)
	}
	for i := range results {
		i := i
		g3.Go(func() error {
			if err := gctx3.Err(); err != nil {
				return err
			}
			stageThree(&results[i])
			return nil
		})
	}
	if err := g3.Wait(); err != nil {
		return nil, nil, err
	}

	return results, cutoffs, nil
}

// stageOne runs one complete game from seed, feeding the C8 heuristic's
// own chosen action forward against the real ordered deck: real draws
// happen, but the policy only ever sees the public projection at each
// step, so this single deterministic pass both labels the seed and
// exercises the exact code path runtime ai_hint uses.
func stageOne(seed uint64, mode engine.Mode) SeedResult {
	gs, _ := engine.Start(seed, mode, nil)
	modelScore := 0
	for !gs.IsTerminal() {
		best := policy.Hint(gs.Public())
		next, events, cerr := engine.Apply(gs, best.Action)
		if cerr != nil {
			break
		}
		modelScore += modelPointsFromEvents(events)
		gs = next
	}
	return SeedResult{Seed: seed, Mode: mode, StageAScore: modelScore}
}

// modelPointsFromEvents recovers the model-table (no-jackpot) points for
// a PLAY step from its emitted play.scored category, since GameState
// only tracks the gameplay total itself.
func modelPointsFromEvents(events []engine.Event) int {
	for _, e := range events {
		if e.MessageKey != engine.MsgPlayScored {
			continue
		}
		catName, _ := e.Params["category"].(string)
		for _, c := range engine.AllCategories {
			if c.String() == catName {
				return engine.PointsForCategoryModel(c)
			}
		}
	}
	return 0
}

func scoresOf(results []SeedResult) []int {
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.StageAScore
	}
	return out
}

// quantileCutoffs returns cfg.Tiers-1 equal-frequency cutoffs over
// scores (SPEC_FULL.md §5 Open Question #2).
func quantileCutoffs(scores []int, tiers int) []int {
	if tiers <= 1 || len(scores) == 0 {
		return nil
	}
	sorted := append([]int{}, scores...)
	sort.Ints(sorted)
	cutoffs := make([]int, 0, tiers-1)
	for t := 1; t < tiers; t++ {
		idx := (len(sorted) * t) / tiers
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		cutoffs = append(cutoffs, sorted[idx])
	}
	return cutoffs
}

func tierNames(n int) []string {
	switch {
	case n <= 2:
		return []string{"easy", "hard"}
	case n == 3:
		return []string{"easy", "medium", "hard"}
	default:
		names := make([]string, n)
		for i := range names {
			names[i] = "tier_" + itoa(i)
		}
		return names
	}
}

func assignTiers(results []SeedResult, cutoffs []int) {
	names := tierNames(len(cutoffs) + 1)
	for i := range results {
		tier := 0
		for _, c := range cutoffs {
			if results[i].StageAScore > c {
				tier++
			}
		}
		results[i].Tier = names[tier]
	}
}

// boundarySeedIndices selects the seeds whose stage_a_score lies within
// a band around any cutoff (spec.md §4.8). The band's total width is
// band times the spread of stage_a_score (max minus min), with a
// half-width of at least 1; how many seeds fall inside depends on the
// score distribution, not on band directly.
func boundarySeedIndices(results []SeedResult, cutoffs []int, band float64) []int {
	if len(cutoffs) == 0 || band <= 0 {
		return nil
	}
	scores := scoresOf(results)
	sorted := append([]int{}, scores...)
	sort.Ints(sorted)
	spread := 0
	if len(sorted) > 1 {
		spread = sorted[len(sorted)-1] - sorted[0]
	}
	halfWidth := int(float64(spread) * band / 2)
	if halfWidth < 1 {
		halfWidth = 1
	}

	var out []int
	for i, r := range results {
		for _, c := range cutoffs {
			if abs(r.StageAScore-c) <= halfWidth {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func stageTwo(r *SeedResult, evaluator *rollout.Evaluator) {
	gs, _ := engine.Start(r.Seed, r.Mode, nil)
	results := evaluator.Evaluate(gs.Privileged(), r.Seed)
	if len(results) == 0 {
		return
	}
	best := results[0]
	mean, std := best.Mean, best.StdDev
	r.StageBEVMean = &mean
	r.StageBEVStd = &std
	if r.Mode == engine.ModeChallenge && r.TargetScore != nil {
		success := 0.0
		if mean >= float64(*r.TargetScore) {
			success = 1.0
		}
		r.StageBSuccess = &success
	}
}

// stageThree reruns C8 end-to-end under strict order-unknown
// constraints to produce the gating TraceArtifact (spec.md §4.8 stage
// 3). The "strict order-unknown" rerun is the same stageOne loop — C8
// never sees the ordered deck either way — so passing means the trace
// completed cleanly and, for challenge seeds, met the feasibility floor.
func stageThree(r *SeedResult) {
	gs, _ := engine.Start(r.Seed, r.Mode, r.TargetScore)
	var trace []engine.Event
	for !gs.IsTerminal() {
		view := gs.Public()
		trace = append(trace, policy.Trace(view)...)
		best := policy.Hint(view)
		next, _, cerr := engine.Apply(gs, best.Action)
		if cerr != nil {
			r.TracePassed = false
			r.TraceFailedWhy = cerr.MessageKey
			r.Trace = trace
			r.InfoSet = guard.OrderUnknown
			return
		}
		gs = next
	}
	if r.Mode == engine.ModeChallenge && r.TargetScore != nil && gs.ScoreTotal < *r.TargetScore {
		r.TracePassed = false
		r.TraceFailedWhy = "feasibility_floor_not_met"
		r.Trace = trace
		r.InfoSet = guard.OrderUnknown
		return
	}
	r.TracePassed = true
	r.Trace = trace
	r.InfoSet = guard.OrderUnknown
}

func targetScoresByTier(results []SeedResult) map[string]int {
	byTier := map[string][]float64{}
	for _, r := range results {
		v := float64(r.StageAScore)
		if r.StageBEVMean != nil {
			v = *r.StageBEVMean
		}
		byTier[r.Tier] = append(byTier[r.Tier], v)
	}
	out := make(map[string]int, len(byTier))
	for tier, vals := range byTier {
		sort.Float64s(vals)
		out[tier] = int(vals[len(vals)/2])
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
