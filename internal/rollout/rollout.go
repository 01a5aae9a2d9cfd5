// Package rollout implements the ordered-deck Monte Carlo EV refinement
// evaluator (C9): the stage-2 calibration step that re-scores C8's
// boundary-tier candidates against many resampled continuations of the
// deck, rather than the single order-unknown surrogate C8 uses at
// runtime. Every Evaluator is gated by internal/guard, because it is the
// only package in this module allowed to hold an engine.PrivilegedView.
package rollout

import (
	"math"

	"pokercore/internal/engine"
	"pokercore/internal/guard"
	"pokercore/internal/policy"
)

// Result is one candidate's Monte Carlo outcome: mean and standard
// deviation of the terminal score reached by playing the candidate, then
// following internal/policy's own ranking for every subsequent decision
// until p_remaining reaches 0, averaged over Rollouts resampled deck
// continuations.
type Result struct {
	Action   engine.Action
	Mean     float64
	StdDev   float64
	Rollouts int
}

// Evaluator runs R Monte Carlo rollouts over the top-K C8 candidates for
// a given state. Construction panics outside calibration mode (C11), so
// the gate is paid once per pipeline stage, not once per seed.
type Evaluator struct {
	topK     int
	rollouts int
}

// NewEvaluator constructs a C9 evaluator. Both topK and rollouts must be
// positive; callers (internal/calibration) fix these from the pipeline's
// stage-2 configuration.
func NewEvaluator(topK, rollouts int) *Evaluator {
	guard.RequireCalibration()
	if topK <= 0 || rollouts <= 0 {
		panic("rollout: topK and rollouts must be positive")
	}
	return &Evaluator{topK: topK, rollouts: rollouts}
}

// Evaluate scores the top-K C8 candidates for view under seed-derived
// resampled continuations and returns them best-first by mean score,
// breaking a mean tie as better does.
func (e *Evaluator) Evaluate(view engine.PrivilegedView, seed uint64) []Result {
	public := publicOf(view)
	ranked := policy.Rank(public)
	if len(ranked) > e.topK {
		ranked = ranked[:e.topK]
	}

	results := make([]Result, len(ranked))
	for i, cand := range ranked {
		results[i] = e.evaluateOne(view, cand.Action, seed, i)
	}

	sortResults(results)
	return results
}

func (e *Evaluator) evaluateOne(view engine.PrivilegedView, action engine.Action, seed uint64, candIdx int) Result {
	scores := make([]float64, e.rollouts)
	for r := 0; r < e.rollouts; r++ {
		sub := deriveSeed(seed, candIdx, r)
		scores[r] = rolloutOnce(view, action, sub)
	}
	mean, stddev := meanStdDev(scores)
	return Result{Action: action, Mean: mean, StdDev: stddev, Rollouts: e.rollouts}
}

// rolloutOnce plays action on view's actual hand against a fresh
// reshuffle of the cards view has not yet seen (the remaining deck, taken
// as an unordered pool and reshuffled under sub), then follows
// internal/policy greedily to a terminal state, returning the final
// score_total.
func rolloutOnce(view engine.PrivilegedView, action engine.Action, sub uint64) float64 {
	gs := &rolloutState{
		hand:        append([]engine.Card{}, view.Hand...),
		deck:        shufflePool(view.Deck, sub),
		pRemaining:  view.PRemaining,
		dRemaining:  view.DRemaining,
		scoreTotal:  view.ScoreTotal,
		mode:        view.Mode,
		targetScore: view.TargetScore,
	}

	applyRolloutAction(gs, action)
	for gs.pRemaining > 0 {
		pv := gs.public()
		best := policy.Hint(pv)
		applyRolloutAction(gs, best.Action)
	}
	return float64(gs.scoreTotal)
}

// rolloutState is a minimal local mirror of engine.GameState's transition
// rules, reimplemented here because engine.GameState keeps its ordered
// deck in an unexported field, so a rollout cannot hand engine.Apply a
// state whose deck it has reshuffled per iteration.
type rolloutState struct {
	hand        []engine.Card
	deck        []engine.Card
	pRemaining  int
	dRemaining  int
	scoreTotal  int
	mode        engine.Mode
	targetScore *int
}

func (gs *rolloutState) public() engine.PublicView {
	counts := make(map[engine.Card]int, len(gs.deck))
	for _, c := range gs.deck {
		counts[c]++
	}
	return engine.PublicView{
		Hand:               append([]engine.Card{}, gs.hand...),
		PRemaining:         gs.pRemaining,
		DRemaining:         gs.dRemaining,
		ScoreTotal:         gs.scoreTotal,
		DeckRemainingCount: len(gs.deck),
		DeckCounts:         counts,
		Mode:               gs.mode,
		TargetScore:        gs.targetScore,
	}
}

func applyRolloutAction(gs *rolloutState, action engine.Action) {
	drop := make(map[int]struct{}, len(action.SelectedIndices))
	for _, i := range action.SelectedIndices {
		drop[i] = struct{}{}
	}
	kept := make([]engine.Card, 0, len(gs.hand))
	removed := make([]engine.Card, 0, len(action.SelectedIndices))
	for i, c := range gs.hand {
		if _, hit := drop[i]; hit {
			removed = append(removed, c)
		} else {
			kept = append(kept, c)
		}
	}

	switch action.Type {
	case engine.ActionDiscard:
		n := len(removed)
		drawn, rest := gs.deck[:n:n], gs.deck[n:]
		gs.hand = append(kept, drawn...)
		gs.deck = rest
		gs.dRemaining -= n
	case engine.ActionPlay:
		var five [5]engine.Card
		copy(five[:], removed)
		// Model table, not gameplay: spec.md §4.7 step 3 requires terminal
		// score_total under the model scoring table, so a rollout that
		// happens to draw a straight flush doesn't inject a 999,999-point
		// jackpot outlier into stage_b_ev_mean/stddev.
		_, points := engine.ScoreFiveModel(five)
		drawn, rest := gs.deck[:5:5], gs.deck[5:]
		gs.hand = append(kept, drawn...)
		gs.deck = rest
		gs.scoreTotal += points
		gs.pRemaining--
	}
}

func publicOf(view engine.PrivilegedView) engine.PublicView {
	counts := make(map[engine.Card]int, len(view.Deck))
	for _, c := range view.Deck {
		counts[c]++
	}
	return engine.PublicView{
		Hand:               append([]engine.Card{}, view.Hand...),
		PRemaining:         view.PRemaining,
		DRemaining:         view.DRemaining,
		ScoreTotal:         view.ScoreTotal,
		DeckRemainingCount: len(view.Deck),
		DeckCounts:         counts,
		Mode:               view.Mode,
		TargetScore:        view.TargetScore,
	}
}

// shufflePool reshuffles an unordered card pool under a sub-seed, reusing
// engine's xoshiro256** stream so rollout resampling follows the same
// determinism contract as the rest of the engine, seeded off the session
// seed rather than off wall-clock entropy.
func shufflePool(pool []engine.Card, sub uint64) []engine.Card {
	out := append([]engine.Card{}, pool...)
	rng := engine.NewRolloutRNG(sub)
	for i := len(out) - 1; i > 0; i-- {
		j := int(rng.UniformBelow(uint64(i) + 1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// deriveSeed mixes the session seed with the candidate and rollout index
// so every (candidate, rollout) pair gets an independent, reproducible
// sub-seed without a shared mutable RNG crossing goroutines.
func deriveSeed(seed uint64, candIdx, rolloutIdx int) uint64 {
	mix := seed ^ uint64(candIdx+1)*0x9E3779B97F4A7C15 ^ uint64(rolloutIdx+1)*0xBF58476D1CE4E5B9
	mix ^= mix >> 33
	mix *= 0xFF51AFD7ED558CCD
	mix ^= mix >> 33
	return mix
}

func meanStdDev(xs []float64) (mean, stddev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	stddev = math.Sqrt(sq / float64(len(xs)))
	return mean, stddev
}

func sortResults(results []Result) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0; j-- {
			if better(results[j], results[j-1]) {
				results[j-1], results[j] = results[j], results[j-1]
			} else {
				break
			}
		}
	}
}

// better reports whether a should rank ahead of b: higher mean first,
// then lower standard deviation, then fewer selected indices, then the
// lexicographically smaller index set.
func better(a, b Result) bool {
	if a.Mean != b.Mean {
		return a.Mean > b.Mean
	}
	if a.StdDev != b.StdDev {
		return a.StdDev < b.StdDev
	}
	if len(a.Action.SelectedIndices) != len(b.Action.SelectedIndices) {
		return len(a.Action.SelectedIndices) < len(b.Action.SelectedIndices)
	}
	ai, bi := a.Action.SelectedIndices, b.Action.SelectedIndices
	for i := 0; i < len(ai) && i < len(bi); i++ {
		if ai[i] != bi[i] {
			return ai[i] < bi[i]
		}
	}
	return len(ai) < len(bi)
}
