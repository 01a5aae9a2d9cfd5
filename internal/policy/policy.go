// Package policy implements the order-unknown heuristic decision engine
// (C8): the same ranking the runtime server uses to answer ai_hint, and
// the stage-1 baseline the offline calibration pipeline uses to seed its
// target-score quantiles (spec.md §4.6, Open Question resolution #1 in
// SPEC_FULL.md §5). It is constructed from engine.PublicView only, by
// construction of the types it accepts — there is no PrivilegedView
// overload in this package, so the compiler is the first line of the
// information-set boundary.
package policy

import (
	"sort"

	"pokercore/internal/engine"
)

// Candidate is a ranked PLAY or DISCARD option, the unit this package
// hands back to callers (runtime hint surface, stage-1 calibration).
type Candidate struct {
	Action engine.Action
	EV     float64
	// DiscardCount breaks EV ties toward fewer discards; always 0 for PLAY.
	DiscardCount int
}

// topM bounds the order-unknown EV proxy for DISCARD candidates
// (discardEV): the best achievable model category (spec.md's "model"
// scoring universe, never the jackpot-bearing gameplay one) over the
// completions built from the topM highest-weight remaining cards,
// weighted by the remaining deck's multiset probabilities. It bounds the
// surrogate's cost; it is a ranking heuristic, not an exact expectation,
// so M need not be large to produce a stable ordering.
const topM = 12

// Rank scores all 21 PLAY candidates and the "discard the k worst cards"
// templates for k=1..3 (engine.DiscardTemplates; other discard subsets
// are not scored) from view and returns them best-first, using the
// spec.md §4.6 tie-break ladder:
// (1) higher EV, (2) prefer PLAY over DISCARD when p_remaining==1, else
// prefer the lower-variance option, (3) fewer discarded cards, (4)
// lexicographically smallest selected-index set.
func Rank(view engine.PublicView) []Candidate {
	var out []Candidate

	for _, idx := range engine.PlayCandidates(len(view.Hand)) {
		played := selectCards(view.Hand, idx)
		ev := playEV(played, view)
		out = append(out, Candidate{
			Action: engine.Action{Type: engine.ActionPlay, SelectedIndices: idx},
			EV:     ev,
		})
	}

	if view.DRemaining > 0 {
		rank := func(c engine.Card) float64 { return cardKeepValue(c, view) }
		for _, idx := range engine.DiscardTemplates(view.Hand, view.DRemaining, rank) {
			if len(idx) == 0 {
				continue // k=0 is the "do nothing" baseline, not a legal DISCARD
			}
			ev := discardEV(view, idx)
			out = append(out, Candidate{
				Action:       engine.Action{Type: engine.ActionDiscard, SelectedIndices: idx},
				EV:           ev,
				DiscardCount: len(idx),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j], view)
	})
	return out
}

// Hint returns the single best candidate, the payload for the runtime
// ai_hint surface.
func Hint(view engine.PublicView) Candidate {
	ranked := Rank(view)
	return ranked[0]
}

// Trace returns the message-key events describing why Hint chose what it
// chose, for the runtime ai_trace / offline stage-3 gate surface. Every
// event this package produces operates on PublicView only, so it is
// always safe to tag order_unknown.
func Trace(view engine.PublicView) []engine.Event {
	best := Hint(view)
	return []engine.Event{{
		Type:       "ai.hint",
		MessageKey: engine.MsgAIReasonHeuristic,
		Params: map[string]any{
			"action_type": string(best.Action.Type),
			"indices":     best.Action.SelectedIndices,
			"ev":          best.EV,
		},
	}}
}

func less(a, b Candidate, view engine.PublicView) bool {
	if a.EV != b.EV {
		return a.EV > b.EV
	}
	if view.PRemaining == 1 {
		aIsPlay := a.Action.Type == engine.ActionPlay
		bIsPlay := b.Action.Type == engine.ActionPlay
		if aIsPlay != bIsPlay {
			return aIsPlay
		}
	} else {
		va, vb := variance(a, view), variance(b, view)
		if va != vb {
			return va < vb
		}
	}
	if a.DiscardCount != b.DiscardCount {
		return a.DiscardCount < b.DiscardCount
	}
	return lexLess(a.Action.SelectedIndices, b.Action.SelectedIndices)
}

func lexLess(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func selectCards(hand []engine.Card, idx []int) [5]engine.Card {
	var out [5]engine.Card
	for i, p := range idx {
		out[i] = hand[p]
	}
	return out
}

// playEV scores the exact completed 5-card hand under the model points
// table: a PLAY's outcome is fully determined once the 5 indices are
// chosen, no remaining-deck uncertainty involved.
func playEV(played [5]engine.Card, _ engine.PublicView) float64 {
	_, points := engine.ScoreFiveModel(played)
	return float64(points)
}

// discardEV estimates the value of discarding idx by looking at what the
// kept cards, plus the highest-probability completions drawn from the
// remaining deck's multiset, could become. It never inspects the actual
// draw order, only the order-unknown composition in view.DeckCounts.
func discardEV(view engine.PublicView, idx []int) float64 {
	kept := keptAfterDiscard(view.Hand, idx)
	completions := topCompletions(view.DeckCounts, len(idx), topM)

	var sum, weight float64
	for _, comp := range completions {
		full := append(append([]engine.Card{}, kept...), comp.cards...)
		sum += comp.weight * bestFiveOf(full)
		weight += comp.weight
	}
	if weight == 0 {
		return 0
	}
	return sum / weight
}

func keptAfterDiscard(hand []engine.Card, idx []int) []engine.Card {
	drop := make(map[int]struct{}, len(idx))
	for _, i := range idx {
		drop[i] = struct{}{}
	}
	kept := make([]engine.Card, 0, len(hand)-len(idx))
	for i, c := range hand {
		if _, hit := drop[i]; !hit {
			kept = append(kept, c)
		}
	}
	return kept
}

// cardKeepValue scores how much a single card is worth keeping, used only
// to order DiscardTemplates' worst-first candidate cards. Higher is more
// worth keeping; pairs/suited/connected cards score above lone low cards.
func cardKeepValue(c engine.Card, view engine.PublicView) float64 {
	rank := float64(c.RankValue())
	var sameRank, sameSuit int
	for _, h := range view.Hand {
		if h == c {
			continue
		}
		if h.RankValue() == c.RankValue() {
			sameRank++
		}
		if h.SuitIndex() == c.SuitIndex() {
			sameSuit++
		}
	}
	return rank + float64(sameRank)*8 + float64(sameSuit)*2
}

type completion struct {
	cards  []engine.Card
	weight float64
}

// topCompletions keeps the m highest-weight cards of a remaining-deck
// multiset (each card's frequency is its weight) and returns every n-card
// combination of them, weighting each combination by the product of its
// cards' weights (a reasonable surrogate, not an exact hypergeometric
// joint, since n is always <= 3 here in practice).
func topCompletions(counts map[engine.Card]int, n, m int) []completion {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 || n == 0 {
		return []completion{{cards: nil, weight: 1}}
	}
	pool := make([]cw, 0, len(counts))
	for card, c := range counts {
		if c <= 0 {
			continue
		}
		pool = append(pool, cw{card: card, weight: float64(c) / float64(total)})
	}
	// Ties on weight break by card so the pool does not depend on map
	// iteration order.
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].weight != pool[j].weight {
			return pool[i].weight > pool[j].weight
		}
		return pool[i].card < pool[j].card
	})
	if len(pool) > m {
		pool = pool[:m]
	}

	out := make([]completion, 0, len(pool))
	for _, p := range singleCardCombinations(pool, n) {
		out = append(out, p)
	}
	return out
}

type cw struct {
	card   engine.Card
	weight float64
}

func singleCardCombinations(pool []cw, n int) []completion {
	var out []completion
	var rec func(start int, chosen []engine.Card, w float64)
	rec = func(start int, chosen []engine.Card, w float64) {
		if len(chosen) == n {
			out = append(out, completion{cards: append([]engine.Card{}, chosen...), weight: w})
			return
		}
		if start >= len(pool) {
			return
		}
		for i := start; i < len(pool); i++ {
			rec(i+1, append(chosen, pool[i].card), w*pool[i].weight)
		}
	}
	rec(0, nil, 1)
	return out
}

// bestFiveOf scores the best 5-card model-points hand achievable from a
// set of 5-7 cards, trying every 5-subset.
func bestFiveOf(cards []engine.Card) float64 {
	if len(cards) == 5 {
		var five [5]engine.Card
		copy(five[:], cards)
		_, points := engine.ScoreFiveModel(five)
		return float64(points)
	}
	best := 0.0
	var rec func(start int, chosen []engine.Card)
	rec = func(start int, chosen []engine.Card) {
		if len(chosen) == 5 {
			var five [5]engine.Card
			copy(five[:], chosen)
			_, points := engine.ScoreFiveModel(five)
			if float64(points) > best {
				best = float64(points)
			}
			return
		}
		for i := start; i < len(cards); i++ {
			rec(i+1, append(chosen, cards[i]))
		}
	}
	rec(0, nil)
	return best
}

// variance estimates outcome spread for a candidate, used only as the C8
// tie-break secondary key (spec.md §4.6 step 2, "lower-variance option").
// PLAY has none: the outcome is fully determined by the 5 chosen cards.
func variance(c Candidate, view engine.PublicView) float64 {
	if c.Action.Type == engine.ActionPlay {
		return 0
	}
	kept := keptAfterDiscard(view.Hand, c.Action.SelectedIndices)
	completions := topCompletions(view.DeckCounts, len(c.Action.SelectedIndices), topM)
	var mean, weight float64
	vals := make([]float64, 0, len(completions))
	ws := make([]float64, 0, len(completions))
	for _, comp := range completions {
		full := append(append([]engine.Card{}, kept...), comp.cards...)
		v := bestFiveOf(full)
		vals = append(vals, v)
		ws = append(ws, comp.weight)
		mean += comp.weight * v
		weight += comp.weight
	}
	if weight == 0 {
		return 0
	}
	mean /= weight
	var varSum float64
	for i, v := range vals {
		d := v - mean
		varSum += ws[i] * d * d
	}
	return varSum / weight
}
