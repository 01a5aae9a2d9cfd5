package engine

// Legal action generation (C7). PLAY candidates are always the full
// C(7,5)=21 subsets; DISCARD candidates default to a fixed set of
// "discard the k worst cards" templates to avoid the combinatorial blow-up
// of enumerating every subset at every k, per spec.md §4.5. Full
// enumeration is available as an alternative exhaustive mode.

// IndexSet is a sorted, deduplicated set of hand positions, used as the
// comparable/orderable shape for tie-breaking in internal/policy.
type IndexSet []int

// PlayCandidates returns the 21 distinct 5-of-7 index subsets of a 7-card
// hand. Panics if handLen != 7, since PLAY is only ever legal at a 7-card
// step boundary.
func PlayCandidates(handLen int) []IndexSet {
	if handLen != InitialHandSize {
		panic("engine: PlayCandidates requires a full 7-card hand")
	}
	var out []IndexSet
	var combo func(start int, chosen []int)
	combo = func(start int, chosen []int) {
		if len(chosen) == 5 {
			out = append(out, append(IndexSet{}, chosen...))
			return
		}
		for i := start; i < handLen; i++ {
			combo(i+1, append(chosen, i))
		}
	}
	combo(0, nil)
	return out
}

// DiscardTemplates returns, for k in 0..min(3, dRemaining, handLen), the
// index set of the k cards a rank function scores worst, plus k=0 (the
// empty discard, not itself legal, included only so "do not discard" is
// representable when ranking discard candidates against plays). rank
// returns a lower-is-worse score for a single card; ties break toward the
// lowest hand index so the template is deterministic.
func DiscardTemplates(hand []Card, dRemaining int, rank func(Card) float64) []IndexSet {
	maxK := 3
	if dRemaining < maxK {
		maxK = dRemaining
	}
	if len(hand) < maxK {
		maxK = len(hand)
	}

	order := make([]int, len(hand))
	for i := range order {
		order[i] = i
	}
	// Stable sort ascending by rank(card); lower rank sorts first (worst first).
	for i := 1; i < len(order); i++ {
		for j := i; j > 0; j-- {
			a, b := order[j-1], order[j]
			if rank(hand[a]) > rank(hand[b]) {
				order[j-1], order[j] = order[j], order[j-1]
			} else {
				break
			}
		}
	}

	templates := make([]IndexSet, 0, maxK+1)
	for k := 0; k <= maxK; k++ {
		worst := append(IndexSet{}, order[:k]...)
		sortInts(worst)
		templates = append(templates, worst)
	}
	return templates
}

// FullDiscardEnumeration returns every legal discard index set (all n from
// 1..min(len(hand),dRemaining), all C(len(hand),n) combinations), for
// exhaustive-search callers that opt out of the default template mode.
func FullDiscardEnumeration(handLen, dRemaining int) []IndexSet {
	maxN := handLen
	if dRemaining < maxN {
		maxN = dRemaining
	}
	var out []IndexSet
	for n := 1; n <= maxN; n++ {
		var combo func(start int, chosen []int)
		combo = func(start int, chosen []int) {
			if len(chosen) == n {
				out = append(out, append(IndexSet{}, chosen...))
				return
			}
			for i := start; i < handLen; i++ {
				combo(i+1, append(chosen, i))
			}
		}
		combo(0, nil)
	}
	return out
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
