package engine

// Apply is the authoritative state transition (C5). It validates first and
// never partially mutates state: on any validation error, state is
// returned byte-for-byte unchanged and the error is the only output.
func Apply(gs *GameState, action Action) (*GameState, []Event, *CoreError) {
	if cerr := validateAction(action, len(gs.Hand), gs.PRemaining, gs.DRemaining); cerr != nil {
		return gs, nil, cerr
	}

	next := gs.Clone()
	kept, removed := removeIndicesPreserveOrder(next.Hand, action.SelectedIndices)

	switch action.Type {
	case ActionDiscard:
		n := len(removed)
		drawn, rest := drawFromDeck(next.deck, n)
		next.Hand = append(kept, drawn...)
		next.deck = rest
		next.DRemaining -= n
		next.History = append(next.History, action)

		ev := newEvent("discard.performed", MsgDiscardPerformed, map[string]any{
			"count": n,
		})
		return next, []Event{ev}, nil

	case ActionPlay:
		var played [5]Card
		copy(played[:], removed)
		category, points := ScoreFiveGameplay(played)

		drawn, rest := drawFromDeck(next.deck, 5)
		next.Hand = append(kept, drawn...)
		next.deck = rest
		next.ScoreTotal += points
		next.PRemaining--
		next.History = append(next.History, action)

		events := []Event{newEvent("play.scored", MsgPlayScored, map[string]any{
			"category": category.String(),
			"points":   points,
			"jackpot":  IsJackpotCategory(category),
		})}

		if next.PRemaining == 0 {
			events = append(events, newEvent("game.ended", MsgGameEnded, map[string]any{
				"score_total": next.ScoreTotal,
			}))
			if next.Mode == ModeChallenge && next.TargetScore != nil {
				if next.ScoreTotal >= *next.TargetScore {
					events = append(events, newEvent("game.passed", MsgGamePassed, map[string]any{
						"score_total": next.ScoreTotal, "target_score": *next.TargetScore,
					}))
				} else {
					events = append(events, newEvent("game.failed", MsgGameFailed, map[string]any{
						"score_total": next.ScoreTotal, "target_score": *next.TargetScore,
					}))
				}
			}
		}
		return next, events, nil

	default:
		return gs, nil, contractErr("error.invalid_action_shape", map[string]any{"type": action.Type})
	}
}

// drawFromDeck draws n cards from the front of the ordered deck (remove
// before draw is a normative choice without observable effect here, per
// spec.md §4.3, since the deck is not interleaved with the hand).
func drawFromDeck(deck Deck, n int) (drawn, rest Deck) {
	return deck[:n:n], deck[n:]
}

// removeIndicesPreserveOrder removes the given positions from hand,
// preserving survivor order, and returns (kept, removed-in-hand-order).
func removeIndicesPreserveOrder(hand []Card, indices []int) (kept, removed []Card) {
	idxSet := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		idxSet[i] = struct{}{}
	}
	kept = make([]Card, 0, len(hand)-len(indices))
	removed = make([]Card, 0, len(indices))
	for i, c := range hand {
		if _, hit := idxSet[i]; hit {
			removed = append(removed, c)
		} else {
			kept = append(kept, c)
		}
	}
	return kept, removed
}
