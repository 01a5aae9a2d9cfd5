package engine

// Replay reconstructs the state after applying history[0:len(history)] to a
// fresh Start(seed, mode, targetScore). Used by both Jump and the
// determinism tests in spec.md §8.
func Replay(seed uint64, mode Mode, targetScore *int, history []Action) (*GameState, []Event, *CoreError) {
	gs, events := Start(seed, mode, targetScore)
	for _, a := range history {
		next, stepEvents, cerr := Apply(gs, a)
		if cerr != nil {
			return gs, events, cerr
		}
		gs = next
		events = append(events, stepEvents...)
	}
	return gs, events, nil
}

// Jump replays history[0:k] from a fresh start and returns the resulting
// state (C6). Jumping truncates any future history: the caller is
// responsible for discarding history[k:] and, if a new action is applied
// afterward, appending it to history[0:k] rather than preserving a branch.
// hint/jump budgets are session-scoped bookkeeping the adapter owns
// alongside (seed, history); Jump itself never touches them.
func Jump(seed uint64, mode Mode, targetScore *int, history []Action, k int) (*GameState, []Event, *CoreError) {
	if k < 0 || k > len(history) {
		return nil, nil, contractErr("error.jump_not_allowed", map[string]any{"k": k, "history_len": len(history)})
	}
	gs, events, cerr := Replay(seed, mode, targetScore, history[:k])
	if cerr != nil {
		return nil, nil, cerr
	}
	events = append(events, newEvent("game.jumped", MsgGameJumped, map[string]any{"step_index": k}))
	return gs, events, nil
}
