package engine

import (
	"encoding/json"
	"fmt"
)

// ActionType tags the Action union.
type ActionType string

const (
	ActionPlay    ActionType = "PLAY"
	ActionDiscard ActionType = "DISCARD"
)

// Action is the player's input language: PLAY{indices of 5} or
// DISCARD{indices of 1..min(|hand|,d_remaining)}. Indices refer to
// positions in the current hand, never card identities.
type Action struct {
	Type            ActionType
	SelectedIndices []int
}

type actionWire struct {
	Type            ActionType        `json:"type"`
	SelectedIndices []json.RawMessage `json:"selected_indices"`
}

// MarshalJSON renders the wire shape from spec.md §6:
// {"type": "PLAY"|"DISCARD", "selected_indices": [int, ...]}.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type            ActionType `json:"type"`
		SelectedIndices []int      `json:"selected_indices"`
	}{Type: a.Type, SelectedIndices: a.SelectedIndices})
}

// UnmarshalJSON parses the wire shape, restoring original_source/engine/
// actions.py's strict rejection of non-integer indices: each element of
// selected_indices is decoded from its raw JSON on its own, so anything
// that is not a JSON number (a bool, a string, null) is rejected, and so
// is a number with a fractional part, which action_from_dict's Python
// int-check would also reject.
func (a *Action) UnmarshalJSON(b []byte) error {
	var w actionWire
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("invalid_action_shape: %w", err)
	}
	if w.Type != ActionPlay && w.Type != ActionDiscard {
		return fmt.Errorf("invalid_action_shape: unknown type %q", w.Type)
	}
	indices := make([]int, 0, len(w.SelectedIndices))
	for _, raw := range w.SelectedIndices {
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return fmt.Errorf("invalid_action_shape: selected_indices must be integers")
		}
		i := int(f)
		if float64(i) != f {
			return fmt.Errorf("invalid_action_shape: selected_indices must be whole numbers")
		}
		indices = append(indices, i)
	}
	a.Type = w.Type
	a.SelectedIndices = indices
	return nil
}

// validateAction checks an Action against the public state it would apply
// to, returning one of the spec.md §4.3/§7 validation errors. It never
// mutates state.
func validateAction(a Action, handLen, pRemaining, dRemaining int) *CoreError {
	switch a.Type {
	case ActionPlay:
		if pRemaining <= 0 {
			return sessionStateErr("error.game_already_ended", nil)
		}
		if len(a.SelectedIndices) != 5 {
			return validationErr("error.play_requires_five", map[string]any{"got": len(a.SelectedIndices)})
		}
		return validateUniqueInBounds(a.SelectedIndices, handLen)
	case ActionDiscard:
		if pRemaining <= 0 {
			return sessionStateErr("error.game_already_ended", nil)
		}
		n := len(a.SelectedIndices)
		if n < 1 || n > handLen {
			return validationErr("error.discard_size_invalid", map[string]any{"got": n, "hand_len": handLen})
		}
		if n > dRemaining {
			return validationErr("error.discard_budget_exceeded", map[string]any{"got": n, "d_remaining": dRemaining})
		}
		return validateUniqueInBounds(a.SelectedIndices, handLen)
	default:
		return contractErr("error.invalid_action_shape", map[string]any{"type": a.Type})
	}
}

func validateUniqueInBounds(indices []int, handLen int) *CoreError {
	seen := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i < 0 || i >= handLen {
			return validationErr("error.indices_out_of_range", map[string]any{"index": i, "hand_len": handLen})
		}
		if _, dup := seen[i]; dup {
			return validationErr("error.indices_not_unique", map[string]any{"index": i})
		}
		seen[i] = struct{}{}
	}
	return nil
}
