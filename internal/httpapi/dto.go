package httpapi

import (
	"strconv"

	"pokercore/internal/engine"
	"pokercore/internal/sessionstore"
)

// StateDTO is the wire shape of spec.md §6's "Public state shape", plus
// the policies block every response carries.
type StateDTO struct {
	GameID              string         `json:"game_id"`
	Hand                []string       `json:"hand"`
	PRemaining          int            `json:"p_remaining"`
	DRemaining          int            `json:"d_remaining"`
	ScoreTotal          int            `json:"score_total"`
	DeckRemainingCount  int            `json:"deck_remaining_count"`
	DeckRemainingCounts cardCounts     `json:"deck_remaining_counts"`
	StepIndex           int            `json:"step_index"`
	Mode                engine.Mode    `json:"mode"`
	TargetScore         *int           `json:"target_score,omitempty"`
	Events              []engine.Event `json:"events,omitempty"`
	HintPolicy          string         `json:"hint_policy"`
	JumpPolicy          string         `json:"jump_policy"`
	HintBudgetTotal     *int           `json:"hint_budget_total,omitempty"`
	HintBudgetRemaining *int           `json:"hint_budget_remaining,omitempty"`
	JumpBudgetTotal     *int           `json:"jump_budget_total,omitempty"`
	JumpBudgetRemaining *int           `json:"jump_budget_remaining,omitempty"`
}

// toStateDTO projects a GameState plus its owning session's adapter-level
// bookkeeping into the wire shape. deck_remaining_counts is always
// exposed (SPEC_FULL.md §5 Open Question #3), as a cardCounts, whose
// MarshalJSON emits the keys in canonical card order.
func toStateDTO(gameID string, gs *engine.GameState, stepIndex int, events []engine.Event, sess sessionstore.Session) StateDTO {
	hand := make([]string, len(gs.Hand))
	for i, c := range gs.Hand {
		hand[i] = c.String()
	}

	countsMap := gs.DeckRemainingCounts()
	ordered := make(cardCounts, len(countsMap))
	keys := canonicalCardOrder()
	for _, k := range keys {
		ordered[k] = countsMap[k]
	}

	dto := StateDTO{
		GameID:              gameID,
		Hand:                hand,
		PRemaining:          gs.PRemaining,
		DRemaining:          gs.DRemaining,
		ScoreTotal:          gs.ScoreTotal,
		DeckRemainingCount:  gs.DeckRemainingCount(),
		DeckRemainingCounts: ordered,
		StepIndex:           stepIndex,
		Mode:                gs.Mode,
		TargetScore:         gs.TargetScore,
		Events:              events,
		HintPolicy:          policyLabel(sess.HintBudget),
		JumpPolicy:          policyLabel(sess.JumpBudget),
	}
	if sess.HintBudget != nil {
		dto.HintBudgetTotal = &sess.HintBudget.Total
		dto.HintBudgetRemaining = &sess.HintBudget.Remaining
	}
	if sess.JumpBudget != nil {
		dto.JumpBudgetTotal = &sess.JumpBudget.Total
		dto.JumpBudgetRemaining = &sess.JumpBudget.Remaining
	}
	return dto
}

func policyLabel(b *sessionstore.Budget) string {
	if b == nil {
		return "unlimited"
	}
	if b.Total == 0 {
		return "off"
	}
	return "limited"
}

// canonicalCardOrder returns every card string in spec.md §6's canonical
// order: rank ascending 2->A, suit S->H->D->C. engine.StandardDeck is
// already built in that order.
func canonicalCardOrder() []string {
	cards := engine.StandardDeck()
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

// cardCounts is deck_remaining_counts on the wire. encoding/json sorts a
// plain map's keys as strings, so MarshalJSON writes them in
// canonicalCardOrder instead.
type cardCounts map[string]int

func (c cardCounts) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range canonicalCardOrder() {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(append(strconv.AppendQuote(buf, k), ':'), int64(c[k]), 10)
	}
	return append(buf, '}'), nil
}

// ActionRequest is the wire shape for /game/{id}/step.
type ActionRequest struct {
	Action engine.Action `json:"action"`
}

// StartRequest is the wire shape for /game/start.
type StartRequest struct {
	Seed        *uint64     `json:"seed,omitempty"`
	Mode        engine.Mode `json:"mode"`
	Tier        string      `json:"tier,omitempty"`
	TargetScore *int        `json:"target_score,omitempty"`
}

// JumpRequest is the wire shape for /game/{id}/jump.
type JumpRequest struct {
	StepIndex int `json:"step_index"`
}

// HintResponse is the wire shape for ai_hint (spec.md §4.6 "Outputs").
type HintResponse struct {
	Action         engine.Action `json:"action"`
	ExplanationKey string        `json:"explanation_key"`
	Params         map[string]any `json:"params"`
}
