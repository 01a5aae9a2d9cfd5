package engine

const (
	InitialHandSize = 7
	InitialPlays    = 4
	InitialDiscards = 10
)

// GameState is the authoritative state (C5). The ordered deck and draw
// pointer are private; every public observation goes through PublicView,
// which is the only thing internal/policy is allowed to see.
type GameState struct {
	Hand        []Card
	PRemaining  int
	DRemaining  int
	ScoreTotal  int
	deck        Deck // remaining deck suffix, ordered, never exposed directly
	History     []Action
	Seed        uint64
	Mode        Mode
	TargetScore *int // challenge mode only
}

// Mode distinguishes practice (no target score) from challenge (target
// score enforced), per spec.md §6.
type Mode string

const (
	ModePractice  Mode = "practice"
	ModeChallenge Mode = "challenge"
)

// Start constructs the initial state from a seed: shuffle, deal 7, set
// budgets, emit game.started.
func Start(seed uint64, mode Mode, targetScore *int) (*GameState, []Event) {
	full := Shuffle(seed)
	hand := append([]Card{}, full[:InitialHandSize]...)
	remaining := full[InitialHandSize:].Clone()

	gs := &GameState{
		Hand:        hand,
		PRemaining:  InitialPlays,
		DRemaining:  InitialDiscards,
		ScoreTotal:  0,
		deck:        remaining,
		History:     nil,
		Seed:        seed,
		Mode:        mode,
		TargetScore: targetScore,
	}

	ev := newEvent("game.started", MsgGameStarted, map[string]any{"seed": seed, "mode": string(mode)})
	return gs, []Event{ev}
}

// DeckRemainingCount is the public, unordered size of the remaining deck.
func (gs *GameState) DeckRemainingCount() int { return len(gs.deck) }

// DeckRemainingCounts is the public, unordered composition of the
// remaining deck: a counts map keyed by RS card string, iterated in
// canonical deck order on serialization (internal/httpapi is responsible
// for emitting the keys in that order; the map itself carries no order).
func (gs *GameState) DeckRemainingCounts() map[string]int {
	counts := make(map[string]int, DeckSize)
	for _, c := range StandardDeck() {
		counts[c.String()] = 0
	}
	for _, c := range gs.deck {
		counts[c.String()]++
	}
	return counts
}

// IsTerminal reports whether the game has ended (no plays remaining).
func (gs *GameState) IsTerminal() bool { return gs.PRemaining == 0 }

// PublicView is the order-unknown information set: everything a player
// sees, plus remaining-deck counts, never draw order. This is the ONLY
// type internal/policy may construct its decisions from.
type PublicView struct {
	Hand               []Card
	PRemaining         int
	DRemaining         int
	ScoreTotal         int
	DeckRemainingCount int
	DeckCounts         map[Card]int // unordered multiset, keyed by packed Card
	Mode               Mode
	TargetScore        *int
}

// Public projects the current state to its order-unknown view.
func (gs *GameState) Public() PublicView {
	counts := make(map[Card]int, len(gs.deck))
	for _, c := range gs.deck {
		counts[c]++
	}
	return PublicView{
		Hand:               append([]Card{}, gs.Hand...),
		PRemaining:         gs.PRemaining,
		DRemaining:         gs.DRemaining,
		ScoreTotal:         gs.ScoreTotal,
		DeckRemainingCount: len(gs.deck),
		DeckCounts:         counts,
		Mode:               gs.Mode,
		TargetScore:        gs.TargetScore,
	}
}

// PrivilegedView is the ordered-deck information set: full internal state
// including the future draw sequence. Accessible only inside offline
// calibration (internal/rollout), gated by internal/guard.
type PrivilegedView struct {
	Hand       []Card
	PRemaining int
	DRemaining int
	ScoreTotal int
	Deck       Deck // ordered remaining deck, future draws included
	Mode       Mode
	TargetScore *int
}

// Privileged projects the full ordered-deck view. Callers outside
// internal/rollout should never need this; it exists so C9 can run
// deterministic rollouts against the actual future draw sequence.
func (gs *GameState) Privileged() PrivilegedView {
	return PrivilegedView{
		Hand:        append([]Card{}, gs.Hand...),
		PRemaining:  gs.PRemaining,
		DRemaining:  gs.DRemaining,
		ScoreTotal:  gs.ScoreTotal,
		Deck:        gs.deck.Clone(),
		Mode:        gs.Mode,
		TargetScore: gs.TargetScore,
	}
}

// Clone returns an independent deep copy of gs, used by C9 to explore
// candidate actions without mutating the caller's state.
func (gs *GameState) Clone() *GameState {
	cp := *gs
	cp.Hand = append([]Card{}, gs.Hand...)
	cp.deck = gs.deck.Clone()
	cp.History = append([]Action{}, gs.History...)
	return &cp
}
