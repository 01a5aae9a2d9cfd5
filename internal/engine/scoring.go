package engine

// Scoring tables (C4). Two contexts, per spec.md §3/§9 and
// original_source/engine/scoring.py: gameplay (jackpots allowed, shown to
// the player) and model (jackpots collapsed, used only by policy and
// calibration so a rare straight flush never distorts their statistics).

// JackpotPoints is the gameplay-only award for STRAIGHT_FLUSH.
const JackpotPoints = 999_999

// GameplayPoints maps every category (including jackpots) to player-facing
// points.
var GameplayPoints = map[HandCategory]int{
	HighCard:      50,
	OnePair:       70,
	TwoPair:       150,
	ThreeOfAKind:  250,
	Straight:      300,
	Flush:         360,
	FullHouse:     440,
	FourOfAKind:   730,
	StraightFlush: JackpotPoints,
}

// ModelPoints maps every non-jackpot category to policy/calibration points.
// Deliberately has no STRAIGHT_FLUSH entry.
var ModelPoints = map[HandCategory]int{
	HighCard:     50,
	OnePair:      70,
	TwoPair:      150,
	ThreeOfAKind: 250,
	Straight:     300,
	Flush:        360,
	FullHouse:    440,
	FourOfAKind:  730,
}

// PointsForCategoryGameplay looks up gameplay points for a raw category.
func PointsForCategoryGameplay(c HandCategory) int { return GameplayPoints[c] }

// PointsForCategoryModel looks up model-world points, normalizing jackpot
// categories first so callers may pass either a raw or already-normalized
// category.
func PointsForCategoryModel(c HandCategory) int { return ModelPoints[NormalizeModelCategory(c)] }

// ScoreFiveGameplay classifies and scores exactly 5 cards under gameplay
// rules.
func ScoreFiveGameplay(cards [5]Card) (HandCategory, int) {
	cat := Classify(cards)
	return cat, PointsForCategoryGameplay(cat)
}

// ScoreFiveModel classifies and scores exactly 5 cards under model rules,
// returning the normalized category.
func ScoreFiveModel(cards [5]Card) (HandCategory, int) {
	raw := Classify(cards)
	cat := NormalizeModelCategory(raw)
	return cat, PointsForCategoryModel(raw)
}

// ValidateScoringTables is a deployment-time self-check restored from
// original_source/engine/scoring.py validate_scoring_tables: it would catch
// a future category added to AllCategories/ModelCategories without a
// matching points entry. Both cmd/ mains call this once at startup.
func ValidateScoringTables() error {
	for _, c := range AllCategories {
		if _, ok := GameplayPoints[c]; !ok {
			return &CoreError{
				Category:   CategoryInfoSetViolation,
				MessageKey: "error.scoring_table_incomplete",
				Params:     map[string]any{"table": "gameplay", "category": c.String()},
			}
		}
	}
	if len(GameplayPoints) != len(AllCategories) {
		return &CoreError{Category: CategoryInfoSetViolation, MessageKey: "error.scoring_table_incomplete", Params: map[string]any{"table": "gameplay"}}
	}
	for _, c := range ModelCategories {
		if _, ok := ModelPoints[c]; !ok {
			return &CoreError{
				Category:   CategoryInfoSetViolation,
				MessageKey: "error.scoring_table_incomplete",
				Params:     map[string]any{"table": "model", "category": c.String()},
			}
		}
	}
	if len(ModelPoints) != len(ModelCategories) {
		return &CoreError{Category: CategoryInfoSetViolation, MessageKey: "error.scoring_table_incomplete", Params: map[string]any{"table": "model"}}
	}
	if GameplayPoints[HighCard] <= 0 {
		return &CoreError{Category: CategoryInfoSetViolation, MessageKey: "error.scoring_table_invariant", Params: map[string]any{"reason": "high_card_must_be_positive"}}
	}
	return nil
}
