package sessionstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokercore/internal/engine"
)

// openTestDB connects to SESSIONSTORE_TEST_DSN and migrates a fresh schema.
// These are integration tests against a real Postgres instance, not unit
// tests; they skip cleanly in any environment without one wired up, the
// same way the pack's own DB-backed suites skip rather than mock pgx.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("SESSIONSTORE_TEST_DSN")
	if dsn == "" {
		t.Skip("SESSIONSTORE_TEST_DSN not set, skipping sessionstore integration test")
	}
	ctx := context.Background()
	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, db))
	t.Cleanup(db.Close)
	return db
}

func TestCreateAndGetSessionRoundTrips(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	target := 400
	hint := &Budget{Total: 3, Remaining: 3}
	id, err := db.CreateSession(ctx, 42, engine.ModeChallenge, "medium", &target, hint, nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := db.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.Seed)
	assert.Equal(t, engine.ModeChallenge, got.Mode)
	assert.Equal(t, "medium", got.Tier)
	require.NotNil(t, got.TargetScore)
	assert.Equal(t, 400, *got.TargetScore)
	require.NotNil(t, got.HintBudget)
	assert.Equal(t, 3, got.HintBudget.Remaining)
	assert.Nil(t, got.JumpBudget)
	assert.Empty(t, got.History)
}

func TestCreateAndGetSessionRoundTripsSeedWithHighBitSet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seed := uint64(1) << 63 // negative as int64; must still round-trip exactly
	id, err := db.CreateSession(ctx, seed, engine.ModePractice, "easy", nil, nil, nil)
	require.NoError(t, err)

	got, err := db.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, seed, got.Seed)
}

func TestGetSessionUnknownIDReturnsErrNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetSession(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendHistoryReplacesStoredHistory(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.CreateSession(ctx, 1, engine.ModePractice, "easy", nil, nil, nil)
	require.NoError(t, err)

	history := []engine.Action{
		{Type: engine.ActionDiscard, SelectedIndices: []int{0, 1}},
		{Type: engine.ActionPlay, SelectedIndices: []int{0, 1, 2, 3, 4}},
	}
	require.NoError(t, db.AppendHistory(ctx, id, history))

	got, err := db.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, history, got.History)
}

func TestSpendBudgetDecrementsAndStopsAtZero(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	jump := &Budget{Total: 1, Remaining: 1}
	id, err := db.CreateSession(ctx, 1, engine.ModePractice, "easy", nil, nil, jump)
	require.NoError(t, err)

	remaining, err := db.SpendBudget(ctx, id, "jump")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	_, err = db.SpendBudget(ctx, id, "jump")
	assert.Error(t, err, "spending an exhausted budget should not decrement below zero")
}

func TestBudgetFromFieldsNilWhenEitherFieldMissing(t *testing.T) {
	total, remaining := 5, 3
	assert.Nil(t, budgetFromFields(nil, &remaining))
	assert.Nil(t, budgetFromFields(&total, nil))
	got := budgetFromFields(&total, &remaining)
	require.NotNil(t, got)
	assert.Equal(t, Budget{Total: 5, Remaining: 3}, *got)
}
