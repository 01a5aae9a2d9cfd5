// Package sessionstore persists the adapter-owned session mapping
// game_id -> (seed, history, budgets, mode, tier) (spec.md §5 "Session
// identity"). The core never generates or depends on game_id; this
// package is where that identity lives.
package sessionstore

import (
	"context"
	"embed"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pokercore/internal/engine"
)

//go:embed schema.sql
var schema embed.FS

// DB wraps the session-store connection pool, mirroring the teacher's
// DB { *pgxpool.Pool } embedding so the query methods below read like
// ordinary pool methods.
type DB struct{ *pgxpool.Pool }

func Open(ctx context.Context, dsn string) (*DB, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close() { db.Pool.Close() }

func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

// Session is the full persisted record for one game_id.
type Session struct {
	GameID      string
	Seed        uint64
	Mode        engine.Mode
	Tier        string
	TargetScore *int
	History     []engine.Action
	HintBudget  *Budget
	JumpBudget  *Budget
}

// Budget is a limited policy's remaining/total counter (spec.md §6
// "Policies ... if limited, include _budget_total and _budget_remaining").
type Budget struct {
	Total     int
	Remaining int
}

var ErrNotFound = errors.New("sessionstore: game not found")

// CreateSession inserts a new session row and returns its game_id. seed is
// stored bit-reinterpreted as int64: schema.sql's seed column is a signed
// bigint, and spec.md §3's seed domain is the full unsigned 64-bit range, so
// passing the uint64 straight through would either fail pgx's encoder or get
// silently reinterpreted for any seed with bit 63 set. GetSession reverses
// the same reinterpretation on read.
func (db *DB) CreateSession(ctx context.Context, seed uint64, mode engine.Mode, tier string, targetScore *int, hintBudget, jumpBudget *Budget) (string, error) {
	gameID := uuid.NewString()
	historyJSON, err := json.Marshal([]engine.Action{})
	if err != nil {
		return "", err
	}
	_, err = db.Exec(ctx, `
        INSERT INTO sessions(game_id, seed, mode, tier, target_score, history,
                              hint_budget_total, hint_budget_remaining,
                              jump_budget_total, jump_budget_remaining)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    `, gameID, int64(seed), string(mode), tier, targetScore, historyJSON,
		budgetField(hintBudget, true), budgetField(hintBudget, false),
		budgetField(jumpBudget, true), budgetField(jumpBudget, false))
	if err != nil {
		return "", err
	}
	return gameID, nil
}

func budgetField(b *Budget, total bool) any {
	if b == nil {
		return nil
	}
	if total {
		return b.Total
	}
	return b.Remaining
}

// GetSession loads a session by game_id.
func (db *DB) GetSession(ctx context.Context, gameID string) (Session, error) {
	var s Session
	var mode, tier string
	var seed int64
	var historyJSON []byte
	var hintTotal, hintRemaining, jumpTotal, jumpRemaining *int
	err := db.QueryRow(ctx, `
        SELECT game_id, seed, mode, tier, target_score, history,
               hint_budget_total, hint_budget_remaining,
               jump_budget_total, jump_budget_remaining
          FROM sessions WHERE game_id = $1
    `, gameID).Scan(&s.GameID, &seed, &mode, &tier, &s.TargetScore, &historyJSON,
		&hintTotal, &hintRemaining, &jumpTotal, &jumpRemaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	s.Seed = uint64(seed)
	s.Mode = engine.Mode(mode)
	s.Tier = tier
	if err := json.Unmarshal(historyJSON, &s.History); err != nil {
		return Session{}, err
	}
	s.HintBudget = budgetFromFields(hintTotal, hintRemaining)
	s.JumpBudget = budgetFromFields(jumpTotal, jumpRemaining)
	return s, nil
}

func budgetFromFields(total, remaining *int) *Budget {
	if total == nil || remaining == nil {
		return nil
	}
	return &Budget{Total: *total, Remaining: *remaining}
}

// AppendHistory persists a history truncated/extended state (covers both
// a normal apply and a jump's truncate-then-append), replacing the
// stored history wholesale since sessions are single-writer per
// spec.md §5's "apply calls are strictly serialized."
func (db *DB) AppendHistory(ctx context.Context, gameID string, history []engine.Action) error {
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `UPDATE sessions SET history = $2 WHERE game_id = $1`, gameID, historyJSON)
	return err
}

// SpendBudget decrements a hint or jump budget by one, returning the
// remaining count. Callers check remaining > 0 before spending per
// spec.md §7's hint_budget_exhausted / jump_budget_exhausted errors.
func (db *DB) SpendBudget(ctx context.Context, gameID, kind string) (int, error) {
	col := "hint_budget_remaining"
	if kind == "jump" {
		col = "jump_budget_remaining"
	}
	var remaining int
	err := db.QueryRow(ctx, `
        UPDATE sessions
           SET `+col+` = `+col+` - 1
         WHERE game_id = $1 AND `+col+` > 0
     RETURNING `+col, gameID).Scan(&remaining)
	return remaining, err
}
