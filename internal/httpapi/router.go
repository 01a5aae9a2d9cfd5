// Package httpapi is the runtime HTTP adapter (spec.md §6): it owns
// game_id, session persistence, and error-category-to-status mapping,
// none of which the core depends on. Routing uses chi, which the
// teacher's own go.mod lists but never imports (its router.go hand-rolls
// net/http.ServeMux); this package is where that dependency actually
// earns its place, with path params for {id} and a request-logging
// middleware.
package httpapi

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pokercore/internal/calibration"
	"pokercore/internal/engine"
	"pokercore/internal/policy"
	"pokercore/internal/sessionstore"
)

// Server holds the adapter's dependencies. revealDeckCounts is set to
// true by NewServer (SPEC_FULL.md §5 Open Question #3) and is not read
// anywhere: every state response includes deck_remaining_counts whatever
// its value.
type Server struct {
	DB                *sessionstore.DB
	Logger            *log.Logger
	revealDeckCounts  bool
	DefaultHintBudget *sessionstore.Budget
	DefaultJumpBudget *sessionstore.Budget
	// SeedManifest is the (mode, tier) -> seeds pool a seedless /game/start
	// samples from (spec.md §6 "Seed input"). Left nil by NewServer; a
	// deployment that never loaded a calibration run's seed_manifest.json
	// simply cannot serve seedless starts, per error.seed_manifest_missing.
	SeedManifest calibration.SeedManifest
}

// NewServer constructs the adapter with deck-count reveal on by default.
func NewServer(db *sessionstore.DB, logger *log.Logger) *Server {
	return &Server{DB: db, Logger: logger, revealDeckCounts: true}
}

// Router builds the chi mux serving spec.md §6's endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Post("/game/start", s.handleStart)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Post("/step", s.handleStep)
		r.Post("/jump", s.handleJump)
		r.Get("/hint", s.handleHint)
		r.Get("/ai_trace", s.handleTrace)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.Logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCoreError(w, &engine.CoreError{Category: engine.CategoryContractViolation, MessageKey: "error.invalid_action_shape"})
		return
	}
	if req.Mode != engine.ModePractice && req.Mode != engine.ModeChallenge {
		writeJSON(w, 422, ErrorResponse{MessageKey: "error.unknown_mode", Params: map[string]any{"mode": req.Mode}})
		return
	}

	var seed uint64
	if req.Seed != nil {
		seed = *req.Seed
	} else {
		sampled, ok := s.sampleSeed(req.Mode, req.Tier)
		if !ok {
			writeCoreError(w, &engine.CoreError{
				Category:   engine.CategoryContractViolation,
				MessageKey: "error.seed_manifest_missing",
				Params:     map[string]any{"mode": req.Mode, "tier": req.Tier},
			})
			return
		}
		seed = sampled
	}

	gs, events := engine.Start(seed, req.Mode, req.TargetScore)

	gameID, err := s.DB.CreateSession(r.Context(), seed, req.Mode, req.Tier, req.TargetScore, s.DefaultHintBudget, s.DefaultJumpBudget)
	if err != nil {
		s.Logger.Error("create session failed", "err", err)
		writeJSON(w, 500, ErrorResponse{MessageKey: "error.session_store_unavailable"})
		return
	}
	sess, err := s.DB.GetSession(r.Context(), gameID)
	if err != nil {
		writeJSON(w, 500, ErrorResponse{MessageKey: "error.session_store_unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, toStateDTO(gameID, gs, 0, events, sess))
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")
	sess, gs, cerr := s.loadState(r, gameID)
	if cerr != nil {
		writeCoreError(w, cerr)
		return
	}

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCoreError(w, &engine.CoreError{Category: engine.CategoryContractViolation, MessageKey: "error.invalid_action_shape"})
		return
	}

	next, events, cerr := engine.Apply(gs, req.Action)
	if cerr != nil {
		writeCoreError(w, cerr)
		return
	}
	if err := s.DB.AppendHistory(r.Context(), gameID, next.History); err != nil {
		s.Logger.Error("append history failed", "err", err)
		writeJSON(w, 500, ErrorResponse{MessageKey: "error.session_store_unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, toStateDTO(gameID, next, len(next.History), events, sess))
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")
	sess, _, cerr := s.loadState(r, gameID)
	if cerr != nil {
		writeCoreError(w, cerr)
		return
	}
	if sess.JumpBudget != nil && sess.JumpBudget.Remaining <= 0 {
		writeCoreError(w, &engine.CoreError{Category: engine.CategorySessionState, MessageKey: "error.jump_budget_exhausted"})
		return
	}

	var req JumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCoreError(w, &engine.CoreError{Category: engine.CategoryContractViolation, MessageKey: "error.invalid_action_shape"})
		return
	}

	gs, events, cerr := engine.Jump(sess.Seed, sess.Mode, sess.TargetScore, sess.History, req.StepIndex)
	if cerr != nil {
		writeCoreError(w, cerr)
		return
	}
	if sess.JumpBudget != nil {
		if _, err := s.DB.SpendBudget(r.Context(), gameID, "jump"); err != nil {
			s.Logger.Error("spend jump budget failed", "err", err)
		}
	}
	if err := s.DB.AppendHistory(r.Context(), gameID, sess.History[:req.StepIndex]); err != nil {
		s.Logger.Error("append history failed", "err", err)
	}

	writeJSON(w, http.StatusOK, toStateDTO(gameID, gs, req.StepIndex, events, sess))
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")
	sess, gs, cerr := s.loadState(r, gameID)
	if cerr != nil {
		writeCoreError(w, cerr)
		return
	}
	if sess.HintBudget != nil && sess.HintBudget.Remaining <= 0 {
		writeCoreError(w, &engine.CoreError{Category: engine.CategorySessionState, MessageKey: "error.hint_budget_exhausted"})
		return
	}
	if sess.HintBudget != nil {
		if _, err := s.DB.SpendBudget(r.Context(), gameID, "hint"); err != nil {
			s.Logger.Error("spend hint budget failed", "err", err)
		}
	}

	best := policy.Hint(gs.Public())
	writeJSON(w, http.StatusOK, HintResponse{
		Action:         best.Action,
		ExplanationKey: engine.MsgAIReasonHeuristic,
		Params:         map[string]any{"ev": best.EV},
	})
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")
	_, gs, cerr := s.loadState(r, gameID)
	if cerr != nil {
		writeCoreError(w, cerr)
		return
	}
	writeJSON(w, http.StatusOK, policy.Trace(gs.Public()))
}

// sampleSeed draws uniformly from s.SeedManifest[mode][tier] per
// spec.md §6's seedless-start rule. The draw itself doesn't need to be
// reproducible — only the game the chosen seed then deals does — so it
// uses math/rand rather than the engine's own determinism contract.
func (s *Server) sampleSeed(mode engine.Mode, tier string) (uint64, bool) {
	if s.SeedManifest == nil {
		return 0, false
	}
	byTier, ok := s.SeedManifest[string(mode)]
	if !ok {
		return 0, false
	}
	seeds, ok := byTier[tier]
	if !ok || len(seeds) == 0 {
		return 0, false
	}
	return seeds[rand.Intn(len(seeds))], true
}

// loadState replays a session's history to its current GameState. The
// adapter never persists a GameState object directly, only (seed,
// history, budgets) — engine.Replay is the only place state is ever
// materialized, matching spec.md §8's replay-equivalence invariant.
func (s *Server) loadState(r *http.Request, gameID string) (sessionstore.Session, *engine.GameState, *engine.CoreError) {
	sess, err := s.DB.GetSession(r.Context(), gameID)
	if err != nil {
		return sessionstore.Session{}, nil, &engine.CoreError{
			Category:   engine.CategoryContractViolation,
			MessageKey: "error.unknown_game_id",
			Params:     map[string]any{"game_id": gameID},
		}
	}
	gs, _, cerr := engine.Replay(sess.Seed, sess.Mode, sess.TargetScore, sess.History)
	if cerr != nil {
		return sess, nil, cerr
	}
	return sess, gs, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeCoreError(w http.ResponseWriter, err *engine.CoreError) {
	writeJSON(w, statusFor(err), toErrorResponse(err))
}
