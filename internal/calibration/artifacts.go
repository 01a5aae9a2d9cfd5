package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"pokercore/internal/engine"
	"pokercore/internal/guard"
)

// TraceArtifact is the stage-3 gating record (spec.md §3/§4.8/§4.9).
// Every artifact written by this package carries InfoSet ==
// guard.OrderUnknown; NewTraceArtifact is the only constructor and
// enforces that tag before a caller can get one out to write.
type TraceArtifact struct {
	Seed    uint64         `json:"seed"`
	Mode    engine.Mode    `json:"mode"`
	Tier    string         `json:"tier"`
	InfoSet guard.InfoSet  `json:"info_set"`
	Events  []engine.Event `json:"trace"`
	Passed  bool           `json:"passed"`
	Reason  string         `json:"reason,omitempty"`
}

// NewTraceArtifact builds the artifact for a stage-3 result, rejecting
// construction unless r.InfoSet was actually stamped order_unknown by
// stageThree. A SeedResult that never went through stageThree (or a
// future stage that built a trace from a privileged view) carries the
// zero InfoSet value and is rejected here rather than silently written.
func NewTraceArtifact(r SeedResult) (TraceArtifact, error) {
	if err := guard.RequireOrderUnknown(r.InfoSet); err != nil {
		return TraceArtifact{}, err
	}
	return TraceArtifact{
		Seed:    r.Seed,
		Mode:    r.Mode,
		Tier:    r.Tier,
		InfoSet: guard.OrderUnknown,
		Events:  r.Trace,
		Passed:  r.TracePassed,
		Reason:  r.TraceFailedWhy,
	}, nil
}

// Summary is the run-level metadata written to summary.json
// (spec.md §4.8 "Outputs").
type Summary struct {
	RunID         string         `json:"run_id"`
	EngineVersion string         `json:"engine_version"`
	PRNGID        string         `json:"prng_id"`
	TopK          int            `json:"top_k"`
	Rollouts      int            `json:"rollouts"`
	SeedCount     int            `json:"seed_count"`
	TierCutoffs   []int          `json:"tier_cutoffs"`
	Bucketing     string         `json:"bucketing"`
	CountsByTier  map[string]int `json:"counts_by_tier"`
	PassRate      float64        `json:"pass_rate"`
}

// SeedManifest groups seeds by (mode, tier), the shape
// internal/httpapi's `start` endpoint samples from when a seed is
// omitted (spec.md §6 "Seed input").
type SeedManifest map[string]map[string][]uint64

// LoadSeedManifest reads a seed_manifest.json written by WriteRun, so
// cmd/server can point internal/httpapi at the output of a prior
// calibration run.
func LoadSeedManifest(path string) (SeedManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("calibration: read seed manifest: %w", err)
	}
	var manifest SeedManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("calibration: parse seed manifest: %w", err)
	}
	return manifest, nil
}

// WriteRun persists every artifact for one pipeline run under
// artifacts/pipeline/<run_id>/, mirroring the teacher's store package's
// "one method per persisted shape" style, translated from SQL upserts to
// append-only JSONL writes per spec.md §5.
func WriteRun(baseDir string, cfg Config, results []SeedResult, cutoffs []int) (runID string, err error) {
	runID = uuid.NewString()
	dir := filepath.Join(baseDir, "artifacts", "pipeline", runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("calibration: create run dir: %w", err)
	}

	if err := writeResultsJSONL(dir, results); err != nil {
		return "", err
	}
	if err := writeTraceJSONL(dir, results); err != nil {
		return "", err
	}
	if err := writeSeedManifest(dir, results); err != nil {
		return "", err
	}
	if err := writeSummary(dir, runID, cfg, results, cutoffs); err != nil {
		return "", err
	}
	return runID, nil
}

func writeResultsJSONL(dir string, results []SeedResult) error {
	return writeJSONL(filepath.Join(dir, "calibration_results.jsonl"), results, func(r SeedResult) (any, error) {
		return r, nil
	})
}

func writeTraceJSONL(dir string, results []SeedResult) error {
	passFile, err := os.Create(filepath.Join(dir, "trace_pass.jsonl"))
	if err != nil {
		return fmt.Errorf("calibration: create trace_pass.jsonl: %w", err)
	}
	defer passFile.Close()
	failFile, err := os.Create(filepath.Join(dir, "trace_fail.jsonl"))
	if err != nil {
		return fmt.Errorf("calibration: create trace_fail.jsonl: %w", err)
	}
	defer failFile.Close()

	for _, r := range results {
		artifact, err := NewTraceArtifact(r)
		if err != nil {
			return fmt.Errorf("calibration: %w", err)
		}
		dest := failFile
		if artifact.Passed {
			dest = passFile
		}
		line, err := json.Marshal(artifact)
		if err != nil {
			return err
		}
		if _, err := dest.Write(append(line, '\n')); err != nil {
			return err
		}
	}
	return nil
}

func writeSeedManifest(dir string, results []SeedResult) error {
	manifest := SeedManifest{}
	for _, r := range results {
		mode := string(r.Mode)
		if manifest[mode] == nil {
			manifest[mode] = map[string][]uint64{}
		}
		manifest[mode][r.Tier] = append(manifest[mode][r.Tier], r.Seed)
	}
	return writeJSON(filepath.Join(dir, "seed_manifest.json"), manifest)
}

func writeSummary(dir, runID string, cfg Config, results []SeedResult, cutoffs []int) error {
	counts := map[string]int{}
	passed := 0
	for _, r := range results {
		counts[r.Tier]++
		if r.TracePassed {
			passed++
		}
	}
	rate := 0.0
	if len(results) > 0 {
		rate = float64(passed) / float64(len(results))
	}
	summary := Summary{
		RunID:         runID,
		EngineVersion: engine.EngineVersion,
		PRNGID:        engine.PRNGID,
		TopK:          cfg.TopK,
		Rollouts:      cfg.Rollouts,
		SeedCount:     len(results),
		TierCutoffs:   cutoffs,
		Bucketing:     "equal_frequency",
		CountsByTier:  counts,
		PassRate:      rate,
	}
	return writeJSON(filepath.Join(dir, "summary.json"), summary)
}

func writeJSONL[T any](path string, items []T, project func(T) (any, error)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("calibration: create %s: %w", path, err)
	}
	defer f.Close()
	for _, item := range items {
		v, err := project(item)
		if err != nil {
			return err
		}
		line, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
