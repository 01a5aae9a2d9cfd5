package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"pokercore/internal/calibration"
	"pokercore/internal/engine"
)

type RunCmd struct {
	SeedStart   uint64  `long:"seed-start" default:"1" help:"First seed of the batch (inclusive)"`
	SeedCount   int     `long:"seed-count" default:"1000" help:"Number of consecutive seeds to calibrate"`
	Mode        string  `long:"mode" default:"practice" enum:"practice,challenge" help:"Mode seeds are calibrated under"`
	Tiers       int     `long:"tiers" default:"3" help:"Number of difficulty tiers to bucket into"`
	TopK        int     `long:"top-k" default:"10" help:"C9 candidate count per decision point"`
	Rollouts    int     `long:"rollouts" default:"128" help:"C9 rollouts per candidate"`
	Boundary    float64 `long:"boundary-band" default:"0.15" help:"Width of the stage-2 band around each tier cutoff, as a fraction of the stage-1 score spread"`
	Concurrency int     `long:"concurrency" default:"0" help:"Max concurrent seeds (0 = unlimited)"`
	OutDir      string  `long:"out-dir" default:"." help:"Directory artifacts/pipeline/<run_id>/ is created under"`
}

func (c *RunCmd) Run(logger *log.Logger) error {
	seeds := make([]uint64, c.SeedCount)
	for i := range seeds {
		seeds[i] = c.SeedStart + uint64(i)
	}

	cfg := calibration.Config{
		TopK:         c.TopK,
		Rollouts:     c.Rollouts,
		Tiers:        c.Tiers,
		BoundaryBand: c.Boundary,
		Mode:         engine.Mode(c.Mode),
		Concurrency:  c.Concurrency,
	}

	logger.Info("starting calibration run", "seeds", len(seeds), "mode", c.Mode, "tiers", c.Tiers, "top_k", c.TopK, "rollouts", c.Rollouts)

	results, cutoffs, err := calibration.Run(context.Background(), cfg, seeds)
	if err != nil {
		return fmt.Errorf("calibration run: %w", err)
	}

	runID, err := calibration.WriteRun(c.OutDir, cfg, results, cutoffs)
	if err != nil {
		return fmt.Errorf("write artifacts: %w", err)
	}

	passed := 0
	for _, r := range results {
		if r.TracePassed {
			passed++
		}
	}
	logger.Info("calibration run complete", "run_id", runID, "seeds", len(results), "passed", passed, "cutoffs", cutoffs)
	return nil
}

type SummaryCmd struct {
	RunDir string `arg:"" help:"Path to artifacts/pipeline/<run_id>/"`
}

func (c *SummaryCmd) Run(logger *log.Logger) error {
	b, err := os.ReadFile(c.RunDir + "/summary.json")
	if err != nil {
		return fmt.Errorf("read summary.json: %w", err)
	}
	var summary calibration.Summary
	if err := json.Unmarshal(b, &summary); err != nil {
		return fmt.Errorf("parse summary.json: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

var CLI struct {
	LogLevel string     `long:"log-level" default:"info" help:"Log level: debug, info, warn, error"`
	Run      RunCmd     `cmd:"" help:"Run the three-stage calibration pipeline over a seed batch"`
	Summary  SummaryCmd `cmd:"" help:"Print a prior run's summary.json"`
}

func main() {
	_ = godotenv.Load()
	ctx := kong.Parse(&CLI)

	logger := log.New(os.Stderr)
	switch CLI.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	if err := engine.ValidateScoringTables(); err != nil {
		logger.Fatal("scoring table self-check failed", "err", err)
	}

	err := ctx.Run(logger)
	ctx.FatalIfErrorf(err)
}
