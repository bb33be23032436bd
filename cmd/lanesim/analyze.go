package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/peterkuimelis/lanesim/internal/analysis"
	"github.com/peterkuimelis/lanesim/internal/game"
)

func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	c := addCommon(fs)
	minLevel := fs.Int("min-level", 1, "first level to simulate")
	maxLevel := fs.Int("max-level", 10, "last level to simulate")
	games := fs.Int("games", 0, "games per level (0 uses the config)")
	workers := fs.Int("workers", 0, "parallel simulations (0 uses the config)")
	seed := fs.Int64("seed", 1, "base seed")
	fs.Parse(args)

	e, err := c.load(false)
	if err != nil {
		return err
	}
	defer e.close()

	params, err := analysis.LoadGeneratorParams(e.lib)
	if err != nil {
		return err
	}
	spec := analysis.BatchSpec{
		Pool:     e.lib.Pool,
		Params:   params,
		MinLevel: *minLevel,
		MaxLevel: *maxLevel,
		Games:    *games,
		Seed:     *seed,
		HandSize: e.cfg.Simulator.StartingHandSize,
		Config:   e.cfg.Simulator.Options(),
	}
	if spec.Games == 0 {
		spec.Games = e.cfg.Analysis.Games
	}
	n := *workers
	if n == 0 {
		n = e.cfg.Analysis.Workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e.logger.Info("starting batch",
		zap.Int("min_level", spec.MinLevel),
		zap.Int("max_level", spec.MaxLevel),
		zap.Int("games", spec.Games),
		zap.Int("workers", n))
	levels, err := analysis.RunBatch(ctx, spec, n, e.logger)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(levels)
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	c := addCommon(fs)
	level := fs.Int("level", 1, "difficulty level")
	seed := fs.Int64("seed", 1, "generator seed")
	name := fs.String("name", "", "script name (default level-N)")
	fs.Parse(args)

	e, err := c.load(false)
	if err != nil {
		return err
	}
	defer e.close()

	params, err := analysis.LoadGeneratorParams(e.lib)
	if err != nil {
		return err
	}
	moves := analysis.GenerateMoves(e.lib.Pool, *level, params, game.NewRandom(*seed), e.logger)
	if len(moves) == 0 {
		return fmt.Errorf("card pool has no playable cards")
	}
	if *name == "" {
		*name = fmt.Sprintf("level-%d", *level)
	}

	out := struct {
		Opponents []game.OpponentEntry `yaml:"opponents"`
	}{Opponents: []game.OpponentEntry{analysis.ScriptEntry(*name, moves)}}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode script: %w", err)
	}
	return enc.Close()
}
