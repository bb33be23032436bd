package net

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/peterkuimelis/lanesim/internal/game"
	"github.com/peterkuimelis/lanesim/internal/log"
	"github.com/peterkuimelis/lanesim/internal/sim"
	"github.com/peterkuimelis/lanesim/internal/storage"
)

// Runner executes simulation requests against a card library. It is shared
// by the TCP service, the HTTP API and the MCP tools; every call builds its
// own setup, so concurrent calls are independent.
type Runner struct {
	Library  *game.Library
	Config   sim.Config
	HandSize int         // used when a request leaves hand_size unset
	Store    *storage.DB // optional; runs are saved when set
	Limits   Limits
	Logger   *zap.Logger
}

// Limits bounds the search a request may ask for. A zero field is not
// enforced.
type Limits struct {
	MaxTurns  int
	MaxBranch int
	// IterationCap is the largest iteration cap a request may set. It is
	// also applied whenever the merged settings leave the search unbounded.
	IterationCap int
}

// bound applies the iteration ceiling to merged settings.
func (l Limits) bound(cfg sim.Config) sim.Config {
	if l.IterationCap > 0 && (cfg.IterationCap == 0 || cfg.IterationCap > l.IterationCap) {
		cfg.IterationCap = l.IterationCap
	}
	return cfg
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// Validate rejects requests the engine cannot run.
func (r *Runner) Validate(req RequestView) error {
	if req.Deck == "" {
		return fmt.Errorf("deck is required")
	}
	if req.HandSize < 0 {
		return fmt.Errorf("hand_size cannot be negative")
	}
	if req.MaxTurns != nil && *req.MaxTurns < 1 {
		return fmt.Errorf("max_turns must be positive")
	}
	if req.MaxBranch != nil && *req.MaxBranch < 1 {
		return fmt.Errorf("max_branch must be positive")
	}
	if req.CircuitBreaker != nil && *req.CircuitBreaker < 0 {
		return fmt.Errorf("circuit_breaker cannot be negative")
	}
	if req.IterationCap != nil && *req.IterationCap < 0 {
		return fmt.Errorf("iteration_cap cannot be negative")
	}

	lim := r.Limits
	if lim.MaxTurns > 0 && req.MaxTurns != nil && *req.MaxTurns > lim.MaxTurns {
		return fmt.Errorf("max_turns %d exceeds the limit of %d", *req.MaxTurns, lim.MaxTurns)
	}
	if lim.MaxBranch > 0 && req.MaxBranch != nil && *req.MaxBranch > lim.MaxBranch {
		return fmt.Errorf("max_branch %d exceeds the limit of %d", *req.MaxBranch, lim.MaxBranch)
	}
	if lim.IterationCap > 0 && req.IterationCap != nil && *req.IterationCap > lim.IterationCap {
		return fmt.Errorf("iteration_cap %d exceeds the limit of %d", *req.IterationCap, lim.IterationCap)
	}
	if lim.IterationCap == 0 {
		cfg := req.Apply(r.Config)
		if cfg.CircuitBreaker == 0 && cfg.IterationCap == 0 && (req.CircuitBreaker != nil || req.IterationCap != nil) {
			return fmt.Errorf("circuit_breaker and iteration_cap cannot both be disabled")
		}
	}
	return nil
}

// Setup builds the starting position and engine settings for req.
func (r *Runner) Setup(req RequestView) (sim.Setup, sim.Config, error) {
	if err := r.Validate(req); err != nil {
		return sim.Setup{}, sim.Config{}, err
	}
	handSize := req.HandSize
	if handSize == 0 {
		handSize = r.HandSize
	}
	if handSize == 0 {
		handSize = sim.StartingHandSize
	}
	setup, err := sim.BuildSetup(r.Library, req.Deck, req.Opponent, req.Seed, handSize, r.logger())
	if err != nil {
		return sim.Setup{}, sim.Config{}, err
	}
	return setup, r.Limits.bound(req.Apply(r.Config)), nil
}

// Run simulates req, streaming trace events to trace when it is non-nil.
// With a store attached the run is saved and its id returned.
func (r *Runner) Run(ctx context.Context, req RequestView, trace log.EventLogger) (*sim.Result, string, error) {
	setup, cfg, err := r.Setup(req)
	if err != nil {
		return nil, "", err
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	s := sim.New(cfg)
	s.Logger = trace
	res, err := s.Simulate(setup)
	if err != nil {
		return nil, "", err
	}
	r.logger().Info("simulation finished",
		zap.String("deck", req.Deck),
		zap.String("opponent", req.Opponent),
		zap.Int64("seed", req.Seed),
		zap.Int("rounds", len(res.Rounds)),
		zap.Float64("win_rate", res.WinRate()),
		zap.Bool("truncated", res.Truncated))

	if r.Store == nil {
		return res, "", nil
	}
	id, err := r.Store.SaveRun(ctx, storage.RunRecord{
		Label:    req.Label,
		Seed:     req.Seed,
		Deck:     req.Deck,
		Opponent: req.Opponent,
	}, res)
	if err != nil {
		return nil, "", fmt.Errorf("save run: %w", err)
	}
	return res, id, nil
}
