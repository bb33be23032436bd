package analysis

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/peterkuimelis/lanesim/internal/game"
	"github.com/peterkuimelis/lanesim/internal/sim"
)

// levelSeedStride separates the seed ranges of consecutive levels.
const levelSeedStride = 7919

// BatchSpec describes a balance run: Games simulations for every level in
// [MinLevel, MaxLevel], each against a freshly generated opponent.
type BatchSpec struct {
	Pool     *game.CardPool
	Params   GeneratorParams
	MinLevel int
	MaxLevel int
	Games    int
	Seed     int64
	HandSize int
	Config   sim.Config
}

// LevelSummary is the batch total for one level.
type LevelSummary struct {
	Level   int     `json:"level"`
	Summary Summary `json:"summary"`
	WinRate float64 `json:"win_rate"`
}

type batchJob struct {
	level int
	game  int
}

// JobSeed is the seed used for one (level, game) job, so a job's outcome
// does not depend on which worker ran it.
func JobSeed(base int64, level, index int) int64 {
	return base + int64(level)*levelSeedStride + int64(index)
}

// RunBatch simulates every job of spec on workers goroutines and returns the
// per-level totals in level order. The first simulation error cancels the
// remaining jobs. Cancelling ctx stops the batch between simulations.
func RunBatch(ctx context.Context, spec BatchSpec, workers int, logger *zap.Logger) ([]LevelSummary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec.MaxLevel < spec.MinLevel {
		return nil, fmt.Errorf("invalid level range %d..%d", spec.MinLevel, spec.MaxLevel)
	}
	if spec.Games < 1 {
		return nil, fmt.Errorf("games must be positive: %d", spec.Games)
	}
	if workers < 1 {
		workers = 1
	}
	handSize := spec.HandSize
	if handSize <= 0 {
		handSize = sim.StartingHandSize
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	summaries := make(map[int]*Summary)
	for level := spec.MinLevel; level <= spec.MaxLevel; level++ {
		summaries[level] = &Summary{}
	}

	var (
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
	)
	jobs := make(chan batchJob)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobs {
				res, err := runJob(spec, job, handSize)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("level %d game %d: %w", job.level, job.game, err)
						cancel()
					}
					mu.Unlock()
					continue
				}
				summaries[job.level].Add(res)
				mu.Unlock()
				logger.Debug("batch game finished",
					zap.Int("worker", workerID),
					zap.Int("level", job.level),
					zap.Int("game", job.game),
					zap.Int("rounds", len(res.Rounds)))
			}
		}(w)
	}

produce:
	for level := spec.MinLevel; level <= spec.MaxLevel; level++ {
		for g := 0; g < spec.Games; g++ {
			select {
			case jobs <- batchJob{level: level, game: g}:
			case <-ctx.Done():
				break produce
			}
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]LevelSummary, 0, len(summaries))
	for level := spec.MinLevel; level <= spec.MaxLevel; level++ {
		s := *summaries[level]
		out = append(out, LevelSummary{Level: level, Summary: s, WinRate: s.WinRate()})
		logger.Info("level summary", zap.Int("level", level), zap.Stringer("summary", s))
	}
	return out, nil
}

func runJob(spec BatchSpec, job batchJob, handSize int) (*sim.Result, error) {
	rnd := game.NewRandom(JobSeed(spec.Seed, job.level, job.game))
	creatures, sacrifices := DefaultPlayerDeck(spec.Pool)
	game.Shuffle(rnd, creatures)
	game.Shuffle(rnd, sacrifices)

	setup := sim.Setup{
		StartingHandSize: handSize,
		Creatures:        creatures,
		Sacrifices:       sacrifices,
		Opponent:         GenerateOpponent(spec.Pool, job.level, spec.Params, rnd, nil),
	}
	return sim.New(spec.Config).Simulate(setup)
}
