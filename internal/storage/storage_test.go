package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/lanesim/internal/game"
	"github.com/peterkuimelis/lanesim/internal/sim"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DefaultConfig(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleResult() *sim.Result {
	raven := game.CardDefinition{NameNoun: "Raven", NameAdjective: "Black", Attack: 2, Health: 3,
		Abilities: game.NewAbilitySet(game.AbilityAgile), Cost: game.CostTwo, Rarity: game.RarityUncommon}
	squirrel := game.CardDefinition{NameNoun: "Squirrel", Health: 1, Rarity: game.RaritySacrifice}
	adder := game.CardDefinition{NameNoun: "Adder", Attack: 1, Health: 1,
		Abilities: game.NewAbilitySet(game.AbilityLethal), Cost: game.CostTwo, Rarity: game.RarityRare}

	return &sim.Result{
		Rounds: []sim.Round{
			{Turns: 4, Result: sim.PlayerWin, EnemyDamage: 6},
			{Turns: 6, Result: sim.EnemyWin, PlayerDamage: 5},
			{Turns: 20, Result: sim.MaxTurnsReached},
		},
		PlayerCards: []sim.CardPerformance{
			{Card: raven.Identity(), Played: 3, Won: 1, Lost: 1, DamageDealt: 8, DamageReceived: 2},
			{Card: squirrel.Identity(), Played: 1},
		},
		EnemyCards: []sim.CardPerformance{
			{Card: adder.Identity(), Played: 3, Won: 1, Lost: 1, DamageDealt: 5, DamageReceived: 3},
		},
		DuplicateStates: 7,
		Iterations:      42,
		Truncated:       true,
	}
}

func TestOpenMemory(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, db.Ping())
	assert.NotNil(t, db.Conn())

	runs, err := db.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestOpenWithNilConfig(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)
}

func TestSaveAndGetRun(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	id, err := db.SaveRun(ctx, RunRecord{Label: "smoke", Seed: 9, Deck: "starter", Opponent: "rush"}, sampleResult())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := db.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "smoke", rec.Label)
	assert.Equal(t, int64(9), rec.Seed)
	assert.Equal(t, "starter", rec.Deck)
	assert.Equal(t, "rush", rec.Opponent)
	assert.Equal(t, 3, rec.Rounds)
	assert.Equal(t, 1, rec.PlayerWins)
	assert.Equal(t, 1, rec.EnemyWins)
	assert.Equal(t, 0, rec.Stalemates)
	assert.Equal(t, 1, rec.MaxTurns)
	assert.Equal(t, 7, rec.Duplicates)
	assert.Equal(t, 42, rec.Iterations)
	assert.False(t, rec.CircuitBreaker)
	assert.True(t, rec.Truncated)
	assert.WithinDuration(t, time.Now(), rec.CreatedAt, time.Minute)
}

func TestCardStatsRoundTrip(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	res := sampleResult()

	id, err := db.SaveRun(ctx, RunRecord{Deck: "starter"}, res)
	require.NoError(t, err)

	stats, err := db.CardStats(ctx, id)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, SidePlayer, stats[0].Side)
	assert.Equal(t, res.PlayerCards[0], stats[0].CardPerformance)
	assert.Equal(t, res.PlayerCards[1], stats[1].CardPerformance)
	assert.Equal(t, SideEnemy, stats[2].Side)
	assert.Equal(t, res.EnemyCards[0], stats[2].CardPerformance)
}

func TestGetUnknownRun(t *testing.T) {
	db := openMemory(t)
	_, err := db.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.CardStats(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := db.SaveRun(ctx, RunRecord{CreatedAt: base.Add(time.Duration(i) * time.Hour)}, sampleResult())
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := db.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.True(t, runs[0].CreatedAt.Equal(base.Add(2*time.Hour)))

	all, err := db.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFileDatabaseMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "lanesim.db")

	db, err := Open(DefaultConfig(path))
	require.NoError(t, err)
	id, err := db.SaveRun(context.Background(), RunRecord{Deck: "starter"}, sampleResult())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening applies no further migrations and keeps the data.
	db, err = Open(DefaultConfig(path))
	require.NoError(t, err)
	defer db.Close()
	rec, err := db.GetRun(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "starter", rec.Deck)

	mgr, err := NewMigrationManager(path)
	require.NoError(t, err)
	defer mgr.Close()
	version, dirty, err := mgr.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}
