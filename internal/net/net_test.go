package net

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/lanesim/internal/game"
	"github.com/peterkuimelis/lanesim/internal/sim"
	"github.com/peterkuimelis/lanesim/internal/storage"
)

const testLibrary = `
cards:
  - {id: 1, noun: Squirrel, attack: 0, health: 1, cost: 0, rarity: Sacrifice}
  - {id: 2, noun: Stoat, attack: 1, health: 2, cost: 1, rarity: Common}
  - {id: 3, noun: Wolf, attack: 3, health: 2, cost: 2, rarity: Common}
decks:
  - name: starter
    cards:
      - {id: 1, count: 4}
      - {id: 2, count: 3}
      - {id: 3, count: 2}
opponents:
  - name: rush
    moves:
      - {turn: 0, lane: 1, card_id: 2}
      - {turn: 2, card_id: 3}
`

func testRunner(t *testing.T) *Runner {
	t.Helper()
	lib, err := game.ParseLibrary([]byte(testLibrary))
	require.NoError(t, err)
	cfg := sim.DefaultConfig()
	cfg.MaxTurns = 12
	return &Runner{Library: lib, Config: cfg}
}

func startServer(t *testing.T, runner *Runner) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- (&Server{Runner: runner}).Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return ln.Addr().String()
}

func TestSubmitMatchesLocalRun(t *testing.T) {
	runner := testRunner(t)
	addr := startServer(t, runner)
	req := RequestView{Deck: "starter", Opponent: "rush", Seed: 7}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	got, id, err := Submit(ctx, addr, req, nil)
	require.NoError(t, err)
	assert.Empty(t, id, "no store attached")

	local, _, err := runner.Run(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, NewResultView(local), got)
	assert.Equal(t, got.Rounds, len(got.RoundList))
}

func TestSubmitStreamsTrace(t *testing.T) {
	addr := startServer(t, testRunner(t))

	var events []EventView
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, _, err := Submit(ctx, addr, RequestView{Deck: "starter", Opponent: "rush", Seed: 1, Trace: true},
		func(e EventView) { events = append(events, e) })
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Greater(t, res.Rounds, 0)

	var results int
	for _, e := range events {
		if e.Type == "RoundResult" {
			results++
		}
	}
	assert.Equal(t, res.Rounds, results, "one round result event per round")
}

func TestSubmitReportsErrors(t *testing.T) {
	addr := startServer(t, testRunner(t))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _, err := Submit(ctx, addr, RequestView{Deck: "missing"}, nil)
	assert.ErrorContains(t, err, "missing")

	_, _, err = Submit(ctx, addr, RequestView{}, nil)
	assert.ErrorContains(t, err, "deck is required")

	zero := 0
	_, _, err = Submit(ctx, addr, RequestView{Deck: "starter", MaxBranch: &zero}, nil)
	assert.ErrorContains(t, err, "max_branch")
}

func TestServerRejectsUnknownMessage(t *testing.T) {
	addr := startServer(t, testRunner(t))
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, json.NewEncoder(conn).Encode(ClientMessage{Type: "join"}))
	var reply ServerMessage
	require.NoError(t, json.NewDecoder(conn).Decode(&reply))
	assert.Equal(t, TypeError, reply.Type)
	assert.Contains(t, reply.Error, "join")
}

func TestRunnerStoresRuns(t *testing.T) {
	runner := testRunner(t)
	db, err := storage.Open(storage.DefaultConfig(":memory:"))
	require.NoError(t, err)
	defer db.Close()
	runner.Store = db

	res, id, err := runner.Run(context.Background(), RequestView{Deck: "starter", Opponent: "rush", Seed: 3, Label: "net"}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := db.GetRun(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "net", rec.Label)
	assert.Equal(t, len(res.Rounds), rec.Rounds)
}

func TestRequestApply(t *testing.T) {
	turns, branch, breaker := 9, 3, 50
	dedupe := true
	req := RequestView{MaxTurns: &turns, MaxBranch: &branch, CircuitBreaker: &breaker, CheckDuplicates: &dedupe}

	cfg := req.Apply(sim.DefaultConfig())
	assert.Equal(t, 9, cfg.MaxTurns)
	assert.Equal(t, 3, cfg.MaxBranch)
	assert.Equal(t, 50, cfg.CircuitBreaker)
	assert.True(t, cfg.CheckDuplicateStates)
	assert.Equal(t, sim.DefaultConfig().MinActionScore, cfg.MinActionScore)

	assert.Equal(t, sim.DefaultConfig(), RequestView{}.Apply(sim.DefaultConfig()))
}

func TestRunnerEnforcesLimits(t *testing.T) {
	runner := testRunner(t)
	runner.Limits = Limits{MaxTurns: 10, MaxBranch: 2, IterationCap: 500}
	big := 11
	assert.ErrorContains(t, runner.Validate(RequestView{Deck: "starter", MaxTurns: &big}), "max_turns")
	assert.ErrorContains(t, runner.Validate(RequestView{Deck: "starter", MaxBranch: &big}), "max_branch")
	huge := 501
	assert.ErrorContains(t, runner.Validate(RequestView{Deck: "starter", IterationCap: &huge}), "iteration_cap")

	ok := 2
	assert.NoError(t, runner.Validate(RequestView{Deck: "starter", MaxBranch: &ok}))

	zero := 0
	_, cfg, err := runner.Setup(RequestView{Deck: "starter", CircuitBreaker: &zero, IterationCap: &zero})
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.IterationCap, "an unbounded request gets the ceiling")
	assert.Equal(t, 0, cfg.CircuitBreaker)

	_, cfg, err = runner.Setup(RequestView{Deck: "starter"})
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.IterationCap)

	res, _, err := runner.Run(context.Background(), RequestView{Deck: "starter", Opponent: "rush", Seed: 1, CircuitBreaker: &zero}, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Iterations, 500)
}

func TestRunnerRefusesUnboundedSearch(t *testing.T) {
	runner := testRunner(t)
	zero := 0
	err := runner.Validate(RequestView{Deck: "starter", CircuitBreaker: &zero, IterationCap: &zero})
	assert.ErrorContains(t, err, "cannot both be disabled")

	limit := 100
	assert.NoError(t, runner.Validate(RequestView{Deck: "starter", CircuitBreaker: &zero, IterationCap: &limit}))
}
