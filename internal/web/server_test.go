package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/lanesim/internal/game"
	lanenet "github.com/peterkuimelis/lanesim/internal/net"
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

func newTestServer(t *testing.T, withStore bool, every time.Duration, burst int) (*Server, *httptest.Server) {
	t.Helper()
	lib, err := game.ParseLibrary([]byte(testLibrary))
	require.NoError(t, err)
	cfg := sim.DefaultConfig()
	cfg.MaxTurns = 12
	runner := &lanenet.Runner{Library: lib, Config: cfg}
	if withStore {
		db, err := storage.Open(storage.DefaultConfig(":memory:"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		runner.Store = db
	}
	srv := NewServer(runner, every, burst, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func postSimulate(t *testing.T, url string, req lanenet.RequestView) (*http.Response, SimulateResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(url+"/api/simulate", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out SimulateResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestLibraryEndpoints(t *testing.T) {
	_, ts := newTestServer(t, false, 0, 1)

	var cards []lanenet.CardView
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/cards", &cards))
	assert.Len(t, cards, 3)

	var decks []DeckInfo
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/decks", &decks))
	require.Len(t, decks, 1)
	assert.Equal(t, DeckInfo{Number: 1, Name: "starter", Cards: []string{"Squirrel", "Stoat", "Wolf"}, Creatures: 5, Sacrifices: 4}, decks[0])

	var opponents []OpponentInfo
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/opponents", &opponents))
	require.Len(t, opponents, 1)
	assert.Equal(t, "rush", opponents[0].Name)
	assert.Equal(t, []string{"turn 0 lane 1: card #2", "turn 2 lane random: card #3"}, opponents[0].Moves)
}

func TestSimulateAndFetchRun(t *testing.T) {
	_, ts := newTestServer(t, true, 0, 1)

	resp, out := postSimulate(t, ts.URL, lanenet.RequestView{Deck: "starter", Opponent: "rush", Seed: 4})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, out.RunID)
	require.NotNil(t, out.Result)

	var runs []storage.RunRecord
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/runs", &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, out.RunID, runs[0].ID)

	var detail RunDetail
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/runs/"+out.RunID, &detail))
	assert.Equal(t, out.Result.Rounds, detail.Run.Rounds)
	assert.Len(t, detail.PlayerCards, len(out.Result.PlayerCards))
	assert.Len(t, detail.EnemyCards, len(out.Result.EnemyCards))

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/runs/nope", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/runs?limit=x", nil))
}

func TestRunsWithoutStore(t *testing.T) {
	_, ts := newTestServer(t, false, 0, 1)
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/runs", nil))

	resp, out := postSimulate(t, ts.URL, lanenet.RequestView{Deck: "starter", Seed: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, out.RunID)
}

func TestSimulateErrors(t *testing.T) {
	_, ts := newTestServer(t, false, 0, 1)

	resp, _ := postSimulate(t, ts.URL, lanenet.RequestView{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	zero := 0
	resp, _ = postSimulate(t, ts.URL, lanenet.RequestView{Deck: "starter", CircuitBreaker: &zero, IterationCap: &zero})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postSimulate(t, ts.URL, lanenet.RequestView{Deck: "missing"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	raw, err := http.Post(ts.URL+"/api/simulate", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestSimulateRateLimited(t *testing.T) {
	_, ts := newTestServer(t, false, time.Hour, 1)

	resp, _ := postSimulate(t, ts.URL, lanenet.RequestView{Deck: "starter", Seed: 1})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = postSimulate(t, ts.URL, lanenet.RequestView{Deck: "starter", Seed: 1})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestWebSocketStreamsTrace(t *testing.T) {
	_, ts := newTestServer(t, false, 0, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()
	conn.SetReadLimit(1 << 22)

	req := lanenet.RequestView{Deck: "starter", Opponent: "rush", Seed: 2}
	data, err := json.Marshal(lanenet.ClientMessage{Type: lanenet.TypeSimulate, Request: &req})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))

	var events int
	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg lanenet.ServerMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == lanenet.TypeEvent {
			events++
			continue
		}
		require.Equal(t, lanenet.TypeResult, msg.Type, msg.Error)
		require.NotNil(t, msg.Result)
		assert.Greater(t, msg.Result.Rounds, 0)
		break
	}
	assert.Greater(t, events, 0)
}

func TestWebSocketRejectsBadMessage(t *testing.T) {
	_, ts := newTestServer(t, false, 0, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"join"}`)))
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg lanenet.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, lanenet.TypeError, msg.Type)
}
