package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/peterkuimelis/lanesim/internal/game"
	"github.com/peterkuimelis/lanesim/internal/sim"
)

const timeLayout = "2006-01-02 15:04:05.000000"

// Card stat sides.
const (
	SidePlayer = "player"
	SideEnemy  = "enemy"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// RunRecord is one stored simulation run. Label, Seed, Deck and Opponent
// describe the inputs; the remaining fields are filled from the result.
type RunRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Label     string    `json:"label,omitempty"`
	Seed      int64     `json:"seed"`
	Deck      string    `json:"deck"`
	Opponent  string    `json:"opponent"`

	Rounds         int  `json:"rounds"`
	PlayerWins     int  `json:"player_wins"`
	EnemyWins      int  `json:"enemy_wins"`
	Stalemates     int  `json:"stalemates"`
	MaxTurns       int  `json:"max_turns"`
	Duplicates     int  `json:"duplicates"`
	Iterations     int  `json:"iterations"`
	CircuitBreaker bool `json:"circuit_breaker"`
	Truncated      bool `json:"truncated"`
}

// CardStat is one stored card performance row.
type CardStat struct {
	Side string
	sim.CardPerformance
}

// SaveRun stores rec together with the counts and card summaries of res and
// returns the new run id.
func (db *DB) SaveRun(ctx context.Context, rec RunRecord, res *sim.Result) (string, error) {
	if res == nil {
		return "", fmt.Errorf("save run: nil result")
	}
	rec.ID = uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Rounds = len(res.Rounds)
	rec.PlayerWins = res.Count(sim.PlayerWin)
	rec.EnemyWins = res.Count(sim.EnemyWin)
	rec.Stalemates = res.Count(sim.Stalemate)
	rec.MaxTurns = res.Count(sim.MaxTurnsReached)
	rec.Duplicates = res.DuplicateStates
	rec.Iterations = res.Iterations
	rec.CircuitBreaker = res.CircuitBreakerTripped
	rec.Truncated = res.Truncated

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, label, seed, deck, opponent, rounds,
			player_wins, enemy_wins, stalemates, max_turns, duplicates, iterations,
			circuit_breaker, truncated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, rec.CreatedAt.UTC().Format(timeLayout), rec.Label, rec.Seed, rec.Deck, rec.Opponent,
		rec.Rounds, rec.PlayerWins, rec.EnemyWins, rec.Stalemates, rec.MaxTurns,
		rec.Duplicates, rec.Iterations, rec.CircuitBreaker, rec.Truncated,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO card_stats (run_id, side, position, name, avatar, attack, health,
			abilities, cost, rarity, played, won, lost, damage_dealt, damage_received)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("prepare card stats: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, side := range []struct {
		name  string
		cards []sim.CardPerformance
	}{{SidePlayer, res.PlayerCards}, {SideEnemy, res.EnemyCards}} {
		for i, p := range side.cards {
			id := p.Card
			_, err := stmt.ExecContext(ctx, rec.ID, side.name, i, id.Name, id.Avatar, id.Attack, id.Health,
				id.Abilities.String(), int(id.Cost), id.Rarity.String(),
				p.Played, p.Won, p.Lost, p.DamageDealt, p.DamageReceived)
			if err != nil {
				return "", fmt.Errorf("insert card stat %s: %w", id.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return rec.ID, nil
}

const runColumns = `id, created_at, label, seed, deck, opponent, rounds, player_wins,
	enemy_wins, stalemates, max_turns, duplicates, iterations, circuit_breaker, truncated`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var created string
	err := row.Scan(&rec.ID, &created, &rec.Label, &rec.Seed, &rec.Deck, &rec.Opponent,
		&rec.Rounds, &rec.PlayerWins, &rec.EnemyWins, &rec.Stalemates, &rec.MaxTurns,
		&rec.Duplicates, &rec.Iterations, &rec.CircuitBreaker, &rec.Truncated)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt, err = time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return &rec, nil
}

// GetRun retrieves a run by id.
func (db *DB) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return rec, nil
}

// ListRuns returns up to limit runs, newest first. A limit of 0 or less
// returns every run.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// CardStats returns the stored card summaries of a run, player side first,
// each side in its recorded order.
func (db *DB) CardStats(ctx context.Context, runID string) ([]CardStat, error) {
	if _, err := db.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT side, name, avatar, attack, health, abilities, cost, rarity,
			played, won, lost, damage_dealt, damage_received
		FROM card_stats
		WHERE run_id = ?
		ORDER BY CASE side WHEN 'player' THEN 0 ELSE 1 END, position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("card stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []CardStat
	for rows.Next() {
		var (
			st        CardStat
			abilities string
			cost      int
			rarity    string
		)
		id := &st.Card
		if err := rows.Scan(&st.Side, &id.Name, &id.Avatar, &id.Attack, &id.Health, &abilities, &cost, &rarity,
			&st.Played, &st.Won, &st.Lost, &st.DamageDealt, &st.DamageReceived); err != nil {
			return nil, fmt.Errorf("scan card stat: %w", err)
		}
		if id.Abilities, err = parseAbilities(abilities); err != nil {
			return nil, err
		}
		if id.Rarity, err = game.ParseRarity(rarity); err != nil {
			return nil, err
		}
		id.Cost = game.Cost(cost)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func parseAbilities(s string) (game.AbilitySet, error) {
	var set game.AbilitySet
	if s == "" {
		return set, nil
	}
	for _, name := range strings.Split(s, ",") {
		a, err := game.ParseAbility(name)
		if err != nil {
			return 0, err
		}
		set = set.With(a)
	}
	return set, nil
}
