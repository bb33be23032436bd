package net

import (
	"github.com/peterkuimelis/lanesim/internal/game"
	"github.com/peterkuimelis/lanesim/internal/log"
	"github.com/peterkuimelis/lanesim/internal/sim"
)

// Message types for the JSON-lines protocol over TCP. The same views are
// served by the HTTP API and the MCP tools.

// Message type names.
const (
	TypeSimulate = "simulate"
	TypeEvent    = "event"
	TypeResult   = "result"
	TypeError    = "error"
)

// --- Server → Client messages ---

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type string `json:"type"`

	// For "event"
	Event *EventView `json:"event,omitempty"`

	// For "result"
	Result *ResultView `json:"result,omitempty"`
	RunID  string      `json:"run_id,omitempty"`

	// For "error"
	Error string `json:"error,omitempty"`
}

// EventView is one trace event.
type EventView struct {
	Seq     int    `json:"seq"`
	Branch  int    `json:"branch"`
	Turn    int    `json:"turn"`
	Side    string `json:"side,omitempty"`
	Type    string `json:"type"`
	Card    string `json:"card,omitempty"`
	Details string `json:"details"`
}

func NewEventView(e log.GameEvent) EventView {
	side := ""
	if e.Side != log.SideNone {
		side = e.Side.String()
	}
	return EventView{
		Seq:     e.Seq,
		Branch:  e.Branch,
		Turn:    e.Turn,
		Side:    side,
		Type:    e.Type.String(),
		Card:    e.Card,
		Details: e.Details,
	}
}

// CardView describes a pool card.
type CardView struct {
	ID        int      `json:"id,omitempty"`
	Name      string   `json:"name"`
	Attack    int      `json:"attack"`
	Health    int      `json:"health"`
	Cost      int      `json:"cost"`
	Rarity    string   `json:"rarity"`
	Abilities []string `json:"abilities,omitempty"`
}

func NewCardView(c *game.CardDefinition) CardView {
	return CardView{
		ID:        c.ID,
		Name:      c.Name(),
		Attack:    c.Attack,
		Health:    c.Health,
		Cost:      int(c.Cost),
		Rarity:    c.Rarity.String(),
		Abilities: abilityNames(c.Abilities),
	}
}

func abilityNames(s game.AbilitySet) []string {
	var names []string
	for _, a := range s.List() {
		names = append(names, a.String())
	}
	return names
}

// RoundView is one finished branch.
type RoundView struct {
	Turns        int    `json:"turns"`
	Result       string `json:"result"`
	PlayerDamage int    `json:"player_damage"`
	EnemyDamage  int    `json:"enemy_damage"`
}

// CardStatView is one row of a performance summary.
type CardStatView struct {
	Name           string   `json:"name"`
	Attack         int      `json:"attack"`
	Health         int      `json:"health"`
	Cost           int      `json:"cost"`
	Rarity         string   `json:"rarity"`
	Abilities      []string `json:"abilities,omitempty"`
	Played         int      `json:"played"`
	Won            int      `json:"won"`
	Lost           int      `json:"lost"`
	DamageDealt    int      `json:"damage_dealt"`
	DamageReceived int      `json:"damage_received"`
}

func NewCardStatView(p sim.CardPerformance) CardStatView {
	return CardStatView{
		Name:           p.Card.Name,
		Attack:         p.Card.Attack,
		Health:         p.Card.Health,
		Cost:           int(p.Card.Cost),
		Rarity:         p.Card.Rarity.String(),
		Abilities:      abilityNames(p.Card.Abilities),
		Played:         p.Played,
		Won:            p.Won,
		Lost:           p.Lost,
		DamageDealt:    p.DamageDealt,
		DamageReceived: p.DamageReceived,
	}
}

// ResultView is the JSON form of a simulation result.
type ResultView struct {
	Rounds                int            `json:"rounds"`
	PlayerWins            int            `json:"player_wins"`
	EnemyWins             int            `json:"enemy_wins"`
	Stalemates            int            `json:"stalemates"`
	MaxTurns              int            `json:"max_turns"`
	WinRate               float64        `json:"win_rate"`
	DuplicateStates       int            `json:"duplicate_states"`
	Iterations            int            `json:"iterations"`
	CircuitBreakerTripped bool           `json:"circuit_breaker_tripped"`
	Truncated             bool           `json:"truncated"`
	RoundList             []RoundView    `json:"round_list,omitempty"`
	PlayerCards           []CardStatView `json:"player_cards,omitempty"`
	EnemyCards            []CardStatView `json:"enemy_cards,omitempty"`
}

func NewResultView(res *sim.Result) *ResultView {
	v := &ResultView{
		Rounds:                len(res.Rounds),
		PlayerWins:            res.Count(sim.PlayerWin),
		EnemyWins:             res.Count(sim.EnemyWin),
		Stalemates:            res.Count(sim.Stalemate),
		MaxTurns:              res.Count(sim.MaxTurnsReached),
		WinRate:               res.WinRate(),
		DuplicateStates:       res.DuplicateStates,
		Iterations:            res.Iterations,
		CircuitBreakerTripped: res.CircuitBreakerTripped,
		Truncated:             res.Truncated,
	}
	for _, r := range res.Rounds {
		v.RoundList = append(v.RoundList, RoundView{
			Turns:        r.Turns,
			Result:       r.Result.String(),
			PlayerDamage: r.PlayerDamage,
			EnemyDamage:  r.EnemyDamage,
		})
	}
	for _, p := range res.PlayerCards {
		v.PlayerCards = append(v.PlayerCards, NewCardStatView(p))
	}
	for _, p := range res.EnemyCards {
		v.EnemyCards = append(v.EnemyCards, NewCardStatView(p))
	}
	return v
}

// --- Client → Server messages ---

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type    string       `json:"type"`
	Request *RequestView `json:"request,omitempty"`
}

// RequestView asks for one simulation. Nil overrides keep the server's
// simulator settings.
type RequestView struct {
	Deck     string `json:"deck"`
	Opponent string `json:"opponent,omitempty"`
	Seed     int64  `json:"seed"`
	HandSize int    `json:"hand_size,omitempty"`
	Label    string `json:"label,omitempty"`
	Trace    bool   `json:"trace,omitempty"`

	MaxTurns        *int  `json:"max_turns,omitempty"`
	MaxBranch       *int  `json:"max_branch,omitempty"`
	CircuitBreaker  *int  `json:"circuit_breaker,omitempty"`
	IterationCap    *int  `json:"iteration_cap,omitempty"`
	CheckDuplicates *bool `json:"check_duplicates,omitempty"`
}

// Apply returns cfg with the request's overrides.
func (r RequestView) Apply(cfg sim.Config) sim.Config {
	if r.MaxTurns != nil {
		cfg.MaxTurns = *r.MaxTurns
	}
	if r.MaxBranch != nil {
		cfg.MaxBranch = *r.MaxBranch
	}
	if r.CircuitBreaker != nil {
		cfg.CircuitBreaker = *r.CircuitBreaker
	}
	if r.IterationCap != nil {
		cfg.IterationCap = *r.IterationCap
	}
	if r.CheckDuplicates != nil {
		cfg.CheckDuplicateStates = *r.CheckDuplicates
	}
	return cfg
}
