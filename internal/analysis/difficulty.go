// Package analysis grades opponent scripts by simulated win rate and runs
// batch balance checks over generated levels.
package analysis

import (
	"fmt"

	"github.com/peterkuimelis/lanesim/internal/game"
	"github.com/peterkuimelis/lanesim/internal/sim"
)

// Difficulty is the grade given to an opponent script.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
	FailedGuardrail
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "Easy"
	case Medium:
		return "Medium"
	case Hard:
		return "Hard"
	case FailedGuardrail:
		return "FailedGuardrail"
	default:
		return "Unknown"
	}
}

func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Guardrail failure reasons.
const (
	ReasonBasicMarkers = "BasicMarkers"
	ReasonTooHard      = "TooHard"
	ReasonTooEasy      = "TooEasy"
)

// Thresholds are the win-rate bands used by Calibrate.
type Thresholds struct {
	MinWinRate     float64 // below: too hard
	MaxWinRate     float64 // above, with too little enemy damage: too easy
	MinEnemyDamage int
	Easy           float64
	Medium         float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinWinRate:     0.01,
		MaxWinRate:     0.99,
		MinEnemyDamage: 3,
		Easy:           0.80,
		Medium:         0.45,
	}
}

// CalibrationConfig is the search used to grade levels.
func CalibrationConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.MaxTurns = 20
	cfg.MaxBranch = 2
	cfg.CircuitBreaker = 1000
	cfg.AlwaysDrawCreature = true
	cfg.AlwaysDrawSacrifice = true
	cfg.CheckDuplicateStates = true
	return cfg
}

// Classify grades a finished simulation.
func (t Thresholds) Classify(res *sim.Result) (Difficulty, string) {
	winRate := res.WinRate()
	switch {
	case winRate < t.MinWinRate:
		return FailedGuardrail, ReasonTooHard
	case winRate > t.MaxWinRate && res.EnemyDamageDealt() < t.MinEnemyDamage:
		return FailedGuardrail, ReasonTooEasy
	case winRate >= t.Easy:
		return Easy, ""
	case winRate >= t.Medium:
		return Medium, ""
	default:
		return Hard, ""
	}
}

// CheckGuardrails replays a clone of the opponent turn by turn with every
// lane open. It fails when nothing has been played by turn 1 or no attack
// has been played by turn 2. The returned string names the failed marker.
func CheckGuardrails(opponent *game.Opponent) (bool, string) {
	if opponent == nil {
		return false, "no opponent"
	}
	ai := opponent.Clone()

	var cards, attack int
	for turn := 0; turn <= ai.MaxTurn(); turn++ {
		for _, p := range ai.MovesForTurn(turn, [game.LaneCount]bool{}) {
			cards++
			attack += p.Card.Attack
		}
		if turn == 1 && cards == 0 {
			return false, "must play a card before turn 2"
		}
		if turn == 2 && attack == 0 {
			return false, "must play at least 1 attack before turn 3"
		}
	}
	return true, ""
}

// Calibration is the outcome of grading one level.
type Calibration struct {
	Difficulty Difficulty  `json:"difficulty"`
	Reason     string      `json:"reason,omitempty"`
	Marker     string      `json:"marker,omitempty"`
	WinRate    float64     `json:"win_rate"`
	Summary    Summary     `json:"summary"`
	Result     *sim.Result `json:"-"`
}

// Calibrate grades setup's opponent. Scripts failing the guardrails are not
// simulated. A run with no finished rounds has a win rate of 0.
func Calibrate(setup sim.Setup, cfg sim.Config, t Thresholds) (Calibration, error) {
	if ok, marker := CheckGuardrails(setup.Opponent); !ok {
		return Calibration{Difficulty: FailedGuardrail, Reason: ReasonBasicMarkers, Marker: marker}, nil
	}

	res, err := sim.New(cfg).Simulate(setup)
	if err != nil {
		return Calibration{}, fmt.Errorf("calibrate: %w", err)
	}

	var summary Summary
	summary.Add(res)
	d, reason := t.Classify(res)
	return Calibration{
		Difficulty: d,
		Reason:     reason,
		WinRate:    res.WinRate(),
		Summary:    summary,
		Result:     res,
	}, nil
}

// Summary totals many runs.
type Summary struct {
	Runs            int `json:"runs"`
	Rounds          int `json:"rounds"`
	PlayerWins      int `json:"player_wins"`
	EnemyWins       int `json:"enemy_wins"`
	Stalemates      int `json:"stalemates"`
	MaxTurns        int `json:"max_turns"`
	DuplicateStates int `json:"duplicate_states"`
	Truncated       int `json:"truncated"`
	CircuitBreakers int `json:"circuit_breakers"`
}

// Add folds one run into s.
func (s *Summary) Add(res *sim.Result) {
	s.Runs++
	s.Rounds += len(res.Rounds)
	s.PlayerWins += res.Count(sim.PlayerWin)
	s.EnemyWins += res.Count(sim.EnemyWin)
	s.Stalemates += res.Count(sim.Stalemate)
	s.MaxTurns += res.Count(sim.MaxTurnsReached)
	s.DuplicateStates += res.DuplicateStates
	if res.Truncated {
		s.Truncated++
	}
	if res.CircuitBreakerTripped {
		s.CircuitBreakers++
	}
}

// Merge adds other's totals to s.
func (s *Summary) Merge(other Summary) {
	s.Runs += other.Runs
	s.Rounds += other.Rounds
	s.PlayerWins += other.PlayerWins
	s.EnemyWins += other.EnemyWins
	s.Stalemates += other.Stalemates
	s.MaxTurns += other.MaxTurns
	s.DuplicateStates += other.DuplicateStates
	s.Truncated += other.Truncated
	s.CircuitBreakers += other.CircuitBreakers
}

// WinRate is player wins over rounds, 0 with no rounds.
func (s Summary) WinRate() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(s.PlayerWins) / float64(s.Rounds)
}

func (s Summary) String() string {
	return fmt.Sprintf("%d games, %d player wins, %d enemy wins, %d stalemates, %d max turns, %d duplicate states",
		s.Rounds, s.PlayerWins, s.EnemyWins, s.Stalemates, s.MaxTurns, s.DuplicateStates)
}
