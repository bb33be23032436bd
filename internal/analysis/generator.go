package analysis

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/peterkuimelis/lanesim/internal/game"
)

// maxGeneratedTurns bounds generation when the pool cannot satisfy the
// requested card count.
const maxGeneratedTurns = 200

// LinearScale maps a level to a value: (x - XIntercept) * Rate + YIntercept,
// optionally jittered by up to ±Random, clamped to [Min, Max].
type LinearScale struct {
	Rate       float64 `yaml:"rate"`
	Min        int     `yaml:"min"`
	Max        int     `yaml:"max"`
	XIntercept int     `yaml:"x_intercept"`
	YIntercept int     `yaml:"y_intercept"`
	Random     int     `yaml:"random"`
}

// Value evaluates the scale at x. rnd may be nil for no jitter.
func (s LinearScale) Value(x int, rnd *game.Random) int {
	y := float64(x-s.XIntercept)*s.Rate + float64(s.YIntercept)
	if rnd != nil {
		y += rnd.Float64Range(-float64(s.Random), float64(s.Random))
	}
	y = math.Max(float64(s.Min), math.Min(float64(s.Max), y))
	v := int(math.RoundToEven(y + 1e-6))
	return max(s.Min, min(s.Max, v))
}

// GeneratorParams drive opponent generation. Probabilities are percentages;
// the cost arrays are indexed by turn, the last entry repeating.
type GeneratorParams struct {
	TotalCards      LinearScale `yaml:"total_cards"`
	PlayOneCard     LinearScale `yaml:"play_one_card_probability"`
	PlayTwoCards    LinearScale `yaml:"play_two_cards_probability"`
	PlayThreeCards  LinearScale `yaml:"play_three_cards_probability"`
	PlayFourCards   LinearScale `yaml:"play_four_cards_probability"`
	PlayUncommon    LinearScale `yaml:"play_uncommon_probability"`
	PlayRare        LinearScale `yaml:"play_rare_probability"`
	OneCostByTurn   []int       `yaml:"play_one_cost_probability"`
	TwoCostByTurn   []int       `yaml:"play_two_cost_probability"`
	ThreeCostByTurn []int       `yaml:"play_three_cost_probability"`
}

// DefaultGeneratorParams is used when a library has no generator section.
func DefaultGeneratorParams() GeneratorParams {
	return GeneratorParams{
		TotalCards:      LinearScale{Rate: 1, Min: 4, Max: 30, YIntercept: 6, Random: 2},
		PlayOneCard:     LinearScale{Rate: 0, Min: 0, Max: 100, YIntercept: 50},
		PlayTwoCards:    LinearScale{Rate: 2, Min: 0, Max: 40, XIntercept: 1, YIntercept: 10},
		PlayThreeCards:  LinearScale{Rate: 1, Min: 0, Max: 20, XIntercept: 4},
		PlayFourCards:   LinearScale{Rate: 0.5, Min: 0, Max: 10, XIntercept: 8},
		PlayUncommon:    LinearScale{Rate: 2, Min: 5, Max: 40, YIntercept: 5},
		PlayRare:        LinearScale{Rate: 1, Min: 0, Max: 20, XIntercept: 3},
		OneCostByTurn:   []int{60, 50, 40, 35},
		TwoCostByTurn:   []int{5, 20, 30, 35},
		ThreeCostByTurn: []int{0, 0, 10, 20},
	}
}

// LoadGeneratorParams reads the library's generator section, falling back
// to DefaultGeneratorParams when it is absent. Keys missing from the section
// keep their defaults.
func LoadGeneratorParams(lib *game.Library) (GeneratorParams, error) {
	params := DefaultGeneratorParams()
	if lib == nil {
		return params, nil
	}
	if _, err := lib.DecodeGenerator(&params); err != nil {
		return GeneratorParams{}, err
	}
	return params, params.Validate()
}

func (p GeneratorParams) Validate() error {
	for name, s := range map[string]LinearScale{
		"total_cards":                  p.TotalCards,
		"play_one_card_probability":    p.PlayOneCard,
		"play_two_cards_probability":   p.PlayTwoCards,
		"play_three_cards_probability": p.PlayThreeCards,
		"play_four_cards_probability":  p.PlayFourCards,
		"play_uncommon_probability":    p.PlayUncommon,
		"play_rare_probability":        p.PlayRare,
	} {
		if s.Min > s.Max {
			return fmt.Errorf("generator %s: min %d exceeds max %d", name, s.Min, s.Max)
		}
	}
	if len(p.OneCostByTurn) == 0 || len(p.TwoCostByTurn) == 0 || len(p.ThreeCostByTurn) == 0 {
		return fmt.Errorf("generator cost probabilities need at least one entry per cost")
	}
	return nil
}

func valueForTurn(turn int, values []int) int {
	return values[max(0, min(turn, len(values)-1))]
}

var (
	concurrentCounts = []int{0, 1, 2, 3, 4}
	generatedCosts   = []game.Cost{game.CostZero, game.CostOne, game.CostTwo, game.CostThree}
	generatedRarity  = []game.Rarity{game.RarityCommon, game.RarityUncommon, game.RarityRare}
)

// GenerateMoves builds an opponent script for level. Each turn draws how
// many cards to play, then a cost and rarity per card, and resolves a
// concrete pool card for it. Two guardrails are built in: at least one card
// by turn 1, and some attack by turn 2.
func GenerateMoves(pool *game.CardPool, level int, params GeneratorParams, rnd *game.Random, logger *zap.Logger) []game.OpponentMove {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rnd == nil {
		rnd = game.NewRandom(1)
	}
	if len(pool.Cards()) == 0 {
		return nil
	}

	totalCards := params.TotalCards.Value(level, rnd)

	one := params.PlayOneCard.Value(level, nil)
	two := params.PlayTwoCards.Value(level, nil)
	three := params.PlayThreeCards.Value(level, nil)
	four := params.PlayFourCards.Value(level, nil)
	countOdds := []int{100 - one - two - three - four, one, two, three, four}

	uncommon := params.PlayUncommon.Value(level, nil)
	rare := params.PlayRare.Value(level, nil)
	rarityOdds := []int{100 - uncommon - rare, uncommon, rare}

	logger.Debug("generating opponent",
		zap.Int("level", level),
		zap.Int("total_cards", totalCards),
		zap.Int64("seed", rnd.Seed()),
		zap.Int("n", rnd.N()),
		zap.Ints("count_odds", countOdds),
		zap.Ints("rarity_odds", rarityOdds))

	var moves []game.OpponentMove
	attackPlayed := 0
	for turn := 0; len(moves) < totalCards && turn < maxGeneratedTurns; turn++ {
		count := game.SelectWeighted(rnd, concurrentCounts, countOdds)

		oneCost := valueForTurn(turn, params.OneCostByTurn)
		twoCost := valueForTurn(turn, params.TwoCostByTurn)
		threeCost := valueForTurn(turn, params.ThreeCostByTurn)
		costOdds := []int{100 - oneCost - twoCost - threeCost, oneCost, twoCost, threeCost}

		if len(moves) == 0 && turn == 1 {
			count = 1
			logger.Debug("guardrail help: ensuring card played by turn 2")
		}
		minAttack := 0
		if attackPlayed == 0 && turn == 2 {
			count = 1
			minAttack = 1
			costOdds[0] = 0
			logger.Debug("guardrail help: removing zero cost cards")
		}

		for i := 0; i < count; i++ {
			cost := game.SelectWeighted(rnd, generatedCosts, costOdds)
			rarity := game.SelectWeighted(rnd, generatedRarity, rarityOdds)
			if cost == game.CostZero && rarity == game.RarityCommon {
				rarity = game.RaritySacrifice
			}

			card := pickCard(pool, rnd, cost, rarity, minAttack)
			if card == nil {
				logger.Warn("no card for generated move",
					zap.Int("turn", turn),
					zap.Stringer("cost", cost),
					zap.Stringer("rarity", rarity))
				continue
			}
			moves = append(moves, game.OpponentMove{Turn: turn, Card: card})
			attackPlayed += card.Attack
		}
	}
	return moves
}

// GenerateOpponent wraps GenerateMoves in a ready opponent sharing rnd's
// position.
func GenerateOpponent(pool *game.CardPool, level int, params GeneratorParams, rnd *game.Random, logger *zap.Logger) *game.Opponent {
	moves := GenerateMoves(pool, level, params, rnd, logger)
	return game.NewOpponent(pool, moves, rnd, logger)
}

func pickCard(pool *game.CardPool, rnd *game.Random, cost game.Cost, rarity game.Rarity, minAttack int) *game.CardDefinition {
	var candidates []*game.CardDefinition
	for _, c := range pool.Filter(&cost, &rarity) {
		if c.Attack >= minAttack {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return game.SelectRandom(rnd, candidates)
}

// ScriptEntry turns generated moves into a library opponent entry, naming
// pool cards by id where they have one.
func ScriptEntry(name string, moves []game.OpponentMove) game.OpponentEntry {
	out := make([]game.OpponentMove, len(moves))
	for i, m := range moves {
		if m.Card != nil && m.Card.ID != 0 {
			id := m.Card.ID
			m.Card = nil
			m.CardID = &id
		}
		out[i] = m
	}
	return game.OpponentEntry{Name: name, Moves: out}
}

// DefaultPlayerDeck is the reference deck for balance runs: the first four
// one-cost, two two-cost and one three-cost cards of the pool, plus six
// sacrifices. Sacrifices repeat in pool order when the pool has fewer than six.
func DefaultPlayerDeck(pool *game.CardPool) (creatures, sacrifices []*game.CardDefinition) {
	take := func(cost game.Cost, n int) {
		for _, c := range pool.Filter(&cost, nil) {
			if n == 0 {
				return
			}
			if c.Rarity == game.RaritySacrifice {
				continue
			}
			creatures = append(creatures, c)
			n--
		}
	}
	take(game.CostOne, 4)
	take(game.CostTwo, 2)
	take(game.CostThree, 1)

	sac := game.RaritySacrifice
	available := pool.Filter(nil, &sac)
	for i := 0; len(available) > 0 && i < 6; i++ {
		sacrifices = append(sacrifices, available[i%len(available)])
	}
	return creatures, sacrifices
}
