package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/peterkuimelis/lanesim/internal/game"
)

// StartingHandSize is the hand size used when a caller does not choose one.
const StartingHandSize = 2

// BuildSetup assembles a run from a library deck and opponent script. The
// deck is split by rarity; sacrifices then creatures are shuffled with one
// generator seeded by seed, and the opponent gets its own generator with the
// same seed. An empty opponent name means no enemy moves.
func BuildSetup(lib *game.Library, deckName, opponentName string, seed int64, handSize int, logger *zap.Logger) (Setup, error) {
	cards, err := lib.Deck(deckName)
	if err != nil {
		return Setup{}, fmt.Errorf("build setup: %w", err)
	}
	creatures, sacrifices := game.SplitDeck(cards)

	rnd := game.NewRandom(seed)
	game.Shuffle(rnd, sacrifices)
	game.Shuffle(rnd, creatures)

	var opponent *game.Opponent
	if opponentName == "" {
		opponent = game.NewOpponent(lib.Pool, nil, game.NewRandom(seed), logger)
	} else {
		opponent, err = lib.Opponent(opponentName, game.NewRandom(seed), logger)
		if err != nil {
			return Setup{}, fmt.Errorf("build setup: %w", err)
		}
	}

	return Setup{
		StartingHandSize: handSize,
		Creatures:        creatures,
		Sacrifices:       sacrifices,
		Opponent:         opponent,
	}, nil
}
