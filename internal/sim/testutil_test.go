package sim

import (
	"testing"

	"github.com/peterkuimelis/lanesim/internal/game"
)

func creature(name string, attack, health int, cost game.Cost, abilities ...game.Ability) *game.CardDefinition {
	return &game.CardDefinition{
		NameNoun:  name,
		Attack:    attack,
		Health:    health,
		Cost:      cost,
		Rarity:    game.RarityCommon,
		Abilities: game.NewAbilitySet(abilities...),
	}
}

func sacrifice(name string) *game.CardDefinition {
	return &game.CardDefinition{NameNoun: name, Attack: 0, Health: 1, Cost: game.CostZero, Rarity: game.RaritySacrifice}
}

func instance(def *game.CardDefinition, id int) *game.CardInstance {
	return &game.CardInstance{Card: def, ID: id}
}

func lane(v int) *int { return &v }

// scriptedOpponent builds an opponent from explicit moves.
func scriptedOpponent(moves ...game.OpponentMove) *game.Opponent {
	return game.NewOpponent(nil, moves, game.NewRandom(1), nil)
}

// emptyState is a player-to-move state with nothing anywhere.
func emptyState() *state {
	run := &runContext{
		ids:         game.NewIDSource(),
		playerCards: NewPerformanceSummary(),
		enemyCards:  NewPerformanceSummary(),
	}
	return &state{
		turn:       1,
		playerMove: true,
		lanes:      game.NewLanes(),
		creatures:  game.NewDeck(nil, nil),
		sacrifices: game.NewDeck(nil, nil),
		opponent:   game.NewOpponent(nil, nil, nil, nil),
		run:        run,
	}
}

func mustSimulate(t *testing.T, cfg Config, setup Setup) *Result {
	t.Helper()
	res, err := New(cfg).Simulate(setup)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	return res
}

func findCard(cards []CardPerformance, def *game.CardDefinition) (CardPerformance, bool) {
	for _, c := range cards {
		if c.Card == def.Identity() {
			return c, true
		}
	}
	return CardPerformance{}, false
}
