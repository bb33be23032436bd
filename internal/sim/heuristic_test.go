package sim

import (
	"testing"

	"github.com/peterkuimelis/lanesim/internal/game"
)

// TestAnalyzeLoneAttacker: an unopposed 1/1 deals 1 per turn.
func TestAnalyzeLoneAttacker(t *testing.T) {
	p := instance(creature("P", 1, 1, game.CostOne), 1)
	got := AnalyzeLaneCombat(p, nil, nil, 3, true)
	want := LaneAnalysis{EnemyDamage: 3}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestAnalyzeTrade: two 1/2 cards trade; the player strikes first and wins.
func TestAnalyzeTrade(t *testing.T) {
	p := instance(creature("P", 1, 2, game.CostOne), 1)
	e := instance(creature("E", 1, 2, game.CostOne), 2)
	got := AnalyzeLaneCombat(p, e, nil, 3, true)
	want := LaneAnalysis{EnemyDamage: 1, EnemyCardDamage: 2, PlayerDamage: 0, PlayerCardDamage: 1}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if p.DamageReceived != 0 || e.DamageReceived != 0 {
		t.Error("analysis must not mutate the caller's cards")
	}
}

// TestAnalyzeStagedPromotion: the staged card steps up on the enemy's first half-turn.
func TestAnalyzeStagedPromotion(t *testing.T) {
	p := instance(creature("P", 3, 3, game.CostTwo), 1)
	staged := instance(creature("S", 2, 4, game.CostTwo), 2)
	got := AnalyzeLaneCombat(p, nil, staged, 3, true)
	want := LaneAnalysis{EnemyDamage: 3, EnemyCardDamage: 3, PlayerDamage: 2, PlayerCardDamage: 4}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestAnalyzeEnemyFirst: with the enemy moving first the player card dies before striking.
func TestAnalyzeEnemyFirst(t *testing.T) {
	p := instance(creature("P", 5, 1, game.CostOne), 1)
	e := instance(creature("E", 1, 3, game.CostOne), 2)
	got := AnalyzeLaneCombat(p, e, nil, 2, false)
	want := LaneAnalysis{PlayerCardDamage: 1, PlayerDamage: 1}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestOpportunityCost: a lone attacker on an empty lane is worth its damage.
func TestOpportunityCost(t *testing.T) {
	lanes := game.NewLanes()
	p := instance(creature("P", 2, 1, game.CostOne), 1)
	lanes.PlayCard(p, 1, false)

	if got := OpportunityCostOfSacrifice(p, lanes, 3); got != 6 {
		t.Errorf("cost = %d, want 6", got)
	}
	inHand := instance(sacrifice("S"), 2)
	if got := OpportunityCostOfSacrifice(inHand, lanes, 3); got != 0 {
		t.Errorf("cost of a card in hand = %d, want 0", got)
	}
}

// TestOpportunityScoreBlocks: blocking an attacker scores the prevented damage.
func TestOpportunityScoreBlocks(t *testing.T) {
	lanes := game.NewLanes()
	lanes.SetCard(0, game.RowEnemy, instance(creature("E", 1, 1, game.CostOne), 1))
	blocker := instance(creature("Wall", 1, 1, game.CostOne), 2)

	// Without the blocker the enemy deals 3; with it the enemy dies first.
	if got := OpportunityScoreOfPlayingCard(blocker, 0, lanes, 3); got != 3 {
		t.Errorf("score = %d, want 3", got)
	}
}
