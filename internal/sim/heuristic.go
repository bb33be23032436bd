package sim

import "github.com/peterkuimelis/lanesim/internal/game"

// DefaultLookahead is the number of turns the lane evaluator looks ahead.
const DefaultLookahead = 3

// LaneAnalysis is the projected outcome of a single lane.
type LaneAnalysis struct {
	PlayerDamage     int // direct damage to the player
	PlayerCardDamage int // damage absorbed by the player's card
	EnemyDamage      int // direct damage to the enemy
	EnemyCardDamage  int // damage absorbed by enemy cards
}

// AnalyzeLaneCombat plays one lane forward for turnCount turns. The cards
// are copied first; the caller's instances are never touched. A staged enemy
// card moves up at the start of an enemy half-turn when the front slot is
// empty.
func AnalyzeLaneCombat(player, enemy, staged *game.CardInstance, turnCount int, playerFirst bool) LaneAnalysis {
	var a LaneAnalysis
	player, enemy, staged = player.Copy(), enemy.Copy(), staged.Copy()

	for turn := 0; turn < turnCount; turn++ {
		for half := 0; half < 2; half++ {
			playersTurn := (half == 0) == playerFirst
			if playersTurn {
				if player == nil {
					continue
				}
				damage := game.CardDamage(player, enemy)
				if game.IsBlocked(player, enemy) {
					a.EnemyCardDamage += damage
					enemy.DamageReceived += damage
					if enemy.IsDead() {
						enemy = nil
					}
				} else {
					a.EnemyDamage += damage
				}
				continue
			}

			if enemy == nil && staged != nil {
				enemy, staged = staged, nil
			}
			if enemy == nil {
				continue
			}
			damage := game.CardDamage(enemy, player)
			if game.IsBlocked(enemy, player) {
				a.PlayerCardDamage += damage
				player.DamageReceived += damage
				if player.IsDead() {
					player = nil
				}
			} else {
				a.PlayerDamage += damage
			}
		}
	}
	return a
}

// OpportunityCostOfSacrifice is what the player gives up by removing card
// from the board: the damage it would prevent plus the damage it would deal
// over the lookahead. Cards not on the board cost nothing.
func OpportunityCostOfSacrifice(card *game.CardInstance, lanes *game.Lanes, turns int) int {
	col := lanes.LaneColumn(card)
	if col < 0 {
		return 0
	}
	player, enemy, staged := lanes.Lane(col)
	statusQuo := AnalyzeLaneCombat(player, enemy, staged, turns, true)
	without := AnalyzeLaneCombat(nil, enemy, staged, turns, true)

	prevented := without.PlayerDamage - statusQuo.PlayerDamage
	dealt := statusQuo.EnemyDamage - without.EnemyDamage
	return prevented + dealt
}

// OpportunityScoreOfPlayingCard is the damage prevented plus the damage
// dealt by putting card in column col. Whatever the player has in that
// column now is assumed to be sacrificed.
func OpportunityScoreOfPlayingCard(card *game.CardInstance, col int, lanes *game.Lanes, turns int) int {
	_, enemy, staged := lanes.Lane(col)
	without := AnalyzeLaneCombat(nil, enemy, staged, turns, true)
	with := AnalyzeLaneCombat(card, enemy, staged, turns, true)

	prevented := without.PlayerDamage - with.PlayerDamage
	dealt := with.EnemyDamage - without.EnemyDamage
	return prevented + dealt
}
