package sim

import (
	"sort"
	"strconv"
	"strings"

	"github.com/peterkuimelis/lanesim/internal/game"
	"github.com/peterkuimelis/lanesim/internal/log"
)

// runContext is shared by every branch of one Simulate call. It is never
// cloned and never part of state equality.
type runContext struct {
	ids         *game.IDSource
	playerCards *PerformanceSummary
	enemyCards  *PerformanceSummary
	trace       log.EventLogger
	branch      int
}

func (r *runContext) tracing() bool { return r.trace != nil }

// state is one node of the search.
type state struct {
	turn         int
	playerMove   bool
	playerDamage int // received by the player
	enemyDamage  int // received by the enemy

	hand       []*game.CardInstance
	lanes      *game.Lanes
	creatures  *game.Deck
	sacrifices *game.Deck
	opponent   *game.Opponent

	playerGraveyard []*game.CardInstance
	enemyGraveyard  []*game.CardInstance

	run *runContext
}

// clone deep-copies the hand, board, decks and opponent. Graveyards get new
// slices over the same instances.
func (s *state) clone() *state {
	hand := make([]*game.CardInstance, len(s.hand))
	for i, c := range s.hand {
		hand[i] = c.Copy()
	}
	return &state{
		turn:            s.turn,
		playerMove:      s.playerMove,
		playerDamage:    s.playerDamage,
		enemyDamage:     s.enemyDamage,
		hand:            hand,
		lanes:           s.lanes.Clone(),
		creatures:       s.creatures.Clone(),
		sacrifices:      s.sacrifices.Clone(),
		opponent:        s.opponent.Clone(),
		playerGraveyard: append([]*game.CardInstance(nil), s.playerGraveyard...),
		enemyGraveyard:  append([]*game.CardInstance(nil), s.enemyGraveyard...),
		run:             s.run,
	}
}

// removeFromHand takes the card with the given id out of the hand.
func (s *state) removeFromHand(id int) *game.CardInstance {
	for i, c := range s.hand {
		if c.ID == id {
			s.hand = append(s.hand[:i], s.hand[i+1:]...)
			return c
		}
	}
	return nil
}

// key identifies a state for duplicate detection. Hand order and graveyards
// do not matter; board slot order does.
func (s *state) key() string {
	var b strings.Builder
	writeInt := func(v int) {
		b.WriteString(strconv.Itoa(v))
		b.WriteByte(',')
	}
	writeInt(s.turn)
	if s.playerMove {
		b.WriteString("P,")
	} else {
		b.WriteString("E,")
	}
	writeInt(s.playerDamage)
	writeInt(s.enemyDamage)
	writeInt(len(s.hand))
	writeInt(s.creatures.Remaining())
	writeInt(s.sacrifices.Remaining())

	ids := make([]int, len(s.hand))
	for i, c := range s.hand {
		ids[i] = c.ID
	}
	sort.Ints(ids)
	b.WriteString("h:")
	for _, id := range ids {
		writeInt(id)
	}

	b.WriteString("l:")
	for col := 0; col < game.LaneCount; col++ {
		for _, row := range []int{game.RowPlayer, game.RowEnemy, game.RowEnemyStaged} {
			c := s.lanes.CardAt(col, row)
			if c == nil {
				b.WriteString("-,")
				continue
			}
			writeInt(c.ID)
			b.WriteByte(':')
			writeInt(c.DamageReceived)
		}
	}
	return b.String()
}

// isStalemate: the player has nothing left to play, the opponent script is
// exhausted, and both sides have the same attack on the board.
func (s *state) isStalemate() bool {
	if len(s.hand) != 0 || s.creatures.Remaining() != 0 {
		return false
	}
	if s.opponent.MaxTurn() >= s.turn {
		return false
	}
	playerAttack := s.lanes.RowAttack(game.RowPlayer)
	enemyAttack := s.lanes.RowAttack(game.RowEnemy) + s.lanes.RowAttack(game.RowEnemyStaged)
	return playerAttack == enemyAttack
}

// resolveCombat lets every card of the attacking side hit the card in front
// of it or, when unblocked, the opposing side.
func (s *state) resolveCombat(playerTurn bool) {
	side, opposing := log.SidePlayer, log.SideEnemy
	if !playerTurn {
		side, opposing = log.SideEnemy, log.SidePlayer
	}
	for col := 0; col < game.LaneCount; col++ {
		attacker := s.lanes.CardAt(col, game.RowPlayer)
		defender := s.lanes.CardAt(col, game.RowEnemy)
		if !playerTurn {
			attacker, defender = defender, attacker
		}
		if attacker == nil {
			continue
		}

		blocked := game.IsBlocked(attacker, defender)
		target := defender
		if !blocked {
			target = nil
		}
		damage := game.CardDamage(attacker, target)
		attacker.DamageDealt += damage
		if !blocked {
			if playerTurn {
				s.enemyDamage += damage
			} else {
				s.playerDamage += damage
			}
			if s.run.tracing() {
				total := s.enemyDamage
				if !playerTurn {
					total = s.playerDamage
				}
				s.run.trace.Log(log.NewDirectDamageEvent(s.run.branch, s.turn, side, attacker.Card.Name(), damage, total))
			}
			continue
		}

		defender.DamageReceived += damage
		if s.run.tracing() {
			s.run.trace.Log(log.NewAttackEvent(s.run.branch, s.turn, side, attacker.Card.Name(), defender.Card.Name(), damage))
		}
		if !defender.IsDead() {
			continue
		}
		if !s.lanes.TryRemoveByID(defender.ID) {
			panic(&InvariantError{Op: "resolveCombat", Msg: "killed card " + defender.String() + " not on the board"})
		}
		if playerTurn {
			s.enemyGraveyard = append(s.enemyGraveyard, defender)
		} else {
			s.playerGraveyard = append(s.playerGraveyard, defender)
		}
		if s.run.tracing() {
			s.run.trace.Log(log.NewCardKilledEvent(s.run.branch, s.turn, opposing, defender.Card.Name()))
		}
	}
}

// recordRound folds a terminal branch into the shared summaries.
func (s *state) recordRound(result RoundResult) {
	playerWon, enemyWon := result == PlayerWin, result == EnemyWin

	for _, c := range s.lanes.Row(game.RowPlayer) {
		if c != nil {
			s.run.playerCards.Record(c, playerWon, enemyWon)
		}
	}
	for _, c := range s.playerGraveyard {
		s.run.playerCards.Record(c, playerWon, enemyWon)
	}

	for _, row := range []int{game.RowEnemy, game.RowEnemyStaged} {
		for _, c := range s.lanes.Row(row) {
			if c != nil {
				s.run.enemyCards.Record(c, enemyWon, playerWon)
			}
		}
	}
	for _, c := range s.enemyGraveyard {
		s.run.enemyCards.Record(c, enemyWon, playerWon)
	}
}
