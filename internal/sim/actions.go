package sim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/peterkuimelis/lanesim/internal/game"
)

// DrawAction is the draw half of a player's turn.
type DrawAction int

const (
	NoDraw DrawAction = iota
	DrawCreature
	DrawSacrifice
)

func (d DrawAction) String() string {
	switch d {
	case DrawCreature:
		return "DrawCreature"
	case DrawSacrifice:
		return "DrawSacrifice"
	default:
		return "NoDraw"
	}
}

// PlayCard plays Card into Lane, paying with Sacrifices.
type PlayCard struct {
	Card       *game.CardInstance
	Lane       int
	Sacrifices []*game.CardInstance
}

// TurnAction is one candidate player turn. Pure draw actions carry no score.
type TurnAction struct {
	Draw   DrawAction
	Play   *PlayCard
	Score  int
	Scored bool
}

func (a TurnAction) String() string {
	var b strings.Builder
	b.WriteString(a.Draw.String())
	if a.Play != nil {
		fmt.Fprintf(&b, " + play %s in lane %d", a.Play.Card.Card.Name(), a.Play.Lane+1)
		if len(a.Play.Sacrifices) > 0 {
			names := make([]string, len(a.Play.Sacrifices))
			for i, s := range a.Play.Sacrifices {
				names[i] = s.Card.Name()
			}
			fmt.Fprintf(&b, " [%s]", strings.Join(names, ", "))
		}
	}
	if a.Scored {
		fmt.Fprintf(&b, " (score %d)", a.Score)
	}
	return b.String()
}

// EnumerateActions scores every creature in hand that can be paid for.
// Sacrifices come from zero-cost cards in hand first (no more than the open
// lanes allow), then from the cheapest cards on the board. With
// oneActionPerCard only the best lane of each card competes for the top
// maxActions; otherwise every lane attempt does.
func EnumerateActions(draw DrawAction, hand []*game.CardInstance, lanes *game.Lanes, maxActions int, oneActionPerCard bool, turns int) []TurnAction {
	boardSacrifices := availableSacrifices(lanes, turns)

	var handSacrifices, creatures []*game.CardInstance
	for _, c := range hand {
		if c.Card.Cost == game.CostZero {
			handSacrifices = append(handSacrifices, c)
		} else {
			creatures = append(creatures, c)
		}
	}
	openLanes := game.LaneCount - len(boardSacrifices)

	var best []TurnAction
	for _, creature := range creatures {
		needed := int(creature.Card.Cost)

		fromHand := min(needed, min(len(handSacrifices), openLanes))
		sacrifices := append([]*game.CardInstance(nil), handSacrifices[:fromHand]...)
		fromBoard := min(needed-len(sacrifices), len(boardSacrifices))
		sacrifices = append(sacrifices, boardSacrifices[:fromBoard]...)
		if len(sacrifices) != needed {
			continue
		}

		cost := 0
		for _, s := range sacrifices {
			cost += OpportunityCostOfSacrifice(s, lanes, turns)
		}

		var bestForCard *TurnAction
		for col := 0; col < game.LaneCount; col++ {
			if existing := lanes.CardAt(col, game.RowPlayer); existing != nil && !containsInstance(sacrifices, existing) {
				continue
			}
			action := TurnAction{
				Draw: draw,
				Play: &PlayCard{
					Card:       creature,
					Lane:       col,
					Sacrifices: sacrifices,
				},
				Score:  OpportunityScoreOfPlayingCard(creature, col, lanes, turns) - cost,
				Scored: true,
			}
			if !oneActionPerCard {
				best = addIfInTopN(best, maxActions, action)
				continue
			}
			if bestForCard == nil || action.Score > bestForCard.Score {
				bestForCard = &action
			}
		}
		if oneActionPerCard && bestForCard != nil {
			best = addIfInTopN(best, maxActions, *bestForCard)
		}
	}
	return best
}

// availableSacrifices returns the player's board cards, cheapest to give up
// first. Equal costs keep column order.
func availableSacrifices(lanes *game.Lanes, turns int) []*game.CardInstance {
	var cards []*game.CardInstance
	var costs []int
	for _, c := range lanes.Row(game.RowPlayer) {
		if c == nil {
			continue
		}
		cards = append(cards, c)
		costs = append(costs, OpportunityCostOfSacrifice(c, lanes, turns))
	}
	idx := make([]int, len(cards))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return costs[idx[a]] < costs[idx[b]] })

	sorted := make([]*game.CardInstance, len(cards))
	for i, j := range idx {
		sorted[i] = cards[j]
	}
	return sorted
}

func containsInstance(cards []*game.CardInstance, card *game.CardInstance) bool {
	for _, c := range cards {
		if c == card {
			return true
		}
	}
	return false
}

// TakeTop merges the lists into the count best actions scoring at least
// minValue, highest first. Ties keep the order they were offered in.
func TakeTop(count, minValue int, lists ...[]TurnAction) []TurnAction {
	top := make([]TurnAction, 0, count)
	for _, list := range lists {
		for _, a := range list {
			if a.Score >= minValue {
				top = addIfInTopN(top, count, a)
			}
		}
	}
	return top
}

// addIfInTopN inserts a into the descending list top when it belongs among
// the first n entries.
func addIfInTopN(top []TurnAction, n int, a TurnAction) []TurnAction {
	if n <= 0 {
		return top
	}
	if len(top) < n {
		top = append(top, a)
	} else if a.Score > top[n-1].Score {
		top[n-1] = a
	} else {
		return top
	}
	for i := len(top) - 1; i > 0 && top[i-1].Score < top[i].Score; i-- {
		top[i-1], top[i] = top[i], top[i-1]
	}
	return top
}
