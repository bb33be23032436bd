package game

import (
	"fmt"

	"go.uber.org/zap"
)

// OpponentMove is one scripted enemy placement. A move picks its card by
// explicit definition, by pool id, or by a cost/rarity filter; a nil Lane
// means a random open lane.
type OpponentMove struct {
	Turn     int             `yaml:"turn"`
	Lane     *int            `yaml:"lane,omitempty"`
	Card     *CardDefinition `yaml:"card,omitempty"`
	CardID   *int            `yaml:"card_id,omitempty"`
	Cost     *Cost           `yaml:"cost,omitempty"`
	Rarity   *Rarity         `yaml:"rarity,omitempty"`
	Resolved bool            `yaml:"-"`
}

func (m OpponentMove) String() string {
	lane := "random"
	if m.Lane != nil {
		lane = fmt.Sprint(*m.Lane)
	}
	switch {
	case m.Card != nil:
		return fmt.Sprintf("turn %d lane %s: %s", m.Turn, lane, m.Card)
	case m.CardID != nil:
		return fmt.Sprintf("turn %d lane %s: card #%d", m.Turn, lane, *m.CardID)
	default:
		return fmt.Sprintf("turn %d lane %s: %s", m.Turn, lane, m.filterString())
	}
}

func (m OpponentMove) filterString() string {
	cost, rarity := "any", "any"
	if m.Cost != nil {
		cost = m.Cost.String()
	}
	if m.Rarity != nil {
		rarity = m.Rarity.String()
	}
	return fmt.Sprintf("cost=%s rarity=%s", cost, rarity)
}

// Placement is a resolved move: the card to stage and its column.
type Placement struct {
	Card *CardDefinition
	Lane int
}

// Opponent replays a move list turn by turn.
type Opponent struct {
	pool    *CardPool
	moves   []OpponentMove
	rnd     *Random
	maxTurn int
	logger  *zap.Logger
}

// NewOpponent copies moves and takes a snapshot of rnd, so the caller's
// generator and slice are left untouched. pool may be nil when every move
// names its card explicitly.
func NewOpponent(pool *CardPool, moves []OpponentMove, rnd *Random, logger *zap.Logger) *Opponent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rnd == nil {
		rnd = NewRandom(1)
	} else {
		rnd = rnd.Snapshot()
	}
	o := &Opponent{
		pool:   pool,
		moves:  append([]OpponentMove(nil), moves...),
		rnd:    rnd,
		logger: logger,
	}
	for _, m := range o.moves {
		if m.Turn > o.maxTurn {
			o.maxTurn = m.Turn
		}
	}
	return o
}

// MaxTurn is the last turn any move is scheduled for (0 with no moves).
func (o *Opponent) MaxTurn() int { return o.maxTurn }

// Moves returns a copy of the move list.
func (o *Opponent) Moves() []OpponentMove {
	return append([]OpponentMove(nil), o.moves...)
}

// Pending returns the number of unresolved moves.
func (o *Opponent) Pending() int {
	n := 0
	for _, m := range o.moves {
		if !m.Resolved {
			n++
		}
	}
	return n
}

// Clone returns an independent opponent at the same point of its script.
func (o *Opponent) Clone() *Opponent {
	return &Opponent{
		pool:    o.pool,
		moves:   append([]OpponentMove(nil), o.moves...),
		rnd:     o.rnd.Snapshot(),
		maxTurn: o.maxTurn,
		logger:  o.logger,
	}
}

// MovesForTurn resolves every pending move due by turn. occupied is the
// staged row's occupancy; lanes taken by earlier placements this turn are
// added to it. Moves that cannot be placed yet stay pending; moves that can
// never be placed are logged and dropped.
func (o *Opponent) MovesForTurn(turn int, occupied [LaneCount]bool) []Placement {
	var out []Placement
	for i := range o.moves {
		if allOccupied(occupied) {
			break
		}
		m := &o.moves[i]
		if m.Resolved || m.Turn > turn {
			continue
		}

		var lane int
		if m.Lane != nil {
			lane = *m.Lane
			if lane < 0 || lane >= LaneCount {
				o.logger.Warn("opponent move has invalid lane",
					zap.Int("turn", m.Turn), zap.Int("lane", lane))
				m.Resolved = true
				continue
			}
			if occupied[lane] {
				continue
			}
		} else {
			lane = o.randomOpenLane(occupied)
		}
		occupied[lane] = true

		card := o.resolveCard(m)
		if card == nil {
			m.Resolved = true
			continue
		}
		m.Resolved = true
		out = append(out, Placement{Card: card, Lane: lane})
	}
	return out
}

func (o *Opponent) randomOpenLane(occupied [LaneCount]bool) int {
	open := 0
	for _, taken := range occupied {
		if !taken {
			open++
		}
	}
	idx := o.rnd.Intn(open)
	for lane, taken := range occupied {
		if taken {
			continue
		}
		if idx == 0 {
			return lane
		}
		idx--
	}
	return -1
}

func (o *Opponent) resolveCard(m *OpponentMove) *CardDefinition {
	if m.Card != nil {
		return m.Card
	}
	if m.CardID != nil {
		def := o.pool.Lookup(*m.CardID)
		if def == nil {
			o.logger.Warn("opponent move references unknown card",
				zap.Int("turn", m.Turn), zap.Int("card_id", *m.CardID))
		}
		return def
	}
	if m.Cost == nil {
		o.logger.Warn("opponent move has no card selector", zap.Int("turn", m.Turn))
		return nil
	}
	matches := o.pool.Filter(m.Cost, m.Rarity)
	if len(matches) == 0 {
		o.logger.Warn("opponent move matches no card",
			zap.Int("turn", m.Turn), zap.String("filter", m.filterString()))
		return nil
	}
	return SelectRandom(o.rnd, matches)
}

func allOccupied(occupied [LaneCount]bool) bool {
	for _, taken := range occupied {
		if !taken {
			return false
		}
	}
	return true
}
