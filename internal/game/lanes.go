package game

import "strings"

const LaneCount = 4

// Rows of the lane grid.
const (
	RowPlayer = iota
	RowEnemy
	RowEnemyStaged
	rowCount
)

// Lanes is the 4x3 board: one player row, the enemy's active row and the
// enemy's staged row behind it.
type Lanes struct {
	grid [LaneCount][rowCount]*CardInstance
}

func NewLanes() *Lanes {
	return &Lanes{}
}

// CardAt returns the card in the given slot, or nil.
func (l *Lanes) CardAt(col, row int) *CardInstance {
	return l.grid[col][row]
}

// SetCard writes a slot directly. Used by lookahead and tests.
func (l *Lanes) SetCard(col, row int, card *CardInstance) {
	l.grid[col][row] = card
}

// Lane returns the player, enemy and staged cards of one column.
func (l *Lanes) Lane(col int) (player, enemy, staged *CardInstance) {
	return l.grid[col][RowPlayer], l.grid[col][RowEnemy], l.grid[col][RowEnemyStaged]
}

// Row returns the four slots of a row (entries may be nil).
func (l *Lanes) Row(row int) [LaneCount]*CardInstance {
	var out [LaneCount]*CardInstance
	for col := 0; col < LaneCount; col++ {
		out[col] = l.grid[col][row]
	}
	return out
}

// Occupied reports which columns of a row hold a card.
func (l *Lanes) Occupied(row int) [LaneCount]bool {
	var out [LaneCount]bool
	for col := 0; col < LaneCount; col++ {
		out[col] = l.grid[col][row] != nil
	}
	return out
}

// RowAttack sums the attack of every card in a row.
func (l *Lanes) RowAttack(row int) int {
	total := 0
	for col := 0; col < LaneCount; col++ {
		if c := l.grid[col][row]; c != nil {
			total += c.Card.Attack
		}
	}
	return total
}

// PlayCard places a card in the player row, or in the enemy's staged row
// when isEnemy is set. The slot must be empty.
func (l *Lanes) PlayCard(card *CardInstance, col int, isEnemy bool) {
	if col < 0 || col >= LaneCount {
		invariant("Lanes.PlayCard", "column %d out of range", col)
	}
	row := RowPlayer
	if isEnemy {
		row = RowEnemyStaged
	}
	if l.grid[col][row] != nil {
		invariant("Lanes.PlayCard", "slot (%d,%d) already holds %s", col, row, l.grid[col][row])
	}
	l.grid[col][row] = card
}

// TryRemoveByID clears the first slot holding the given instance ID,
// scanning column by column. It reports whether a card was removed.
func (l *Lanes) TryRemoveByID(id int) bool {
	for col := 0; col < LaneCount; col++ {
		for row := 0; row < rowCount; row++ {
			if c := l.grid[col][row]; c != nil && c.ID == id {
				l.grid[col][row] = nil
				return true
			}
		}
	}
	return false
}

// FindByID returns the card with the given ID and its slot.
func (l *Lanes) FindByID(id int) (card *CardInstance, col, row int) {
	for col := 0; col < LaneCount; col++ {
		for row := 0; row < rowCount; row++ {
			if c := l.grid[col][row]; c != nil && c.ID == id {
				return c, col, row
			}
		}
	}
	return nil, -1, -1
}

// PromoteStagedCards moves each staged card forward when the active slot in
// front of it is empty. It returns the promoted cards.
func (l *Lanes) PromoteStagedCards() []*CardInstance {
	var promoted []*CardInstance
	for col := 0; col < LaneCount; col++ {
		if l.grid[col][RowEnemy] == nil && l.grid[col][RowEnemyStaged] != nil {
			l.grid[col][RowEnemy] = l.grid[col][RowEnemyStaged]
			l.grid[col][RowEnemyStaged] = nil
			promoted = append(promoted, l.grid[col][RowEnemy])
		}
	}
	return promoted
}

// LaneColumn returns the column whose player slot holds this exact
// instance, or -1.
func (l *Lanes) LaneColumn(card *CardInstance) int {
	for col := 0; col < LaneCount; col++ {
		if l.grid[col][RowPlayer] == card {
			return col
		}
	}
	return -1
}

// Clone deep-copies every card on the board.
func (l *Lanes) Clone() *Lanes {
	cp := &Lanes{}
	for col := 0; col < LaneCount; col++ {
		for row := 0; row < rowCount; row++ {
			cp.grid[col][row] = l.grid[col][row].Copy()
		}
	}
	return cp
}

func (l *Lanes) String() string {
	var b strings.Builder
	for _, row := range []int{RowEnemyStaged, RowEnemy, RowPlayer} {
		for col := 0; col < LaneCount; col++ {
			if col > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(l.grid[col][row].String())
		}
		b.WriteString("\n")
	}
	return b.String()
}
