package game

// Deck is a draw pile. The top of the deck is the last element; drawing
// moves a cursor down from the end instead of shrinking the slice.
type Deck struct {
	cards []*CardInstance
	drawn int
}

// NewDeck builds a deck from cards. When rnd is non-nil the cards are
// shuffled once with it; otherwise the order is taken as already shuffled.
// The deck owns the slice it is given.
func NewDeck(cards []*CardInstance, rnd *Random) *Deck {
	if rnd != nil {
		Shuffle(rnd, cards)
	}
	return &Deck{cards: cards}
}

// Remaining returns the number of cards left to draw.
func (d *Deck) Remaining() int {
	if d == nil {
		return 0
	}
	return len(d.cards) - d.drawn
}

func (d *Deck) Empty() bool {
	return d.Remaining() == 0
}

// DrawFromTop removes and returns the top card.
func (d *Deck) DrawFromTop() *CardInstance {
	if d.Remaining() == 0 {
		invariant("Deck.DrawFromTop", "deck is empty")
	}
	card := d.cards[len(d.cards)-1-d.drawn]
	d.drawn++
	return card
}

// PeekTop returns the top card without drawing it.
func (d *Deck) PeekTop() *CardInstance {
	if d.Remaining() == 0 {
		invariant("Deck.PeekTop", "deck is empty")
	}
	return d.cards[len(d.cards)-1-d.drawn]
}

// Cards returns the undrawn cards, bottom first.
func (d *Deck) Cards() []*CardInstance {
	if d == nil {
		return nil
	}
	return d.cards[:len(d.cards)-d.drawn]
}

// Clone deep-copies the undrawn cards. Instance IDs are kept.
func (d *Deck) Clone() *Deck {
	if d == nil {
		return nil
	}
	rest := d.Cards()
	cards := make([]*CardInstance, len(rest))
	for i, c := range rest {
		cards[i] = c.Copy()
	}
	return &Deck{cards: cards}
}
