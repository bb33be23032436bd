package game

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LibraryFile is the top-level YAML structure of a card library.
type LibraryFile struct {
	Cards     []*CardDefinition `yaml:"cards"`
	Decks     []DeckEntry       `yaml:"decks"`
	Opponents []OpponentEntry   `yaml:"opponents"`
	Generator yaml.Node         `yaml:"generator,omitempty"`
}

// DeckEntry is a named player deck.
type DeckEntry struct {
	Name  string      `yaml:"name"`
	Cards []CardEntry `yaml:"cards"`
}

// CardEntry is a pool id and how many copies of it a deck holds.
type CardEntry struct {
	ID    int `yaml:"id"`
	Count int `yaml:"count"`
}

// OpponentEntry is a named opponent script.
type OpponentEntry struct {
	Name  string         `yaml:"name"`
	Moves []OpponentMove `yaml:"moves"`
}

// --- Card pool ---

// CardPool indexes card definitions by pool id, keeping file order.
type CardPool struct {
	cards []*CardDefinition
	byID  map[int]*CardDefinition
}

func NewCardPool(cards []*CardDefinition) (*CardPool, error) {
	p := &CardPool{byID: make(map[int]*CardDefinition, len(cards))}
	for _, c := range cards {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := p.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate card id %d", c.ID)
		}
		p.byID[c.ID] = c
		p.cards = append(p.cards, c)
	}
	return p, nil
}

// Cards returns every definition in file order.
func (p *CardPool) Cards() []*CardDefinition {
	if p == nil {
		return nil
	}
	return p.cards
}

// Lookup returns the definition with the given id, or nil.
func (p *CardPool) Lookup(id int) *CardDefinition {
	if p == nil {
		return nil
	}
	return p.byID[id]
}

// Filter returns the cards matching cost and rarity; a nil filter matches all.
func (p *CardPool) Filter(cost *Cost, rarity *Rarity) []*CardDefinition {
	if p == nil {
		return nil
	}
	var out []*CardDefinition
	for _, c := range p.cards {
		if cost != nil && c.Cost != *cost {
			continue
		}
		if rarity != nil && c.Rarity != *rarity {
			continue
		}
		out = append(out, c)
	}
	return out
}

// SplitDeck separates sacrifice-rarity cards from creatures, keeping order.
func SplitDeck(cards []*CardDefinition) (creatures, sacrifices []*CardDefinition) {
	for _, c := range cards {
		if c.Rarity == RaritySacrifice {
			sacrifices = append(sacrifices, c)
		} else {
			creatures = append(creatures, c)
		}
	}
	return creatures, sacrifices
}

// --- Library ---

// Library is a parsed, validated card library.
type Library struct {
	Pool      *CardPool
	decks     []DeckEntry
	opponents []OpponentEntry
	generator yaml.Node
}

// LoadLibrary reads and parses a library file.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLibrary(data)
}

// ParseLibrary parses library YAML and checks that every deck and opponent
// refers to cards in the pool.
func ParseLibrary(data []byte) (*Library, error) {
	var lf LibraryFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parse library YAML: %w", err)
	}
	pool, err := NewCardPool(lf.Cards)
	if err != nil {
		return nil, fmt.Errorf("card pool: %w", err)
	}
	lib := &Library{Pool: pool, decks: lf.Decks, opponents: lf.Opponents, generator: lf.Generator}

	for _, deck := range lf.Decks {
		for _, entry := range deck.Cards {
			if pool.Lookup(entry.ID) == nil {
				return nil, fmt.Errorf("deck %q: unknown card id %d", deck.Name, entry.ID)
			}
			if entry.Count < 0 {
				return nil, fmt.Errorf("deck %q: negative count for card %d", deck.Name, entry.ID)
			}
		}
	}
	for _, opp := range lf.Opponents {
		for i, m := range opp.Moves {
			if m.Card == nil && m.CardID == nil && m.Cost == nil {
				return nil, fmt.Errorf("opponent %q move %d: no card selector", opp.Name, i)
			}
			if m.CardID != nil && pool.Lookup(*m.CardID) == nil {
				return nil, fmt.Errorf("opponent %q move %d: unknown card id %d", opp.Name, i, *m.CardID)
			}
			if m.Card != nil {
				if err := m.Card.Validate(); err != nil {
					return nil, fmt.Errorf("opponent %q move %d: %w", opp.Name, i, err)
				}
			}
			if m.Turn < 0 {
				return nil, fmt.Errorf("opponent %q move %d: negative turn", opp.Name, i)
			}
		}
	}
	return lib, nil
}

// DeckNames returns deck names in file order.
func (l *Library) DeckNames() []string {
	names := make([]string, len(l.decks))
	for i, d := range l.decks {
		names[i] = d.Name
	}
	return names
}

// OpponentNames returns opponent names in file order.
func (l *Library) OpponentNames() []string {
	names := make([]string, len(l.opponents))
	for i, o := range l.opponents {
		names[i] = o.Name
	}
	return names
}

// Deck expands a named deck into its card list.
func (l *Library) Deck(name string) ([]*CardDefinition, error) {
	for _, d := range l.decks {
		if d.Name == name {
			return l.expand(d), nil
		}
	}
	return nil, fmt.Errorf("deck %q not found", name)
}

// DeckByNumber returns the Nth deck (1-indexed).
func (l *Library) DeckByNumber(n int) (string, []*CardDefinition, error) {
	if n < 1 || n > len(l.decks) {
		return "", nil, fmt.Errorf("deck %d not found (have %d decks)", n, len(l.decks))
	}
	d := l.decks[n-1]
	return d.Name, l.expand(d), nil
}

func (l *Library) expand(d DeckEntry) []*CardDefinition {
	var cards []*CardDefinition
	for _, entry := range d.Cards {
		for i := 0; i < entry.Count; i++ {
			cards = append(cards, l.Pool.Lookup(entry.ID))
		}
	}
	return cards
}

// OpponentMoves returns a copy of a named opponent's script.
func (l *Library) OpponentMoves(name string) ([]OpponentMove, error) {
	for _, o := range l.opponents {
		if o.Name == name {
			return append([]OpponentMove(nil), o.Moves...), nil
		}
	}
	return nil, fmt.Errorf("opponent %q not found", name)
}

// Opponent builds a named opponent driven by rnd.
func (l *Library) Opponent(name string, rnd *Random, logger *zap.Logger) (*Opponent, error) {
	moves, err := l.OpponentMoves(name)
	if err != nil {
		return nil, err
	}
	return NewOpponent(l.Pool, moves, rnd, logger), nil
}

// DecodeGenerator decodes the library's generator section into v. It
// reports false when the section is absent.
func (l *Library) DecodeGenerator(v interface{}) (bool, error) {
	if l.generator.Kind == 0 {
		return false, nil
	}
	if err := l.generator.Decode(v); err != nil {
		return true, fmt.Errorf("parse generator section: %w", err)
	}
	return true, nil
}
