package game

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// --- Enums ---

type Ability int

const (
	AbilityNone Ability = iota
	AbilityAgile
	AbilityGuard
	AbilityLethal
)

func (a Ability) String() string {
	switch a {
	case AbilityAgile:
		return "Agile"
	case AbilityGuard:
		return "Guard"
	case AbilityLethal:
		return "Lethal"
	default:
		return "None"
	}
}

// ParseAbility accepts the canonical names plus the legacy aliases
// Flying (Agile), Tall (Guard) and Poisoned (Lethal).
func ParseAbility(s string) (Ability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "agile", "flying":
		return AbilityAgile, nil
	case "guard", "tall":
		return AbilityGuard, nil
	case "lethal", "poisoned":
		return AbilityLethal, nil
	case "none", "":
		return AbilityNone, nil
	}
	return AbilityNone, fmt.Errorf("unknown ability %q", s)
}

// AbilitySet is a bit set of abilities. It is comparable, which keeps
// CardIdentity usable as a map key.
type AbilitySet uint8

func NewAbilitySet(abilities ...Ability) AbilitySet {
	var s AbilitySet
	for _, a := range abilities {
		s = s.With(a)
	}
	return s
}

func (s AbilitySet) Has(a Ability) bool {
	if a == AbilityNone {
		return false
	}
	return s&(1<<uint(a)) != 0
}

func (s AbilitySet) With(a Ability) AbilitySet {
	if a == AbilityNone {
		return s
	}
	return s | 1<<uint(a)
}

// List returns the abilities in declaration order.
func (s AbilitySet) List() []Ability {
	var out []Ability
	for _, a := range []Ability{AbilityAgile, AbilityGuard, AbilityLethal} {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s AbilitySet) String() string {
	list := s.List()
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = a.String()
	}
	return strings.Join(names, ",")
}

func (s *AbilitySet) UnmarshalYAML(value *yaml.Node) error {
	var names []string
	if err := value.Decode(&names); err != nil {
		return fmt.Errorf("abilities: %w", err)
	}
	var set AbilitySet
	for _, name := range names {
		a, err := ParseAbility(name)
		if err != nil {
			return err
		}
		set = set.With(a)
	}
	*s = set
	return nil
}

func (s AbilitySet) MarshalYAML() (interface{}, error) {
	var names []string
	for _, a := range s.List() {
		names = append(names, a.String())
	}
	return names, nil
}

// Cost is the blood cost tier: the number of sacrifices needed to play a card.
type Cost int

const (
	CostZero Cost = iota
	CostOne
	CostTwo
	CostThree
)

func (c Cost) String() string {
	switch c {
	case CostZero:
		return "Zero"
	case CostOne:
		return "One"
	case CostTwo:
		return "Two"
	case CostThree:
		return "Three"
	default:
		return fmt.Sprintf("Cost(%d)", int(c))
	}
}

func (c Cost) Valid() bool {
	return c >= CostZero && c <= CostThree
}

type Rarity int

const (
	RaritySacrifice Rarity = iota
	RarityCommon
	RarityUncommon
	RarityRare
)

func (r Rarity) String() string {
	switch r {
	case RaritySacrifice:
		return "Sacrifice"
	case RarityCommon:
		return "Common"
	case RarityUncommon:
		return "Uncommon"
	case RarityRare:
		return "Rare"
	default:
		return "Unknown"
	}
}

func ParseRarity(s string) (Rarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sacrifice":
		return RaritySacrifice, nil
	case "common":
		return RarityCommon, nil
	case "uncommon":
		return RarityUncommon, nil
	case "rare":
		return RarityRare, nil
	}
	return RarityCommon, fmt.Errorf("unknown rarity %q", s)
}

func (r *Rarity) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseRarity(value.Value)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Rarity) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

// --- Card definition (static, from the card library) ---

type CardDefinition struct {
	ID            int        `yaml:"id"`
	NameNoun      string     `yaml:"noun"`
	NameAdjective string     `yaml:"adjective"`
	Avatar        string     `yaml:"avatar,omitempty"`
	Attack        int        `yaml:"attack"`
	Health        int        `yaml:"health"`
	Abilities     AbilitySet `yaml:"abilities,omitempty"`
	Cost          Cost       `yaml:"cost"`
	Rarity        Rarity     `yaml:"rarity"`
}

// Name returns "adjective noun", or just the noun when there is no adjective.
func (c *CardDefinition) Name() string {
	if c.NameAdjective == "" {
		return c.NameNoun
	}
	return c.NameAdjective + " " + c.NameNoun
}

func (c *CardDefinition) String() string {
	return fmt.Sprintf("%s [%d/%d]", c.Name(), c.Attack, c.Health)
}

func (c *CardDefinition) HasAbility(a Ability) bool {
	return c.Abilities.Has(a)
}

// Validate checks the stat ranges of a definition.
func (c *CardDefinition) Validate() error {
	if c.Attack < 0 {
		return fmt.Errorf("card %q: attack must be >= 0, got %d", c.Name(), c.Attack)
	}
	if c.Health < 1 {
		return fmt.Errorf("card %q: health must be >= 1, got %d", c.Name(), c.Health)
	}
	if !c.Cost.Valid() {
		return fmt.Errorf("card %q: cost must be 0-3, got %d", c.Name(), int(c.Cost))
	}
	return nil
}

// CardIdentity is the stat identity of a card. Two definitions with equal
// identities are the same kind of card for performance reporting, whatever
// their pool ids.
type CardIdentity struct {
	Name      string
	Avatar    string
	Attack    int
	Health    int
	Abilities AbilitySet
	Cost      Cost
	Rarity    Rarity
}

func (c *CardDefinition) Identity() CardIdentity {
	return CardIdentity{
		Name:      c.Name(),
		Avatar:    c.Avatar,
		Attack:    c.Attack,
		Health:    c.Health,
		Abilities: c.Abilities,
		Cost:      c.Cost,
		Rarity:    c.Rarity,
	}
}

func (id CardIdentity) String() string {
	return fmt.Sprintf("%s [%d/%d]", id.Name, id.Attack, id.Health)
}

// --- CardInstance (runtime card in a deck, hand, lane or graveyard) ---

type CardInstance struct {
	Card           *CardDefinition
	ID             int // unique instance ID within a simulation run
	DamageReceived int
	DamageDealt    int
}

func (ci *CardInstance) String() string {
	if ci == nil {
		return "(empty)"
	}
	return fmt.Sprintf("%s#%d [%d/%d]", ci.Card.Name(), ci.ID, ci.Card.Attack, ci.RemainingHealth())
}

// RemainingHealth is health minus damage already received.
func (ci *CardInstance) RemainingHealth() int {
	return ci.Card.Health - ci.DamageReceived
}

func (ci *CardInstance) IsDead() bool {
	return ci.DamageReceived >= ci.Card.Health
}

// Copy returns a detached copy with the same ID. Copies compare equal by ID
// but not by pointer.
func (ci *CardInstance) Copy() *CardInstance {
	if ci == nil {
		return nil
	}
	cp := *ci
	return &cp
}

// IDSource hands out instance IDs for one simulation run.
type IDSource struct {
	next int
}

func NewIDSource() *IDSource {
	return &IDSource{next: 1}
}

// NewInstance wraps a definition in a fresh instance with the next ID.
func (s *IDSource) NewInstance(def *CardDefinition) *CardInstance {
	if s.next == 0 {
		s.next = 1
	}
	ci := &CardInstance{Card: def, ID: s.next}
	s.next++
	return ci
}

// Instances wraps each definition in order.
func (s *IDSource) Instances(defs []*CardDefinition) []*CardInstance {
	out := make([]*CardInstance, len(defs))
	for i, def := range defs {
		out[i] = s.NewInstance(def)
	}
	return out
}

// --- Invariant violations ---

// InvariantError reports an engine invariant violation. These are raised with
// panic and only the simulator recovers them.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Op, e.Msg)
}

func invariant(op, format string, args ...interface{}) {
	panic(&InvariantError{Op: op, Msg: fmt.Sprintf(format, args...)})
}
