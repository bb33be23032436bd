package game

import "testing"

// creature builds a plain creature definition.
func creature(name string, attack, health int, cost Cost, abilities ...Ability) *CardDefinition {
	return &CardDefinition{
		NameNoun:  name,
		Attack:    attack,
		Health:    health,
		Cost:      cost,
		Rarity:    RarityCommon,
		Abilities: NewAbilitySet(abilities...),
	}
}

func sacrifice(name string) *CardDefinition {
	return &CardDefinition{NameNoun: name, Attack: 0, Health: 1, Cost: CostZero, Rarity: RaritySacrifice}
}

// instance wraps a definition with a fixed ID.
func instance(def *CardDefinition, id int) *CardInstance {
	return &CardInstance{Card: def, ID: id}
}

func intPtr(v int) *int { return &v }

func mustParseLibrary(t *testing.T, src string) *Library {
	t.Helper()
	lib, err := ParseLibrary([]byte(src))
	if err != nil {
		t.Fatalf("ParseLibrary: %v", err)
	}
	return lib
}
