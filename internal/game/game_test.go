package game

import (
	"errors"
	"testing"
)

func expectInvariant(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected an invariant panic")
		}
		err, ok := r.(error)
		var inv *InvariantError
		if !ok || !errors.As(err, &inv) {
			t.Fatalf("expected *InvariantError, got %#v", r)
		}
	}()
	fn()
}

// TestDeckDrawsFromEnd: the top of the deck is the last card.
func TestDeckDrawsFromEnd(t *testing.T) {
	a, b, c := instance(sacrifice("A"), 1), instance(sacrifice("B"), 2), instance(sacrifice("C"), 3)
	deck := NewDeck([]*CardInstance{a, b, c}, nil)

	if deck.PeekTop() != c {
		t.Fatalf("PeekTop = %v, want C", deck.PeekTop())
	}
	if deck.Remaining() != 3 {
		t.Errorf("PeekTop must not draw, remaining = %d", deck.Remaining())
	}
	if got := deck.DrawFromTop(); got != c {
		t.Errorf("first draw = %v, want C", got)
	}
	if got := deck.DrawFromTop(); got != b {
		t.Errorf("second draw = %v, want B", got)
	}
	if deck.Remaining() != 1 {
		t.Errorf("remaining = %d, want 1", deck.Remaining())
	}
	deck.DrawFromTop()
	if !deck.Empty() {
		t.Error("deck should be empty")
	}
	expectInvariant(t, func() { deck.DrawFromTop() })
	expectInvariant(t, func() { deck.PeekTop() })
}

// TestDeckCloneIsDeep: drawing or damaging a clone leaves the original alone.
func TestDeckCloneIsDeep(t *testing.T) {
	deck := NewDeck([]*CardInstance{instance(sacrifice("A"), 1), instance(sacrifice("B"), 2)}, nil)
	clone := deck.Clone()
	top := clone.DrawFromTop()
	top.DamageReceived = 1

	if deck.Remaining() != 2 {
		t.Errorf("original remaining = %d, want 2", deck.Remaining())
	}
	if deck.PeekTop().DamageReceived != 0 {
		t.Error("damage on clone leaked into original")
	}
	if deck.PeekTop().ID != top.ID {
		t.Error("clone should keep instance IDs")
	}
}

// TestShuffleDeterministic: the same seed yields the same order.
func TestShuffleDeterministic(t *testing.T) {
	build := func() []int {
		ids := NewIDSource()
		cards := make([]*CardDefinition, 8)
		for i := range cards {
			cards[i] = sacrifice("S")
		}
		deck := NewDeck(ids.Instances(cards), NewRandom(42))
		var out []int
		for !deck.Empty() {
			out = append(out, deck.DrawFromTop().ID)
		}
		return out
	}
	a, b := build(), build()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("shuffles differ at %d: %v vs %v", i, a, b)
		}
	}
}

// TestRandomSnapshot: a snapshot continues with the same values.
func TestRandomSnapshot(t *testing.T) {
	r := NewRandom(7)
	r.Intn(10)
	r.Intn(10)
	snap := r.Snapshot()
	if snap.N() != r.N() {
		t.Fatalf("snapshot N = %d, want %d", snap.N(), r.N())
	}
	for i := 0; i < 20; i++ {
		if a, b := r.Intn(1000), snap.Intn(1000); a != b {
			t.Fatalf("draw %d: %d != %d", i, a, b)
		}
	}
	if NewRandom(0).Seed() != 1 {
		t.Error("seed 0 should map to 1")
	}
}

// TestSelectWeighted: zero weights never win.
func TestSelectWeighted(t *testing.T) {
	r := NewRandom(3)
	for i := 0; i < 50; i++ {
		if got := SelectWeighted(r, []string{"a", "b", "c"}, []int{0, 5, 0}); got != "b" {
			t.Fatalf("got %q, want b", got)
		}
	}
	if got := SelectWeighted(r, []string{"a", "b"}, []int{0, 0}); got != "a" {
		t.Errorf("all-zero weights: got %q, want a", got)
	}
}

// TestLanesPlayAndRemove covers placement, occupancy and column-major removal.
func TestLanesPlayAndRemove(t *testing.T) {
	lanes := NewLanes()
	p := instance(creature("P", 1, 1, CostOne), 1)
	e := instance(creature("E", 1, 1, CostOne), 2)

	lanes.PlayCard(p, 2, false)
	lanes.PlayCard(e, 2, true)
	if lanes.CardAt(2, RowPlayer) != p {
		t.Error("player card not in player row")
	}
	if lanes.CardAt(2, RowEnemyStaged) != e {
		t.Error("enemy card should be staged")
	}
	if lanes.CardAt(2, RowEnemy) != nil {
		t.Error("enemy card should not be active yet")
	}
	expectInvariant(t, func() { lanes.PlayCard(instance(sacrifice("X"), 3), 2, false) })
	expectInvariant(t, func() { lanes.PlayCard(instance(sacrifice("X"), 3), 4, false) })

	if col := lanes.LaneColumn(p); col != 2 {
		t.Errorf("LaneColumn = %d, want 2", col)
	}
	if col := lanes.LaneColumn(p.Copy()); col != -1 {
		t.Errorf("LaneColumn of a copy = %d, want -1", col)
	}

	if !lanes.TryRemoveByID(2) {
		t.Fatal("TryRemoveByID(2) should succeed")
	}
	if lanes.TryRemoveByID(2) {
		t.Error("second removal should fail")
	}
	if lanes.CardAt(2, RowPlayer) != p {
		t.Error("removal of enemy card cleared the player slot")
	}
}

// TestPromoteStagedCards: staged cards move up only into empty active slots.
func TestPromoteStagedCards(t *testing.T) {
	lanes := NewLanes()
	blocker := instance(creature("Blocker", 1, 1, CostOne), 1)
	lanes.SetCard(0, RowEnemy, blocker)
	lanes.PlayCard(instance(creature("A", 1, 1, CostOne), 2), 0, true)
	lanes.PlayCard(instance(creature("B", 1, 1, CostOne), 3), 1, true)

	promoted := lanes.PromoteStagedCards()
	if len(promoted) != 1 || promoted[0].ID != 3 {
		t.Fatalf("promoted = %v, want only B", promoted)
	}
	if lanes.CardAt(0, RowEnemy) != blocker || lanes.CardAt(0, RowEnemyStaged) == nil {
		t.Error("column 0 should stay staged behind the blocker")
	}
	if lanes.CardAt(1, RowEnemy) == nil || lanes.CardAt(1, RowEnemyStaged) != nil {
		t.Error("column 1 should have been promoted")
	}
	if got := lanes.RowAttack(RowEnemy); got != 2 {
		t.Errorf("enemy row attack = %d, want 2", got)
	}
}

// TestLanesClone: clone holds copies with the same IDs.
func TestLanesClone(t *testing.T) {
	lanes := NewLanes()
	c := instance(creature("C", 2, 2, CostOne), 9)
	lanes.PlayCard(c, 0, false)
	clone := lanes.Clone()
	clone.CardAt(0, RowPlayer).DamageReceived = 1
	if c.DamageReceived != 0 {
		t.Error("clone shares instances with original")
	}
	if clone.CardAt(0, RowPlayer).ID != 9 {
		t.Error("clone changed instance id")
	}
}

// TestCombatRules covers blocking and damage.
func TestCombatRules(t *testing.T) {
	plain := instance(creature("Plain", 2, 3, CostOne), 1)
	agile := instance(creature("Agile", 2, 3, CostOne, AbilityAgile), 2)
	guard := instance(creature("Guard", 1, 5, CostOne, AbilityGuard), 3)
	lethal := instance(creature("Lethal", 1, 1, CostOne, AbilityLethal), 4)

	if IsBlocked(plain, nil) {
		t.Error("nil defender never blocks")
	}
	if !IsBlocked(plain, plain) {
		t.Error("plain vs plain is blocked")
	}
	if IsBlocked(agile, plain) {
		t.Error("agile passes over a plain defender")
	}
	if !IsBlocked(agile, guard) {
		t.Error("guard blocks agile")
	}
	if !IsBlocked(agile, agile) {
		t.Error("agile blocks agile")
	}
	expectInvariant(t, func() { IsBlocked(nil, plain) })

	if got := CardDamage(nil, plain); got != 0 {
		t.Errorf("nil attacker damage = %d", got)
	}
	if got := CardDamage(plain, nil); got != 2 {
		t.Errorf("direct damage = %d, want 2", got)
	}
	guard.DamageReceived = 2
	if got := CardDamage(lethal, guard); got != 3 {
		t.Errorf("lethal damage = %d, want remaining health 3", got)
	}
	ox := instance(creature("Ox", 1, 7, CostThree), 6)
	if got := CardDamage(lethal, ox); got != 7 {
		t.Errorf("lethal vs fresh defender = %d, want 7", got)
	}
	if got := CardDamage(lethal, nil); got != 1 {
		t.Errorf("lethal direct damage = %d, want attack 1", got)
	}
	zero := instance(sacrifice("Zero"), 5)
	if IsAttacking(zero, nil) {
		t.Error("0-attack card is not attacking")
	}
}

// TestIdentityIgnoresPoolID: identical stats share an identity.
func TestIdentityIgnoresPoolID(t *testing.T) {
	a := creature("Wolf", 2, 2, CostTwo)
	b := creature("Wolf", 2, 2, CostTwo)
	a.ID, b.ID = 1, 2
	if a.Identity() != b.Identity() {
		t.Error("identities should match")
	}
	b.Abilities = NewAbilitySet(AbilityAgile)
	if a.Identity() == b.Identity() {
		t.Error("abilities are part of the identity")
	}
}

// TestIDSourceMonotonic: ids start at 1 and are scoped to the source.
func TestIDSourceMonotonic(t *testing.T) {
	s1, s2 := NewIDSource(), NewIDSource()
	def := sacrifice("S")
	if id := s1.NewInstance(def).ID; id != 1 {
		t.Errorf("first id = %d, want 1", id)
	}
	if id := s1.NewInstance(def).ID; id != 2 {
		t.Errorf("second id = %d, want 2", id)
	}
	if id := s2.NewInstance(def).ID; id != 1 {
		t.Errorf("independent source started at %d", id)
	}
}
