package game

// CardDamage is the damage attacker deals to defender (or to the opposing
// side when defender is nil). Lethal kills any defender outright.
func CardDamage(attacker, defender *CardInstance) int {
	if attacker == nil {
		return 0
	}
	if defender != nil && attacker.Card.HasAbility(AbilityLethal) {
		return defender.RemainingHealth()
	}
	return attacker.Card.Attack
}

// IsBlocked reports whether defender intercepts attacker. Agile attackers
// pass over defenders that are neither Agile nor Guard.
func IsBlocked(attacker, defender *CardInstance) bool {
	if attacker == nil {
		invariant("IsBlocked", "attacker is nil")
	}
	if defender == nil {
		return false
	}
	if attacker.Card.HasAbility(AbilityAgile) &&
		!defender.Card.HasAbility(AbilityAgile) &&
		!defender.Card.HasAbility(AbilityGuard) {
		return false
	}
	return true
}

func IsAttacking(attacker, defender *CardInstance) bool {
	return CardDamage(attacker, defender) > 0
}
