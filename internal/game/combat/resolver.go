package combat

// Roller is the subset of dice.Roller used by the engine: labelled inclusive
// ranges and probability checks.
type Roller interface {
	Between(label string, min, max int) int
	Chance(label string, p float64) bool
}

// RollDamage draws a physical hit uniformly from [min, max].
//
// Precondition: 0 <= min <= max.
// Postcondition: min <= result <= max.
func RollDamage(r Roller, label string, min, max int) int {
	return r.Between(label, min, max)
}

// RollHeal draws a heal amount from the configured range.
//
// Postcondition: rules.HealMin <= result <= rules.HealMax.
func RollHeal(r Roller, rules Rules) int {
	return r.Between("heal", rules.HealMin, rules.HealMax)
}
