package combat

import (
	"fmt"
	"time"
)

// Rules holds the tunable numbers of the battle economy.
type Rules struct {
	DoubleAttackCost int
	// HealCost is the energy cost of heal. Zero makes heal free.
	HealCost        int
	HealMin         int
	HealMax         int
	DefendReduction int
	FleeChance      float64
	// EnergyRegen is granted at the end of each enemy turn that follows a
	// player turn other than double attack. Zero disables regeneration.
	EnergyRegen   int
	VictoryEnergy int
}

// DefaultRules returns the standard battle economy.
func DefaultRules() Rules {
	return Rules{
		DoubleAttackCost: 4,
		HealCost:         2,
		HealMin:          4,
		HealMax:          8,
		DefendReduction:  4,
		FleeChance:       0.4,
		EnergyRegen:      1,
		VictoryEnergy:    2,
	}
}

// Validate checks the rule invariants.
//
// Postcondition: Returns nil iff every cost and amount is >= 0,
// HealMin <= HealMax, and 0 <= FleeChance <= 1.
func (r Rules) Validate() error {
	switch {
	case r.DoubleAttackCost < 0:
		return fmt.Errorf("double_attack_cost must be >= 0, got %d", r.DoubleAttackCost)
	case r.HealCost < 0:
		return fmt.Errorf("heal_cost must be >= 0, got %d", r.HealCost)
	case r.HealMin < 0 || r.HealMin > r.HealMax:
		return fmt.Errorf("heal range must satisfy 0 <= heal_min <= heal_max, got [%d,%d]", r.HealMin, r.HealMax)
	case r.DefendReduction < 0:
		return fmt.Errorf("defend_reduction must be >= 0, got %d", r.DefendReduction)
	case r.FleeChance < 0 || r.FleeChance > 1:
		return fmt.Errorf("flee_chance must be in [0,1], got %g", r.FleeChance)
	case r.EnergyRegen < 0:
		return fmt.Errorf("energy_regen must be >= 0, got %d", r.EnergyRegen)
	case r.VictoryEnergy < 0:
		return fmt.Errorf("victory_energy must be >= 0, got %d", r.VictoryEnergy)
	}
	return nil
}

// Timings holds every fixed step duration of the battle timelines.
type Timings struct {
	Recoil     time.Duration
	Lunge      time.Duration
	ImpactHold time.Duration
	Return     time.Duration
	Settle     time.Duration

	EnemyThink      time.Duration
	EnemyLunge      time.Duration
	EnemyImpactHold time.Duration
	EnemyReturn     time.Duration

	HitFlash time.Duration
	// MessageInterval is the typewriter delay between revealed runes.
	MessageInterval time.Duration
	// MessagePad is added to a message's reveal time when it gates a turn.
	MessagePad       time.Duration
	FleeResultHold   time.Duration
	Outro            time.Duration
	PreemptiveBanner time.Duration
}

// DefaultTimings returns the standard choreography durations.
func DefaultTimings() Timings {
	return Timings{
		Recoil:           80 * time.Millisecond,
		Lunge:            100 * time.Millisecond,
		ImpactHold:       100 * time.Millisecond,
		Return:           120 * time.Millisecond,
		Settle:           250 * time.Millisecond,
		EnemyThink:       600 * time.Millisecond,
		EnemyLunge:       100 * time.Millisecond,
		EnemyImpactHold:  100 * time.Millisecond,
		EnemyReturn:      100 * time.Millisecond,
		HitFlash:         80 * time.Millisecond,
		MessageInterval:  30 * time.Millisecond,
		MessagePad:       300 * time.Millisecond,
		FleeResultHold:   time.Second,
		Outro:            2 * time.Second,
		PreemptiveBanner: time.Second,
	}
}

// AttackDuration returns the length of one player hit timeline.
func (t Timings) AttackDuration() time.Duration {
	return t.Recoil + t.Lunge + t.ImpactHold + t.Return + t.Settle
}
