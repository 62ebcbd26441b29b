package combat

import (
	"fmt"

	"github.com/cory-johannsen/wasteland/internal/game/inventory"
)

// PlayerProgress is the player state that outlives a single battle.
//
// An Encounter owns its own copy for the whole battle and is the only writer
// of HP and Energy; the lifecycle merges the copy back on teardown.
type PlayerProgress struct {
	HP        int
	MaxHP     int
	Energy    int
	MaxEnergy int
	Weapon    inventory.Weapon
	// Speed feeds initiative. Zero means no speed stat.
	Speed int
	// Flags are story flags set by defeat hooks.
	Flags map[string]bool
}

// NewPlayerProgress returns the state of a new game carrying weapon.
//
// Postcondition: HP 15/30, energy 6/10, speed 5, no flags.
func NewPlayerProgress(weapon inventory.Weapon) PlayerProgress {
	return PlayerProgress{
		HP:        15,
		MaxHP:     30,
		Energy:    6,
		MaxEnergy: 10,
		Weapon:    weapon,
		Speed:     5,
		Flags:     map[string]bool{},
	}
}

// Clone returns a deep copy.
func (p PlayerProgress) Clone() PlayerProgress {
	flags := make(map[string]bool, len(p.Flags))
	for k, v := range p.Flags {
		flags[k] = v
	}
	p.Flags = flags
	return p
}

// Validate checks the progress invariants.
//
// Postcondition: Returns nil iff MaxHP >= 1, 0 <= HP <= MaxHP,
// 0 <= Energy <= MaxEnergy, Speed >= 0, and the weapon is valid.
func (p PlayerProgress) Validate() error {
	if p.MaxHP < 1 {
		return fmt.Errorf("player progress: max hp must be >= 1, got %d", p.MaxHP)
	}
	if p.HP < 0 || p.HP > p.MaxHP {
		return fmt.Errorf("player progress: hp %d outside [0,%d]", p.HP, p.MaxHP)
	}
	if p.MaxEnergy < 0 || p.Energy < 0 || p.Energy > p.MaxEnergy {
		return fmt.Errorf("player progress: energy %d outside [0,%d]", p.Energy, p.MaxEnergy)
	}
	if p.Speed < 0 {
		return fmt.Errorf("player progress: speed must be >= 0, got %d", p.Speed)
	}
	if err := p.Weapon.Validate(); err != nil {
		return fmt.Errorf("player progress: %w", err)
	}
	return nil
}

// GainEnergy adds n energy capped at MaxEnergy and returns the amount gained.
//
// Precondition: n >= 0.
// Postcondition: 0 <= Energy <= MaxEnergy.
func (p *PlayerProgress) GainEnergy(n int) int {
	before := p.Energy
	p.Energy += n
	if p.Energy > p.MaxEnergy {
		p.Energy = p.MaxEnergy
	}
	return p.Energy - before
}

// SpendEnergy removes n energy if affordable.
//
// Precondition: n >= 0.
// Postcondition: Returns false, with Energy unchanged, when Energy < n.
func (p *PlayerProgress) SpendEnergy(n int) bool {
	if p.Energy < n {
		return false
	}
	p.Energy -= n
	return true
}

// TakeDamage reduces HP by n, flooring at zero.
func (p *PlayerProgress) TakeDamage(n int) {
	p.HP -= n
	if p.HP < 0 {
		p.HP = 0
	}
}

// Heal raises HP by n capped at MaxHP and returns the HP restored.
func (p *PlayerProgress) Heal(n int) int {
	before := p.HP
	p.HP += n
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
	return p.HP - before
}

// Flag reports whether a story flag is set.
func (p *PlayerProgress) Flag(name string) bool {
	return p.Flags[name]
}

// SetFlag records a story flag.
func (p *PlayerProgress) SetFlag(name string, v bool) {
	if p.Flags == nil {
		p.Flags = map[string]bool{}
	}
	p.Flags[name] = v
}
