// Package combat implements the turn engine of a one-on-one battle: the state
// machine deciding whose turn it is, action legality and effects, and the
// choreographed timelines that gate each turn handoff.
package combat

// Side identifies a participant in the encounter.
type Side int

const (
	SideNone Side = iota
	SidePlayer
	SideEnemy
)

// String returns the lowercase side name.
func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideEnemy:
		return "enemy"
	default:
		return "none"
	}
}

// State is a turn engine state.
type State int

const (
	// StatePending is the state of an encounter that has not been started.
	StatePending State = iota
	StatePlayerTurn
	StateEnemyTurn
	// StateResolving holds while an action's effects are computed but its
	// timeline has not finished.
	StateResolving
	StateEnded
)

// String returns a human-readable state label.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePlayerTurn:
		return "player-turn"
	case StateEnemyTurn:
		return "enemy-turn"
	case StateResolving:
		return "resolving"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Outcome is how an ended encounter finished.
type Outcome int

const (
	OutcomeNone Outcome = iota
	Victory
	Defeat
	Fled
	// Aborted is the outcome of an encounter closed from outside mid-battle.
	Aborted
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case Victory:
		return "victory"
	case Defeat:
		return "defeat"
	case Fled:
		return "fled"
	case Aborted:
		return "aborted"
	default:
		return "none"
	}
}

// Combatant represents one participant in a battle, either the player or the enemy.
type Combatant struct {
	ID        string
	Name      string
	MaxHP     int
	CurrentHP int
	DamageMin int
	DamageMax int
	// Speed feeds initiative. Zero means no speed stat.
	Speed int
}

// IsDead reports whether the combatant has no hit points left.
//
// Postcondition: Returns true iff CurrentHP <= 0.
func (c *Combatant) IsDead() bool {
	return c.CurrentHP <= 0
}

// ApplyDamage reduces CurrentHP by amount, flooring at zero.
// Precondition: amount must be >= 0.
// Postcondition: CurrentHP >= 0.
func (c *Combatant) ApplyDamage(amount int) {
	c.CurrentHP -= amount
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
}

// Heal raises CurrentHP by amount, capped at MaxHP, and returns the HP restored.
// Precondition: amount must be >= 0.
// Postcondition: CurrentHP <= MaxHP.
func (c *Combatant) Heal(amount int) int {
	before := c.CurrentHP
	c.CurrentHP += amount
	if c.CurrentHP > c.MaxHP {
		c.CurrentHP = c.MaxHP
	}
	return c.CurrentHP - before
}
