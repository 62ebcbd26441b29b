package combat

import (
	"fmt"
	"strings"
)

// ActionType identifies what a combatant does on their turn.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionType int

const (
	ActionUnknown      ActionType = iota // zero value; intentionally invalid
	ActionAttack                         // one weapon hit
	ActionDefend                         // flat reduction of the next incoming hit
	ActionFly                            // evade the next incoming hit
	ActionHeal                           // restore HP, may cost energy
	ActionDoubleAttack                   // two weapon hits, costs energy
	ActionFlee                           // chance to end the encounter
	ActionStrike                         // the enemy's attack
)

var actionNames = map[ActionType]string{
	ActionAttack:       "attack",
	ActionDefend:       "defend",
	ActionFly:          "fly",
	ActionHeal:         "heal",
	ActionDoubleAttack: "double-attack",
	ActionFlee:         "flee",
	ActionStrike:       "strike",
}

// PlayerActions lists the player's actions in menu order.
var PlayerActions = []ActionType{
	ActionAttack, ActionDefend, ActionFly, ActionHeal, ActionDoubleAttack, ActionFlee,
}

// Cost returns the energy cost of the action under rules.
// Postcondition: returns >= 0; 0 for actions without a cost.
func (a ActionType) Cost(rules Rules) int {
	switch a {
	case ActionDoubleAttack:
		return rules.DoubleAttackCost
	case ActionHeal:
		return rules.HealCost
	default:
		return 0
	}
}

// Actor returns the side allowed to take the action.
func (a ActionType) Actor() Side {
	switch a {
	case ActionUnknown:
		return SideNone
	case ActionStrike:
		return SideEnemy
	default:
		return SidePlayer
	}
}

// Valid reports whether a is a known action.
func (a ActionType) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

// String returns the action name, or "unknown".
func (a ActionType) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// ParseAction converts a name or common alias into an ActionType.
//
// Postcondition: Returns ActionUnknown and an error for unrecognized input.
func ParseAction(s string) (ActionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attack", "a":
		return ActionAttack, nil
	case "defend", "d", "brace":
		return ActionDefend, nil
	case "fly", "evade":
		return ActionFly, nil
	case "heal", "mend", "h":
		return ActionHeal, nil
	case "double-attack", "double", "da":
		return ActionDoubleAttack, nil
	case "flee", "run":
		return ActionFlee, nil
	case "strike":
		return ActionStrike, nil
	default:
		return ActionUnknown, fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}
