package combat

import (
	"errors"
	"fmt"
)

var (
	// ErrNotStarted is returned when acting before Start.
	ErrNotStarted = errors.New("encounter not started")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("encounter already started")
	// ErrNotYourTurn is returned when the player acts outside the player's turn,
	// or requests an enemy-only action.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrResolving is returned while an action's timeline is still playing.
	ErrResolving = errors.New("action still resolving")
	// ErrEnded is returned once the encounter has ended.
	ErrEnded = errors.New("encounter has ended")
	// ErrFullHealth is returned when healing at maximum HP.
	ErrFullHealth = errors.New("already at full health")
	// ErrUnknownAction is returned for an action the engine does not know.
	ErrUnknownAction = errors.New("unknown action")
)

// InsufficientEnergyError is returned when the player cannot afford an action.
// It is the only rejection that is shown to the player.
type InsufficientEnergyError struct {
	Action ActionType
	Needs  int
	Have   int
}

func (e *InsufficientEnergyError) Error() string {
	return fmt.Sprintf("insufficient energy for %s: need %d, have %d", e.Action, e.Needs, e.Have)
}

// Message returns the one-line text shown in the battle log.
func (e *InsufficientEnergyError) Message() string {
	return fmt.Sprintf("Not enough energy. (Needs %d)", e.Needs)
}
