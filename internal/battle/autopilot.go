package battle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cory-johannsen/wasteland/internal/game/combat"
)

// ErrStalled is returned by Drive when an encounter outlives its time limit.
var ErrStalled = errors.New("battle: encounter did not finish in time")

// ParseActions parses a comma-separated list of player action names.
//
// Postcondition: Returns at least one player action, or an error naming the
// first unknown or empty entry.
func ParseActions(list string) ([]combat.ActionType, error) {
	var out []combat.ActionType
	for _, name := range strings.Split(list, ",") {
		a, err := combat.ParseAction(name)
		if err != nil {
			return nil, err
		}
		if a.Actor() != combat.SidePlayer {
			return nil, fmt.Errorf("%w: %q is not a player action", combat.ErrUnknownAction, name)
		}
		out = append(out, a)
	}
	return out, nil
}

// Autopilot plays the player's side of an encounter from a fixed action cycle.
// An action the player cannot afford, or a heal at full health, falls back to
// a plain attack so the turn is never wasted.
type Autopilot struct {
	actions []combat.ActionType
	next    int
	// Chosen counts the actions submitted, including fallbacks.
	Chosen map[combat.ActionType]int
}

// NewAutopilot cycles through actions in order.
//
// Precondition: actions must be non-empty.
func NewAutopilot(actions []combat.ActionType) (*Autopilot, error) {
	if len(actions) == 0 {
		return nil, errors.New("battle: autopilot needs at least one action")
	}
	return &Autopilot{
		actions: append([]combat.ActionType(nil), actions...),
		Chosen:  make(map[combat.ActionType]int),
	}, nil
}

// Tick submits the next action when the player is awaiting input, then
// advances the manager by dt.
func (a *Autopilot) Tick(ctx context.Context, m *Manager, dt time.Duration) error {
	if enc := m.Current(); enc != nil && enc.State() == combat.StatePlayerTurn && !enc.AwaitingResolution() {
		act := a.actions[a.next%len(a.actions)]
		a.next++
		err := m.Act(act)
		var short *combat.InsufficientEnergyError
		if errors.As(err, &short) || errors.Is(err, combat.ErrFullHealth) {
			act = combat.ActionAttack
			err = m.Act(act)
		}
		if err != nil {
			return fmt.Errorf("battle: autopilot %s: %w", act, err)
		}
		a.Chosen[act]++
	}
	return m.Update(ctx, dt)
}

// Drive ticks the live encounter in steps of dt until it is torn down, without
// waiting on the wall clock.
//
// Postcondition: Returns ErrStalled when more than limit of simulated time passes.
func (a *Autopilot) Drive(ctx context.Context, m *Manager, dt, limit time.Duration) error {
	var elapsed time.Duration
	for m.InBattle() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if elapsed > limit {
			return fmt.Errorf("%w after %s", ErrStalled, limit)
		}
		if err := a.Tick(ctx, m, dt); err != nil {
			return err
		}
		elapsed += dt
	}
	return nil
}
