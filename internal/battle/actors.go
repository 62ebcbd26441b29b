// Package battle owns the encounter lifecycle: it starts a turn engine when an
// overworld trigger fires, drives it from the frame loop, and tears it down
// when the battle ends, writing results back to the overworld.
package battle

import (
	"context"

	"github.com/cory-johannsen/wasteland/internal/game/combat"
	"github.com/cory-johannsen/wasteland/internal/scripting"
)

// Actor is an overworld actor hidden while a battle is shown.
type Actor interface {
	SetVisible(v bool)
}

// EnemyActor is the overworld enemy that triggered an encounter.
type EnemyActor interface {
	Actor
	SpawnID() string
	Destroy()
}

// Registry records which spawns have been permanently cleared.
type Registry interface {
	MarkDefeated(ctx context.Context, spawnID, enemyID, encounterID string) error
	IsDefeated(ctx context.Context, spawnID string) (bool, error)
}

// HookRunner runs an enemy's on_defeat hook against the player's progress.
type HookRunner interface {
	RunDefeatHook(ctx context.Context, hook string, ev scripting.DefeatEvent, p scripting.Progress) error
}

// Scene identifies a top-level game scene.
type Scene int

const (
	SceneOverworld Scene = iota
	SceneBattle
	SceneDefeat
)

// String returns the scene name.
func (s Scene) String() string {
	switch s {
	case SceneOverworld:
		return "overworld"
	case SceneBattle:
		return "battle"
	case SceneDefeat:
		return "defeat"
	default:
		return "unknown"
	}
}

// SceneRouter switches the active scene.
type SceneRouter interface {
	Goto(s Scene)
}

// SceneFunc adapts a function to a SceneRouter.
type SceneFunc func(Scene)

// Goto implements SceneRouter.
func (f SceneFunc) Goto(s Scene) { f(s) }

// sceneFor returns where the game goes once a battle with outcome o is torn down.
func sceneFor(o combat.Outcome) Scene {
	if o == combat.Defeat {
		return SceneDefeat
	}
	return SceneOverworld
}
