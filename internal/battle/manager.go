package battle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/wasteland/internal/game/choreography"
	"github.com/cory-johannsen/wasteland/internal/game/combat"
	"github.com/cory-johannsen/wasteland/internal/game/dice"
	"github.com/cory-johannsen/wasteland/internal/game/npc"
	"github.com/cory-johannsen/wasteland/internal/game/sprite"
	"github.com/cory-johannsen/wasteland/internal/observability"
	"github.com/cory-johannsen/wasteland/internal/scripting"
)

var (
	// ErrAlreadyInBattle is returned by Start while another encounter is live.
	ErrAlreadyInBattle = errors.New("battle: an encounter is already in progress")
	// ErrNoBattle is returned when acting without a live encounter.
	ErrNoBattle = errors.New("battle: no encounter in progress")
	// ErrSpawnCleared is returned when a cleared spawn triggers an encounter.
	ErrSpawnCleared = errors.New("battle: spawn already cleared")
)

// Deps holds the collaborators of a Manager.
type Deps struct {
	Rules   combat.Rules
	Timings combat.Timings
	// Dice draws every roll and picks random enemies.
	Dice     *dice.Roller
	Catalog  *npc.Catalog
	Registry Registry
	// Hooks may be nil, in which case on_defeat hooks are skipped.
	Hooks  HookRunner
	Router SceneRouter
	// Stage receives choreography cues. Nil discards them.
	Stage  choreography.Stage
	Logger *zap.Logger
	// NewID generates encounter ids. Nil uses random UUIDs.
	NewID func() string
	// OnFinish, when set, is called after every teardown. Router and OnFinish
	// run with the Manager locked and must not call back into it.
	OnFinish func(Result)
}

// Result summarises a torn-down encounter.
type Result struct {
	EncounterID string
	EnemyID     string
	SpawnID     string
	Outcome     combat.Outcome
	Progress    combat.PlayerProgress
	Log         []string
	Duration    time.Duration
}

type session struct {
	id      string
	enc     *combat.Encounter
	tmpl    *npc.Template
	enemy   EnemyActor
	player  Actor
	visual  sprite.Visual
	logger  *zap.Logger
	elapsed time.Duration
}

// Manager runs at most one encounter at a time and owns the player's progress
// between encounters.
//
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	deps     Deps
	progress combat.PlayerProgress
	current  *session
}

// NewManager creates an idle Manager holding progress.
//
// Precondition: deps.Dice, deps.Catalog, deps.Registry and deps.Router must be non-nil.
// Postcondition: Returns an error if progress or the rules are invalid.
func NewManager(deps Deps, progress combat.PlayerProgress) (*Manager, error) {
	if deps.Dice == nil || deps.Catalog == nil || deps.Registry == nil || deps.Router == nil {
		return nil, errors.New("battle: dice, catalog, registry and router are required")
	}
	if err := deps.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("battle: %w", err)
	}
	if err := progress.Validate(); err != nil {
		return nil, fmt.Errorf("battle: %w", err)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &Manager{deps: deps, progress: progress.Clone()}, nil
}

// Start opens an encounter against tmpl triggered by enemy. A nil tmpl picks a
// random template from the catalog; a nil enemy is a debug trigger with no
// overworld actor. Both actors are hidden until teardown.
//
// Postcondition: On error nothing is hidden and no encounter is live.
func (m *Manager) Start(ctx context.Context, tmpl *npc.Template, enemy EnemyActor, player Actor, preemptive bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return "", ErrAlreadyInBattle
	}
	if tmpl == nil {
		picked, err := m.deps.Catalog.Pick(m.deps.Dice)
		if err != nil {
			return "", fmt.Errorf("battle: picking enemy: %w", err)
		}
		tmpl = picked
	}
	spawnID := ""
	if enemy != nil {
		spawnID = enemy.SpawnID()
		cleared, err := m.deps.Registry.IsDefeated(ctx, spawnID)
		if err != nil {
			return "", fmt.Errorf("battle: checking spawn %q: %w", spawnID, err)
		}
		if cleared {
			return "", fmt.Errorf("%w: %q", ErrSpawnCleared, spawnID)
		}
	}

	visual, err := m.deps.Catalog.Visual(tmpl)
	if err != nil {
		return "", fmt.Errorf("battle: resolving enemy visual: %w", err)
	}

	id := m.deps.NewID()
	logger := observability.ForEncounter(m.deps.Logger, id, tmpl.ID, spawnID)
	enc, err := combat.NewEncounter(combat.EncounterConfig{
		ID: id,
		Enemy: combat.Combatant{
			ID:        tmpl.ID,
			Name:      tmpl.Name,
			MaxHP:     tmpl.MaxHP,
			CurrentHP: tmpl.MaxHP,
			DamageMin: tmpl.DamageMin,
			DamageMax: tmpl.DamageMax,
			Speed:     tmpl.Speed,
		},
		Progress:   m.progress,
		Rules:      m.deps.Rules,
		Timings:    m.deps.Timings,
		Roller:     m.deps.Dice,
		Stage:      m.deps.Stage,
		Logger:     logger,
		Preemptive: preemptive,
	})
	if err != nil {
		return "", fmt.Errorf("battle: %w", err)
	}
	if err := enc.Start(); err != nil {
		return "", fmt.Errorf("battle: %w", err)
	}

	if enemy != nil {
		enemy.SetVisible(false)
	}
	if player != nil {
		player.SetVisible(false)
	}
	m.current = &session{
		id:     id,
		enc:    enc,
		tmpl:   tmpl,
		enemy:  enemy,
		player: player,
		visual: visual,
		logger: logger,
	}
	logger.Info("battle start", zap.Bool("preemptive", preemptive))
	m.deps.Router.Goto(SceneBattle)
	return id, nil
}

// Act forwards a player action to the live encounter.
func (m *Manager) Act(a combat.ActionType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNoBattle
	}
	return m.current.enc.Act(a)
}

// Update advances the live encounter by dt and tears it down once it has
// finished. It is a no-op without a live encounter.
//
// Postcondition: InBattle() is false after the call that observes the end.
func (m *Manager) Update(ctx context.Context, dt time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	m.current.elapsed += dt
	m.current.enc.Update(dt)
	if !m.current.enc.Finished() {
		return nil
	}
	return m.teardown(ctx)
}

// CloseOverlay aborts the live encounter and tears it down immediately.
func (m *Manager) CloseOverlay(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNoBattle
	}
	m.current.logger.Info("battle overlay closed")
	m.current.enc.Abort()
	return m.teardown(ctx)
}

// teardown merges the encounter's progress back, settles the overworld
// actors, records a victory, and routes to the next scene.
//
// Precondition: m.mu is held and m.current is non-nil.
func (m *Manager) teardown(ctx context.Context) error {
	s := m.current
	m.current = nil

	outcome := s.enc.Outcome()
	progress := s.enc.Progress()
	spawnID := ""
	if s.enemy != nil {
		spawnID = s.enemy.SpawnID()
	}

	var errs []error
	if outcome == combat.Victory {
		if s.enemy != nil {
			if err := m.deps.Registry.MarkDefeated(ctx, spawnID, s.tmpl.ID, s.id); err != nil {
				errs = append(errs, fmt.Errorf("battle: recording defeat of %q: %w", spawnID, err))
			}
		}
		if m.deps.Hooks != nil && s.tmpl.OnDefeat != "" {
			ev := scripting.DefeatEvent{
				EncounterID: s.id,
				EnemyID:     s.tmpl.ID,
				EnemyName:   s.tmpl.Name,
				SpawnID:     spawnID,
			}
			if err := m.deps.Hooks.RunDefeatHook(ctx, s.tmpl.OnDefeat, ev, &progress); err != nil {
				s.logger.Warn("on_defeat hook failed", zap.String("hook", s.tmpl.OnDefeat), zap.Error(err))
			}
		}
		if s.enemy != nil {
			s.enemy.Destroy()
		}
	} else if s.enemy != nil {
		s.enemy.SetVisible(true)
	}
	if s.player != nil {
		s.player.SetVisible(true)
	}

	m.progress = progress
	scene := sceneFor(outcome)
	s.logger.Info("battle teardown",
		zap.Stringer("outcome", outcome),
		zap.Int("player_hp", progress.HP),
		zap.Int("energy", progress.Energy),
		zap.Duration("elapsed", s.elapsed),
		zap.Stringer("scene", scene),
	)
	m.deps.Router.Goto(scene)

	if m.deps.OnFinish != nil {
		m.deps.OnFinish(Result{
			EncounterID: s.id,
			EnemyID:     s.tmpl.ID,
			SpawnID:     spawnID,
			Outcome:     outcome,
			Progress:    progress.Clone(),
			Log:         s.enc.Log(),
			Duration:    s.elapsed,
		})
	}
	return errors.Join(errs...)
}

// InBattle reports whether an encounter is live.
func (m *Manager) InBattle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// Current returns the live encounter, or nil. Callers may read it but must
// drive it only through the Manager.
func (m *Manager) Current() *combat.Encounter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	return m.current.enc
}

// EnemyVisual returns how the live encounter's enemy is drawn.
func (m *Manager) EnemyVisual() (sprite.Visual, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return sprite.Visual{}, false
	}
	return m.current.visual, true
}

// Progress returns a copy of the player's progress outside of battle.
func (m *Manager) Progress() combat.PlayerProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress.Clone()
}

// SetProgress replaces the player's progress, e.g. when restarting after defeat.
//
// Postcondition: Returns ErrAlreadyInBattle while an encounter is live.
func (m *Manager) SetProgress(p combat.PlayerProgress) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("battle: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return ErrAlreadyInBattle
	}
	m.progress = p.Clone()
	return nil
}
