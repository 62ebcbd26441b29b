package combat

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/wasteland/internal/game/choreography"
	"github.com/cory-johannsen/wasteland/internal/game/condition"
)

// EncounterConfig holds everything needed to construct an Encounter.
type EncounterConfig struct {
	ID       string
	Enemy    Combatant
	Progress PlayerProgress
	Rules    Rules
	Timings  Timings
	Roller   Roller
	// Stage receives choreography cues. Nil discards them.
	Stage  choreography.Stage
	Logger *zap.Logger
	// Preemptive gives the player the opening action.
	Preemptive bool
}

// Encounter is one live battle between the player and a single enemy.
//
// The Encounter owns a private copy of the player's progress for its whole
// lifetime and is its only writer; callers read the result back with Progress
// once Finished reports true. Time only moves through Update.
//
// Not safe for concurrent use; the caller must serialise access.
type Encounter struct {
	id         string
	rules      Rules
	timings    Timings
	roller     Roller
	stage      choreography.Stage
	logger     *zap.Logger
	preemptive bool

	sched *choreography.Scheduler
	typer *choreography.Typewriter
	mods  *condition.Queue

	progress PlayerProgress
	enemy    Combatant

	state   State
	outcome Outcome
	order   []Side
	turn    int
	holder  Side
	// pendingRegen is the energy granted at the end of the next enemy turn.
	pendingRegen int
	log          []string
}

// NewEncounter validates cfg and returns an encounter in StatePending.
//
// Precondition: cfg.Roller must be non-nil.
// Postcondition: Returns a non-nil error if the rules, the progress, or the enemy are invalid.
func NewEncounter(cfg EncounterConfig) (*Encounter, error) {
	if cfg.Roller == nil {
		return nil, errors.New("combat: roller must not be nil")
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("combat: %w", err)
	}
	if err := cfg.Progress.Validate(); err != nil {
		return nil, fmt.Errorf("combat: %w", err)
	}
	if err := validateEnemy(cfg.Enemy); err != nil {
		return nil, fmt.Errorf("combat: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stage := cfg.Stage
	if stage == nil {
		stage = choreography.NopStage{}
	}

	enemy := cfg.Enemy
	enemy.CurrentHP = enemy.MaxHP
	return &Encounter{
		id:         cfg.ID,
		rules:      cfg.Rules,
		timings:    cfg.Timings,
		roller:     cfg.Roller,
		stage:      stage,
		logger:     logger,
		preemptive: cfg.Preemptive,
		sched:      choreography.NewScheduler(stage, logger),
		typer:      choreography.NewTypewriter(cfg.Timings.MessageInterval),
		mods:       condition.NewQueue(),
		progress:   cfg.Progress.Clone(),
		enemy:      enemy,
		state:      StatePending,
		holder:     SideNone,
	}, nil
}

func validateEnemy(c Combatant) error {
	if c.MaxHP < 1 {
		return fmt.Errorf("enemy %q: max hp must be >= 1, got %d", c.ID, c.MaxHP)
	}
	if c.DamageMin < 0 || c.DamageMin > c.DamageMax {
		return fmt.Errorf("enemy %q: damage range must satisfy 0 <= min <= max, got [%d,%d]", c.ID, c.DamageMin, c.DamageMax)
	}
	if c.Speed < 0 {
		return fmt.Errorf("enemy %q: speed must be >= 0, got %d", c.ID, c.Speed)
	}
	return nil
}

// Start decides initiative, announces the enemy, and hands the first turn out.
// A pre-emptive encounter shows its banner before the first turn.
//
// Postcondition: State is no longer StatePending.
func (e *Encounter) Start() error {
	if e.state != StatePending {
		return ErrAlreadyStarted
	}
	e.order = TurnOrder(e.progress.Speed, e.enemy.Speed, e.preemptive, e.roller)
	e.turn = 0
	e.logger.Info("encounter start",
		zap.String("enemy", e.enemy.ID),
		zap.Int("enemy_hp", e.enemy.MaxHP),
		zap.Int("player_hp", e.progress.HP),
		zap.Int("energy", e.progress.Energy),
		zap.Bool("preemptive", e.preemptive),
		zap.Stringers("order", e.order),
	)
	e.say(fmt.Sprintf("A wild %s appears!", e.enemy.Name))

	if !e.preemptive {
		e.beginTurn()
		return nil
	}
	e.setState(StateResolving)
	return e.play(e.bannerTimeline(), e.beginTurn)
}

// Act applies a player action.
//
// Postcondition: On any error the encounter state is unchanged. Only an
// *InsufficientEnergyError produces a message; every other rejection is silent.
func (e *Encounter) Act(a ActionType) error {
	if err := e.checkTurn(); err != nil {
		e.logger.Debug("action rejected", zap.Stringer("action", a), zap.Error(err))
		return err
	}
	if !a.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownAction, int(a))
	}
	if a.Actor() != SidePlayer {
		e.logger.Debug("action rejected", zap.Stringer("action", a), zap.Error(ErrNotYourTurn))
		return ErrNotYourTurn
	}
	if a == ActionHeal && e.progress.HP >= e.progress.MaxHP {
		e.logger.Debug("action rejected", zap.Stringer("action", a), zap.Error(ErrFullHealth))
		return ErrFullHealth
	}
	cost := a.Cost(e.rules)
	if e.progress.Energy < cost {
		err := &InsufficientEnergyError{Action: a, Needs: cost, Have: e.progress.Energy}
		e.logger.Debug("action rejected", zap.Stringer("action", a), zap.Error(err))
		e.say(err.Message())
		return err
	}

	e.setState(StateResolving)
	e.progress.SpendEnergy(cost)
	if a != ActionDoubleAttack {
		e.pendingRegen += e.rules.EnergyRegen
	}
	e.logger.Debug("action accepted",
		zap.Stringer("action", a),
		zap.Int("cost", cost),
		zap.Int("energy", e.progress.Energy),
	)

	tl, fled := e.playerTimeline(a)
	return e.play(tl, func() { e.afterPlayer(fled) })
}

func (e *Encounter) checkTurn() error {
	switch e.state {
	case StatePending:
		return ErrNotStarted
	case StateEnded:
		return ErrEnded
	case StateResolving:
		return ErrResolving
	case StateEnemyTurn:
		return ErrNotYourTurn
	}
	if e.sched.Busy() {
		return ErrResolving
	}
	return nil
}

// afterPlayer evaluates terminal conditions once a player timeline completes.
func (e *Encounter) afterPlayer(fled bool) {
	switch {
	case e.enemy.IsDead():
		e.end(Victory)
	case e.progress.HP <= 0:
		e.end(Defeat)
	case fled:
		e.end(Fled)
	default:
		e.advanceTurn()
	}
}

// afterEnemy evaluates terminal conditions once an enemy timeline completes.
func (e *Encounter) afterEnemy() {
	if e.progress.HP <= 0 {
		e.end(Defeat)
		return
	}
	e.advanceTurn()
}

func (e *Encounter) advanceTurn() {
	e.turn++
	e.beginTurn()
}

func (e *Encounter) beginTurn() {
	side := e.order[e.turn%len(e.order)]
	e.holder = side
	if side == SidePlayer {
		e.setState(StatePlayerTurn)
		return
	}
	e.setState(StateEnemyTurn)
	think := choreography.Timeline{
		Label: "enemy think",
		Steps: []choreography.Step{{Name: "think", Duration: e.timings.EnemyThink}},
	}
	if err := e.play(think, e.enemyStrike); err != nil {
		e.logger.Error("enemy turn", zap.Error(err))
	}
}

// enemyStrike resolves the enemy's only action.
func (e *Encounter) enemyStrike() {
	e.setState(StateResolving)
	raw := RollDamage(e.roller, "enemy strike", e.enemy.DamageMin, e.enemy.DamageMax)
	applied, consumed := e.mods.Absorb(raw)
	e.logger.Debug("enemy strike",
		zap.Int("raw", raw),
		zap.Int("applied", applied),
		zap.Int("modifiers", len(consumed)),
	)
	evaded := len(consumed) > 0 && consumed[0].Kind == condition.Evade
	if err := e.play(e.strikeTimeline(applied, evaded), e.afterEnemy); err != nil {
		e.logger.Error("enemy strike", zap.Error(err))
	}
}

// grantRegen pays out the energy earned by the player turns since the last enemy turn.
func (e *Encounter) grantRegen() {
	n := e.pendingRegen
	e.pendingRegen = 0
	if n == 0 || e.progress.HP <= 0 {
		return
	}
	gained := e.progress.GainEnergy(n)
	e.logger.Debug("energy regen", zap.Int("gained", gained), zap.Int("energy", e.progress.Energy))
}

func (e *Encounter) end(o Outcome) {
	e.outcome = o
	e.holder = SideNone
	e.setState(StateEnded)
	if o == Victory {
		e.progress.GainEnergy(e.rules.VictoryEnergy)
	}
	e.logger.Info("encounter end",
		zap.Stringer("outcome", o),
		zap.Int("player_hp", e.progress.HP),
		zap.Int("energy", e.progress.Energy),
		zap.Int("enemy_hp", e.enemy.CurrentHP),
	)
	if tl, ok := e.outroTimeline(o); ok {
		if err := e.play(tl, nil); err != nil {
			e.logger.Error("encounter outro", zap.Error(err))
		}
	}
}

// Abort discards every scheduled continuation and ends the encounter.
// An encounter that already has an outcome keeps it.
//
// Postcondition: Finished() is true.
func (e *Encounter) Abort() {
	e.sched.Cancel()
	if e.state == StateEnded {
		return
	}
	e.outcome = Aborted
	e.holder = SideNone
	e.setState(StateEnded)
	e.logger.Info("encounter aborted")
}

// Update advances the typewriter and the active timeline by dt.
func (e *Encounter) Update(dt time.Duration) {
	e.typer.Advance(dt)
	e.sched.Advance(dt)
}

func (e *Encounter) play(tl choreography.Timeline, onDone func()) error {
	if err := e.sched.Play(tl, onDone); err != nil {
		return fmt.Errorf("playing %q: %w", tl.Label, err)
	}
	return nil
}

func (e *Encounter) setState(s State) {
	if e.state == s {
		return
	}
	e.logger.Debug("state transition",
		zap.Stringer("from", e.state),
		zap.Stringer("to", s),
		zap.Stringer("holder", e.holder),
	)
	e.state = s
}

// typeLine starts revealing text and appends it to the battle log.
func (e *Encounter) typeLine(text string) {
	e.typer.Type(text)
	e.log = append(e.log, text)
}

// say shows a message outside of any timeline.
func (e *Encounter) say(text string) {
	e.typeLine(text)
	e.stage.Cue(choreography.Cue{Kind: choreography.CueMessage, Text: text})
}

func (e *Encounter) bars() choreography.Bars {
	return choreography.Bars{
		PlayerHP:    e.progress.HP,
		PlayerMaxHP: e.progress.MaxHP,
		Energy:      e.progress.Energy,
		MaxEnergy:   e.progress.MaxEnergy,
		EnemyHP:     e.enemy.CurrentHP,
		EnemyMaxHP:  e.enemy.MaxHP,
	}
}

// ID returns the encounter identifier.
func (e *Encounter) ID() string { return e.id }

// State returns the current engine state.
func (e *Encounter) State() State { return e.state }

// Outcome returns how the encounter ended, or OutcomeNone.
func (e *Encounter) Outcome() Outcome { return e.outcome }

// TurnHolder returns the side whose turn it is, or SideNone once ended.
func (e *Encounter) TurnHolder() Side { return e.holder }

// AwaitingResolution reports whether input is currently rejected because a
// timeline is in flight.
func (e *Encounter) AwaitingResolution() bool {
	return e.state == StateResolving || e.sched.Busy()
}

// Finished reports whether the encounter has ended and its outro has played.
func (e *Encounter) Finished() bool {
	return e.state == StateEnded && !e.sched.Busy()
}

// Player returns the player as a combatant snapshot.
func (e *Encounter) Player() Combatant {
	return Combatant{
		ID:        "player",
		Name:      "You",
		MaxHP:     e.progress.MaxHP,
		CurrentHP: e.progress.HP,
		DamageMin: e.progress.Weapon.DamageMin,
		DamageMax: e.progress.Weapon.DamageMax,
		Speed:     e.progress.Speed,
	}
}

// Enemy returns a snapshot of the enemy.
func (e *Encounter) Enemy() Combatant { return e.enemy }

// Progress returns a copy of the player's progress as the encounter sees it.
func (e *Encounter) Progress() PlayerProgress { return e.progress.Clone() }

// Log returns every message shown so far, oldest first.
func (e *Encounter) Log() []string {
	out := make([]string, len(e.log))
	copy(out, e.log)
	return out
}

// Message returns the revealed part of the current message.
func (e *Encounter) Message() string { return e.typer.Visible() }

// TurnOrder returns the repeating turn order decided by Start.
func (e *Encounter) TurnOrder() []Side {
	out := make([]Side, len(e.order))
	copy(out, e.order)
	return out
}

// Modifiers reports the pending one-shot modifiers on the player.
func (e *Encounter) Modifiers() (evade bool, reduction int) {
	return e.mods.Has(condition.Evade), e.mods.Reduction()
}

// StepName returns the active choreography step, or "" when idle.
func (e *Encounter) StepName() string { return e.sched.StepName() }
