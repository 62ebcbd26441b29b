package combat_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/wasteland/internal/game/choreography"
	"github.com/cory-johannsen/wasteland/internal/game/combat"
	"github.com/cory-johannsen/wasteland/internal/game/dice"
	"github.com/cory-johannsen/wasteland/internal/game/inventory"
)

const frame = 10 * time.Millisecond

func ironSword() inventory.Weapon {
	return inventory.Weapon{ID: "iron_sword", Name: "Iron Sword", DamageMin: 8, DamageMax: 12}
}

func ghoul() combat.Combatant {
	return combat.Combatant{ID: "ghoul", Name: "Ghoul", MaxHP: 18, DamageMin: 3, DamageMax: 6}
}

func roller(src dice.Source) *dice.Roller {
	return dice.NewLoggedRoller(src, zap.NewNop())
}

type fixture struct {
	enemy      combat.Combatant
	progress   combat.PlayerProgress
	rules      combat.Rules
	src        dice.Source
	stage      choreography.Stage
	preemptive bool
}

func newFixture(src dice.Source) *fixture {
	return &fixture{
		enemy:    ghoul(),
		progress: combat.NewPlayerProgress(ironSword()),
		rules:    combat.DefaultRules(),
		src:      src,
	}
}

func (f *fixture) start(t *testing.T) *combat.Encounter {
	t.Helper()
	enc, err := combat.NewEncounter(combat.EncounterConfig{
		ID:         "test",
		Enemy:      f.enemy,
		Progress:   f.progress,
		Rules:      f.rules,
		Timings:    combat.DefaultTimings(),
		Roller:     roller(f.src),
		Stage:      f.stage,
		Logger:     zap.NewNop(),
		Preemptive: f.preemptive,
	})
	require.NoError(t, err)
	require.NoError(t, enc.Start())
	return enc
}

// runUntil advances enc frame by frame until cond holds.
func runUntil(t *testing.T, enc *combat.Encounter, cond func() bool) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		if cond() {
			return
		}
		enc.Update(frame)
	}
	require.FailNow(t, "condition not reached", "state=%s step=%q", enc.State(), enc.StepName())
}

func playerTurn(enc *combat.Encounter) func() bool {
	return func() bool { return enc.State() == combat.StatePlayerTurn || enc.State() == combat.StateEnded }
}

func TestEncounter_StartsOnPlayerTurn(t *testing.T) {
	enc := newFixture(&dice.FixedSource{}).start(t)
	assert.Equal(t, combat.StatePlayerTurn, enc.State())
	assert.Equal(t, combat.SidePlayer, enc.TurnHolder())
	assert.False(t, enc.AwaitingResolution())
	assert.Equal(t, []string{"A wild Ghoul appears!"}, enc.Log())
	assert.Equal(t, []combat.Side{combat.SidePlayer, combat.SideEnemy}, enc.TurnOrder())
}

func TestEncounter_TwoAttacksWinAgainstGhoul(t *testing.T) {
	// Every int draw is 4: the sword rolls 12, the ghoul rolls 3.
	enc := newFixture(&dice.FixedSource{Ints: []int{4}}).start(t)

	require.NoError(t, enc.Act(combat.ActionAttack))
	runUntil(t, enc, playerTurn(enc))
	assert.Equal(t, 6, enc.Enemy().CurrentHP)
	assert.Equal(t, 12, enc.Progress().HP)
	assert.Equal(t, 7, enc.Progress().Energy, "one energy regenerated after the enemy turn")

	require.NoError(t, enc.Act(combat.ActionAttack))
	runUntil(t, enc, enc.Finished)
	assert.Equal(t, combat.Victory, enc.Outcome())
	assert.Equal(t, 0, enc.Enemy().CurrentHP)
	assert.Equal(t, 9, enc.Progress().Energy, "victory grants two energy")
	assert.Contains(t, enc.Log(), "The Ghoul collapses into the dust.")
	assert.Contains(t, enc.Log(), "You strike with your iron sword for 12 damage.")
}

func TestEncounter_EnemyTurnBeginsWhenAttackTimelineEnds(t *testing.T) {
	enc := newFixture(&dice.FixedSource{Ints: []int{4}}).start(t)
	require.NoError(t, enc.Act(combat.ActionAttack))

	enc.Update(649 * time.Millisecond)
	assert.Equal(t, combat.StateResolving, enc.State())
	enc.Update(time.Millisecond)
	assert.Equal(t, combat.StateEnemyTurn, enc.State())
	assert.Equal(t, combat.SideEnemy, enc.TurnHolder())
}

func TestEncounter_AttackCuesReadStateAfterDamage(t *testing.T) {
	rec := &choreography.Recorder{}
	f := newFixture(&dice.FixedSource{Ints: []int{4}})
	f.stage = rec
	enc := f.start(t)
	rec.Reset()

	require.NoError(t, enc.Act(combat.ActionAttack))
	enc.Update(650 * time.Millisecond)

	numbers := rec.OfKind(choreography.CueDamageNumber)
	require.Len(t, numbers, 1)
	assert.Equal(t, 12, numbers[0].Amount)
	assert.Equal(t, 180*time.Millisecond, numbers[0].At)
	assert.Equal(t, "impact", numbers[0].Step)

	bars := rec.OfKind(choreography.CueBars)
	require.NotEmpty(t, bars)
	assert.Equal(t, 6, bars[0].Bars.EnemyHP)

	kinds := []choreography.CueKind{}
	for _, c := range rec.Cues() {
		if c.Timeline == "player attack" {
			kinds = append(kinds, c.Kind)
		}
	}
	require.NotEmpty(t, kinds)
	assert.Equal(t, choreography.CueRecoil, kinds[0])
	assert.Equal(t, choreography.CueLunge, kinds[1])
	assert.Equal(t, choreography.CueReturn, kinds[len(kinds)-1])
}

func TestEncounter_DefendAbsorbsLowRoll(t *testing.T) {
	f := newFixture(&dice.FixedSource{Ints: []int{0}})
	f.progress.HP = 5
	f.enemy.DamageMin, f.enemy.DamageMax = 4, 9
	enc := f.start(t)

	require.NoError(t, enc.Act(combat.ActionDefend))
	runUntil(t, enc, playerTurn(enc))
	assert.Equal(t, combat.StatePlayerTurn, enc.State())
	assert.Equal(t, 5, enc.Progress().HP)
	evade, reduction := enc.Modifiers()
	assert.False(t, evade)
	assert.Zero(t, reduction, "reduction is consumed by the hit")
}

func TestEncounter_DefendAgainstMaxRollIsLethal(t *testing.T) {
	f := newFixture(&dice.FixedSource{Ints: []int{5}})
	f.progress.HP = 5
	f.enemy.DamageMin, f.enemy.DamageMax = 4, 9
	enc := f.start(t)

	require.NoError(t, enc.Act(combat.ActionDefend))
	runUntil(t, enc, enc.Finished)
	assert.Equal(t, combat.Defeat, enc.Outcome())
	assert.Equal(t, 0, enc.Progress().HP)
	assert.Contains(t, enc.Log(), "The ghoul claws you for 5 damage.")
	assert.Contains(t, enc.Log(), "You collapse. The wasteland takes another soul.")
}

func TestEncounter_DefendTwiceOnDoubleTurnReducesOnce(t *testing.T) {
	f := newFixture(&dice.FixedSource{Ints: []int{5}})
	f.progress.HP = 5
	f.enemy.DamageMin, f.enemy.DamageMax = 4, 9
	f.preemptive = true
	enc := f.start(t)
	enc.Update(time.Second)
	require.Equal(t, combat.StatePlayerTurn, enc.State())

	require.NoError(t, enc.Act(combat.ActionDefend))
	runUntil(t, enc, func() bool { return enc.State() != combat.StateResolving })
	require.Equal(t, combat.StatePlayerTurn, enc.State())

	require.NoError(t, enc.Act(combat.ActionDefend))
	runUntil(t, enc, func() bool { return enc.State() != combat.StateResolving })
	_, red := enc.Modifiers()
	assert.Equal(t, 4, red)

	runUntil(t, enc, enc.Finished)
	assert.Equal(t, combat.Defeat, enc.Outcome())
	assert.Equal(t, 0, enc.Progress().HP)
	assert.Contains(t, enc.Log(), "The ghoul claws you for 5 damage.")
}

func TestEncounter_FleeSucceedsBelowChance(t *testing.T) {
	enc := newFixture(&dice.FixedSource{Floats: []float64{0.39}}).start(t)

	require.NoError(t, enc.Act(combat.ActionFlee))
	runUntil(t, enc, enc.Finished)
	assert.Equal(t, combat.Fled, enc.Outcome())
	assert.Equal(t, 15, enc.Progress().HP)
	assert.Equal(t, 18, enc.Enemy().CurrentHP)
	assert.Equal(t, "You escape.", enc.Log()[len(enc.Log())-1])
}

func TestEncounter_FailedFleePassesTurn(t *testing.T) {
	enc := newFixture(&dice.FixedSource{Ints: []int{0}, Floats: []float64{0.4}}).start(t)

	require.NoError(t, enc.Act(combat.ActionFlee))
	runUntil(t, enc, func() bool { return enc.State() == combat.StateEnemyTurn })
	assert.Contains(t, enc.Log(), "You fail to get away!")
	runUntil(t, enc, playerTurn(enc))
	assert.Equal(t, 12, enc.Progress().HP)
}

func TestEncounter_RepeatedInputWhileResolvingAppliesOnce(t *testing.T) {
	enc := newFixture(&dice.FixedSource{Ints: []int{4}}).start(t)

	require.NoError(t, enc.Act(combat.ActionAttack))
	assert.ErrorIs(t, enc.Act(combat.ActionAttack), combat.ErrResolving)
	enc.Update(100 * time.Millisecond)
	assert.ErrorIs(t, enc.Act(combat.ActionAttack), combat.ErrResolving)
	runUntil(t, enc, func() bool { return enc.State() == combat.StateEnemyTurn })
	assert.ErrorIs(t, enc.Act(combat.ActionAttack), combat.ErrNotYourTurn)

	assert.Equal(t, 6, enc.Enemy().CurrentHP)
}

func TestEncounter_DoubleAttackRejectedWithoutEnergy(t *testing.T) {
	rec := &choreography.Recorder{}
	f := newFixture(&dice.FixedSource{Ints: []int{4}})
	f.progress.Energy = 3
	f.stage = rec
	enc := f.start(t)

	err := enc.Act(combat.ActionDoubleAttack)
	var insufficient *combat.InsufficientEnergyError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 4, insufficient.Needs)
	assert.Equal(t, 3, insufficient.Have)

	assert.Equal(t, combat.StatePlayerTurn, enc.State())
	assert.Equal(t, 3, enc.Progress().Energy)
	assert.Equal(t, 18, enc.Enemy().CurrentHP)
	assert.Equal(t, "Not enough energy. (Needs 4)", enc.Log()[len(enc.Log())-1])
	msgs := rec.OfKind(choreography.CueMessage)
	assert.Equal(t, "Not enough energy. (Needs 4)", msgs[len(msgs)-1].Text)
}

func TestEncounter_SilentRejections(t *testing.T) {
	f := newFixture(&dice.FixedSource{})
	f.progress.HP = f.progress.MaxHP
	enc := f.start(t)
	before := enc.Log()

	assert.ErrorIs(t, enc.Act(combat.ActionHeal), combat.ErrFullHealth)
	assert.ErrorIs(t, enc.Act(combat.ActionStrike), combat.ErrNotYourTurn)
	assert.ErrorIs(t, enc.Act(combat.ActionUnknown), combat.ErrUnknownAction)
	assert.ErrorIs(t, enc.Start(), combat.ErrAlreadyStarted)

	assert.Equal(t, before, enc.Log())
	assert.Equal(t, combat.StatePlayerTurn, enc.State())
	assert.Equal(t, 6, enc.Progress().Energy)
}

func TestEncounter_ActBeforeStart(t *testing.T) {
	enc, err := combat.NewEncounter(combat.EncounterConfig{
		Enemy:    ghoul(),
		Progress: combat.NewPlayerProgress(ironSword()),
		Rules:    combat.DefaultRules(),
		Timings:  combat.DefaultTimings(),
		Roller:   roller(&dice.FixedSource{}),
	})
	require.NoError(t, err)
	assert.ErrorIs(t, enc.Act(combat.ActionAttack), combat.ErrNotStarted)
	assert.Equal(t, combat.StatePending, enc.State())
}

func TestNewEncounter_RejectsInvalidInput(t *testing.T) {
	base := combat.EncounterConfig{
		Enemy:    ghoul(),
		Progress: combat.NewPlayerProgress(ironSword()),
		Rules:    combat.DefaultRules(),
		Timings:  combat.DefaultTimings(),
		Roller:   roller(&dice.FixedSource{}),
	}
	cases := map[string]func(c *combat.EncounterConfig){
		"nil roller":     func(c *combat.EncounterConfig) { c.Roller = nil },
		"bad rules":      func(c *combat.EncounterConfig) { c.Rules.FleeChance = 2 },
		"hp above max":   func(c *combat.EncounterConfig) { c.Progress.HP = 99 },
		"dead enemy":     func(c *combat.EncounterConfig) { c.Enemy.MaxHP = 0 },
		"inverted range": func(c *combat.EncounterConfig) { c.Enemy.DamageMin = 9 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			_, err := combat.NewEncounter(cfg)
			assert.Error(t, err)
		})
	}
}

func TestEncounter_EvadeConsumedByOneHit(t *testing.T) {
	f := newFixture(&dice.FixedSource{Ints: []int{4}})
	f.progress.Weapon = inventory.Weapon{ID: "stick", Name: "Stick", DamageMin: 1, DamageMax: 1}
	enc := f.start(t)

	require.NoError(t, enc.Act(combat.ActionFly))
	runUntil(t, enc, func() bool { return enc.State() == combat.StateEnemyTurn })
	evade, _ := enc.Modifiers()
	assert.True(t, evade)

	runUntil(t, enc, playerTurn(enc))
	assert.Equal(t, 15, enc.Progress().HP, "evaded hit deals no damage")
	evade, _ = enc.Modifiers()
	assert.False(t, evade)
	assert.Contains(t, enc.Log(), "You evade the ghoul's attack!")

	require.NoError(t, enc.Act(combat.ActionAttack))
	runUntil(t, enc, playerTurn(enc))
	assert.Equal(t, 12, enc.Progress().HP, "evade does not persist to a second hit")
}

func TestEncounter_HealRestoresAndCosts(t *testing.T) {
	// Heal rolls 4+2, the ghoul rolls 3+2.
	enc := newFixture(&dice.FixedSource{Ints: []int{2}}).start(t)

	require.NoError(t, enc.Act(combat.ActionHeal))
	assert.Equal(t, 4, enc.Progress().Energy, "cost is paid up front")
	runUntil(t, enc, func() bool { return enc.State() == combat.StateEnemyTurn })
	assert.Equal(t, 21, enc.Progress().HP)
	assert.Contains(t, enc.Log(), "You use mend to restore 6 HP.")

	runUntil(t, enc, playerTurn(enc))
	assert.Equal(t, 16, enc.Progress().HP)
	assert.Equal(t, 5, enc.Progress().Energy)
}

func TestEncounter_HealCapsAtMax(t *testing.T) {
	f := newFixture(&dice.FixedSource{Ints: []int{4}})
	f.progress.HP = 28
	f.rules.HealCost = 0
	enc := f.start(t)

	require.NoError(t, enc.Act(combat.ActionHeal))
	assert.Equal(t, 6, enc.Progress().Energy, "free heal")
	runUntil(t, enc, func() bool { return enc.State() == combat.StateEnemyTurn })
	assert.Equal(t, 30, enc.Progress().HP)
	assert.Contains(t, enc.Log(), "You use mend to restore 2 HP.")
}

func TestEncounter_DoubleAttackSkipsRegen(t *testing.T) {
	f := newFixture(&dice.FixedSource{Ints: []int{0}})
	f.progress.Weapon = inventory.Weapon{ID: "stick", Name: "Stick", DamageMin: 1, DamageMax: 1}
	enc := f.start(t)

	require.NoError(t, enc.Act(combat.ActionDoubleAttack))
	runUntil(t, enc, playerTurn(enc))
	assert.Equal(t, 16, enc.Enemy().CurrentHP)
	assert.Equal(t, 2, enc.Progress().Energy)

	require.NoError(t, enc.Act(combat.ActionAttack))
	runUntil(t, enc, playerTurn(enc))
	assert.Equal(t, 3, enc.Progress().Energy)
}

func TestEncounter_RegenDisabled(t *testing.T) {
	f := newFixture(&dice.FixedSource{Ints: []int{0}})
	f.progress.Weapon = inventory.Weapon{ID: "stick", Name: "Stick", DamageMin: 1, DamageMax: 1}
	f.rules.EnergyRegen = 0
	enc := f.start(t)

	require.NoError(t, enc.Act(combat.ActionAttack))
	runUntil(t, enc, playerTurn(enc))
	assert.Equal(t, 6, enc.Progress().Energy)
}

func TestEncounter_DoubleAttackCanWinInOneTurn(t *testing.T) {
	enc := newFixture(&dice.FixedSource{Ints: []int{4}}).start(t)

	require.NoError(t, enc.Act(combat.ActionDoubleAttack))
	runUntil(t, enc, enc.Finished)
	assert.Equal(t, combat.Victory, enc.Outcome())
	assert.Equal(t, 4, enc.Progress().Energy)
	assert.Contains(t, enc.Log(), "You strike twice for 12 and 12 damage!")
}

func TestEncounter_PreemptiveBannerThenDoubleTurn(t *testing.T) {
	// Preemptive encounters where the player already had initiative give the
	// player two actions per cycle. This asymmetric order is kept as observed.
	f := newFixture(&dice.FixedSource{Ints: []int{0}})
	f.progress.Weapon = inventory.Weapon{ID: "stick", Name: "Stick", DamageMin: 1, DamageMax: 1}
	f.preemptive = true
	enc := f.start(t)

	assert.Equal(t, combat.StateResolving, enc.State())
	assert.ErrorIs(t, enc.Act(combat.ActionAttack), combat.ErrResolving)
	assert.Equal(t, []combat.Side{combat.SidePlayer, combat.SidePlayer, combat.SideEnemy}, enc.TurnOrder())
	assert.Contains(t, enc.Log(), "PREEMPTIVE STRIKE!")

	enc.Update(time.Second)
	require.Equal(t, combat.StatePlayerTurn, enc.State())

	require.NoError(t, enc.Act(combat.ActionAttack))
	runUntil(t, enc, func() bool { return enc.State() != combat.StateResolving })
	assert.Equal(t, combat.StatePlayerTurn, enc.State(), "second consecutive player action")

	require.NoError(t, enc.Act(combat.ActionAttack))
	runUntil(t, enc, func() bool { return enc.State() != combat.StateResolving })
	assert.Equal(t, combat.StateEnemyTurn, enc.State())
	runUntil(t, enc, playerTurn(enc))
	assert.Equal(t, 8, enc.Progress().Energy, "both player turns regenerate")
}

func TestEncounter_AbortDiscardsTimeline(t *testing.T) {
	enc := newFixture(&dice.FixedSource{Ints: []int{4}}).start(t)
	require.NoError(t, enc.Act(combat.ActionAttack))
	enc.Update(100 * time.Millisecond)

	enc.Abort()
	assert.True(t, enc.Finished())
	assert.Equal(t, combat.Aborted, enc.Outcome())
	assert.Equal(t, combat.SideNone, enc.TurnHolder())
	assert.ErrorIs(t, enc.Act(combat.ActionAttack), combat.ErrEnded)

	enc.Update(5 * time.Second)
	assert.Equal(t, 18, enc.Enemy().CurrentHP, "impact never lands")
}

func TestEncounter_AbortDuringOutroKeepsOutcome(t *testing.T) {
	enc := newFixture(&dice.FixedSource{Ints: []int{4}}).start(t)
	require.NoError(t, enc.Act(combat.ActionDoubleAttack))
	runUntil(t, enc, func() bool { return enc.State() == combat.StateEnded })
	require.False(t, enc.Finished())

	enc.Abort()
	assert.True(t, enc.Finished())
	assert.Equal(t, combat.Victory, enc.Outcome())
}

func TestEncounter_MessageRevealsOverTime(t *testing.T) {
	enc := newFixture(&dice.FixedSource{}).start(t)
	assert.Equal(t, "A", enc.Message())
	enc.Update(time.Second)
	assert.Equal(t, "A wild Ghoul appears!", enc.Message())
}

func TestProperty_EnergyStaysInBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		energy := rapid.IntRange(0, 10).Draw(rt, "energy")
		actions := rapid.SliceOfN(rapid.SampledFrom(combat.PlayerActions), 1, 12).Draw(rt, "actions")

		progress := combat.NewPlayerProgress(ironSword())
		progress.Energy = energy
		enc, err := combat.NewEncounter(combat.EncounterConfig{
			Enemy:    combat.Combatant{ID: "golem", Name: "Golem", MaxHP: 60, DamageMin: 0, DamageMax: 3},
			Progress: progress,
			Rules:    combat.DefaultRules(),
			Timings:  combat.DefaultTimings(),
			Roller:   roller(dice.NewSeededSource(seed)),
		})
		if err != nil {
			rt.Fatalf("NewEncounter: %v", err)
		}
		if err := enc.Start(); err != nil {
			rt.Fatalf("Start: %v", err)
		}

		check := func() {
			p := enc.Progress()
			if p.Energy < 0 || p.Energy > p.MaxEnergy {
				rt.Fatalf("energy %d outside [0,%d]", p.Energy, p.MaxEnergy)
			}
			if p.HP < 0 || p.HP > p.MaxHP {
				rt.Fatalf("hp %d outside [0,%d]", p.HP, p.MaxHP)
			}
		}

		for _, a := range actions {
			for i := 0; i < 2000 && enc.State() != combat.StatePlayerTurn && enc.State() != combat.StateEnded; i++ {
				enc.Update(frame)
				check()
			}
			if enc.State() == combat.StateEnded {
				break
			}
			before := enc.Progress()
			err := enc.Act(a)
			check()
			if a == combat.ActionDoubleAttack && before.Energy < 4 {
				if err == nil {
					rt.Fatalf("double attack accepted with %d energy", before.Energy)
				}
				if enc.Progress().Energy != before.Energy || enc.State() != combat.StatePlayerTurn {
					rt.Fatalf("rejected double attack changed state")
				}
			}
		}
	})
}
