package combat

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/cory-johannsen/wasteland/internal/game/choreography"
	"github.com/cory-johannsen/wasteland/internal/game/condition"
)

var (
	enemyHitColor   = color.RGBA{R: 255, G: 60, B: 60, A: 255}
	playerHitColor  = color.RGBA{R: 255, G: 90, B: 90, A: 255}
	screenFlash     = color.RGBA{R: 255, G: 255, B: 255, A: 90}
	playerDmgNumber = color.RGBA{R: 255, G: 200, B: 100, A: 255}
	enemyDmgNumber  = color.RGBA{R: 255, G: 120, B: 120, A: 255}
	healNumber      = color.RGBA{R: 120, G: 255, B: 140, A: 255}
)

const (
	shakeDuration    = 200 * time.Millisecond
	particleDuration = 600 * time.Millisecond
	numberDuration   = 500 * time.Millisecond
	screenFlashTime  = 120 * time.Millisecond
	fadeOutDuration  = time.Second
)

const preemptiveBanner = "PREEMPTIVE STRIKE!"

// playerTimeline builds the choreography of a validated player action. Every
// random draw happens here, before the first step plays.
func (e *Encounter) playerTimeline(a ActionType) (choreography.Timeline, bool) {
	tl := choreography.Timeline{Label: "player " + a.String()}
	weapon := strings.ToLower(e.progress.Weapon.Name)
	w := e.progress.Weapon

	switch a {
	case ActionAttack:
		dmg := RollDamage(e.roller, "player attack", w.DamageMin, w.DamageMax)
		tl.Append(e.hitSteps("", dmg, fmt.Sprintf("You strike with your %s for %d damage.", weapon, dmg))...)

	case ActionDoubleAttack:
		first := RollDamage(e.roller, "double attack 1", w.DamageMin, w.DamageMax)
		second := RollDamage(e.roller, "double attack 2", w.DamageMin, w.DamageMax)
		tl.Append(e.hitSteps("first ", first, fmt.Sprintf("You strike with your %s for %d damage.", weapon, first))...)
		if first < e.enemy.CurrentHP {
			tl.Append(e.hitSteps("second ", second, fmt.Sprintf("You strike twice for %d and %d damage!", first, second))...)
		}

	case ActionDefend:
		tl.Append(e.messageStep("brace", "You brace for impact, reducing incoming damage.", func() {
			e.mods.Add(condition.Modifier{Kind: condition.Reduction, Amount: e.rules.DefendReduction})
		}))

	case ActionFly:
		tl.Append(e.messageStep("fly", "You take to the air, evading the next attack.", func() {
			e.mods.Add(condition.Modifier{Kind: condition.Evade})
		}))

	case ActionHeal:
		amount := RollHeal(e.roller, e.rules)
		healed := min(amount, e.progress.MaxHP-e.progress.HP)
		step := e.messageStep("mend", fmt.Sprintf("You use mend to restore %d HP.", healed), func() {
			e.progress.Heal(amount)
		})
		msg := step.Cues
		step.Cues = func() []choreography.Cue {
			return append(msg(), choreography.Cue{
				Kind:     choreography.CueDamageNumber,
				Target:   choreography.TargetPlayer,
				Amount:   healed,
				Color:    healNumber,
				Duration: numberDuration,
			})
		}
		tl.Append(step)

	case ActionFlee:
		escaped := e.roller.Chance("flee", e.rules.FleeChance)
		tl.Append(e.messageStep("flee attempt", "You try to run away...", nil))
		if escaped {
			result := e.messageStep("flee result", "You escape.", nil)
			result.Duration = e.timings.FleeResultHold
			tl.Append(result)
			return tl, true
		}
		tl.Append(e.messageStep("flee result", "You fail to get away!", nil))
	}
	return tl, false
}

// hitSteps is one player weapon hit: recoil, lunge, impact, return, settle.
// Damage lands when the impact step begins.
func (e *Encounter) hitSteps(prefix string, dmg int, msg string) []choreography.Step {
	t := e.timings
	return []choreography.Step{
		{
			Name:     prefix + "recoil",
			Duration: t.Recoil,
			Cues: func() []choreography.Cue {
				return []choreography.Cue{{Kind: choreography.CueRecoil, Target: choreography.TargetPlayer, Duration: t.Recoil}}
			},
		},
		{
			Name:     prefix + "lunge",
			Duration: t.Lunge,
			Cues: func() []choreography.Cue {
				return []choreography.Cue{{Kind: choreography.CueLunge, Target: choreography.TargetPlayer, Duration: t.Lunge}}
			},
		},
		{
			Name:     prefix + "impact",
			Duration: t.ImpactHold,
			Enter: func() {
				e.enemy.ApplyDamage(dmg)
				e.typeLine(msg)
			},
			Cues: func() []choreography.Cue {
				return []choreography.Cue{
					{Kind: choreography.CueHitFlash, Target: choreography.TargetEnemy, Color: enemyHitColor, Duration: t.HitFlash},
					{Kind: choreography.CueCameraShake, Intensity: 10, Duration: shakeDuration},
					{Kind: choreography.CueParticles, Target: choreography.TargetEnemy, Amount: 15, Color: enemyHitColor, Duration: particleDuration},
					{Kind: choreography.CueKnockback, Target: choreography.TargetEnemy, Amount: 20},
					{Kind: choreography.CueScreenFlash, Color: screenFlash, Duration: screenFlashTime},
					{Kind: choreography.CuePanelShake, Target: choreography.TargetEnemy, Intensity: 6, Duration: screenFlashTime},
					{Kind: choreography.CueDamageNumber, Target: choreography.TargetEnemy, Amount: dmg, Color: playerDmgNumber, Duration: numberDuration},
					{Kind: choreography.CueBars, Bars: e.bars()},
					{Kind: choreography.CueMessage, Text: msg},
				}
			},
		},
		{
			Name:     prefix + "return",
			Duration: t.Return,
			Cues: func() []choreography.Cue {
				return []choreography.Cue{{Kind: choreography.CueReturn, Target: choreography.TargetPlayer, Duration: t.Return}}
			},
		},
		{Name: prefix + "settle", Duration: t.Settle},
	}
}

// messageStep shows text and holds until it is fully revealed plus the pad.
func (e *Encounter) messageStep(name, text string, effect func()) choreography.Step {
	return choreography.Step{
		Name:     name,
		Duration: choreography.MessageHold(text, e.timings.MessageInterval, e.timings.MessagePad),
		Enter: func() {
			if effect != nil {
				effect()
			}
			e.typeLine(text)
		},
		Cues: func() []choreography.Cue {
			return []choreography.Cue{
				{Kind: choreography.CueBars, Bars: e.bars()},
				{Kind: choreography.CueMessage, Text: text},
			}
		},
	}
}

// strikeTimeline is the enemy attack after the think delay: lunge, impact,
// return, a gate until the message is readable, then energy regeneration.
func (e *Encounter) strikeTimeline(dmg int, evaded bool) choreography.Timeline {
	t := e.timings
	name := strings.ToLower(e.enemy.Name)
	msg := fmt.Sprintf("The %s claws you for %d damage.", name, dmg)
	if evaded {
		msg = fmt.Sprintf("You evade the %s's attack!", name)
	}
	gate := choreography.MessageHold(msg, t.MessageInterval, t.MessagePad) - t.EnemyImpactHold - t.EnemyReturn
	if gate < 0 {
		gate = 0
	}

	return choreography.Timeline{
		Label: "enemy strike",
		Steps: []choreography.Step{
			{
				Name:     "lunge",
				Duration: t.EnemyLunge,
				Cues: func() []choreography.Cue {
					return []choreography.Cue{{Kind: choreography.CueLunge, Target: choreography.TargetEnemy, Duration: t.EnemyLunge}}
				},
			},
			{
				Name:     "impact",
				Duration: t.EnemyImpactHold,
				Enter: func() {
					e.progress.TakeDamage(dmg)
					e.typeLine(msg)
				},
				Cues: func() []choreography.Cue {
					return []choreography.Cue{
						{Kind: choreography.CueHitFlash, Target: choreography.TargetPlayer, Color: playerHitColor, Duration: t.HitFlash},
						{Kind: choreography.CueCameraShake, Intensity: 10, Duration: shakeDuration},
						{Kind: choreography.CueParticles, Target: choreography.TargetPlayer, Amount: 15, Color: playerHitColor, Duration: particleDuration},
						{Kind: choreography.CueKnockback, Target: choreography.TargetPlayer, Amount: 10 + dmg*3/2},
						{Kind: choreography.CuePanelShake, Target: choreography.TargetPlayer, Intensity: 7, Duration: 150 * time.Millisecond},
						{Kind: choreography.CueDamageNumber, Target: choreography.TargetPlayer, Amount: dmg, Color: enemyDmgNumber, Duration: numberDuration},
						{Kind: choreography.CueBars, Bars: e.bars()},
						{Kind: choreography.CueMessage, Text: msg},
					}
				},
			},
			{
				Name:     "return",
				Duration: t.EnemyReturn,
				Cues: func() []choreography.Cue {
					return []choreography.Cue{{Kind: choreography.CueReturn, Target: choreography.TargetEnemy, Duration: t.EnemyReturn}}
				},
			},
			{Name: "message", Duration: gate},
			{
				Name:  "regen",
				Enter: e.grantRegen,
				Cues: func() []choreography.Cue {
					return []choreography.Cue{{Kind: choreography.CueBars, Bars: e.bars()}}
				},
			},
		},
	}
}

func (e *Encounter) bannerTimeline() choreography.Timeline {
	d := e.timings.PreemptiveBanner
	return choreography.Timeline{
		Label: "preemptive",
		Steps: []choreography.Step{{
			Name:     "banner",
			Duration: d,
			Enter:    func() { e.log = append(e.log, preemptiveBanner) },
			Cues: func() []choreography.Cue {
				return []choreography.Cue{{Kind: choreography.CueBanner, Text: preemptiveBanner, Duration: d}}
			},
		}},
	}
}

// outroTimeline is the hold between the end of the battle and teardown.
// Fled encounters have none.
func (e *Encounter) outroTimeline(o Outcome) (choreography.Timeline, bool) {
	var step choreography.Step
	switch o {
	case Victory:
		msg := fmt.Sprintf("The %s collapses into the dust.", e.enemy.Name)
		step = choreography.Step{
			Name:     "victory",
			Duration: e.timings.Outro,
			Enter:    func() { e.typeLine(msg) },
			Cues: func() []choreography.Cue {
				return []choreography.Cue{
					{Kind: choreography.CueFadeOut, Target: choreography.TargetEnemy, Duration: fadeOutDuration},
					{Kind: choreography.CueBars, Bars: e.bars()},
					{Kind: choreography.CueMessage, Text: msg},
				}
			},
		}
	case Defeat:
		msg := "You collapse. The wasteland takes another soul."
		step = choreography.Step{
			Name:     "defeat",
			Duration: e.timings.Outro,
			Enter:    func() { e.typeLine(msg) },
			Cues: func() []choreography.Cue {
				return []choreography.Cue{
					{Kind: choreography.CueFadeOut, Target: choreography.TargetPlayer, Duration: fadeOutDuration},
					{Kind: choreography.CueMessage, Text: msg},
				}
			},
		}
	default:
		return choreography.Timeline{}, false
	}
	return choreography.Timeline{Label: "outro " + o.String(), Steps: []choreography.Step{step}}, true
}
