// Package choreography sequences the timed visual feedback of a battle:
// explicit timelines of fixed-duration steps advanced by frame ticks, the
// cues each step emits, and the typewriter that reveals combat log text.
package choreography

import (
	"fmt"
	"image/color"
	"sync"
	"time"
)

// CueKind identifies a visual or audio effect requested from the stage.
type CueKind int

const (
	CueRecoil CueKind = iota
	CueLunge
	CueReturn
	CueHitFlash
	CueScreenFlash
	CueCameraShake
	CueParticles
	CueDamageNumber
	CuePanelShake
	CueKnockback
	CueBars
	CueMessage
	CueBanner
	CueFadeOut
)

var cueNames = [...]string{
	CueRecoil:       "recoil",
	CueLunge:        "lunge",
	CueReturn:       "return",
	CueHitFlash:     "hit_flash",
	CueScreenFlash:  "screen_flash",
	CueCameraShake:  "camera_shake",
	CueParticles:    "particles",
	CueDamageNumber: "damage_number",
	CuePanelShake:   "panel_shake",
	CueKnockback:    "knockback",
	CueBars:         "bars",
	CueMessage:      "message",
	CueBanner:       "banner",
	CueFadeOut:      "fade_out",
}

// String returns the snake_case name of the cue kind.
func (k CueKind) String() string {
	if k >= 0 && int(k) < len(cueNames) {
		return cueNames[k]
	}
	return fmt.Sprintf("cue(%d)", int(k))
}

// Target is the combatant a cue applies to.
type Target int

const (
	TargetNone Target = iota
	TargetPlayer
	TargetEnemy
)

// String returns the lowercase target name.
func (t Target) String() string {
	switch t {
	case TargetPlayer:
		return "player"
	case TargetEnemy:
		return "enemy"
	default:
		return "none"
	}
}

// Bars is a snapshot of the values that drive HP and energy bar widths.
// It is taken when the cue fires, after any mutation of the same step.
type Bars struct {
	PlayerHP, PlayerMaxHP int
	Energy, MaxEnergy     int
	EnemyHP, EnemyMaxHP   int
}

// Cue is one effect request. Fields that do not apply to a kind are zero.
type Cue struct {
	Kind   CueKind
	Target Target
	// Amount is a count or magnitude: damage shown, particle count, pixels of knockback.
	Amount    int
	Intensity float64
	Duration  time.Duration
	Color     color.RGBA
	Text      string
	Bars      Bars

	// Set by the scheduler when the cue fires.
	Timeline string
	Step     string
	At       time.Duration
}

// Stage receives cues. Implementations draw them, play sounds, or record them.
// Cue is called on the goroutine that advances the scheduler.
type Stage interface {
	Cue(c Cue)
}

// NopStage discards every cue.
type NopStage struct{}

// Cue implements Stage.
func (NopStage) Cue(Cue) {}

// StageFunc adapts a function to a Stage.
type StageFunc func(Cue)

// Cue implements Stage.
func (f StageFunc) Cue(c Cue) { f(c) }

// Recorder is a Stage that keeps every cue it receives. It is safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	cues []Cue
}

// Cue implements Stage.
func (r *Recorder) Cue(c Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, c)
}

// Cues returns a copy of the recorded cues in arrival order.
func (r *Recorder) Cues() []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Cue, len(r.cues))
	copy(out, r.cues)
	return out
}

// OfKind returns the recorded cues of kind k in arrival order.
func (r *Recorder) OfKind(k CueKind) []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Cue
	for _, c := range r.cues {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// Reset drops every recorded cue.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = nil
}
