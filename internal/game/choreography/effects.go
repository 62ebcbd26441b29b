package choreography

import (
	"image/color"
	"sync"
	"time"
)

// knockbackDecay is how long a knockback offset takes to return to rest.
const knockbackDecay = 200 * time.Millisecond

// fade is a countdown with a known total, used by every decaying effect.
type fade struct {
	left, total time.Duration
}

func (f fade) active() bool { return f.left > 0 }

// progress returns 0 when the effect starts and 1 once it has run out.
func (f fade) progress() float64 {
	if f.total <= 0 || f.left <= 0 {
		return 1
	}
	return 1 - float64(f.left)/float64(f.total)
}

func (f *fade) advance(dt time.Duration) {
	f.left -= dt
	if f.left < 0 {
		f.left = 0
	}
}

// FloatingNumber is a damage or heal number rising above a combatant.
type FloatingNumber struct {
	Target Target
	Amount int
	Color  color.RGBA
	// Rise runs from 0 when spawned to 1 when the number disappears.
	Rise float64
}

// Burst is a particle burst on a combatant.
type Burst struct {
	Target Target
	Count  int
	Color  color.RGBA
	// Spread runs from 0 to 1 over the burst's life.
	Spread float64
}

type number struct {
	FloatingNumber
	fade
}

type burst struct {
	Burst
	fade
}

type pose struct {
	kind CueKind
	fade
}

type shake struct {
	intensity float64
	fade
}

type tint struct {
	color color.RGBA
	fade
}

// Effects is a Stage that turns cues into time-decaying presentation state a
// renderer can query each frame. It is safe for concurrent use.
type Effects struct {
	mu sync.Mutex

	poses     map[Target]pose
	knockback map[Target]shake
	flashes   map[Target]tint
	fades     map[Target]fade
	panel     map[Target]shake
	camera    shake
	screen    tint
	banner    string
	bannerFor fade
	numbers   []number
	bursts    []burst
	bars      Bars
	message   string
}

// NewEffects returns an empty Effects.
func NewEffects() *Effects {
	e := &Effects{}
	e.Reset()
	return e
}

// Reset clears every effect, e.g. when a new encounter opens.
func (e *Effects) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.poses = make(map[Target]pose)
	e.knockback = make(map[Target]shake)
	e.flashes = make(map[Target]tint)
	e.fades = make(map[Target]fade)
	e.panel = make(map[Target]shake)
	e.camera = shake{}
	e.screen = tint{}
	e.banner = ""
	e.bannerFor = fade{}
	e.numbers = nil
	e.bursts = nil
	e.bars = Bars{}
	e.message = ""
}

// Cue implements Stage.
func (e *Effects) Cue(c Cue) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f := fade{left: c.Duration, total: c.Duration}
	switch c.Kind {
	case CueRecoil, CueLunge, CueReturn:
		e.poses[c.Target] = pose{kind: c.Kind, fade: f}
	case CueHitFlash:
		e.flashes[c.Target] = tint{color: c.Color, fade: f}
	case CueScreenFlash:
		e.screen = tint{color: c.Color, fade: f}
	case CueCameraShake:
		e.camera = shake{intensity: c.Intensity, fade: f}
	case CuePanelShake:
		e.panel[c.Target] = shake{intensity: c.Intensity, fade: f}
	case CueKnockback:
		e.knockback[c.Target] = shake{intensity: float64(c.Amount), fade: fade{left: knockbackDecay, total: knockbackDecay}}
	case CueParticles:
		e.bursts = append(e.bursts, burst{Burst: Burst{Target: c.Target, Count: c.Amount, Color: c.Color}, fade: f})
	case CueDamageNumber:
		e.numbers = append(e.numbers, number{FloatingNumber: FloatingNumber{Target: c.Target, Amount: c.Amount, Color: c.Color}, fade: f})
	case CueBars:
		e.bars = c.Bars
	case CueMessage:
		e.message = c.Text
	case CueBanner:
		e.banner = c.Text
		e.bannerFor = f
	case CueFadeOut:
		e.fades[c.Target] = f
	}
}

// Advance ages every effect by dt and drops the ones that have run out.
// Fade-outs are kept at their final state.
func (e *Effects) Advance(dt time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for t, p := range e.poses {
		p.advance(dt)
		if !p.active() {
			delete(e.poses, t)
			continue
		}
		e.poses[t] = p
	}
	for t, k := range e.knockback {
		k.advance(dt)
		if !k.active() {
			delete(e.knockback, t)
			continue
		}
		e.knockback[t] = k
	}
	for t, fl := range e.flashes {
		fl.advance(dt)
		if !fl.active() {
			delete(e.flashes, t)
			continue
		}
		e.flashes[t] = fl
	}
	for t, s := range e.panel {
		s.advance(dt)
		if !s.active() {
			delete(e.panel, t)
			continue
		}
		e.panel[t] = s
	}
	for t, f := range e.fades {
		f.advance(dt)
		e.fades[t] = f
	}
	e.camera.advance(dt)
	e.screen.advance(dt)
	e.bannerFor.advance(dt)
	if !e.bannerFor.active() {
		e.banner = ""
	}

	live := e.numbers[:0]
	for _, n := range e.numbers {
		n.advance(dt)
		if n.active() {
			live = append(live, n)
		}
	}
	e.numbers = live
	bursts := e.bursts[:0]
	for _, b := range e.bursts {
		b.advance(dt)
		if b.active() {
			bursts = append(bursts, b)
		}
	}
	e.bursts = bursts
}

// Offset returns how far t is pushed toward its opponent in pixels. Lunges
// are positive, recoils and knockbacks negative.
func (e *Effects) Offset(t Target, lunge float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	var x float64
	if p, ok := e.poses[t]; ok {
		switch p.kind {
		case CueLunge:
			x += lunge * p.progress()
		case CueReturn:
			x += lunge * (1 - p.progress())
		case CueRecoil:
			x -= lunge / 4 * (1 - p.progress())
		}
	}
	if k, ok := e.knockback[t]; ok {
		x -= k.intensity * (1 - k.progress())
	}
	return x
}

// Flash returns the hit flash color over t, if one is showing.
func (e *Effects) Flash(t Target) (color.RGBA, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fl, ok := e.flashes[t]
	return fl.color, ok
}

// ScreenFlash returns the full-screen flash with its alpha scaled by the
// time left, if one is showing.
func (e *Effects) ScreenFlash() (color.RGBA, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.screen.active() {
		return color.RGBA{}, false
	}
	c := e.screen.color
	c.A = uint8(float64(c.A) * (1 - e.screen.progress()))
	return c, true
}

// CameraShake returns the current camera shake amplitude in pixels.
func (e *Effects) CameraShake() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.camera.active() {
		return 0
	}
	return e.camera.intensity * (1 - e.camera.progress())
}

// PanelShake returns the shake amplitude of t's status panel in pixels.
func (e *Effects) PanelShake(t Target) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.panel[t]
	if !ok {
		return 0
	}
	return s.intensity * (1 - s.progress())
}

// Alpha returns t's opacity: 1 normally, falling to 0 over a fade-out.
func (e *Effects) Alpha(t Target) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.fades[t]
	if !ok {
		return 1
	}
	return 1 - f.progress()
}

// Numbers returns the floating numbers still showing, oldest first.
func (e *Effects) Numbers() []FloatingNumber {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]FloatingNumber, len(e.numbers))
	for i, n := range e.numbers {
		n.Rise = n.progress()
		out[i] = n.FloatingNumber
	}
	return out
}

// Bursts returns the particle bursts still showing.
func (e *Effects) Bursts() []Burst {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Burst, len(e.bursts))
	for i, b := range e.bursts {
		b.Spread = b.progress()
		out[i] = b.Burst
	}
	return out
}

// Bars returns the latest bar snapshot.
func (e *Effects) Bars() Bars {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bars
}

// Banner returns the banner text while it is showing.
func (e *Effects) Banner() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.banner, e.banner != ""
}

// LastMessage returns the text of the most recent message cue.
func (e *Effects) LastMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.message
}
