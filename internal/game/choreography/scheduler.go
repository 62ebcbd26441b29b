package choreography

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrBusy is returned by Play while another timeline is still running.
var ErrBusy = errors.New("choreography: a timeline is already playing")

// Step is one fixed-duration stage of a timeline.
//
// When the step begins, Enter runs first and then every cue returned by Cues
// is sent to the stage, so cues observe the state Enter produced.
type Step struct {
	Name     string
	Duration time.Duration
	Enter    func()
	Cues     func() []Cue
}

// Timeline is a totally ordered list of steps.
type Timeline struct {
	Label string
	Steps []Step
}

// Total returns the sum of every step duration.
func (t Timeline) Total() time.Duration {
	var total time.Duration
	for _, s := range t.Steps {
		total += s.Duration
	}
	return total
}

// Append adds steps to the end of the timeline.
func (t *Timeline) Append(steps ...Step) {
	t.Steps = append(t.Steps, steps...)
}

// Scheduler plays at most one timeline at a time, advancing it by explicit
// frame deltas. It never starts goroutines or timers.
//
// Not safe for concurrent use; the caller must serialise access.
type Scheduler struct {
	stage  Stage
	logger *zap.Logger

	active    bool
	timeline  Timeline
	index     int
	remaining time.Duration
	elapsed   time.Duration
	onDone    func()
}

// NewScheduler creates an idle scheduler sending cues to stage.
//
// Precondition: logger must be non-nil. A nil stage discards cues.
func NewScheduler(stage Stage, logger *zap.Logger) *Scheduler {
	if stage == nil {
		stage = NopStage{}
	}
	return &Scheduler{stage: stage, logger: logger, index: -1}
}

// Play starts tl. The first step begins immediately; zero-duration steps run
// in order without waiting for a tick. onDone runs once after the last step
// elapses and may itself call Play.
//
// Postcondition: Returns ErrBusy, without side effects, when a timeline is active.
func (s *Scheduler) Play(tl Timeline, onDone func()) error {
	if s.active {
		return ErrBusy
	}
	s.logger.Debug("timeline start",
		zap.String("timeline", tl.Label),
		zap.Int("steps", len(tl.Steps)),
		zap.Duration("total", tl.Total()),
	)
	s.active = true
	s.timeline = tl
	s.onDone = onDone
	s.elapsed = 0
	s.index = -1
	s.remaining = 0
	s.settle()
	return nil
}

// Advance moves the active timeline forward by dt. Time left over when a
// step ends carries into the next step, and into a timeline started by onDone.
//
// Postcondition: every step whose end lies within dt has been entered and completed.
func (s *Scheduler) Advance(dt time.Duration) {
	if !s.active || dt <= 0 {
		return
	}
	s.remaining -= dt
	s.elapsed += dt
	s.settle()
}

// settle enters steps until the current one has time left or the timeline ends.
func (s *Scheduler) settle() {
	for s.active && s.remaining <= 0 {
		over := -s.remaining
		if s.index+1 < len(s.timeline.Steps) {
			s.index++
			step := s.timeline.Steps[s.index]
			s.remaining = step.Duration - over
			s.enter(step, s.elapsed-over)
			continue
		}

		label := s.timeline.Label
		done := s.onDone
		s.reset()
		s.logger.Debug("timeline done", zap.String("timeline", label))
		if done != nil {
			done()
		}
		if s.active {
			s.remaining -= over
			s.elapsed += over
		}
	}
}

func (s *Scheduler) enter(step Step, at time.Duration) {
	s.logger.Debug("timeline step",
		zap.String("timeline", s.timeline.Label),
		zap.Int("index", s.index),
		zap.String("step", step.Name),
		zap.Duration("duration", step.Duration),
	)
	if step.Enter != nil {
		step.Enter()
	}
	if step.Cues == nil {
		return
	}
	for _, c := range step.Cues() {
		c.Timeline = s.timeline.Label
		c.Step = step.Name
		c.At = at
		s.stage.Cue(c)
	}
}

func (s *Scheduler) reset() {
	s.active = false
	s.timeline = Timeline{}
	s.index = -1
	s.remaining = 0
	s.elapsed = 0
	s.onDone = nil
}

// Cancel discards the active timeline and its completion callback.
func (s *Scheduler) Cancel() {
	if s.active {
		s.logger.Debug("timeline cancelled",
			zap.String("timeline", s.timeline.Label),
			zap.Int("index", s.index),
		)
	}
	s.reset()
}

// Busy reports whether a timeline is playing.
func (s *Scheduler) Busy() bool { return s.active }

// Label returns the active timeline's label, or "" when idle.
func (s *Scheduler) Label() string { return s.timeline.Label }

// StepIndex returns the index of the current step, or -1 when idle.
func (s *Scheduler) StepIndex() int { return s.index }

// StepName returns the current step's name, or "" when idle.
func (s *Scheduler) StepName() string {
	if !s.active || s.index < 0 {
		return ""
	}
	return s.timeline.Steps[s.index].Name
}

// Remaining returns the time left in the current step.
func (s *Scheduler) Remaining() time.Duration {
	if !s.active {
		return 0
	}
	return s.remaining
}

// Elapsed returns the time since the active timeline started.
func (s *Scheduler) Elapsed() time.Duration { return s.elapsed }
