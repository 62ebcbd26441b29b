package combat

import (
	"sync"
	"time"
)

// FrameClock calls onTick at a fixed interval with the wall time elapsed since
// the previous tick. It drives Update for encounters that run without a render
// loop. onTick runs on the clock's own goroutine.
type FrameClock struct {
	ticker *time.Ticker
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewFrameClock creates and starts a clock. The clock stops on its own when
// onTick returns false.
//
// Precondition: interval > 0; onTick must not be nil.
// Postcondition: Returns a running FrameClock.
func NewFrameClock(interval time.Duration, onTick func(dt time.Duration) bool) *FrameClock {
	fc := &FrameClock{
		ticker: time.NewTicker(interval),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go fc.run(onTick)
	return fc
}

func (fc *FrameClock) run(onTick func(dt time.Duration) bool) {
	defer close(fc.done)
	defer fc.ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-fc.stop:
			return
		case now := <-fc.ticker.C:
			dt := now.Sub(last)
			last = now
			if !onTick(dt) {
				return
			}
		}
	}
}

// Stop prevents further ticks. Safe to call multiple times and from onTick.
//
// Postcondition: onTick is not called again once Done is closed.
func (fc *FrameClock) Stop() {
	fc.once.Do(func() { close(fc.stop) })
}

// Done is closed when the clock has stopped ticking.
func (fc *FrameClock) Done() <-chan struct{} {
	return fc.done
}
