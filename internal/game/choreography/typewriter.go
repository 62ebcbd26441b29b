package choreography

import (
	"time"
	"unicode/utf8"
)

// Typewriter reveals a line of text one rune per interval. The first rune is
// visible as soon as Type is called. Typing a new line replaces the old one.
type Typewriter struct {
	interval time.Duration
	text     []rune
	elapsed  time.Duration
}

// NewTypewriter creates a typewriter revealing one rune per interval.
//
// Precondition: interval >= 0. A zero interval reveals text instantly.
func NewTypewriter(interval time.Duration) *Typewriter {
	return &Typewriter{interval: interval}
}

// Type starts revealing text from the beginning.
func (t *Typewriter) Type(text string) {
	t.text = []rune(text)
	t.elapsed = 0
}

// Advance moves the reveal forward by dt.
func (t *Typewriter) Advance(dt time.Duration) {
	if dt > 0 {
		t.elapsed += dt
	}
}

// Visible returns the revealed prefix.
func (t *Typewriter) Visible() string {
	n := len(t.text)
	if t.interval > 0 {
		shown := 1 + int(t.elapsed/t.interval)
		if shown < n {
			n = shown
		}
	}
	return string(t.text[:n])
}

// Text returns the full line being revealed.
func (t *Typewriter) Text() string { return string(t.text) }

// Done reports whether the reveal duration has elapsed.
func (t *Typewriter) Done() bool {
	return t.elapsed >= t.Duration()
}

// Duration returns the reveal duration of the current line.
func (t *Typewriter) Duration() time.Duration {
	return RevealDuration(len(t.text), t.interval)
}

// RevealDuration is the time a typewriter needs for n runes.
func RevealDuration(n int, interval time.Duration) time.Duration {
	return time.Duration(n) * interval
}

// MessageHold returns how long a message gates the next turn: its reveal
// duration plus pad.
func MessageHold(text string, interval, pad time.Duration) time.Duration {
	return RevealDuration(utf8.RuneCountInString(text), interval) + pad
}
