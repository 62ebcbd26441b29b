// Package condition tracks the one-shot status modifiers that protect the
// player from the next incoming hit.
package condition

import (
	"fmt"
	"sort"
)

// Kind identifies a one-shot modifier. Lower values are consumed first.
type Kind int

const (
	// Evade fully negates the next incoming hit.
	Evade Kind = iota
	// Reduction subtracts a flat amount from the next incoming hit.
	Reduction
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Evade:
		return "evade"
	case Reduction:
		return "reduction"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Modifier is one pending effect on the next incoming hit.
type Modifier struct {
	Kind   Kind
	Amount int // used by Reduction only
}

// Apply returns damage after this modifier alone.
//
// Postcondition: result >= 0.
func (m Modifier) Apply(damage int) int {
	switch m.Kind {
	case Evade:
		return 0
	case Reduction:
		damage -= m.Amount
	}
	if damage < 0 {
		return 0
	}
	return damage
}

// Queue holds pending one-shot modifiers for one combatant.
// It is not safe for concurrent use; the caller must serialise access.
type Queue struct {
	pending []Modifier
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Add makes m pending, replacing any pending modifier of the same kind.
// Defending twice before a hit still reduces it only once.
//
// Precondition: m.Amount >= 0; a negative amount panics.
// Postcondition: Has(m.Kind) is true and at most one modifier of that kind is pending.
func (q *Queue) Add(m Modifier) {
	if m.Amount < 0 {
		panic(fmt.Sprintf("condition: Add called with negative amount %d", m.Amount))
	}
	for i, p := range q.pending {
		if p.Kind == m.Kind {
			q.pending[i] = m
			return
		}
	}
	q.pending = append(q.pending, m)
}

// Absorb applies every pending modifier to damage in priority order and then
// clears them all, whether or not they changed the result.
//
// Precondition: damage >= 0.
// Postcondition: Len() == 0; result in [0, damage]; consumed lists every
// modifier that was pending, in priority order.
func (q *Queue) Absorb(damage int) (int, []Modifier) {
	if len(q.pending) == 0 {
		return damage, nil
	}
	consumed := make([]Modifier, len(q.pending))
	copy(consumed, q.pending)
	sort.SliceStable(consumed, func(i, j int) bool { return consumed[i].Kind < consumed[j].Kind })
	q.pending = q.pending[:0]
	for _, m := range consumed {
		damage = m.Apply(damage)
	}
	return damage, consumed
}

// Has reports whether a modifier of kind k is pending.
func (q *Queue) Has(k Kind) bool {
	for _, m := range q.pending {
		if m.Kind == k {
			return true
		}
	}
	return false
}

// Reduction returns the pending flat reduction, or 0.
func (q *Queue) Reduction() int {
	total := 0
	for _, m := range q.pending {
		if m.Kind == Reduction {
			total += m.Amount
		}
	}
	return total
}

// Len returns the number of pending modifiers.
func (q *Queue) Len() int {
	return len(q.pending)
}

// Clear drops all pending modifiers.
func (q *Queue) Clear() {
	q.pending = q.pending[:0]
}
