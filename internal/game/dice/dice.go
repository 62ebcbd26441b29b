// Package dice provides the randomness abstraction used by the battle engine:
// inclusive integer ranges and probability checks over an injectable Source.
package dice

// Source is the randomness provider for every battle roll.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}

// Between returns a uniformly distributed int in the inclusive range [min, max].
//
// Precondition: min <= max; src must be non-nil. Panics if min > max.
// Postcondition: min <= result <= max.
func Between(src Source, min, max int) int {
	if min > max {
		panic("dice: Between called with min > max")
	}
	return min + src.Intn(max-min+1)
}

// Chance reports whether an event with probability p occurs.
//
// Postcondition: p <= 0 never succeeds; p >= 1 always succeeds.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// CoinFlip reports true with probability one half.
func CoinFlip(src Source) bool {
	return Chance(src, 0.5)
}
