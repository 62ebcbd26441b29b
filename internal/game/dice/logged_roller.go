package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged rolling.
// Every labelled roll is logged at debug level with its range and result.
//
// Roller itself satisfies Source, so it can be passed anywhere a Source is expected.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn delegates to the wrapped Source without logging.
func (r *Roller) Intn(n int) int { return r.src.Intn(n) }

// Float64 delegates to the wrapped Source without logging.
func (r *Roller) Float64() float64 { return r.src.Float64() }

// Between rolls the inclusive range [min, max] and logs the result under label.
//
// Precondition: min <= max.
// Postcondition: min <= result <= max; result logged.
func (r *Roller) Between(label string, min, max int) int {
	v := Between(r.src, min, max)
	r.logger.Debug("dice roll",
		zap.String("roll", label),
		zap.Int("min", min),
		zap.Int("max", max),
		zap.Int("result", v),
	)
	return v
}

// Chance tests probability p and logs the draw under label.
func (r *Roller) Chance(label string, p float64) bool {
	draw := r.src.Float64()
	ok := draw < p
	r.logger.Debug("chance roll",
		zap.String("roll", label),
		zap.Float64("p", p),
		zap.Float64("draw", draw),
		zap.Bool("success", ok),
	)
	return ok
}
