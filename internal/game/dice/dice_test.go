package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/wasteland/internal/game/dice"
)

func TestBetween_StaysInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		min := rapid.IntRange(-50, 50).Draw(rt, "min")
		span := rapid.IntRange(0, 50).Draw(rt, "span")
		seed := rapid.Uint64().Draw(rt, "seed")
		src := dice.NewSeededSource(seed)
		v := dice.Between(src, min, min+span)
		assert.GreaterOrEqual(rt, v, min)
		assert.LessOrEqual(rt, v, min+span)
	})
}

func TestBetween_PanicsOnInvertedRange(t *testing.T) {
	assert.Panics(t, func() { dice.Between(dice.NewCryptoSource(), 5, 4) })
}

func TestBetween_DegenerateRange(t *testing.T) {
	assert.Equal(t, 7, dice.Between(&dice.FixedSource{Ints: []int{99}}, 7, 7))
}

func TestCryptoSource_Bounds(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 500; i++ {
		n := src.Intn(6)
		assert.True(t, n >= 0 && n < 6)
		f := src.Float64()
		assert.True(t, f >= 0 && f < 1)
	}
	assert.Panics(t, func() { src.Intn(0) })
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Intn(1000), b.Intn(1000))
		require.Equal(t, a.Float64(), b.Float64())
	}
}

func TestFixedSource_CyclesAndReduces(t *testing.T) {
	src := &dice.FixedSource{Ints: []int{1, 9}, Floats: []float64{0.1, 0.9}}
	assert.Equal(t, 1, src.Intn(4))
	assert.Equal(t, 1, src.Intn(4), "9 mod 4")
	assert.Equal(t, 1, src.Intn(4), "cycles back to the first value")
	assert.Equal(t, 0.1, src.Float64())
	assert.Equal(t, 0.9, src.Float64())
	assert.Equal(t, 0.1, src.Float64())
}

func TestFixedSource_Empty(t *testing.T) {
	src := &dice.FixedSource{}
	assert.Equal(t, 0, src.Intn(3))
	assert.Equal(t, 0.0, src.Float64())
}

func TestChance_Boundaries(t *testing.T) {
	src := &dice.FixedSource{Floats: []float64{0.39, 0.4}}
	assert.True(t, dice.Chance(src, 0.4))
	assert.False(t, dice.Chance(src, 0.4))
}

func TestCoinFlip_RoughlyFair(t *testing.T) {
	src := dice.NewSeededSource(7)
	heads := 0
	const trials = 4000
	for i := 0; i < trials; i++ {
		if dice.CoinFlip(src) {
			heads++
		}
	}
	ratio := float64(heads) / trials
	assert.InDelta(t, 0.5, ratio, 0.05)
}

func TestRoller_LogsRolls(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := dice.NewLoggedRoller(&dice.FixedSource{Ints: []int{2}, Floats: []float64{0.2}}, zap.New(core))

	v := r.Between("enemy_damage", 3, 6)
	assert.Equal(t, 5, v)
	assert.True(t, r.Chance("flee", 0.4))

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0].ContextMap()
	assert.Equal(t, "enemy_damage", first["roll"])
	assert.Equal(t, int64(5), first["result"])
	second := logs.All()[1].ContextMap()
	assert.Equal(t, true, second["success"])
}

func TestRoller_IsSource(t *testing.T) {
	var _ dice.Source = dice.NewLoggedRoller(dice.NewCryptoSource(), zap.NewNop())
}
