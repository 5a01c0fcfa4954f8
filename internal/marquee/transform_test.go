// File: internal/marquee/transform_test.go
package marquee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/marquee/internal/render"
)

func TestGenerateTransform_MatchesFreshComputation(t *testing.T) {
	m := NewTransformManager(nil, zap.NewNop())

	for _, d := range SupportedDirections() {
		cached, err := m.GenerateTransform(42.5, d)
		require.NoError(t, err)

		fresh, err := TransformValue(42.5, d)
		require.NoError(t, err)
		assert.Equal(t, fresh, cached)

		// Second call is a hit and must return the identical string.
		again, err := m.GenerateTransform(42.5, d)
		require.NoError(t, err)
		assert.Equal(t, fresh, again)
	}

	stats := m.CacheStats()
	assert.Equal(t, 4, stats.Entries)
	assert.Equal(t, int64(4), stats.Hits)
}

func TestGenerateTransform_NearbyPositionsNeverCollide(t *testing.T) {
	m := NewTransformManager(nil, zap.NewNop())

	// Positions closer together than any display increment must still get
	// their own entries; a hit may never serve another position's transform.
	first, err := m.GenerateTransform(0.26, DirectionLeft)
	require.NoError(t, err)
	assert.Equal(t, "translateX(-0.26px)", first)

	second, err := m.GenerateTransform(0.31, DirectionLeft)
	require.NoError(t, err)
	assert.Equal(t, "translateX(-0.31px)", second)

	assert.Equal(t, 2, m.CacheStats().Entries)

	// Repeat lookups stay byte-identical to a fresh computation.
	for _, p := range []float64{0.26, 0.31, 0.005, 0.0051} {
		cached, err := m.GenerateTransform(p, DirectionLeft)
		require.NoError(t, err)
		fresh, err := TransformValue(p, DirectionLeft)
		require.NoError(t, err)
		assert.Equal(t, fresh, cached)
	}
}

func TestGenerateTransform_InvalidDirection(t *testing.T) {
	m := NewTransformManager(nil, zap.NewNop())
	_, err := m.GenerateTransform(10, "diagonal")
	require.Error(t, err)
	assert.Equal(t, int64(1), m.Metrics().ErrorCount)
}

func TestTransformCache_SharedAcrossManagers(t *testing.T) {
	cache := NewTransformCache()
	m1 := NewTransformManager(cache, zap.NewNop())
	m2 := NewTransformManager(cache, zap.NewNop())

	_, err := m1.GenerateTransform(10, DirectionLeft)
	require.NoError(t, err)

	// m2 sees m1's entry.
	_, err = m2.GenerateTransform(10, DirectionLeft)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Stats().Entries)
	assert.Equal(t, int64(1), cache.Stats().Hits)
}

func TestTransformCache_KeysSeparateDirections(t *testing.T) {
	cache := NewTransformCache()
	cache.Set(DirectionLeft, 10, "translateX(-10px)")

	_, ok := cache.Get(DirectionUp, 10)
	assert.False(t, ok, "directions must not collide on the same position")

	v, ok := cache.Get(DirectionLeft, 10)
	assert.True(t, ok)
	assert.Equal(t, "translateX(-10px)", v)

	cache.Clear()
	_, ok = cache.Get(DirectionLeft, 10)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Stats().Entries)
}

func TestApplySingle_FallbackOnMalformedValue(t *testing.T) {
	mem := render.NewMemDOM(zap.NewNop())
	container := mem.NewContainer()
	block, err := mem.CreateBlock(container, []string{"a"})
	require.NoError(t, err)

	m := NewTransformManager(nil, zap.NewNop())
	m.ApplySingle(mem, block, "rotate(45deg)")

	el, ok := mem.Element(block)
	require.True(t, ok)
	assert.Equal(t, "none", el.Transform)
	assert.Equal(t, int64(1), m.Metrics().FallbackCount)
}

func TestApplySingle_RendererErrorCounted(t *testing.T) {
	mem := render.NewMemDOM(zap.NewNop())
	container := mem.NewContainer()
	block, err := mem.CreateBlock(container, []string{"a"})
	require.NoError(t, err)
	mem.FailApply = true

	m := NewTransformManager(nil, zap.NewNop())
	// Must not panic and must not return an error; only the counter moves.
	m.ApplySingle(mem, block, "translateX(-5px)")
	assert.Equal(t, int64(1), m.Metrics().ErrorCount)
}

func TestApplyBatch_TimesWrites(t *testing.T) {
	mem := render.NewMemDOM(zap.NewNop())
	container := mem.NewContainer()
	b1, err := mem.CreateBlock(container, []string{"a"})
	require.NoError(t, err)
	b2, err := mem.CreateBlock(container, []string{"a"})
	require.NoError(t, err)

	m := NewTransformManager(nil, zap.NewNop())
	m.ApplyBatch(mem, []batchWrite{
		{Handle: b1, Value: "translateX(-5px)"},
		{Handle: b2, Value: "translateX(-5px)"},
	})

	el1, _ := mem.Element(b1)
	el2, _ := mem.Element(b2)
	assert.Equal(t, "translateX(-5px)", el1.Transform)
	assert.Equal(t, "translateX(-5px)", el2.Transform)
	assert.GreaterOrEqual(t, m.Metrics().BatchUpdateTime.Nanoseconds(), int64(0))
}

func TestWarmup_PrecomputesSawtooth(t *testing.T) {
	m := NewTransformManager(nil, zap.NewNop())
	require.NoError(t, m.Warmup(DirectionLeft, 100, 10))

	stats := m.CacheStats()
	// Positions 0,10,...,90 before the wrap.
	assert.Equal(t, 10, stats.Entries)

	// The warmed entries serve subsequent generation as hits.
	_, err := m.GenerateTransform(50, DirectionLeft)
	require.NoError(t, err)
	assert.Greater(t, m.CacheStats().Hits, int64(0))
}

func TestWarmup_ReverseDirection(t *testing.T) {
	m := NewTransformManager(nil, zap.NewNop())
	require.NoError(t, m.Warmup(DirectionRight, 100, 25))
	assert.Equal(t, 4, m.CacheStats().Entries)
}

func TestWarmup_InvalidArguments(t *testing.T) {
	m := NewTransformManager(nil, zap.NewNop())
	assert.Error(t, m.Warmup(DirectionLeft, 100, 0))
	assert.Error(t, m.Warmup(DirectionLeft, 0, 5))
	assert.Error(t, m.Warmup("diagonal", 100, 5))
}

func TestResetMetrics(t *testing.T) {
	m := NewTransformManager(nil, zap.NewNop())
	_, err := m.GenerateTransform(1, DirectionLeft)
	require.NoError(t, err)

	m.ResetMetrics()
	assert.Equal(t, PerformanceMetrics{}, m.Metrics())
}

func TestIsWellFormedTransform(t *testing.T) {
	assert.True(t, isWellFormedTransform("none"))
	assert.True(t, isWellFormedTransform("translateX(-5px)"))
	assert.True(t, isWellFormedTransform("translateY(12.5px)"))
	assert.False(t, isWellFormedTransform(""))
	assert.False(t, isWellFormedTransform("translateX(-5px"))
	assert.False(t, isWellFormedTransform("rotate(45deg)"))
	assert.False(t, isWellFormedTransform("translateX()"))
	assert.False(t, isWellFormedTransform("translateZ(5px)"))
}
