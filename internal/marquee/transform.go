// internal/marquee/transform.go
package marquee

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/marquee/internal/render"
)

// fallbackTransform is the safe value written when a transform string is
// structurally invalid.
const fallbackTransform = "none"

// cacheKeyFormat renders cache keys at the same precision the transform
// string itself carries, so two distinct positions can never share a key and
// a hit is always byte-identical to a fresh computation.
const cacheKeyFormat = "%s:%g"

// PerformanceMetrics are process-wide counters, monotonically accumulating
// until reset.
type PerformanceMetrics struct {
	TransformGenerationTime time.Duration
	BatchUpdateTime         time.Duration
	ErrorCount              int64
	FallbackCount           int64
}

// CacheStats describes the transform cache contents.
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// TransformCache maps (direction, position) to a generated transform
// string. It is an explicitly constructed service with an injectable
// lifecycle: callers may share one cache across engines or give each engine
// its own. It is never a source of correctness; a miss recomputes the exact
// same string a hit would have returned.
type TransformCache struct {
	mu      sync.Mutex
	entries map[string]string
	hits    int64
	misses  int64
}

// NewTransformCache creates an empty cache.
func NewTransformCache() *TransformCache {
	return &TransformCache{entries: make(map[string]string)}
}

func (c *TransformCache) key(d Direction, position float64) string {
	return fmt.Sprintf(cacheKeyFormat, string(d), position)
}

// Get returns the cached transform for (d, position), if present.
func (c *TransformCache) Get(d Direction, position float64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[c.key(d, position)]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Set stores a transform for (d, position).
func (c *TransformCache) Set(d Direction, position float64, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(d, position)] = value
}

// Stats reports entry count and hit/miss counters.
func (c *TransformCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// Clear empties the cache and resets its counters.
func (c *TransformCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
	c.hits = 0
	c.misses = 0
}

// TransformManager generates and caches transform strings, batches renderer
// writes, and tracks performance counters. It never lets a bad transform
// string escalate: structurally invalid values fall back to "none".
type TransformManager struct {
	mu      sync.Mutex
	cache   *TransformCache
	metrics PerformanceMetrics
	logger  *zap.Logger
}

// NewTransformManager creates a manager around the given cache. A nil cache
// gets a private one; a nil logger is replaced with a nop logger.
func NewTransformManager(cache *TransformCache, logger *zap.Logger) *TransformManager {
	if cache == nil {
		cache = NewTransformCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransformManager{
		cache:  cache,
		logger: logger.With(zap.String("component", "transform_manager")),
	}
}

// GenerateTransform returns the transform string for (position, d), consulting
// the cache first. The result is byte-identical to what a fresh computation
// produces.
func (m *TransformManager) GenerateTransform(position float64, d Direction) (string, error) {
	if v, ok := m.cache.Get(d, position); ok {
		return v, nil
	}

	start := time.Now()
	value, err := TransformValue(position, d)
	elapsed := time.Since(start)

	m.mu.Lock()
	m.metrics.TransformGenerationTime += elapsed
	if err != nil {
		m.metrics.ErrorCount++
	}
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	m.cache.Set(d, position, value)
	return value, nil
}

// ApplySingle writes a transform string to an element. A structurally invalid
// string is replaced with the safe fallback and counted; renderer failures
// are counted and logged. ApplySingle never returns an error to the tick.
func (m *TransformManager) ApplySingle(r render.Renderer, h render.Handle, value string) {
	if !isWellFormedTransform(value) {
		m.mu.Lock()
		m.metrics.FallbackCount++
		m.mu.Unlock()
		m.logger.Warn("Malformed transform string, applying fallback",
			zap.String("value", value), zap.Int64("handle", int64(h)))
		value = fallbackTransform
	}
	if err := r.ApplyTransform(h, value); err != nil {
		m.mu.Lock()
		m.metrics.ErrorCount++
		m.mu.Unlock()
		m.logger.Error("Transform write rejected by renderer",
			zap.Int64("handle", int64(h)), zap.Error(err))
	}
}

// batchWrite is one element/value pair in a batch application.
type batchWrite struct {
	Handle render.Handle
	Value  string
}

// ApplyBatch groups writes so the render surface sees one burst of style
// mutations instead of interleaved generate/write pairs. The batch is timed
// into BatchUpdateTime.
func (m *TransformManager) ApplyBatch(r render.Renderer, writes []batchWrite) {
	start := time.Now()
	for _, w := range writes {
		m.ApplySingle(r, w.Handle, w.Value)
	}
	m.mu.Lock()
	m.metrics.BatchUpdateTime += time.Since(start)
	m.mu.Unlock()
}

// Warmup precomputes the sawtooth sequence of transforms a track stepping by
// step will request, amortizing later generation cost.
func (m *TransformManager) Warmup(d Direction, contentSize, step float64) error {
	cfg, err := DirectionFor(d)
	if err != nil {
		return err
	}
	if step <= 0 || contentSize <= 0 {
		return newConfigErr(ErrCodeInvalidStep, "warmup requires positive step and content size (step=%v, contentSize=%v)", step, contentSize)
	}

	position := 0.0
	for {
		if _, err := m.GenerateTransform(position, d); err != nil {
			return err
		}
		if cfg.Reverse {
			position -= step
			if position <= -contentSize {
				break
			}
		} else {
			position += step
			if position >= contentSize {
				break
			}
		}
	}
	return nil
}

// Metrics returns a copy of the counters.
func (m *TransformManager) Metrics() PerformanceMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metrics
}

// ResetMetrics zeroes the counters.
func (m *TransformManager) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = PerformanceMetrics{}
}

// CacheStats exposes the underlying cache statistics.
func (m *TransformManager) CacheStats() CacheStats { return m.cache.Stats() }

// ClearCache empties the underlying cache.
func (m *TransformManager) ClearCache() { m.cache.Clear() }

// isWellFormedTransform accepts "none" and single-function transforms of the
// form fn(...px).
func isWellFormedTransform(value string) bool {
	if value == fallbackTransform {
		return true
	}
	open := strings.IndexByte(value, '(')
	if open <= 0 || !strings.HasSuffix(value, ")") {
		return false
	}
	fn := value[:open]
	if fn != "translateX" && fn != "translateY" {
		return false
	}
	inner := value[open+1 : len(value)-1]
	return strings.HasSuffix(inner, "px") && len(inner) > 2
}
