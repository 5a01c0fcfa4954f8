// internal/marquee/calculator.go
package marquee

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// CalculatorLimits carries the numeric tolerance policy for position
// validation. The values are deliberately named configuration rather than
// inline literals; boundary inequalities use >= at the extreme ceiling.
type CalculatorLimits struct {
	// RangeMultiplier bounds |position| relative to contentSize.
	RangeMultiplier float64
	// LargeRangeMultiplier replaces RangeMultiplier when the caller opts in
	// to wide ranges.
	LargeRangeMultiplier float64
	// MaxExtremePosition is the absolute ceiling beyond which a position is
	// pathological regardless of contentSize.
	MaxExtremePosition float64
	// SafeClampPosition is the magnitude out-of-range positions are clamped
	// to. Kept at half the extreme ceiling.
	SafeClampPosition float64
	// RatioWarnThreshold triggers the advisory ratio warning in relaxed mode
	// when |position|/contentSize exceeds it.
	RatioWarnThreshold float64
	// PerformanceWarnPosition triggers the advisory performance warning in
	// relaxed mode on very large absolute magnitudes.
	PerformanceWarnPosition float64
}

// DefaultCalculatorLimits returns the standard tolerance policy.
func DefaultCalculatorLimits() CalculatorLimits {
	return CalculatorLimits{
		RangeMultiplier:         3,
		LargeRangeMultiplier:    10,
		MaxExtremePosition:      100000,
		SafeClampPosition:       50000,
		RatioWarnThreshold:      2,
		PerformanceWarnPosition: 10000,
	}
}

// ValidateOptions selects the validation mode.
type ValidateOptions struct {
	// Strict treats size violations as blocking instead of advisory.
	Strict bool
	// AllowLargeRange widens the relative range check to the large
	// multiplier.
	AllowLargeRange bool
}

// ValidationResult reports the outcome of a position validation. Issues are
// blocking; warnings are advisory only.
type ValidationResult struct {
	Valid    bool
	Issues   []string
	Warnings []string
}

// BatchResult is the outcome of validating an ordered sequence of positions.
type BatchResult struct {
	// ValidPositions is the subsequence passing QuickValidate, in input order.
	ValidPositions []float64
	// InvalidCount is the number of rejected entries.
	InvalidCount int
	// CorrectedPositions mirrors the input length and order with invalid
	// entries replaced by their corrected value.
	CorrectedPositions []float64
}

// Calculator validates, corrects, and batch-corrects logical positions
// against the configured tolerance policy.
type Calculator struct {
	limits CalculatorLimits
	logger *zap.Logger
}

// NewCalculator creates a Calculator with the given policy. A nil logger is
// replaced with a nop logger.
func NewCalculator(limits CalculatorLimits, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		limits: limits,
		logger: logger.With(zap.String("component", "position_calculator")),
	}
}

// ValidatePosition checks one position against content and container sizes.
//
// An unrecognized direction is always blocking, regardless of mode. Size
// violations block only in strict mode and downgrade to warnings otherwise.
// Range violations block in both modes; relaxed mode additionally emits
// advisory ratio and performance warnings for wide-but-legal positions.
func (c *Calculator) ValidatePosition(position, contentSize, containerSize float64, d Direction, opts ValidateOptions) ValidationResult {
	res := ValidationResult{Valid: true, Issues: []string{}, Warnings: []string{}}

	if !IsValidDirection(d) {
		res.Valid = false
		res.Issues = append(res.Issues, fmt.Sprintf("Unknown direction %q", string(d)))
		return res
	}

	sizeIssue := func(msg string) {
		if opts.Strict {
			res.Valid = false
			res.Issues = append(res.Issues, msg)
		} else {
			res.Warnings = append(res.Warnings, msg)
		}
	}
	if contentSize <= 0 {
		sizeIssue(fmt.Sprintf("Content size %v must be positive", contentSize))
	}
	if containerSize <= 0 {
		sizeIssue(fmt.Sprintf("Container size %v must be positive", containerSize))
	}

	if !isFinite(position) {
		res.Valid = false
		res.Issues = append(res.Issues, fmt.Sprintf("Position %v is not a finite number", position))
		return res
	}

	multiplier := c.limits.RangeMultiplier
	if opts.AllowLargeRange {
		multiplier = c.limits.LargeRangeMultiplier
	}
	maxAllowedRange := contentSize * multiplier
	if contentSize > 0 && math.Abs(position) > maxAllowedRange {
		res.Valid = false
		res.Issues = append(res.Issues, fmt.Sprintf(
			"Position %v is out of valid range for %s direction (allowed: %v to %v)",
			position, string(d), -maxAllowedRange, maxAllowedRange))
	}
	if math.Abs(position) >= c.limits.MaxExtremePosition {
		res.Valid = false
		res.Issues = append(res.Issues, fmt.Sprintf(
			"Position %v exceeds the absolute limit %v", position, c.limits.MaxExtremePosition))
	}

	if !opts.Strict && res.Valid {
		if contentSize > 0 && math.Abs(position)/contentSize > c.limits.RatioWarnThreshold {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"Position to content size ratio %.2f is high", math.Abs(position)/contentSize))
		}
		if math.Abs(position) > c.limits.PerformanceWarnPosition {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"Large position magnitude %v may degrade rendering performance", position))
		}
	}

	return res
}

// QuickValidate is the fast boolean check used on the hot tick path. It
// allocates nothing and rejects only non-finite values and magnitudes at or
// beyond the extreme ceiling. A failing direction-config lookup is tolerated;
// direction metadata is advisory here, not required.
func (c *Calculator) QuickValidate(position, referenceSize float64, d Direction) bool {
	_ = referenceSize
	_ = d
	if !isFinite(position) {
		return false
	}
	return math.Abs(position) < c.limits.MaxExtremePosition
}

// CorrectPosition maps invalid positions to safe values: NaN and infinities
// go to 0, magnitudes at or beyond the extreme ceiling clamp to the signed
// safe value, and in-range positions are returned unchanged.
func (c *Calculator) CorrectPosition(position, referenceSize float64, d Direction) (corrected float64) {
	// Any internal fault resolves to the universal safe default.
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Position correction panicked, falling back to 0", zap.Any("panic", r))
			corrected = 0
		}
	}()
	_ = referenceSize
	_ = d

	if !isFinite(position) {
		return 0
	}
	if math.Abs(position) >= c.limits.MaxExtremePosition {
		return math.Copysign(c.limits.SafeClampPosition, position)
	}
	return position
}

// BatchValidate applies QuickValidate/CorrectPosition across an ordered
// sequence of positions.
func (c *Calculator) BatchValidate(positions []float64, referenceSize float64, d Direction) BatchResult {
	res := BatchResult{
		ValidPositions:     make([]float64, 0, len(positions)),
		CorrectedPositions: make([]float64, len(positions)),
	}
	for i, p := range positions {
		if c.QuickValidate(p, referenceSize, d) {
			res.ValidPositions = append(res.ValidPositions, p)
			res.CorrectedPositions[i] = p
			continue
		}
		res.InvalidCount++
		res.CorrectedPositions[i] = c.CorrectPosition(p, referenceSize, d)
	}
	return res
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
