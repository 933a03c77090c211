// Package transform implements the fixed per-element optimization pipeline.
//
// Every sample passes through four steps in this order:
//
//  1. Quantize: round to two decimal places, round(x*100)/100.
//  2. Activate: hyperbolic tangent, bounding the value to (-1, 1).
//  3. Shrink: multiply by ShrinkFactor (0.95).
//  4. Clamp: restrict to [-1, 1]. Always applied.
//
// The pipeline is pure and element-wise: the output for a sample depends on
// that sample alone, so chunks and elements may be processed in any order and
// on any number of goroutines with bit-identical results.
//
// IEEE 754 special values are not rejected. NaN propagates through every step,
// +Inf maps to ShrinkFactor and -Inf to -ShrinkFactor.
package transform

import (
	"fmt"
	"math"

	"github.com/arloliu/vecopt/errs"
	"github.com/arloliu/vecopt/format"
)

const (
	// QuantizeScale is 10^decimals for the quantization step.
	QuantizeScale = 100.0
	// ShrinkFactor is the multiplicative regularization applied after tanh.
	ShrinkFactor = 0.95
	// ClampMin and ClampMax bound every output value.
	ClampMin = -1.0
	ClampMax = 1.0
)

// Quantize rounds x to two decimal places using mode.
//
// With RoundHalfAwayFromZero, 0.125 becomes 0.13; with RoundHalfEven it
// becomes 0.12. Unknown modes fall back to RoundHalfAwayFromZero.
func Quantize(x float64, mode format.RoundingMode) float64 {
	if mode == format.RoundHalfEven {
		return math.RoundToEven(x*QuantizeScale) / QuantizeScale
	}

	return math.Round(x*QuantizeScale) / QuantizeScale
}

// Activate applies the non-linear transform.
func Activate(x float64) float64 {
	return math.Tanh(x)
}

// Shrink applies the fixed regularization.
func Shrink(x float64) float64 {
	return x * ShrinkFactor
}

// Clamp restricts x to [ClampMin, ClampMax]. NaN is returned unchanged.
func Clamp(x float64) float64 {
	return max(ClampMin, min(ClampMax, x))
}

// Pipeline applies the four steps with a fixed rounding mode.
// The zero value is not usable; create one with NewPipeline.
type Pipeline struct {
	rounding format.RoundingMode
}

// NewPipeline creates a pipeline that quantizes with the given rounding mode.
func NewPipeline(rounding format.RoundingMode) (*Pipeline, error) {
	if !rounding.Valid() {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidRoundingMode, rounding)
	}

	return &Pipeline{rounding: rounding}, nil
}

// RoundingMode returns the quantization rounding mode.
func (p *Pipeline) RoundingMode() format.RoundingMode {
	return p.rounding
}

// Apply runs one sample through the pipeline.
func (p *Pipeline) Apply(x float64) float64 {
	return Clamp(Shrink(Activate(Quantize(x, p.rounding))))
}

// Chunk transforms src into dst element by element. dst and src must have the
// same length; dst may alias src for in-place use.
func (p *Pipeline) Chunk(dst, src []float64) {
	if len(dst) != len(src) {
		panic(fmt.Sprintf("transform: dst length %d != src length %d", len(dst), len(src)))
	}
	for i, x := range src {
		dst[i] = p.Apply(x)
	}
}
