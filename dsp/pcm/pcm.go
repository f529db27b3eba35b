// Package pcm converts float composites into signed 16-bit PCM without
// clipping.
package pcm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

const (
	// FullScale maps a float sample of 1.0 to an int16 value.
	FullScale = math.MaxInt16

	// DefaultTargetPeak is the peak a clipping composite is rescaled to.
	DefaultTargetPeak = math.MaxInt16
)

// Result is a normalized PCM buffer and the decision that produced it.
type Result struct {
	Samples []int16
	// Peak is the composite's absolute peak in int16 units, before scaling.
	Peak float64
	// Gain is the factor applied on top of FullScale (1 when unscaled).
	Gain float64
	// Scaled reports whether the composite exceeded the int16 range.
	Scaled bool
}

// Normalize converts signal to int16 PCM. A composite whose peak exceeds
// the int16 range is rescaled so that its peak lands exactly on targetPeak;
// anything quieter passes through unscaled. Silence stays silence.
func Normalize(signal []float64, targetPeak int) (Result, error) {
	if targetPeak < 1 || targetPeak > math.MaxInt16 {
		return Result{}, fmt.Errorf("pcm: target peak must be in [1, %d]: %d", math.MaxInt16, targetPeak)
	}

	res := Result{
		Samples: make([]int16, len(signal)),
		Gain:    1,
	}
	if len(signal) == 0 {
		return res, nil
	}

	maxAbs := vecmath.MaxAbs(signal)
	if math.IsNaN(maxAbs) || math.IsInf(maxAbs, 0) {
		return Result{}, fmt.Errorf("pcm: composite contains non-finite samples")
	}
	res.Peak = maxAbs * FullScale
	if res.Peak == 0 {
		return res, nil
	}

	scale := float64(FullScale)
	if res.Peak > math.MaxInt16 {
		res.Gain = float64(targetPeak) / res.Peak
		res.Scaled = true
		scale *= res.Gain
	}

	for i, x := range signal {
		res.Samples[i] = toInt16(x * scale)
	}
	return res, nil
}

func toInt16(v float64) int16 {
	r := math.Round(v)
	if r > math.MaxInt16 {
		return math.MaxInt16
	}
	if r < math.MinInt16 {
		return math.MinInt16
	}
	return int16(r)
}

// ToFloat converts PCM back to float samples in full-scale units.
func ToFloat(samples []int16) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) / FullScale
	}
	return out
}

// Bytes serializes samples as little-endian signed 16-bit PCM.
func Bytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
