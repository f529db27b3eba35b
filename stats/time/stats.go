// Package time measures the level of rendered audio in the time domain.
//
// Values are in full-scale units: 1.0 corresponds to an int16 sample of
// 32767, so the dB fields are dBFS.
package time

import (
	"math"

	"github.com/cwbudde/neuroaudio/dsp/core"
)

const fullScale = math.MaxInt16

// Stats holds level statistics of one signal.
//
//nolint:revive
type Stats struct {
	Length         int
	DC             float64 // mean
	RMS            float64
	RMS_dB         float64
	Peak           float64 // max |x|
	Peak_dB        float64
	PeakPos        int
	CrestFactor    float64 // peak / RMS
	CrestFactor_dB float64
	ZeroCrossings  int
	FullScale      int // samples with |x| >= 1
}

// Silent reports whether every sample is zero.
func (s Stats) Silent() bool {
	return s.Peak == 0
}

// ZeroCrossingFrequency estimates the frequency of a single dominant tone
// from the crossing count: a sinusoid crosses zero twice per period.
func (s Stats) ZeroCrossingFrequency(sampleRate float64) float64 {
	if s.Length < 2 || sampleRate <= 0 {
		return 0
	}
	return float64(s.ZeroCrossings) * sampleRate / (2 * float64(s.Length-1))
}

// Calculate measures signal in one pass.
func Calculate(signal []float64) Stats {
	var m Meter
	m.Update(signal)
	return m.Result()
}

// CalculatePCM measures 16-bit samples.
func CalculatePCM(samples []int16) Stats {
	var m Meter
	m.UpdatePCM(samples)
	return m.Result()
}

// Meter accumulates Stats block by block; the result is identical to
// Calculate over the concatenated blocks. The zero value is ready to use.
type Meter struct {
	n             int
	sum, comp     float64 // Kahan
	sumSq         float64
	peak          float64
	peakPos       int
	zeroCrossings int
	fullScale     int
	last          float64
}

// Update adds a block of full-scale samples.
func (m *Meter) Update(samples []float64) {
	for _, x := range samples {
		m.add(x)
	}
}

// UpdatePCM adds a block of int16 samples.
func (m *Meter) UpdatePCM(samples []int16) {
	for _, s := range samples {
		m.add(float64(s) / fullScale)
	}
}

func (m *Meter) add(x float64) {
	y := x - m.comp
	t := m.sum + y
	m.comp = (t - m.sum) - y
	m.sum = t

	m.sumSq += x * x

	if a := math.Abs(x); a > m.peak {
		m.peak = a
		m.peakPos = m.n
	}
	if math.Abs(x) >= 1 {
		m.fullScale++
	}
	if m.n > 0 && m.last*x < 0 {
		m.zeroCrossings++
	}
	m.last = x
	m.n++
}

// Result returns the statistics of everything added so far.
func (m *Meter) Result() Stats {
	if m.n == 0 {
		return Stats{
			RMS_dB:         math.Inf(-1),
			Peak_dB:        math.Inf(-1),
			CrestFactor_dB: math.Inf(-1),
		}
	}

	nf := float64(m.n)
	rms := math.Sqrt(m.sumSq / nf)

	var crest, crestdB float64
	if rms > 0 {
		crest = m.peak / rms
		crestdB = core.LinearToDB(crest)
	}

	return Stats{
		Length:         m.n,
		DC:             m.sum / nf,
		RMS:            rms,
		RMS_dB:         core.LinearToDB(rms),
		Peak:           m.peak,
		Peak_dB:        core.LinearToDB(m.peak),
		PeakPos:        m.peakPos,
		CrestFactor:    crest,
		CrestFactor_dB: crestdB,
		ZeroCrossings:  m.zeroCrossings,
		FullScale:      m.fullScale,
	}
}

// Reset clears the meter for reuse.
func (m *Meter) Reset() {
	*m = Meter{}
}
