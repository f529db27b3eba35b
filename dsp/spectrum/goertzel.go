package spectrum

import (
	"fmt"
	"math"

	"github.com/cwbudde/neuroaudio/dsp/core"
)

// Goertzel evaluates one DFT term over every sample fed since the last
// Reset. Leakage is lowest when the block holds an integer number of
// periods of the target frequency.
type Goertzel struct {
	frequency  float64
	sampleRate float64
	coeff      float64
	s0, s1     float64
	n          int
}

// NewGoertzel returns a detector for frequency, which must lie in
// [0, sampleRate/2].
func NewGoertzel(frequency, sampleRate float64) (*Goertzel, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("goertzel: sample rate must be > 0: %v", sampleRate)
	}
	if frequency < 0 || frequency > sampleRate/2 || math.IsNaN(frequency) {
		return nil, fmt.Errorf("goertzel: frequency must be between 0 and sampleRate/2: %v", frequency)
	}

	return &Goertzel{
		frequency:  frequency,
		sampleRate: sampleRate,
		coeff:      2 * math.Cos(2*math.Pi*frequency/sampleRate),
	}, nil
}

// Reset clears the accumulated state.
func (g *Goertzel) Reset() {
	g.s0, g.s1, g.n = 0, 0, 0
}

// ProcessBlock feeds input through the recurrence.
func (g *Goertzel) ProcessBlock(input []float64) {
	s0, s1 := g.s0, g.s1
	coeff := g.coeff
	for _, x := range input {
		s := x + coeff*s0 - s1
		s1 = s0
		s0 = s
	}
	g.s0, g.s1 = s0, s1
	g.n += len(input)
}

// Power returns |X[k]|^2 for the samples processed so far.
func (g *Goertzel) Power() float64 {
	return g.s0*g.s0 + g.s1*g.s1 - g.coeff*g.s0*g.s1
}

// Amplitude estimates the peak amplitude of a sinusoid at the target
// frequency, 2|X[k]|/N. For DC and Nyquist the factor is 1/N.
func (g *Goertzel) Amplitude() float64 {
	p := g.Power()
	if p <= 0 || g.n == 0 {
		return 0
	}
	scale := 2.0
	if g.frequency == 0 || core.NearlyEqual(g.frequency, g.sampleRate/2, 1e-12) {
		scale = 1
	}
	return scale * math.Sqrt(p) / float64(g.n)
}

// Frequency returns the target frequency.
func (g *Goertzel) Frequency() float64 { return g.frequency }

// ToneAmplitude is the one-shot form of Goertzel.Amplitude.
func ToneAmplitude(signal []float64, frequency, sampleRate float64) (float64, error) {
	g, err := NewGoertzel(frequency, sampleRate)
	if err != nil {
		return 0, err
	}
	g.ProcessBlock(signal)
	return g.Amplitude(), nil
}

// ToneAmplitudes measures several frequencies over the same signal.
func ToneAmplitudes(signal []float64, frequencies []float64, sampleRate float64) ([]float64, error) {
	out := make([]float64, len(frequencies))
	for i, f := range frequencies {
		a, err := ToneAmplitude(signal, f, sampleRate)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}
