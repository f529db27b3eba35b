package spectrum

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// MaxFFTSize bounds the analysis length; longer signals are truncated.
const MaxFFTSize = 1 << 17

// ErrEmpty is returned for signals too short to analyze.
var ErrEmpty = errors.New("spectrum: signal too short")

// Spectrum is the one-sided power spectrum of a windowed block.
type Spectrum struct {
	Power      []float64 // |X[k]|^2 for k in [0, FFTSize/2]
	FFTSize    int
	SampleRate float64
}

// Compute windows up to MaxFFTSize samples of signal with a Hann window,
// zero-pads to a power of two and transforms it.
func Compute(signal []float64, sampleRate float64) (*Spectrum, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("spectrum: sample rate must be > 0: %v", sampleRate)
	}
	n := min(len(signal), MaxFFTSize)
	if n < 2 {
		return nil, ErrEmpty
	}
	fftSize := nextPowerOf2(n)

	block := make([]float64, n)
	copy(block, signal[:n])
	vecmath.MulBlockInPlace(block, hann(n))

	in := make([]complex128, fftSize)
	for i, x := range block {
		in[i] = complex(x, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("spectrum: fft plan: %w", err)
	}
	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("spectrum: fft: %w", err)
	}

	bins := fftSize/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for i := range bins {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}
	power := make([]float64, bins)
	vecmath.Power(power, re, im)

	return &Spectrum{Power: power, FFTSize: fftSize, SampleRate: sampleRate}, nil
}

// BinHz returns the bin spacing.
func (s *Spectrum) BinHz() float64 {
	return s.SampleRate / float64(s.FFTSize)
}

// Frequency returns the center frequency of bin k.
func (s *Spectrum) Frequency(k float64) float64 {
	return k * s.BinHz()
}

// Magnitude returns |X[k]| per bin.
func (s *Spectrum) Magnitude() []float64 {
	out := make([]float64, len(s.Power))
	for i, p := range s.Power {
		out[i] = math.Sqrt(p)
	}
	return out
}

// Dominant returns the frequency of the strongest non-DC bin, refined by
// parabolic interpolation on the log power of its neighbours. It returns 0
// for a silent spectrum.
func (s *Spectrum) Dominant() float64 {
	if len(s.Power) < 2 {
		return 0
	}
	best := 1
	for k := 2; k < len(s.Power); k++ {
		if s.Power[k] > s.Power[best] {
			best = k
		}
	}
	if s.Power[best] <= 0 {
		return 0
	}

	offset := 0.0
	if best < len(s.Power)-1 {
		a := logPower(s.Power[best-1])
		b := logPower(s.Power[best])
		c := logPower(s.Power[best+1])
		if den := a - 2*b + c; den < 0 {
			offset = 0.5 * (a - c) / den
		}
	}
	return s.Frequency(float64(best) + offset)
}

// Centroid returns the magnitude-weighted mean frequency.
func (s *Spectrum) Centroid() float64 {
	var num, den float64
	for k, p := range s.Power {
		m := math.Sqrt(p)
		num += s.Frequency(float64(k)) * m
		den += m
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// BandEnergyRatio returns the share of total energy in [loHz, hiHz].
func (s *Spectrum) BandEnergyRatio(loHz, hiHz float64) float64 {
	var in, total float64
	for k, p := range s.Power {
		total += p
		if f := s.Frequency(float64(k)); f >= loHz && f <= hiHz {
			in += p
		}
	}
	if total == 0 {
		return 0
	}
	return in / total
}

// DominantFrequency is Compute followed by Dominant.
func DominantFrequency(signal []float64, sampleRate float64) (float64, error) {
	s, err := Compute(signal, sampleRate)
	if err != nil {
		return 0, err
	}
	return s.Dominant(), nil
}

// hann returns the periodic Hann window, whose DFT spans exactly three bins.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

func logPower(p float64) float64 {
	if p <= 1e-300 {
		return -690
	}
	return math.Log(p)
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
