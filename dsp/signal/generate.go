package signal

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/neuroaudio/dsp/core"
)

// ErrSynthesis is wrapped by every error returned from tone synthesis.
var ErrSynthesis = errors.New("signal: synthesis failed")

// Generator renders deterministic tones on a fixed sample grid.
type Generator struct {
	cfg core.ProcessorConfig
}

// NewGenerator creates a configured tone generator.
func NewGenerator(opts ...core.ProcessorOption) *Generator {
	return &Generator{
		cfg: core.ApplyProcessorOptions(opts...),
	}
}

// Config returns the generator processor configuration.
func (g *Generator) Config() core.ProcessorConfig {
	return g.cfg
}

// Samples returns the length of every buffer this generator renders.
func (g *Generator) Samples() int {
	return g.cfg.Samples()
}

// Sine generates a sine wave of the given linear amplitude.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("%w: sine samples must be > 0: %d", ErrSynthesis, samples)
	}
	out := make([]float64, samples)
	if err := g.sineInto(out, freqHz, amplitude); err != nil {
		return nil, err
	}
	return out, nil
}

// Tone renders one full-length tone at freqHz with the level given in dB
// relative to full scale (0 dB == amplitude 1.0).
func (g *Generator) Tone(freqHz, volumeDb float64) ([]float64, error) {
	n := g.Samples()
	if n <= 0 {
		return nil, fmt.Errorf("%w: render length must be > 0 (rate %v, duration %v)",
			ErrSynthesis, g.cfg.SampleRate, g.cfg.Duration)
	}
	out := make([]float64, n)
	if err := g.ToneInto(out, freqHz, volumeDb); err != nil {
		return nil, err
	}
	return out, nil
}

// ToneInto is Tone writing into dst, which must be exactly Samples() long.
// Workers reuse one scratch buffer across tones with it.
func (g *Generator) ToneInto(dst []float64, freqHz, volumeDb float64) error {
	if n := g.Samples(); len(dst) != n || n <= 0 {
		return fmt.Errorf("%w: tone buffer length %d, want %d", ErrSynthesis, len(dst), n)
	}
	if !core.IsFinite(volumeDb) {
		return fmt.Errorf("%w: volume must be finite: %v dB", ErrSynthesis, volumeDb)
	}
	return g.sineInto(dst, freqHz, core.DBToLinear(volumeDb))
}

func (g *Generator) sineInto(dst []float64, freqHz, amplitude float64) error {
	sr := g.cfg.SampleRate
	if sr <= 0 || !core.IsFinite(sr) {
		return fmt.Errorf("%w: sample rate must be > 0: %v", ErrSynthesis, sr)
	}
	if !core.IsFinite(freqHz) || freqHz < 0 {
		return fmt.Errorf("%w: frequency must be finite and >= 0: %v", ErrSynthesis, freqHz)
	}
	if freqHz > sr/2 {
		return fmt.Errorf("%w: frequency %v Hz above Nyquist (%v Hz)", ErrSynthesis, freqHz, sr/2)
	}
	if !core.IsFinite(amplitude) {
		return fmt.Errorf("%w: amplitude must be finite: %v", ErrSynthesis, amplitude)
	}

	step := 2 * math.Pi * freqHz / sr
	for i := range dst {
		dst[i] = amplitude * math.Sin(step*float64(i))
	}
	return nil
}

// Synthesize renders a single tone without a long-lived Generator:
// s[n] = 10^(volumeDb/20) * sin(2*pi*freqHz*n/sampleRateHz) for
// n in [0, round(sampleRateHz*durationSeconds)).
func Synthesize(freqHz, durationSeconds float64, sampleRateHz int, volumeDb float64) ([]float64, error) {
	if sampleRateHz <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be > 0: %d", ErrSynthesis, sampleRateHz)
	}
	if durationSeconds <= 0 || !core.IsFinite(durationSeconds) {
		return nil, fmt.Errorf("%w: duration must be > 0: %v", ErrSynthesis, durationSeconds)
	}
	g := &Generator{cfg: core.ProcessorConfig{
		SampleRate: float64(sampleRateHz),
		Duration:   durationSeconds,
	}}
	return g.Tone(freqHz, volumeDb)
}
