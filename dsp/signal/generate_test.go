package signal

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/neuroaudio/dsp/core"
	"github.com/cwbudde/neuroaudio/internal/testutil"
)

func TestSineLength(t *testing.T) {
	g := NewGenerator(core.WithSampleRate(48000))
	s, err := g.Sine(1000, 1, 64)
	if err != nil {
		t.Fatalf("Sine() error = %v", err)
	}
	if len(s) != 64 {
		t.Fatalf("len = %d, want 64", len(s))
	}
}

func TestToneLengthAndLevel(t *testing.T) {
	g := NewGenerator(core.WithSampleRate(44100), core.WithDuration(0.5))
	tone, err := g.Tone(20000, -10)
	if err != nil {
		t.Fatalf("Tone() error = %v", err)
	}
	if len(tone) != 22050 {
		t.Fatalf("len = %d, want 22050", len(tone))
	}

	want := core.DBToLinear(-10)
	peak := 0.0
	for _, v := range tone {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak > want+1e-12 {
		t.Fatalf("peak = %v exceeds amplitude %v", peak, want)
	}
	if peak < want*0.999 {
		t.Fatalf("peak = %v, want ~%v", peak, want)
	}
	if tone[0] != 0 {
		t.Fatalf("tone[0] = %v, want 0 (sine phase)", tone[0])
	}
}

func TestToneMatchesClosedForm(t *testing.T) {
	g := NewGenerator(core.WithSampleRate(44100), core.WithDuration(0.01))
	tone, err := g.Tone(18000, -6)
	if err != nil {
		t.Fatalf("Tone() error = %v", err)
	}
	want := testutil.DeterministicSine(18000, 44100, core.DBToLinear(-6), len(tone))
	testutil.RequireSliceNearlyEqual(t, tone, want, 1e-12)
}

func TestToneDeterministic(t *testing.T) {
	g := NewGenerator(core.WithDuration(0.05))
	a, err := g.Tone(19500, -10)
	if err != nil {
		t.Fatalf("Tone() error = %v", err)
	}
	b, err := g.Tone(19500, -10)
	if err != nil {
		t.Fatalf("Tone() error = %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %v != %v", i, a[i], b[i])
		}
	}
}

func TestToneErrors(t *testing.T) {
	g := NewGenerator(core.WithSampleRate(44100), core.WithDuration(0.01))
	tests := []struct {
		name   string
		freq   float64
		volume float64
	}{
		{name: "nan frequency", freq: math.NaN(), volume: -10},
		{name: "inf frequency", freq: math.Inf(1), volume: -10},
		{name: "negative frequency", freq: -1, volume: -10},
		{name: "above nyquist", freq: 23000, volume: -10},
		{name: "nan volume", freq: 20000, volume: math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Tone(tt.freq, tt.volume)
			if !errors.Is(err, ErrSynthesis) {
				t.Fatalf("Tone() error = %v, want ErrSynthesis", err)
			}
		})
	}
}

func TestToneIntoLengthMismatch(t *testing.T) {
	g := NewGenerator(core.WithDuration(0.01))
	err := g.ToneInto(make([]float64, 3), 20000, -10)
	if !errors.Is(err, ErrSynthesis) {
		t.Fatalf("ToneInto() error = %v, want ErrSynthesis", err)
	}
}

func TestSynthesize(t *testing.T) {
	tone, err := Synthesize(20000, 0.1, 44100, -10)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(tone) != 4410 {
		t.Fatalf("len = %d, want 4410", len(tone))
	}

	for _, sr := range []int{0, -44100} {
		if _, err := Synthesize(20000, 1, sr, -10); !errors.Is(err, ErrSynthesis) {
			t.Fatalf("Synthesize(sampleRate=%d) error = %v, want ErrSynthesis", sr, err)
		}
	}
	if _, err := Synthesize(20000, 0, 44100, -10); !errors.Is(err, ErrSynthesis) {
		t.Fatalf("Synthesize(duration=0) error = %v, want ErrSynthesis", err)
	}
}

func BenchmarkToneInto(b *testing.B) {
	g := NewGenerator(core.WithDuration(1))
	dst := make([]float64, g.Samples())
	b.SetBytes(int64(len(dst) * 8))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := g.ToneInto(dst, 20000, -10); err != nil {
			b.Fatal(err)
		}
	}
}
