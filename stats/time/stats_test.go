package time

import (
	"math"
	"testing"

	"github.com/cwbudde/neuroaudio/internal/testutil"
)

func TestCalculateSine(t *testing.T) {
	// 100 whole periods of 1 kHz at 48 kHz.
	sig := testutil.DeterministicSine(1000, 48000, 0.5, 4800)
	s := Calculate(sig)

	if s.Length != 4800 {
		t.Fatalf("Length = %d, want 4800", s.Length)
	}
	if math.Abs(s.RMS-0.5/math.Sqrt2) > 1e-9 {
		t.Fatalf("RMS = %v, want %v", s.RMS, 0.5/math.Sqrt2)
	}
	if math.Abs(s.Peak-0.5) > 1e-9 {
		t.Fatalf("Peak = %v, want 0.5", s.Peak)
	}
	if math.Abs(s.Peak_dB-(-6.0206)) > 1e-3 {
		t.Fatalf("Peak_dB = %v, want -6.02", s.Peak_dB)
	}
	if math.Abs(s.CrestFactor_dB-3.0103) > 1e-3 {
		t.Fatalf("CrestFactor_dB = %v, want 3.01", s.CrestFactor_dB)
	}
	if math.Abs(s.DC) > 1e-12 {
		t.Fatalf("DC = %v, want 0", s.DC)
	}
	if f := s.ZeroCrossingFrequency(48000); math.Abs(f-1000) > 10 {
		t.Fatalf("ZeroCrossingFrequency() = %v, want about 1000", f)
	}
	if s.FullScale != 0 || s.Silent() {
		t.Fatalf("FullScale = %d, Silent = %v", s.FullScale, s.Silent())
	}
}

func TestCalculateEmptyAndSilent(t *testing.T) {
	empty := Calculate(nil)
	if !math.IsInf(empty.RMS_dB, -1) || !math.IsInf(empty.Peak_dB, -1) {
		t.Fatalf("empty dB fields = %v, %v, want -Inf", empty.RMS_dB, empty.Peak_dB)
	}

	silent := CalculatePCM(make([]int16, 100))
	if !silent.Silent() || silent.Length != 100 {
		t.Fatalf("Silent() = %v, Length = %d", silent.Silent(), silent.Length)
	}
	if silent.CrestFactor != 0 || silent.ZeroCrossings != 0 {
		t.Fatalf("silent crest %v crossings %d", silent.CrestFactor, silent.ZeroCrossings)
	}
}

func TestCalculatePCM(t *testing.T) {
	s := CalculatePCM([]int16{0, 32767, -32767, -32768, 16384})
	if s.Peak < 1 {
		t.Fatalf("Peak = %v, want >= 1", s.Peak)
	}
	if s.PeakPos != 3 {
		t.Fatalf("PeakPos = %d, want 3", s.PeakPos)
	}
	if s.FullScale != 3 {
		t.Fatalf("FullScale = %d, want 3", s.FullScale)
	}
	if s.ZeroCrossings != 2 {
		t.Fatalf("ZeroCrossings = %d, want 2", s.ZeroCrossings)
	}
}

func TestMeterMatchesCalculate(t *testing.T) {
	sig := testutil.Sum(
		testutil.DeterministicSine(440, 44100, 0.3, 5000),
		testutil.DeterministicSine(1250, 44100, 0.2, 5000),
	)
	want := Calculate(sig)

	var m Meter
	for i := 0; i < len(sig); i += 333 {
		m.Update(sig[i:min(i+333, len(sig))])
	}
	if got := m.Result(); got != want {
		t.Fatalf("Meter = %+v, want %+v", got, want)
	}

	m.Reset()
	if m.Result().Length != 0 {
		t.Fatal("Reset() did not clear the meter")
	}
}

func BenchmarkCalculatePCM(b *testing.B) {
	samples := make([]int16, 1<<16)
	for i := range samples {
		samples[i] = int16(20000 * math.Sin(float64(i)/7))
	}
	b.ReportAllocs()
	b.SetBytes(int64(len(samples) * 2))
	for range b.N {
		CalculatePCM(samples)
	}
}
