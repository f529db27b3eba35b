package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cwbudde/neuroaudio/config"
	"github.com/cwbudde/neuroaudio/dsp/pcm"
	"github.com/cwbudde/neuroaudio/dsp/signal"
	"github.com/cwbudde/neuroaudio/encode"
	dsptest "github.com/cwbudde/neuroaudio/internal/testutil"
	"github.com/cwbudde/neuroaudio/mapping"
	"github.com/cwbudde/neuroaudio/metrics"
)

const (
	testRate     = 44100
	testDuration = 0.1
	testSamples  = 4410
)

func testConfig(opts ...config.Option) config.Config {
	base := []config.Option{
		config.WithDuration(testDuration),
		config.WithSampleRate(testRate),
		config.WithFormat(encode.FormatUncompressed),
		config.WithWorkers(1),
	}
	return config.New(append(base, opts...)...)
}

func newPipeline(t *testing.T, cfg config.Config, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func singleTonePCM(t *testing.T, hz, volumeDb float64) []int16 {
	t.Helper()
	tone, err := signal.Synthesize(hz, testDuration, testRate, volumeDb)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	res, err := pcm.Normalize(tone, pcm.DefaultTargetPeak)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	return res.Samples
}

func maxAbsDiff(a, b []int16) int {
	worst := 0
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d < 0 {
			d = -d
		}
		worst = max(worst, d)
	}
	return worst
}

func decodeWAV(t *testing.T, data []byte) *encode.Decoded {
	t.Helper()
	d, err := encode.Decode(context.Background(), data, testRate, "")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return d
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(testConfig(config.WithDuration(0)))
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("New() err = %v, want config.ErrInvalid", err)
	}
}

func TestScenarioAClamp(t *testing.T) {
	p := newPipeline(t, testConfig())
	res, err := p.Run(context.Background(), []float64{0.000018})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	item := res.Items[0]
	if !item.OK() {
		t.Fatalf("item rejected: %v", item.Err)
	}
	if item.Frequency.Hz != 22000 || !item.Frequency.Adjusted {
		t.Fatalf("Frequency = %+v, want clamped 22000 Hz", item.Frequency)
	}
	want := singleTonePCM(t, 22000, config.DefaultVolumeDb)
	if d := maxAbsDiff(res.PCM, want); d != 0 {
		t.Fatalf("PCM differs from a pure 22 kHz tone by %d", d)
	}
}

func TestScenarioAWrap(t *testing.T) {
	p := newPipeline(t, testConfig(config.WithPolicy(mapping.PolicyWrap)))
	res, err := p.Run(context.Background(), []float64{0.000018})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	hz := res.Items[0].Frequency.Hz
	if hz < 18000 || hz >= 22000 {
		t.Fatalf("wrapped Hz = %v, want in [18000, 22000)", hz)
	}
	if math.Abs(hz-20000) > 1e-6 {
		t.Fatalf("wrapped Hz = %v, want 20000", hz)
	}
}

func TestScenarioBEmptyInput(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p := newPipeline(t, testConfig(), WithMetrics(m))

	res, err := p.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Degraded() {
		t.Fatal("Degraded() = false, want true")
	}
	if len(res.PCM) != testSamples {
		t.Fatalf("len(PCM) = %d, want %d", len(res.PCM), testSamples)
	}
	if dsptest.PeakInt16(res.PCM) != 0 {
		t.Fatal("silent run produced non-zero samples")
	}
	decoded := decodeWAV(t, res.Audio.Data)
	if len(decoded.Samples) != testSamples {
		t.Fatalf("decoded %d samples, want %d", len(decoded.Samples), testSamples)
	}
	if got := testutil.ToFloat64(m.Runs.WithLabelValues(metrics.OutcomeDegraded)); got != 1 {
		t.Fatalf("runs{degraded} = %v, want 1", got)
	}
}

func TestSilenceAllRejected(t *testing.T) {
	p := newPipeline(t, testConfig())
	res, err := p.Run(context.Background(), []float64{math.NaN(), math.Inf(1), 0, -2})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Degraded() || res.RejectedCount != 4 {
		t.Fatalf("Degraded() = %v, RejectedCount = %d, want true, 4", res.Degraded(), res.RejectedCount)
	}
	if len(res.PCM) != testSamples || dsptest.PeakInt16(res.PCM) != 0 {
		t.Fatalf("want %d zero samples, got %d with peak %d", testSamples, len(res.PCM), dsptest.PeakInt16(res.PCM))
	}
	rej := res.Rejections()
	if rej[mapping.ReasonNaN] != 1 || rej[mapping.ReasonInfinite] != 1 || rej[mapping.ReasonNonPositive] != 2 {
		t.Fatalf("Rejections() = %v", rej)
	}
}

func TestScenarioCCoincidentTones(t *testing.T) {
	const volume = -3.0
	p := newPipeline(t, testConfig(config.WithVolume(volume)))
	res, err := p.Run(context.Background(), []float64{0.00002, 0.00002})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	tone, err := signal.Synthesize(22000, testDuration, testRate, volume)
	if err != nil {
		t.Fatal(err)
	}
	single, err := pcm.Normalize(tone, pcm.DefaultTargetPeak)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Peak-2*single.Peak) > 1e-6*single.Peak {
		t.Fatalf("composite Peak = %v, want 2 x %v", res.Peak, single.Peak)
	}
	if !res.Scaled {
		t.Fatal("Scaled = false, want true")
	}
	if got := dsptest.PeakInt16(res.PCM); got != pcm.DefaultTargetPeak {
		t.Fatalf("output peak = %d, want %d", got, pcm.DefaultTargetPeak)
	}
}

func TestCoincidentTonesAtDefaultVolumePassThrough(t *testing.T) {
	p := newPipeline(t, testConfig())
	res, err := p.Run(context.Background(), []float64{0.00002, 0.00002})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Scaled {
		t.Fatalf("Scaled = true at %v dB, want unscaled", config.DefaultVolumeDb)
	}
	if res.Gain != 1 {
		t.Fatalf("Gain = %v, want 1", res.Gain)
	}
	if got := dsptest.PeakInt16(res.PCM); got >= pcm.DefaultTargetPeak {
		t.Fatalf("output peak = %d, want below %d", got, pcm.DefaultTargetPeak)
	}
}

func TestScenarioDOneRejected(t *testing.T) {
	p := newPipeline(t, testConfig())
	res, err := p.Run(context.Background(), []float64{math.NaN(), 0.00002})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.FrequenciesProcessed != 1 || res.RejectedCount != 1 {
		t.Fatalf("processed/rejected = %d/%d, want 1/1", res.FrequenciesProcessed, res.RejectedCount)
	}
	if res.Degraded() {
		t.Fatal("Degraded() = true, want false")
	}
	if got := res.Items[0].Reason(); got != mapping.ReasonNaN {
		t.Fatalf("Items[0].Reason() = %q, want %q", got, mapping.ReasonNaN)
	}
	if !errors.Is(res.Items[0].Err, mapping.ErrRejected) {
		t.Fatalf("Items[0].Err = %v, want ErrRejected", res.Items[0].Err)
	}
	want := singleTonePCM(t, 22000, config.DefaultVolumeDb)
	if d := maxAbsDiff(res.PCM, want); d != 0 {
		t.Fatalf("PCM differs from a pure tone by %d", d)
	}
}

func TestRangeInvariant(t *testing.T) {
	inputs := []float64{1e-12, 18000e-12, 19999e-12, 21999e-12, 1, 5e-5, 3.3e-7}
	for _, policy := range []mapping.Policy{mapping.PolicyClamp, mapping.PolicyWrap} {
		p := newPipeline(t, testConfig(config.WithPolicy(policy)))
		res, err := p.Run(context.Background(), inputs)
		if err != nil {
			t.Fatalf("%v: Run() error = %v", policy, err)
		}
		for _, item := range res.Items {
			hz := item.Frequency.Hz
			if hz < 18000 || hz > 22000 {
				t.Fatalf("%v: %v THz mapped to %v Hz", policy, item.RawTHz, hz)
			}
			if policy == mapping.PolicyWrap && hz >= 22000 {
				t.Fatalf("wrap mapped %v THz to %v Hz, want < 22000", item.RawTHz, hz)
			}
		}
	}
}

func TestOrderIndependence(t *testing.T) {
	inputs := []float64{18100e-12, 18700e-12, 19300e-12, 20100e-12, 20900e-12, 21500e-12, 4e-8}
	reversed := make([]float64, len(inputs))
	for i, v := range inputs {
		reversed[len(inputs)-1-i] = v
	}

	p := newPipeline(t, testConfig(config.WithPolicy(mapping.PolicyWrap)))
	a, err := p.Run(context.Background(), inputs)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Run(context.Background(), reversed)
	if err != nil {
		t.Fatal(err)
	}
	if d := maxAbsDiff(a.PCM, b.PCM); d > 1 {
		t.Fatalf("permuted input changed PCM by %d LSB", d)
	}
}

func TestNoClipping(t *testing.T) {
	inputs := make([]float64, 50)
	for i := range inputs {
		inputs[i] = (18000 + float64(i)*80) * 1e-12
	}
	p := newPipeline(t, testConfig(config.WithVolume(0), config.WithTargetPeak(30000)))
	res, err := p.Run(context.Background(), inputs)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Scaled {
		t.Fatal("Scaled = false for 50 tones at 0 dB")
	}
	if got := dsptest.PeakInt16(res.PCM); got != 30000 {
		t.Fatalf("output peak = %d, want 30000", got)
	}
}

func TestExactLength(t *testing.T) {
	many := make([]float64, 250)
	for i := range many {
		many[i] = (18000 + float64(i)*16) * 1e-12
	}
	for _, inputs := range [][]float64{{0.00002}, many} {
		p := newPipeline(t, testConfig(config.WithWorkers(4)))
		res, err := p.Run(context.Background(), inputs)
		if err != nil {
			t.Fatal(err)
		}
		decoded := decodeWAV(t, res.Audio.Data)
		if len(decoded.Samples) != testSamples {
			t.Fatalf("%d inputs: decoded %d samples, want %d", len(inputs), len(decoded.Samples), testSamples)
		}
		if res.Audio.Samples != testSamples {
			t.Fatalf("Audio.Samples = %d, want %d", res.Audio.Samples, testSamples)
		}
		if d := decoded.Metadata; d.Title != "NeuroAudio" {
			t.Fatalf("Title = %q, want NeuroAudio", d.Title)
		}
	}
}

func TestWorkerCountDeterminism(t *testing.T) {
	inputs := make([]float64, 37)
	for i := range inputs {
		inputs[i] = (18050 + float64(i)*100) * 1e-12
	}
	serial := newPipeline(t, testConfig())
	parallel := newPipeline(t, testConfig(config.WithWorkers(4)))

	s, err := serial.Run(context.Background(), inputs)
	if err != nil {
		t.Fatal(err)
	}
	p1, err := parallel.Run(context.Background(), inputs)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := parallel.Run(context.Background(), inputs)
	if err != nil {
		t.Fatal(err)
	}
	if d := maxAbsDiff(p1.PCM, p2.PCM); d != 0 {
		t.Fatalf("repeated parallel runs differ by %d", d)
	}
	if d := maxAbsDiff(s.PCM, p1.PCM); d > 1 {
		t.Fatalf("serial and parallel differ by %d LSB", d)
	}
	for i, item := range p1.Items {
		if item.Index != i || item.RawTHz != inputs[i] {
			t.Fatalf("Items[%d] = %+v, out of order", i, item)
		}
	}
}

func TestCancellation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p := newPipeline(t, testConfig(), WithMetrics(m))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := p.Run(ctx, []float64{0.00002})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() err = %v, want context.Canceled", err)
	}
	if res != nil {
		t.Fatal("canceled run returned a result")
	}
	if got := testutil.ToFloat64(m.Runs.WithLabelValues(metrics.OutcomeCanceled)); got != 1 {
		t.Fatalf("runs{canceled} = %v, want 1", got)
	}
}

func TestFatalEncoding(t *testing.T) {
	cause := errors.New("disk full")
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p := newPipeline(t, testConfig(),
		WithMetrics(m),
		WithEncoder(func(context.Context, []int16, encode.Options) ([]byte, error) {
			return nil, cause
		}),
	)

	res, err := p.Run(context.Background(), []float64{0.00002})
	if !errors.Is(err, ErrFatalEncoding) || !errors.Is(err, cause) {
		t.Fatalf("Run() err = %v, want ErrFatalEncoding wrapping cause", err)
	}
	if res != nil {
		t.Fatal("failed run returned a result")
	}
	if got := testutil.ToFloat64(m.Runs.WithLabelValues(metrics.OutcomeFailed)); got != 1 {
		t.Fatalf("runs{failed} = %v, want 1", got)
	}
}

func TestMissingEncoderIsFatal(t *testing.T) {
	cfg := testConfig(
		config.WithFormat(encode.FormatCompressed),
		config.WithFFmpegPath("/nonexistent/ffmpeg"),
	)
	p := newPipeline(t, cfg)
	_, err := p.Run(context.Background(), []float64{0.00002})
	if !errors.Is(err, ErrFatalEncoding) || !errors.Is(err, encode.ErrEncoderUnavailable) {
		t.Fatalf("Run() err = %v, want ErrFatalEncoding and ErrEncoderUnavailable", err)
	}
}

func TestEncoderReceivesOptions(t *testing.T) {
	var got encode.Options
	var gotLen int
	md := encode.Metadata{Title: "ACME", Artist: "NeuroAudio System"}
	p := newPipeline(t, testConfig(config.WithBitrate(128)),
		WithMetadata(md),
		WithEncoder(func(_ context.Context, samples []int16, opts encode.Options) ([]byte, error) {
			got = opts
			gotLen = len(samples)
			return []byte{1, 2, 3}, nil
		}),
	)
	res, err := p.Run(context.Background(), []float64{0.00002})
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata != md || got.BitrateKbps != 128 || got.SampleRate != testRate {
		t.Fatalf("encoder options = %+v", got)
	}
	if gotLen != testSamples {
		t.Fatalf("encoder got %d samples, want %d", gotLen, testSamples)
	}
	if len(res.Audio.Data) != 3 || res.Audio.Metadata != md {
		t.Fatalf("Audio = %+v", res.Audio)
	}
}

func TestLoggingAndMetrics(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	inputs := make([]float64, 250)
	for i := range inputs {
		inputs[i] = 0.00002
	}
	inputs[7] = math.NaN()
	inputs[8] = -1

	p := newPipeline(t, testConfig(config.WithWorkers(3)),
		WithLogger(zap.New(core)),
		WithMetrics(m),
	)
	if _, err := p.Run(context.Background(), inputs); err != nil {
		t.Fatal(err)
	}

	if n := logs.FilterMessage("progress").Len(); n != 2 {
		t.Fatalf("progress lines = %d, want 2", n)
	}
	rejected := logs.FilterMessage("frequency rejected")
	if rejected.Len() != 2 {
		t.Fatalf("rejection warnings = %d, want 2", rejected.Len())
	}
	if rejected.FilterField(zap.String("reason", "not-a-number")).Len() != 1 {
		t.Fatal("missing not-a-number rejection log")
	}
	if logs.FilterMessage("run complete").Len() != 1 {
		t.Fatal("missing completion log")
	}

	if got := testutil.ToFloat64(m.FrequenciesProcessed); got != 248 {
		t.Fatalf("processed = %v, want 248", got)
	}
	if got := testutil.ToFloat64(m.FrequenciesRejected.WithLabelValues("non-positive")); got != 1 {
		t.Fatalf("rejected{non-positive} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Runs.WithLabelValues(metrics.OutcomeSuccess)); got != 1 {
		t.Fatalf("runs{success} = %v, want 1", got)
	}
}

func BenchmarkRun(b *testing.B) {
	inputs := make([]float64, 64)
	for i := range inputs {
		inputs[i] = (18000 + float64(i)*60) * 1e-12
	}
	p, err := New(testConfig(config.WithWorkers(0)),
		WithEncoder(func(context.Context, []int16, encode.Options) ([]byte, error) { return nil, nil }),
	)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Run(context.Background(), inputs); err != nil {
			b.Fatal(err)
		}
	}
}
