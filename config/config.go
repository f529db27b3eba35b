// Package config holds the explicit run configuration that replaces the
// process-wide constants of the generator: duration, sample rate, target
// band, volume, output encoding and worker count.
package config

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/cwbudde/neuroaudio/dsp/core"
	"github.com/cwbudde/neuroaudio/dsp/pcm"
	"github.com/cwbudde/neuroaudio/encode"
	"github.com/cwbudde/neuroaudio/mapping"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Defaults.
const (
	DefaultTotalDurationSeconds = 30.0
	DefaultSampleRateHz         = 44100
	DefaultVolumeDb             = -10.0
	DefaultRequiredColumn       = "THz"

	// MaxAutoWorkers caps the worker count picked when Workers is 0.
	MaxAutoWorkers = 8
)

// Config is the full set of knobs for one generation run.
type Config struct {
	TotalDurationSeconds float64
	SampleRateHz         int
	MinFrequencyHz       float64
	MaxFrequencyHz       float64
	DefaultVolumeDb      float64
	OutputBitrateKbps    int
	OutputFormat         encode.Format
	MappingPolicy        mapping.Policy
	TargetPeak           int
	// Workers is the synthesis parallelism; 0 means one per CPU, at most
	// MaxAutoWorkers. Every worker holds two float64 buffers of Samples()
	// length, about 21 MB at the defaults, so memory grows linearly with it.
	Workers              int
	RequiredColumn       string
	FFmpegPath           string
}

// Option mutates a Config.
type Option func(*Config)

// Default returns the stock configuration.
func Default() Config {
	return Config{
		TotalDurationSeconds: DefaultTotalDurationSeconds,
		SampleRateHz:         DefaultSampleRateHz,
		MinFrequencyHz:       mapping.DefaultMinHz,
		MaxFrequencyHz:       mapping.DefaultMaxHz,
		DefaultVolumeDb:      DefaultVolumeDb,
		OutputBitrateKbps:    encode.DefaultBitrateKbps,
		OutputFormat:         encode.DefaultFormat,
		MappingPolicy:        mapping.DefaultPolicy,
		TargetPeak:           pcm.DefaultTargetPeak,
		RequiredColumn:       DefaultRequiredColumn,
	}
}

// New returns Default with opts applied.
func New(opts ...Option) Config {
	cfg := Default()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithDuration sets the output length in seconds.
func WithDuration(seconds float64) Option {
	return func(c *Config) { c.TotalDurationSeconds = seconds }
}

// WithSampleRate sets the output sample rate.
func WithSampleRate(hz int) Option {
	return func(c *Config) { c.SampleRateHz = hz }
}

// WithBand sets the audible target band.
func WithBand(minHz, maxHz float64) Option {
	return func(c *Config) {
		c.MinFrequencyHz = minHz
		c.MaxFrequencyHz = maxHz
	}
}

// WithVolume sets the per-tone level in dB.
func WithVolume(db float64) Option {
	return func(c *Config) { c.DefaultVolumeDb = db }
}

// WithFormat sets the output container.
func WithFormat(f encode.Format) Option {
	return func(c *Config) { c.OutputFormat = f }
}

// WithBitrate sets the compressed bit rate in kbit/s.
func WithBitrate(kbps int) Option {
	return func(c *Config) { c.OutputBitrateKbps = kbps }
}

// WithPolicy sets the out-of-band mapping policy.
func WithPolicy(p mapping.Policy) Option {
	return func(c *Config) { c.MappingPolicy = p }
}

// WithTargetPeak sets the normalization ceiling.
func WithTargetPeak(peak int) Option {
	return func(c *Config) { c.TargetPeak = peak }
}

// WithWorkers sets the synthesis parallelism.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithFFmpegPath overrides the ffmpeg binary.
func WithFFmpegPath(path string) Option {
	return func(c *Config) { c.FFmpegPath = path }
}

// WithRequiredColumn sets the input header holding THz values.
func WithRequiredColumn(name string) Option {
	return func(c *Config) { c.RequiredColumn = name }
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.TotalDurationSeconds > 0 && !math.IsInf(c.TotalDurationSeconds, 0),
		"total_duration_seconds must be positive and finite: %v", c.TotalDurationSeconds)
	check(c.SampleRateHz > 0, "sample_rate_hz must be > 0: %d", c.SampleRateHz)
	check(c.MinFrequencyHz > 0 && core.IsFinite(c.MinFrequencyHz),
		"min_frequency_hz must be positive and finite: %v", c.MinFrequencyHz)
	check(c.MaxFrequencyHz > c.MinFrequencyHz && core.IsFinite(c.MaxFrequencyHz),
		"max_frequency_hz must be finite and above min_frequency_hz: %v", c.MaxFrequencyHz)
	if c.SampleRateHz > 0 {
		nyquist := float64(c.SampleRateHz) / 2
		check(c.MaxFrequencyHz <= nyquist,
			"max_frequency_hz %v exceeds the Nyquist limit %v", c.MaxFrequencyHz, nyquist)
	}
	check(core.IsFinite(c.DefaultVolumeDb), "default_volume_db must be finite: %v", c.DefaultVolumeDb)
	check(c.OutputBitrateKbps > 0, "output_bitrate_kbps must be > 0: %d", c.OutputBitrateKbps)
	check(c.OutputFormat == encode.FormatCompressed || c.OutputFormat == encode.FormatUncompressed,
		"output_format unsupported: %v", c.OutputFormat)
	check(c.MappingPolicy == mapping.PolicyClamp || c.MappingPolicy == mapping.PolicyWrap,
		"mapping_policy unsupported: %v", c.MappingPolicy)
	check(c.TargetPeak >= 1 && c.TargetPeak <= pcm.FullScale,
		"target_peak must be in [1, %d]: %d", pcm.FullScale, c.TargetPeak)
	check(c.Workers >= 0, "workers must be >= 0: %d", c.Workers)
	check(strings.TrimSpace(c.RequiredColumn) != "", "required_column must not be empty")

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// ProcessorOptions returns the DSP core options matching c.
func (c Config) ProcessorOptions() []core.ProcessorOption {
	return []core.ProcessorOption{
		core.WithSampleRate(float64(c.SampleRateHz)),
		core.WithDuration(c.TotalDurationSeconds),
	}
}

// Samples returns the exact output length in samples.
func (c Config) Samples() int {
	return core.ApplyProcessorOptions(c.ProcessorOptions()...).Samples()
}

// WorkerCount returns how many workers a run over items readings uses.
func (c Config) WorkerCount(items int) int {
	n := c.Workers
	if n <= 0 {
		n = min(runtime.GOMAXPROCS(0), MaxAutoWorkers)
	}
	return max(0, min(n, items))
}

// Mapper builds the frequency mapper for c's band and policy.
func (c Config) Mapper() (*mapping.Mapper, error) {
	return mapping.New(c.MinFrequencyHz, c.MaxFrequencyHz, c.MappingPolicy)
}

// EncodeOptions returns the encoder settings for c.
func (c Config) EncodeOptions(md encode.Metadata) encode.Options {
	return encode.Options{
		Format:      c.OutputFormat,
		SampleRate:  c.SampleRateHz,
		BitrateKbps: c.OutputBitrateKbps,
		Metadata:    md,
		FFmpegPath:  c.FFmpegPath,
	}
}
