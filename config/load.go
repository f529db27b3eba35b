package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cwbudde/neuroaudio/encode"
	"github.com/cwbudde/neuroaudio/mapping"
)

// EnvPrefix prefixes every environment override, e.g.
// NEUROAUDIO_SAMPLE_RATE_HZ.
const EnvPrefix = "NEUROAUDIO"

// Keys as used in config files and (upper-cased) in the environment.
const (
	KeyTotalDurationSeconds = "total_duration_seconds"
	KeySampleRateHz         = "sample_rate_hz"
	KeyMinFrequencyHz       = "min_frequency_hz"
	KeyMaxFrequencyHz       = "max_frequency_hz"
	KeyDefaultVolumeDb      = "default_volume_db"
	KeyOutputBitrateKbps    = "output_bitrate_kbps"
	KeyOutputFormat         = "output_format"
	KeyMappingPolicy        = "mapping_policy"
	KeyTargetPeak           = "target_peak"
	KeyWorkers              = "workers"
	KeyRequiredColumn       = "required_column"
	KeyFFmpegPath           = "ffmpeg_path"
)

// Load builds a Config from defaults, an optional file at path (any format
// viper understands, chosen by extension) and NEUROAUDIO_* environment
// variables, in increasing precedence. The result is validated.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	format, err := encode.ParseFormat(v.GetString(KeyOutputFormat))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	policy, err := mapping.ParsePolicy(strings.ToLower(strings.TrimSpace(v.GetString(KeyMappingPolicy))))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	cfg := Config{
		TotalDurationSeconds: v.GetFloat64(KeyTotalDurationSeconds),
		SampleRateHz:         v.GetInt(KeySampleRateHz),
		MinFrequencyHz:       v.GetFloat64(KeyMinFrequencyHz),
		MaxFrequencyHz:       v.GetFloat64(KeyMaxFrequencyHz),
		DefaultVolumeDb:      v.GetFloat64(KeyDefaultVolumeDb),
		OutputBitrateKbps:    v.GetInt(KeyOutputBitrateKbps),
		OutputFormat:         format,
		MappingPolicy:        policy,
		TargetPeak:           v.GetInt(KeyTargetPeak),
		Workers:              v.GetInt(KeyWorkers),
		RequiredColumn:       v.GetString(KeyRequiredColumn),
		FFmpegPath:           v.GetString(KeyFFmpegPath),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault(KeyTotalDurationSeconds, d.TotalDurationSeconds)
	v.SetDefault(KeySampleRateHz, d.SampleRateHz)
	v.SetDefault(KeyMinFrequencyHz, d.MinFrequencyHz)
	v.SetDefault(KeyMaxFrequencyHz, d.MaxFrequencyHz)
	v.SetDefault(KeyDefaultVolumeDb, d.DefaultVolumeDb)
	v.SetDefault(KeyOutputBitrateKbps, d.OutputBitrateKbps)
	v.SetDefault(KeyOutputFormat, d.OutputFormat.String())
	v.SetDefault(KeyMappingPolicy, d.MappingPolicy.String())
	v.SetDefault(KeyTargetPeak, d.TargetPeak)
	v.SetDefault(KeyWorkers, d.Workers)
	v.SetDefault(KeyRequiredColumn, d.RequiredColumn)
	v.SetDefault(KeyFFmpegPath, d.FFmpegPath)
}
