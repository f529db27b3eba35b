package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cwbudde/neuroaudio/dsp/core"
	"github.com/cwbudde/neuroaudio/dsp/pcm"
	"github.com/cwbudde/neuroaudio/dsp/spectrum"
	"github.com/cwbudde/neuroaudio/encode"
	"github.com/cwbudde/neuroaudio/input"
	"github.com/cwbudde/neuroaudio/internal/cli"
	timestats "github.com/cwbudde/neuroaudio/stats/time"
)

// InspectCmd prints level and spectral facts about an encoded file.
type InspectCmd struct {
	File  string    `arg:"" type:"existingfile" help:"WAV file, or any file ffmpeg can decode."`
	Tones []float64 `name:"tone" sep:"," placeholder:"HZ" help:"Extra frequencies to measure, besides the dominant one and the band edges."`
}

func (c *InspectCmd) Run(a *app) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	d, err := encode.Decode(a.ctx, data, a.config.SampleRateHz, a.config.FFmpegPath)
	if err != nil {
		return fmt.Errorf("decode %s: %w", c.File, err)
	}

	container := "compressed"
	if encode.IsWAV(data) {
		container = "WAV"
	}
	st := timestats.CalculatePCM(d.Samples)

	fields := []cli.Field{
		cli.F("File", "%s (%s, %s)", c.File, container, input.FormatSize(int64(len(data)))),
		cli.F("Sample rate", "%d Hz, %d channel(s)", d.SampleRate, d.Channels),
		cli.F("Duration", "%s (%d samples)", d.Duration(), len(d.Samples)),
		cli.F("Peak", "%.2f dBFS", st.Peak_dB),
		cli.F("RMS", "%.2f dBFS", st.RMS_dB),
		cli.F("Crest factor", "%.2f dB", st.CrestFactor_dB),
		cli.F("Full-scale samples", "%d", st.FullScale),
	}

	signal := pcm.ToFloat(d.Samples)
	spec, err := spectrum.Compute(signal, float64(d.SampleRate))
	switch {
	case errors.Is(err, spectrum.ErrEmpty):
	case err != nil:
		return err
	case st.Silent():
		fields = append(fields, cli.F("Spectrum", "silent"))
	default:
		lo, hi := a.config.MinFrequencyHz, a.config.MaxFrequencyHz
		fields = append(fields,
			cli.F("Dominant", "%.1f Hz", spec.Dominant()),
			cli.F("Centroid", "%.1f Hz", spec.Centroid()),
			cli.F("In band", "%.1f%% of energy in %.0f-%.0f Hz", 100*spec.BandEnergyRatio(lo, hi), lo, hi),
		)
		freqs := append([]float64{spec.Dominant(), lo, hi}, c.Tones...)
		tones, err := toneFields(signal, float64(d.SampleRate), freqs)
		if err != nil {
			return err
		}
		fields = append(fields, tones...)
	}

	if md := d.Metadata; md != (encode.Metadata{}) {
		fields = append(fields,
			cli.F("Title", "%s", md.Title),
			cli.F("Artist", "%s", md.Artist),
			cli.F("Comment", "%s", md.Comment),
		)
	}

	cli.PrintSection(os.Stdout, "Inspect", fields)
	return nil
}

// toneFields reports the level of each frequency in dBFS. Frequencies the
// detector cannot measure at this rate are listed as out of range.
func toneFields(signal []float64, sampleRate float64, freqs []float64) ([]cli.Field, error) {
	nyquist := sampleRate / 2
	measurable := make([]float64, 0, len(freqs))
	var skipped []cli.Field
	for _, f := range freqs {
		if !core.IsFinite(f) || f < 0 || f > nyquist {
			skipped = append(skipped, cli.F(toneLabel(f), "outside 0-%.0f Hz", nyquist))
			continue
		}
		measurable = append(measurable, f)
	}

	amps, err := spectrum.ToneAmplitudes(signal, measurable, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("tone levels: %w", err)
	}
	fields := make([]cli.Field, 0, len(freqs))
	for i, f := range measurable {
		fields = append(fields, cli.F(toneLabel(f), "%.2f dBFS", core.LinearToDB(amps[i])))
	}
	return append(fields, skipped...), nil
}

func toneLabel(hz float64) string {
	return fmt.Sprintf("Tone %.1f Hz", hz)
}
