package encode

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth      = 16
	numChannels   = 1
	wavFormatPCM  = 1
	riffMagicSize = 12
)

func encodeWAV(samples []int16, opts Options) (data []byte, err error) {
	tmp, err := os.CreateTemp(opts.TempDir, "neuroaudio-*.wav")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %w", ErrEncoding, err)
	}
	name := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(name)
	}()

	enc := wav.NewEncoder(tmp, opts.SampleRate, bitDepth, numChannels, wavFormatPCM)
	enc.Metadata = infoChunk(opts.Metadata)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  opts.SampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: bitDepth,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("%w: write wav frames: %w", ErrEncoding, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("%w: finalize wav: %w", ErrEncoding, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: close temp file: %w", ErrEncoding, err)
	}

	data, err = os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("%w: read back wav: %w", ErrEncoding, err)
	}
	if len(data) < riffMagicSize {
		return nil, fmt.Errorf("%w: wav output truncated (%d bytes)", ErrEncoding, len(data))
	}
	return data, nil
}

func infoChunk(m Metadata) *wav.Metadata {
	if m == (Metadata{}) {
		return nil
	}
	return &wav.Metadata{
		Title:    infoValue(m.Title),
		Artist:   infoValue(m.Artist),
		Comments: infoValue(m.Comment),
		Software: infoValue("neuroaudio"),
	}
}

// infoValue NUL-pads s so that the INFO sub-chunk written for it (s plus
// its terminator) has an even size. The wav encoder emits no RIFF pad byte
// while its decoder expects one after odd-sized entries. Readers stop at
// the first NUL, so the padding never shows up in decoded tags.
func infoValue(s string) string {
	if s == "" || len(s)%2 == 1 {
		return s
	}
	return s + "\x00"
}

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= riffMagicSize &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

func decodeWAV(data []byte) (*Decoded, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("encode: invalid wav data")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode: read wav pcm: %w", err)
	}
	if d.BitDepth != bitDepth {
		return nil, fmt.Errorf("encode: unsupported wav bit depth %d", d.BitDepth)
	}

	channels := int(d.NumChans)
	if channels < 1 {
		channels = 1
	}
	// Keep the first channel only; output is always mono.
	frames := len(buf.Data) / channels
	out := &Decoded{
		Samples:    make([]int16, frames),
		SampleRate: int(d.SampleRate),
		Channels:   channels,
	}
	for i := range out.Samples {
		out.Samples[i] = int16(buf.Data[i*channels])
	}

	// ReadMetadata consumes the stream, so use a fresh decoder.
	md := wav.NewDecoder(bytes.NewReader(data))
	md.ReadMetadata()
	if md.Metadata != nil {
		out.Metadata = Metadata{
			Title:   md.Metadata.Title,
			Artist:  md.Metadata.Artist,
			Comment: md.Metadata.Comments,
		}
	}
	return out, nil
}
