// Package encode serializes normalized PCM into playable audio files.
//
// Two containers are supported: uncompressed mono 16-bit WAV, written with
// go-audio/wav, and compressed MP3, produced by an ffmpeg/libmp3lame
// subprocess. Every encode goes through a temporary file that is removed on
// all exit paths, so a failed encode never leaves partial output behind.
package encode

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEncoding is wrapped by every encode failure.
	ErrEncoding = errors.New("encode: failed")

	// ErrEncoderUnavailable reports a missing external codec.
	ErrEncoderUnavailable = errors.New("encode: encoder unavailable")
)

// Format selects the output container.
type Format int

const (
	FormatCompressed Format = iota
	FormatUncompressed
)

// DefaultFormat is MP3.
const DefaultFormat = FormatCompressed

// DefaultBitrateKbps is the MP3 bit rate.
const DefaultBitrateKbps = 192

func (f Format) String() string {
	switch f {
	case FormatCompressed:
		return "compressed"
	case FormatUncompressed:
		return "uncompressed"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	if f == FormatUncompressed {
		return ".wav"
	}
	return ".mp3"
}

// MIMEType returns the media type of the container.
func (f Format) MIMEType() string {
	if f == FormatUncompressed {
		return "audio/wav"
	}
	return "audio/mpeg"
}

// ParseFormat accepts compressed|mp3 and uncompressed|wav.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compressed", "mp3", "":
		return FormatCompressed, nil
	case "uncompressed", "wav", "pcm":
		return FormatUncompressed, nil
	default:
		return 0, fmt.Errorf("unknown output format %q (want compressed or uncompressed)", s)
	}
}

// Metadata are the tags embedded in the output container.
type Metadata struct {
	Title   string
	Artist  string // source-system tag
	Comment string
}

// DefaultMetadata returns the stock NeuroAudio tags.
func DefaultMetadata() Metadata {
	return Metadata{
		Title:   "NeuroAudio",
		Artist:  "NeuroAudio System",
		Comment: "Auto generated",
	}
}

// Options configure one encode call.
type Options struct {
	Format      Format
	SampleRate  int
	BitrateKbps int // compressed only; 0 means DefaultBitrateKbps
	Metadata    Metadata
	FFmpegPath  string // empty means look up "ffmpeg" in PATH
	TempDir     string // empty means os.TempDir()
}

func (o Options) validate() error {
	if o.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0: %d", ErrEncoding, o.SampleRate)
	}
	if o.BitrateKbps < 0 {
		return fmt.Errorf("%w: bitrate must be >= 0: %d", ErrEncoding, o.BitrateKbps)
	}
	return nil
}

// Encode serializes mono samples into the container selected by opts.
func Encode(ctx context.Context, samples []int16, opts Options) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	switch opts.Format {
	case FormatUncompressed:
		return encodeWAV(samples, opts)
	case FormatCompressed:
		return encodeMP3(ctx, samples, opts)
	default:
		return nil, fmt.Errorf("%w: unsupported format %v", ErrEncoding, opts.Format)
	}
}
