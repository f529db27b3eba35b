package encode

import (
	"context"
	"time"
)

// Decoded is mono PCM read back from an encoded file.
type Decoded struct {
	Samples    []int16
	SampleRate int
	Channels   int // channels in the source container
	Metadata   Metadata
}

// Duration returns the playback length.
func (d *Decoded) Duration() time.Duration {
	if d.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(d.Samples)) * time.Second / time.Duration(d.SampleRate)
}

// Decode reads WAV natively and falls back to ffmpeg for everything else,
// resampling compressed input to sampleRate.
func Decode(ctx context.Context, data []byte, sampleRate int, ffmpegPath string) (*Decoded, error) {
	if IsWAV(data) {
		return decodeWAV(data)
	}
	return decodeWithFFmpeg(ctx, data, sampleRate, ffmpegPath)
}
