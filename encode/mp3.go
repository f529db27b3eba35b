package encode

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/cwbudde/neuroaudio/dsp/pcm"
)

func lookFFmpeg(path string) (string, error) {
	if path == "" {
		path = "ffmpeg"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrEncoderUnavailable, path, err)
	}
	return resolved, nil
}

func encodeMP3(ctx context.Context, samples []int16, opts Options) ([]byte, error) {
	bin, err := lookFFmpeg(opts.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	tmp, err := os.CreateTemp(opts.TempDir, "neuroaudio-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %w", ErrEncoding, err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(name)

	kbps := opts.BitrateKbps
	if kbps == 0 {
		kbps = DefaultBitrateKbps
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "s16le",
		"-ar", strconv.Itoa(opts.SampleRate),
		"-ac", "1",
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", strconv.Itoa(kbps) + "k",
		"-id3v2_version", "3",
	}
	args = append(args, metadataArgs(opts.Metadata)...)
	args = append(args, "-f", "mp3", name)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(pcm.Bytes(samples))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg: %w: %s", ErrEncoding, err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("%w: read back mp3: %w", ErrEncoding, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no output", ErrEncoding)
	}
	return data, nil
}

func metadataArgs(m Metadata) []string {
	var args []string
	add := func(key, value string) {
		if value != "" {
			args = append(args, "-metadata", key+"="+value)
		}
	}
	add("title", m.Title)
	add("artist", m.Artist)
	add("comment", m.Comment)
	return args
}

// decodeWithFFmpeg decodes any container ffmpeg understands to mono s16le.
func decodeWithFFmpeg(ctx context.Context, data []byte, sampleRate int, ffmpegPath string) (*Decoded, error) {
	bin, err := lookFFmpeg(ffmpegPath)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, bin,
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	// Ensure even byte count for int16 alignment
	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}

	samples := make([]int16, len(out)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(out[i*2 : i*2+2]))
	}
	return &Decoded{Samples: samples, SampleRate: sampleRate, Channels: 1}, nil
}
