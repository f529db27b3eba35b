package pipeline

import (
	"errors"
	"time"

	"github.com/cwbudde/neuroaudio/encode"
	"github.com/cwbudde/neuroaudio/mapping"
)

// EncodedAudio is the finished file image.
type EncodedAudio struct {
	Data       []byte
	Format     encode.Format
	SampleRate int
	Samples    int
	Metadata   encode.Metadata
}

// Duration returns the playback length.
func (a EncodedAudio) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(a.Samples) * time.Second / time.Duration(a.SampleRate)
}

// ItemResult reports what happened to one input reading.
type ItemResult struct {
	Index     int
	RawTHz    float64
	Frequency mapping.Frequency // zero when rejected
	Err       error             // *mapping.RejectedError when rejected
}

// OK reports whether the reading contributed a tone.
func (r ItemResult) OK() bool {
	return r.Err == nil
}

// Reason returns the rejection reason, or "" for accepted readings.
func (r ItemResult) Reason() mapping.Reason {
	var rerr *mapping.RejectedError
	if errors.As(r.Err, &rerr) {
		return rerr.Reason
	}
	if r.Err != nil {
		return mapping.ReasonSynthesis
	}
	return ""
}

// Result is the outcome of one Run.
type Result struct {
	Audio                EncodedAudio
	PCM                  []int16
	FrequenciesProcessed int
	RejectedCount        int
	Items                []ItemResult

	// Peak is the composite peak in int16 units before normalization.
	Peak   float64
	Gain   float64
	Scaled bool
}

// Degraded reports a run in which no reading produced a tone.
func (r *Result) Degraded() bool {
	return r.FrequenciesProcessed == 0
}

// Rejections counts rejected readings by reason.
func (r *Result) Rejections() map[mapping.Reason]int {
	out := make(map[mapping.Reason]int)
	for _, item := range r.Items {
		if !item.OK() {
			out[item.Reason()]++
		}
	}
	return out
}
