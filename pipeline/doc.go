// Package pipeline runs the end-to-end conversion of THz readings into one
// encoded audio file: map each reading into the audible band, synthesize a
// full-length tone per accepted reading, mix the tones, normalize the
// composite to 16-bit PCM and encode it.
//
// Readings that cannot be mapped or synthesized are rejected individually
// and reported in Result.Items; they never abort a run. A run in which every
// reading is rejected still produces full-length silence and is flagged by
// Result.Degraded. Only an encoding failure or cancellation is fatal.
package pipeline
