// Package spectrum verifies the tone content of rendered audio.
//
// Compute runs a Hann-windowed FFT and exposes the one-sided power spectrum
// with helpers for the dominant frequency, the spectral centroid and the
// share of energy inside a band. Goertzel evaluates a single DFT bin and is
// the cheap way to confirm that a known tone is present at a known level.
package spectrum
