// Package mix overlays equally long tone buffers into one composite signal.
//
// The composite is accumulated in float64 so that no intermediate sum is
// clipped; conversion to a narrow PCM format happens later in package pcm.
// An Accumulator is a single-writer fold: parallel callers give every worker
// its own Accumulator and combine the partial sums with Merge.
package mix
