package mix

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
)

// Accumulator holds the running sum of all tones folded into it.
// It is not safe for concurrent use.
type Accumulator struct {
	sum   []float64
	count int
}

// NewAccumulator returns a silent accumulator of the given length.
func NewAccumulator(length int) *Accumulator {
	if length < 0 {
		length = 0
	}
	return &Accumulator{sum: make([]float64, length)}
}

// Len returns the signal length in samples.
func (a *Accumulator) Len() int {
	return len(a.sum)
}

// Count returns how many tones have been folded in, including the tones
// of merged accumulators.
func (a *Accumulator) Count() int {
	return a.count
}

// Add overlays tone onto the running sum.
func (a *Accumulator) Add(tone []float64) error {
	if len(tone) != len(a.sum) {
		return fmt.Errorf("mix: tone length %d, want %d", len(tone), len(a.sum))
	}
	vecmath.AddBlockInPlace(a.sum, tone)
	a.count++
	return nil
}

// Merge folds the partial sum of other into a. other is left untouched.
func (a *Accumulator) Merge(other *Accumulator) error {
	if other == nil {
		return nil
	}
	if len(other.sum) != len(a.sum) {
		return fmt.Errorf("mix: merge length %d, want %d", len(other.sum), len(a.sum))
	}
	vecmath.AddBlockInPlace(a.sum, other.sum)
	a.count += other.count
	return nil
}

// Peak returns the largest absolute sample of the composite.
func (a *Accumulator) Peak() float64 {
	if len(a.sum) == 0 {
		return 0
	}
	return vecmath.MaxAbs(a.sum)
}

// Signal returns the composite. The slice aliases the accumulator; callers
// must stop calling Add and Merge once they hand it on.
func (a *Accumulator) Signal() []float64 {
	return a.sum
}

// Mix sums tones into a fresh composite of the given length. With no tones
// the result is silence of that length.
func Mix(length int, tones ...[]float64) ([]float64, error) {
	acc := NewAccumulator(length)
	for i, tone := range tones {
		if err := acc.Add(tone); err != nil {
			return nil, fmt.Errorf("tone %d: %w", i, err)
		}
	}
	return acc.Signal(), nil
}
