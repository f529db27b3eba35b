// Package summary describes a set of input readings: count, range, mean,
// median, population standard deviation and quartiles. Percentiles use
// linear interpolation between closest ranks.
package summary

import (
	"math"
	"slices"
)

// Summary holds descriptive statistics of the finite values of a sample.
type Summary struct {
	Count   int // finite values used
	Dropped int // NaN and Inf values ignored
	Min     float64
	Max     float64
	Mean    float64
	Median  float64
	StdDev  float64 // population
	Q1      float64
	Q3      float64
}

// IQR returns the interquartile range.
func (s Summary) IQR() float64 {
	return s.Q3 - s.Q1
}

// Describe summarizes values. NaN and Inf entries are counted in Dropped
// and excluded; with no finite values every statistic is NaN.
func Describe(values []float64) Summary {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	s := Summary{Count: len(finite), Dropped: len(values) - len(finite)}
	if len(finite) == 0 {
		nan := math.NaN()
		s.Min, s.Max, s.Mean, s.Median, s.StdDev, s.Q1, s.Q3 = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	slices.Sort(finite)
	s.Min = finite[0]
	s.Max = finite[len(finite)-1]

	// Welford.
	var mean, m2 float64
	for i, x := range finite {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	s.Mean = mean
	s.StdDev = math.Sqrt(m2 / float64(len(finite)))

	s.Q1 = percentileSorted(finite, 25)
	s.Median = percentileSorted(finite, 50)
	s.Q3 = percentileSorted(finite, 75)
	return s
}

// Percentile returns the p-th percentile (0..100) of the finite values.
func Percentile(values []float64, p float64) float64 {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 || math.IsNaN(p) {
		return math.NaN()
	}
	slices.Sort(finite)
	return percentileSorted(finite, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	p = min(max(p, 0), 100)
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
