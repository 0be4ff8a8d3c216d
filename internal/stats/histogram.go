package stats

import (
	"errors"
	"math"
)

// ErrDivideByZero is returned when statistics are requested from a histogram
// that never received a sample.
var ErrDivideByZero = errors.New("stats: no samples in histogram")

// NumBins is the size of the 8-bit sample domain.
const NumBins = 256

// Histogram counts occurrences of every 8-bit sample value.
//
// The zero value is an empty histogram ready for use. The sum of all bins
// always equals the number of samples added or merged in.
type Histogram struct {
	bins  [NumBins]uint64
	count uint64
}

// ChannelStatistics is the final result for one channel.
type ChannelStatistics struct {
	// Mean is the sample mean rounded to the nearest integer (ties to even).
	Mean int `json:"mean"`

	// StdDev is the population standard deviation, unrounded.
	StdDev float64 `json:"stddev"`

	// Samples is the number of samples the statistics were computed over.
	Samples uint64 `json:"samples"`
}

// Add folds one sample into the histogram.
func (h *Histogram) Add(v uint8) {
	h.bins[v]++
	h.count++
}

// AddBytes folds every byte of p into the histogram.
func (h *Histogram) AddBytes(p []byte) {
	for _, v := range p {
		h.bins[v]++
	}
	h.count += uint64(len(p))
}

// Merge adds every bin of other into h. Merging is associative and
// commutative, so partial histograms may be combined in any order.
func (h *Histogram) Merge(other *Histogram) {
	if other == nil {
		return
	}
	for v, n := range other.bins {
		h.bins[v] += n
	}
	h.count += other.count
}

// Count returns the number of samples folded in so far.
func (h *Histogram) Count() uint64 {
	return h.count
}

// Bin returns the number of occurrences of v.
func (h *Histogram) Bin(v uint8) uint64 {
	return h.bins[v]
}

// Bins returns a copy of the frequency table.
func (h *Histogram) Bins() [NumBins]uint64 {
	return h.bins
}

// Mean returns sum(value*count) / sum(count).
func (h *Histogram) Mean() (float64, error) {
	if h.count == 0 {
		return 0, ErrDivideByZero
	}
	var sum uint64
	for v, n := range h.bins {
		sum += uint64(v) * n
	}
	return float64(sum) / float64(h.count), nil
}

// StdDev returns the population standard deviation.
//
// The variance is computed in a second pass over the bins using the mean
// from Mean, weighting each squared deviation by its bin count.
func (h *Histogram) StdDev() (float64, error) {
	mean, err := h.Mean()
	if err != nil {
		return 0, err
	}
	var t float64
	for v, n := range h.bins {
		if n == 0 {
			continue
		}
		d := float64(v) - mean
		t += float64(n) * d * d
	}
	return math.Sqrt(t / float64(h.count)), nil
}

// Statistics returns the reportable mean and standard deviation.
func (h *Histogram) Statistics() (ChannelStatistics, error) {
	mean, err := h.Mean()
	if err != nil {
		return ChannelStatistics{}, err
	}
	sd, err := h.StdDev()
	if err != nil {
		return ChannelStatistics{}, err
	}
	return ChannelStatistics{
		Mean:    int(math.RoundToEven(mean)),
		StdDev:  sd,
		Samples: h.count,
	}, nil
}
