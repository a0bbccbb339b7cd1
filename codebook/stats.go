package codebook

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PitchStatistics summarises the voiced F0 values (Hz) of one speaker.
type PitchStatistics struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Valid reports whether the statistics were computed from any data.
func (p PitchStatistics) Valid() bool { return p.Mean > 0 }

// ComputePitchStatistics summarises the positive values of f0; zeros and
// negative values mark unvoiced frames and are ignored.
func ComputePitchStatistics(f0 []float64) PitchStatistics {
	voiced := make([]float64, 0, len(f0))
	for _, v := range f0 {
		if v > 0 {
			voiced = append(voiced, v)
		}
	}
	if len(voiced) == 0 {
		return PitchStatistics{}
	}
	mean, std := stat.MeanStdDev(voiced, nil)
	if len(voiced) == 1 {
		std = 0
	}
	return PitchStatistics{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(voiced),
		Max:    floats.Max(voiced),
	}
}
