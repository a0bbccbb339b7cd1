package fdpsola

import "math"

// NormalizePeak finds the largest magnitude in x and, if it is above
// limit, scales x down so the peak equals limit. It returns the gain
// applied.
func NormalizePeak(x []float64, limit float64) float64 {
	peak := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak <= limit || peak == 0 {
		return 1
	}
	gain := limit / peak
	for i := range x {
		x[i] *= gain
	}
	return gain
}
