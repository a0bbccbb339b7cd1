// Package envelope turns codebook matches into linear magnitude envelopes
// and per-bin gain curves at a given DFT resolution.
package envelope

import (
	"math"

	"github.com/blues/voxconv/lsf"
)

// floor keeps gain ratios finite where the divisor envelope vanishes.
const floor = 1e-10

// Bins returns the number of non-negative frequency bins of an n-point DFT.
func Bins(n int) int { return n/2 + 1 }

// FromLsf returns the magnitude envelope of an LSF vector (Hz) sampled at
// the Bins(n) bins of an n-point DFT and scaled by gain.
func FromLsf(hz []float64, fs int, gain float64, n int) []float64 {
	return lsf.SpectrumFromHz(hz, fs, gain, n)
}

// Interpolate resamples x onto n points spanning the same frequency range,
// linearly between neighbouring bins.
func Interpolate(x []float64, n int) []float64 {
	y := make([]float64, n)
	if len(x) == 0 || n == 0 {
		return y
	}
	if len(x) == 1 || n == 1 {
		for i := range y {
			y[i] = x[0]
		}
		return y
	}
	scale := float64(len(x)-1) / float64(n-1)
	for i := range y {
		pos := float64(i) * scale
		j := int(math.Floor(pos))
		if j >= len(x)-1 {
			y[i] = x[len(x)-1]
			continue
		}
		frac := pos - float64(j)
		y[i] = x[j] + frac*(x[j+1]-x[j])
	}
	return y
}

// GainCurve divides target by source bin by bin.
func GainCurve(target, source []float64) []float64 {
	g := make([]float64, len(target))
	for k := range g {
		g[k] = target[k] / math.Max(source[k], floor)
	}
	return g
}

// Multiply scales x by g bin by bin in place and returns it.
func Multiply(x, g []float64) []float64 {
	for k := range x {
		x[k] *= g[k]
	}
	return x
}

// Warp remaps the frequency axis of x for vocal-tract factor v: output bin
// k reads input bin round((k+1)/v) (1-based, clamped to the spectrum).
// v is floored at 0.05.
func Warp(x []float64, v float64) []float64 {
	if v < 0.05 {
		v = 0.05
	}
	n := len(x)
	y := make([]float64, n)
	for k := range y {
		w := int(math.Floor(float64(k+1)/v + 0.5))
		if w < 1 {
			w = 1
		}
		if w > n {
			w = n
		}
		y[k] = x[w-1]
	}
	return y
}
