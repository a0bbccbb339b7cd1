package lsf

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// minPower keeps the envelope finite at zeros of A(e^jw).
const minPower = 1e-12

// Spectrum returns the LP envelope magnitude gain/|A(e^jw)| sampled at the
// n/2+1 non-negative bins of an n-point DFT.
func Spectrum(a []float64, gain float64, n int) []float64 {
	bins := n/2 + 1
	out := make([]float64, bins)
	if n >= len(a) {
		buf := make([]float64, n)
		copy(buf, a)
		A := fft.FFTReal(buf)
		for k := 0; k < bins; k++ {
			out[k] = gain / math.Sqrt(math.Max(sqAbs(A[k]), minPower))
		}
		return out
	}
	// frame shorter than the filter: evaluate the polynomial directly
	for k := 0; k < bins; k++ {
		w := 2 * math.Pi * float64(k) / float64(n)
		var s complex128
		for i, c := range a {
			s += complex(c, 0) * cmplx.Exp(complex(0, -w*float64(i)))
		}
		out[k] = gain / math.Sqrt(math.Max(sqAbs(s), minPower))
	}
	return out
}

// SpectrumFromHz builds the envelope of an LSF vector in Hz.
func SpectrumFromHz(hz []float64, fs int, gain float64, n int) []float64 {
	return Spectrum(LpcFromHz(hz, fs), gain, n)
}

func sqAbs(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}
