package fdpsola

import "github.com/mjibson/go-dsp/fft"

// FFT transforms frames of any length.
type FFT interface {
	Forward(in []float64) []complex128
	Inverse(in []complex128) []float64
}

// defaultFFT implements FFT using go-dsp/fft.
type defaultFFT struct{}

// NewFFT returns the go-dsp backed transform.
func NewFFT() FFT {
	return defaultFFT{}
}

// Forward returns the full DFT of a real-valued input.
func (defaultFFT) Forward(in []float64) []complex128 {
	return fft.FFTReal(in)
}

// Inverse returns the real part of the inverse DFT. go-dsp scales by
// 1/len(in), so Inverse(Forward(x)) == x.
func (defaultFFT) Inverse(in []complex128) []float64 {
	out := fft.IFFT(in)
	re := make([]float64, len(out))
	for i, v := range out {
		re[i] = real(v)
	}
	return re
}
