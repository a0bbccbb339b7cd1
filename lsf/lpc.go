// Package lsf implements the linear-prediction front end shared by the
// codebook mapper and the frame processor: autocorrelation LP analysis,
// LPC <-> LSF conversion and LP envelope spectra.
package lsf

import (
	"math"
)

// Coeffs holds the prediction polynomial A(z) = 1 + a1 z^-1 + ... + ap z^-p
// together with the square root of the prediction error energy.
type Coeffs struct {
	A    []float64 // length order+1, A[0] == 1
	Gain float64
}

// Order returns the prediction order.
func (c Coeffs) Order() int { return len(c.A) - 1 }

// Autocorrelate returns R[0..order] of x.
func Autocorrelate(x []float64, order int) []float64 {
	r := make([]float64, order+1)
	for i := 0; i <= order; i++ {
		for j := 0; j < len(x)-i; j++ {
			r[i] += x[j] * x[j+i]
		}
	}
	return r
}

// LevinsonDurbin solves the normal equations for autocorrelation r and
// returns the coefficients (a[0] == 1) and the final prediction error.
// The recursion stops early if the error stops being positive, leaving the
// remaining coefficients at zero.
func LevinsonDurbin(r []float64, order int) ([]float64, float64) {
	a := make([]float64, order+1)
	a[0] = 1.0
	e := r[0]
	if e <= 0 {
		return a, 0
	}
	prev := make([]float64, order+1)
	for i := 1; i <= order; i++ {
		sum := 0.0
		for j := 1; j < i; j++ {
			sum += a[j] * r[i-j]
		}
		// reflection coefficient, negative sign convention
		k := -(r[i] + sum) / e
		if math.Abs(k) >= 1 {
			break
		}
		copy(prev, a[:i+1])
		for j := 1; j < i; j++ {
			a[j] = prev[j] + k*prev[i-j]
		}
		a[i] = k
		e *= 1 - k*k
	}
	return a, e
}

// Analyze computes order-th LP coefficients of an already windowed frame.
// A silent frame yields the trivial filter A(z) = 1 with zero gain.
func Analyze(frame []float64, order int) Coeffs {
	energy := 0.0
	for _, v := range frame {
		energy += v * v
	}
	if energy == 0 || len(frame) <= order {
		a := make([]float64, order+1)
		a[0] = 1
		return Coeffs{A: a}
	}
	r := Autocorrelate(frame, order)
	a, e := LevinsonDurbin(r, order)
	if e < 0 {
		e = 0
	}
	return Coeffs{A: a, Gain: math.Sqrt(e)}
}

// Preemphasis returns x filtered by 1 - coef z^-1.
func Preemphasis(x []float64, coef float64) []float64 {
	y := make([]float64, len(x))
	if len(x) == 0 {
		return y
	}
	y[0] = x[0]
	for i := 1; i < len(x); i++ {
		y[i] = x[i] - coef*x[i-1]
	}
	return y
}

// RemovePreemphasis inverts Preemphasis.
func RemovePreemphasis(x []float64, coef float64) []float64 {
	y := make([]float64, len(x))
	if len(x) == 0 {
		return y
	}
	y[0] = x[0]
	for i := 1; i < len(x); i++ {
		y[i] = x[i] + coef*y[i-1]
	}
	return y
}

// Energy returns the root of the summed squares of x.
func Energy(x []float64) float64 {
	e := 0.0
	for _, v := range x {
		e += v * v
	}
	return math.Sqrt(e)
}
