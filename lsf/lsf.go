package lsf

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultDelta is the cosine-domain grid step of the root search. It is
	// small enough to separate closely spaced pairs at orders around 20.
	DefaultDelta = 0.002
	// DefaultBisections is the number of bisection steps per root.
	DefaultBisections = 8
)

var (
	// ErrOddOrder is returned for prediction orders the P/Q split cannot handle.
	ErrOddOrder = errors.New("lsf: prediction order must be even and positive")
	// ErrRootsNotFound is returned when the root search misses a line frequency.
	ErrRootsNotFound = errors.New("lsf: root search did not find all line frequencies")
)

// FromLpc converts LP coefficients a (a[0] == 1) into line spectral
// frequencies in radians, ascending in (0, pi). It returns the frequencies
// and the number of roots the Chebyshev search located.
func FromLpc(a []float64, delta float64, nb int) ([]float64, int) {
	order := len(a) - 1
	m := order / 2
	lsf := make([]float64, order)

	p := make([]float64, m+1)
	q := make([]float64, m+1)
	p[0] = 1.0
	q[0] = 1.0
	for i := 1; i <= m; i++ {
		p[i] = a[i] + a[order+1-i] - p[i-1]
		q[i] = a[i] - a[order+1-i] + q[i-1]
	}
	for i := 0; i < m; i++ {
		p[i] *= 2.0
		q[i] *= 2.0
	}

	roots := 0
	xl, xr := 1.0, 0.0
	for j := 0; j < order; j++ {
		poly := p
		if j%2 == 1 {
			poly = q
		}
		suml := chebyshev(poly, xl)
		for found := false; !found && xr >= -1.0; {
			xr = xl - delta
			sumr := chebyshev(poly, xr)
			if sumr*suml < 0.0 || sumr == 0.0 {
				roots++
				xm := xl
				lo, hi := xl, xr
				for k := 0; k <= nb; k++ {
					xm = (lo + hi) / 2.0
					summ := chebyshev(poly, xm)
					if summ*suml > 0.0 {
						suml = summ
						lo = xm
					} else {
						hi = xm
					}
				}
				lsf[j] = xm
				xl = xm
				found = true
			} else {
				suml = sumr
				xl = xr
			}
		}
	}

	for i := range lsf {
		lsf[i] = math.Acos(math.Max(-1, math.Min(1, lsf[i])))
	}
	return lsf, roots
}

// chebyshev evaluates sum_i coef[m-i] T_i(x) for m = len(coef)-1.
func chebyshev(coef []float64, x float64) float64 {
	n := len(coef)
	t0, t1 := 1.0, x
	sum := coef[n-1] * t0
	if n > 1 {
		sum += coef[n-2] * t1
	}
	for i := 2; i < n; i++ {
		t0, t1 = t1, 2*x*t1-t0
		sum += coef[n-1-i] * t1
	}
	return sum
}

// ToLpc converts line spectral frequencies in radians back to LP
// coefficients of length order+1 with a[0] == 1.
func ToLpc(lsf []float64) []float64 {
	order := len(lsf)
	ak := make([]float64, order+1)
	n := order / 2
	if n == 0 {
		ak[0] = 1.0
		return ak
	}
	xfreq := make([]float64, order)
	for i := range lsf {
		xfreq[i] = math.Cos(lsf[i])
	}

	// Two cascades of second-order sections, one per polynomial, driven by
	// a unit impulse. Each block of four holds the delay line of one section.
	wp := make([]float64, order*4+2)
	xin1, xin2 := 1.0, 1.0
	last := (n-1)*4 + 3
	for j := 0; j <= order; j++ {
		for i := 0; i < n; i++ {
			idx := i * 4
			xout1 := xin1 - 2.0*xfreq[2*i]*wp[idx] + wp[idx+1]
			xout2 := xin2 - 2.0*xfreq[2*i+1]*wp[idx+2] + wp[idx+3]
			wp[idx+1] = wp[idx]
			wp[idx+3] = wp[idx+2]
			wp[idx] = xin1
			wp[idx+2] = xin2
			xin1 = xout1
			xin2 = xout2
		}
		xout1 := xin1 + wp[last+1]
		xout2 := xin2 - wp[last+2]
		ak[j] = 0.5 * (xout1 + xout2)
		wp[last+1] = xin1
		wp[last+2] = xin2
		xin1 = 0.0
		xin2 = 0.0
	}
	return ak
}

// Uniform returns order frequencies evenly spaced over (0, pi). It is the
// flat-envelope fallback used when the root search fails.
func Uniform(order int) []float64 {
	lsf := make([]float64, order)
	for i := range lsf {
		lsf[i] = float64(i+1) * math.Pi / float64(order+1)
	}
	return lsf
}

// Repair forces strictly ascending frequencies in (0, pi) with at least
// minSep radians between neighbours. It returns the number of adjustments.
func Repair(lsf []float64, minSep float64) int {
	fixes := 0
	for i := 1; i < len(lsf); i++ {
		if lsf[i] < lsf[i-1] {
			fixes++
			lsf[i-1], lsf[i] = lsf[i], lsf[i-1]
			i = 0
		}
	}
	lo := minSep
	for i := range lsf {
		if lsf[i] < lo {
			lsf[i] = lo
			fixes++
		}
		lo = lsf[i] + minSep
	}
	hi := math.Pi - minSep
	for i := len(lsf) - 1; i >= 0; i-- {
		if lsf[i] > hi {
			lsf[i] = hi
			fixes++
		}
		hi = lsf[i] - minSep
	}
	return fixes
}

// HzFromLpc is FromLpc with the result expressed in Hz for sampling rate fs.
// On an odd order it returns ErrOddOrder. If the search misses roots the
// uniform fallback is returned together with ErrRootsNotFound.
func HzFromLpc(a []float64, fs int) ([]float64, error) {
	order := len(a) - 1
	if order <= 0 || order%2 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrOddOrder, order)
	}
	w, roots := FromLpc(a, DefaultDelta, DefaultBisections)
	if roots != order {
		return ToHz(Uniform(order), fs), fmt.Errorf("%w: %d of %d", ErrRootsNotFound, roots, order)
	}
	return ToHz(w, fs), nil
}

// LpcFromHz converts frequencies in Hz back to LP coefficients. The input
// is copied and repaired first, so out-of-order vectors are accepted.
func LpcFromHz(hz []float64, fs int) []float64 {
	w := FromHz(hz, fs)
	Repair(w, 1e-4)
	return ToLpc(w)
}

// ToHz maps radians to Hz.
func ToHz(w []float64, fs int) []float64 {
	out := make([]float64, len(w))
	for i, v := range w {
		out[i] = v * float64(fs) / (2 * math.Pi)
	}
	return out
}

// FromHz maps Hz to radians.
func FromHz(hz []float64, fs int) []float64 {
	out := make([]float64, len(hz))
	for i, v := range hz {
		out[i] = v * 2 * math.Pi / float64(fs)
	}
	return out
}
