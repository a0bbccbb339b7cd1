package fdpsola

import "math"

// accumulator is the overlap-add ring. y holds the weighted frame sum,
// w the matching window sum; a flushed sample is y/w.
type accumulator struct {
	y []float64
	w []float64
}

func newAccumulator(capacity int) *accumulator {
	return &accumulator{
		y: make([]float64, capacity),
		w: make([]float64, capacity),
	}
}

func (a *accumulator) capacity() int { return len(a.y) }

// add overlaps frm onto the ring at position at. Inner halves are
// weighted by win and normalised by win squared. The first half of the
// first frame and the second half of the last frame face the signal edge:
// they are taken as they are, with unit weight.
func (a *accumulator) add(frm, win []float64, at int, first, last bool) {
	n := len(frm)
	half := int(math.Floor(float64(n)/2 + 0.5))
	c := len(a.y)
	for k := 0; k < n; k++ {
		idx := (at + k) % c
		switch {
		case first && k < half:
			a.y[idx] = frm[k]
			a.w[idx] = 1
		case last && k >= half:
			a.y[idx] += frm[k]
			a.w[idx] = 1
		default:
			a.y[idx] += frm[k] * win[k]
			a.w[idx] += win[k] * win[k]
		}
	}
}

// flush appends n normalised samples starting at ring position at to dst
// and clears them.
func (a *accumulator) flush(dst []float64, at, n int) []float64 {
	c := len(a.y)
	for k := 0; k < n; k++ {
		idx := (at + k) % c
		v := a.y[idx]
		if a.w[idx] > 0 {
			v /= a.w[idx]
		}
		dst = append(dst, v)
		a.y[idx], a.w[idx] = 0, 0
	}
	return dst
}
