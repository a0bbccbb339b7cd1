package mapper

import (
	"fmt"
	"math"
	"strings"
)

// Weighting selects how ranked distances become blend weights.
type Weighting int

const (
	// ExponentialHalfWindow weights by exp(-steepness*d).
	ExponentialHalfWindow Weighting = iota
	// TriangleHalfWindow weights rank i by 1/d^(i*steepness) + (1+steepness).
	TriangleHalfWindow
)

var weightingNames = []string{"exponential", "triangle"}

func (w Weighting) String() string {
	if w >= 0 && int(w) < len(weightingNames) {
		return weightingNames[w]
	}
	return fmt.Sprintf("weighting(%d)", int(w))
}

// ParseWeighting accepts the names printed by String.
func ParseWeighting(s string) (Weighting, error) {
	for i, n := range weightingNames {
		if strings.EqualFold(s, n) {
			return Weighting(i), nil
		}
	}
	return 0, configError("unknown weighting %q", s)
}

// computeWeights turns distances sorted ascending into weights that sum to
// one. It returns the weights and the number of ranks that had to be
// lowered to keep the sequence non-increasing.
func computeWeights(d []float64, w Weighting, steepness float64) ([]float64, int) {
	n := len(d)
	if n == 0 {
		return nil, 0
	}
	x := normalizeToRange(d, 0, math.Max(1, steepness+1))
	out := make([]float64, n)
	for i, v := range x {
		switch w {
		case TriangleHalfWindow:
			out[i] = 1/math.Pow(v, float64(i)*steepness) + (1 + steepness)
		default:
			out[i] = math.Exp(-steepness * v)
		}
	}

	// Ranked weights must not increase. The triangle shape grows for
	// normalised distances below one, and is infinite at zero past rank 0.
	repaired := 0
	for i := 1; i < n; i++ {
		if out[i] > out[i-1] || math.IsNaN(out[i]) {
			out[i] = out[i-1]
			repaired++
		}
	}
	return normalizeToSumUpTo(out, 1), repaired
}

// normalizeToRange maps x linearly onto [lo, hi]. A constant input maps to
// the centre of the range.
func normalizeToRange(x []float64, lo, hi float64) []float64 {
	mn, mx := x[0], x[0]
	for _, v := range x[1:] {
		mn = math.Min(mn, v)
		mx = math.Max(mx, v)
	}
	y := make([]float64, len(x))
	for i, v := range x {
		if mx > mn {
			y[i] = (v-mn)/(mx-mn)*(hi-lo) + lo
		} else {
			y[i] = v - mn + 0.5*(lo+hi)
		}
	}
	return y
}

// normalizeToSumUpTo scales x to sum to total. A non-positive sum yields
// equal shares.
func normalizeToSumUpTo(x []float64, total float64) []float64 {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	y := make([]float64, len(x))
	for i, v := range x {
		if sum > 0 {
			y[i] = v / sum * total
		} else {
			y[i] = total / float64(len(x))
		}
	}
	return y
}
