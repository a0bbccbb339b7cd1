package mapper

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DistanceKind selects how an input envelope is compared with an entry.
type DistanceKind int

const (
	Euclidean DistanceKind = iota
	InverseHarmonic
	SymmetricInverseHarmonic
	Mahalanobis
	AbsoluteValue
)

var distanceNames = []string{"euclidean", "inverse_harmonic", "symmetric_inverse_harmonic", "mahalanobis", "absolute_value"}

func (d DistanceKind) String() string {
	if d >= 0 && int(d) < len(distanceNames) {
		return distanceNames[d]
	}
	return fmt.Sprintf("distance(%d)", int(d))
}

// ParseDistance accepts the names printed by String.
func ParseDistance(s string) (DistanceKind, error) {
	for i, n := range distanceNames {
		if strings.EqualFold(s, n) {
			return DistanceKind(i), nil
		}
	}
	return 0, configError("unknown distance %q", s)
}

// metric binds a query and returns the distance to a codebook entry by
// index, so metrics can keep per-entry and per-query precomputed data.
// Metrics are immutable and safe for concurrent queries.
type metric interface {
	bind(query []float64) func(entry int) float64
}

type euclidean struct{ vectors [][]float64 }

func (m euclidean) bind(q []float64) func(int) float64 {
	return func(entry int) float64 {
		v := m.vectors[entry]
		sum := 0.0
		for i := range q {
			d := q[i] - v[i]
			sum += d * d
		}
		return math.Sqrt(sum)
	}
}

type absoluteValue struct{ vectors [][]float64 }

func (m absoluteValue) bind(q []float64) func(int) float64 {
	return func(entry int) float64 {
		v := m.vectors[entry]
		sum := 0.0
		for i := range q {
			sum += math.Abs(q[i] - v[i])
		}
		return sum
	}
}

// inverseHarmonic weights each squared coefficient difference by the inverse
// spacing to its neighbours, so closely spaced pairs (formant peaks) count
// more. The outer neighbours are 0 and freqRange.
type inverseHarmonic struct {
	vectors   [][]float64
	freqRange float64
	// symmetric mixes query-weighted and entry-weighted distances by alpha
	symmetric bool
	alpha     float64
	entryW    [][]float64
}

func newInverseHarmonic(vectors [][]float64, freqRange, alpha float64, symmetric bool) *inverseHarmonic {
	m := &inverseHarmonic{vectors: vectors, freqRange: freqRange, symmetric: symmetric, alpha: alpha}
	if symmetric {
		m.entryW = make([][]float64, len(vectors))
		for i, v := range vectors {
			m.entryW[i] = inverseHarmonicWeights(v, freqRange)
		}
	}
	return m
}

// minSpacing keeps the weights finite for coincident frequencies (Hz).
const minSpacing = 1e-3

func inverseHarmonicWeights(lsf []float64, freqRange float64) []float64 {
	w := make([]float64, len(lsf))
	for i := range lsf {
		lo := 0.0
		if i > 0 {
			lo = lsf[i-1]
		}
		hi := freqRange
		if i < len(lsf)-1 {
			hi = lsf[i+1]
		}
		w[i] = 1/math.Max(lsf[i]-lo, minSpacing) + 1/math.Max(hi-lsf[i], minSpacing)
	}
	return w
}

func weightedSquared(q, v, w []float64) float64 {
	sum := 0.0
	for i := range q {
		d := q[i] - v[i]
		sum += w[i] * d * d
	}
	return sum
}

func (m *inverseHarmonic) bind(q []float64) func(int) float64 {
	qw := inverseHarmonicWeights(q, m.freqRange)
	return func(entry int) float64 {
		v := m.vectors[entry]
		if !m.symmetric {
			return weightedSquared(q, v, qw)
		}
		return m.alpha*weightedSquared(q, v, qw) + (1-m.alpha)*weightedSquared(q, v, m.entryW[entry])
	}
}

// mahalanobis uses the inverse covariance of the matched codebook side.
type mahalanobis struct {
	vectors [][]float64
	inv     *mat.SymDense
}

func (m mahalanobis) bind(q []float64) func(int) float64 {
	diff := make([]float64, len(q))
	x := mat.NewVecDense(len(diff), diff)
	return func(entry int) float64 {
		v := m.vectors[entry]
		for i := range q {
			diff[i] = q[i] - v[i]
		}
		return math.Sqrt(math.Max(mat.Inner(x, m.inv, x), 0))
	}
}

// inverseCovariance estimates the covariance of vectors and inverts it. It
// reports false when there are too few vectors or the estimate is singular.
func inverseCovariance(vectors [][]float64) (*mat.SymDense, bool) {
	if len(vectors) == 0 {
		return nil, false
	}
	dim := len(vectors[0])
	if len(vectors) <= dim {
		return nil, false
	}
	data := mat.NewDense(len(vectors), dim, nil)
	for i, v := range vectors {
		data.SetRow(i, v)
	}
	cov := mat.NewSymDense(dim, nil)
	stat.CovarianceMatrix(cov, data, nil)

	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return nil, false
	}
	inv := mat.NewSymDense(dim, nil)
	if err := chol.InverseTo(inv); err != nil {
		return nil, false
	}
	return inv, true
}
