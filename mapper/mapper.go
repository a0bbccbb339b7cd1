// Package mapper finds the codebook entries closest to an input spectral
// envelope and blends them into one source/target envelope pair.
package mapper

import (
	"math"

	"github.com/blues/voxconv/codebook"
	"github.com/sirupsen/logrus"
)

// Params configures a Mapper. The zero value is not usable; start from
// DefaultParams.
type Params struct {
	K         int
	Distance  DistanceKind
	Weighting Weighting
	Steepness float64
	// FreqRange is the upper bound (Hz) for inverse-harmonic spacing. Zero
	// means half the codebook sampling rate.
	FreqRange float64
	// Alpha mixes query-weighted and entry-weighted inverse-harmonic
	// distances in the symmetric variant, in [0, 1].
	Alpha float64
	// MatchTarget compares queries with the target side of each entry
	// instead of the source side.
	MatchTarget bool
}

// DefaultParams returns the parameters used by the command line tools.
func DefaultParams() Params {
	return Params{
		K:         3,
		Distance:  InverseHarmonic,
		Weighting: ExponentialHalfWindow,
		Steepness: 1.0,
		Alpha:     0.5,
	}
}

// Match is the result of one query. Indices, Distances and Weights are
// ordered by ascending distance; the weights are non-increasing and sum
// to one. Source and Target are the per-coefficient weighted sums of the
// selected entries.
type Match struct {
	Indices   []int
	Distances []float64
	Weights   []float64
	Source    []float64
	Target    []float64

	matchTarget bool
}

// Empty reports whether no entry was selected.
func (m Match) Empty() bool { return len(m.Indices) == 0 }

// Matched returns the blended side the query was compared with.
func (m Match) Matched() []float64 {
	if m.matchTarget {
		return m.Target
	}
	return m.Source
}

// Mapped returns the blended opposite side, the envelope to convert to.
func (m Match) Mapped() []float64 {
	if m.matchTarget {
		return m.Source
	}
	return m.Target
}

// Mapper answers queries against one read-only codebook. It is safe for
// concurrent use.
type Mapper struct {
	cb     *codebook.Codebook
	params Params
	metric metric
	log    logrus.FieldLogger
}

// Option customises a Mapper.
type Option func(*Mapper)

// WithLogger sets the logger used for warnings and debug output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Mapper) { m.log = l }
}

// New validates p against cb and prepares the distance metric.
func New(cb *codebook.Codebook, p Params, opts ...Option) (*Mapper, error) {
	m := &Mapper{cb: cb, params: p, log: logrus.StandardLogger()}
	for _, o := range opts {
		o(m)
	}
	if cb == nil {
		return nil, configError("nil codebook")
	}
	switch {
	case p.K < 1:
		return nil, configError("K must be at least 1, got %d", p.K)
	case p.Steepness < 0 || math.IsNaN(p.Steepness):
		return nil, configError("steepness must be non-negative, got %v", p.Steepness)
	case p.Alpha < 0 || p.Alpha > 1:
		return nil, configError("alpha must be in [0,1], got %v", p.Alpha)
	case p.Weighting != ExponentialHalfWindow && p.Weighting != TriangleHalfWindow:
		return nil, configError("unknown weighting %d", p.Weighting)
	}
	if m.params.FreqRange <= 0 {
		m.params.FreqRange = 0.5 * float64(cb.Header.SamplingRate)
	}

	vectors := make([][]float64, cb.Len())
	for i, e := range cb.Entries {
		vectors[i] = e.Side(p.MatchTarget)
	}
	switch p.Distance {
	case Euclidean:
		m.metric = euclidean{vectors: vectors}
	case AbsoluteValue:
		m.metric = absoluteValue{vectors: vectors}
	case InverseHarmonic:
		m.metric = newInverseHarmonic(vectors, m.params.FreqRange, p.Alpha, false)
	case SymmetricInverseHarmonic:
		m.metric = newInverseHarmonic(vectors, m.params.FreqRange, p.Alpha, true)
	case Mahalanobis:
		if inv, ok := inverseCovariance(vectors); ok {
			m.metric = mahalanobis{vectors: vectors, inv: inv}
		} else {
			m.log.WithFields(logrus.Fields{
				"function": "mapper.New",
				"entries":  cb.Len(),
				"lp_order": cb.Header.LPOrder,
			}).Warn("Covariance unavailable, Mahalanobis falls back to Euclidean")
			m.metric = euclidean{vectors: vectors}
		}
	default:
		return nil, configError("unknown distance %d", p.Distance)
	}
	return m, nil
}

// Params returns the effective parameters.
func (m *Mapper) Params() Params { return m.params }

// Codebook returns the codebook the mapper searches.
func (m *Mapper) Codebook() *codebook.Codebook { return m.cb }

// Query finds the K entries closest to input among candidates and blends
// them. A nil candidates slice means every entry; a non-nil empty slice is
// a preselection that found nothing and yields an empty Match without error.
func (m *Mapper) Query(input []float64, candidates []int) (Match, error) {
	order := m.cb.Header.LPOrder
	if len(input) != order {
		return Match{}, configError("input envelope has %d coefficients, codebook LP order is %d", len(input), order)
	}
	for i, v := range input {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Match{}, configError("input coefficient %d is %v", i, v)
		}
	}
	if candidates == nil {
		if m.cb.Len() == 0 {
			return Match{}, configError("codebook has no entries")
		}
		candidates = make([]int, m.cb.Len())
		for i := range candidates {
			candidates[i] = i
		}
	} else if len(candidates) == 0 {
		return Match{matchTarget: m.params.MatchTarget}, nil
	}
	for _, c := range candidates {
		if c < 0 || c >= m.cb.Len() {
			return Match{}, configError("candidate index %d outside codebook of %d entries", c, m.cb.Len())
		}
	}

	k := m.params.K
	if k > len(candidates) {
		k = len(candidates)
	}
	best, skipped := bestK(candidates, k, m.metric.bind(input))
	if skipped > 0 {
		m.log.WithFields(logrus.Fields{
			"function": "Mapper.Query",
			"skipped":  skipped,
		}).Warn("Skipped codebook entries with non-finite distance")
	}
	if len(best) == 0 {
		return Match{}, configError("no candidate has a finite distance")
	}

	dists := make([]float64, len(best))
	for i, b := range best {
		dists[i] = b.dist
	}
	weights, repaired := computeWeights(dists, m.params.Weighting, m.params.Steepness)
	if repaired > 0 {
		m.log.WithFields(logrus.Fields{
			"function":  "Mapper.Query",
			"weighting": m.params.Weighting.String(),
			"steepness": m.params.Steepness,
			"repaired":  repaired,
		}).Warn("Ranked weights increased with distance, clamped to non-increasing")
	}

	match := Match{
		Indices:     make([]int, len(best)),
		Distances:   dists,
		Weights:     weights,
		Source:      make([]float64, order),
		Target:      make([]float64, order),
		matchTarget: m.params.MatchTarget,
	}
	for i, b := range best {
		match.Indices[i] = b.index
		e := m.cb.Entries[b.index]
		for j := 0; j < order; j++ {
			match.Source[j] += weights[i] * e.Source[j]
			match.Target[j] += weights[i] * e.Target[j]
		}
	}
	return match, nil
}

// Query is a one-shot convenience around New and Mapper.Query.
func Query(input []float64, cb *codebook.Codebook, candidates []int, p Params) (Match, error) {
	m, err := New(cb, p)
	if err != nil {
		return Match{}, err
	}
	return m.Query(input, candidates)
}

// Preselect returns the indices of entries whose label on the matched side
// equals label. When fewer than minimum entries match, it returns nil so
// the query considers every entry. With minimum 0 an unknown label yields
// an empty, non-nil slice.
func Preselect(cb *codebook.Codebook, label string, matchTarget bool, minimum int) []int {
	out := make([]int, 0)
	for i, e := range cb.Entries {
		if e.Label(matchTarget) == label {
			out = append(out, i)
		}
	}
	if len(out) < minimum {
		return nil
	}
	return out
}
