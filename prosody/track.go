// Package prosody holds the per-frame modification controls of a
// conversion run: pitch, time, energy and vocal-tract scale tracks, their
// limits, pitch-mark grids and F0 mapping between speakers.
package prosody

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Modification limits. Requests outside them are clamped, never rejected.
const (
	MinPitchScale = 0.1
	MaxPitchScale = 5.0
	MinTimeScale  = 0.1
	MaxTimeScale  = 5.0
	MinEnergy     = 0.0
	MaxEnergy     = 10.0
	// MinVocalTract floors the warp factor before it is used as a divisor.
	MinVocalTract = 0.05
	MaxVocalTract = 5.0
)

var (
	// ErrTrackLength indicates mismatched times and values.
	ErrTrackLength = errors.New("prosody: track times and values differ in length")
	// ErrTrackOrder indicates timestamps that do not increase.
	ErrTrackOrder = errors.New("prosody: track timestamps must increase")
	// ErrTrackValue indicates a non-finite scale factor.
	ErrTrackValue = errors.New("prosody: track value is not finite")
)

// ClampPitch limits a pitch scale factor.
func ClampPitch(v float64) float64 { return clamp(v, MinPitchScale, MaxPitchScale) }

// ClampTime limits a time scale factor.
func ClampTime(v float64) float64 { return clamp(v, MinTimeScale, MaxTimeScale) }

// ClampEnergy limits an energy scale factor.
func ClampEnergy(v float64) float64 { return clamp(v, MinEnergy, MaxEnergy) }

// ClampVocalTract limits a vocal-tract warp factor.
func ClampVocalTract(v float64) float64 { return clamp(v, MinVocalTract, MaxVocalTract) }

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 1
	}
	return math.Max(lo, math.Min(hi, v))
}

// Track is a scale factor over time: a scalar, or values at increasing
// timestamps (seconds) interpolated linearly and held beyond the ends.
// The zero value is the unit scale.
type Track struct {
	times  []float64
	values []float64
}

// Constant returns a scalar track.
func Constant(v float64) Track {
	return Track{values: []float64{v}}
}

// NewTrack builds a piecewise track. A single value needs no timestamp.
func NewTrack(times, values []float64) (Track, error) {
	if len(values) == 1 && len(times) <= 1 {
		if err := checkFinite(values); err != nil {
			return Track{}, err
		}
		return Constant(values[0]), nil
	}
	if len(times) != len(values) {
		return Track{}, fmt.Errorf("%w: %d times, %d values", ErrTrackLength, len(times), len(values))
	}
	if !sort.SliceIsSorted(times, func(i, j int) bool { return times[i] < times[j] }) {
		return Track{}, ErrTrackOrder
	}
	for i := 1; i < len(times); i++ {
		if times[i] == times[i-1] {
			return Track{}, ErrTrackOrder
		}
	}
	if err := checkFinite(values); err != nil {
		return Track{}, err
	}
	return Track{
		times:  append([]float64(nil), times...),
		values: append([]float64(nil), values...),
	}, nil
}

// Uniform spreads values evenly over a duration, the way per-segment scale
// lists are given on the command line.
func Uniform(values []float64, duration float64) (Track, error) {
	if len(values) <= 1 {
		return NewTrack(nil, values)
	}
	times := make([]float64, len(values))
	for i := range times {
		times[i] = duration * float64(i) / float64(len(values)-1)
	}
	return NewTrack(times, values)
}

func checkFinite(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: index %d", ErrTrackValue, i)
		}
	}
	return nil
}

// At returns the unclamped value at time t.
func (tr Track) At(t float64) float64 {
	switch {
	case len(tr.values) == 0:
		return 1
	case len(tr.times) == 0:
		return tr.values[0]
	case t <= tr.times[0]:
		return tr.values[0]
	case t >= tr.times[len(tr.times)-1]:
		return tr.values[len(tr.values)-1]
	}
	i := sort.SearchFloat64s(tr.times, t)
	t0, t1 := tr.times[i-1], tr.times[i]
	v0, v1 := tr.values[i-1], tr.values[i]
	return v0 + (v1-v0)*(t-t0)/(t1-t0)
}

// Constant reports the value of a track that does not vary.
func (tr Track) Constant() (float64, bool) {
	if len(tr.values) == 0 {
		return 1, true
	}
	for _, v := range tr.values[1:] {
		if v != tr.values[0] {
			return 0, false
		}
	}
	return tr.values[0], true
}
