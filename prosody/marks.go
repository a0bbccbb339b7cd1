package prosody

import (
	"errors"
	"fmt"
	"math"

	"github.com/blues/voxconv/codebook"
)

// ErrMarks indicates pitch marks that are not strictly increasing or fall
// outside the signal.
var ErrMarks = errors.New("prosody: invalid pitch marks")

// voicedF0 is the lowest F0 (Hz) treated as voiced.
const voicedF0 = 10.0

// Marks is a pitch-mark array with one voicing flag per period. Period i
// spans [Samples[i], Samples[i+1]).
type Marks struct {
	Samples []int
	Voiced  []bool
}

// Periods returns the number of periods.
func (m Marks) Periods() int { return len(m.Samples) - 1 }

// Normalize returns marks that start at 0 and end at n. A leading gap is
// an extra unvoiced period; a trailing gap extends the last period.
func (m Marks) Normalize(n int) (Marks, error) {
	if n <= 0 {
		return Marks{}, fmt.Errorf("%w: empty signal", ErrMarks)
	}
	for i, s := range m.Samples {
		if s < 0 || s > n || (i > 0 && s <= m.Samples[i-1]) {
			return Marks{}, fmt.Errorf("%w: mark %d at sample %d", ErrMarks, i, s)
		}
	}
	out := Marks{}
	voiced := func(i int) bool { return i < len(m.Voiced) && m.Voiced[i] }
	if len(m.Samples) == 0 || m.Samples[0] > 0 {
		out.Samples = append(out.Samples, 0)
		out.Voiced = append(out.Voiced, false)
	}
	for i, s := range m.Samples {
		if s == n {
			break
		}
		out.Samples = append(out.Samples, s)
		out.Voiced = append(out.Voiced, voiced(i))
	}
	out.Samples = append(out.Samples, n)
	return out, nil
}

// MarksFromF0 lays pitch marks over n samples from an F0 contour sampled
// every hop seconds. Voiced stretches advance by one period, unvoiced
// stretches by unvoicedStep seconds.
func MarksFromF0(f0 []float64, hop float64, fs, n int, unvoicedStep float64) Marks {
	var m Marks
	for pos := 0.0; int(math.Round(pos)) < n; {
		idx := 0
		if hop > 0 {
			idx = int(math.Round(pos / float64(fs) / hop))
		}
		v := 0.0
		if idx < len(f0) {
			v = f0[idx]
		} else if len(f0) > 0 {
			v = f0[len(f0)-1]
		}
		m.Samples = append(m.Samples, int(math.Round(pos)))
		step := unvoicedStep * float64(fs)
		if v > voicedF0 {
			step = float64(fs) / v
		}
		m.Voiced = append(m.Voiced, v > voicedF0)
		pos += math.Max(step, 1)
	}
	m.Samples = append(m.Samples, n)
	return m
}

// PitchMapping maps source F0 values onto the target speaker's range by
// matching mean and standard deviation.
type PitchMapping struct {
	Source codebook.PitchStatistics
	Target codebook.PitchStatistics
}

// Valid reports whether both sides carry statistics.
func (p PitchMapping) Valid() bool {
	return p.Source.Valid() && p.Target.Valid()
}

// Map returns the target F0 for a source F0. Unvoiced input maps to 0.
func (p PitchMapping) Map(f0 float64) float64 {
	if f0 <= voicedF0 || !p.Valid() {
		return f0
	}
	out := p.Target.Mean
	if p.Source.StdDev > 0 {
		out += (f0 - p.Source.Mean) * p.Target.StdDev / p.Source.StdDev
	} else {
		out += f0 - p.Source.Mean
	}
	if p.Target.Min > 0 && p.Target.Max > p.Target.Min {
		out = math.Max(p.Target.Min, math.Min(p.Target.Max, out))
	}
	return math.Max(out, voicedF0)
}

// Scale returns the pitch scale that takes f0 to Map(f0).
func (p PitchMapping) Scale(f0 float64) float64 {
	if f0 <= voicedF0 || !p.Valid() {
		return 1
	}
	return p.Map(f0) / f0
}
