package fdpsola

import (
	"fmt"
	"math"

	"github.com/blues/voxconv/prosody"
)

// Input is one signal to convert with its per-frame annotations.
type Input struct {
	Samples      []float64
	SamplingRate int

	// Marks frame the signal pitch-synchronously. Ignored in fixed-rate
	// mode.
	Marks prosody.Marks

	// Voiced and F0 annotate fixed-rate frames. Without Voiced a frame is
	// voiced when its F0 is known and above 10 Hz, or when no F0 is given.
	Voiced []bool
	F0     []float64

	// Labels give the phonetic label of each analysis frame, used for
	// codebook preselection. Frames past the end of Labels take their
	// label from Segments.
	Labels   []string
	Segments []Segment
	// Envelopes optionally replace the analysed LSF vector (Hz) of each
	// frame. Nil entries fall back to analysis.
	Envelopes [][]float64
}

// Segment is a labelled stretch of the input ending at End seconds.
// Segments are ordered by End.
type Segment struct {
	End   float64
	Label string
}

// frame is one analysis frame.
type frame struct {
	index  int
	start  int
	length int
	hop    int // input advance to the next frame
	voiced bool
	f0     float64
	time   float64 // centre, seconds
	last   bool
}

// layout cuts the input into analysis frames and returns them with the
// total output duration, in samples, the time scales ask for.
func layout(in Input, cfg Config) ([]frame, float64, error) {
	n := len(in.Samples)
	if n == 0 {
		return nil, 0, fmt.Errorf("%w: no samples", ErrInvalidInput)
	}
	if in.SamplingRate <= 0 {
		return nil, 0, fmt.Errorf("%w: sampling rate %d", ErrInvalidInput, in.SamplingRate)
	}
	fs := float64(in.SamplingRate)

	var frames []frame
	if cfg.FixedRate {
		frames = fixedFrames(in, cfg)
	} else {
		var err error
		if frames, err = pitchFrames(in, cfg); err != nil {
			return nil, 0, err
		}
	}

	total := 0.0
	for i := range frames {
		f := &frames[i]
		f.index = i
		f.time = (float64(f.start) + float64(f.length)/2) / fs
		adv := f.hop
		if i == len(frames)-1 {
			f.last = true
			adv = n - f.start
		}
		total += float64(adv) * prosody.ClampTime(cfg.Scales.Time.At(f.time))
	}
	return frames, total, nil
}

func pitchFrames(in Input, cfg Config) ([]frame, error) {
	n := len(in.Samples)
	if len(in.Marks.Samples) == 0 {
		return nil, fmt.Errorf("%w: pitch marks are required unless framing at a fixed rate", ErrInvalidInput)
	}
	m, err := in.Marks.Normalize(n)
	if err != nil {
		return nil, err
	}
	periods := cfg.NumPeriods
	if p := m.Periods(); periods > p {
		periods = p
	}
	nf := len(m.Samples) - periods
	frames := make([]frame, nf)
	for i := range frames {
		f := frame{
			start:  m.Samples[i],
			length: m.Samples[i+periods] - m.Samples[i],
			hop:    m.Samples[i+1] - m.Samples[i],
			voiced: m.Voiced[i],
		}
		if f.voiced {
			f.f0 = float64(in.SamplingRate) / float64(f.hop)
		}
		frames[i] = f
	}
	return frames, nil
}

func fixedFrames(in Input, cfg Config) []frame {
	n := len(in.Samples)
	fs := float64(in.SamplingRate)
	ws := int(math.Round(cfg.WindowSize * fs))
	ss := int(math.Max(1, math.Round(cfg.SkipSize*fs)))
	if ws <= ss {
		ws = ss + 1
	}
	nf := 1
	if n > ws {
		nf += int(math.Ceil(float64(n-ws) / float64(ss)))
	}
	frames := make([]frame, nf)
	for i := range frames {
		f := frame{start: i * ss, length: ws, hop: ss, voiced: true}
		if i < len(in.F0) {
			f.f0 = in.F0[i]
		}
		switch {
		case i < len(in.Voiced):
			f.voiced = in.Voiced[i]
		case len(in.F0) > 0:
			f.voiced = f.f0 > 10
		}
		frames[i] = f
	}
	return frames
}

// evenSize rounds a frame length down to an even size of at least 4.
func evenSize(n int) int {
	if n%2 != 0 {
		n--
	}
	if n < 4 {
		n = 4
	}
	return n
}
