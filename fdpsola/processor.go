// Package fdpsola converts speech frame by frame: pitch-synchronous
// analysis, LPC envelope estimation, codebook envelope substitution,
// spectral folding for pitch change and overlap-add resynthesis with
// duration bookkeeping.
package fdpsola

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/blues/voxconv/envelope"
	"github.com/blues/voxconv/lsf"
	"github.com/blues/voxconv/mapper"
	"github.com/blues/voxconv/prosody"
	"github.com/mjibson/go-dsp/window"
	"github.com/sirupsen/logrus"
)

// minEnvelope keeps the residual finite where the analysed envelope is 0.
const minEnvelope = 1e-10

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Processor) { p.log = l }
}

// WithFFT replaces the go-dsp transform.
func WithFFT(f FFT) Option {
	return func(p *Processor) { p.fft = f }
}

// WithPitchMapping overrides the speaker F0 statistics read from the
// codebook header.
func WithPitchMapping(m prosody.PitchMapping) Option {
	return func(p *Processor) { p.pitch = m }
}

// Processor holds the read-only parts of a conversion. One Processor may
// run many sessions concurrently; each session owns its own state.
type Processor struct {
	cfg    Config
	mapper *mapper.Mapper
	pitch  prosody.PitchMapping
	fft    FFT
	log    logrus.FieldLogger
}

// NewProcessor validates cfg against the mapper's codebook. m may be nil
// when vocal tract transformation is off.
func NewProcessor(cfg Config, m *mapper.Mapper, opts ...Option) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Processor{cfg: cfg, mapper: m, fft: NewFFT(), log: logrus.StandardLogger()}
	if m != nil {
		h := m.Codebook().Header
		p.pitch = prosody.PitchMapping{Source: h.SourcePitch, Target: h.TargetPitch}
	}
	for _, opt := range opts {
		opt(p)
	}
	if !cfg.VocalTractTransformation {
		return p, nil
	}
	if m == nil {
		return nil, fmt.Errorf("%w: vocal tract transformation needs a codebook", ErrInvalidConfig)
	}
	if order := m.Codebook().Header.LPOrder; order != cfg.LPOrder {
		return nil, &mapper.ConfigurationError{
			Reason: fmt.Sprintf("LP order %d does not match codebook order %d", cfg.LPOrder, order),
		}
	}
	return p, nil
}

// Config returns the processor settings.
func (p *Processor) Config() Config { return p.cfg }

// Result summarises a finished session.
type Result struct {
	Frames      int // analysis frames processed
	Skipped     int
	Repeated    int // extra synthesis passes
	Transformed int // frames that went through the spectral path
	Queries     int
	Length      int // output samples written
}

// Run converts in and writes the output to sink. The output holds the
// input duration scaled by the time track, rounded to a sample.
func (p *Processor) Run(in Input, sink Sink) (Result, error) {
	s, err := p.NewSession(in, sink)
	if err != nil {
		return Result{}, err
	}
	for {
		more, err := s.Step()
		if err != nil {
			return s.res, err
		}
		if !more {
			break
		}
	}
	return s.Finish()
}

// Convert runs in and returns the output samples.
func (p *Processor) Convert(in Input) ([]float64, Result, error) {
	var buf BufferSink
	res, err := p.Run(in, &buf)
	return buf.Samples, res, err
}

// Session is one conversion in progress.
type Session struct {
	p      *Processor
	in     Input
	frames []frame
	target int

	state State
	st    FrameState
	acc   *accumulator
	out   *blockWriter
	buf   []float64

	windows map[int][]float64
	labels  map[string][]int
	res     Result
	log     logrus.FieldLogger
}

// NewSession frames in and prepares a session in the Idle state.
func (p *Processor) NewSession(in Input, sink Sink) (*Session, error) {
	frames, total, err := layout(in, p.cfg)
	if err != nil {
		return nil, err
	}
	if p.cfg.VocalTractTransformation {
		if fs := p.mapper.Codebook().Header.SamplingRate; fs != in.SamplingRate {
			return nil, &mapper.ConfigurationError{
				Reason: fmt.Sprintf("input sampling rate %d does not match codebook rate %d", in.SamplingRate, fs),
			}
		}
	}

	maxLen := 0
	for _, f := range frames {
		if f.length > maxLen {
			maxLen = f.length
		}
	}
	capacity := int(math.Round(float64(evenSize(maxLen))/prosody.MinPitchScale)) + 4

	target := int(math.Round(total))
	s := &Session{
		p:       p,
		in:      in,
		frames:  frames,
		target:  target,
		acc:     newAccumulator(capacity),
		out:     newBlockWriter(sink, p.cfg.BlockSize, target),
		windows: make(map[int][]float64),
		labels:  make(map[string][]int),
		log: p.log.WithFields(logrus.Fields{
			"frames": len(frames),
			"input":  len(in.Samples),
			"output": target,
		}),
	}
	return s, nil
}

// State returns the session lifecycle state.
func (s *Session) State() State { return s.state }

// FrameState returns the state carried into the next frame.
func (s *Session) FrameState() FrameState { return s.st }

// Step processes the next analysis frame. It reports whether frames
// remain.
func (s *Session) Step() (bool, error) {
	switch s.state {
	case Flush, Done:
		return false, ErrSessionDone
	case Idle:
		s.state = Processing
		s.log.WithFields(logrus.Fields{
			"function": "Step",
		}).Debug("Processing frames")
	}
	if s.st.Index >= len(s.frames) {
		return false, nil
	}
	st, err := s.processFrame(s.st, s.frames[s.st.Index])
	if err != nil {
		return false, err
	}
	s.st = st
	return s.st.Index < len(s.frames), nil
}

// Finish processes any remaining frames, flushes the overlap-add ring up
// to the output length and closes the output.
func (s *Session) Finish() (Result, error) {
	if s.state == Flush || s.state == Done {
		return s.res, ErrSessionDone
	}
	for s.st.Index < len(s.frames) {
		if _, err := s.Step(); err != nil {
			return s.res, err
		}
	}
	s.state = Flush

	if rest := s.target - s.st.SynthPos; rest > 0 {
		s.buf = s.acc.flush(s.buf[:0], s.st.WriteIdx, rest)
		if err := s.out.write(s.buf); err != nil {
			return s.res, err
		}
	}
	if err := s.out.pad(); err != nil {
		return s.res, err
	}
	if err := s.out.close(); err != nil {
		return s.res, err
	}
	s.state = Done
	s.res.Length = s.out.written

	s.log.WithFields(logrus.Fields{
		"function":    "Finish",
		"skipped":     s.res.Skipped,
		"repeated":    s.res.Repeated,
		"transformed": s.res.Transformed,
		"queries":     s.res.Queries,
	}).Debug("Conversion finished")
	return s.res, nil
}

func (s *Session) processFrame(st FrameState, f frame) (FrameState, error) {
	cfg := s.p.cfg
	pscale, tscale, escale, vscale := s.scales(f)

	frmSize := evenSize(f.length)
	newFrmSize := frmSize
	unit := f.hop
	if f.voiced {
		newFrmSize = evenSize(int(math.Round(float64(frmSize) / pscale)))
		if !cfg.FixedRate {
			unit = int(math.Round(float64(f.hop) / pscale))
		}
	}
	if unit < 1 {
		unit = 1
	}

	var count int
	if f.last {
		count = finalRepeats(st.SynthPos, newFrmSize, unit, s.target)
		st.Residual = float64(s.target - st.SynthPos - (count+1)*unit)
	} else {
		st, count = PlanDuration(st, float64(f.hop)*tscale, float64(unit), cfg.DurationThreshold)
	}
	st.Index++
	st.InputPos = f.start
	s.res.Frames++

	if count < 0 {
		s.res.Skipped++
		s.log.WithFields(logrus.Fields{
			"function": "processFrame",
			"frame":    f.index,
			"residual": st.Residual,
		}).Trace("Skipping frame")
		return st, nil
	}
	s.res.Repeated += count

	frmy, win, err := s.synthesize(f, frmSize, newFrmSize, pscale, escale, vscale)
	if err != nil {
		return st, fmt.Errorf("frame %d: %w", f.index, err)
	}

	var rev []float64
	for j := 0; j <= count; j++ {
		y := frmy
		if !f.voiced && j%2 == 1 {
			if rev == nil {
				rev = reversed(frmy)
			}
			y = rev
		}
		s.acc.add(y, win, st.WriteIdx, st.Emitted == 0, f.last && j == count)
		st.Emitted++

		s.buf = s.acc.flush(s.buf[:0], st.WriteIdx, unit)
		if err := s.out.write(s.buf); err != nil {
			return st, err
		}
		st.WriteIdx = (st.WriteIdx + unit) % s.acc.capacity()
		st.SynthPos += unit
	}
	return st, nil
}

// scales evaluates the modification tracks at the frame centre.
func (s *Session) scales(f frame) (pscale, tscale, escale, vscale float64) {
	sc := s.p.cfg.Scales
	pscale = 1
	if f.voiced {
		pscale = sc.Pitch.At(f.time)
		if s.p.cfg.PitchFromStatistics && s.p.pitch.Valid() && f.f0 > 0 {
			pscale *= s.p.pitch.Scale(f.f0)
		}
	}
	return prosody.ClampPitch(pscale),
		prosody.ClampTime(sc.Time.At(f.time)),
		prosody.ClampEnergy(sc.Energy.At(f.time)),
		prosody.ClampVocalTract(sc.VocalTract.At(f.time))
}

// synthesize returns the output frame of newFrmSize samples and the
// synthesis window to overlap it with.
func (s *Session) synthesize(f frame, frmSize, newFrmSize int, pscale, escale, vscale float64) ([]float64, []float64, error) {
	cfg := s.p.cfg
	fs := s.in.SamplingRate

	frm := make([]float64, frmSize)
	end := f.start + frmSize
	if end > len(s.in.Samples) {
		end = len(s.in.Samples)
	}
	copy(frm, s.in.Samples[f.start:end])
	win := s.window(frmSize)
	for i := range frm {
		frm[i] *= win[i]
	}
	outWin := s.window(newFrmSize)

	frmEn := lsf.Energy(frm)
	if frmEn == 0 {
		return make([]float64, newFrmSize), outWin, nil
	}

	spectral := newFrmSize != frmSize || vscale != 1 ||
		(f.voiced && (pscale != 1 || cfg.VocalTractTransformation)) ||
		(!f.voiced && cfg.TransformUnvoiced)
	if !spectral {
		for i := range frm {
			frm[i] *= escale
		}
		return frm, outWin, nil
	}
	s.res.Transformed++

	pre := lsf.Preemphasis(frm, cfg.PreCoef)
	coeffs := lsf.Analyze(pre, cfg.LPOrder)
	ext := s.envelopeAt(f.index)
	var inSpec []float64
	if ext != nil {
		inSpec = lsf.SpectrumFromHz(ext, fs, coeffs.Gain, frmSize)
	} else {
		inSpec = lsf.Spectrum(coeffs.A, coeffs.Gain, frmSize)
	}

	match, err := s.query(f, coeffs, ext)
	if err != nil {
		return nil, nil, err
	}

	dft := s.p.fft.Forward(pre)
	res := make([]complex128, len(inSpec))
	for k := range res {
		res[k] = dft[k] / complex(math.Max(inSpec[k], minEnvelope), 0)
	}

	newBins := envelope.Bins(newFrmSize)
	base := envelope.Interpolate(inSpec, newBins)
	outEnv := base
	if !match.Empty() {
		dest := match.Mapped()
		if cfg.ResynthesizeFromSource {
			dest = match.Matched()
		}
		target := envelope.FromLsf(dest, fs, coeffs.Gain, newFrmSize)
		source := base
		if cfg.SourceEnvelopeFromModel {
			source = envelope.FromLsf(match.Matched(), fs, coeffs.Gain, newFrmSize)
		}
		outEnv = envelope.Multiply(base, envelope.GainCurve(target, source))
	}
	if vscale != 1 {
		outEnv = envelope.Warp(outEnv, vscale)
	}

	folded := foldSpectrum(res, newFrmSize)
	for k := range folded {
		folded[k] *= complex(outEnv[k], 0)
	}
	frmy := lsf.RemovePreemphasis(s.p.fft.Inverse(hermitian(folded, newFrmSize)), cfg.PreCoef)

	gain := escale
	if en := lsf.Energy(frmy); en > 0 {
		gain *= (frmEn / math.Sqrt(float64(frmSize))) / (en / math.Sqrt(float64(newFrmSize)))
	}
	for i := range frmy {
		frmy[i] *= gain
	}
	return frmy, outWin, nil
}

// query looks up the codebook for a transformed frame. The match is empty
// when vocal tract transformation does not apply to the frame.
func (s *Session) query(f frame, c lsf.Coeffs, ext []float64) (mapper.Match, error) {
	cfg := s.p.cfg
	if !cfg.VocalTractTransformation || (!f.voiced && !cfg.TransformUnvoiced) {
		return mapper.Match{}, nil
	}
	q := ext
	if q == nil {
		var err error
		q, err = lsf.HzFromLpc(c.A, s.in.SamplingRate)
		if err != nil {
			if !errors.Is(err, lsf.ErrRootsNotFound) {
				return mapper.Match{}, err
			}
			s.log.WithFields(logrus.Fields{
				"function": "query",
				"frame":    f.index,
			}).Debug("LSF search failed, using evenly spaced frequencies")
		}
	}
	var candidates []int
	if cfg.PreselectLabels {
		candidates = s.candidates(s.labelOf(f))
	}
	s.res.Queries++
	return s.p.mapper.Query(q, candidates)
}

// labelOf returns the phonetic label of a frame, from the per-frame
// labels or else the segment containing the frame centre.
func (s *Session) labelOf(f frame) string {
	if f.index < len(s.in.Labels) {
		return s.in.Labels[f.index]
	}
	i := sort.Search(len(s.in.Segments), func(i int) bool { return s.in.Segments[i].End > f.time })
	if i < len(s.in.Segments) {
		return s.in.Segments[i].Label
	}
	return ""
}

// candidates returns the preselected entries for a label, nil for every
// entry.
func (s *Session) candidates(label string) []int {
	if label == "" {
		return nil
	}
	if c, ok := s.labels[label]; ok {
		return c
	}
	p := s.p.mapper.Params()
	c := mapper.Preselect(s.p.mapper.Codebook(), label, p.MatchTarget, s.p.cfg.PreselectMinimum)
	s.labels[label] = c
	return c
}

func (s *Session) envelopeAt(i int) []float64 {
	if i < len(s.in.Envelopes) {
		return s.in.Envelopes[i]
	}
	return nil
}

// window returns the cached Hann window of length n.
func (s *Session) window(n int) []float64 {
	if w, ok := s.windows[n]; ok {
		return w
	}
	w := window.Hann(n)
	s.windows[n] = w
	return w
}

func reversed(x []float64) []float64 {
	y := make([]float64, len(x))
	for i, v := range x {
		y[len(x)-1-i] = v
	}
	return y
}
