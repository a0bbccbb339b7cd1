package fdpsola

import "math"

// State is the lifecycle of a Session.
type State int

const (
	Idle State = iota
	Processing
	Flush
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	case Flush:
		return "flush"
	case Done:
		return "done"
	}
	return "unknown"
}

// FrameState is the only state carried from one frame to the next. It
// belongs to a single session.
type FrameState struct {
	// Index is the next input frame.
	Index int
	// Residual is the desired minus the synthesised output position in
	// samples, carried into the next frame's duration decision.
	Residual float64
	// SynthPos is the output sample where the next synthesis frame starts.
	SynthPos int
	// WriteIdx is the overlap-add ring position of SynthPos.
	WriteIdx int
	// Emitted counts synthesis frames added to the ring.
	Emitted int
	// InputPos is the input sample where the last processed frame started.
	InputPos int
}

// PlanDuration decides how often a frame is synthesised. desired is the
// output advance the time scale asks for, unit the advance of one
// synthesis pass. It returns -1 to skip the frame, 0 to synthesise it
// once, or the number of extra repetitions, and the state with the new
// residual. Residuals within threshold*unit are carried, never dropped.
func PlanDuration(st FrameState, desired, unit, threshold float64) (FrameState, int) {
	diff := st.Residual + desired - unit
	count := 0
	if diff < -threshold*unit {
		count = -1
		diff += unit
	} else {
		for diff > threshold*unit {
			count++
			diff -= unit
		}
	}
	st.Residual = diff
	return st, count
}

// finalRepeats returns the repetitions the last frame needs so that its
// last pass, starting at synthPos+count*unit and frameLen long, ends less
// than one unit short of target. The last frame is never skipped.
func finalRepeats(synthPos, frameLen, unit, target int) int {
	short := target - synthPos - frameLen
	if short <= 0 || unit <= 0 {
		return 0
	}
	return int(math.Floor(float64(short) / float64(unit)))
}
