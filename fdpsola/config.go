package fdpsola

import (
	"errors"
	"fmt"

	"github.com/blues/voxconv/prosody"
)

var (
	// ErrInvalidConfig indicates processor settings that cannot run.
	ErrInvalidConfig = errors.New("fdpsola: invalid configuration")
	// ErrInvalidInput indicates an input signal the processor cannot frame.
	ErrInvalidInput = errors.New("fdpsola: invalid input")
	// ErrSessionDone indicates a step on a finished session.
	ErrSessionDone = errors.New("fdpsola: session already finished")
)

// Scales are the per-frame modification factors, evaluated at frame
// centre times. Zero-value tracks mean no modification.
type Scales struct {
	Pitch      prosody.Track
	Time       prosody.Track
	Energy     prosody.Track
	VocalTract prosody.Track
}

// Config controls one Processor.
type Config struct {
	LPOrder int
	PreCoef float64

	// NumPeriods is the analysis frame length in pitch periods.
	NumPeriods int

	// FixedRate frames the signal on a WindowSize/SkipSize grid (seconds)
	// instead of pitch marks.
	FixedRate  bool
	WindowSize float64
	SkipSize   float64

	// VocalTractTransformation replaces the envelope of each transformed
	// frame by the codebook estimate.
	VocalTractTransformation bool
	// TransformUnvoiced sends unvoiced frames through the spectral path.
	TransformUnvoiced bool
	// SourceEnvelopeFromModel divides by the blended source envelope
	// rather than the measured input envelope.
	SourceEnvelopeFromModel bool
	// ResynthesizeFromSource substitutes the blended matched-side envelope.
	ResynthesizeFromSource bool

	// PreselectLabels restricts queries to entries with the frame label.
	PreselectLabels  bool
	PreselectMinimum int

	// PitchFromStatistics multiplies voiced pitch scales by the codebook's
	// speaker F0 mapping.
	PitchFromStatistics bool

	// DurationThreshold is the fraction of the output period the duration
	// residual may reach before a frame is skipped or repeated.
	DurationThreshold float64

	// BlockSize is the number of samples handed to the sink at a time.
	BlockSize int

	Scales Scales
}

// DefaultConfig returns the settings used by the command line tools.
func DefaultConfig() Config {
	return Config{
		LPOrder:                  18,
		PreCoef:                  0.97,
		NumPeriods:               2,
		WindowSize:               0.02,
		SkipSize:                 0.01,
		VocalTractTransformation: true,
		DurationThreshold:        0.1,
		BlockSize:                4096,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	switch {
	case c.LPOrder <= 0:
		return fmt.Errorf("%w: LP order %d", ErrInvalidConfig, c.LPOrder)
	case c.VocalTractTransformation && c.LPOrder%2 != 0:
		return fmt.Errorf("%w: LP order %d must be even for LSF matching", ErrInvalidConfig, c.LPOrder)
	case c.PreCoef < 0 || c.PreCoef >= 1:
		return fmt.Errorf("%w: pre-emphasis %v", ErrInvalidConfig, c.PreCoef)
	case !c.FixedRate && c.NumPeriods < 2:
		return fmt.Errorf("%w: %d periods per frame, need at least 2 to overlap", ErrInvalidConfig, c.NumPeriods)
	case c.FixedRate && (c.SkipSize <= 0 || c.WindowSize <= c.SkipSize):
		return fmt.Errorf("%w: window %vs must exceed skip %vs", ErrInvalidConfig, c.WindowSize, c.SkipSize)
	case c.DurationThreshold < 0 || c.DurationThreshold > 1:
		return fmt.Errorf("%w: duration threshold %v", ErrInvalidConfig, c.DurationThreshold)
	case c.BlockSize < 1:
		return fmt.Errorf("%w: block size %d", ErrInvalidConfig, c.BlockSize)
	case c.PreselectMinimum < 0:
		return fmt.Errorf("%w: preselect minimum %d", ErrInvalidConfig, c.PreselectMinimum)
	}
	return nil
}
