// Package codebook holds trained tables of paired source/target spectral
// envelopes and their binary file format.
package codebook

import (
	"fmt"
	"strings"
)

// Granularity tells how the training frames were grouped into entries.
type Granularity uint8

const (
	Frames Granularity = iota
	FrameGroups
	Labels
	LabelGroups
	Speech
)

var granularityNames = []string{"frames", "frame_groups", "labels", "label_groups", "speech"}

func (g Granularity) String() string {
	if int(g) < len(granularityNames) {
		return granularityNames[g]
	}
	return fmt.Sprintf("granularity(%d)", uint8(g))
}

// Valid reports whether g is one of the known granularities.
func (g Granularity) Valid() bool { return int(g) < len(granularityNames) }

// ParseGranularity accepts the names printed by String.
func ParseGranularity(s string) (Granularity, error) {
	for i, n := range granularityNames {
		if strings.EqualFold(s, n) {
			return Granularity(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown granularity %q", ErrInvalidHeader, s)
}

// Header carries the analysis parameters shared by every entry.
type Header struct {
	Granularity          Granularity
	LabelWidth           int // bytes per label, 0 when entries are unlabeled
	SamplingRate         int
	LPOrder              int
	PreCoef              float64
	WindowSize           float64 // seconds
	SkipSize             float64 // seconds
	NeighboursFrameGroup int
	NeighboursLabelGroup int
	Count                int
	SourcePitch          PitchStatistics
	TargetPitch          PitchStatistics
}

// Validate checks the fields a reader depends on.
func (h Header) Validate() error {
	switch {
	case !h.Granularity.Valid():
		return fmt.Errorf("%w: granularity %d", ErrInvalidHeader, h.Granularity)
	case h.SamplingRate <= 0:
		return fmt.Errorf("%w: sampling rate %d", ErrInvalidHeader, h.SamplingRate)
	case h.LPOrder <= 0:
		return fmt.Errorf("%w: LP order %d", ErrInvalidHeader, h.LPOrder)
	case h.LabelWidth < 0 || h.LabelWidth > 255:
		return fmt.Errorf("%w: label width %d", ErrInvalidHeader, h.LabelWidth)
	case h.Count < 0:
		return fmt.Errorf("%w: entry count %d", ErrInvalidHeader, h.Count)
	}
	return nil
}

// EntrySize is the encoded size of one entry in bytes.
func (h Header) EntrySize() int {
	return 2*8*h.LPOrder + 2*h.LabelWidth
}

// Entry is one time-aligned (source, target) envelope pair in Hz.
type Entry struct {
	Source      []float64
	Target      []float64
	SourceLabel string
	TargetLabel string
}

// Side returns the target envelope when target is set, else the source one.
func (e Entry) Side(target bool) []float64 {
	if target {
		return e.Target
	}
	return e.Source
}

// Label returns the label of the requested side.
func (e Entry) Label(target bool) string {
	if target {
		return e.TargetLabel
	}
	return e.SourceLabel
}

// Codebook is a header plus its entries. A loaded codebook is read-only and
// may be shared between concurrent conversions.
type Codebook struct {
	Header  Header
	Entries []Entry
}

// New returns an empty codebook with the given header.
func New(h Header) *Codebook {
	h.Count = 0
	return &Codebook{Header: h}
}

// Len returns the number of entries.
func (cb *Codebook) Len() int { return len(cb.Entries) }

// Add appends an entry while the codebook is being built.
func (cb *Codebook) Add(e Entry) error {
	if err := cb.Header.checkEntry(e); err != nil {
		return err
	}
	cb.Entries = append(cb.Entries, e)
	cb.Header.Count = len(cb.Entries)
	return nil
}

func (h Header) checkEntry(e Entry) error {
	if len(e.Source) != h.LPOrder || len(e.Target) != h.LPOrder {
		return fmt.Errorf("%w: got %d/%d, want %d", ErrEntryOrder, len(e.Source), len(e.Target), h.LPOrder)
	}
	if len(e.SourceLabel) > h.LabelWidth || len(e.TargetLabel) > h.LabelWidth {
		return fmt.Errorf("%w: %q/%q exceeds %d bytes", ErrLabelTooLong, e.SourceLabel, e.TargetLabel, h.LabelWidth)
	}
	return nil
}
