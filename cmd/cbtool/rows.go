package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/blues/voxconv/codebook"
)

// parseRows reads one entry per line: order source LSFs (Hz), order target
// LSFs (Hz) and, when labeled, the source and target labels. Blank lines
// and # comments are skipped. Each entry is passed to add.
func parseRows(r io.Reader, order int, labeled bool, add func(codebook.Entry) error) error {
	want := 2 * order
	if labeled {
		want += 2
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) != want {
			return fmt.Errorf("line %d: %d fields, want %d", line, len(fields), want)
		}
		vals := make([]float64, 2*order)
		for i := range vals {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			vals[i] = v
		}
		e := codebook.Entry{Source: vals[:order], Target: vals[order:]}
		if labeled {
			e.SourceLabel, e.TargetLabel = fields[2*order], fields[2*order+1]
		}
		if err := add(e); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}

// writeRows prints entries in the format parseRows reads.
func writeRows(w io.Writer, cb *codebook.Codebook) error {
	bw := bufio.NewWriter(w)
	fields := make([]string, 0, 2*cb.Header.LPOrder+2)
	for _, e := range cb.Entries {
		fields = fields[:0]
		for _, side := range [][]float64{e.Source, e.Target} {
			for _, v := range side {
				fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		if cb.Header.LabelWidth > 0 {
			fields = append(fields, e.SourceLabel, e.TargetLabel)
		}
		bw.WriteString(strings.Join(fields, " "))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// writeInfo prints the header.
func writeInfo(w io.Writer, h codebook.Header) {
	fmt.Fprintf(w, "granularity:      %s\n", h.Granularity)
	fmt.Fprintf(w, "entries:          %d\n", h.Count)
	fmt.Fprintf(w, "sampling rate:    %d Hz\n", h.SamplingRate)
	fmt.Fprintf(w, "LP order:         %d\n", h.LPOrder)
	fmt.Fprintf(w, "pre-emphasis:     %g\n", h.PreCoef)
	fmt.Fprintf(w, "window/skip:      %g s / %g s\n", h.WindowSize, h.SkipSize)
	fmt.Fprintf(w, "label width:      %d\n", h.LabelWidth)
	fmt.Fprintf(w, "neighbours:       %d frame group, %d label group\n", h.NeighboursFrameGroup, h.NeighboursLabelGroup)
	for _, s := range []struct {
		name  string
		stats codebook.PitchStatistics
	}{{"source", h.SourcePitch}, {"target", h.TargetPitch}} {
		if !s.stats.Valid() {
			fmt.Fprintf(w, "%s F0:        none\n", s.name)
			continue
		}
		fmt.Fprintf(w, "%s F0:        mean %.1f std %.1f range %.1f-%.1f Hz\n",
			s.name, s.stats.Mean, s.stats.StdDev, s.stats.Min, s.stats.Max)
	}
}
