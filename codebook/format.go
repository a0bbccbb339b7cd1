package codebook

import (
	"bytes"
	"encoding/binary"
	"math"
)

// File header constants
var (
	MagicByte1   = byte('V')
	MagicByte2   = byte('C')
	MagicByte3   = byte('B')
	VersionMajor = byte(0x01)
	VersionMinor = byte(0x00)
)

var Magic = []byte{MagicByte1, MagicByte2, MagicByte3}

const (
	// HeaderSize is the fixed size of the encoded header.
	HeaderSize = 116
	// TrailerSize is the size of the authoritative trailing entry count.
	TrailerSize = 4

	countOffset = 48
	statsOffset = 52
)

var le = binary.LittleEndian

// IsCodebookHeader checks if the given bytes start with the codebook magic.
func IsCodebookHeader(data []byte) bool {
	if len(data) < len(Magic) {
		return false
	}
	return data[0] == MagicByte1 &&
		data[1] == MagicByte2 &&
		data[2] == MagicByte3
}

// encodeHeader lays out h in HeaderSize bytes.
func encodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf, Magic)
	buf[3] = VersionMajor
	buf[4] = VersionMinor
	buf[5] = byte(h.Granularity)
	buf[6] = byte(h.LabelWidth)
	buf[7] = 0 // reserved
	le.PutUint32(buf[8:], uint32(int32(h.SamplingRate)))
	le.PutUint32(buf[12:], uint32(int32(h.LPOrder)))
	le.PutUint64(buf[16:], math.Float64bits(h.PreCoef))
	le.PutUint64(buf[24:], math.Float64bits(h.WindowSize))
	le.PutUint64(buf[32:], math.Float64bits(h.SkipSize))
	le.PutUint32(buf[40:], uint32(int32(h.NeighboursFrameGroup)))
	le.PutUint32(buf[44:], uint32(int32(h.NeighboursLabelGroup)))
	le.PutUint32(buf[countOffset:], uint32(int32(h.Count)))
	copy(buf[statsOffset:], encodeStats(h.SourcePitch, h.TargetPitch))
	return buf
}

func encodeStats(src, tgt PitchStatistics) []byte {
	buf := make([]byte, 64)
	for i, v := range []float64{
		src.Mean, src.StdDev, src.Min, src.Max,
		tgt.Mean, tgt.StdDev, tgt.Min, tgt.Max,
	} {
		le.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeHeader parses a HeaderSize buffer.
func decodeHeader(buf []byte) (Header, *FormatError) {
	var h Header
	if !IsCodebookHeader(buf) {
		return h, formatError(0, "bad magic %q", buf[:3])
	}
	if buf[3] != VersionMajor {
		return h, formatError(3, "unsupported version %d.%d", buf[3], buf[4])
	}
	h.Granularity = Granularity(buf[5])
	h.LabelWidth = int(buf[6])
	h.SamplingRate = int(int32(le.Uint32(buf[8:])))
	h.LPOrder = int(int32(le.Uint32(buf[12:])))
	h.PreCoef = math.Float64frombits(le.Uint64(buf[16:]))
	h.WindowSize = math.Float64frombits(le.Uint64(buf[24:]))
	h.SkipSize = math.Float64frombits(le.Uint64(buf[32:]))
	h.NeighboursFrameGroup = int(int32(le.Uint32(buf[40:])))
	h.NeighboursLabelGroup = int(int32(le.Uint32(buf[44:])))
	h.Count = int(int32(le.Uint32(buf[countOffset:])))

	f := make([]float64, 8)
	for i := range f {
		f[i] = math.Float64frombits(le.Uint64(buf[statsOffset+i*8:]))
	}
	h.SourcePitch = PitchStatistics{Mean: f[0], StdDev: f[1], Min: f[2], Max: f[3]}
	h.TargetPitch = PitchStatistics{Mean: f[4], StdDev: f[5], Min: f[6], Max: f[7]}

	if err := h.Validate(); err != nil {
		return h, formatError(5, "%v", err)
	}
	return h, nil
}

// encodeEntry appends the encoded entry to dst.
func encodeEntry(dst []byte, h Header, e Entry) []byte {
	var b [8]byte
	for _, v := range e.Source {
		le.PutUint64(b[:], math.Float64bits(v))
		dst = append(dst, b[:]...)
	}
	for _, v := range e.Target {
		le.PutUint64(b[:], math.Float64bits(v))
		dst = append(dst, b[:]...)
	}
	if h.LabelWidth > 0 {
		dst = appendLabel(dst, e.SourceLabel, h.LabelWidth)
		dst = appendLabel(dst, e.TargetLabel, h.LabelWidth)
	}
	return dst
}

// appendLabel writes label NUL padded to width.
func appendLabel(dst []byte, label string, width int) []byte {
	field := make([]byte, width)
	copy(field, label)
	return append(dst, field...)
}

func decodeEntry(buf []byte, h Header) Entry {
	e := Entry{
		Source: make([]float64, h.LPOrder),
		Target: make([]float64, h.LPOrder),
	}
	off := 0
	for i := range e.Source {
		e.Source[i] = math.Float64frombits(le.Uint64(buf[off:]))
		off += 8
	}
	for i := range e.Target {
		e.Target[i] = math.Float64frombits(le.Uint64(buf[off:]))
		off += 8
	}
	if h.LabelWidth > 0 {
		e.SourceLabel = string(bytes.TrimRight(buf[off:off+h.LabelWidth], "\x00"))
		off += h.LabelWidth
		e.TargetLabel = string(bytes.TrimRight(buf[off:off+h.LabelWidth], "\x00"))
	}
	return e
}

func encodeTrailer(n int) []byte {
	buf := make([]byte, TrailerSize)
	le.PutUint32(buf, uint32(n))
	return buf
}
