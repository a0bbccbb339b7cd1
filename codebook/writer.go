package codebook

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Writer appends entries to a codebook stream during training. After each
// Append the stream holds a complete codebook: header count and trailing
// count both reflect the entries written so far.
type Writer struct {
	w      io.WriteSeeker
	header Header
	count  int
	buf    []byte
}

// NewWriter writes an empty codebook with header h to w.
func NewWriter(w io.WriteSeeker, h Header) (*Writer, error) {
	h.Count = 0
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek codebook start: %w", err)
	}
	if _, err := w.Write(encodeHeader(h)); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(encodeTrailer(0)); err != nil {
		return nil, fmt.Errorf("write trailer: %w", err)
	}
	return &Writer{w: w, header: h, buf: make([]byte, 0, h.EntrySize()+TrailerSize)}, nil
}

// Append writes e over the old trailer, writes the new trailer, then
// patches the header count. Read accepts the state between the last two
// steps; a torn entry write leaves a file Read rejects.
func (w *Writer) Append(e Entry) error {
	if err := w.header.checkEntry(e); err != nil {
		return err
	}
	off := int64(HeaderSize + w.count*w.header.EntrySize())
	if _, err := w.w.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("seek entry %d: %w", w.count, err)
	}
	w.buf = encodeEntry(w.buf[:0], w.header, e)
	w.buf = append(w.buf, encodeTrailer(w.count+1)...)
	if _, err := w.w.Write(w.buf); err != nil {
		return fmt.Errorf("write entry %d: %w", w.count, err)
	}
	w.count++
	w.header.Count = w.count
	if err := w.patch(countOffset, encodeTrailer(w.count)); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function": "Writer.Append",
		"entries":  w.count,
	}).Debug("Codebook entry appended")
	return nil
}

// SetPitchStatistics rewrites the pitch statistics block of the header.
func (w *Writer) SetPitchStatistics(src, tgt PitchStatistics) error {
	w.header.SourcePitch = src
	w.header.TargetPitch = tgt
	return w.patch(statsOffset, encodeStats(src, tgt))
}

// Count returns the number of entries written.
func (w *Writer) Count() int { return w.count }

// Header returns the header as currently written.
func (w *Writer) Header() Header { return w.header }

func (w *Writer) patch(off int64, data []byte) error {
	if _, err := w.w.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("seek header: %w", err)
	}
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("patch header: %w", err)
	}
	return nil
}
