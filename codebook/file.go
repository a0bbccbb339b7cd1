package codebook

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Load reads a codebook file. The trailing entry count is read first and
// must agree with the header count and the file size.
func Load(path string) (*Codebook, error) {
	logrus.WithFields(logrus.Fields{
		"function": "Load",
		"path":     path,
	}).Debug("Loading codebook")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open codebook: %w", err)
	}
	defer f.Close()

	cb, err := Read(f)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"path":     path,
			"error":    err.Error(),
		}).Error("Codebook load failed")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Load",
		"path":        path,
		"entries":     cb.Len(),
		"lp_order":    cb.Header.LPOrder,
		"fs":          cb.Header.SamplingRate,
		"granularity": cb.Header.Granularity.String(),
	}).Info("Codebook loaded")
	return cb, nil
}

// Read decodes a codebook from a seekable stream positioned anywhere.
func Read(r io.ReadSeeker) (*Codebook, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek codebook end: %w", err)
	}
	if size < HeaderSize+TrailerSize {
		return nil, formatError(size, "file too short: %d bytes", size)
	}

	if _, err := r.Seek(size-TrailerSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek codebook trailer: %w", err)
	}
	trailer := make([]byte, TrailerSize)
	if _, err := io.ReadFull(r, trailer); err != nil {
		return nil, formatError(size-TrailerSize, "read trailer: %v", err)
	}
	n := int64(le.Uint32(trailer))

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek codebook start: %w", err)
	}
	br := bufio.NewReader(r)
	hbuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(br, hbuf); err != nil {
		return nil, formatError(0, "read header: %v", err)
	}
	h, ferr := decodeHeader(hbuf)
	if ferr != nil {
		return nil, ferr
	}
	// a header one behind the trailer is an Append stopped before its
	// header patch; the trailer and the file size decide
	if n > 0 && int64(h.Count) == n-1 {
		h.Count = int(n)
	}
	if int64(h.Count) != n {
		return nil, formatError(countOffset, "header count %d disagrees with trailing count %d", h.Count, n)
	}
	entrySize := int64(h.EntrySize())
	if want := HeaderSize + n*entrySize + TrailerSize; size != want {
		return nil, formatError(size, "size %d does not hold %d entries of %d bytes (want %d)", size, n, entrySize, want)
	}

	cb := &Codebook{Header: h, Entries: make([]Entry, 0, n)}
	ebuf := make([]byte, entrySize)
	for i := int64(0); i < n; i++ {
		if _, err := io.ReadFull(br, ebuf); err != nil {
			return nil, formatError(HeaderSize+i*entrySize, "read entry %d: %v", i, err)
		}
		cb.Entries = append(cb.Entries, decodeEntry(ebuf, h))
	}
	return cb, nil
}

// Write encodes cb sequentially: header, entries, trailing count.
func Write(w io.Writer, cb *Codebook) error {
	h := cb.Header
	h.Count = len(cb.Entries)
	if err := h.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(encodeHeader(h)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	buf := make([]byte, 0, h.EntrySize())
	for i, e := range cb.Entries {
		if err := h.checkEntry(e); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if _, err := bw.Write(encodeEntry(buf[:0], h, e)); err != nil {
			return fmt.Errorf("write entry %d: %w", i, err)
		}
	}
	if _, err := bw.Write(encodeTrailer(h.Count)); err != nil {
		return fmt.Errorf("write trailer: %w", err)
	}
	return bw.Flush()
}

// Save writes cb to path through a Writer, so the file is a valid codebook
// after every entry.
func Save(path string, cb *Codebook) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create codebook: %w", err)
	}
	w, err := NewWriter(f, cb.Header)
	if err != nil {
		f.Close()
		return err
	}
	for i, e := range cb.Entries {
		if err := w.Append(e); err != nil {
			f.Close()
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "Save",
		"path":     path,
		"entries":  w.Count(),
	}).Info("Codebook saved")
	return f.Close()
}
