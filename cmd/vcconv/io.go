package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blues/voxconv/fdpsola"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// outputBitDepth is the PCM depth of converted files.
const outputBitDepth = 16

// readWav decodes a PCM WAV file to samples in [-1, 1]. Multichannel input
// is mixed down to mono.
func readWav(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a PCM WAV file", path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}

	chans := buf.Format.NumChannels
	if chans < 1 {
		chans = 1
	}
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = outputBitDepth
	}
	full := float64(int64(1) << uint(depth-1))
	n := len(buf.Data) / chans
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0
		for c := 0; c < chans; c++ {
			sum += buf.Data[i*chans+c]
		}
		x[i] = float64(sum) / float64(chans) / full
	}
	return x, buf.Format.SampleRate, nil
}

// writeWav encodes samples in [-1, 1] as 16-bit mono PCM.
func writeWav(path string, x []float64, fs int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	e := wav.NewEncoder(f, fs, outputBitDepth, 1, 1)
	full := float64(int(1)<<(outputBitDepth-1) - 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: fs},
		Data:           make([]int, len(x)),
		SourceBitDepth: outputBitDepth,
	}
	for i, v := range x {
		buf.Data[i] = int(v * full)
	}
	if err := e.Write(buf); err != nil {
		f.Close()
		return err
	}
	if err := e.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readSegments parses "end_seconds label" lines into label segments.
func readSegments(r io.Reader) ([]fdpsola.Segment, error) {
	var segs []fdpsola.Segment
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: want \"end label\"", line)
		}
		end, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if n := len(segs); n > 0 && end <= segs[n-1].End {
			return nil, fmt.Errorf("line %d: segment ends at %v, before previous %v", line, end, segs[n-1].End)
		}
		segs = append(segs, fdpsola.Segment{End: end, Label: fields[1]})
	}
	return segs, sc.Err()
}

// sidecar returns path with its extension replaced by ext, or "" when ext
// is empty or the file does not exist.
func sidecar(path, ext string) string {
	if ext == "" {
		return ""
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))
	p := base + ext
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}
