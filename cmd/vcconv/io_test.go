package main

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blues/voxconv/fdpsola"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWavRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	x := make([]float64, 800)
	for i := range x {
		x[i] = 0.5 * math.Sin(2*math.Pi*200*float64(i)/8000)
	}
	require.NoError(t, writeWav(path, x, 8000))

	y, fs, err := readWav(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, fs)
	require.Len(t, y, len(x))
	assert.InDeltaSlice(t, x, y, 1e-4)
}

func TestReadWavRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a riff file at all"), 0o644))
	_, _, err := readWav(path)
	assert.Error(t, err)
}

func TestReadSegments(t *testing.T) {
	segs, err := readSegments(strings.NewReader("0.10 sil\n0.25 a\n# comment\n0.40 t\n"))
	require.NoError(t, err)
	assert.Equal(t, []fdpsola.Segment{{End: 0.1, Label: "sil"}, {End: 0.25, Label: "a"}, {End: 0.4, Label: "t"}}, segs)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing_label", body: "0.1\n"},
		{name: "bad_time", body: "x a\n"},
		{name: "out_of_order", body: "0.2 a\n0.1 b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readSegments(strings.NewReader(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestSidecar(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "utt.wav")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "utt.f0"), []byte("100\n"), 0o644))

	assert.Equal(t, filepath.Join(dir, "utt.f0"), sidecar(in, ".f0"))
	assert.Equal(t, "", sidecar(in, ".lab"))
	assert.Equal(t, "", sidecar(in, ""))
}
