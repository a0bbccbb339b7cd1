package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blues/voxconv/codebook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRows(t *testing.T) {
	var got []codebook.Entry
	add := func(e codebook.Entry) error {
		got = append(got, e)
		return nil
	}
	body := "# src src tgt tgt lab lab\n100 200 110 220 a b\n\n300 400 330 440 c d\n"
	require.NoError(t, parseRows(strings.NewReader(body), 2, true, add))
	assert.Equal(t, []codebook.Entry{
		{Source: []float64{100, 200}, Target: []float64{110, 220}, SourceLabel: "a", TargetLabel: "b"},
		{Source: []float64{300, 400}, Target: []float64{330, 440}, SourceLabel: "c", TargetLabel: "d"},
	}, got)

	tests := []struct {
		name    string
		body    string
		labeled bool
	}{
		{name: "short_row", body: "100 200 110\n"},
		{name: "labels_missing", body: "100 200 110 220\n", labeled: true},
		{name: "not_a_number", body: "100 x 110 220\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseRows(strings.NewReader(tt.body), 2, tt.labeled, add)
			assert.ErrorContains(t, err, "line 1")
		})
	}
}

func TestBuildDumpRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a2b.vcb")
	f, err := os.Create(path)
	require.NoError(t, err)
	h := codebook.Header{Granularity: codebook.Labels, LabelWidth: 2, SamplingRate: 16000, LPOrder: 2}
	w, err := codebook.NewWriter(f, h)
	require.NoError(t, err)

	rows := "100 200.5 110 220 a b\n300 400 330 440 cc d\n"
	require.NoError(t, parseRows(strings.NewReader(rows), 2, true, w.Append))
	require.NoError(t, f.Close())

	cb, err := codebook.Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cb.Len())

	var out bytes.Buffer
	require.NoError(t, writeRows(&out, cb))
	assert.Equal(t, "100 200.5 110 220 a b\n300 400 330 440 cc d\n", out.String())

	var hdr bytes.Buffer
	writeInfo(&hdr, cb.Header)
	assert.Contains(t, hdr.String(), "entries:          2")
	assert.Contains(t, hdr.String(), "source F0:        none")
}

func TestWriteRowsUnlabeled(t *testing.T) {
	cb := codebook.New(codebook.Header{SamplingRate: 8000, LPOrder: 1})
	require.NoError(t, cb.Add(codebook.Entry{Source: []float64{1000}, Target: []float64{1200}}))
	var out bytes.Buffer
	require.NoError(t, writeRows(&out, cb))
	assert.Equal(t, "1000 1200\n", out.String())
}
