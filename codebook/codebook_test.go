package codebook

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testHeader(order, labelWidth int) Header {
	return Header{
		Granularity:          Frames,
		LabelWidth:           labelWidth,
		SamplingRate:         16000,
		LPOrder:              order,
		PreCoef:              0.97,
		WindowSize:           0.02,
		SkipSize:             0.01,
		NeighboursFrameGroup: 3,
		NeighboursLabelGroup: 1,
		SourcePitch:          PitchStatistics{Mean: 120, StdDev: 20, Min: 80, Max: 200},
		TargetPitch:          PitchStatistics{Mean: 210, StdDev: 35, Min: 150, Max: 320},
	}
}

func testEntry(order, i int) Entry {
	e := Entry{Source: make([]float64, order), Target: make([]float64, order)}
	for k := 0; k < order; k++ {
		e.Source[k] = float64(k+1)*300 + float64(i)*0.125
		e.Target[k] = float64(k+1)*310 - float64(i)*0.0625
	}
	return e
}

func buildCodebook(t *testing.T, n, order, labelWidth int) *Codebook {
	t.Helper()
	cb := New(testHeader(order, labelWidth))
	for i := 0; i < n; i++ {
		e := testEntry(order, i)
		if labelWidth > 0 {
			e.SourceLabel = "a"
			e.TargetLabel = "oi"
		}
		require.NoError(t, cb.Add(e))
	}
	return cb
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		labelWidth int
	}{
		{name: "empty", n: 0},
		{name: "single_entry", n: 1},
		{name: "thousand_entries", n: 1000},
		{name: "labeled_entries", n: 5, labelWidth: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := buildCodebook(t, tt.n, 10, tt.labelWidth)
			path := filepath.Join(t.TempDir(), "cb.vcb")
			require.NoError(t, Save(path, cb))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.n, got.Header.Count)
			assert.Equal(t, tt.n, got.Len())
			assert.Equal(t, cb.Header, got.Header)
			for i := range cb.Entries {
				assert.Equal(t, cb.Entries[i], got.Entries[i])
			}

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, int64(HeaderSize+tt.n*cb.Header.EntrySize()+TrailerSize), info.Size())
		})
	}
}

func TestRoundTripBitIdentical(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		order := 2 * rapid.IntRange(1, 12).Draw(rt, "half_order")
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		cb := New(testHeader(order, 0))
		for i := 0; i < n; i++ {
			e := Entry{
				Source: rapid.SliceOfN(rapid.Float64(), order, order).Draw(rt, "source"),
				Target: rapid.SliceOfN(rapid.Float64(), order, order).Draw(rt, "target"),
			}
			if err := cb.Add(e); err != nil {
				rt.Fatal(err)
			}
		}
		var buf bytes.Buffer
		if err := Write(&buf, cb); err != nil {
			rt.Fatal(err)
		}
		got, err := Read(bytes.NewReader(buf.Bytes()))
		if err != nil {
			rt.Fatal(err)
		}
		if got.Len() != n {
			rt.Fatalf("got %d entries, want %d", got.Len(), n)
		}
		for i := range cb.Entries {
			for k := 0; k < order; k++ {
				if math.Float64bits(got.Entries[i].Source[k]) != math.Float64bits(cb.Entries[i].Source[k]) ||
					math.Float64bits(got.Entries[i].Target[k]) != math.Float64bits(cb.Entries[i].Target[k]) {
					rt.Fatalf("entry %d coefficient %d differs", i, k)
				}
			}
		}
	})
}

func TestReadFormatErrors(t *testing.T) {
	var good bytes.Buffer
	require.NoError(t, Write(&good, buildCodebook(t, 3, 4, 0)))
	entrySize := testHeader(4, 0).EntrySize()

	tests := []struct {
		name   string
		mutate func(b []byte) []byte
	}{
		{
			name:   "too_short",
			mutate: func(b []byte) []byte { return b[:HeaderSize] },
		},
		{
			name: "truncated_mid_entry",
			mutate: func(b []byte) []byte {
				// drop half an entry but keep a trailer claiming 3
				out := append([]byte{}, b[:HeaderSize+2*entrySize+entrySize/2]...)
				return append(out, encodeTrailer(3)...)
			},
		},
		{
			name: "trailer_disagrees_with_header",
			mutate: func(b []byte) []byte {
				le.PutUint32(b[len(b)-TrailerSize:], 2)
				return b
			},
		},
		{
			name: "bad_magic",
			mutate: func(b []byte) []byte {
				b[0] = 'X'
				return b
			},
		},
		{
			name: "zero_lp_order",
			mutate: func(b []byte) []byte {
				le.PutUint32(b[12:], 0)
				return b
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte{}, good.Bytes()...))
			_, err := Read(bytes.NewReader(data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat), "got %v", err)
			var fe *FormatError
			assert.True(t, errors.As(err, &fe))
		})
	}
}

func TestReadHeaderOneBehindTrailer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, buildCodebook(t, 3, 4, 0)))
	data := buf.Bytes()
	le.PutUint32(data[countOffset:], 2)

	cb, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 3, cb.Len())
	assert.Equal(t, 3, cb.Header.Count)

	// one behind but the file only holds two entries
	short := append([]byte{}, data[:HeaderSize+2*testHeader(4, 0).EntrySize()]...)
	short = append(short, encodeTrailer(3)...)
	_, err = Read(bytes.NewReader(short))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestLoadSetsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.vcb")
	require.NoError(t, os.WriteFile(path, []byte("VCB"), 0o644))
	_, err := Load(path)
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, path, fe.Path)
	assert.Contains(t, err.Error(), path)
}

func TestWriterPrefixesAreValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.vcb")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	h := testHeader(6, 2)
	w, err := NewWriter(f, h)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		cb, err := Load(path)
		require.NoError(t, err, "prefix of %d entries", i)
		assert.Equal(t, i, cb.Len())

		e := testEntry(6, i)
		e.SourceLabel = "i"
		require.NoError(t, w.Append(e))
	}
	require.NoError(t, w.SetPitchStatistics(PitchStatistics{Mean: 1}, PitchStatistics{Mean: 2}))

	cb, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cb.Len())
	assert.Equal(t, 4, w.Count())
	assert.Equal(t, "i", cb.Entries[3].SourceLabel)
	assert.Equal(t, "", cb.Entries[3].TargetLabel)
	assert.Equal(t, 1.0, cb.Header.SourcePitch.Mean)
	assert.Equal(t, 2.0, cb.Header.TargetPitch.Mean)
}

func TestAddRejectsBadEntries(t *testing.T) {
	cb := New(testHeader(4, 1))
	err := cb.Add(Entry{Source: make([]float64, 3), Target: make([]float64, 4)})
	assert.ErrorIs(t, err, ErrEntryOrder)

	e := testEntry(4, 0)
	e.TargetLabel = "ai"
	assert.ErrorIs(t, cb.Add(e), ErrLabelTooLong)
	assert.Equal(t, 0, cb.Len())
}

func TestGranularity(t *testing.T) {
	for g := Frames; g <= Speech; g++ {
		parsed, err := ParseGranularity(g.String())
		require.NoError(t, err)
		assert.Equal(t, g, parsed)
	}
	_, err := ParseGranularity("words")
	assert.ErrorIs(t, err, ErrInvalidHeader)
	assert.False(t, Granularity(9).Valid())
}

func TestComputePitchStatistics(t *testing.T) {
	p := ComputePitchStatistics([]float64{0, 100, 0, 200, 300, -1})
	assert.InDelta(t, 200.0, p.Mean, 1e-9)
	assert.InDelta(t, 100.0, p.StdDev, 1e-9)
	assert.Equal(t, 100.0, p.Min)
	assert.Equal(t, 300.0, p.Max)
	assert.True(t, p.Valid())

	assert.False(t, ComputePitchStatistics([]float64{0, 0}).Valid())
	single := ComputePitchStatistics([]float64{150})
	assert.Equal(t, 0.0, single.StdDev)
}
