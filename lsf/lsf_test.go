package lsf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLevinsonDurbin(t *testing.T) {
	a, e := LevinsonDurbin([]float64{1, 0.5, 0.25}, 2)
	require.Len(t, a, 3)
	assert.InDelta(t, 1.0, a[0], 1e-12)
	assert.InDelta(t, -0.5, a[1], 1e-12)
	assert.InDelta(t, 0.0, a[2], 1e-12)
	assert.InDelta(t, 0.75, e, 1e-12)
}

func TestAnalyzeSilentFrame(t *testing.T) {
	c := Analyze(make([]float64, 64), 10)
	require.Len(t, c.A, 11)
	assert.Equal(t, 1.0, c.A[0])
	for _, v := range c.A[1:] {
		assert.Equal(t, 0.0, v)
	}
	assert.Equal(t, 0.0, c.Gain)
	assert.Equal(t, 10, c.Order())
}

func TestUniformIsFlatFilter(t *testing.T) {
	for _, order := range []int{2, 10, 18} {
		a := ToLpc(Uniform(order))
		require.Len(t, a, order+1)
		assert.InDelta(t, 1.0, a[0], 1e-9)
		for i := 1; i <= order; i++ {
			assert.InDelta(t, 0.0, a[i], 1e-9, "order %d coefficient %d", order, i)
		}
	}
}

func TestLsfRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		lsf  []float64
	}{
		{name: "order_4", lsf: []float64{0.4, 0.9, 1.7, 2.5}},
		{name: "order_10", lsf: []float64{0.2, 0.45, 0.7, 1.0, 1.3, 1.6, 1.9, 2.2, 2.5, 2.8}},
		{name: "uniform_16", lsf: Uniform(16)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ToLpc(tt.lsf)
			got, roots := FromLpc(a, DefaultDelta, DefaultBisections)
			require.Equal(t, len(tt.lsf), roots)
			for i := range got {
				assert.InDelta(t, tt.lsf[i], got[i], 1e-3)
			}
		})
	}
}

func TestHzFromLpc(t *testing.T) {
	t.Run("odd_order", func(t *testing.T) {
		_, err := HzFromLpc([]float64{1, 0.1, 0.2, 0.3}, 16000)
		assert.ErrorIs(t, err, ErrOddOrder)
	})
	t.Run("flat_filter", func(t *testing.T) {
		a := make([]float64, 11)
		a[0] = 1
		hz, err := HzFromLpc(a, 16000)
		require.NoError(t, err)
		require.Len(t, hz, 10)
		for i, v := range hz {
			assert.InDelta(t, float64(i+1)*8000/11, v, 1.0)
		}
	})
	t.Run("back_to_lpc", func(t *testing.T) {
		want := ToLpc([]float64{0.2, 0.45, 0.7, 1.0, 1.3, 1.6, 1.9, 2.2, 2.5, 2.8})
		hz, err := HzFromLpc(want, 8000)
		require.NoError(t, err)
		got := LpcFromHz(hz, 8000)
		for i := range want {
			assert.InDelta(t, want[i], got[i], 1e-2)
		}
	})
}

func TestRepair(t *testing.T) {
	w := []float64{1.0, 0.5, 2.0, 2.0}
	Repair(w, 0.01)
	for i := 1; i < len(w); i++ {
		assert.Greater(t, w[i], w[i-1])
	}
	assert.InDelta(t, 0.5, w[0], 1e-12)
	assert.InDelta(t, 1.0, w[1], 1e-12)
}

func TestSpectrum(t *testing.T) {
	t.Run("flat", func(t *testing.T) {
		s := Spectrum([]float64{1, 0, 0}, 2, 16)
		require.Len(t, s, 9)
		for _, v := range s {
			assert.InDelta(t, 2.0, v, 1e-9)
		}
	})
	t.Run("first_order", func(t *testing.T) {
		s := Spectrum([]float64{1, -0.5}, 1, 32)
		assert.InDelta(t, 2.0, s[0], 1e-9)
		assert.InDelta(t, 1/1.5, s[16], 1e-9)
	})
	t.Run("short_frame_direct_evaluation", func(t *testing.T) {
		a := []float64{1, -0.5, 0, 0, 0, 0}
		s := Spectrum(a, 1, 4)
		require.Len(t, s, 3)
		assert.InDelta(t, 2.0, s[0], 1e-9)
		assert.InDelta(t, 1/1.5, s[2], 1e-9)
	})
}

func TestPreemphasisRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := rapid.SliceOfN(rapid.Float64Range(-1, 1), 1, 256).Draw(rt, "x")
		coef := rapid.Float64Range(0, 0.97).Draw(rt, "coef")
		y := RemovePreemphasis(Preemphasis(x, coef), coef)
		for i := range x {
			if math.Abs(x[i]-y[i]) > 1e-9 {
				rt.Fatalf("sample %d: got %v want %v", i, y[i], x[i])
			}
		}
	})
}

func TestEnergy(t *testing.T) {
	assert.InDelta(t, 5.0, Energy([]float64{3, 4}), 1e-12)
	assert.Equal(t, 0.0, Energy(nil))
}
