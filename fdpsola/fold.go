package fdpsola

import "math/cmplx"

// foldSpectrum maps the non-negative bins of an analysis residual onto
// the Bins(newSize) bins of a newSize-point DFT. Bins beyond the original
// Nyquist are filled by mirroring the original bins back and forth,
// reversing orientation on each fold, so no bin is written twice. The new
// Nyquist bin is made real by taking its magnitude.
func foldSpectrum(res []complex128, newSize int) []complex128 {
	maxFreq := len(res)
	newMaxFreq := newSize/2 + 1
	out := make([]complex128, newMaxFreq)
	copy(out, res)

	kMax := 1
	for newMaxFreq > (kMax+1)*(maxFreq-2) {
		kMax++
	}
	for k := 1; k <= kMax; k++ {
		fix := (maxFreq - 2) * k
		add, mul := maxFreq+2, 1
		if k%2 == 0 {
			add, mul = -1, -1
		}
		// 1-based bin j reads 1-based bin mul*(fix-j)+add
		end := maxFreq + fix
		if newMaxFreq < end {
			end = newMaxFreq
		}
		for j := fix + 3; j <= end; j++ {
			out[j-1] = res[mul*(fix-j)+add-1]
		}
	}

	out[newMaxFreq-1] = complex(cmplx.Abs(out[newMaxFreq-1]), 0)
	return out
}

// hermitian expands non-negative bins into a full n-point spectrum with
// conjugate symmetry, so its inverse DFT is real.
func hermitian(half []complex128, n int) []complex128 {
	full := make([]complex128, n)
	copy(full, half)
	for k := len(half); k < n; k++ {
		full[k] = cmplx.Conj(full[n-k])
	}
	return full
}
