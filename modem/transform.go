package modem

import (
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// transform wraps a cached gonum complex FFT plan. The plan is reused
// across calls and guarded by a mutex since fourier.CmplxFFT is not
// safe for concurrent use; independent Modem instances never share one.
type transform struct {
	mu  sync.Mutex
	fft *fourier.CmplxFFT
	n   int
}

func newTransform(n int) *transform {
	return &transform{fft: fourier.NewCmplxFFT(n), n: n}
}

// Forward computes the unnormalized forward DFT of x.
func (t *transform) Forward(x []complex128) []complex128 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fft.Coefficients(nil, x)
}

// Inverse computes the inverse DFT of spectrum, scaled by 1/N so that
// Forward(Inverse(X)) == X up to rounding.
func (t *transform) Inverse(spectrum []complex128) []complex128 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.fft.Sequence(nil, spectrum)
	s := complex(1/float64(t.n), 0)
	for i := range out {
		out[i] *= s
	}
	return out
}
