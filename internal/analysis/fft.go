package analysis

import (
	"math/cmplx"

	dspfft "github.com/mjibson/go-dsp/fft"
)

// FFT computes the discrete Fourier transform of a real-valued time
// series, via go-dsp/fft rather than a hand-rolled radix-2 pass: unlike
// a bare recursive Cooley-Tukey implementation, it isn't restricted to
// power-of-2 input lengths, which matters here since a solved
// trajectory's timestep count is whatever the adaptive stepper produced.
func FFT(data []float64) []complex128 {
	return dspfft.FFTReal(data)
}

// PowerSpectrum returns the magnitude of the first half of data's FFT
// (the non-redundant half for real-valued input).
func PowerSpectrum(data []float64) []float64 {
	spectrum := FFT(data)
	ps := make([]float64, len(spectrum)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}

	return ps
}
