// Package stretch implements buffer-to-buffer time-stretching and pitch
// manipulation engines sharing a common contract: Process consumes a full
// input buffer and a stretch ratio and returns a resampled-in-time output
// buffer, independent of any real-time streaming concerns.
package stretch

import "math"

// Stretcher is the common contract for every time-stretch engine in this
// package. ratio > 1 lengthens the signal (slower playback), ratio < 1
// shortens it.
type Stretcher interface {
	// Process stretches input by ratio and returns a newly allocated
	// output buffer.
	Process(input []float64, ratio float64) []float64
	// Reset clears any internal state carried between Process calls.
	Reset()
}

// MatchDuration stretches input so its result is as close as possible to
// targetMs milliseconds long at sampleRate, then trims or zero-pads the
// result to that exact sample count.
func MatchDuration(s Stretcher, input []float64, targetMs, sampleRate float64) []float64 {
	targetSamples := int(math.Round(targetMs / 1000 * sampleRate))
	if targetSamples <= 0 {
		return nil
	}
	if len(input) == 0 {
		return make([]float64, targetSamples)
	}
	ratio := float64(targetSamples) / float64(len(input))
	out := s.Process(input, ratio)
	return fitLength(out, targetSamples)
}

// fitLength copies in into a slice of exactly n samples, truncating or
// zero-padding as needed.
func fitLength(in []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, in)
	return out
}

// hannWindow returns a symmetric Hann window of the given length.
func hannWindow(length int) []float64 {
	w := make([]float64, length)
	if length == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(length-1)))
	}
	return w
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
