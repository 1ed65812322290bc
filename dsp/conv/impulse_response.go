package conv

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
)

// ErrInvalidChannelCount is returned when an ImpulseResponse is built with
// a channel count that does not match the sample data provided.
var ErrInvalidChannelCount = errors.New("conv: invalid channel count")

// ImpulseResponse owns interleaved or mono impulse-response sample data
// together with the metadata needed to convolve it against a signal.
type ImpulseResponse struct {
	samples    []float64
	sampleRate float64
	channels   int
	spectrum   []complex128
}

// NewImpulseResponse builds a mono or interleaved-multichannel impulse
// response from raw samples.
func NewImpulseResponse(samples []float64, sampleRate float64, channels int) (*ImpulseResponse, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyImpulseResponse
	}
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannelCount, channels)
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples not divisible by %d channels", ErrInvalidChannelCount, len(samples), channels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("conv: sample rate must be > 0, got %g", sampleRate)
	}
	return &ImpulseResponse{
		samples:    samples,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// NewStereoImpulseResponse interleaves independent left/right mono IRs of
// equal length into a single stereo ImpulseResponse.
func NewStereoImpulseResponse(left, right []float64, sampleRate float64) (*ImpulseResponse, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("%w: left=%d right=%d", ErrLengthMismatch, len(left), len(right))
	}
	interleaved := make([]float64, 2*len(left))
	for i := range left {
		interleaved[2*i] = left[i]
		interleaved[2*i+1] = right[i]
	}
	return NewImpulseResponse(interleaved, sampleRate, 2)
}

// Len returns the number of frames (samples per channel).
func (ir *ImpulseResponse) Len() int {
	return len(ir.samples) / ir.channels
}

// Duration returns the impulse response's length in seconds.
func (ir *ImpulseResponse) Duration() float64 {
	return float64(ir.Len()) / ir.sampleRate
}

// Channels returns the channel count.
func (ir *ImpulseResponse) Channels() int {
	return ir.channels
}

// SampleRate returns the impulse response's sample rate.
func (ir *ImpulseResponse) SampleRate() float64 {
	return ir.sampleRate
}

// Channel returns a newly allocated deinterleaved copy of channel ch.
func (ir *ImpulseResponse) Channel(ch int) ([]float64, error) {
	if ch < 0 || ch >= ir.channels {
		return nil, fmt.Errorf("conv: channel %d out of range (have %d)", ch, ir.channels)
	}
	frames := ir.Len()
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		out[i] = ir.samples[i*ir.channels+ch]
	}
	return out, nil
}

// Normalize scales every sample so the peak absolute value across all
// channels is exactly 1.0. It is a no-op (and does not error) when the
// peak is already 0, so repeated calls are idempotent.
func (ir *ImpulseResponse) Normalize() {
	peak := 0.0
	for _, s := range ir.samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	inv := 1.0 / peak
	for i := range ir.samples {
		ir.samples[i] *= inv
	}
	ir.spectrum = nil
}

// Trim truncates the impulse response to the last frame whose absolute
// value exceeds the linear-equivalent of thresholdDB, then rounds the
// kept length down to the next lower power of two (never up, so Trim
// never grows the IR). Trim is a no-op if every frame is already at or
// below the threshold.
func (ir *ImpulseResponse) Trim(thresholdDB float64) {
	threshold := math.Pow(10, thresholdDB/20)
	frames := ir.Len()
	last := -1
	for f := frames - 1; f >= 0; f-- {
		above := false
		for c := 0; c < ir.channels; c++ {
			if math.Abs(ir.samples[f*ir.channels+c]) > threshold {
				above = true
				break
			}
		}
		if above {
			last = f
			break
		}
	}
	if last < 0 {
		return
	}
	keep := last + 1
	keep = prevPowerOfTwo(keep)
	if keep >= frames {
		return
	}
	ir.samples = ir.samples[:keep*ir.channels]
	ir.spectrum = nil
}

// PrecomputeSpectrum FFTs a zero-padded copy of the (mono or first-channel)
// impulse response at fftSize so repeated convolutions can reuse it.
// fftSize must be a power of two no smaller than the IR's frame count.
func (ir *ImpulseResponse) PrecomputeSpectrum(fftSize int) error {
	if fftSize < ir.Len() {
		return fmt.Errorf("conv: fft size %d smaller than impulse response length %d", fftSize, ir.Len())
	}
	mono, err := ir.Channel(0)
	if err != nil {
		return err
	}
	padded := make([]complex128, fftSize)
	for i, s := range mono {
		padded[i] = complex(s, 0)
	}
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return fmt.Errorf("conv: building fft plan: %w", err)
	}
	spectrum := make([]complex128, fftSize)
	if err := plan.Forward(spectrum, padded); err != nil {
		return fmt.Errorf("conv: forward fft: %w", err)
	}
	ir.spectrum = spectrum
	return nil
}

// Spectrum returns the spectrum computed by the most recent
// PrecomputeSpectrum call, or nil if none has been computed.
func (ir *ImpulseResponse) Spectrum() []complex128 {
	return ir.spectrum
}

func prevPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
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
