package stretch

import (
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
)

const (
	defaultTransientFFTSize  = 2048
	defaultTransientHopSize  = 512
	defaultTransientThresh   = 0.3
	defaultTransientMinGapMs = 50.0
)

// MethodWeights controls how the three detection functions are blended
// into TransientDetector's combined onset-strength curve.
type MethodWeights struct {
	SpectralFlux  float64
	HighFreqCount float64
	ComplexDomain float64
}

// DefaultMethodWeights matches the blend found to work well across
// percussive and melodic material alike.
func DefaultMethodWeights() MethodWeights {
	return MethodWeights{SpectralFlux: 0.4, HighFreqCount: 0.3, ComplexDomain: 0.3}
}

// TransientDetector locates onset/transient positions in a buffer using a
// weighted combination of spectral flux, high-frequency content, and
// complex-domain phase deviation, each computed per STFT frame.
type TransientDetector struct {
	sampleRate float64
	fftSize    int
	hopSize    int
	threshold  float64
	minGapMs   float64
	weights    MethodWeights

	plan *algofft.Plan[complex128]
}

// NewTransientDetector creates a detector with default FFT size, hop
// size, and method weights.
func NewTransientDetector(sampleRate float64) (*TransientDetector, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("stretch: sample rate must be > 0, got %g", sampleRate)
	}
	plan, err := algofft.NewPlan64(defaultTransientFFTSize)
	if err != nil {
		return nil, fmt.Errorf("stretch: building fft plan: %w", err)
	}
	return &TransientDetector{
		sampleRate: sampleRate,
		fftSize:    defaultTransientFFTSize,
		hopSize:    defaultTransientHopSize,
		threshold:  defaultTransientThresh,
		minGapMs:   defaultTransientMinGapMs,
		weights:    DefaultMethodWeights(),
		plan:       plan,
	}, nil
}

// SetThreshold sets the peak-picking threshold on the normalized [0,1]
// detection curve, clamped to that range.
func (d *TransientDetector) SetThreshold(threshold float64) {
	d.threshold = clampFloat(threshold, 0, 1)
}

// SetMinGapMs sets the minimum spacing enforced between detected
// transients, in milliseconds.
func (d *TransientDetector) SetMinGapMs(ms float64) {
	if ms < 0 {
		ms = 0
	}
	d.minGapMs = ms
}

// SetMethodWeights overrides the detection-function blend.
func (d *TransientDetector) SetMethodWeights(w MethodWeights) {
	d.weights = w
}

// Detect returns the sample indices of detected transients in input.
func (d *TransientDetector) Detect(input []float64) []int {
	detection := d.detectionFunction(input)
	return d.pickPeaks(detection)
}

func (d *TransientDetector) detectionFunction(input []float64) []float64 {
	if len(input) < d.fftSize {
		return nil
	}
	numFrames := (len(input)-d.fftSize)/d.hopSize + 1
	detection := make([]float64, numFrames)

	half := d.fftSize/2 + 1
	prevMagnitude := make([]float64, half)
	prevPhase := make([]float64, half)
	prevPrevPhase := make([]float64, half)

	frameComplex := make([]complex128, d.fftSize)
	magnitude := make([]float64, half)
	phase := make([]float64, half)

	for frame := 0; frame < numFrames; frame++ {
		start := frame * d.hopSize
		for i := 0; i < d.fftSize; i++ {
			w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(d.fftSize)))
			frameComplex[i] = complex(input[start+i]*w, 0)
		}
		if err := d.plan.Forward(frameComplex, frameComplex); err != nil {
			break
		}
		for k := 0; k < half; k++ {
			re, im := real(frameComplex[k]), imag(frameComplex[k])
			magnitude[k] = math.Hypot(re, im)
			phase[k] = math.Atan2(im, re)
		}

		flux := spectralFlux(magnitude, prevMagnitude)
		hfc := highFrequencyContent(magnitude)
		complexDev := complexDomainDeviation(magnitude, phase, prevMagnitude, prevPhase, prevPrevPhase)

		detection[frame] = d.weights.SpectralFlux*flux + d.weights.HighFreqCount*hfc + d.weights.ComplexDomain*complexDev

		copy(prevPrevPhase, prevPhase)
		copy(prevMagnitude, magnitude)
		copy(prevPhase, phase)
	}

	maxVal := 0.0
	for _, v := range detection {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal > 0 {
		for i := range detection {
			detection[i] /= maxVal
		}
	}
	return detection
}

func spectralFlux(curr, prev []float64) float64 {
	sum := 0.0
	for i := range curr {
		if d := curr[i] - prev[i]; d > 0 {
			sum += d
		}
	}
	return sum
}

func highFrequencyContent(magnitude []float64) float64 {
	sum := 0.0
	for k, m := range magnitude {
		sum += float64(k+1) * m * m
	}
	return math.Sqrt(sum)
}

func complexDomainDeviation(magnitude, phase, prevMagnitude, prevPhase, prevPrevPhase []float64) float64 {
	sum := 0.0
	n := len(magnitude)
	for k := 0; k < n; k++ {
		expectedPhase := 2*prevPhase[k] - prevPrevPhase[k]
		expRe := prevMagnitude[k] * math.Cos(expectedPhase)
		expIm := prevMagnitude[k] * math.Sin(expectedPhase)
		actRe := magnitude[k] * math.Cos(phase[k])
		actIm := magnitude[k] * math.Sin(phase[k])
		sum += math.Hypot(actRe-expRe, actIm-expIm)
	}
	return sum
}

func (d *TransientDetector) pickPeaks(detection []float64) []int {
	if len(detection) < 3 {
		return nil
	}
	minGapFrames := int(d.minGapMs / 1000 * d.sampleRate / float64(d.hopSize))
	if minGapFrames < 1 {
		minGapFrames = 1
	}

	var peaks []int
	i := 1
	for i < len(detection)-1 {
		if detection[i] > detection[i-1] && detection[i] > detection[i+1] && detection[i] > d.threshold {
			peaks = append(peaks, i*d.hopSize)
			i += minGapFrames
		} else {
			i++
		}
	}
	return peaks
}

// Sharpness computes a transient-sharpness metric for a region: the ratio
// of the peak absolute sample-to-sample derivative to its mean. Steadily
// changing regions score near 1, a constant region scores 0, and sharp
// transients score much higher.
func Sharpness(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	var peak, sum float64
	for i := 1; i < len(samples); i++ {
		d := math.Abs(samples[i] - samples[i-1])
		if d > peak {
			peak = d
		}
		sum += d
	}
	mean := sum / float64(len(samples)-1)
	if mean <= 0 {
		return 0
	}
	return peak / mean
}

// IsTransientRegion reports whether samples' Sharpness exceeds threshold.
func IsTransientRegion(samples []float64, threshold float64) bool {
	return Sharpness(samples) > threshold
}
