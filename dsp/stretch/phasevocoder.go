package stretch

import (
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-daw/dsp/window"
)

const (
	defaultPhaseVocoderFrameSize   = 1024
	defaultPhaseVocoderAnalysisHop = 256
	minPhaseVocoderFrameSize       = 64
	phaseVocoderNormFloor          = 1e-12
)

// PhaseVocoder time-stretches a buffer via short-time Fourier analysis,
// per-bin phase propagation (bins are not phase-locked to one another), and
// a synthesis hop scaled by the stretch ratio. Adapted from a companion pitch-shifting engine that keeps
// duration fixed by resampling after the STFT step; here the synthesis
// hop itself carries the duration change and no resample-back-to-original-length
// step is applied.
type PhaseVocoder struct {
	sampleRate  float64
	frameSize   int
	analysisHop int
	windowType  window.Type

	plan         *algofft.Plan[complex128]
	windowCoeffs []float64
	omega        []float64
	prevPhase    []float64
	sumPhase     []float64

	analysisSpectrum  []complex128
	synthesisSpectrum []complex128
	timeFrame         []complex128
}

// NewPhaseVocoder creates a phase vocoder stretcher with default
// frame/hop parameters.
func NewPhaseVocoder(sampleRate float64) (*PhaseVocoder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("stretch: sample rate must be > 0, got %g", sampleRate)
	}
	p := &PhaseVocoder{
		sampleRate:  sampleRate,
		frameSize:   defaultPhaseVocoderFrameSize,
		analysisHop: defaultPhaseVocoderAnalysisHop,
		windowType:  window.TypeHann,
	}
	if err := p.rebuild(); err != nil {
		return nil, err
	}
	return p, nil
}

// SetFrameSize sets the STFT frame size, which must be a power of two no
// smaller than 64.
func (p *PhaseVocoder) SetFrameSize(size int) error {
	if size < minPhaseVocoderFrameSize || size&(size-1) != 0 {
		return fmt.Errorf("stretch: frame size must be a power of two >= %d, got %d", minPhaseVocoderFrameSize, size)
	}
	old := p.frameSize
	p.frameSize = size
	if err := p.rebuild(); err != nil {
		p.frameSize = old
		_ = p.rebuild()
		return err
	}
	return nil
}

// SetAnalysisHop sets the STFT analysis hop in samples.
func (p *PhaseVocoder) SetAnalysisHop(hop int) error {
	if hop <= 0 {
		return fmt.Errorf("stretch: analysis hop must be > 0, got %d", hop)
	}
	old := p.analysisHop
	p.analysisHop = hop
	if err := p.rebuild(); err != nil {
		p.analysisHop = old
		_ = p.rebuild()
		return err
	}
	return nil
}

func (p *PhaseVocoder) rebuild() error {
	plan, err := algofft.NewPlan64(p.frameSize)
	if err != nil {
		return fmt.Errorf("stretch: building fft plan: %w", err)
	}
	p.plan = plan
	p.windowCoeffs = window.Generate(p.windowType, p.frameSize, window.WithPeriodic())

	bins := p.frameSize/2 + 1
	p.omega = make([]float64, bins)
	for k := range p.omega {
		p.omega[k] = 2 * math.Pi * float64(k) / float64(p.frameSize)
	}
	p.prevPhase = make([]float64, bins)
	p.sumPhase = make([]float64, bins)
	p.analysisSpectrum = make([]complex128, p.frameSize)
	p.synthesisSpectrum = make([]complex128, p.frameSize)
	p.timeFrame = make([]complex128, p.frameSize)
	return nil
}

// Reset clears phase accumulation state between unrelated Process calls.
func (p *PhaseVocoder) Reset() {
	for i := range p.prevPhase {
		p.prevPhase[i] = 0
		p.sumPhase[i] = 0
	}
}

// Process time-stretches input by ratio, producing a buffer approximately
// ratio times as long.
func (p *PhaseVocoder) Process(input []float64, ratio float64) []float64 {
	if len(input) == 0 || ratio <= 0 {
		return nil
	}
	p.Reset()

	synthesisHop := int(math.Round(float64(p.analysisHop) * ratio))
	if synthesisHop < 1 {
		synthesisHop = 1
	}

	frameCount := 1 + (len(input)-1)/p.analysisHop
	stretchedLen := (frameCount-1)*synthesisHop + p.frameSize
	stretched := make([]float64, stretchedLen)
	norm := make([]float64, stretchedLen)
	half := p.frameSize / 2

	analysisHopF := float64(p.analysisHop)
	synthesisHopF := float64(synthesisHop)

	for frame := 0; frame < frameCount; frame++ {
		inPos := frame * p.analysisHop
		outPos := frame * synthesisHop

		for i := 0; i < p.frameSize; i++ {
			x := 0.0
			if idx := inPos + i; idx < len(input) {
				x = input[idx]
			}
			p.analysisSpectrum[i] = complex(x*p.windowCoeffs[i], 0)
		}
		if err := p.plan.Forward(p.analysisSpectrum, p.analysisSpectrum); err != nil {
			return fitLength(stretched, len(input))
		}

		for k := 0; k <= half; k++ {
			re, im := real(p.analysisSpectrum[k]), imag(p.analysisSpectrum[k])
			mag := math.Hypot(re, im)
			phase := math.Atan2(im, re)

			delta := wrapPhase(phase - p.prevPhase[k] - p.omega[k]*analysisHopF)
			instFreq := p.omega[k] + delta/analysisHopF

			p.sumPhase[k] += instFreq * synthesisHopF
			p.prevPhase[k] = phase

			p.synthesisSpectrum[k] = complex(mag*math.Cos(p.sumPhase[k]), mag*math.Sin(p.sumPhase[k]))
		}

		p.synthesisSpectrum[0] = complex(real(p.synthesisSpectrum[0]), 0)
		p.synthesisSpectrum[half] = complex(real(p.synthesisSpectrum[half]), 0)
		for k := 1; k < half; k++ {
			v := p.synthesisSpectrum[k]
			p.synthesisSpectrum[p.frameSize-k] = complex(real(v), -imag(v))
		}

		if err := p.plan.Inverse(p.timeFrame, p.synthesisSpectrum); err != nil {
			return fitLength(stretched, len(input))
		}

		for i := 0; i < p.frameSize; i++ {
			idx := outPos + i
			if idx >= len(stretched) {
				break
			}
			w := p.windowCoeffs[i]
			stretched[idx] += real(p.timeFrame[i]) * w
			norm[idx] += w * w
		}
	}

	for i := range stretched {
		if norm[i] > phaseVocoderNormFloor {
			stretched[i] /= norm[i]
		}
	}
	return stretched
}

// wrapPhase wraps x into [-pi, pi).
func wrapPhase(x float64) float64 {
	y := math.Mod(x+math.Pi, 2*math.Pi)
	if y < 0 {
		y += 2 * math.Pi
	}
	return y - math.Pi
}
