package nodes

import (
	"fmt"

	"github.com/cwbudde/algo-daw/dsp/conv"
	"github.com/cwbudde/algo-daw/dsp/effects/pitch"
	"github.com/cwbudde/algo-daw/dsp/effects/spatial"
	"github.com/cwbudde/algo-daw/dsp/stretch"
)

// StereoWidenerNode applies a single spatial.StereoWidener across a fixed
// stereo pair: input/output channel 0 is left, channel 1 is right.
type StereoWidenerNode struct {
	widener *spatial.StereoWidener
}

// NewStereoWidenerNode creates a two-channel stereo widener node.
func NewStereoWidenerNode(sampleRate float64) (*StereoWidenerNode, error) {
	w, err := spatial.NewStereoWidener(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("nodes: building stereo widener: %w", err)
	}
	return &StereoWidenerNode{widener: w}, nil
}

// Widener returns the underlying widener for parameter tweaking (SetWidth,
// SetBassMonoFreq).
func (n *StereoWidenerNode) Widener() *spatial.StereoWidener { return n.widener }

func (n *StereoWidenerNode) NumInputs() int      { return 2 }
func (n *StereoWidenerNode) NumOutputs() int     { return 2 }
func (n *StereoWidenerNode) LatencySamples() int { return 0 }

func (n *StereoWidenerNode) SetSampleRate(sampleRate float64) {
	_ = n.widener.SetSampleRate(sampleRate)
}

func (n *StereoWidenerNode) Reset() { n.widener.Reset() }

func (n *StereoWidenerNode) Process(inputs [][]float64, outputs [][]float64) {
	left, right := inputs[0], inputs[1]
	outL, outR := outputs[0], outputs[1]
	for i := range left {
		outL[i], outR[i] = n.widener.ProcessStereo(left[i], right[i])
	}
}

// ConvolutionReverbNode convolves a fixed stereo pair against a loaded
// stereo impulse response using a zero-added-latency direct+partitioned
// split.
type ConvolutionReverbNode struct {
	conv *conv.StereoZeroLatencyConvolver
}

// NewConvolutionReverbNode builds a convolution reverb node from a stereo
// impulse response and a zero-latency configuration.
func NewConvolutionReverbNode(ir *conv.ImpulseResponse, cfg conv.ZeroLatencyConfig) (*ConvolutionReverbNode, error) {
	c, err := conv.NewStereoZeroLatencyConvolver(ir, cfg)
	if err != nil {
		return nil, fmt.Errorf("nodes: building convolution reverb: %w", err)
	}
	return &ConvolutionReverbNode{conv: c}, nil
}

// SetMix sets the dry/wet balance, clamped to [0, 1].
func (n *ConvolutionReverbNode) SetMix(mix float64) { n.conv.SetMix(mix) }

func (n *ConvolutionReverbNode) NumInputs() int      { return 2 }
func (n *ConvolutionReverbNode) NumOutputs() int     { return 2 }
func (n *ConvolutionReverbNode) LatencySamples() int { return 0 }

// SetSampleRate is a no-op: the convolver's structure is fixed by the
// impulse response and partition configuration at construction time.
func (n *ConvolutionReverbNode) SetSampleRate(_ float64) {}
func (n *ConvolutionReverbNode) Reset()                  {}

func (n *ConvolutionReverbNode) Process(inputs [][]float64, outputs [][]float64) {
	n.conv.ProcessInto(outputs[0], outputs[1], inputs[0], inputs[1])
}

// GranularStretchNode applies an independent stretch.Granular voice per
// channel at a shared, adjustable time-stretch ratio. Since the
// underlying engine's stretched output can run shorter than the block it
// was fed, any remainder of the output block is zero-padded.
type GranularStretchNode struct {
	stages []*stretch.Granular
	ratio  float64
}

// NewGranularStretchNode creates a granular time-stretch node with
// channels independent voices, all driven at the same ratio.
func NewGranularStretchNode(channels int, sampleRate float64) (*GranularStretchNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	stages := make([]*stretch.Granular, channels)
	for ch := range stages {
		g, err := stretch.NewGranular(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("nodes: building granular stretcher: %w", err)
		}
		stages[ch] = g
	}
	return &GranularStretchNode{stages: stages, ratio: 1.0}, nil
}

// Stage returns the underlying granular engine for channel ch for
// parameter tweaking (SetGrainMs, SetOverlap, SetSpray).
func (n *GranularStretchNode) Stage(ch int) *stretch.Granular { return n.stages[ch] }

// SetRatio sets the stretch ratio shared by every channel: > 1 lengthens,
// < 1 shortens.
func (n *GranularStretchNode) SetRatio(ratio float64) { n.ratio = ratio }

func (n *GranularStretchNode) NumInputs() int      { return len(n.stages) }
func (n *GranularStretchNode) NumOutputs() int     { return len(n.stages) }
func (n *GranularStretchNode) LatencySamples() int { return 0 }

// SetSampleRate is a no-op: grain timing is derived from the sample rate
// given at construction, and the engine does not support retiming live.
func (n *GranularStretchNode) SetSampleRate(_ float64) {}

func (n *GranularStretchNode) Reset() {
	for _, s := range n.stages {
		s.Reset()
	}
}

func (n *GranularStretchNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch, s := range n.stages {
		dst := outputs[ch]
		written := s.ProcessInto(dst, inputs[ch], n.ratio)
		for i := written; i < len(dst); i++ {
			dst[i] = 0
		}
	}
}

// PitchShiftNode applies an independent real-time pitch.PitchShifter per
// channel at a shared pitch ratio.
type PitchShiftNode struct {
	stages []*pitch.PitchShifter
}

// NewPitchShiftNode creates a pitch-shift node with channels independent
// shifters.
func NewPitchShiftNode(channels int, sampleRate float64) (*PitchShiftNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	stages := make([]*pitch.PitchShifter, channels)
	for ch := range stages {
		p, err := pitch.NewPitchShifter(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("nodes: building pitch shifter: %w", err)
		}
		stages[ch] = p
	}
	return &PitchShiftNode{stages: stages}, nil
}

// Stage returns the underlying shifter for channel ch for parameter
// tweaking.
func (n *PitchShiftNode) Stage(ch int) *pitch.PitchShifter { return n.stages[ch] }

// SetPitchRatio sets the pitch ratio shared by every channel.
func (n *PitchShiftNode) SetPitchRatio(ratio float64) error {
	for _, s := range n.stages {
		if err := s.SetPitchRatio(ratio); err != nil {
			return fmt.Errorf("nodes: setting pitch ratio: %w", err)
		}
	}
	return nil
}

func (n *PitchShiftNode) NumInputs() int      { return len(n.stages) }
func (n *PitchShiftNode) NumOutputs() int     { return len(n.stages) }
func (n *PitchShiftNode) LatencySamples() int { return 0 }

func (n *PitchShiftNode) SetSampleRate(sampleRate float64) {
	for _, s := range n.stages {
		_ = s.SetSampleRate(sampleRate)
	}
}

func (n *PitchShiftNode) Reset() {
	for _, s := range n.stages {
		s.Reset()
	}
}

func (n *PitchShiftNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch, s := range n.stages {
		copy(outputs[ch], inputs[ch])
		s.ProcessInPlace(outputs[ch])
	}
}
