package nodes

import (
	"fmt"

	"github.com/cwbudde/algo-daw/dsp/effects"
	"github.com/cwbudde/algo-daw/dsp/effects/modulation"
)

// ChorusNode wraps an independent modulation.Chorus per channel.
type ChorusNode struct {
	stages []*modulation.Chorus
}

// NewChorusNode creates a chorus node with channels independent voices.
func NewChorusNode(channels int, sampleRate float64) (*ChorusNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	stages := make([]*modulation.Chorus, channels)
	for ch := range stages {
		c, err := modulation.NewChorus()
		if err != nil {
			return nil, fmt.Errorf("nodes: building chorus: %w", err)
		}
		if err := c.SetSampleRate(sampleRate); err != nil {
			return nil, fmt.Errorf("nodes: setting chorus sample rate: %w", err)
		}
		stages[ch] = c
	}
	return &ChorusNode{stages: stages}, nil
}

func (n *ChorusNode) Stage(ch int) *modulation.Chorus { return n.stages[ch] }
func (n *ChorusNode) NumInputs() int                  { return len(n.stages) }
func (n *ChorusNode) NumOutputs() int                 { return len(n.stages) }
func (n *ChorusNode) LatencySamples() int             { return 0 }

func (n *ChorusNode) SetSampleRate(sampleRate float64) {
	for _, s := range n.stages {
		s.SetSampleRate(sampleRate)
	}
}

func (n *ChorusNode) Reset() {
	for _, s := range n.stages {
		s.Reset()
	}
}

func (n *ChorusNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch, s := range n.stages {
		in, out := inputs[ch], outputs[ch]
		for i, x := range in {
			out[i] = s.ProcessSample(x)
		}
	}
}

// FlangerNode wraps an independent modulation.Flanger per channel.
type FlangerNode struct {
	stages []*modulation.Flanger
}

// NewFlangerNode creates a flanger node with channels independent voices.
func NewFlangerNode(channels int, sampleRate float64) (*FlangerNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	stages := make([]*modulation.Flanger, channels)
	for ch := range stages {
		f, err := modulation.NewFlanger(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("nodes: building flanger: %w", err)
		}
		stages[ch] = f
	}
	return &FlangerNode{stages: stages}, nil
}

func (n *FlangerNode) Stage(ch int) *modulation.Flanger { return n.stages[ch] }
func (n *FlangerNode) NumInputs() int                   { return len(n.stages) }
func (n *FlangerNode) NumOutputs() int                  { return len(n.stages) }
func (n *FlangerNode) LatencySamples() int              { return 0 }

func (n *FlangerNode) SetSampleRate(sampleRate float64) {
	for _, s := range n.stages {
		s.SetSampleRate(sampleRate)
	}
}

func (n *FlangerNode) Reset() {
	for _, s := range n.stages {
		s.Reset()
	}
}

func (n *FlangerNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch, s := range n.stages {
		in, out := inputs[ch], outputs[ch]
		for i, x := range in {
			out[i] = s.ProcessSample(x)
		}
	}
}

// PhaserNode wraps an independent modulation.Phaser per channel.
type PhaserNode struct {
	stages []*modulation.Phaser
}

// NewPhaserNode creates a phaser node with channels independent voices.
func NewPhaserNode(channels int, sampleRate float64) (*PhaserNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	stages := make([]*modulation.Phaser, channels)
	for ch := range stages {
		p, err := modulation.NewPhaser(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("nodes: building phaser: %w", err)
		}
		stages[ch] = p
	}
	return &PhaserNode{stages: stages}, nil
}

func (n *PhaserNode) Stage(ch int) *modulation.Phaser { return n.stages[ch] }
func (n *PhaserNode) NumInputs() int                  { return len(n.stages) }
func (n *PhaserNode) NumOutputs() int                 { return len(n.stages) }
func (n *PhaserNode) LatencySamples() int              { return 0 }

func (n *PhaserNode) SetSampleRate(sampleRate float64) {
	for _, s := range n.stages {
		s.SetSampleRate(sampleRate)
	}
}

func (n *PhaserNode) Reset() {
	for _, s := range n.stages {
		s.Reset()
	}
}

func (n *PhaserNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch, s := range n.stages {
		in, out := inputs[ch], outputs[ch]
		for i, x := range in {
			out[i] = s.ProcessSample(x)
		}
	}
}

// TremoloNode wraps an independent effects.Tremolo per channel.
type TremoloNode struct {
	stages []*effects.Tremolo
}

// NewTremoloNode creates a tremolo node with channels independent voices.
func NewTremoloNode(channels int, sampleRate float64) (*TremoloNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	stages := make([]*effects.Tremolo, channels)
	for ch := range stages {
		t, err := effects.NewTremolo(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("nodes: building tremolo: %w", err)
		}
		stages[ch] = t
	}
	return &TremoloNode{stages: stages}, nil
}

func (n *TremoloNode) Stage(ch int) *effects.Tremolo { return n.stages[ch] }
func (n *TremoloNode) NumInputs() int                { return len(n.stages) }
func (n *TremoloNode) NumOutputs() int               { return len(n.stages) }
func (n *TremoloNode) LatencySamples() int           { return 0 }

func (n *TremoloNode) SetSampleRate(sampleRate float64) {
	for _, s := range n.stages {
		s.SetSampleRate(sampleRate)
	}
}

func (n *TremoloNode) Reset() {
	for _, s := range n.stages {
		s.Reset()
	}
}

func (n *TremoloNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch, s := range n.stages {
		in, out := inputs[ch], outputs[ch]
		for i, x := range in {
			out[i] = s.ProcessSample(x)
		}
	}
}

// DistortionNode wraps an independent effects.Distortion per channel.
type DistortionNode struct {
	stages []*effects.Distortion
}

// NewDistortionNode creates a distortion node with channels independent
// stages.
func NewDistortionNode(channels int, sampleRate float64) (*DistortionNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	stages := make([]*effects.Distortion, channels)
	for ch := range stages {
		d, err := effects.NewDistortion(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("nodes: building distortion: %w", err)
		}
		stages[ch] = d
	}
	return &DistortionNode{stages: stages}, nil
}

func (n *DistortionNode) Stage(ch int) *effects.Distortion { return n.stages[ch] }
func (n *DistortionNode) NumInputs() int                   { return len(n.stages) }
func (n *DistortionNode) NumOutputs() int                  { return len(n.stages) }
func (n *DistortionNode) LatencySamples() int              { return 0 }

func (n *DistortionNode) SetSampleRate(sampleRate float64) {
	for _, s := range n.stages {
		s.SetSampleRate(sampleRate)
	}
}

func (n *DistortionNode) Reset() {
	for _, s := range n.stages {
		s.Reset()
	}
}

func (n *DistortionNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch, s := range n.stages {
		copy(outputs[ch], inputs[ch])
		s.ProcessInPlace(outputs[ch])
	}
}

// BitCrusherNode wraps an independent effects.BitCrusher per channel.
type BitCrusherNode struct {
	stages []*effects.BitCrusher
}

// NewBitCrusherNode creates a bit-crusher node with channels independent
// stages.
func NewBitCrusherNode(channels int, sampleRate float64) (*BitCrusherNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	stages := make([]*effects.BitCrusher, channels)
	for ch := range stages {
		bc, err := effects.NewBitCrusher(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("nodes: building bit crusher: %w", err)
		}
		stages[ch] = bc
	}
	return &BitCrusherNode{stages: stages}, nil
}

func (n *BitCrusherNode) Stage(ch int) *effects.BitCrusher { return n.stages[ch] }
func (n *BitCrusherNode) NumInputs() int                   { return len(n.stages) }
func (n *BitCrusherNode) NumOutputs() int                  { return len(n.stages) }
func (n *BitCrusherNode) LatencySamples() int              { return 0 }

func (n *BitCrusherNode) SetSampleRate(sampleRate float64) {
	for _, s := range n.stages {
		s.SetSampleRate(sampleRate)
	}
}

func (n *BitCrusherNode) Reset() {
	for _, s := range n.stages {
		s.Reset()
	}
}

func (n *BitCrusherNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch, s := range n.stages {
		copy(outputs[ch], inputs[ch])
		s.ProcessInPlace(outputs[ch])
	}
}

// FrequencyShiftNode wraps an independent modulation.FrequencyShifter per
// channel, a Bode-style single-sideband shifter built on a Hilbert
// transformer. Only the upshift output is taken; the shifter itself
// produces both upshift and downshift simultaneously.
type FrequencyShiftNode struct {
	stages []*modulation.FrequencyShifter
}

// NewFrequencyShiftNode creates a frequency shifter node with channels
// independent stages, each shifting by shiftHz.
func NewFrequencyShiftNode(channels int, sampleRate, shiftHz float64) (*FrequencyShiftNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	stages := make([]*modulation.FrequencyShifter, channels)
	for ch := range stages {
		f, err := modulation.NewFrequencyShifter(sampleRate, modulation.WithFrequencyShiftHz(shiftHz))
		if err != nil {
			return nil, fmt.Errorf("nodes: building frequency shifter: %w", err)
		}
		stages[ch] = f
	}
	return &FrequencyShiftNode{stages: stages}, nil
}

func (n *FrequencyShiftNode) Stage(ch int) *modulation.FrequencyShifter { return n.stages[ch] }
func (n *FrequencyShiftNode) NumInputs() int                            { return len(n.stages) }
func (n *FrequencyShiftNode) NumOutputs() int                           { return len(n.stages) }
func (n *FrequencyShiftNode) LatencySamples() int                       { return 0 }

// SetShiftHz updates the shift frequency on every channel's stage.
func (n *FrequencyShiftNode) SetShiftHz(shiftHz float64) error {
	for ch, s := range n.stages {
		if err := s.SetShiftHz(shiftHz); err != nil {
			return fmt.Errorf("nodes: channel %d: %w", ch, err)
		}
	}
	return nil
}

func (n *FrequencyShiftNode) SetSampleRate(sampleRate float64) {
	for _, s := range n.stages {
		_ = s.SetSampleRate(sampleRate)
	}
}

func (n *FrequencyShiftNode) Reset() {
	for _, s := range n.stages {
		s.Reset()
	}
}

func (n *FrequencyShiftNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch, s := range n.stages {
		in, out := inputs[ch], outputs[ch]
		for i, x := range in {
			up, _ := s.ProcessSample(x)
			out[i] = up
		}
	}
}
