package nodes

import (
	"fmt"

	"github.com/cwbudde/algo-daw/dsp/filter/biquad"
	"github.com/cwbudde/algo-daw/dsp/filter/crossover"
	"github.com/cwbudde/algo-daw/dsp/filter/design"
)

// BiquadShape selects the Butterworth response a BiquadNode designs.
type BiquadShape int

const (
	BiquadLowpass BiquadShape = iota
	BiquadHighpass
)

// BiquadNode applies an independent Butterworth cascade to each channel.
// Coefficients are shared across channels; filter state is per channel.
type BiquadNode struct {
	channels   int
	shape      BiquadShape
	freq       float64
	order      int
	sampleRate float64
	chains     []*biquad.Chain
}

// NewBiquadNode designs a Butterworth cascade at freq Hz, order sections,
// and wraps one independent Chain per channel.
func NewBiquadNode(channels int, shape BiquadShape, freq float64, order int, sampleRate float64) (*BiquadNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	if freq <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("nodes: freq and sample rate must be > 0")
	}
	n := &BiquadNode{
		channels:   channels,
		shape:      shape,
		freq:       freq,
		order:      order,
		sampleRate: sampleRate,
	}
	n.rebuild()
	return n, nil
}

func (n *BiquadNode) rebuild() {
	var coeffs []biquad.Coefficients
	switch n.shape {
	case BiquadHighpass:
		coeffs = design.ButterworthHP(n.freq, n.order, n.sampleRate)
	default:
		coeffs = design.ButterworthLP(n.freq, n.order, n.sampleRate)
	}
	n.chains = make([]*biquad.Chain, n.channels)
	for ch := range n.chains {
		n.chains[ch] = biquad.NewChain(coeffs)
	}
}

// SetCutoff redesigns the filter at a new cutoff frequency, preserving
// channel state where possible is not attempted: redesign resets state.
func (n *BiquadNode) SetCutoff(freq float64) error {
	if freq <= 0 {
		return fmt.Errorf("nodes: freq must be > 0, got %g", freq)
	}
	n.freq = freq
	n.rebuild()
	return nil
}

func (n *BiquadNode) NumInputs() int      { return n.channels }
func (n *BiquadNode) NumOutputs() int     { return n.channels }
func (n *BiquadNode) LatencySamples() int { return 0 }

func (n *BiquadNode) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 {
		return
	}
	n.sampleRate = sampleRate
	n.rebuild()
}

func (n *BiquadNode) Reset() {
	for _, c := range n.chains {
		c.Reset()
	}
}

func (n *BiquadNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch := 0; ch < n.channels; ch++ {
		copy(outputs[ch], inputs[ch])
		n.chains[ch].ProcessBlock(outputs[ch])
	}
}

// CrossoverNode splits each channel into low and high bands at a single
// crossover frequency, exposing both as separate output channel groups:
// outputs [0..channels) carry the low band, [channels..2*channels) the
// high band.
type CrossoverNode struct {
	channels   int
	freq       float64
	order      int
	sampleRate float64
	stages     []*crossover.Crossover
}

// NewCrossoverNode creates a node splitting each of channels input
// channels through an independent crossover.Crossover instance.
func NewCrossoverNode(channels int, freq float64, order int, sampleRate float64) (*CrossoverNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	n := &CrossoverNode{channels: channels, freq: freq, order: order, sampleRate: sampleRate}
	if err := n.rebuild(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *CrossoverNode) rebuild() error {
	stages := make([]*crossover.Crossover, n.channels)
	for ch := range stages {
		c, err := crossover.New(n.freq, n.order, n.sampleRate)
		if err != nil {
			return fmt.Errorf("nodes: designing crossover: %w", err)
		}
		stages[ch] = c
	}
	n.stages = stages
	return nil
}

func (n *CrossoverNode) NumInputs() int      { return n.channels }
func (n *CrossoverNode) NumOutputs() int     { return 2 * n.channels }
func (n *CrossoverNode) LatencySamples() int { return 0 }

func (n *CrossoverNode) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 {
		return
	}
	n.sampleRate = sampleRate
	n.rebuild()
}

func (n *CrossoverNode) Reset() {
	for _, s := range n.stages {
		s.Reset()
	}
}

func (n *CrossoverNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch := 0; ch < n.channels; ch++ {
		n.stages[ch].ProcessBlock(inputs[ch], outputs[ch], outputs[n.channels+ch])
	}
}
