package nodes

import (
	"fmt"

	"github.com/cwbudde/algo-daw/dsp/effects/dynamics"
)

// CompressorNode wraps an independent dynamics.Compressor per channel.
type CompressorNode struct {
	stages []*dynamics.Compressor
}

// NewCompressorNode creates a compressor node with channels independent
// compressors, each initialised at sampleRate.
func NewCompressorNode(channels int, sampleRate float64) (*CompressorNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	stages := make([]*dynamics.Compressor, channels)
	for ch := range stages {
		c, err := dynamics.NewCompressor(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("nodes: building compressor: %w", err)
		}
		stages[ch] = c
	}
	return &CompressorNode{stages: stages}, nil
}

// Stage returns the underlying compressor for channel ch for parameter
// tweaking (SetThreshold, SetRatio, and so on).
func (n *CompressorNode) Stage(ch int) *dynamics.Compressor { return n.stages[ch] }

func (n *CompressorNode) NumInputs() int      { return len(n.stages) }
func (n *CompressorNode) NumOutputs() int     { return len(n.stages) }
func (n *CompressorNode) LatencySamples() int { return 0 }

func (n *CompressorNode) SetSampleRate(sampleRate float64) {
	for _, s := range n.stages {
		s.SetSampleRate(sampleRate)
	}
}

func (n *CompressorNode) Reset() {
	for _, s := range n.stages {
		s.Reset()
	}
}

func (n *CompressorNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch, s := range n.stages {
		copy(outputs[ch], inputs[ch])
		s.ProcessInPlace(outputs[ch])
	}
}

// GateNode wraps an independent dynamics.Gate per channel.
type GateNode struct {
	stages []*dynamics.Gate
}

// NewGateNode creates a noise-gate node with channels independent gates.
func NewGateNode(channels int, sampleRate float64) (*GateNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	stages := make([]*dynamics.Gate, channels)
	for ch := range stages {
		g, err := dynamics.NewGate(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("nodes: building gate: %w", err)
		}
		stages[ch] = g
	}
	return &GateNode{stages: stages}, nil
}

// Stage returns the underlying gate for channel ch for parameter tweaking.
func (n *GateNode) Stage(ch int) *dynamics.Gate { return n.stages[ch] }

func (n *GateNode) NumInputs() int      { return len(n.stages) }
func (n *GateNode) NumOutputs() int     { return len(n.stages) }
func (n *GateNode) LatencySamples() int { return 0 }

func (n *GateNode) SetSampleRate(sampleRate float64) {
	for _, s := range n.stages {
		s.SetSampleRate(sampleRate)
	}
}

func (n *GateNode) Reset() {
	for _, s := range n.stages {
		s.Reset()
	}
}

func (n *GateNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch, s := range n.stages {
		in, out := inputs[ch], outputs[ch]
		for i, x := range in {
			out[i] = s.ProcessSample(x)
		}
	}
}

// LimiterNode wraps an independent dynamics.LookaheadLimiter per channel.
type LimiterNode struct {
	stages     []*dynamics.LookaheadLimiter
	sampleRate float64
}

// NewLimiterNode creates a lookahead-limiter node with channels
// independent limiters.
func NewLimiterNode(channels int, sampleRate float64) (*LimiterNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	stages := make([]*dynamics.LookaheadLimiter, channels)
	for ch := range stages {
		l, err := dynamics.NewLookaheadLimiter(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("nodes: building limiter: %w", err)
		}
		stages[ch] = l
	}
	return &LimiterNode{stages: stages, sampleRate: sampleRate}, nil
}

// Stage returns the underlying limiter for channel ch for parameter
// tweaking.
func (n *LimiterNode) Stage(ch int) *dynamics.LookaheadLimiter { return n.stages[ch] }

func (n *LimiterNode) NumInputs() int  { return len(n.stages) }
func (n *LimiterNode) NumOutputs() int { return len(n.stages) }

// LatencySamples reports the lookahead delay every stage shares (stages
// are configured identically at construction).
func (n *LimiterNode) LatencySamples() int {
	if len(n.stages) == 0 || n.sampleRate <= 0 {
		return 0
	}
	return int(n.stages[0].Lookahead() / 1000 * n.sampleRate)
}

func (n *LimiterNode) SetSampleRate(sampleRate float64) {
	n.sampleRate = sampleRate
	for _, s := range n.stages {
		s.SetSampleRate(sampleRate)
	}
}

func (n *LimiterNode) Reset() {
	for _, s := range n.stages {
		s.Reset()
	}
}

func (n *LimiterNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch, s := range n.stages {
		copy(outputs[ch], inputs[ch])
		s.ProcessInPlace(outputs[ch])
	}
}
