// Package nodes adapts the DSP effect processors into graph.Node
// implementations so they can be wired into an audio/graph.Graph.
package nodes

import "fmt"

// copyOrZero fills dst from src if src is long enough, otherwise zeroes dst.
func copyOrZero(dst, src []float64) {
	if len(src) < len(dst) {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	copy(dst, src)
}

// GainNode scales every channel by a fixed linear gain.
type GainNode struct {
	channels int
	gain     float64
}

// NewGainNode creates a gain node operating on the given channel count.
func NewGainNode(channels int, gain float64) (*GainNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	return &GainNode{channels: channels, gain: gain}, nil
}

// SetGain updates the linear gain applied to every channel.
func (n *GainNode) SetGain(gain float64) { n.gain = gain }

func (n *GainNode) NumInputs() int          { return n.channels }
func (n *GainNode) NumOutputs() int         { return n.channels }
func (n *GainNode) LatencySamples() int     { return 0 }
func (n *GainNode) SetSampleRate(_ float64) {}
func (n *GainNode) Reset()                  {}

func (n *GainNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch := 0; ch < n.channels; ch++ {
		in, out := inputs[ch], outputs[ch]
		for i := range out {
			out[i] = in[i] * n.gain
		}
	}
}

// PassthroughNode copies its inputs to its outputs unmodified. Useful as a
// graph anchor point or a bypass stand-in while building a chain.
type PassthroughNode struct {
	channels int
}

// NewPassthroughNode creates a passthrough node for the given channel count.
func NewPassthroughNode(channels int) (*PassthroughNode, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("nodes: channel count must be > 0, got %d", channels)
	}
	return &PassthroughNode{channels: channels}, nil
}

func (n *PassthroughNode) NumInputs() int          { return n.channels }
func (n *PassthroughNode) NumOutputs() int         { return n.channels }
func (n *PassthroughNode) LatencySamples() int     { return 0 }
func (n *PassthroughNode) SetSampleRate(_ float64) {}
func (n *PassthroughNode) Reset()                  {}

func (n *PassthroughNode) Process(inputs [][]float64, outputs [][]float64) {
	for ch := 0; ch < n.channels; ch++ {
		copy(outputs[ch], inputs[ch])
	}
}
