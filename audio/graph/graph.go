// Package graph implements a handle-indexed directed acyclic graph of audio
// processing Nodes, evaluated once per block in topological order with
// zero heap allocation on the hot Process path.
package graph

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"
)

// MaxNodeChannels caps how many of a node's input buffers Process clears
// before summing its incoming connections. AddNode does not reject nodes
// that declare more channels.
const MaxNodeChannels = 8

// NodeID addresses a node within a Graph. The zero value is reserved for
// the graph's implicit master/output node and is never assigned to a
// user-added node.
type NodeID uint32

const masterNodeID NodeID = 0

var (
	// ErrUnknownNode is returned when an operation references a NodeID that
	// is not present in the graph.
	ErrUnknownNode = errors.New("graph: unknown node")
	// ErrChannelOutOfRange is returned when a Connection names a channel
	// index outside the node's declared channel count.
	ErrChannelOutOfRange = errors.New("graph: channel index out of range")
	// ErrBlockSizeMismatch is returned when Process is called with buffers
	// whose length does not match the graph's configured block size.
	ErrBlockSizeMismatch = errors.New("graph: block size mismatch")
)

// Node is the polymorphic audio processor contract evaluated by a Graph.
// Process must not allocate, block, or panic; it is called once per block
// on the real-time thread.
type Node interface {
	NumInputs() int
	NumOutputs() int
	LatencySamples() int
	SetSampleRate(sampleRate float64)
	Reset()
	Process(inputs [][]float64, outputs [][]float64)
}

// Connection routes one output channel of a source node to one input
// channel of a destination node. Multiple connections may target the same
// (node, channel) pair; their signals are summed.
type Connection struct {
	From        NodeID
	FromChannel int
	To          NodeID
	ToChannel   int
}

type nodeEntry struct {
	node    Node
	inputs  [][]float64
	outputs [][]float64
}

// Graph is a mutable node DAG. Zero value is not usable; construct with
// New.
type Graph struct {
	blockSize  int
	sampleRate float64

	nodes       map[NodeID]*nodeEntry
	connections []Connection
	nextID      uint32

	order []NodeID
	dirty bool
}

// New creates an empty Graph with the given block size and sample rate.
func New(blockSize int, sampleRate float64) (*Graph, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("graph: block size must be > 0, got %d", blockSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("graph: sample rate must be > 0, got %g", sampleRate)
	}
	g := &Graph{
		blockSize:  blockSize,
		sampleRate: sampleRate,
		nodes:      make(map[NodeID]*nodeEntry),
		nextID:     1,
	}
	return g, nil
}

// AddNode registers node and returns the handle it was assigned. The node
// is immediately configured with the graph's sample rate.
func (g *Graph) AddNode(node Node) NodeID {
	id := NodeID(g.nextID)
	g.nextID++

	node.SetSampleRate(g.sampleRate)

	entry := &nodeEntry{node: node}
	entry.inputs = make([][]float64, node.NumInputs())
	for i := range entry.inputs {
		entry.inputs[i] = make([]float64, g.blockSize)
	}
	entry.outputs = make([][]float64, node.NumOutputs())
	for i := range entry.outputs {
		entry.outputs[i] = make([]float64, g.blockSize)
	}

	g.nodes[id] = entry
	g.dirty = true
	return id
}

// RemoveNode deletes node and every connection touching it.
func (g *Graph) RemoveNode(id NodeID) error {
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	delete(g.nodes, id)

	kept := g.connections[:0]
	for _, c := range g.connections {
		if c.From == id || c.To == id {
			continue
		}
		kept = append(kept, c)
	}
	g.connections = kept
	g.dirty = true
	return nil
}

// Connect adds an edge from one node's output channel to another's input
// channel. Duplicate edges between the same endpoints are permitted and
// summed during Process.
func (g *Graph) Connect(c Connection) error {
	if err := g.validateEndpoint(c.From, c.FromChannel, outputSide); err != nil {
		return err
	}
	if err := g.validateEndpoint(c.To, c.ToChannel, inputSide); err != nil {
		return err
	}
	g.connections = append(g.connections, c)
	g.dirty = true
	return nil
}

// Disconnect removes every connection matching c exactly. It is a no-op if
// no such connection exists.
func (g *Graph) Disconnect(c Connection) {
	kept := g.connections[:0]
	for _, existing := range g.connections {
		if existing == c {
			continue
		}
		kept = append(kept, existing)
	}
	g.connections = kept
	g.dirty = true
}

type endpointSide int

const (
	outputSide endpointSide = iota
	inputSide
)

func (g *Graph) validateEndpoint(id NodeID, channel int, side endpointSide) error {
	if id == masterNodeID {
		return nil
	}
	entry, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	count := entry.node.NumOutputs()
	if side == inputSide {
		count = entry.node.NumInputs()
	}
	if channel < 0 || channel >= count {
		return fmt.Errorf("%w: node %d channel %d (have %d)", ErrChannelOutOfRange, id, channel, count)
	}
	return nil
}

// SetSampleRate propagates a sample-rate change to every node in the
// graph.
func (g *Graph) SetSampleRate(sampleRate float64) {
	g.sampleRate = sampleRate
	for _, entry := range g.nodes {
		entry.node.SetSampleRate(sampleRate)
	}
}

// Reset clears every node's internal state without altering topology.
func (g *Graph) Reset() {
	for _, entry := range g.nodes {
		entry.node.Reset()
	}
}

// TotalLatency returns the maximum cumulative LatencySamples along any
// path through the graph, honoring the processing order. Every node
// counts, whether or not it is connected to the master output. It returns
// 0 for an empty graph.
func (g *Graph) TotalLatency() (int, error) {
	if err := g.ensureOrder(); err != nil {
		return 0, err
	}
	latency := make(map[NodeID]int, len(g.order))
	max := 0
	for _, id := range g.order {
		entry := g.nodes[id]
		best := 0
		for _, c := range g.connections {
			if c.To != id || c.From == masterNodeID {
				continue
			}
			if l := latency[c.From]; l > best {
				best = l
			}
		}
		total := best + entry.node.LatencySamples()
		latency[id] = total
		if total > max {
			max = total
		}
	}
	return max, nil
}
