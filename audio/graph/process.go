package graph

import "github.com/cwbudde/algo-vecmath"

// Process evaluates every node in topological order and sums whatever is
// routed to the master node into output. output must have exactly
// len(output) channels each of length equal to the graph's block size;
// channels beyond what any connection targets are left untouched (not
// zeroed) so callers may pre-fill them.
//
// All per-node buffers were sized once in AddNode, so Process performs no
// heap allocation while the processing order is current. The first call
// after a topology change rebuilds the order, which allocates.
func (g *Graph) Process(output [][]float64) error {
	if err := g.ensureOrder(); err != nil {
		return err
	}
	for _, ch := range output {
		if len(ch) != g.blockSize {
			return ErrBlockSizeMismatch
		}
	}

	for _, entry := range g.nodes {
		for _, buf := range entry.outputs {
			zero(buf)
		}
	}

	for _, id := range g.order {
		entry := g.nodes[id]

		for _, buf := range entry.inputs[:min(len(entry.inputs), MaxNodeChannels)] {
			zero(buf)
		}
		for _, c := range g.connections {
			if c.To != id || c.From == masterNodeID {
				continue
			}
			src := g.nodes[c.From]
			if c.FromChannel >= len(src.outputs) || c.ToChannel >= len(entry.inputs) {
				continue
			}
			vecmath.AddBlockInPlace(entry.inputs[c.ToChannel], src.outputs[c.FromChannel])
		}

		entry.node.Process(entry.inputs, entry.outputs)
	}

	for _, c := range g.connections {
		if c.To != masterNodeID {
			continue
		}
		src, ok := g.nodes[c.From]
		if !ok || c.FromChannel >= len(src.outputs) || c.ToChannel >= len(output) {
			continue
		}
		vecmath.AddBlockInPlace(output[c.ToChannel], src.outputs[c.FromChannel])
	}

	return nil
}

func zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}
