package graph

// ensureOrder recomputes the processing order via depth-first search when
// the graph topology has changed since the last Process call. Cycles are
// broken deterministically: a node reached while already on the current
// DFS stack is simply not re-visited through that edge, so the edge
// closing the cycle is silently dropped from the ordering rather than
// causing an error.
func (g *Graph) ensureOrder() error {
	if !g.dirty {
		return nil
	}

	visited := make(map[NodeID]bool, len(g.nodes))
	onStack := make(map[NodeID]bool, len(g.nodes))
	order := make([]NodeID, 0, len(g.nodes))

	// Visit in ascending NodeID order so that, absent any dependency
	// constraint, ties resolve deterministically by creation order.
	ids := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sortNodeIDs(ids)

	var visit func(id NodeID)
	visit = func(id NodeID) {
		if visited[id] {
			return
		}
		if onStack[id] {
			// Cycle detected: drop this edge instead of recursing further.
			return
		}
		onStack[id] = true
		for _, c := range g.dependenciesOf(id) {
			visit(c)
		}
		onStack[id] = false
		visited[id] = true
		order = append(order, id)
	}

	for _, id := range ids {
		visit(id)
	}

	g.order = order
	g.dirty = false
	return nil
}

// dependenciesOf returns the distinct set of nodes that feed id directly,
// in ascending NodeID order.
func (g *Graph) dependenciesOf(id NodeID) []NodeID {
	seen := make(map[NodeID]bool)
	var deps []NodeID
	for _, c := range g.connections {
		if c.To != id || c.From == masterNodeID {
			continue
		}
		if !seen[c.From] {
			seen[c.From] = true
			deps = append(deps, c.From)
		}
	}
	sortNodeIDs(deps)
	return deps
}

func sortNodeIDs(ids []NodeID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
