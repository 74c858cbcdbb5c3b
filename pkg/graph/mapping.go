package graph

import "slices"

// GraphMapping is a structural homomorphism from a domain graph into a
// codomain graph. NodeMapping[i] is the codomain node of domain node i.
// EdgeMapping[l] is the path domain edge l maps onto, as the codomain
// edges traversed in order; a direct edge match has exactly one entry.
// Paths are recorded as edges so parallel codomain edges stay distinct.
type GraphMapping struct {
	NodeMapping []NodeIndex   `json:"node_mapping"`
	EdgeMapping [][]EdgeIndex `json:"edge_mapping"`
}

// Identity returns the mapping of g onto itself.
func Identity(g *Graph) GraphMapping {
	m := GraphMapping{
		NodeMapping: make([]NodeIndex, len(g.Nodes)),
		EdgeMapping: make([][]EdgeIndex, len(g.Edges)),
	}
	for i := range g.Nodes {
		m.NodeMapping[i] = NodeIndex(i)
	}
	for l := range g.Edges {
		m.EdgeMapping[l] = []EdgeIndex{EdgeIndex(l)}
	}
	return m
}

// Clone returns a deep copy of m.
func (m GraphMapping) Clone() GraphMapping {
	c := GraphMapping{
		NodeMapping: slices.Clone(m.NodeMapping),
		EdgeMapping: make([][]EdgeIndex, len(m.EdgeMapping)),
	}
	for l, path := range m.EdgeMapping {
		c.EdgeMapping[l] = slices.Clone(path)
	}
	return c
}

// Path returns the codomain node sequence that domain edge l maps onto:
// the tail of the first edge followed by the head of every edge. It
// returns nil for an empty path. Indices must already be valid.
func (m GraphMapping) Path(codomain *Graph, l EdgeIndex) []NodeIndex {
	edges := m.EdgeMapping[l]
	if len(edges) == 0 {
		return nil
	}
	path := make([]NodeIndex, 0, len(edges)+1)
	path = append(path, codomain.Edges[edges[0]].Tail)
	for _, ce := range edges {
		path = append(path, codomain.Edges[ce].Head)
	}
	return path
}

// InjectiveOnNodes reports whether no two domain nodes share a codomain node.
func (m GraphMapping) InjectiveOnNodes() bool {
	seen := make(map[NodeIndex]bool, len(m.NodeMapping))
	for _, n := range m.NodeMapping {
		if seen[n] {
			return false
		}
		seen[n] = true
	}
	return true
}

// Validate checks that m is a total, in-bounds mapping from domain into
// codomain and that every edge path starts at the image of the edge's
// tail, ends at the image of its head and is connected. Bounds failures
// are ErrInvalidReference; path inconsistencies are ErrInvalidEmbedding.
func (m GraphMapping) Validate(domain, codomain *Graph) error {
	if len(m.NodeMapping) != len(domain.Nodes) {
		return NewError(ErrInvalidReference, domain.Name, ElementMapping, -1,
			"node mapping has %d entries, domain has %d nodes", len(m.NodeMapping), len(domain.Nodes))
	}
	if len(m.EdgeMapping) != len(domain.Edges) {
		return NewError(ErrInvalidReference, domain.Name, ElementMapping, -1,
			"edge mapping has %d entries, domain has %d edges", len(m.EdgeMapping), len(domain.Edges))
	}
	for i, n := range m.NodeMapping {
		if n < 0 || int(n) >= len(codomain.Nodes) {
			return NewError(ErrInvalidReference, codomain.Name, ElementNode, i,
				"domain node maps to %d, codomain has %d nodes", n, len(codomain.Nodes))
		}
	}
	for l, edges := range m.EdgeMapping {
		if len(edges) == 0 {
			return NewError(ErrInvalidReference, domain.Name, ElementEdge, l, "edge maps onto an empty path")
		}
		for _, ce := range edges {
			if ce < 0 || int(ce) >= len(codomain.Edges) {
				return NewError(ErrInvalidReference, codomain.Name, ElementEdge, l,
					"domain edge maps to codomain edge %d, codomain has %d edges", ce, len(codomain.Edges))
			}
		}
		de := domain.Edges[l]
		first, last := codomain.Edges[edges[0]], codomain.Edges[edges[len(edges)-1]]
		if first.Tail != m.NodeMapping[de.Tail] || last.Head != m.NodeMapping[de.Head] {
			return NewError(ErrInvalidEmbedding, domain.Name, ElementEdge, l,
				"edge %d->%d maps onto a path from %d to %d, want %d to %d",
				de.Tail, de.Head, first.Tail, last.Head, m.NodeMapping[de.Tail], m.NodeMapping[de.Head])
		}
		for k := 1; k < len(edges); k++ {
			if codomain.Edges[edges[k-1]].Head != codomain.Edges[edges[k]].Tail {
				return NewError(ErrInvalidEmbedding, domain.Name, ElementEdge, l,
					"edge path is disconnected between codomain edges %d and %d", edges[k-1], edges[k])
			}
		}
	}
	return nil
}
