package graph

import "errors"

// Validate runs the structural checks that every graph snapshot must
// satisfy: edge endpoints and subgraph members reference existing
// elements, and non-empty node names are unique. It returns nil for a
// valid graph, otherwise every finding joined. Validate never mutates g.
func Validate(g *Graph) error {
	var errs []error
	errs = append(errs, validateEdges(g)...)
	errs = append(errs, validateSubgraphs(g)...)
	errs = append(errs, validateNames(g)...)
	return errors.Join(errs...)
}

// validateEdges checks that both endpoints of every edge exist.
func validateEdges(g *Graph) []error {
	var errs []error
	n := NodeIndex(len(g.Nodes))
	for l, e := range g.Edges {
		if e.Tail < 0 || e.Tail >= n {
			errs = append(errs, NewError(ErrInvalidReference, g.Name, ElementEdge, l,
				"tail %d out of range (graph has %d nodes)", e.Tail, n))
		}
		if e.Head < 0 || e.Head >= n {
			errs = append(errs, NewError(ErrInvalidReference, g.Name, ElementEdge, l,
				"head %d out of range (graph has %d nodes)", e.Head, n))
		}
	}
	return errs
}

// validateSubgraphs checks that every subgraph member exists and that the
// member lists are sorted without duplicates, as HasNode and HasEdge rely
// on binary search.
func validateSubgraphs(g *Graph) []error {
	var errs []error
	for s, sg := range g.Subgraphs {
		for _, i := range sg.Nodes {
			if i < 0 || int(i) >= len(g.Nodes) {
				errs = append(errs, NewError(ErrInvalidReference, g.Name, ElementSubgraph, s,
					"subgraph %q references node %d (graph has %d nodes)", sg.Name, i, len(g.Nodes)))
			}
		}
		for _, l := range sg.Edges {
			if l < 0 || int(l) >= len(g.Edges) {
				errs = append(errs, NewError(ErrInvalidReference, g.Name, ElementSubgraph, s,
					"subgraph %q references edge %d (graph has %d edges)", sg.Name, l, len(g.Edges)))
			}
		}
		if k := unsortedAt(sg.Nodes); k > 0 {
			errs = append(errs, NewError(ErrMalformedInput, g.Name, ElementSubgraph, s,
				"subgraph %q node members unsorted or repeated at position %d", sg.Name, k))
		}
		if k := unsortedAt(sg.Edges); k > 0 {
			errs = append(errs, NewError(ErrMalformedInput, g.Name, ElementSubgraph, s,
				"subgraph %q edge members unsorted or repeated at position %d", sg.Name, k))
		}
	}
	return errs
}

// unsortedAt returns the first position k where xs[k] <= xs[k-1], or -1.
func unsortedAt[T ~int](xs []T) int {
	for k := 1; k < len(xs); k++ {
		if xs[k] <= xs[k-1] {
			return k
		}
	}
	return -1
}

// validateNames checks that no two nodes share the same non-empty name.
func validateNames(g *Graph) []error {
	var errs []error
	first := make(map[string]int, len(g.Nodes))
	for i, node := range g.Nodes {
		if node.Name == "" {
			continue
		}
		if j, dup := first[node.Name]; dup {
			errs = append(errs, NewError(ErrMalformedInput, g.Name, ElementNode, i,
				"duplicate name %q (first used by node %d)", node.Name, j))
			continue
		}
		first[node.Name] = i
	}
	return errs
}
