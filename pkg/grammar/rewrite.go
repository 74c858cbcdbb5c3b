package grammar

import (
	"fmt"
	"strconv"

	"github.com/chazu/robogram/pkg/graph"
)

// ApplyRule rewrites target at the embedding lhsToTarget of rule.LHS and
// returns the result as a new graph. Target elements matched by LHS-only
// nodes and edges are deleted, RHS-only elements are added, and interface
// elements are kept with every attribute the rule changes overwritten.
// Unmatched target edges incident to a deleted node move to that node's
// replacement; without one the embedding is invalid.
//
// lhsToTarget.EdgeMapping may be nil, in which case each LHS edge is
// matched to the first unused target edge between its mapped endpoints.
// The output lists surviving target nodes and edges in their original
// order followed by the new RHS elements in RHS order. target is not
// modified.
func ApplyRule(rule *Rule, target *graph.Graph, lhsToTarget graph.GraphMapping) (*graph.Graph, error) {
	m, err := checkEmbedding(rule, target, lhsToTarget)
	if err != nil {
		return nil, fmt.Errorf("grammar: apply %q to %q: %w", rule.Name, target.Name, err)
	}
	r := &rewrite{rule: rule, target: target, m: m}
	r.markDeleted()
	if err := r.reanchor(); err != nil {
		return nil, fmt.Errorf("grammar: apply %q to %q: %w", rule.Name, target.Name, err)
	}
	return r.build(), nil
}

// checkEmbedding validates lhsToTarget against rule.LHS and target and
// returns a copy with every edge mapped onto a single target edge.
func checkEmbedding(rule *Rule, target *graph.Graph, lhsToTarget graph.GraphMapping) (graph.GraphMapping, error) {
	if err := rule.Validate(); err != nil {
		return graph.GraphMapping{}, err
	}
	lhs := rule.LHS
	m := lhsToTarget.Clone()
	if len(m.NodeMapping) != lhs.NodeCount() {
		return m, graph.NewError(graph.ErrInvalidReference, lhs.Name, graph.ElementMapping, -1,
			"node mapping has %d entries, pattern has %d nodes", len(m.NodeMapping), lhs.NodeCount())
	}
	for i, n := range m.NodeMapping {
		if n < 0 || int(n) >= target.NodeCount() {
			return m, graph.NewError(graph.ErrInvalidReference, target.Name, graph.ElementNode, i,
				"pattern node maps to %d, target has %d nodes", n, target.NodeCount())
		}
	}
	if !m.InjectiveOnNodes() {
		return m, graph.NewError(graph.ErrInvalidEmbedding, lhs.Name, graph.ElementMapping, -1,
			"node mapping is not injective")
	}

	if m.EdgeMapping == nil {
		m.EdgeMapping = make([][]graph.EdgeIndex, lhs.EdgeCount())
		used := make([]bool, target.EdgeCount())
		for l, e := range lhs.Edges {
			for _, te := range target.EdgesBetween(m.NodeMapping[e.Tail], m.NodeMapping[e.Head]) {
				if !used[te] {
					used[te] = true
					m.EdgeMapping[l] = []graph.EdgeIndex{te}
					break
				}
			}
			if m.EdgeMapping[l] == nil {
				return m, graph.NewError(graph.ErrInvalidEmbedding, lhs.Name, graph.ElementEdge, l,
					"no unused target edge from %d to %d", m.NodeMapping[e.Tail], m.NodeMapping[e.Head])
			}
		}
	}
	if err := m.Validate(lhs, target); err != nil {
		return m, err
	}

	used := make(map[graph.EdgeIndex]int, len(m.EdgeMapping))
	for l, path := range m.EdgeMapping {
		if len(path) != 1 {
			return m, graph.NewError(graph.ErrInvalidEmbedding, lhs.Name, graph.ElementEdge, l,
				"edge maps onto a path of %d edges, rewriting needs a direct edge", len(path))
		}
		if k, dup := used[path[0]]; dup {
			return m, graph.NewError(graph.ErrInvalidEmbedding, lhs.Name, graph.ElementEdge, l,
				"edge shares target edge %d with pattern edge %d", path[0], k)
		}
		used[path[0]] = l
	}
	return m, nil
}

// rewrite carries the bookkeeping of one rule application.
type rewrite struct {
	rule   *Rule
	target *graph.Graph
	m      graph.GraphMapping

	deletedNodes []bool
	deletedEdges []bool
	matchedEdges []bool
	// anchor[t] is the RHS node that replaces deleted target node t, or -1.
	anchor []graph.NodeIndex
}

func (r *rewrite) markDeleted() {
	r.deletedNodes = make([]bool, r.target.NodeCount())
	r.deletedEdges = make([]bool, r.target.EdgeCount())
	r.matchedEdges = make([]bool, r.target.EdgeCount())
	r.anchor = make([]graph.NodeIndex, r.target.NodeCount())
	for t := range r.anchor {
		r.anchor[t] = -1
	}

	keepNode := make([]bool, r.rule.LHS.NodeCount())
	for _, l := range r.rule.CommonToLHS.NodeMapping {
		keepNode[l] = true
	}
	keepEdge := make([]bool, r.rule.LHS.EdgeCount())
	for _, path := range r.rule.CommonToLHS.EdgeMapping {
		keepEdge[path[0]] = true
	}

	for l, t := range r.m.NodeMapping {
		if keepNode[l] {
			continue
		}
		r.deletedNodes[t] = true
		if rhs, ok := r.rule.ReplacementFor(graph.NodeIndex(l)); ok {
			r.anchor[t] = rhs
		}
	}
	for l, path := range r.m.EdgeMapping {
		r.matchedEdges[path[0]] = true
		if !keepEdge[l] {
			r.deletedEdges[path[0]] = true
		}
	}
}

// reanchor enforces the dangling condition: every unmatched edge touching
// a deleted node must have a replacement to move to.
func (r *rewrite) reanchor() error {
	for te, e := range r.target.Edges {
		if r.matchedEdges[te] {
			continue
		}
		for _, end := range []graph.NodeIndex{e.Tail, e.Head} {
			if r.deletedNodes[end] && r.anchor[end] < 0 {
				return graph.NewError(graph.ErrInvalidEmbedding, r.target.Name, graph.ElementEdge, te,
					"edge %d -> %d would dangle: node %q is deleted and has no replacement",
					e.Tail, e.Head, r.target.Nodes[end].Name)
			}
		}
	}
	return nil
}

func (r *rewrite) build() *graph.Graph {
	rule, target := r.rule, r.target
	out := graph.New(target.Name)

	nodeMap := make([]graph.NodeIndex, target.NodeCount())
	names := make(map[string]bool, target.NodeCount()+rule.RHS.NodeCount())
	for t, n := range target.Nodes {
		nodeMap[t] = -1
		if r.deletedNodes[t] {
			continue
		}
		nodeMap[t] = out.AddNode(n.Name, n.Attrs)
		names[n.Name] = true
	}

	// rhsNode[i] is the output node of RHS node i.
	rhsNode := make([]graph.NodeIndex, rule.RHS.NodeCount())
	for i := range rhsNode {
		rhsNode[i] = -1
	}
	for c, rn := range rule.CommonToRHS.NodeMapping {
		ln := rule.CommonToLHS.NodeMapping[c]
		t := r.m.NodeMapping[ln]
		rhsNode[rn] = nodeMap[t]
		attrs := &out.Nodes[nodeMap[t]].Attrs
		lhsAttrs, rhsAttrs := rule.LHS.Nodes[ln].Attrs, rule.RHS.Nodes[rn].Attrs
		attrs.Overlay(rhsAttrs, lhsAttrs.Changes(rhsAttrs))
	}
	for i, n := range rule.RHS.Nodes {
		if rhsNode[i] >= 0 {
			continue
		}
		name := uniqueName(n.Name, names)
		names[name] = true
		rhsNode[i] = out.AddNode(name, n.Attrs)
	}

	resolve := func(t graph.NodeIndex) graph.NodeIndex {
		if r.deletedNodes[t] {
			return rhsNode[r.anchor[t]]
		}
		return nodeMap[t]
	}
	edgeMap := make([]graph.EdgeIndex, target.EdgeCount())
	for te, e := range target.Edges {
		edgeMap[te] = -1
		if r.deletedEdges[te] {
			continue
		}
		edgeMap[te] = out.AddEdge(resolve(e.Tail), resolve(e.Head), e.Attrs)
	}

	rhsEdgeKept := make([]bool, rule.RHS.EdgeCount())
	for c, rpath := range rule.CommonToRHS.EdgeMapping {
		lpath := rule.CommonToLHS.EdgeMapping[c]
		re, le := rpath[0], lpath[0]
		rhsEdgeKept[re] = true
		te := r.m.EdgeMapping[le][0]
		attrs := &out.Edges[edgeMap[te]].Attrs
		lhsAttrs, rhsAttrs := rule.LHS.Edges[le].Attrs, rule.RHS.Edges[re].Attrs
		attrs.Overlay(rhsAttrs, lhsAttrs.Changes(rhsAttrs))
	}
	for re, e := range rule.RHS.Edges {
		if rhsEdgeKept[re] {
			continue
		}
		out.AddEdge(rhsNode[e.Tail], rhsNode[e.Head], e.Attrs)
	}

	out.Subgraphs = graph.RemapSubgraphs(target.Subgraphs, nodeMap, edgeMap)
	return out
}

// uniqueName returns base if unused, otherwise the first free base_k.
// Unnamed nodes stay unnamed.
func uniqueName(base string, used map[string]bool) string {
	if base == "" || !used[base] {
		return base
	}
	for k := 1; ; k++ {
		name := base + "_" + strconv.Itoa(k)
		if !used[name] {
			return name
		}
	}
}
