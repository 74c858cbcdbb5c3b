// Package grammar implements double-pushout graph rewriting over
// graph.Graph values: rule construction from annotated rule graphs,
// subgraph matching and rule application.
package grammar

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/chazu/robogram/pkg/graph"
)

// Side subgraph names and node name prefixes used in rule graphs.
const (
	LeftSubgraph  = "L"
	RightSubgraph = "R"
	LeftPrefix    = "L:"
	RightPrefix   = "R:"
)

// Replacement records that an LHS-only node is re-anchored onto an
// RHS-only node: target edges left dangling by deleting LHS are moved
// onto RHS.
type Replacement struct {
	LHS graph.NodeIndex `json:"lhs"`
	RHS graph.NodeIndex `json:"rhs"`
}

// Rule is a production rule LHS <- Common -> RHS. Both mappings are
// injective on nodes and map edges onto single edges.
type Rule struct {
	Name         string             `json:"name"`
	LHS          *graph.Graph       `json:"lhs"`
	RHS          *graph.Graph       `json:"rhs"`
	Common       *graph.Graph       `json:"common"`
	CommonToLHS  graph.GraphMapping `json:"common_to_lhs"`
	CommonToRHS  graph.GraphMapping `json:"common_to_rhs"`
	Replacements []Replacement      `json:"replacements,omitempty"`
}

// ReplacementFor returns the RHS node that replaces LHS node l.
func (r *Rule) ReplacementFor(l graph.NodeIndex) (graph.NodeIndex, bool) {
	for _, rep := range r.Replacements {
		if rep.LHS == l {
			return rep.RHS, true
		}
	}
	return -1, false
}

// Validate checks the rule's internal consistency: every graph is
// structurally valid and both mappings are valid, injective embeddings
// of Common.
func (r *Rule) Validate() error {
	if r.LHS == nil || r.RHS == nil || r.Common == nil {
		return graph.NewError(graph.ErrMalformedInput, r.Name, graph.ElementGraph, -1, "rule is missing a side")
	}
	for _, g := range []*graph.Graph{r.LHS, r.RHS, r.Common} {
		if err := graph.Validate(g); err != nil {
			return err
		}
	}
	for _, side := range []struct {
		m     graph.GraphMapping
		graph *graph.Graph
	}{{r.CommonToLHS, r.LHS}, {r.CommonToRHS, r.RHS}} {
		if err := side.m.Validate(r.Common, side.graph); err != nil {
			return err
		}
		if !side.m.InjectiveOnNodes() {
			return graph.NewError(graph.ErrInvalidEmbedding, r.Name, graph.ElementMapping, -1,
				"common graph is not embedded injectively into %q", side.graph.Name)
		}
	}
	for _, rep := range r.Replacements {
		if rep.LHS < 0 || int(rep.LHS) >= r.LHS.NodeCount() || rep.RHS < 0 || int(rep.RHS) >= r.RHS.NodeCount() {
			return graph.NewError(graph.ErrInvalidReference, r.Name, graph.ElementMapping, -1,
				"replacement %d -> %d out of range", rep.LHS, rep.RHS)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Rule construction
// ---------------------------------------------------------------------------

type side uint8

const (
	sideL side = 1 << iota
	sideR
	sideBoth = sideL | sideR
)

// ruleBuilder holds the classification of one rule graph.
type ruleBuilder struct {
	g        *graph.Graph
	nodeSide []side
	edgeSide []side
	base     []string

	lhsByBase map[string]graph.NodeIndex
	rhsByBase map[string]graph.NodeIndex

	// partner[i] is the node on the opposite side that i is identified
	// with, i itself for a node on both sides, or -1.
	partner []graph.NodeIndex
	// edgePartner likewise pairs edges across sides.
	edgePartner []graph.EdgeIndex

	replacements []Replacement
}

func (b *ruleBuilder) fail(elem graph.ElementKind, index int, format string, args ...any) error {
	return graph.NewError(graph.ErrMalformedInput, b.g.Name, elem, index, format, args...)
}

// CreateRuleFromGraph decomposes a rule graph into a Rule. Nodes and
// edges are assigned to the left and/or right side by membership in the
// subgraphs named "L" and "R"; nodes in neither take their side from an
// "L:" or "R:" name prefix, and edges in neither take it from their
// endpoints. Elements present on both sides, LHS/RHS node pairs sharing
// a base name, and LHS/RHS edge pairs sharing an id form the interface.
func CreateRuleFromGraph(g *graph.Graph) (*Rule, error) {
	if err := graph.Validate(g); err != nil {
		return nil, fmt.Errorf("grammar: rule graph %q: %w", g.Name, err)
	}
	b := &ruleBuilder{
		g:           g,
		nodeSide:    make([]side, len(g.Nodes)),
		edgeSide:    make([]side, len(g.Edges)),
		base:        make([]string, len(g.Nodes)),
		lhsByBase:   make(map[string]graph.NodeIndex),
		rhsByBase:   make(map[string]graph.NodeIndex),
		partner:     make([]graph.NodeIndex, len(g.Nodes)),
		edgePartner: make([]graph.EdgeIndex, len(g.Edges)),
	}
	steps := []func() error{
		b.classifyNodes,
		b.pairNodes,
		b.classifyEdges,
		b.pairEdges,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	rule := b.build()
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("grammar: rule %q: %w", g.Name, err)
	}
	return rule, nil
}

// classifyNodes assigns every node a side and a base name.
func (b *ruleBuilder) classifyNodes() error {
	lsg, rsg := b.g.Subgraph(LeftSubgraph), b.g.Subgraph(RightSubgraph)
	var errs []error
	for i, n := range b.g.Nodes {
		idx := graph.NodeIndex(i)
		var member side
		if lsg != nil && lsg.HasNode(idx) {
			member |= sideL
		}
		if rsg != nil && rsg.HasNode(idx) {
			member |= sideR
		}

		var prefixed side
		base := n.Name
		switch {
		case strings.HasPrefix(n.Name, LeftPrefix):
			prefixed, base = sideL, strings.TrimPrefix(n.Name, LeftPrefix)
		case strings.HasPrefix(n.Name, RightPrefix):
			prefixed, base = sideR, strings.TrimPrefix(n.Name, RightPrefix)
		}

		switch {
		case member == 0 && prefixed == 0:
			errs = append(errs, b.fail(graph.ElementNode, i, "node %q is on neither side", n.Name))
			continue
		case member == 0:
			member = prefixed
		case prefixed != 0 && member != prefixed:
			errs = append(errs, b.fail(graph.ElementNode, i,
				"node %q prefix contradicts its subgraph membership", n.Name))
			continue
		}
		b.nodeSide[i] = member
		b.base[i] = base
	}
	return errors.Join(errs...)
}

// pairNodes indexes nodes by base name per side and identifies interface
// nodes.
func (b *ruleBuilder) pairNodes() error {
	var errs []error
	for i := range b.g.Nodes {
		idx := graph.NodeIndex(i)
		b.partner[i] = -1
		for _, s := range []struct {
			bit   side
			index map[string]graph.NodeIndex
			name  string
		}{{sideL, b.lhsByBase, "left"}, {sideR, b.rhsByBase, "right"}} {
			if b.nodeSide[i]&s.bit == 0 {
				continue
			}
			if j, dup := s.index[b.base[i]]; dup {
				errs = append(errs, b.fail(graph.ElementNode, i,
					"ambiguous: base name %q used twice on the %s side (first by node %d)", b.base[i], s.name, j))
				continue
			}
			s.index[b.base[i]] = idx
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	for base, l := range b.lhsByBase {
		if r, ok := b.rhsByBase[base]; ok {
			b.partner[l] = r
			b.partner[r] = l
		}
	}
	return nil
}

// classifyEdges assigns every edge a side.
func (b *ruleBuilder) classifyEdges() error {
	lsg, rsg := b.g.Subgraph(LeftSubgraph), b.g.Subgraph(RightSubgraph)
	var errs []error
	for l, e := range b.g.Edges {
		idx := graph.EdgeIndex(l)
		b.edgePartner[l] = -1
		var member side
		if lsg != nil && lsg.HasEdge(idx) {
			member |= sideL
		}
		if rsg != nil && rsg.HasEdge(idx) {
			member |= sideR
		}
		ends := b.nodeSide[e.Tail] & b.nodeSide[e.Head]
		if member == 0 {
			member = ends
		}
		if member == 0 {
			errs = append(errs, b.fail(graph.ElementEdge, l,
				"edge %q -> %q connects nodes on different sides", b.g.Nodes[e.Tail].Name, b.g.Nodes[e.Head].Name))
			continue
		}
		if member&^ends != 0 {
			errs = append(errs, b.fail(graph.ElementEdge, l,
				"edge %q -> %q has an endpoint missing from its side", b.g.Nodes[e.Tail].Name, b.g.Nodes[e.Head].Name))
			continue
		}
		b.edgeSide[l] = member
		if member == sideBoth {
			b.edgePartner[l] = idx
		}
	}
	return errors.Join(errs...)
}

// pairEdges matches LHS-only and RHS-only edges by id. A pair whose
// endpoints correspond becomes an interface edge; a pair anchored on the
// same interface node at one end and on side-only nodes at the other end
// records a replacement.
func (b *ruleBuilder) pairEdges() error {
	lhsByID := make(map[string]graph.EdgeIndex)
	rhsByID := make(map[string]graph.EdgeIndex)
	var errs []error
	for l, e := range b.g.Edges {
		id := e.Attrs.ID
		if id == "" {
			continue
		}
		for _, s := range []struct {
			bit   side
			index map[string]graph.EdgeIndex
		}{{sideL, lhsByID}, {sideR, rhsByID}} {
			if b.edgeSide[l]&s.bit == 0 {
				continue
			}
			if k, dup := s.index[id]; dup {
				errs = append(errs, b.fail(graph.ElementEdge, l,
					"ambiguous: edge id %q used twice on one side (first by edge %d)", id, k))
				continue
			}
			s.index[id] = graph.EdgeIndex(l)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	ids := make([]string, 0, len(lhsByID))
	for id := range lhsByID {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		le := lhsByID[id]
		re, ok := rhsByID[id]
		if !ok || le == re {
			continue
		}
		if b.edgeSide[le] != sideL || b.edgeSide[re] != sideR {
			errs = append(errs, b.fail(graph.ElementEdge, int(re),
				"ambiguous: edge id %q pairs an edge present on both sides", id))
			continue
		}
		lhs, rhs := b.g.Edges[le], b.g.Edges[re]
		tailOK := b.partner[lhs.Tail] == rhs.Tail
		headOK := b.partner[lhs.Head] == rhs.Head
		switch {
		case tailOK && headOK:
			b.edgePartner[le] = re
			b.edgePartner[re] = le
		case tailOK && b.sideOnly(lhs.Head, rhs.Head):
			errs = append(errs, b.addReplacement(re, lhs.Head, rhs.Head))
		case headOK && b.sideOnly(lhs.Tail, rhs.Tail):
			errs = append(errs, b.addReplacement(re, lhs.Tail, rhs.Tail))
		default:
			errs = append(errs, b.fail(graph.ElementEdge, int(re),
				"interface edge %q endpoints do not correspond on both sides", id))
		}
	}
	return errors.Join(errs...)
}

// sideOnly reports whether l is LHS-only and r is RHS-only.
func (b *ruleBuilder) sideOnly(l, r graph.NodeIndex) bool {
	return b.nodeSide[l] == sideL && b.nodeSide[r] == sideR && b.partner[l] < 0 && b.partner[r] < 0
}

// addReplacement records l -> r, keyed by rule graph indices until build
// translates them into LHS/RHS indices.
func (b *ruleBuilder) addReplacement(edge graph.EdgeIndex, l, r graph.NodeIndex) error {
	for _, rep := range b.replacements {
		if rep.LHS == l && rep.RHS != r {
			return b.fail(graph.ElementEdge, int(edge),
				"ambiguous: node %q is replaced by both %q and %q",
				b.g.Nodes[l].Name, b.g.Nodes[rep.RHS].Name, b.g.Nodes[r].Name)
		}
		if rep.LHS == l {
			return nil
		}
	}
	b.replacements = append(b.replacements, Replacement{LHS: l, RHS: r})
	return nil
}

// sideGraph extracts one side as an induced graph with base names.
func (b *ruleBuilder) sideGraph(suffix string, bit side) (*graph.Graph, []graph.NodeIndex, []graph.EdgeIndex) {
	out, nodeMap, edgeMap := b.g.Induced(b.g.Name+suffix,
		func(i graph.NodeIndex) bool { return b.nodeSide[i]&bit != 0 },
		func(l graph.EdgeIndex) bool { return b.edgeSide[l]&bit != 0 })
	for i, j := range nodeMap {
		if j >= 0 {
			out.Nodes[j].Name = b.base[i]
		}
	}
	out.Subgraphs = nil
	return out, nodeMap, edgeMap
}

func (b *ruleBuilder) build() *Rule {
	lhs, lhsNodes, lhsEdges := b.sideGraph(".lhs", sideL)
	rhs, rhsNodes, rhsEdges := b.sideGraph(".rhs", sideR)
	common := graph.New(b.g.Name + ".common")
	rule := &Rule{Name: b.g.Name, LHS: lhs, RHS: rhs, Common: common}

	// Common elements follow the order of their LHS representatives.
	for i, n := range b.g.Nodes {
		p := b.partner[i]
		if p < 0 || b.nodeSide[i]&sideL == 0 {
			continue
		}
		common.AddNode(b.base[i], n.Attrs)
		rule.CommonToLHS.NodeMapping = append(rule.CommonToLHS.NodeMapping, lhsNodes[i])
		rule.CommonToRHS.NodeMapping = append(rule.CommonToRHS.NodeMapping, rhsNodes[p])
	}
	commonOf := make(map[graph.NodeIndex]graph.NodeIndex, len(common.Nodes))
	for c, l := range rule.CommonToLHS.NodeMapping {
		commonOf[l] = graph.NodeIndex(c)
	}
	for l, e := range b.g.Edges {
		p := b.edgePartner[l]
		if p < 0 || b.edgeSide[l]&sideL == 0 {
			continue
		}
		common.AddEdge(commonOf[lhsNodes[e.Tail]], commonOf[lhsNodes[e.Head]], e.Attrs)
		rule.CommonToLHS.EdgeMapping = append(rule.CommonToLHS.EdgeMapping, []graph.EdgeIndex{lhsEdges[l]})
		rule.CommonToRHS.EdgeMapping = append(rule.CommonToRHS.EdgeMapping, []graph.EdgeIndex{rhsEdges[p]})
	}

	for _, rep := range b.replacements {
		rule.Replacements = append(rule.Replacements, Replacement{LHS: lhsNodes[rep.LHS], RHS: rhsNodes[rep.RHS]})
	}
	slices.SortFunc(rule.Replacements, func(x, y Replacement) int { return int(x.LHS - y.LHS) })
	return rule
}

// IsInterfaceNode reports whether LHS node l is preserved by the rule.
func (r *Rule) IsInterfaceNode(l graph.NodeIndex) bool {
	return slices.Contains(r.CommonToLHS.NodeMapping, l)
}

// String summarizes the rule for logs.
func (r *Rule) String() string {
	return fmt.Sprintf("rule %q: lhs %d/%d, rhs %d/%d, common %d/%d (nodes/edges)",
		r.Name, r.LHS.NodeCount(), r.LHS.EdgeCount(), r.RHS.NodeCount(), r.RHS.EdgeCount(),
		r.Common.NodeCount(), r.Common.EdgeCount())
}
