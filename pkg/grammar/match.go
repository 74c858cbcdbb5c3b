package grammar

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chazu/robogram/pkg/graph"
)

// ErrSearchBudget is returned by FindMatchesLimit when the search state
// budget is exhausted before the search space is.
var ErrSearchBudget = errors.New("search budget exhausted")

// FindMatches returns every embedding of pattern into target: node
// mappings are injective, each pattern edge maps onto a distinct target
// edge with the same direction, and every attribute field set on a
// pattern element equals the corresponding target field. Results are in
// a deterministic order. An empty result is not an error.
func FindMatches(pattern, target *graph.Graph) []graph.GraphMapping {
	var matches []graph.GraphMapping
	s := NewSearch(pattern, target)
	for m, ok := s.Next(); ok; m, ok = s.Next() {
		matches = append(matches, m)
	}
	return matches
}

// FindMatchesLimit is FindMatches with a bound on the number of expanded
// search states. A budget of zero or less means no bound. When the
// budget runs out with partial states still pending, the matches found
// so far are returned together with an error wrapping ErrSearchBudget.
func FindMatchesLimit(pattern, target *graph.Graph, budget int) ([]graph.GraphMapping, error) {
	var matches []graph.GraphMapping
	s := NewSearch(pattern, target)
	for {
		if budget > 0 && s.Expanded() >= budget && !s.Done() {
			// complete states need no further expansion
			for !s.Done() && s.plan.complete(s.stack[len(s.stack)-1]) {
				m, _ := s.step()
				matches = append(matches, m)
			}
			if s.Done() {
				return matches, nil
			}
			return matches, fmt.Errorf("grammar: matching %q in %q: %w after %d states (%d matches)",
				pattern.Name, target.Name, ErrSearchBudget, s.Expanded(), len(matches))
		}
		m, ok := s.step()
		if ok {
			matches = append(matches, m)
		}
		if s.Done() {
			return matches, nil
		}
	}
}

// ---------------------------------------------------------------------------
// Search plan
// ---------------------------------------------------------------------------

// plan is the read-only part of a search, shared by every state and by
// every copy of a Search.
type plan struct {
	pattern *graph.Graph
	target  *graph.Graph

	// order lists pattern nodes so that each node after the first of its
	// component is adjacent to an earlier one.
	order []graph.NodeIndex
	// checks[k] are the pattern edges whose endpoints are both placed once
	// order[k] is placed, in edge order.
	checks [][]graph.EdgeIndex

	patIn, patOut []int
	tgtIn, tgtOut []int
}

func newPlan(pattern, target *graph.Graph) *plan {
	p := &plan{pattern: pattern, target: target}
	p.patIn, p.patOut = degrees(pattern)
	p.tgtIn, p.tgtOut = degrees(target)
	p.order = bfsOrder(pattern)

	pos := make([]int, len(pattern.Nodes))
	for k, n := range p.order {
		pos[n] = k
	}
	p.checks = make([][]graph.EdgeIndex, len(p.order))
	for l, e := range pattern.Edges {
		k := max(pos[e.Tail], pos[e.Head])
		p.checks[k] = append(p.checks[k], graph.EdgeIndex(l))
	}
	return p
}

func degrees(g *graph.Graph) (in, out []int) {
	in = make([]int, len(g.Nodes))
	out = make([]int, len(g.Nodes))
	for _, e := range g.Edges {
		out[e.Tail]++
		in[e.Head]++
	}
	return in, out
}

// bfsOrder walks the pattern's underlying undirected graph breadth first,
// starting each component at its lowest-index node. Neighbours are
// visited in edge order.
func bfsOrder(g *graph.Graph) []graph.NodeIndex {
	adj := make([][]graph.NodeIndex, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.Tail] = append(adj[e.Tail], e.Head)
		adj[e.Head] = append(adj[e.Head], e.Tail)
	}
	seen := make([]bool, len(g.Nodes))
	order := make([]graph.NodeIndex, 0, len(g.Nodes))
	for start := range g.Nodes {
		if seen[start] {
			continue
		}
		seen[start] = true
		queue := []graph.NodeIndex{graph.NodeIndex(start)}
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			order = append(order, n)
			for _, m := range adj[n] {
				if !seen[m] {
					seen[m] = true
					queue = append(queue, m)
				}
			}
		}
	}
	return order
}

// ---------------------------------------------------------------------------
// Search state
// ---------------------------------------------------------------------------

// state is one partial assignment. States are never shared between
// stack entries, so copying a stack copies the search.
type state struct {
	depth     int               // number of placed pattern nodes (prefix of plan.order)
	nodes     []graph.NodeIndex // pattern node -> target node, -1 if unplaced
	edges     []graph.EdgeIndex // pattern edge -> target edge, -1 if unplaced
	usedNodes []bool            // target nodes already in the image
	usedEdges []bool            // target edges already in the image
}

func (st *state) clone() *state {
	return &state{
		depth:     st.depth,
		nodes:     slices.Clone(st.nodes),
		edges:     slices.Clone(st.edges),
		usedNodes: slices.Clone(st.usedNodes),
		usedEdges: slices.Clone(st.usedEdges),
	}
}

func (st *state) mapping() graph.GraphMapping {
	m := graph.GraphMapping{
		NodeMapping: slices.Clone(st.nodes),
		EdgeMapping: make([][]graph.EdgeIndex, len(st.edges)),
	}
	for l, te := range st.edges {
		m.EdgeMapping[l] = []graph.EdgeIndex{te}
	}
	return m
}

func (p *plan) root() *state {
	st := &state{
		nodes:     make([]graph.NodeIndex, len(p.pattern.Nodes)),
		edges:     make([]graph.EdgeIndex, len(p.pattern.Edges)),
		usedNodes: make([]bool, len(p.target.Nodes)),
		usedEdges: make([]bool, len(p.target.Edges)),
	}
	for i := range st.nodes {
		st.nodes[i] = -1
	}
	for l := range st.edges {
		st.edges[l] = -1
	}
	return st
}

func (p *plan) complete(st *state) bool {
	return st.depth == len(p.order)
}

// compatibleNode reports whether pattern node pn may map onto target node tn.
func (p *plan) compatibleNode(pn, tn graph.NodeIndex) bool {
	return p.tgtIn[tn] >= p.patIn[pn] &&
		p.tgtOut[tn] >= p.patOut[pn] &&
		p.pattern.Nodes[pn].Attrs.Matches(p.target.Nodes[tn].Attrs)
}

// expand returns the children of st in match order: target candidates
// for the next pattern node in index order, then edge choices in edge
// order.
func (p *plan) expand(st *state) []*state {
	pn := p.order[st.depth]
	var children []*state
	for t := range p.target.Nodes {
		tn := graph.NodeIndex(t)
		if st.usedNodes[tn] || !p.compatibleNode(pn, tn) {
			continue
		}
		next := st.clone()
		next.nodes[pn] = tn
		next.usedNodes[tn] = true
		next.depth++
		children = p.assignEdges(next, p.checks[st.depth], children)
	}
	return children
}

// assignEdges branches over every distinct target edge choice for the
// pending pattern edges and appends the resulting states to out.
func (p *plan) assignEdges(st *state, pending []graph.EdgeIndex, out []*state) []*state {
	if len(pending) == 0 {
		return append(out, st)
	}
	pl := pending[0]
	pe := p.pattern.Edges[pl]
	tail, head := st.nodes[pe.Tail], st.nodes[pe.Head]
	for _, tl := range p.target.EdgesBetween(tail, head) {
		if st.usedEdges[tl] || !pe.Attrs.Matches(p.target.Edges[tl].Attrs) {
			continue
		}
		next := st.clone()
		next.edges[pl] = tl
		next.usedEdges[tl] = true
		out = p.assignEdges(next, pending[1:], out)
	}
	return out
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

// Search enumerates matches of a pattern lazily. The pending partial
// assignments live on an explicit stack, so a Search can be paused,
// cloned and resumed. A Search is not safe for concurrent use; clones
// are independent.
type Search struct {
	plan     *plan
	stack    []*state
	expanded int
}

// NewSearch prepares a search for embeddings of pattern into target.
func NewSearch(pattern, target *graph.Graph) *Search {
	p := newPlan(pattern, target)
	return &Search{plan: p, stack: []*state{p.root()}}
}

// Next returns the next match in order, or false when the search space
// is exhausted.
func (s *Search) Next() (graph.GraphMapping, bool) {
	for !s.Done() {
		if m, ok := s.step(); ok {
			return m, true
		}
	}
	return graph.GraphMapping{}, false
}

// step pops one state. A complete state is returned as a match; any
// other state is expanded and its children pushed so that the first
// child is popped next.
func (s *Search) step() (graph.GraphMapping, bool) {
	n := len(s.stack) - 1
	st := s.stack[n]
	s.stack = s.stack[:n]
	if s.plan.complete(st) {
		return st.mapping(), true
	}
	s.expanded++
	children := s.plan.expand(st)
	for i := len(children) - 1; i >= 0; i-- {
		s.stack = append(s.stack, children[i])
	}
	return graph.GraphMapping{}, false
}

// Done reports whether the search space is exhausted.
func (s *Search) Done() bool {
	return len(s.stack) == 0
}

// Expanded returns the number of partial assignments expanded so far.
func (s *Search) Expanded() int {
	return s.expanded
}

// Clone returns an independent copy of the search at its current point.
func (s *Search) Clone() *Search {
	c := &Search{plan: s.plan, expanded: s.expanded, stack: make([]*state, len(s.stack))}
	for i, st := range s.stack {
		c.stack[i] = st.clone()
	}
	return c
}
