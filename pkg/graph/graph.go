package graph

import (
	"fmt"
	"slices"
)

// NodeIndex is the position of a node in Graph.Nodes. It is only valid
// for the graph snapshot it was obtained from.
type NodeIndex int

// EdgeIndex is the position of an edge in Graph.Edges.
type EdgeIndex int

// Node is a link type in the design graph.
type Node struct {
	Name  string         `json:"name"`
	Attrs NodeAttributes `json:"attrs"`
}

// Edge connects a parent link (Tail) to a child link (Head).
type Edge struct {
	Tail  NodeIndex      `json:"tail"`
	Head  NodeIndex      `json:"head"`
	Attrs EdgeAttributes `json:"attrs"`
}

// Subgraph is a named, possibly overlapping group of nodes and edges with
// default attributes. Nodes and Edges are kept sorted and duplicate free.
type Subgraph struct {
	Name      string         `json:"name"`
	Nodes     []NodeIndex    `json:"nodes,omitempty"`
	Edges     []EdgeIndex    `json:"edges,omitempty"`
	NodeAttrs NodeAttributes `json:"node_attrs"`
	EdgeAttrs EdgeAttributes `json:"edge_attrs"`
}

// HasNode reports whether node i belongs to the subgraph.
func (s *Subgraph) HasNode(i NodeIndex) bool {
	_, ok := slices.BinarySearch(s.Nodes, i)
	return ok
}

// HasEdge reports whether edge l belongs to the subgraph.
func (s *Subgraph) HasEdge(l EdgeIndex) bool {
	_, ok := slices.BinarySearch(s.Edges, l)
	return ok
}

// AddNode inserts i, keeping Nodes sorted.
func (s *Subgraph) AddNode(i NodeIndex) {
	pos, ok := slices.BinarySearch(s.Nodes, i)
	if !ok {
		s.Nodes = slices.Insert(s.Nodes, pos, i)
	}
}

// AddEdge inserts l, keeping Edges sorted.
func (s *Subgraph) AddEdge(l EdgeIndex) {
	pos, ok := slices.BinarySearch(s.Edges, l)
	if !ok {
		s.Edges = slices.Insert(s.Edges, pos, l)
	}
}

// Graph is an attributed directed multigraph. Builders populate it with
// AddNode/AddEdge/AddSubgraph; afterwards it is treated as read-only and
// every transformation returns a new Graph.
type Graph struct {
	Name      string     `json:"name"`
	Nodes     []Node     `json:"nodes"`
	Edges     []Edge     `json:"edges"`
	Subgraphs []Subgraph `json:"subgraphs,omitempty"`
}

// New creates an empty graph with the given name.
func New(name string) *Graph {
	return &Graph{Name: name}
}

// AddNode appends a node and returns its index. It does not check for
// duplicate names; Validate does.
func (g *Graph) AddNode(name string, attrs NodeAttributes) NodeIndex {
	g.Nodes = append(g.Nodes, Node{Name: name, Attrs: attrs})
	return NodeIndex(len(g.Nodes) - 1)
}

// AddEdge appends an edge from tail to head and returns its index.
func (g *Graph) AddEdge(tail, head NodeIndex, attrs EdgeAttributes) EdgeIndex {
	g.Edges = append(g.Edges, Edge{Tail: tail, Head: head, Attrs: attrs})
	return EdgeIndex(len(g.Edges) - 1)
}

// AddSubgraph appends an empty subgraph with default attributes and
// returns a pointer to it for population during construction.
func (g *Graph) AddSubgraph(name string) *Subgraph {
	g.Subgraphs = append(g.Subgraphs, Subgraph{
		Name:      name,
		NodeAttrs: DefaultNodeAttributes(),
		EdgeAttrs: DefaultEdgeAttributes(),
	})
	return &g.Subgraphs[len(g.Subgraphs)-1]
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.Edges)
}

// Lookup returns the index of the node with the given name.
func (g *Graph) Lookup(name string) (NodeIndex, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].Name == name {
			return NodeIndex(i), true
		}
	}
	return -1, false
}

// MustLookup returns the index of the node with the given name, or panics.
func (g *Graph) MustLookup(name string) NodeIndex {
	i, ok := g.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("graph %q: no node named %q", g.Name, name))
	}
	return i
}

// Subgraph returns the first subgraph with the given name, or nil.
func (g *Graph) Subgraph(name string) *Subgraph {
	for i := range g.Subgraphs {
		if g.Subgraphs[i].Name == name {
			return &g.Subgraphs[i]
		}
	}
	return nil
}

// OutEdges returns the indices of edges whose tail is n, in edge order.
func (g *Graph) OutEdges(n NodeIndex) []EdgeIndex {
	var out []EdgeIndex
	for l := range g.Edges {
		if g.Edges[l].Tail == n {
			out = append(out, EdgeIndex(l))
		}
	}
	return out
}

// InEdges returns the indices of edges whose head is n, in edge order.
func (g *Graph) InEdges(n NodeIndex) []EdgeIndex {
	var in []EdgeIndex
	for l := range g.Edges {
		if g.Edges[l].Head == n {
			in = append(in, EdgeIndex(l))
		}
	}
	return in
}

// EdgesBetween returns every edge directed from tail to head, in edge order.
// Parallel edges are returned individually.
func (g *Graph) EdgesBetween(tail, head NodeIndex) []EdgeIndex {
	var between []EdgeIndex
	for l := range g.Edges {
		if g.Edges[l].Tail == tail && g.Edges[l].Head == head {
			between = append(between, EdgeIndex(l))
		}
	}
	return between
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		Name:  g.Name,
		Nodes: slices.Clone(g.Nodes),
		Edges: slices.Clone(g.Edges),
	}
	for _, sg := range g.Subgraphs {
		sg.Nodes = slices.Clone(sg.Nodes)
		sg.Edges = slices.Clone(sg.Edges)
		c.Subgraphs = append(c.Subgraphs, sg)
	}
	return c
}

// Induced returns the subgraph of g induced by the given node and edge
// sets, together with the index maps from g into the result (-1 for
// elements that were not kept). Edges whose endpoints are not both kept
// are dropped. Subgraph memberships are restricted to the kept elements.
func (g *Graph) Induced(name string, keepNode func(NodeIndex) bool, keepEdge func(EdgeIndex) bool) (*Graph, []NodeIndex, []EdgeIndex) {
	out := New(name)
	nodeMap := make([]NodeIndex, len(g.Nodes))
	for i, n := range g.Nodes {
		nodeMap[i] = -1
		if keepNode(NodeIndex(i)) {
			nodeMap[i] = out.AddNode(n.Name, n.Attrs)
		}
	}

	edgeMap := make([]EdgeIndex, len(g.Edges))
	for l, e := range g.Edges {
		edgeMap[l] = -1
		if !keepEdge(EdgeIndex(l)) || nodeMap[e.Tail] < 0 || nodeMap[e.Head] < 0 {
			continue
		}
		edgeMap[l] = out.AddEdge(nodeMap[e.Tail], nodeMap[e.Head], e.Attrs)
	}

	out.Subgraphs = RemapSubgraphs(g.Subgraphs, nodeMap, edgeMap)
	return out, nodeMap, edgeMap
}

// RemapSubgraphs rewrites subgraph memberships through the given index
// maps, dropping members that map to -1.
func RemapSubgraphs(subgraphs []Subgraph, nodeMap []NodeIndex, edgeMap []EdgeIndex) []Subgraph {
	if len(subgraphs) == 0 {
		return nil
	}
	out := make([]Subgraph, 0, len(subgraphs))
	for _, sg := range subgraphs {
		nsg := Subgraph{Name: sg.Name, NodeAttrs: sg.NodeAttrs, EdgeAttrs: sg.EdgeAttrs}
		for _, i := range sg.Nodes {
			if int(i) < len(nodeMap) && nodeMap[i] >= 0 {
				nsg.AddNode(nodeMap[i])
			}
		}
		for _, l := range sg.Edges {
			if int(l) < len(edgeMap) && edgeMap[l] >= 0 {
				nsg.AddEdge(edgeMap[l])
			}
		}
		out = append(out, nsg)
	}
	return out
}

