package graph

import (
	"errors"
	"fmt"
)

// Builder assembles a Graph from nested declarations the way textual
// graph sources describe them: nodes are created on first mention,
// defaults declared in a scope apply to elements first declared inside it,
// and elements join every named subgraph that encloses them. Attribute
// errors are collected and reported together by Graph.
type Builder struct {
	g    *Graph
	errs []error
}

// Scope is one level of declaration nesting: the graph body or a
// subgraph.
type Scope struct {
	b         *Builder
	parent    *Scope
	subgraph  int // index into Graph.Subgraphs, -1 if the scope has no subgraph
	nodePairs []AttrPair
	edgePairs []AttrPair
}

// NewBuilder starts an empty graph with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{g: New(name)}
}

// Root returns the scope of the graph body.
func (b *Builder) Root() *Scope {
	return &Scope{b: b, subgraph: -1}
}

// Graph returns the built graph after checking it with Validate. Every
// attribute error recorded during construction is returned joined.
func (b *Builder) Graph() (*Graph, error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, fmt.Errorf("graph %q: %w", b.g.Name, err)
	}
	if err := Validate(b.g); err != nil {
		return nil, err
	}
	return b.g, nil
}

// Subgraph opens a nested scope. A name seen before reopens the same
// subgraph; an empty name opens an anonymous scope that only carries
// defaults.
func (s *Scope) Subgraph(name string) *Scope {
	child := &Scope{b: s.b, parent: s, subgraph: -1}
	if name == "" {
		return child
	}
	g := s.b.g
	for i := range g.Subgraphs {
		if g.Subgraphs[i].Name == name {
			child.subgraph = i
			return child
		}
	}
	g.AddSubgraph(name)
	child.subgraph = len(g.Subgraphs) - 1
	return child
}

// NodeDefaults adds node defaults to the scope and to its subgraph.
func (s *Scope) NodeDefaults(pairs []AttrPair) {
	s.nodePairs = append(s.nodePairs, pairs...)
	if s.subgraph >= 0 {
		sub := &s.b.g.Subgraphs[s.subgraph]
		if err := UpdateNodeAttributes(&sub.NodeAttrs, pairs); err != nil {
			s.b.errs = append(s.b.errs, fmt.Errorf("subgraph %q: %w", sub.Name, err))
		}
	}
}

// EdgeDefaults adds edge defaults to the scope and to its subgraph.
func (s *Scope) EdgeDefaults(pairs []AttrPair) {
	s.edgePairs = append(s.edgePairs, pairs...)
	if s.subgraph >= 0 {
		sub := &s.b.g.Subgraphs[s.subgraph]
		if err := UpdateEdgeAttributes(&sub.EdgeAttrs, pairs); err != nil {
			s.b.errs = append(s.b.errs, fmt.Errorf("subgraph %q: %w", sub.Name, err))
		}
	}
}

func (s *Scope) nodeDefaults() []AttrPair {
	if s == nil {
		return nil
	}
	return append(s.parent.nodeDefaults(), s.nodePairs...)
}

func (s *Scope) edgeDefaults() []AttrPair {
	if s == nil {
		return nil
	}
	return append(s.parent.edgeDefaults(), s.edgePairs...)
}

// Node declares a node and applies pairs to it. A new node starts from
// the defaults of every enclosing scope, outermost first; a node declared
// before keeps its attributes and only receives pairs.
func (s *Scope) Node(name string, pairs []AttrPair) NodeIndex {
	g := s.b.g
	n, ok := g.Lookup(name)
	if !ok {
		attrs := DefaultNodeAttributes()
		if err := UpdateNodeAttributes(&attrs, s.nodeDefaults()); err != nil {
			s.b.errs = append(s.b.errs, fmt.Errorf("node %q defaults: %w", name, err))
		}
		n = g.AddNode(name, attrs)
	}
	if err := UpdateNodeAttributes(&g.Nodes[n].Attrs, pairs); err != nil {
		s.b.errs = append(s.b.errs, fmt.Errorf("node %q: %w", name, err))
	}
	for sc := s; sc != nil; sc = sc.parent {
		if sc.subgraph >= 0 {
			g.Subgraphs[sc.subgraph].AddNode(n)
		}
	}
	return n
}

// Edge declares a new edge between two nodes, declaring the endpoints
// in this scope as needed. The edge starts from the scope defaults.
func (s *Scope) Edge(tail, head string, pairs []AttrPair) EdgeIndex {
	g := s.b.g
	t := s.Node(tail, nil)
	h := s.Node(head, nil)
	attrs := DefaultEdgeAttributes()
	if err := UpdateEdgeAttributes(&attrs, append(s.edgeDefaults(), pairs...)); err != nil {
		s.b.errs = append(s.b.errs, fmt.Errorf("edge %q -> %q: %w", tail, head, err))
	}
	l := g.AddEdge(t, h, attrs)
	for sc := s; sc != nil; sc = sc.parent {
		if sc.subgraph >= 0 {
			g.Subgraphs[sc.subgraph].AddEdge(l)
		}
	}
	return l
}

// Fail records a construction error that is not tied to an attribute.
func (b *Builder) Fail(err error) {
	b.errs = append(b.errs, err)
}
