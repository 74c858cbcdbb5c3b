package robot

import (
	"errors"
	"fmt"

	"github.com/chazu/robogram/pkg/graph"
)

// BuildRobot compiles g into a Robot. g must be a tree: exactly one node
// without incoming edges (the root), at most one incoming edge per node,
// and every node reachable from the root. Links are emitted in depth
// first preorder with children in edge order, so each link follows its
// parent. Failures wrap graph.ErrMalformedDesign.
func BuildRobot(g *graph.Graph) (*Robot, error) {
	if err := graph.Validate(g); err != nil {
		return nil, fmt.Errorf("robot: %w", err)
	}
	root, err := findRoot(g)
	if err != nil {
		return nil, fmt.Errorf("robot: %w", err)
	}

	r := &Robot{Name: g.Name}
	rootNode := g.Nodes[root].Attrs
	r.Links = append(r.Links, newLink(g.Nodes[root], -1, -1, 1.0))
	r.Links[0].BaseJoint = rootNode.JointType

	linkOf := make([]int, len(g.Nodes))
	for i := range linkOf {
		linkOf[i] = -1
	}
	linkOf[root] = 0

	var visit func(n graph.NodeIndex)
	visit = func(n graph.NodeIndex) {
		parent := linkOf[n]
		for _, l := range g.OutEdges(n) {
			e := g.Edges[l]
			child := g.Nodes[e.Head]
			j := len(r.Joints)
			linkOf[e.Head] = len(r.Links)
			r.Joints = append(r.Joints, Joint{
				Label:  e.Attrs.Label,
				Parent: parent,
				Child:  linkOf[e.Head],
				Type:   child.Attrs.JointType,
				Axis:   child.Attrs.JointAxis,
				Pos:    e.Attrs.JointPos,
				Rot:    e.Attrs.JointRot,
			})
			r.Links = append(r.Links, newLink(child, parent, j, e.Attrs.Scale))
			visit(e.Head)
		}
	}
	visit(root)

	var errs []error
	for i, li := range linkOf {
		if li < 0 {
			errs = append(errs, graph.NewError(graph.ErrMalformedDesign, g.Name, graph.ElementNode, i,
				"node %q is not reachable from root %q", g.Nodes[i].Name, g.Nodes[root].Name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("robot: %w", err)
	}
	return r, nil
}

func newLink(n graph.Node, parent, joint int, scale float64) Link {
	return Link{
		Name:     n.Name,
		Label:    n.Attrs.Label,
		Parent:   parent,
		Joint:    joint,
		Shape:    n.Attrs.Shape,
		Length:   n.Attrs.Length * scale,
		Radius:   n.Attrs.Radius,
		Density:  n.Attrs.Density,
		Friction: n.Attrs.Friction,
		Scale:    scale,
	}
}

// findRoot checks in-degrees and returns the unique root.
func findRoot(g *graph.Graph) (graph.NodeIndex, error) {
	if len(g.Nodes) == 0 {
		return -1, graph.NewError(graph.ErrMalformedDesign, g.Name, graph.ElementGraph, -1, "graph has no nodes")
	}
	indeg := make([]int, len(g.Nodes))
	for _, e := range g.Edges {
		indeg[e.Head]++
	}

	var errs []error
	var roots []graph.NodeIndex
	for i, d := range indeg {
		switch {
		case d == 0:
			roots = append(roots, graph.NodeIndex(i))
		case d > 1:
			errs = append(errs, graph.NewError(graph.ErrMalformedDesign, g.Name, graph.ElementNode, i,
				"node %q has %d parents", g.Nodes[i].Name, d))
		}
	}
	if len(errs) > 0 {
		return -1, errors.Join(errs...)
	}
	switch len(roots) {
	case 0:
		return -1, graph.NewError(graph.ErrMalformedDesign, g.Name, graph.ElementGraph, -1,
			"no root: every node has a parent")
	case 1:
		return roots[0], nil
	default:
		names := make([]string, len(roots))
		for k, n := range roots {
			names[k] = g.Nodes[n].Name
		}
		return -1, graph.NewError(graph.ErrMalformedDesign, g.Name, graph.ElementGraph, -1,
			"%d roots %q, want exactly one", len(roots), names)
	}
}
