package grammar

import (
	"testing"

	"github.com/chazu/robogram/pkg/graph"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func addNode(t *testing.T, g *graph.Graph, name string, kv ...string) graph.NodeIndex {
	t.Helper()
	a := graph.DefaultNodeAttributes()
	if err := graph.UpdateNodeAttributes(&a, graph.Pairs(kv...)); err != nil {
		t.Fatalf("node %q attrs: %v", name, err)
	}
	return g.AddNode(name, a)
}

func addEdge(t *testing.T, g *graph.Graph, tail, head string, kv ...string) graph.EdgeIndex {
	t.Helper()
	a := graph.DefaultEdgeAttributes()
	if err := graph.UpdateEdgeAttributes(&a, graph.Pairs(kv...)); err != nil {
		t.Fatalf("edge %s->%s attrs: %v", tail, head, err)
	}
	return g.AddEdge(g.MustLookup(tail), g.MustLookup(head), a)
}

// sideSubgraph returns the named side subgraph, creating it if needed.
// The pointer is only valid until the next AddSubgraph call.
func sideSubgraph(g *graph.Graph, name string) *graph.Subgraph {
	if sg := g.Subgraph(name); sg != nil {
		return sg
	}
	return g.AddSubgraph(name)
}

// onBothSides puts the named node in both the L and R subgraphs.
func onBothSides(g *graph.Graph, name string) {
	i := g.MustLookup(name)
	sideSubgraph(g, LeftSubgraph).AddNode(i)
	sideSubgraph(g, RightSubgraph).AddNode(i)
}

func mustRule(t *testing.T, g *graph.Graph) *Rule {
	t.Helper()
	r, err := CreateRuleFromGraph(g)
	if err != nil {
		t.Fatalf("CreateRuleFromGraph(%q): %v", g.Name, err)
	}
	return r
}

// identityRule keeps a single unconstrained node.
func identityRule(t *testing.T) *Rule {
	g := graph.New("identity")
	addNode(t, g, "a")
	onBothSides(g, "a")
	return mustRule(t, g)
}

// extendRule attaches a new "leg" child to any node labelled "body".
func extendRule(t *testing.T) *Rule {
	g := graph.New("extend")
	addNode(t, g, "body", "label", "body")
	addNode(t, g, "R:leg", "label", "leg", "shape", "capsule", "length", "0.5")
	onBothSides(g, "body")
	addEdge(t, g, "body", "R:leg", "joint_pos", "0.5")
	return mustRule(t, g)
}

// reattachRule replaces the "old" child of a body by a "new" node, moving
// the old node's other edges onto the new one.
func reattachRule(t *testing.T) *Rule {
	g := graph.New("reattach")
	addNode(t, g, "body", "label", "body")
	addNode(t, g, "L:old", "label", "old")
	addNode(t, g, "R:new", "label", "new", "shape", "capsule")
	onBothSides(g, "body")
	addEdge(t, g, "body", "L:old", "id", "m")
	addEdge(t, g, "body", "R:new", "id", "m")
	return mustRule(t, g)
}

// chainTarget builds root -> body -> old -> foot.
func chainTarget(t *testing.T) *graph.Graph {
	g := graph.New("robot")
	addNode(t, g, "root", "label", "root")
	addNode(t, g, "body", "label", "body")
	addNode(t, g, "old", "label", "old")
	addNode(t, g, "foot", "label", "foot")
	addEdge(t, g, "root", "body")
	addEdge(t, g, "body", "old")
	addEdge(t, g, "old", "foot")
	return g
}

// checkSound verifies every matching property of m.
func checkSound(t *testing.T, pattern, target *graph.Graph, m graph.GraphMapping) {
	t.Helper()
	if err := m.Validate(pattern, target); err != nil {
		t.Errorf("match %v invalid: %v", m, err)
		return
	}
	if !m.InjectiveOnNodes() {
		t.Errorf("match %v not injective on nodes", m.NodeMapping)
	}
	usedEdges := map[graph.EdgeIndex]bool{}
	for l, path := range m.EdgeMapping {
		if len(path) != 1 {
			t.Errorf("edge %d maps onto path %v, want a single edge", l, path)
			continue
		}
		if usedEdges[path[0]] {
			t.Errorf("target edge %d used twice", path[0])
		}
		usedEdges[path[0]] = true
		if !pattern.Edges[l].Attrs.Matches(target.Edges[path[0]].Attrs) {
			t.Errorf("edge %d attrs incompatible with target edge %d", l, path[0])
		}
	}
	for i, tn := range m.NodeMapping {
		if !pattern.Nodes[i].Attrs.Matches(target.Nodes[tn].Attrs) {
			t.Errorf("node %d attrs incompatible with target node %d", i, tn)
		}
	}
}
