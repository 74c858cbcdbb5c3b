package grammar

import (
	"errors"
	"testing"

	"github.com/chazu/robogram/pkg/graph"
)

func mustApply(t *testing.T, r *Rule, target *graph.Graph, m graph.GraphMapping) *graph.Graph {
	t.Helper()
	out, err := ApplyRule(r, target, m)
	if err != nil {
		t.Fatalf("ApplyRule(%q): %v", r.Name, err)
	}
	if err := graph.Validate(out); err != nil {
		t.Fatalf("result invalid: %v", err)
	}
	return out
}

func TestApplyRule_IdentityRoundTrip(t *testing.T) {
	r := identityRule(t)
	target := chainTarget(t)
	target.AddSubgraph("limbs").AddNode(2)

	matches := FindMatches(r.LHS, target)
	if len(matches) != target.NodeCount() {
		t.Fatalf("identity rule should match every node, got %d", len(matches))
	}
	for _, m := range matches {
		out := mustApply(t, r, target, m)
		if out.String() != target.String() {
			t.Errorf("identity rewrite at %v changed the graph:\n%s\nwant\n%s", m.NodeMapping, out, target)
		}
	}
}

func TestApplyRule_WholeGraphRuleRoundTrip(t *testing.T) {
	g := graph.New("frame")
	addNode(t, g, "body", "label", "body", "shape", "capsule")
	addNode(t, g, "arm", "length", "0.5")
	addNode(t, g, "hand", "radius", "0.1")
	for _, name := range []string{"body", "arm", "hand"} {
		onBothSides(g, name)
	}
	// two parallel edges with different attributes
	edges := []graph.EdgeIndex{
		addEdge(t, g, "body", "arm", "joint_pos", "0.25"),
		addEdge(t, g, "body", "arm", "joint_pos", "0.75"),
		addEdge(t, g, "arm", "hand", "scale", "2"),
	}
	for _, e := range edges {
		sideSubgraph(g, LeftSubgraph).AddEdge(e)
		sideSubgraph(g, RightSubgraph).AddEdge(e)
	}

	r := mustRule(t, g)
	if r.Common.NodeCount() != 3 || r.Common.EdgeCount() != 3 {
		t.Fatalf("common graph should hold everything, got\n%s", r.Common)
	}
	before := g.String()
	out := mustApply(t, r, g, graph.Identity(r.LHS))
	if out.String() != before {
		t.Errorf("round trip changed the graph:\n%s\nwant\n%s", out, before)
	}
	if g.String() != before {
		t.Error("ApplyRule mutated its target")
	}
}

func TestApplyRule_Reanchor(t *testing.T) {
	r := reattachRule(t)
	target := chainTarget(t)
	before := graph.Fingerprint(target)

	matches := FindMatches(r.LHS, target)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	out := mustApply(t, r, target, matches[0])

	wantNodes := []string{"root", "body", "foot", "new"}
	if out.NodeCount() != len(wantNodes) {
		t.Fatalf("got %d nodes, want %d:\n%s", out.NodeCount(), len(wantNodes), out)
	}
	for i, name := range wantNodes {
		if out.Nodes[i].Name != name {
			t.Errorf("node %d = %q, want %q", i, out.Nodes[i].Name, name)
		}
	}
	if out.Nodes[3].Attrs.Shape != graph.ShapeCapsule {
		t.Error("new node should carry RHS attributes")
	}

	wantEdges := [][2]graph.NodeIndex{{0, 1}, {3, 2}, {1, 3}}
	if out.EdgeCount() != len(wantEdges) {
		t.Fatalf("got %d edges, want %d:\n%s", out.EdgeCount(), len(wantEdges), out)
	}
	for l, want := range wantEdges {
		e := out.Edges[l]
		if e.Tail != want[0] || e.Head != want[1] {
			t.Errorf("edge %d = %d->%d, want %d->%d", l, e.Tail, e.Head, want[0], want[1])
		}
	}

	if graph.Fingerprint(target) != before {
		t.Error("ApplyRule mutated its target")
	}
}

func TestApplyRule_InterfaceAttributesUpdated(t *testing.T) {
	g := graph.New("stretch")
	addNode(t, g, "L:a", "label", "seg")
	addNode(t, g, "L:b")
	addNode(t, g, "R:a", "label", "seg", "length", "2")
	addNode(t, g, "R:b")
	addEdge(t, g, "L:a", "L:b", "id", "e")
	addEdge(t, g, "R:a", "R:b", "id", "e", "scale", "2")
	r := mustRule(t, g)

	target := graph.New("robot")
	addNode(t, target, "seg", "label", "seg", "radius", "0.3")
	addNode(t, target, "tip", "label", "tip")
	addEdge(t, target, "seg", "tip", "joint_pos", "0.25")

	m := FindMatches(r.LHS, target)
	if len(m) != 1 {
		t.Fatalf("got %d matches, want 1", len(m))
	}
	out := mustApply(t, r, target, m[0])

	seg := out.Nodes[0].Attrs
	if seg.Length != 2 || !seg.Set.Has(graph.NodeLength) {
		t.Errorf("length not updated: %s", seg)
	}
	if seg.Radius != 0.3 || seg.Label != "seg" {
		t.Errorf("untouched fields changed: %s", seg)
	}
	if out.Nodes[1].Attrs != target.Nodes[1].Attrs {
		t.Error("node without changes should keep its attributes")
	}
	e := out.Edges[0].Attrs
	if e.Scale != 2 || e.JointPos != 0.25 {
		t.Errorf("edge attrs = %s, want scale 2 and joint_pos kept", e)
	}
	if out.EdgeCount() != 1 || out.NodeCount() != 2 {
		t.Errorf("interface rewrite changed the structure:\n%s", out)
	}
}

func TestApplyRule_UniqueNames(t *testing.T) {
	r := extendRule(t)
	target := graph.New("robot")
	addNode(t, target, "body", "label", "body")
	addNode(t, target, "leg", "label", "leg")
	addEdge(t, target, "body", "leg")

	out := mustApply(t, r, target, FindMatches(r.LHS, target)[0])
	if out.Nodes[2].Name != "leg_1" {
		t.Errorf("new node name = %q, want leg_1", out.Nodes[2].Name)
	}
	out = mustApply(t, r, out, FindMatches(r.LHS, out)[0])
	if out.Nodes[3].Name != "leg_2" {
		t.Errorf("new node name = %q, want leg_2", out.Nodes[3].Name)
	}
	if e := out.Edges[2]; e.Tail != 0 || e.Head != 3 || e.Attrs.JointPos != 0.5 {
		t.Errorf("new edge = %s", e)
	}
}

func TestApplyRule_SubgraphsRemapped(t *testing.T) {
	r := reattachRule(t)
	target := chainTarget(t)
	sg := target.AddSubgraph("limbs")
	sg.AddNode(2)
	sg.AddNode(3)
	sg.AddEdge(2)

	out := mustApply(t, r, target, FindMatches(r.LHS, target)[0])
	limbs := out.Subgraph("limbs")
	if limbs == nil {
		t.Fatal("subgraph dropped")
	}
	if len(limbs.Nodes) != 1 || limbs.Nodes[0] != 2 {
		t.Errorf("limbs nodes = %v, want only foot (2)", limbs.Nodes)
	}
	if len(limbs.Edges) != 1 || limbs.Edges[0] != 1 {
		t.Errorf("limbs edges = %v, want the re-anchored edge (1)", limbs.Edges)
	}
}

func TestApplyRule_DerivesEdgesWhenOmitted(t *testing.T) {
	r := reattachRule(t)
	target := chainTarget(t)
	m := graph.GraphMapping{NodeMapping: []graph.NodeIndex{1, 2}}
	out := mustApply(t, r, target, m)
	want := mustApply(t, r, target, FindMatches(r.LHS, target)[0])
	if out.String() != want.String() {
		t.Errorf("derived edge mapping gave\n%s\nwant\n%s", out, want)
	}
}

func TestApplyRule_Errors(t *testing.T) {
	prune := func(t *testing.T) *Rule {
		g := graph.New("prune")
		addNode(t, g, "hub")
		addNode(t, g, "L:leaf", "label", "leaf")
		onBothSides(g, "hub")
		addEdge(t, g, "hub", "L:leaf")
		return mustRule(t, g)
	}

	tests := []struct {
		name   string
		rule   func(t *testing.T) *Rule
		target func(t *testing.T) *graph.Graph
		m      graph.GraphMapping
		kind   error
	}{
		{
			name: "dangling edge without replacement",
			rule: prune,
			target: func(t *testing.T) *graph.Graph {
				g := graph.New("robot")
				addNode(t, g, "hub")
				addNode(t, g, "leaf", "label", "leaf")
				addNode(t, g, "extra")
				addEdge(t, g, "hub", "leaf")
				addEdge(t, g, "leaf", "extra")
				return g
			},
			m:    graph.GraphMapping{NodeMapping: []graph.NodeIndex{0, 1}, EdgeMapping: [][]graph.EdgeIndex{{0}}},
			kind: graph.ErrInvalidEmbedding,
		},
		{
			name:   "node index out of range",
			rule:   reattachRule,
			target: chainTarget,
			m:      graph.GraphMapping{NodeMapping: []graph.NodeIndex{1, 9}, EdgeMapping: [][]graph.EdgeIndex{{1}}},
			kind:   graph.ErrInvalidReference,
		},
		{
			name:   "mapping too short",
			rule:   reattachRule,
			target: chainTarget,
			m:      graph.GraphMapping{NodeMapping: []graph.NodeIndex{1}},
			kind:   graph.ErrInvalidReference,
		},
		{
			name:   "edge index out of range",
			rule:   reattachRule,
			target: chainTarget,
			m:      graph.GraphMapping{NodeMapping: []graph.NodeIndex{1, 2}, EdgeMapping: [][]graph.EdgeIndex{{8}}},
			kind:   graph.ErrInvalidReference,
		},
		{
			name:   "nodes not adjacent",
			rule:   reattachRule,
			target: chainTarget,
			m:      graph.GraphMapping{NodeMapping: []graph.NodeIndex{0, 3}},
			kind:   graph.ErrInvalidEmbedding,
		},
		{
			name:   "edge mapped against direction",
			rule:   reattachRule,
			target: chainTarget,
			m:      graph.GraphMapping{NodeMapping: []graph.NodeIndex{2, 1}, EdgeMapping: [][]graph.EdgeIndex{{1}}},
			kind:   graph.ErrInvalidEmbedding,
		},
		{
			name: "rule with broken interface mapping",
			rule: func(t *testing.T) *Rule {
				r := reattachRule(t)
				r.CommonToLHS.NodeMapping[0] = 7
				return r
			},
			target: chainTarget,
			m:      graph.GraphMapping{NodeMapping: []graph.NodeIndex{1, 2}, EdgeMapping: [][]graph.EdgeIndex{{1}}},
			kind:   graph.ErrInvalidReference,
		},
		{
			name:   "not injective",
			rule:   reattachRule,
			target: chainTarget,
			m:      graph.GraphMapping{NodeMapping: []graph.NodeIndex{1, 1}},
			kind:   graph.ErrInvalidEmbedding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.target(t)
			before := graph.Fingerprint(target)
			_, err := ApplyRule(tt.rule(t), target, tt.m)
			if !errors.Is(err, tt.kind) {
				t.Errorf("err = %v, want %v", err, tt.kind)
			}
			if graph.Fingerprint(target) != before {
				t.Error("failed ApplyRule mutated its target")
			}
		})
	}
}

func TestApplyRule_PruneLeaf(t *testing.T) {
	g := graph.New("prune")
	addNode(t, g, "hub")
	addNode(t, g, "L:leaf", "label", "leaf")
	onBothSides(g, "hub")
	addEdge(t, g, "hub", "L:leaf")
	r := mustRule(t, g)

	target := graph.New("robot")
	addNode(t, target, "hub")
	addNode(t, target, "leaf", "label", "leaf")
	addNode(t, target, "other")
	addEdge(t, target, "hub", "leaf")
	addEdge(t, target, "hub", "other")

	out := mustApply(t, r, target, FindMatches(r.LHS, target)[0])
	if out.NodeCount() != 2 || out.EdgeCount() != 1 {
		t.Fatalf("got\n%s", out)
	}
	if e := out.Edges[0]; e.Tail != 0 || e.Head != 1 || out.Nodes[1].Name != "other" {
		t.Errorf("surviving edge should be reindexed hub->other, got %s", e)
	}
}
