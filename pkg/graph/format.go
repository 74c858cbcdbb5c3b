package graph

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// The debug format is deterministic and lists every attribute field and
// index. It is not a stable interchange format.

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (v Vec3) String() string {
	return "(" + fmtFloat(v.X) + " " + fmtFloat(v.Y) + " " + fmtFloat(v.Z) + ")"
}

func (q Quaternion) String() string {
	return "(" + fmtFloat(q.W) + " " + fmtFloat(q.X) + " " + fmtFloat(q.Y) + " " + fmtFloat(q.Z) + ")"
}

var nodeFieldNames = []struct {
	f    NodeFields
	name string
}{
	{NodeLabel, "label"},
	{NodeJointType, "joint_type"},
	{NodeJointAxis, "joint_axis"},
	{NodeShape, "shape"},
	{NodeLength, "length"},
	{NodeRadius, "radius"},
	{NodeDensity, "density"},
	{NodeFriction, "friction"},
}

var edgeFieldNames = []struct {
	f    EdgeFields
	name string
}{
	{EdgeID, "id"},
	{EdgeLabel, "label"},
	{EdgeJointPos, "joint_pos"},
	{EdgeJointRot, "joint_rot"},
	{EdgeScale, "scale"},
}

func (f NodeFields) String() string {
	var names []string
	for _, nf := range nodeFieldNames {
		if f.Has(nf.f) {
			names = append(names, nf.name)
		}
	}
	return "[" + strings.Join(names, ",") + "]"
}

func (f EdgeFields) String() string {
	var names []string
	for _, ef := range edgeFieldNames {
		if f.Has(ef.f) {
			names = append(names, ef.name)
		}
	}
	return "[" + strings.Join(names, ",") + "]"
}

func (a NodeAttributes) String() string {
	return fmt.Sprintf("label=%q joint_type=%s joint_axis=%s shape=%s length=%s radius=%s density=%s friction=%s set=%s",
		a.Label, a.JointType, a.JointAxis, a.Shape, fmtFloat(a.Length), fmtFloat(a.Radius),
		fmtFloat(a.Density), fmtFloat(a.Friction), a.Set)
}

func (a EdgeAttributes) String() string {
	return fmt.Sprintf("id=%q label=%q joint_pos=%s joint_rot=%s scale=%s set=%s",
		a.ID, a.Label, fmtFloat(a.JointPos), a.JointRot, fmtFloat(a.Scale), a.Set)
}

func (n Node) String() string {
	return fmt.Sprintf("Node{name=%q %s}", n.Name, n.Attrs)
}

func (e Edge) String() string {
	return fmt.Sprintf("Edge{tail=%d head=%d %s}", e.Tail, e.Head, e.Attrs)
}

func indexList[T ~int](xs []T) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(int(x))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Format writes the debug rendering of g to w.
func (g *Graph) Format(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "graph %q {\n", g.Name)
	for i, n := range g.Nodes {
		fmt.Fprintf(&b, "  node %d: %s\n", i, n)
	}
	for l, e := range g.Edges {
		fmt.Fprintf(&b, "  edge %d: %s\n", l, e)
	}
	for s, sg := range g.Subgraphs {
		fmt.Fprintf(&b, "  subgraph %d %q: nodes=%s edges=%s\n", s, sg.Name, indexList(sg.Nodes), indexList(sg.Edges))
		fmt.Fprintf(&b, "    node_defaults: %s\n", sg.NodeAttrs)
		fmt.Fprintf(&b, "    edge_defaults: %s\n", sg.EdgeAttrs)
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// String returns the debug rendering of g.
func (g *Graph) String() string {
	var b strings.Builder
	_ = g.Format(&b)
	return b.String()
}
