// Package robot compiles a fully rewritten design graph into a kinematic
// tree of links and joints.
package robot

import (
	"fmt"

	"github.com/chazu/robogram/pkg/graph"
)

// Link is one rigid body of the robot. Links are ordered parent before
// child; the root has Parent and Joint set to -1.
type Link struct {
	Name      string          `json:"name"`
	Label     string          `json:"label,omitempty"`
	Parent    int             `json:"parent"`
	Joint     int             `json:"joint"`
	BaseJoint graph.JointType `json:"base_joint"` // root only
	Shape     graph.LinkShape `json:"shape"`
	Length    float64         `json:"length"`
	Radius    float64         `json:"radius"`
	Density   float64         `json:"density"`
	Friction  float64         `json:"friction"`
	Scale     float64         `json:"scale"`
}

// Joint attaches link Child to link Parent. Pos is the fraction of the
// parent's length along its +X axis; Rot orients the child relative to
// the parent; Axis is the rotation axis in the parent frame.
type Joint struct {
	Label  string           `json:"label,omitempty"`
	Parent int              `json:"parent"`
	Child  int              `json:"child"`
	Type   graph.JointType  `json:"type"`
	Axis   graph.Vec3       `json:"axis"`
	Pos    float64          `json:"pos"`
	Rot    graph.Quaternion `json:"rot"`
}

// Robot is a tree of links connected by joints. It holds no reference to
// the graph it was built from.
type Robot struct {
	Name   string  `json:"name"`
	Links  []Link  `json:"links"`
	Joints []Joint `json:"joints"`
}

// Root returns the root link.
func (r *Robot) Root() *Link {
	return &r.Links[0]
}

// Children returns the indices of the links attached directly to link i,
// in joint order.
func (r *Robot) Children(i int) []int {
	var children []int
	for _, j := range r.Joints {
		if j.Parent == i {
			children = append(children, j.Child)
		}
	}
	return children
}

// DegreesOfFreedom counts actuated degrees of freedom: one per hinge plus
// six for a free base.
func (r *Robot) DegreesOfFreedom() int {
	dof := 0
	if len(r.Links) > 0 && r.Links[0].BaseJoint == graph.JointFree {
		dof += 6
	}
	for _, j := range r.Joints {
		switch j.Type {
		case graph.JointHinge:
			dof++
		case graph.JointFree:
			dof += 6
		}
	}
	return dof
}

func (r *Robot) String() string {
	return fmt.Sprintf("robot %q: %d links, %d joints, %d dof", r.Name, len(r.Links), len(r.Joints), r.DegreesOfFreedom())
}
