package robot

import "github.com/chazu/robogram/pkg/graph"

// Transform is a rigid placement: rotate by Rot, then translate by Pos.
type Transform struct {
	Pos graph.Vec3       `json:"pos"`
	Rot graph.Quaternion `json:"rot"`
}

// Apply maps a point from the local frame into the parent frame.
func (t Transform) Apply(p graph.Vec3) graph.Vec3 {
	return t.Rot.Rotate(p).Add(t.Pos)
}

// WorldTransforms returns the world frame of every link with all joints
// at their zero position. The root sits at the origin; a child's frame
// starts Pos × parent length along the parent's +X axis and is rotated
// by the joint rotation relative to the parent. Each link extends along
// its own +X axis.
func (r *Robot) WorldTransforms() []Transform {
	out := make([]Transform, len(r.Links))
	for i, link := range r.Links {
		if link.Parent < 0 {
			out[i] = Transform{Rot: graph.IdentityQuaternion}
			continue
		}
		parent := out[link.Parent]
		j := r.Joints[link.Joint]
		offset := graph.Vec3{X: j.Pos * r.Links[link.Parent].Length}
		out[i] = Transform{
			Pos: parent.Apply(offset),
			Rot: parent.Rot.Mul(j.Rot).Normalize(),
		}
	}
	return out
}

// Endpoints returns the world positions of the start and end of link i
// given the transforms from WorldTransforms.
func (r *Robot) Endpoints(transforms []Transform, i int) (start, end graph.Vec3) {
	t := transforms[i]
	return t.Pos, t.Apply(graph.Vec3{X: r.Links[i].Length})
}
