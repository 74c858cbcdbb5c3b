package graph

import "fmt"

// ---------------------------------------------------------------------------
// Joint and shape kinds
// ---------------------------------------------------------------------------

// JointType enumerates the ways a link can be attached to its parent.
type JointType int

const (
	JointNone  JointType = iota // no joint specified
	JointFree                   // six degrees of freedom (floating base)
	JointHinge                  // one rotational degree of freedom about the axis
	JointFixed                  // rigidly attached
)

func (t JointType) String() string {
	switch t {
	case JointNone:
		return "none"
	case JointFree:
		return "free"
	case JointHinge:
		return "hinge"
	case JointFixed:
		return "fixed"
	default:
		return fmt.Sprintf("JointType(%d)", int(t))
	}
}

// ParseJointType converts a joint type name to a JointType.
func ParseJointType(s string) (JointType, error) {
	switch s {
	case "none":
		return JointNone, nil
	case "free":
		return JointFree, nil
	case "hinge":
		return JointHinge, nil
	case "fixed":
		return JointFixed, nil
	}
	return JointNone, fmt.Errorf("unknown joint type %q, expected none, free, hinge or fixed", s)
}

// LinkShape enumerates link geometries.
type LinkShape int

const (
	ShapeNone     LinkShape = iota // no collision/visual geometry
	ShapeCapsule                   // cylinder with hemispherical caps
	ShapeCylinder                  // flat-ended cylinder
)

func (s LinkShape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapeCapsule:
		return "capsule"
	case ShapeCylinder:
		return "cylinder"
	default:
		return fmt.Sprintf("LinkShape(%d)", int(s))
	}
}

// ParseLinkShape converts a shape name to a LinkShape.
func ParseLinkShape(s string) (LinkShape, error) {
	switch s {
	case "none":
		return ShapeNone, nil
	case "capsule":
		return ShapeCapsule, nil
	case "cylinder":
		return ShapeCylinder, nil
	}
	return ShapeNone, fmt.Errorf("unknown shape %q, expected none, capsule or cylinder", s)
}

// ---------------------------------------------------------------------------
// Field masks
// ---------------------------------------------------------------------------

// NodeFields is a bit set naming NodeAttributes fields.
type NodeFields uint16

const (
	NodeLabel NodeFields = 1 << iota
	NodeJointType
	NodeJointAxis
	NodeShape
	NodeLength
	NodeRadius
	NodeDensity
	NodeFriction

	AllNodeFields = NodeLabel | NodeJointType | NodeJointAxis | NodeShape |
		NodeLength | NodeRadius | NodeDensity | NodeFriction
)

// Has reports whether every field in x is in f.
func (f NodeFields) Has(x NodeFields) bool {
	return f&x == x
}

// EdgeFields is a bit set naming EdgeAttributes fields.
type EdgeFields uint8

const (
	EdgeID EdgeFields = 1 << iota
	EdgeLabel
	EdgeJointPos
	EdgeJointRot
	EdgeScale

	AllEdgeFields = EdgeID | EdgeLabel | EdgeJointPos | EdgeJointRot | EdgeScale
)

// Has reports whether every field in x is in f.
func (f EdgeFields) Has(x EdgeFields) bool {
	return f&x == x
}

// ---------------------------------------------------------------------------
// Node attributes
// ---------------------------------------------------------------------------

// NodeAttributes describe a link type. They are shared by every instance
// of a node produced from the same grammar symbol. Set records which
// fields were explicitly assigned; unset fields hold defaults and act as
// wildcards when the node is used in a pattern.
type NodeAttributes struct {
	Label     string     `json:"label,omitempty"`
	JointType JointType  `json:"joint_type"`
	JointAxis Vec3       `json:"joint_axis"`
	Shape     LinkShape  `json:"shape"`
	Length    float64    `json:"length"`
	Radius    float64    `json:"radius"`
	Density   float64    `json:"density"`
	Friction  float64    `json:"friction"`
	Set       NodeFields `json:"set"`
}

// DefaultNodeAttributes returns node attributes with every field at its
// default value and no field marked as set.
func DefaultNodeAttributes() NodeAttributes {
	return NodeAttributes{
		JointType: JointNone,
		JointAxis: Vec3{Z: 1},
		Shape:     ShapeNone,
		Length:    1.0,
		Radius:    0.05,
		Density:   1.0,
		Friction:  0.9,
	}
}

// nodeFieldEqual reports whether field f holds the same value in a and b.
func nodeFieldEqual(a, b *NodeAttributes, f NodeFields) bool {
	switch f {
	case NodeLabel:
		return a.Label == b.Label
	case NodeJointType:
		return a.JointType == b.JointType
	case NodeJointAxis:
		return a.JointAxis == b.JointAxis
	case NodeShape:
		return a.Shape == b.Shape
	case NodeLength:
		return a.Length == b.Length
	case NodeRadius:
		return a.Radius == b.Radius
	case NodeDensity:
		return a.Density == b.Density
	case NodeFriction:
		return a.Friction == b.Friction
	}
	return true
}

// copyNodeField copies field f from src into dst and marks it set.
func copyNodeField(dst, src *NodeAttributes, f NodeFields) {
	switch f {
	case NodeLabel:
		dst.Label = src.Label
	case NodeJointType:
		dst.JointType = src.JointType
	case NodeJointAxis:
		dst.JointAxis = src.JointAxis
	case NodeShape:
		dst.Shape = src.Shape
	case NodeLength:
		dst.Length = src.Length
	case NodeRadius:
		dst.Radius = src.Radius
	case NodeDensity:
		dst.Density = src.Density
	case NodeFriction:
		dst.Friction = src.Friction
	}
	dst.Set |= f
}

// eachNodeField calls fn for every single-bit field in mask.
func eachNodeField(mask NodeFields, fn func(NodeFields)) {
	for f := NodeFields(1); f <= AllNodeFields && f != 0; f <<= 1 {
		if mask&f != 0 {
			fn(f)
		}
	}
}

// Matches reports whether a pattern with attributes a accepts a target
// node with attributes target: every field set on a must hold the same
// value on target.
func (a NodeAttributes) Matches(target NodeAttributes) bool {
	ok := true
	eachNodeField(a.Set, func(f NodeFields) {
		if ok && !nodeFieldEqual(&a, &target, f) {
			ok = false
		}
	})
	return ok
}

// Changes returns the fields set on next that are unset on a or hold a
// different value.
func (a NodeAttributes) Changes(next NodeAttributes) NodeFields {
	var changed NodeFields
	eachNodeField(next.Set, func(f NodeFields) {
		if !a.Set.Has(f) || !nodeFieldEqual(&a, &next, f) {
			changed |= f
		}
	})
	return changed
}

// Overlay copies the fields named by mask from src into a and marks them
// set. Fields of a outside mask are left untouched.
func (a *NodeAttributes) Overlay(src NodeAttributes, mask NodeFields) {
	eachNodeField(mask, func(f NodeFields) {
		copyNodeField(a, &src, f)
	})
}

// ---------------------------------------------------------------------------
// Edge attributes
// ---------------------------------------------------------------------------

// EdgeAttributes describe one placement of a child link relative to its
// parent. They are unique per edge instance.
type EdgeAttributes struct {
	ID       string     `json:"id,omitempty"`
	Label    string     `json:"label,omitempty"`
	JointPos float64    `json:"joint_pos"`
	JointRot Quaternion `json:"joint_rot"`
	Scale    float64    `json:"scale"`
	Set      EdgeFields `json:"set"`
}

// DefaultEdgeAttributes returns edge attributes with every field at its
// default value and no field marked as set.
func DefaultEdgeAttributes() EdgeAttributes {
	return EdgeAttributes{
		JointPos: 1.0,
		JointRot: IdentityQuaternion,
		Scale:    1.0,
	}
}

func edgeFieldEqual(a, b *EdgeAttributes, f EdgeFields) bool {
	switch f {
	case EdgeID:
		return a.ID == b.ID
	case EdgeLabel:
		return a.Label == b.Label
	case EdgeJointPos:
		return a.JointPos == b.JointPos
	case EdgeJointRot:
		return a.JointRot == b.JointRot
	case EdgeScale:
		return a.Scale == b.Scale
	}
	return true
}

func copyEdgeField(dst, src *EdgeAttributes, f EdgeFields) {
	switch f {
	case EdgeID:
		dst.ID = src.ID
	case EdgeLabel:
		dst.Label = src.Label
	case EdgeJointPos:
		dst.JointPos = src.JointPos
	case EdgeJointRot:
		dst.JointRot = src.JointRot
	case EdgeScale:
		dst.Scale = src.Scale
	}
	dst.Set |= f
}

func eachEdgeField(mask EdgeFields, fn func(EdgeFields)) {
	for f := EdgeFields(1); f <= AllEdgeFields && f != 0; f <<= 1 {
		if mask&f != 0 {
			fn(f)
		}
	}
}

// Matches reports whether a pattern edge with attributes a accepts a
// target edge. The id only correlates edges inside a rule and is never
// compared.
func (a EdgeAttributes) Matches(target EdgeAttributes) bool {
	ok := true
	eachEdgeField(a.Set&^EdgeID, func(f EdgeFields) {
		if ok && !edgeFieldEqual(&a, &target, f) {
			ok = false
		}
	})
	return ok
}

// Changes returns the fields set on next that are unset on a or hold a
// different value. The id is excluded.
func (a EdgeAttributes) Changes(next EdgeAttributes) EdgeFields {
	var changed EdgeFields
	eachEdgeField(next.Set&^EdgeID, func(f EdgeFields) {
		if !a.Set.Has(f) || !edgeFieldEqual(&a, &next, f) {
			changed |= f
		}
	})
	return changed
}

// Overlay copies the fields named by mask from src into a and marks them
// set.
func (a *EdgeAttributes) Overlay(src EdgeAttributes, mask EdgeFields) {
	eachEdgeField(mask, func(f EdgeFields) {
		copyEdgeField(a, &src, f)
	})
}
