package graph

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDefaultAttributesUnset(t *testing.T) {
	n := DefaultNodeAttributes()
	if n.Set != 0 {
		t.Errorf("default node attrs should have no set fields, got %s", n.Set)
	}
	if n.Length != 1.0 || n.Radius != 0.05 || n.Density != 1.0 || n.Friction != 0.9 {
		t.Errorf("unexpected node defaults: %s", n)
	}
	if n.JointAxis != (Vec3{Z: 1}) {
		t.Errorf("default joint axis = %s", n.JointAxis)
	}
	e := DefaultEdgeAttributes()
	if e.Set != 0 || e.JointPos != 1.0 || e.Scale != 1.0 || e.JointRot != IdentityQuaternion {
		t.Errorf("unexpected edge defaults: %s", e)
	}
}

func TestParseJointTypeAndShape(t *testing.T) {
	for _, jt := range []JointType{JointNone, JointFree, JointHinge, JointFixed} {
		got, err := ParseJointType(jt.String())
		if err != nil || got != jt {
			t.Errorf("ParseJointType(%q) = %v, %v", jt, got, err)
		}
	}
	if _, err := ParseJointType("ball"); err == nil {
		t.Error("expected error for unknown joint type")
	}
	for _, s := range []LinkShape{ShapeNone, ShapeCapsule, ShapeCylinder} {
		got, err := ParseLinkShape(s.String())
		if err != nil || got != s {
			t.Errorf("ParseLinkShape(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseLinkShape("sphere"); err == nil {
		t.Error("expected error for unknown shape")
	}
}

func TestNodeMatchesWildcards(t *testing.T) {
	target := DefaultNodeAttributes()
	if err := UpdateNodeAttributes(&target, Pairs("label", "leg", "length", "0.4", "shape", "capsule")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		pattern []AttrPair
		want    bool
	}{
		{"all unset matches anything", nil, true},
		{"same label", Pairs("label", "leg"), true},
		{"different label", Pairs("label", "arm"), false},
		{"set default value against explicit value", Pairs("length", "1"), false},
		{"several fields agree", Pairs("label", "leg", "shape", "capsule"), true},
		{"unset target field compared by value", Pairs("radius", "0.05"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultNodeAttributes()
			if err := UpdateNodeAttributes(&p, tt.pattern); err != nil {
				t.Fatal(err)
			}
			if got := p.Matches(target); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEdgeMatchesIgnoresID(t *testing.T) {
	p := DefaultEdgeAttributes()
	_ = UpdateEdgeAttributes(&p, Pairs("id", "a", "label", "mount"))
	target := DefaultEdgeAttributes()
	_ = UpdateEdgeAttributes(&target, Pairs("id", "b", "label", "mount"))
	if !p.Matches(target) {
		t.Error("edge ids must not take part in matching")
	}
	target.Label = "other"
	if p.Matches(target) {
		t.Error("label mismatch should fail")
	}
}

func TestChangesAndOverlay(t *testing.T) {
	lhs := DefaultNodeAttributes()
	_ = UpdateNodeAttributes(&lhs, Pairs("label", "body", "length", "2"))
	rhs := DefaultNodeAttributes()
	_ = UpdateNodeAttributes(&rhs, Pairs("label", "body", "length", "3", "shape", "capsule"))

	changes := lhs.Changes(rhs)
	if changes != NodeLength|NodeShape {
		t.Fatalf("Changes = %s, want [shape,length]", changes)
	}

	target := DefaultNodeAttributes()
	_ = UpdateNodeAttributes(&target, Pairs("label", "body", "length", "2", "radius", "0.2"))
	target.Overlay(rhs, changes)
	if target.Length != 3 || target.Shape != ShapeCapsule {
		t.Errorf("overlay did not copy changed fields: %s", target)
	}
	if target.Radius != 0.2 || target.Label != "body" {
		t.Errorf("overlay touched fields outside mask: %s", target)
	}
	if !target.Set.Has(NodeShape | NodeLength | NodeRadius | NodeLabel) {
		t.Errorf("overlay should mark fields set, got %s", target.Set)
	}

	el := DefaultEdgeAttributes()
	_ = UpdateEdgeAttributes(&el, Pairs("id", "x"))
	er := DefaultEdgeAttributes()
	_ = UpdateEdgeAttributes(&er, Pairs("id", "y", "scale", "2"))
	if got := el.Changes(er); got != EdgeScale {
		t.Errorf("edge Changes = %s, want [scale]", got)
	}
}

func TestUpdateNodeAttributes(t *testing.T) {
	a := DefaultNodeAttributes()
	err := UpdateNodeAttributes(&a, Pairs(
		"label", "leg",
		"joint_type", "hinge",
		"joint_axis", "1, 0, 0",
		"shape", "cylinder",
		"length", "0.5",
		"radius", "0.1",
		"density", "2",
		"friction", "0.4",
		"color", "red",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := NodeAttributes{
		Label: "leg", JointType: JointHinge, JointAxis: Vec3{X: 1}, Shape: ShapeCylinder,
		Length: 0.5, Radius: 0.1, Density: 2, Friction: 0.4, Set: AllNodeFields,
	}
	if a != want {
		t.Errorf("got  %s\nwant %s", a, want)
	}
}

func TestUpdateNodeAttributesPartialFailure(t *testing.T) {
	a := DefaultNodeAttributes()
	err := UpdateNodeAttributes(&a, Pairs("length", "long", "label", "arm", "joint_axis", "1 0"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("error %v is not ErrMalformedInput", err)
	}
	for _, key := range []string{"length", "joint_axis"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
	if a.Label != "arm" || !a.Set.Has(NodeLabel) {
		t.Error("later valid pairs should still apply")
	}
	if a.Length != 1.0 || a.Set.Has(NodeLength) || a.Set.Has(NodeJointAxis) {
		t.Errorf("failed fields should be untouched: %s", a)
	}
}

func TestUpdateRejectsNonFinite(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"radius", "NaN"},
		{"length", "+Inf"},
		{"joint_axis", "0 inf 0"},
	}
	for _, tt := range tests {
		a := DefaultNodeAttributes()
		err := UpdateNodeAttributes(&a, Pairs(tt.key, tt.value))
		if !errors.Is(err, ErrMalformedInput) {
			t.Errorf("%s=%s: err = %v, want ErrMalformedInput", tt.key, tt.value, err)
		}
		if a != DefaultNodeAttributes() {
			t.Errorf("%s=%s: attributes changed to %s", tt.key, tt.value, a)
		}
	}

	e := DefaultEdgeAttributes()
	err := UpdateEdgeAttributes(&e, Pairs("scale", "-Inf", "joint_rot", "nan 0 0 0"))
	if !errors.Is(err, ErrMalformedInput) || e != DefaultEdgeAttributes() {
		t.Errorf("edge update: err = %v, attrs = %s", err, e)
	}
}

func TestUpdateIdempotent(t *testing.T) {
	pairs := Pairs("label", "x", "radius", "0.3", "joint_type", "fixed")
	once := DefaultNodeAttributes()
	_ = UpdateNodeAttributes(&once, pairs)
	twice := once
	_ = UpdateNodeAttributes(&twice, pairs)
	if once != twice {
		t.Errorf("update not idempotent:\n%s\n%s", once, twice)
	}

	epairs := Pairs("joint_rot", "0.7071 0 0.7071 0", "joint_pos", "0.5")
	e1 := DefaultEdgeAttributes()
	_ = UpdateEdgeAttributes(&e1, epairs)
	e2 := e1
	_ = UpdateEdgeAttributes(&e2, epairs)
	if e1 != e2 {
		t.Error("edge update not idempotent")
	}
}

func TestUpdateOrderLastWins(t *testing.T) {
	a := DefaultEdgeAttributes()
	_ = UpdateEdgeAttributes(&a, Pairs("scale", "2", "scale", "3"))
	if a.Scale != 3 {
		t.Errorf("scale = %v, want 3", a.Scale)
	}
}

func TestUpdateEdgeAttributes(t *testing.T) {
	a := DefaultEdgeAttributes()
	err := UpdateEdgeAttributes(&a, Pairs("id", "mount", "label", "m", "joint_pos", "0.25", "joint_rot", "0 0 0 1", "scale", "0.5"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Set != AllEdgeFields {
		t.Errorf("set = %s", a.Set)
	}
	if a.JointRot != (Quaternion{Z: 1}) || a.JointPos != 0.25 || a.Scale != 0.5 {
		t.Errorf("unexpected attrs: %s", a)
	}
	if err := UpdateEdgeAttributes(&a, Pairs("joint_rot", "1 0 0")); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("short quaternion should fail, got %v", err)
	}
}

func TestPairsDropsTrailingKey(t *testing.T) {
	p := Pairs("a", "1", "b")
	if len(p) != 1 || p[0] != (AttrPair{"a", "1"}) {
		t.Errorf("Pairs = %v", p)
	}
}

func TestQuaternionRotate(t *testing.T) {
	q := QuaternionFromAxisAngle(Vec3{Z: 1}, math.Pi/2)
	got := q.Rotate(Vec3{X: 1})
	if math.Abs(got.X) > 1e-9 || math.Abs(got.Y-1) > 1e-9 || math.Abs(got.Z) > 1e-9 {
		t.Errorf("rotating +X by 90deg about Z = %s, want (0 1 0)", got)
	}
	axis, angle := q.AxisAngle()
	if math.Abs(angle-math.Pi/2) > 1e-9 || math.Abs(axis.Z-1) > 1e-9 {
		t.Errorf("AxisAngle = %s %v", axis, angle)
	}
	id := q.Mul(q.Conj())
	if math.Abs(id.W-1) > 1e-9 {
		t.Errorf("q * conj(q) = %s, want identity", id)
	}
	if _, a := IdentityQuaternion.AxisAngle(); a != 0 {
		t.Errorf("identity angle = %v", a)
	}
}
