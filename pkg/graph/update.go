package graph

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AttrPair is one key/value entry of an attribute list, as read from a
// textual graph description.
type AttrPair struct {
	Key   string
	Value string
}

// Pairs builds an attribute list from alternating keys and values.
// A trailing key without value is dropped.
func Pairs(kv ...string) []AttrPair {
	pairs := make([]AttrPair, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, AttrPair{Key: kv[i], Value: kv[i+1]})
	}
	return pairs
}

// attrError reports a recognized key whose value could not be parsed.
func attrError(p AttrPair, err error) error {
	return fmt.Errorf("%w: attribute %s=%q: %v", ErrMalformedInput, p.Key, p.Value, err)
}

// UpdateNodeAttributes applies attrs in order onto a, overwriting only the
// fields named by recognized keys and marking them set. Unknown keys are
// ignored. A value that fails to parse leaves its field untouched; later
// pairs still apply and every failure is returned joined.
func UpdateNodeAttributes(a *NodeAttributes, attrs []AttrPair) error {
	var errs []error
	for _, p := range attrs {
		var err error
		switch p.Key {
		case "label":
			a.Label = p.Value
			a.Set |= NodeLabel
		case "joint_type":
			var t JointType
			if t, err = ParseJointType(strings.TrimSpace(p.Value)); err == nil {
				a.JointType = t
				a.Set |= NodeJointType
			}
		case "joint_axis":
			var v Vec3
			if v, err = ParseVec3(p.Value); err == nil {
				a.JointAxis = v
				a.Set |= NodeJointAxis
			}
		case "shape":
			var s LinkShape
			if s, err = ParseLinkShape(strings.TrimSpace(p.Value)); err == nil {
				a.Shape = s
				a.Set |= NodeShape
			}
		case "length":
			err = parseFloatInto(p.Value, &a.Length, &a.Set, NodeLength)
		case "radius":
			err = parseFloatInto(p.Value, &a.Radius, &a.Set, NodeRadius)
		case "density":
			err = parseFloatInto(p.Value, &a.Density, &a.Set, NodeDensity)
		case "friction":
			err = parseFloatInto(p.Value, &a.Friction, &a.Set, NodeFriction)
		}
		if err != nil {
			errs = append(errs, attrError(p, err))
		}
	}
	return errors.Join(errs...)
}

// UpdateEdgeAttributes applies attrs in order onto a, with the same rules
// as UpdateNodeAttributes.
func UpdateEdgeAttributes(a *EdgeAttributes, attrs []AttrPair) error {
	var errs []error
	for _, p := range attrs {
		var err error
		switch p.Key {
		case "id":
			a.ID = p.Value
			a.Set |= EdgeID
		case "label":
			a.Label = p.Value
			a.Set |= EdgeLabel
		case "joint_pos":
			var f float64
			if f, err = parseFloat(p.Value); err == nil {
				a.JointPos = f
				a.Set |= EdgeJointPos
			}
		case "joint_rot":
			var q Quaternion
			if q, err = ParseQuaternion(p.Value); err == nil {
				a.JointRot = q
				a.Set |= EdgeJointRot
			}
		case "scale":
			var f float64
			if f, err = parseFloat(p.Value); err == nil {
				a.Scale = f
				a.Set |= EdgeScale
			}
		}
		if err != nil {
			errs = append(errs, attrError(p, err))
		}
	}
	return errors.Join(errs...)
}

func parseFloatInto(s string, dst *float64, set *NodeFields, f NodeFields) error {
	v, err := parseFloat(s)
	if err != nil {
		return err
	}
	*dst = v
	*set |= f
	return nil
}

// parseFloat parses a finite number; NaN and infinities are rejected.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s is not a finite number", strings.TrimSpace(s))
	}
	return v, nil
}

// splitNumbers splits a vector literal on whitespace and commas.
func splitNumbers(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// parseFloats parses exactly n numbers from a vector literal.
func parseFloats(s string, n int) ([]float64, error) {
	fields := splitNumbers(s)
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d numbers, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := parseFloat(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ParseVec3 parses "x y z" or "x, y, z".
func ParseVec3(s string) (Vec3, error) {
	f, err := parseFloats(s, 3)
	if err != nil {
		return Vec3{}, err
	}
	return Vec3{f[0], f[1], f[2]}, nil
}

// ParseQuaternion parses "w x y z" or "w, x, y, z".
func ParseQuaternion(s string) (Quaternion, error) {
	f, err := parseFloats(s, 4)
	if err != nil {
		return Quaternion{}, err
	}
	return Quaternion{W: f[0], X: f[1], Y: f[2], Z: f[3]}, nil
}
