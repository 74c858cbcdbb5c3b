package robot

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/robogram/pkg/graph"
)

// Severity distinguishes blocking findings from advisory ones.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Finding is one design check result, located by element kind and index
// in the source graph.
type Finding struct {
	Code     string
	Message  string
	Element  graph.ElementKind
	Index    int
	Severity Severity
}

func (f Finding) String() string {
	return fmt.Sprintf("%s %s: %s %d: %s", f.Severity, f.Code, f.Element, f.Index, f.Message)
}

// Report collects the findings of ValidateDesign.
type Report struct {
	Errors   []Finding
	Warnings []Finding
}

// OK reports whether the design has no blocking findings.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

func (r *Report) add(f Finding) {
	if f.Severity == SeverityWarning {
		r.Warnings = append(r.Warnings, f)
		return
	}
	r.Errors = append(r.Errors, f)
}

// ValidateDesign runs every design check on g and reports all findings:
//
//	tier 1  tree structure (the checks BuildRobot enforces)
//	tier 2  physical dimensions (errors) and joint placement (warnings)
//
// Tier 2 only runs when tier 1 passes.
func ValidateDesign(g *graph.Graph) Report {
	var r Report
	if _, err := BuildRobot(g); err != nil {
		for _, f := range structureFindings(err) {
			r.add(f)
		}
		return r
	}
	for _, f := range validateDimensions(g) {
		r.add(f)
	}
	for _, f := range validateJoints(g) {
		r.add(f)
	}
	return r
}

// structureFindings flattens a BuildRobot error into findings.
func structureFindings(err error) []Finding {
	var out []Finding
	var walk func(error)
	walk = func(err error) {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		if ge, ok := err.(*graph.Error); ok {
			out = append(out, Finding{
				Code:     "STRUCTURE",
				Message:  ge.Message,
				Element:  ge.Element,
				Index:    ge.Index,
				Severity: SeverityError,
			})
			return
		}
		if u := errors.Unwrap(err); u != nil {
			walk(u)
			return
		}
		out = append(out, Finding{Code: "STRUCTURE", Message: err.Error(), Index: -1})
	}
	walk(err)
	return out
}

// validateDimensions checks that every link has positive physical
// dimensions.
func validateDimensions(g *graph.Graph) []Finding {
	var out []Finding
	for i, n := range g.Nodes {
		a := n.Attrs
		for _, d := range []struct {
			name  string
			value float64
		}{{"length", a.Length}, {"radius", a.Radius}, {"density", a.Density}} {
			if !positiveFinite(d.value) {
				out = append(out, Finding{
					Code:    "NONPOSITIVE_DIMENSION",
					Message: fmt.Sprintf("link %q %s is %.4g, must be positive and finite", n.Name, d.name, d.value),
					Element: graph.ElementNode,
					Index:   i,
				})
			}
		}
		if !(a.Friction >= 0) || math.IsInf(a.Friction, 1) {
			out = append(out, Finding{
				Code:    "NEGATIVE_FRICTION",
				Message: fmt.Sprintf("link %q friction is %.4g", n.Name, a.Friction),
				Element: graph.ElementNode,
				Index:   i,
			})
		}
		if a.Shape == graph.ShapeNone {
			out = append(out, Finding{
				Code:     "NO_GEOMETRY",
				Message:  fmt.Sprintf("link %q has no shape and will not be meshed", n.Name),
				Element:  graph.ElementNode,
				Index:    i,
				Severity: SeverityWarning,
			})
		}
	}
	for l, e := range g.Edges {
		if !positiveFinite(e.Attrs.Scale) {
			out = append(out, Finding{
				Code:    "NONPOSITIVE_SCALE",
				Message: fmt.Sprintf("edge scale is %.4g, must be positive and finite", e.Attrs.Scale),
				Element: graph.ElementEdge,
				Index:   l,
			})
		}
	}
	return out
}

// positiveFinite is false for NaN as well as for non-positive values.
func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// validateJoints warns about joints that will behave unexpectedly.
func validateJoints(g *graph.Graph) []Finding {
	var out []Finding
	for i, n := range g.Nodes {
		if n.Attrs.JointType == graph.JointHinge && n.Attrs.JointAxis.Length() == 0 {
			out = append(out, Finding{
				Code:    "ZERO_AXIS",
				Message: fmt.Sprintf("hinge on link %q has a zero axis", n.Name),
				Element: graph.ElementNode,
				Index:   i,
			})
		}
	}
	for l, e := range g.Edges {
		if !(e.Attrs.JointPos >= 0 && e.Attrs.JointPos <= 1) {
			out = append(out, Finding{
				Code:     "JOINT_OUTSIDE_PARENT",
				Message:  fmt.Sprintf("joint position %.4g lies outside the parent link", e.Attrs.JointPos),
				Element:  graph.ElementEdge,
				Index:    l,
				Severity: SeverityWarning,
			})
		}
		if math.Abs(e.Attrs.JointRot.Norm()-1) > 1e-6 {
			out = append(out, Finding{
				Code:     "NON_UNIT_ROTATION",
				Message:  fmt.Sprintf("joint rotation %s is not a unit quaternion", e.Attrs.JointRot),
				Element:  graph.ElementEdge,
				Index:    l,
				Severity: SeverityWarning,
			})
		}
	}
	return out
}
