package engine

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/robogram/pkg/grammar"
	"github.com/chazu/robogram/pkg/graph"
	"github.com/chazu/robogram/pkg/robot"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms grammar Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: node-defaults -> node_defaults
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a graph.Vec3.
type sexpVec3 struct {
	vec graph.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpQuat wraps a graph.Quaternion.
type sexpQuat struct {
	q graph.Quaternion
}

func (q *sexpQuat) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(quat %g %g %g %g)", q.q.W, q.q.X, q.q.Y, q.q.Z)
}
func (q *sexpQuat) Type() *zygo.RegisteredType { return nil }

// sexpNode is a node declaration returned by `node` and consumed by the
// graph-defining forms.
type sexpNode struct {
	name  string
	pairs []graph.AttrPair
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(node %q)", n.name)
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

// sexpEdge is an edge declaration.
type sexpEdge struct {
	tail, head string
	pairs      []graph.AttrPair
}

func (e *sexpEdge) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(edge %q %q)", e.tail, e.head)
}
func (e *sexpEdge) Type() *zygo.RegisteredType { return nil }

// sexpDefaults is a node-defaults or edge-defaults declaration.
type sexpDefaults struct {
	edges bool
	pairs []graph.AttrPair
}

func (d *sexpDefaults) SexpString(ps *zygo.PrintState) string {
	if d.edges {
		return "(edge-defaults)"
	}
	return "(node-defaults)"
}
func (d *sexpDefaults) Type() *zygo.RegisteredType { return nil }

// sexpSubgraph groups declarations under a named subgraph.
type sexpSubgraph struct {
	name  string
	items []zygo.Sexp
}

func (s *sexpSubgraph) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(subgraph %q)", s.name)
}
func (s *sexpSubgraph) Type() *zygo.RegisteredType { return nil }

// sexpRef names something a def form registered in the program.
type sexpRef struct {
	kind string // graph, rule, derivation, robot
	name string
}

func (r *sexpRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", r.kind, r.name)
}
func (r *sexpRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// parseArgs separates args into positional arguments and attribute pairs,
// keeping source order. Keyword names become attribute keys with hyphens
// replaced by underscores, so :joint-type sets joint_type.
func parseArgs(args []zygo.Sexp) (positional []zygo.Sexp, pairs []graph.AttrPair, err error) {
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			positional = append(positional, args[i])
			continue
		}
		if i+1 >= len(args) {
			return nil, nil, fmt.Errorf("keyword :%s has no value", name)
		}
		i++
		v, err := toAttrValue(args[i])
		if err != nil {
			return nil, nil, fmt.Errorf(":%s: %w", name, err)
		}
		pairs = append(pairs, graph.AttrPair{Key: strings.ReplaceAll(name, "-", "_"), Value: v})
	}
	return positional, pairs, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (graph.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// formatFloat prints f so that it parses back to the same value.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// toAttrValue renders an attribute value as the text graph.Update*Attributes
// parses: keywords and strings as is, numbers, vectors as "x y z" and
// quaternions as "w x y z".
func toAttrValue(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *zygo.SexpStr:
		return strings.TrimPrefix(v.S, kwPrefix), nil
	case *zygo.SexpInt, *zygo.SexpFloat:
		f, err := toFloat64(v)
		if err != nil {
			return "", err
		}
		return formatFloat(f), nil
	case *sexpVec3:
		return strings.Join([]string{formatFloat(v.vec.X), formatFloat(v.vec.Y), formatFloat(v.vec.Z)}, " "), nil
	case *sexpQuat:
		return strings.Join([]string{formatFloat(v.q.W), formatFloat(v.q.X), formatFloat(v.q.Y), formatFloat(v.q.Z)}, " "), nil
	}
	return "", fmt.Errorf("expected string, number, vec3 or quat, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// flatten expands nested lists and arrays in args, so scripts can build
// declarations with map or list and pass them along. nil entries are
// dropped.
func flatten(args []zygo.Sexp) ([]zygo.Sexp, error) {
	var out []zygo.Sexp
	for _, a := range args {
		switch a.(type) {
		case *zygo.SexpPair, *zygo.SexpArray, *zygo.SexpSentinel:
			items, err := sexpListToSlice(a)
			if err != nil {
				return nil, err
			}
			inner, err := flatten(items)
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
		default:
			out = append(out, a)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Evaluation session
// ---------------------------------------------------------------------------

// session is the state one evaluation accumulates.
type session struct {
	program *Program
	logger  *slog.Logger
}

// buildGraph assembles a graph from node, edge, defaults and subgraph
// declarations.
func buildGraph(name string, items []zygo.Sexp) (*graph.Graph, error) {
	b := graph.NewBuilder(name)
	if err := declare(b.Root(), items); err != nil {
		return nil, err
	}
	return b.Graph()
}

func declare(sc *graph.Scope, items []zygo.Sexp) error {
	items, err := flatten(items)
	if err != nil {
		return err
	}
	for _, item := range items {
		switch it := item.(type) {
		case *sexpNode:
			sc.Node(it.name, it.pairs)
		case *sexpEdge:
			sc.Edge(it.tail, it.head, it.pairs)
		case *sexpDefaults:
			if it.edges {
				sc.EdgeDefaults(it.pairs)
			} else {
				sc.NodeDefaults(it.pairs)
			}
		case *sexpSubgraph:
			if err := declare(sc.Subgraph(it.name), it.items); err != nil {
				return err
			}
		default:
			return fmt.Errorf("expected node, edge, defaults or subgraph, got %T (%s)", item, item.SexpString(nil))
		}
	}
	return nil
}

// defined reports whether name is already used by a graph.
func (s *session) defined(name string) bool {
	return s.program.Graph(name) != nil
}

// resolveStep converts a derive step to a grammar.Step. A step is a rule
// index, or a string holding a rule name or index optionally followed by
// ":" and a match index.
func (s *session) resolveStep(item zygo.Sexp) (grammar.Step, error) {
	if n, ok := item.(*zygo.SexpInt); ok {
		return grammar.Step{Rule: int(n.Val)}, nil
	}
	str, err := toString(item)
	if err != nil {
		return grammar.Step{}, fmt.Errorf("step: %w", err)
	}
	ruleStr, matchStr, hasMatch := strings.Cut(str, ":")
	var step grammar.Step
	if i, _ := s.program.Rule(ruleStr); i >= 0 {
		step.Rule = i
	} else if i, err := strconv.Atoi(ruleStr); err == nil && i >= 0 {
		step.Rule = i
	} else {
		return step, fmt.Errorf("%w: step %q: no rule named %q", graph.ErrInvalidReference, str, ruleStr)
	}
	if hasMatch {
		m, err := strconv.Atoi(matchStr)
		if err != nil || m < 0 {
			return step, fmt.Errorf("%w: step %q: bad match index", graph.ErrMalformedInput, str)
		}
		step.Match = m
	}
	return step, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the grammar DSL builtins into a zygomys
// environment. Definition forms record their results in s.program.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *session) {

	// -----------------------------------------------------------------------
	// (vec3 0 1 0)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: component %d: %w", i, err)
			}
			v[i] = f
		}
		return &sexpVec3{vec: graph.Vec3{X: v[0], Y: v[1], Z: v[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (quat w x y z)
	// -----------------------------------------------------------------------
	env.AddFunction("quat", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("quat requires exactly 4 arguments, got %d", len(args))
		}
		var q [4]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("quat: component %d: %w", i, err)
			}
			q[i] = f
		}
		return &sexpQuat{q: graph.Quaternion{W: q[0], X: q[1], Y: q[2], Z: q[3]}}, nil
	})

	// -----------------------------------------------------------------------
	// (rotation (vec3 0 0 1) 90)   axis and angle in degrees
	// -----------------------------------------------------------------------
	env.AddFunction("rotation", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("rotation requires an axis and an angle")
		}
		axis, err := toVec3(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotation: axis: %w", err)
		}
		if axis.Length() == 0 {
			return zygo.SexpNull, fmt.Errorf("rotation: axis must be non-zero")
		}
		deg, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotation: angle: %w", err)
		}
		return &sexpQuat{q: graph.QuaternionFromAxisAngle(axis, deg*math.Pi/180)}, nil
	})

	// -----------------------------------------------------------------------
	// (node "leg" :joint-type :hinge :length 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("node", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pos, pairs, err := parseArgs(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node: %w", err)
		}
		if len(pos) != 1 {
			return zygo.SexpNull, fmt.Errorf("node requires exactly one name argument")
		}
		nodeName, err := toString(pos[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node: name: %w", err)
		}
		return &sexpNode{name: nodeName, pairs: pairs}, nil
	})

	// -----------------------------------------------------------------------
	// (edge "body" "leg" :joint-pos 0.5 :joint-rot (rotation (vec3 0 0 1) 90))
	// -----------------------------------------------------------------------
	env.AddFunction("edge", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pos, pairs, err := parseArgs(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("edge: %w", err)
		}
		if len(pos) != 2 {
			return zygo.SexpNull, fmt.Errorf("edge requires a tail and a head")
		}
		tail, err := toString(pos[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("edge: tail: %w", err)
		}
		head, err := toString(pos[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("edge: head: %w", err)
		}
		return &sexpEdge{tail: tail, head: head, pairs: pairs}, nil
	})

	// -----------------------------------------------------------------------
	// (node-defaults :shape :capsule)  (edge-defaults :scale 2)
	//
	// Registered with underscores; the preprocessor rewrites the kebab-case
	// spelling in the source.
	// -----------------------------------------------------------------------
	for fn, edges := range map[string]bool{"node_defaults": false, "edge_defaults": true} {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pos, pairs, err := parseArgs(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
			if len(pos) != 0 {
				return zygo.SexpNull, fmt.Errorf("%s takes only keyword arguments", fn)
			}
			return &sexpDefaults{edges: edges, pairs: pairs}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (subgraph "R" (node ...) (edge ...))
	// -----------------------------------------------------------------------
	env.AddFunction("subgraph", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("subgraph requires a name argument")
		}
		sgName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("subgraph: name: %w", err)
		}
		return &sexpSubgraph{name: sgName, items: args[1:]}, nil
	})

	// -----------------------------------------------------------------------
	// (defgraph "robot" (node "body" ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("defgraph", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("defgraph requires a name argument")
		}
		gName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defgraph: name: %w", err)
		}
		if s.defined(gName) {
			return zygo.SexpNull, fmt.Errorf("defgraph: graph %q already defined", gName)
		}
		g, err := buildGraph(gName, args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defgraph: %w", err)
		}
		s.program.Graphs = append(s.program.Graphs, g)
		s.logger.Debug("defined graph", "name", gName, "nodes", len(g.Nodes), "edges", len(g.Edges))
		return &sexpRef{kind: "graph", name: gName}, nil
	})

	// -----------------------------------------------------------------------
	// (defrule "add_leg" (subgraph "L" ...) (subgraph "R" ...))
	// -----------------------------------------------------------------------
	env.AddFunction("defrule", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("defrule requires a name argument")
		}
		rName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defrule: name: %w", err)
		}
		if i, _ := s.program.Rule(rName); i >= 0 {
			return zygo.SexpNull, fmt.Errorf("defrule: rule %q already defined", rName)
		}
		g, err := buildGraph(rName, args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defrule: %w", err)
		}
		r, err := grammar.CreateRuleFromGraph(g)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defrule: %w", err)
		}
		s.program.Rules = append(s.program.Rules, r)
		s.logger.Debug("defined rule", "name", rName, "index", len(s.program.Rules)-1)
		return &sexpRef{kind: "rule", name: rName}, nil
	})

	// -----------------------------------------------------------------------
	// (derive "walker" "robot" "add_leg" "add_leg:1" 0)
	// -----------------------------------------------------------------------
	env.AddFunction("derive", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("derive requires a name and a start graph")
		}
		dName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("derive: name: %w", err)
		}
		if s.defined(dName) {
			return zygo.SexpNull, fmt.Errorf("derive: graph %q already defined", dName)
		}
		startName, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("derive: start: %w", err)
		}
		start := s.program.Graph(startName)
		if start == nil {
			return zygo.SexpNull, fmt.Errorf("derive: no graph named %q", startName)
		}
		items, err := flatten(args[2:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("derive: %w", err)
		}
		steps := make([]grammar.Step, len(items))
		for i, item := range items {
			if steps[i], err = s.resolveStep(item); err != nil {
				return zygo.SexpNull, fmt.Errorf("derive: %w", err)
			}
		}

		d, err := grammar.Derive(start, s.program.Rules, steps)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("derive %q: %w", dName, err)
		}
		if earlier, later, ok := d.Cycle(); ok {
			s.logger.Warn("derivation revisits a graph", "name", dName, "earlier", earlier, "later", later)
		}
		final := d.Final().Clone()
		final.Name = dName
		s.program.Graphs = append(s.program.Graphs, final)
		s.program.Derivations[dName] = d
		s.logger.Debug("derived graph", "name", dName, "steps", len(steps),
			"nodes", len(final.Nodes), "fingerprint", graph.Short(graph.Fingerprint(final)))
		return &sexpRef{kind: "graph", name: dName}, nil
	})

	// -----------------------------------------------------------------------
	// (build "walker")
	// -----------------------------------------------------------------------
	env.AddFunction("build", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("build requires a graph name")
		}
		gName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("build: name: %w", err)
		}
		g := s.program.Graph(gName)
		if g == nil {
			return zygo.SexpNull, fmt.Errorf("build: no graph named %q", gName)
		}
		if s.program.Robot(gName) != nil {
			return zygo.SexpNull, fmt.Errorf("build: robot %q already built", gName)
		}
		r, err := robot.BuildRobot(g)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("build: %w", err)
		}
		s.program.Robots = append(s.program.Robots, r)
		s.logger.Debug("built robot", "name", gName, "links", len(r.Links), "dof", r.DegreesOfFreedom())
		return &sexpRef{kind: "robot", name: gName}, nil
	})
}
