package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/robogram/pkg/graph"
)

// Step selects one rewrite: rule Rule applied at match Match of its LHS
// in the current graph, counting matches in FindMatches order.
type Step struct {
	Rule  int `json:"rule" yaml:"rule"`
	Match int `json:"match" yaml:"match"`
}

func (s Step) String() string {
	if s.Match == 0 {
		return strconv.Itoa(s.Rule)
	}
	return strconv.Itoa(s.Rule) + ":" + strconv.Itoa(s.Match)
}

// ParseRuleSequence parses a rule sequence such as "0, 7, 1:2". Entries
// are separated by commas or whitespace; each is a rule index optionally
// followed by ":" and a match index (default 0).
func ParseRuleSequence(s string) ([]Step, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	steps := make([]Step, 0, len(fields))
	for _, f := range fields {
		ruleStr, matchStr, hasMatch := strings.Cut(f, ":")
		rule, err := strconv.Atoi(ruleStr)
		if err != nil || rule < 0 {
			return nil, fmt.Errorf("%w: rule sequence entry %q: bad rule index", graph.ErrMalformedInput, f)
		}
		step := Step{Rule: rule}
		if hasMatch {
			match, err := strconv.Atoi(matchStr)
			if err != nil || match < 0 {
				return nil, fmt.Errorf("%w: rule sequence entry %q: bad match index", graph.ErrMalformedInput, f)
			}
			step.Match = match
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// Application is one applicable rewrite of a graph.
type Application struct {
	Rule  int
	Match graph.GraphMapping
}

// Applicable lists every (rule, match) pair applicable to g, ordered by
// rule index and then by match order.
func Applicable(rules []*Rule, g *graph.Graph) []Application {
	var apps []Application
	for i, r := range rules {
		for _, m := range FindMatches(r.LHS, g) {
			apps = append(apps, Application{Rule: i, Match: m})
		}
	}
	return apps
}

// Derivation records the graphs produced by a rule sequence. Graphs[0]
// is the start graph and Graphs[k+1] the result of Steps[k].
type Derivation struct {
	Steps        []Step
	Graphs       []*graph.Graph
	Fingerprints []string
}

// Final returns the last graph of the derivation.
func (d *Derivation) Final() *graph.Graph {
	return d.Graphs[len(d.Graphs)-1]
}

// Cycle reports the first graph that repeats an earlier one: Graphs[later]
// is identical to Graphs[earlier].
func (d *Derivation) Cycle() (earlier, later int, ok bool) {
	seen := make(map[string]int, len(d.Fingerprints))
	for k, fp := range d.Fingerprints {
		if j, dup := seen[fp]; dup {
			return j, k, true
		}
		seen[fp] = k
	}
	return 0, 0, false
}

// Derive applies steps in order starting from start. A step naming a rule
// or match that does not exist fails with ErrInvalidReference; rewrite
// failures are returned as is. The derivation up to the failing step is
// returned along with the error.
func Derive(start *graph.Graph, rules []*Rule, steps []Step) (*Derivation, error) {
	d := &Derivation{
		Graphs:       []*graph.Graph{start},
		Fingerprints: []string{graph.Fingerprint(start)},
	}
	current := start
	for k, step := range steps {
		if step.Rule < 0 || step.Rule >= len(rules) {
			return d, fmt.Errorf("grammar: step %d: %w", k,
				graph.NewError(graph.ErrInvalidReference, current.Name, graph.ElementGraph, -1,
					"rule %d out of range (%d rules)", step.Rule, len(rules)))
		}
		rule := rules[step.Rule]
		m, ok := nthMatch(rule.LHS, current, step.Match)
		if !ok {
			return d, fmt.Errorf("grammar: step %d: %w", k,
				graph.NewError(graph.ErrInvalidReference, current.Name, graph.ElementMapping, -1,
					"rule %q has no match %d", rule.Name, step.Match))
		}
		next, err := ApplyRule(rule, current, m)
		if err != nil {
			return d, fmt.Errorf("grammar: step %d: %w", k, err)
		}
		d.Steps = append(d.Steps, step)
		d.Graphs = append(d.Graphs, next)
		d.Fingerprints = append(d.Fingerprints, graph.Fingerprint(next))
		current = next
	}
	return d, nil
}

// nthMatch returns match n of pattern in target without enumerating the
// rest of the search space.
func nthMatch(pattern, target *graph.Graph, n int) (graph.GraphMapping, bool) {
	s := NewSearch(pattern, target)
	for i := 0; ; i++ {
		m, ok := s.Next()
		if !ok || i == n {
			return m, ok
		}
	}
}
