package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/chazu/robogram/pkg/dotload"
	"github.com/chazu/robogram/pkg/engine"
	"github.com/chazu/robogram/pkg/grammar"
	"github.com/chazu/robogram/pkg/graph"
	"github.com/chazu/robogram/pkg/robot"
)

// Workspace holds everything loaded from the configured grammar files, in
// file order and then definition order. Rule indices in rule sequences
// refer to Rules.
type Workspace struct {
	Files  []string
	Graphs []*graph.Graph
	Rules  []*grammar.Rule
	Robots []*robot.Robot
}

// expandGrammars resolves each pattern with doublestar and returns the
// matching files, sorted within a pattern and without duplicates.
func expandGrammars(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, errors.New("no grammar files given; set grammars in the config or pass --grammar")
	}
	var files []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("grammar pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("grammar pattern %q matched no files", p)
		}
		slices.Sort(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

// loadWorkspace loads every grammar file matched by patterns.
func loadWorkspace(patterns []string, log *slog.Logger) (*Workspace, error) {
	files, err := expandGrammars(patterns)
	if err != nil {
		return nil, err
	}
	ws := &Workspace{}
	eng := engine.NewEngine(engine.WithLogger(log))
	for _, f := range files {
		if err := ws.load(f, eng); err != nil {
			return nil, err
		}
		log.Debug("loaded grammar file", "path", f)
	}
	ws.Files = files
	log.Info("loaded grammars", "files", len(files), "graphs", len(ws.Graphs), "rules", len(ws.Rules))
	return ws, nil
}

func (w *Workspace) load(path string, eng *engine.Engine) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		graphs, err := dotload.LoadGraphs(path)
		if err != nil {
			return err
		}
		for _, g := range graphs {
			if g.Subgraph(grammar.LeftSubgraph) == nil && g.Subgraph(grammar.RightSubgraph) == nil {
				if err := w.addGraph(path, g); err != nil {
					return err
				}
				continue
			}
			r, err := grammar.CreateRuleFromGraph(g)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := w.addRule(path, r); err != nil {
				return err
			}
		}
		return nil

	case ".lisp", ".zy":
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		p, evalErrs, err := eng.Evaluate(string(src))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if len(evalErrs) > 0 {
			errs := make([]error, len(evalErrs))
			for i, e := range evalErrs {
				errs[i] = fmt.Errorf("%s: %w", path, e)
			}
			return errors.Join(errs...)
		}
		for _, g := range p.Graphs {
			if err := w.addGraph(path, g); err != nil {
				return err
			}
		}
		for _, r := range p.Rules {
			if err := w.addRule(path, r); err != nil {
				return err
			}
		}
		w.Robots = append(w.Robots, p.Robots...)
		return nil

	default:
		return fmt.Errorf("%s: unsupported grammar file type", path)
	}
}

func (w *Workspace) addGraph(path string, g *graph.Graph) error {
	if w.Graph(g.Name) != nil {
		return fmt.Errorf("%s: graph %q already defined", path, g.Name)
	}
	w.Graphs = append(w.Graphs, g)
	return nil
}

func (w *Workspace) addRule(path string, r *grammar.Rule) error {
	if i, _ := w.ruleByName(r.Name); i >= 0 {
		return fmt.Errorf("%s: rule %q already defined", path, r.Name)
	}
	w.Rules = append(w.Rules, r)
	return nil
}

// Graph returns the named graph, or nil.
func (w *Workspace) Graph(name string) *graph.Graph {
	for _, g := range w.Graphs {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func (w *Workspace) ruleByName(name string) (int, *grammar.Rule) {
	for i, r := range w.Rules {
		if r.Name == name {
			return i, r
		}
	}
	return -1, nil
}

// LookupGraph is Graph with an error naming the known graphs.
func (w *Workspace) LookupGraph(name string) (*graph.Graph, error) {
	if g := w.Graph(name); g != nil {
		return g, nil
	}
	names := make([]string, len(w.Graphs))
	for i, g := range w.Graphs {
		names[i] = g.Name
	}
	return nil, fmt.Errorf("unknown graph %q (have %s)", name, strings.Join(names, ", "))
}

// LookupRule resolves a rule by name or by index.
func (w *Workspace) LookupRule(ref string) (int, *grammar.Rule, error) {
	if i, r := w.ruleByName(ref); r != nil {
		return i, r, nil
	}
	if i, err := strconv.Atoi(ref); err == nil && i >= 0 && i < len(w.Rules) {
		return i, w.Rules[i], nil
	}
	return -1, nil, fmt.Errorf("unknown rule %q (%d rules loaded)", ref, len(w.Rules))
}

// Derive runs the rule sequence seq from the named start graph.
func (w *Workspace) Derive(start, seq string) (*grammar.Derivation, error) {
	if start == "" {
		return nil, errors.New("no start graph; set start in the config or pass --start")
	}
	g, err := w.LookupGraph(start)
	if err != nil {
		return nil, err
	}
	steps, err := grammar.ParseRuleSequence(seq)
	if err != nil {
		return nil, err
	}
	return grammar.Derive(g, w.Rules, steps)
}
