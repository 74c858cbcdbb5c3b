package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/robogram/pkg/grammar"
	"github.com/chazu/robogram/pkg/graph"
	"github.com/chazu/robogram/pkg/kernel/sdfx"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runInspect(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace(cfg.Grammars, logger)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		for _, g := range ws.Graphs {
			fmt.Fprintf(out, "graph %q: %d nodes, %d edges, %d subgraphs, fingerprint %s\n",
				g.Name, g.NodeCount(), g.EdgeCount(), len(g.Subgraphs), graph.Short(graph.Fingerprint(g)))
		}
		for i, r := range ws.Rules {
			fmt.Fprintf(out, "%d: %s\n", i, r)
		}
		for _, r := range ws.Robots {
			fmt.Fprintln(out, r)
		}
		return nil
	}

	for _, name := range args {
		if g := ws.Graph(name); g != nil {
			if err := g.Format(out); err != nil {
				return err
			}
			continue
		}
		_, r, err := ws.LookupRule(name)
		if err != nil {
			return fmt.Errorf("no graph or rule named %q", name)
		}
		fmt.Fprintln(out, r)
		for _, side := range []*graph.Graph{r.LHS, r.Common, r.RHS} {
			if err := side.Format(out); err != nil {
				return err
			}
		}
	}
	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace(cfg.Grammars, logger)
	if err != nil {
		return err
	}
	_, r, err := ws.LookupRule(args[0])
	if err != nil {
		return err
	}
	g, err := ws.LookupGraph(args[1])
	if err != nil {
		return err
	}

	matches, err := grammar.FindMatchesParallel(commandContext(cmd), r.LHS, g)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d matches of rule %q in graph %q\n", len(matches), r.Name, g.Name)
	for k, m := range matches {
		fmt.Fprintf(out, "%d: %s\n", k, describeMatch(r.LHS, g, m))
	}
	return nil
}

// describeMatch renders a mapping as pattern->target node name pairs.
func describeMatch(pattern, target *graph.Graph, m graph.GraphMapping) string {
	parts := make([]string, len(m.NodeMapping))
	for i, t := range m.NodeMapping {
		parts[i] = pattern.Nodes[i].Name + "->" + target.Nodes[t].Name
	}
	return strings.Join(parts, " ")
}

func runApply(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace(cfg.Grammars, logger)
	if err != nil {
		return err
	}
	_, r, err := ws.LookupRule(args[0])
	if err != nil {
		return err
	}
	g, err := ws.LookupGraph(args[1])
	if err != nil {
		return err
	}

	matches := grammar.FindMatches(r.LHS, g)
	if matchIndex < 0 || matchIndex >= len(matches) {
		return fmt.Errorf("rule %q has %d matches in graph %q, no match %d", r.Name, len(matches), g.Name, matchIndex)
	}
	result, err := grammar.ApplyRule(r, g, matches[matchIndex])
	if err != nil {
		return err
	}
	logger.Info("applied rule", "rule", r.Name, "graph", g.Name, "match", matchIndex,
		"fingerprint", graph.Short(graph.Fingerprint(result)))
	return result.Format(cmd.OutOrStdout())
}

func runDerive(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace(cfg.Grammars, logger)
	if err != nil {
		return err
	}
	d, err := ws.Derive(cfg.Start, cfg.Rules)
	out := cmd.OutOrStdout()
	if d != nil {
		printDerivation(out, ws, d)
	}
	if err != nil {
		return err
	}
	if earlier, later, ok := d.Cycle(); ok {
		logger.Warn("derivation revisits a graph", "earlier", earlier, "later", later)
	}
	return d.Final().Format(out)
}

func printDerivation(w io.Writer, ws *Workspace, d *grammar.Derivation) {
	fmt.Fprintf(w, "start %s %s\n", d.Graphs[0].Name, graph.Short(d.Fingerprints[0]))
	for k, step := range d.Steps {
		fmt.Fprintf(w, "step %d: rule %q match %d -> %s\n",
			k, ws.Rules[step.Rule].Name, step.Match, graph.Short(d.Fingerprints[k+1]))
	}
}

// designGraph returns the graph named by args, or the final graph of the
// configured derivation when no name is given.
func designGraph(ws *Workspace, args []string) (*graph.Graph, error) {
	if len(args) == 1 {
		return ws.LookupGraph(args[0])
	}
	d, err := ws.Derive(cfg.Start, cfg.Rules)
	if err != nil {
		return nil, err
	}
	return d.Final(), nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace(cfg.Grammars, logger)
	if err != nil {
		return err
	}
	g, err := designGraph(ws, args)
	if err != nil {
		return err
	}
	r, warnings, err := compileDesign(g, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonFlag {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	fmt.Fprintln(out, r)
	for i, l := range r.Links {
		fmt.Fprintf(out, "link %d %q parent=%d shape=%s length=%g radius=%g\n",
			i, l.Name, l.Parent, l.Shape, l.Length, l.Radius)
	}
	for i, j := range r.Joints {
		fmt.Fprintf(out, "joint %d %d->%d type=%s axis=%s pos=%g rot=%s\n",
			i, j.Parent, j.Child, j.Type, j.Axis, j.Pos, j.Rot)
	}
	for _, w := range warnings {
		fmt.Fprintln(out, w)
	}
	return nil
}

func runMesh(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace(cfg.Grammars, logger)
	if err != nil {
		return err
	}
	g, err := designGraph(ws, args)
	if err != nil {
		return err
	}
	res, err := meshDesign(commandContext(cmd), g, sdfx.New(sdfx.WithMeshCells(cfg.MeshCells)), logger)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := json.NewEncoder(w).Encode(res); err != nil {
		return fmt.Errorf("write meshes: %w", err)
	}
	if outPath != "" {
		logger.Info("wrote meshes", "path", outPath, "meshes", len(res.Meshes))
	}
	return nil
}
