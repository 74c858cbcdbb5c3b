package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chazu/robogram/pkg/graph"
	"github.com/chazu/robogram/pkg/kernel"
	"github.com/chazu/robogram/pkg/robot"
	"github.com/chazu/robogram/pkg/tessellate"
)

// colorPalette assigns distinct colors to links, cycling by link order.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// MeshData is the JSON mesh format written by the mesh command.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	LinkName string    `json:"linkName"`
	Color    string    `json:"color"`
}

// MeshResult is everything produced for one design.
type MeshResult struct {
	Robot    string     `json:"robot"`
	Meshes   []MeshData `json:"meshes"`
	Warnings []string   `json:"warnings"`
}

// compileDesign validates g and builds its robot. Warnings are logged
// and returned; any error finding fails the build.
func compileDesign(g *graph.Graph, log *slog.Logger) (*robot.Robot, []string, error) {
	report := robot.ValidateDesign(g)
	if !report.OK() {
		errs := make([]error, len(report.Errors))
		for i, f := range report.Errors {
			errs[i] = errors.New(f.String())
		}
		return nil, nil, fmt.Errorf("design %q: %w", g.Name, errors.Join(errs...))
	}
	warnings := make([]string, 0, len(report.Warnings))
	for _, f := range report.Warnings {
		log.Warn("design check", "graph", g.Name, "code", f.Code, "element", f.Element.String(), "index", f.Index, "msg", f.Message)
		warnings = append(warnings, f.String())
	}
	r, err := robot.BuildRobot(g)
	if err != nil {
		return nil, nil, err
	}
	return r, warnings, nil
}

// meshDesign compiles g and tessellates every link with geometry using k.
func meshDesign(ctx context.Context, g *graph.Graph, k kernel.Kernel, log *slog.Logger) (*MeshResult, error) {
	r, warnings, err := compileDesign(g, log)
	if err != nil {
		return nil, err
	}
	meshes, err := tessellate.Tessellate(ctx, r, k)
	if err != nil {
		return nil, fmt.Errorf("tessellation failed: %w", err)
	}

	res := &MeshResult{Robot: r.Name, Meshes: make([]MeshData, 0, len(meshes)), Warnings: warnings}
	for i, m := range meshes {
		res.Meshes = append(res.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			LinkName: m.LinkName,
			Color:    colorPalette[i%len(colorPalette)],
		})
		log.Debug("meshed link", "link", m.LinkName, "triangles", m.TriangleCount())
	}
	return res, nil
}
