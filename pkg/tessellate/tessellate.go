// Package tessellate places every link of a robot at its rest pose and
// produces triangle meshes using a geometry kernel. One mesh is produced
// per link that has a shape.
package tessellate

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/robogram/pkg/graph"
	"github.com/chazu/robogram/pkg/kernel"
	"github.com/chazu/robogram/pkg/robot"
)

// Tessellate meshes every link of r in world coordinates with all joints
// at zero. Links with graph.ShapeNone are skipped. Meshes are returned in
// link order and carry the link name. Links are meshed concurrently; the
// kernel must tolerate concurrent use. The tessellator never mutates r.
func Tessellate(ctx context.Context, r *robot.Robot, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if r == nil || len(r.Links) == 0 {
		return nil, nil
	}
	transforms := r.WorldTransforms()
	meshes := make([]*kernel.Mesh, len(r.Links))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range r.Links {
		link := &r.Links[i]
		if link.Shape == graph.ShapeNone {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			solid, err := linkSolid(k, link)
			if err != nil {
				return fmt.Errorf("tessellate: link %q: %w", link.Name, err)
			}
			solid = place(k, solid, transforms[i])
			m, err := k.ToMesh(solid)
			if err != nil {
				return fmt.Errorf("tessellate: ToMesh failed for link %q: %w", link.Name, err)
			}
			m.LinkName = link.Name
			meshes[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := meshes[:0]
	for _, m := range meshes {
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// linkSolid builds a link in its own frame: it starts at the origin and
// extends Length along +X.
func linkSolid(k kernel.Kernel, l *robot.Link) (kernel.Solid, error) {
	if l.Radius <= 0 {
		return nil, fmt.Errorf("radius %.4g must be positive", l.Radius)
	}
	if l.Length < 0 || (l.Length == 0 && l.Shape == graph.ShapeCylinder) {
		return nil, fmt.Errorf("length %.4g must be positive", l.Length)
	}

	switch l.Shape {
	case graph.ShapeCapsule:
		solid := k.Sphere(l.Radius)
		if l.Length > 0 {
			solid = k.Union(solid, k.Translate(k.Sphere(l.Radius), l.Length, 0, 0))
			solid = k.Union(solid, rod(k, l.Length, l.Radius))
		}
		return solid, nil
	case graph.ShapeCylinder:
		return rod(k, l.Length, l.Radius), nil
	default:
		return nil, fmt.Errorf("unsupported shape %v", l.Shape)
	}
}

// rod returns a cylinder from the origin to (length, 0, 0).
func rod(k kernel.Kernel, length, radius float64) kernel.Solid {
	s := k.Rotate(k.Cylinder(length, radius), [3]float64{0, 1, 0}, math.Pi/2)
	return k.Translate(s, length/2, 0, 0)
}

// place applies the link's world rotation first, then its translation.
func place(k kernel.Kernel, s kernel.Solid, t robot.Transform) kernel.Solid {
	axis, angle := t.Rot.AxisAngle()
	if angle != 0 {
		s = k.Rotate(s, [3]float64{axis.X, axis.Y, axis.Z}, angle)
	}
	if t.Pos != (graph.Vec3{}) {
		s = k.Translate(s, t.Pos.X, t.Pos.Y, t.Pos.Z)
	}
	return s
}
