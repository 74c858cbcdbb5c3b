// Package kernel defines the abstract geometry kernel used to mesh robot
// links. The sdfx subpackage is the only backend; the interface keeps the
// tessellator independent of it.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives, centred on the origin. Cylinders run along Z.
	Sphere(radius float64) Solid
	Cylinder(height, radius float64) Solid

	Union(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, axis [3]float64, angle float64) Solid // radians, right hand rule

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
